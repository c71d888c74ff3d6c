package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"sevaconnect-backend/models"
	"sevaconnect-backend/repository"
	"sevaconnect-backend/utils"

	"go.uber.org/zap"
)

const minPasswordLength = 6

// UserStore persists user accounts.
type UserStore interface {
	GetUser(ctx context.Context, id string) (*models.User, error)
	FindUserByIdentifier(ctx context.Context, identifiers ...string) (*models.User, error)
	IdentifierTaken(ctx context.Context, identifiers ...string) (bool, error)
	CreateUser(ctx context.Context, u *models.User) error
	UpdateUserColumns(ctx context.Context, u *models.User, cols []string) error
	ListUsersBySociety(ctx context.Context, societyID string) ([]models.User, error)
	DeleteUserCascade(ctx context.Context, id string) error
}

// TokenGenerator issues access tokens.
type TokenGenerator interface {
	Generate(userID, role, societyID string) (string, error)
}

// IdentityService handles registration, login and password recovery.
type IdentityService struct {
	users       UserStore
	verifier    Verifier
	tokens      TokenGenerator
	countryCode string
	now         func() time.Time
}

func NewIdentityService(users UserStore, verifier Verifier, tokens TokenGenerator, countryCode string) *IdentityService {
	return &IdentityService{
		users:       users,
		verifier:    verifier,
		tokens:      tokens,
		countryCode: countryCode,
		now:         time.Now,
	}
}

// Session is returned by successful logins.
type Session struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

type RegistrationRequest struct {
	Phone     string `json:"phone"`
	Name      string `json:"name"`
	Role      string `json:"role"`
	SocietyID string `json:"societyId"`
}

type RegisterInput struct {
	Name      string   `json:"name"`
	Phone     string   `json:"phone"`
	Password  string   `json:"password"`
	Role      string   `json:"role"`
	SocietyID string   `json:"societyId"`
	Address   string   `json:"address"`
	Skills    []string `json:"skills"`
	OTP       string   `json:"otp"`
}

func selfServiceRole(role string) error {
	if role != models.RoleMaid && role != models.RoleHousehold {
		return invalid("role", "role must be MAID or HOUSEHOLD")
	}
	return nil
}

// phoneAvailable rejects numbers already used as a username or phone, in
// either the raw or the E.164 form.
func (s *IdentityService) phoneAvailable(ctx context.Context, raw, e164 string) error {
	taken, err := s.users.IdentifierTaken(ctx, raw, e164)
	if err != nil {
		return storeError(err, "User")
	}
	if taken {
		return conflict("This phone number is already registered to an account.")
	}
	return nil
}

// SendRegistrationCode validates a sign-up and texts a verification code.
// Duplicates are rejected before the provider is contacted.
func (s *IdentityService) SendRegistrationCode(ctx context.Context, req RegistrationRequest) error {
	var missing []string
	if req.Phone == "" {
		missing = append(missing, "phone")
	}
	if strings.TrimSpace(req.Name) == "" {
		missing = append(missing, "name")
	}
	if req.Role == "" {
		missing = append(missing, "role")
	}
	if req.SocietyID == "" {
		missing = append(missing, "societyId")
	}
	if len(missing) > 0 {
		return missingFields(missing...)
	}
	if err := selfServiceRole(req.Role); err != nil {
		return err
	}
	if !utils.ValidatePhone(req.Phone) {
		return invalid("phone", "phone is not a valid phone number")
	}

	e164 := utils.FormatPhoneE164(req.Phone, s.countryCode)
	if err := s.phoneAvailable(ctx, req.Phone, e164); err != nil {
		return err
	}
	if err := s.verifier.Send(ctx, e164); err != nil {
		return internal("Failed to send verification code", err)
	}
	zap.L().Info("registration code sent", zap.String("phone", e164), zap.String("role", req.Role))
	return nil
}

// Register checks the verification code and creates an unverified account
// whose username is the E.164 phone number.
func (s *IdentityService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	var missing []string
	for _, f := range []struct{ name, value string }{
		{"name", strings.TrimSpace(in.Name)},
		{"phone", in.Phone},
		{"password", in.Password},
		{"role", in.Role},
		{"societyId", in.SocietyID},
		{"otp", in.OTP},
	} {
		if f.value == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return nil, missingFields(missing...)
	}
	if err := selfServiceRole(in.Role); err != nil {
		return nil, err
	}
	if !utils.ValidatePhone(in.Phone) {
		return nil, invalid("phone", "phone is not a valid phone number")
	}
	if len(in.Password) < minPasswordLength {
		return nil, invalid("password", "password must be at least %d characters", minPasswordLength)
	}

	e164 := utils.FormatPhoneE164(in.Phone, s.countryCode)
	if err := s.phoneAvailable(ctx, in.Phone, e164); err != nil {
		return nil, err
	}
	ok, err := s.verifier.Check(ctx, e164, in.OTP)
	if err != nil {
		return nil, internal("Verification failed", err)
	}
	if !ok {
		return nil, &Error{Kind: KindUnauthenticatedOTP, Message: "Incorrect verification code"}
	}

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, internal("could not hash password", err)
	}
	societyID := in.SocietyID
	u := &models.User{
		Name:         strings.TrimSpace(in.Name),
		Username:     e164,
		Phone:        e164,
		PasswordHash: hash,
		Role:         in.Role,
		SocietyID:    &societyID,
		Address:      in.Address,
		Leaves:       models.StringList{},
	}
	if in.Role == models.RoleMaid {
		u.Skills = cleanList(in.Skills)
	}
	if err := s.users.CreateUser(ctx, u); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicate):
			return nil, conflict("This phone number is already registered to an account.")
		case errors.Is(err, repository.ErrForeignKey):
			return nil, invalid("societyId", "Society %s does not exist", societyID)
		}
		return nil, storeError(err, "User")
	}
	zap.L().Info("user registered", zap.String("userId", u.ID), zap.String("role", u.Role))
	return u, nil
}

func (s *IdentityService) findByIdentifier(ctx context.Context, identifier string) (*models.User, error) {
	identifier = strings.TrimSpace(identifier)
	ids := []string{identifier}
	if utils.ValidatePhone(identifier) {
		ids = append(ids, utils.FormatPhoneE164(identifier, s.countryCode))
	}
	return s.users.FindUserByIdentifier(ctx, ids...)
}

func (s *IdentityService) session(u *models.User) (*Session, error) {
	societyID := ""
	if u.SocietyID != nil {
		societyID = *u.SocietyID
	}
	token, err := s.tokens.Generate(u.ID, u.Role, societyID)
	if err != nil {
		return nil, internal("could not issue token", err)
	}
	return &Session{Token: token, User: u}, nil
}

// Login accepts a username or phone number with the account password.
func (s *IdentityService) Login(ctx context.Context, identifier, password string) (*Session, error) {
	if identifier == "" || password == "" {
		return nil, invalid("", "Username and password are required")
	}
	u, err := s.findByIdentifier(ctx, identifier)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, unauthenticated("Invalid credentials")
	}
	if err != nil {
		return nil, storeError(err, "User")
	}
	if !utils.CheckPasswordHash(password, u.PasswordHash) {
		return nil, unauthenticated("Invalid credentials")
	}

	cols := []string{"last_login"}
	if utils.IsLegacyHash(u.PasswordHash) {
		hash, err := utils.HashPassword(password)
		if err != nil {
			return nil, internal("could not hash password", err)
		}
		u.PasswordHash = hash
		cols = append(cols, "password_hash")
	}
	now := s.now()
	u.LastLogin = &now
	if err := s.users.UpdateUserColumns(ctx, u, cols); err != nil {
		return nil, storeError(err, "User")
	}
	return s.session(u)
}

// ForgotPassword texts a verification code to the account's phone.
func (s *IdentityService) ForgotPassword(ctx context.Context, identifier string) error {
	if identifier == "" {
		return missingFields("username")
	}
	u, err := s.findByIdentifier(ctx, identifier)
	if errors.Is(err, repository.ErrNotFound) {
		return &Error{Kind: KindNotFound, Message: "No user found"}
	}
	if err != nil {
		return storeError(err, "User")
	}
	if u.Phone == "" {
		return invalid("username", "This account has no phone number")
	}
	if err := s.verifier.Send(ctx, u.Phone); err != nil {
		return internal("Failed to send verification code", err)
	}
	return nil
}

// VerifyResetCode signs the user in with a verification code and forces a
// password change.
func (s *IdentityService) VerifyResetCode(ctx context.Context, identifier, code string) (*Session, error) {
	if identifier == "" || code == "" {
		return nil, invalid("", "Username and OTP are required")
	}
	u, err := s.findByIdentifier(ctx, identifier)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFound("User")
	}
	if err != nil {
		return nil, storeError(err, "User")
	}
	ok, err := s.verifier.Check(ctx, u.Phone, code)
	if err != nil {
		return nil, internal("Verification failed", err)
	}
	if !ok {
		return nil, &Error{Kind: KindUnauthenticatedOTP, Message: "Incorrect verification code"}
	}
	u.MustChangePassword = true
	if err := s.users.UpdateUserColumns(ctx, u, []string{"must_change_password"}); err != nil {
		return nil, storeError(err, "User")
	}
	return s.session(u)
}

func (s *IdentityService) ChangePassword(ctx context.Context, userID, newPassword string) error {
	if len(newPassword) < minPasswordLength {
		return invalid("password", "password must be at least %d characters", minPasswordLength)
	}
	u, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return storeError(err, "User")
	}
	hash, err := utils.HashPassword(newPassword)
	if err != nil {
		return internal("could not hash password", err)
	}
	u.PasswordHash = hash
	u.MustChangePassword = false
	return storeError(s.users.UpdateUserColumns(ctx, u, []string{"password_hash", "must_change_password"}), "User")
}

func cleanList(values []string) models.StringList {
	out := models.StringList{}
	seen := map[string]bool{}
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
