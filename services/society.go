package services

import (
	"context"
	"crypto/rand"
	"errors"
	"math/big"
	"strings"
	"time"

	"sevaconnect-backend/models"
	"sevaconnect-backend/repository"
	"sevaconnect-backend/utils"

	"go.uber.org/zap"
)

const recentActivityLimit = 5

// SocietyStore persists societies and answers their dashboard queries.
type SocietyStore interface {
	ListSocieties(ctx context.Context) ([]models.Society, error)
	GetSociety(ctx context.Context, id string) (*models.Society, error)
	SocietyCodeTaken(ctx context.Context, code string) (bool, error)
	IdentifierTaken(ctx context.Context, identifiers ...string) (bool, error)
	CreateSocietyWithAdmin(ctx context.Context, s *models.Society, admin *models.User) error
	SocietyStats(ctx context.Context, societyID, today string) (models.SocietyStats, error)
	RecentActivity(ctx context.Context, societyID string, limit int) ([]models.SocietyActivity, error)
	ListSocietiesWithStats(ctx context.Context, start, end string) ([]models.SocietySummary, error)
}

// GenericAdopter links default catalogue services to a society.
type GenericAdopter interface {
	AdoptGeneric(ctx context.Context, societyID string) ([]models.Offering, error)
}

// SocietyManager onboards societies and reports on them.
type SocietyManager struct {
	store       SocietyStore
	adopter     GenericAdopter
	countryCode string
	now         func() time.Time
}

func NewSocietyManager(store SocietyStore, adopter GenericAdopter, countryCode string) *SocietyManager {
	return &SocietyManager{store: store, adopter: adopter, countryCode: countryCode, now: time.Now}
}

type SocietyInput struct {
	Name            string `json:"name"`
	Address         string `json:"address"`
	Code            string `json:"code"`
	Phone           string `json:"phone"`
	InitialPassword string `json:"initialPassword"`
}

// SocietyCreated carries the admin credentials handed to the society.
type SocietyCreated struct {
	SocietyID       string          `json:"socId"`
	AdminID         string          `json:"adminId"`
	InitialPassword string          `json:"initialPassword"`
	Society         *models.Society `json:"society"`
	AdoptedServices int             `json:"adoptedServices"`
}

func (m *SocietyManager) List(ctx context.Context) ([]models.Society, error) {
	societies, err := m.store.ListSocieties(ctx)
	if err != nil {
		return nil, storeError(err, "Society")
	}
	return societies, nil
}

func (m *SocietyManager) Get(ctx context.Context, id string) (*models.Society, error) {
	s, err := m.store.GetSociety(ctx, id)
	if err != nil {
		return nil, storeError(err, "Society")
	}
	return s, nil
}

// Create registers a society together with its admin account, then adopts
// the generic catalogue services.
func (m *SocietyManager) Create(ctx context.Context, in SocietyInput) (*SocietyCreated, error) {
	var missing []string
	if strings.TrimSpace(in.Name) == "" {
		missing = append(missing, "name")
	}
	if strings.TrimSpace(in.Code) == "" {
		missing = append(missing, "code")
	}
	if in.Phone == "" {
		missing = append(missing, "phone")
	}
	if len(missing) > 0 {
		return nil, missingFields(missing...)
	}
	if !utils.ValidatePhone(in.Phone) {
		return nil, invalid("phone", "phone is not a valid phone number")
	}

	phone := utils.FormatPhoneE164(in.Phone, m.countryCode)
	taken, err := m.store.IdentifierTaken(ctx, in.Phone, phone)
	if err != nil {
		return nil, storeError(err, "User")
	}
	if taken {
		return nil, conflict("Admin phone number is already registered to another account.")
	}
	codeTaken, err := m.store.SocietyCodeTaken(ctx, in.Code)
	if err != nil {
		return nil, storeError(err, "Society")
	}
	if codeTaken {
		return nil, conflict("A society with this code already exists.")
	}

	password := in.InitialPassword
	if password == "" {
		if password, err = randomPassword(8); err != nil {
			return nil, internal("could not generate password", err)
		}
	}
	hash, err := utils.HashPassword(password)
	if err != nil {
		return nil, internal("could not hash password", err)
	}

	society := &models.Society{Name: strings.TrimSpace(in.Name), Address: in.Address, Code: strings.TrimSpace(in.Code)}
	admin := &models.User{
		Name:               society.Name + " Admin",
		Username:           phone,
		Phone:              phone,
		PasswordHash:       hash,
		Role:               models.RoleSocietyAdmin,
		IsVerified:         true,
		MustChangePassword: true,
	}
	if err := m.store.CreateSocietyWithAdmin(ctx, society, admin); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, conflict("A society with this code or admin phone already exists.")
		}
		return nil, storeError(err, "Society")
	}

	created := &SocietyCreated{
		SocietyID:       society.ID,
		AdminID:         admin.ID,
		InitialPassword: password,
		Society:         society,
	}
	if m.adopter != nil {
		adopted, err := m.adopter.AdoptGeneric(ctx, society.ID)
		if err != nil {
			zap.L().Warn("generic service adoption failed", zap.String("societyId", society.ID), zap.Error(err))
		}
		created.AdoptedServices = len(adopted)
	}
	zap.L().Info("society created", zap.String("societyId", society.ID), zap.String("adminId", admin.ID))
	return created, nil
}

func (m *SocietyManager) Stats(ctx context.Context, id string) (*models.SocietyStats, error) {
	if _, err := m.store.GetSociety(ctx, id); err != nil {
		return nil, storeError(err, "Society")
	}
	stats, err := m.store.SocietyStats(ctx, id, today(m.now()))
	if err != nil {
		return nil, storeError(err, "Society")
	}
	return &stats, nil
}

// Activity lists the society's latest registrations.
func (m *SocietyManager) Activity(ctx context.Context, id string) ([]models.SocietyActivity, error) {
	activity, err := m.store.RecentActivity(ctx, id, recentActivityLimit)
	if err != nil {
		return nil, storeError(err, "Society")
	}
	return activity, nil
}

// ListWithStats reports every society with member counts and the bookings
// expected between start and end.
func (m *SocietyManager) ListWithStats(ctx context.Context, start, end string) ([]models.SocietySummary, error) {
	if start == "" || end == "" {
		return nil, invalid("", "start and end query params required")
	}
	from, err := utils.ParseDate(start)
	if err != nil {
		return nil, invalid("start", "start must be YYYY-MM-DD")
	}
	to, err := utils.ParseDate(end)
	if err != nil {
		return nil, invalid("end", "end must be YYYY-MM-DD")
	}
	if to.Before(from) {
		return nil, invalid("end", "end must not be before start")
	}
	rows, err := m.store.ListSocietiesWithStats(ctx, start, end)
	if err != nil {
		return nil, storeError(err, "Society")
	}
	return rows, nil
}

func today(now time.Time) string {
	return now.Format(utils.DateLayout)
}

const passwordAlphabet = "abcdefghijkmnpqrstuvwxyz23456789"

func randomPassword(n int) (string, error) {
	b := make([]byte, n)
	max := big.NewInt(int64(len(passwordAlphabet)))
	for i := range b {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b[i] = passwordAlphabet[idx.Int64()]
	}
	return string(b), nil
}
