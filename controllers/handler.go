package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"sevaconnect-backend/models"
	"sevaconnect-backend/services"
	"sevaconnect-backend/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Catalogue manages global catalogue services.
type Catalogue interface {
	List(ctx context.Context, includeInactive bool) ([]models.Service, error)
	Get(ctx context.Context, id string) (*models.Service, error)
	Create(ctx context.Context, in services.ServiceInput) (*models.Service, error)
	Update(ctx context.Context, id string, patch models.Patch) (*models.Service, error)
	Delete(ctx context.Context, id string) error
}

// Offerings manages the services a society offers.
type Offerings interface {
	List(ctx context.Context, societyID string) ([]models.Offering, error)
	Get(ctx context.Context, id string) (*models.Offering, error)
	Create(ctx context.Context, in services.OfferingInput) (*models.Offering, error)
	Update(ctx context.Context, id string, patch models.Patch) (*models.Offering, error)
	Delete(ctx context.Context, id string) error
	AdoptGeneric(ctx context.Context, societyID string) ([]models.Offering, error)
}

// Bookings runs the booking lifecycle.
type Bookings interface {
	Create(ctx context.Context, in services.BookingInput) (*models.BookingView, error)
	Get(ctx context.Context, id string) (*models.BookingView, error)
	ListForUser(ctx context.Context, userID, role string) ([]models.BookingView, error)
	ListForSociety(ctx context.Context, societyID string) ([]models.BookingView, error)
	Update(ctx context.Context, id string, patch models.Patch) (*models.BookingView, error)
	RequestOTP(ctx context.Context, id, phase string) (string, error)
	CancelOTPRequest(ctx context.Context, id, phase string) error
	RegenerateOTP(ctx context.Context, id, phase string) (string, error)
	VerifyOTP(ctx context.Context, id, phase, code string) (models.BookingStatus, error)
	Transition(ctx context.Context, id string, to models.BookingStatus) (*models.BookingView, error)
	OverrideStatus(ctx context.Context, id string, status models.BookingStatus) error
}

type Messaging interface {
	Send(ctx context.Context, in services.MessageInput) (*models.ChatMessage, error)
	List(ctx context.Context, bookingID string) ([]models.ChatMessage, error)
	Counts(ctx context.Context, bookingIDs []string) (map[string]int64, error)
}

type Reviews interface {
	Add(ctx context.Context, in services.ReviewInput) (*models.Review, error)
	ListForMaid(ctx context.Context, maidID string) ([]models.Review, error)
}

// Identity handles sign-up, login and password recovery.
type Identity interface {
	SendRegistrationCode(ctx context.Context, req services.RegistrationRequest) error
	Register(ctx context.Context, in services.RegisterInput) (*models.User, error)
	Login(ctx context.Context, identifier, password string) (*services.Session, error)
	ForgotPassword(ctx context.Context, identifier string) error
	VerifyResetCode(ctx context.Context, identifier, code string) (*services.Session, error)
	ChangePassword(ctx context.Context, userID, newPassword string) error
}

type Users interface {
	Get(ctx context.Context, id string) (*models.User, error)
	ListBySociety(ctx context.Context, societyID string) ([]models.User, error)
	Update(ctx context.Context, id string, patch models.Patch) (*models.User, error)
	Verify(ctx context.Context, id string) (*models.User, error)
	UpdateSkills(ctx context.Context, id string, skills []string) (*models.User, error)
	SetLeave(ctx context.Context, id, date string, period *string) (*models.User, error)
	Delete(ctx context.Context, id string) error
}

type Societies interface {
	List(ctx context.Context) ([]models.Society, error)
	Get(ctx context.Context, id string) (*models.Society, error)
	Create(ctx context.Context, in services.SocietyInput) (*services.SocietyCreated, error)
	Stats(ctx context.Context, id string) (*models.SocietyStats, error)
	Activity(ctx context.Context, id string) ([]models.SocietyActivity, error)
	ListWithStats(ctx context.Context, start, end string) ([]models.SocietySummary, error)
}

// Handler serves the HTTP API. Nil services leave their routes unusable, so
// tests only fill what they exercise.
type Handler struct {
	Catalogue Catalogue
	Offerings Offerings
	Bookings  Bookings
	Messaging Messaging
	Reviews   Reviews
	Identity  Identity
	Users     Users
	Societies Societies
}

var kindStatus = map[services.Kind]int{
	services.KindValidation:         http.StatusBadRequest,
	services.KindNotFound:           http.StatusNotFound,
	services.KindConflict:           http.StatusConflict,
	services.KindForbidden:          http.StatusForbidden,
	services.KindUnauthenticated:    http.StatusUnauthorized,
	services.KindUnauthenticatedOTP: http.StatusBadRequest,
	services.KindInternal:           http.StatusInternalServerError,
}

// respondError writes err in the JSON error envelope. Internal causes are
// logged and never sent to the client.
func respondError(c *gin.Context, err error) {
	var se *services.Error
	if !errors.As(err, &se) {
		se = &services.Error{Kind: services.KindInternal, Message: "Internal server error", Err: err}
	}
	status, ok := kindStatus[se.Kind]
	if !ok {
		status = http.StatusInternalServerError
	}

	body := utils.ErrorBody{Error: se.Message, Code: string(se.Kind), Fields: se.Fields}
	if status == http.StatusInternalServerError {
		zap.L().Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.String("message", se.Message),
			zap.Error(se.Err))
		body = utils.ErrorBody{Error: "Internal server error", Code: string(services.KindInternal)}
	}
	c.AbortWithStatusJSON(status, body)
}

// bindJSON decodes the request body into v and answers 400 on failure.
func bindJSON(c *gin.Context, v interface{}) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, utils.ErrorBody{
			Error: "Invalid input: " + err.Error(),
			Code:  string(services.KindValidation),
		})
		return false
	}
	return true
}

// bindPatch decodes a partial-update body, keeping nulls distinct from
// absent fields.
func bindPatch(c *gin.Context) (models.Patch, bool) {
	var patch models.Patch
	if err := json.NewDecoder(c.Request.Body).Decode(&patch); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, utils.ErrorBody{
			Error: "Request body must be a JSON object",
			Code:  string(services.KindValidation),
		})
		return nil, false
	}
	return patch, true
}

func success(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// selfOrAdmin lets a user act on their own account; admins may act on any.
func selfOrAdmin(c *gin.Context, userID string) bool {
	role := c.GetString(utils.ContextRole)
	if c.GetString(utils.ContextUserID) == userID ||
		role == models.RoleSysAdmin || role == models.RoleSocietyAdmin {
		return true
	}
	utils.RespondWithError(c, http.StatusForbidden, "You can only change your own account")
	return false
}

// Health reports liveness.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
