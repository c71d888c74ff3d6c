package routes_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"sevaconnect-backend/config"
	"sevaconnect-backend/controllers"
	"sevaconnect-backend/models"
	"sevaconnect-backend/routes"
	"sevaconnect-backend/utils"

	"github.com/gin-gonic/gin"
)

type stubBookings struct {
	controllers.Bookings
	overrides int
	updates   int
}

func (s *stubBookings) Update(ctx context.Context, id string, patch models.Patch) (*models.BookingView, error) {
	s.updates++
	return &models.BookingView{Booking: models.Booking{ID: id}}, nil
}

func (s *stubBookings) OverrideStatus(ctx context.Context, id string, status models.BookingStatus) error {
	s.overrides++
	return nil
}

func setup(t *testing.T) (*gin.Engine, *utils.TokenIssuer, *stubBookings) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	tokens := utils.NewTokenIssuer("secret", time.Hour)
	bookings := &stubBookings{}
	cfg := &config.Config{CORSOrigins: "http://localhost:3000", RateLimitPerMin: 100}
	return routes.SetupRouter(&controllers.Handler{Bookings: bookings}, tokens, cfg), tokens, bookings
}

func request(r http.Handler, method, path, token, body string) int {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec.Code
}

func TestHealthIsPublic(t *testing.T) {
	r, _, _ := setup(t)
	if code := request(r, http.MethodGet, "/api/health", "", ""); code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
}

func TestStatusOverrideGate(t *testing.T) {
	r, tokens, bookings := setup(t)
	household, err := tokens.Generate("hh-1", models.RoleHousehold, "soc-1")
	if err != nil {
		t.Fatal(err)
	}
	admin, err := tokens.Generate("sys-1", models.RoleSysAdmin, "")
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name  string
		token string
		want  int
	}{
		{"no token", "", http.StatusUnauthorized},
		{"bad token", "garbage", http.StatusUnauthorized},
		{"household", household, http.StatusForbidden},
		{"system admin", admin, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code := request(r, http.MethodPut, "/api/bookings/bk-1/status", tt.token, `{"status":"CANCELLED"}`)
			if code != tt.want {
				t.Errorf("status = %d, want %d", code, tt.want)
			}
		})
	}
	if bookings.overrides != 1 {
		t.Errorf("overrides = %d, want 1", bookings.overrides)
	}
}

func TestBookingEditCannotSkipLifecycle(t *testing.T) {
	r, tokens, bookings := setup(t)
	household, err := tokens.Generate("hh-1", models.RoleHousehold, "soc-1")
	if err != nil {
		t.Fatal(err)
	}

	if code := request(r, http.MethodPut, "/api/bookings/bk-1", household, `{"status":"COMPLETED"}`); code != http.StatusForbidden {
		t.Errorf("status edit = %d, want 403", code)
	}
	if code := request(r, http.MethodPut, "/api/bookings/bk-1", household, `{"startTime":"11:00"}`); code != http.StatusOK {
		t.Errorf("slot edit = %d, want 200", code)
	}
	if bookings.updates != 1 {
		t.Errorf("updates = %d, want 1", bookings.updates)
	}
}
