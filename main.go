package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sevaconnect-backend/config"
	"sevaconnect-backend/controllers"
	"sevaconnect-backend/repository"
	"sevaconnect-backend/routes"
	"sevaconnect-backend/services"
	"sevaconnect-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := utils.InitializeLogger(cfg.IsProduction())
	defer logger.Sync()
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := config.ConnectDB(cfg)
	if err != nil {
		logger.Fatal("database connection failed", zap.Error(err))
	}
	defer func() {
		if err := config.CloseDB(db); err != nil {
			logger.Warn("closing database", zap.Error(err))
		}
	}()
	if err := repository.Migrate(db); err != nil {
		logger.Fatal("migration failed", zap.Error(err))
	}
	store := repository.New(db, cfg.DBQueryTimeout)

	secret := cfg.JWTSecret
	if secret == "" {
		if cfg.IsProduction() {
			logger.Fatal("JWT_SECRET is required in production")
		}
		secret = utils.GenerateJWTSecret()
		logger.Warn("JWT_SECRET not set, using a random secret; tokens will not survive restarts")
	}
	tokens := utils.NewTokenIssuer(secret, cfg.JWTExpiry())

	var (
		verifier services.Verifier  = services.DevVerifier{MasterOTP: cfg.MasterOTP}
		sms      services.SMSSender = services.LogSMS{}
	)
	if cfg.TwilioConfigured() {
		if cfg.TwilioVerifyServiceSID != "" {
			verifier = services.NewTwilioVerifier(cfg.TwilioAccountSID, cfg.TwilioAuthToken,
				cfg.TwilioVerifyServiceSID, cfg.TwilioDemoPhone, cfg.MasterOTP)
		}
		if cfg.TwilioPhoneNumber != "" {
			sms = services.NewTwilioSMS(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioPhoneNumber)
		}
	} else {
		logger.Warn("Twilio not configured, verification accepts only the master code")
	}

	offerings := services.NewOfferingService(store)
	var bookingOpts []services.BookingOption
	if cfg.OTPSMSEnabled {
		bookingOpts = append(bookingOpts, services.WithOTPDelivery(sms))
	}

	h := &controllers.Handler{
		Catalogue: services.NewCatalogueService(store),
		Offerings: offerings,
		Bookings:  services.NewBookingService(store, offerings, cfg.MasterOTP, bookingOpts...),
		Messaging: services.NewMessagingService(store),
		Reviews:   services.NewReviewService(store),
		Identity:  services.NewIdentityService(store, verifier, tokens, cfg.DefaultCountryCode),
		Users:     services.NewUserService(store, cfg.DefaultCountryCode),
		Societies: services.NewSocietyManager(store, offerings, cfg.DefaultCountryCode),
	}

	var reminders *services.ReminderService
	if cfg.RemindersEnabled {
		reminders = services.NewReminderService(store, sms, cfg.ReminderCron)
		if err := reminders.StartScheduler(); err != nil {
			logger.Fatal("reminder scheduler", zap.Error(err))
		}
	}

	r := routes.SetupRouter(h, tokens, cfg)
	if !cfg.IsProduction() {
		printRoutes(r)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	if reminders != nil {
		reminders.Stop()
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("forced shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func printRoutes(r *gin.Engine) {
	for _, route := range r.Routes() {
		fmt.Printf("%-6s %s\n", route.Method, route.Path)
	}
}
