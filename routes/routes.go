package routes

import (
	"sevaconnect-backend/config"
	"sevaconnect-backend/controllers"
	"sevaconnect-backend/models"
	"sevaconnect-backend/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func SetupRouter(h *controllers.Handler, tokens *utils.TokenIssuer, cfg *config.Config) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins(),
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))

	r.Use(config.PerformanceLogger())

	admins := utils.RequireRoles(models.RoleSysAdmin, models.RoleSocietyAdmin)
	sysAdmin := utils.RequireRoles(models.RoleSysAdmin)
	authed := utils.AuthMiddleware(tokens)

	api := r.Group("/api")
	api.GET("/health", h.Health)

	auth := api.Group("/auth", utils.RateLimitMiddleware(cfg.RateLimitPerMin))
	{
		auth.POST("/login", h.Login)
		auth.POST("/register/send-otp", h.SendRegistrationCode)
		auth.POST("/register", h.Register)
		auth.POST("/forgot-password", h.ForgotPassword)
		auth.POST("/verify-otp", h.VerifyResetCode)

		auth.GET("/me", authed, h.Me)
		auth.POST("/change-password", authed, h.ChangePassword)
	}

	// The society picker on the sign-up screen is public.
	api.GET("/societies", h.GetSocieties)

	protected := api.Group("", authed)
	{
		societies := protected.Group("/societies")
		{
			societies.GET("/with-stats", sysAdmin, h.GetSocietiesWithStats)
			societies.POST("", sysAdmin, h.CreateSociety)
			societies.GET("/:id", h.GetSociety)
			societies.GET("/:id/stats", admins, h.GetSocietyStats)
			societies.GET("/:id/activity", admins, h.GetSocietyActivity)
			societies.POST("/:id/adopt-generic", admins, h.AdoptGenericServices)
		}

		services := protected.Group("/services")
		{
			services.GET("", h.GetServices)
			services.GET("/:id", h.GetService)
			services.POST("", sysAdmin, h.CreateService)
			services.PUT("/:id", sysAdmin, h.UpdateService)
			services.DELETE("/:id", sysAdmin, h.DeleteService)
		}

		offerings := protected.Group("/society-services")
		{
			offerings.GET("", h.GetSocietyServices)
			offerings.GET("/:id", h.GetSocietyService)
			offerings.POST("", admins, h.CreateSocietyService)
			offerings.PUT("/:id", admins, h.UpdateSocietyService)
			offerings.DELETE("/:id", admins, h.DeleteSocietyService)
		}

		bookings := protected.Group("/bookings")
		{
			bookings.GET("/user/:userId", h.GetUserBookings)
			bookings.GET("/society/:societyId", admins, h.GetSocietyBookings)
			bookings.POST("", h.CreateBooking)
			bookings.GET("/:id", h.GetBooking)
			bookings.PUT("/:id", h.UpdateBooking)
			bookings.PUT("/:id/status", admins, h.OverrideBookingStatus)
			bookings.POST("/:id/transition", h.TransitionBooking)
			bookings.POST("/:id/request-otp", h.RequestOTP)
			bookings.POST("/:id/cancel-otp", h.CancelOTP)
			bookings.POST("/:id/generate-otp", h.RegenerateOTP)
			bookings.POST("/:id/verify-otp", h.VerifyOTP)
		}

		messages := protected.Group("/messages")
		{
			messages.GET("/counts", h.GetMessageCounts)
			messages.GET("/:bookingId", h.GetMessages)
			messages.POST("", h.SendMessage)
		}

		reviews := protected.Group("/reviews")
		{
			reviews.GET("/maid/:maidId", h.GetMaidReviews)
			reviews.POST("", h.AddReview)
		}

		users := protected.Group("/users")
		{
			users.GET("/society/:societyId", admins, h.GetSocietyUsers)
			users.GET("/:id", h.GetUser)
			users.PUT("/:id", h.UpdateUser)
			users.POST("/:id/verify", admins, h.VerifyUser)
			users.PUT("/:id/skills", h.UpdateSkills)
			users.POST("/:id/leave", h.SetLeave)
			users.DELETE("/:id", admins, h.DeleteUser)
		}
	}

	return r
}
