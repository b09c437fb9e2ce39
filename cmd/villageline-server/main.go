package main

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/villageline/villageline/pkg/villageline/admin"
	"github.com/villageline/villageline/pkg/villageline/auth"
	"github.com/villageline/villageline/pkg/villageline/config"
	"github.com/villageline/villageline/pkg/villageline/database"
	"github.com/villageline/villageline/pkg/villageline/mailer"
	"github.com/villageline/villageline/pkg/villageline/middleware"
	"github.com/villageline/villageline/pkg/villageline/models"
	"github.com/villageline/villageline/pkg/villageline/schedule"
	"github.com/villageline/villageline/pkg/villageline/telephony"
	"github.com/villageline/villageline/pkg/villageline/voice"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	auth.SetSecret(cfg.JWTSecret)
	if cfg.JWTSecret == "" {
		logger.Warn("JWT_SECRET not set, using the development default")
	}

	// Connect to database
	if err := database.Connect(cfg.DBPath); err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}

	// Run auto-migrations
	if err := models.AutoMigrate(database.GetDB()); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}
	logger.Info("database migrations completed")

	// Create default admin user if no admin exists
	if err := ensureAdminExists(cfg); err != nil {
		logger.Fatal("failed to ensure admin user exists", zap.Error(err))
	}

	sender := mailer.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser,
		cfg.SMTPPassword, cfg.MailFrom)

	// Set up Gin router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(logger))

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
		})
	})

	// Browser login page; the POST also serves the API login
	authHandler := auth.NewHandler(database.GetDB())
	r.GET("/login", authHandler.LoginPage)
	r.POST("/login", authHandler.Login)

	voiceHandler := voice.NewHandler(database.GetDB(), sender, logger)

	// API routes
	api := r.Group("/api")
	{
		authHandler.RegisterRoutes(api.Group("/auth"))

		// Admin routes (admin role required)
		adminHandler := admin.NewHandler(database.GetDB(), voiceHandler.Notifier())
		adminGroup := api.Group("/admin")
		adminGroup.Use(auth.AuthMiddleware(), auth.RequireAdmin())
		adminHandler.RegisterRoutes(adminGroup)
	}

	// Provider webhooks, verified against the Twilio auth token
	authToken := cfg.TwilioAuthToken
	if cfg.SkipTwilioVerify {
		authToken = ""
	}
	voiceGroup := r.Group("/voice")
	voiceGroup.Use(telephony.ValidateSignature(authToken, cfg.BaseURL, logger))
	voiceHandler.RegisterRoutes(voiceGroup)

	// Schedule inspection views (signed-in session required)
	scheduleHandler := schedule.NewHandler(database.GetDB())
	views := r.Group("")
	views.Use(auth.LoginRequired())
	scheduleHandler.RegisterRoutes(views)

	logger.Info("starting villageline server", zap.String("port", cfg.HTTPPort))
	if err := r.Run(":" + cfg.HTTPPort); err != nil {
		logger.Fatal("failed to start server", zap.Error(err))
	}
}

// ensureAdminExists creates a default admin user if no admin exists in the database.
func ensureAdminExists(cfg config.Config) error {
	db := database.GetDB()

	var count int64
	if err := db.Model(&models.StaffUser{}).Where("role = ?", models.StaffRoleAdmin).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil // Admin already exists
	}

	hashedPassword, err := auth.HashPassword(cfg.AdminPassword)
	if err != nil {
		return err
	}

	adminUser := models.StaffUser{
		Email:        cfg.AdminEmail,
		Name:         "Admin",
		PasswordHash: hashedPassword,
		Role:         models.StaffRoleAdmin,
	}
	if err := db.Create(&adminUser).Error; err != nil {
		return err
	}

	zap.L().Info("created default admin user", zap.String("email", cfg.AdminEmail))
	return nil
}
