package main

import (
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	echoswagger "github.com/swaggo/echo-swagger"
	"go.uber.org/zap"

	_ "github.com/zercsiz/recipe-app-api/docs"
	"github.com/zercsiz/recipe-app-api/internal/handler"
	"github.com/zercsiz/recipe-app-api/internal/middleware"
	"github.com/zercsiz/recipe-app-api/internal/model"
	"github.com/zercsiz/recipe-app-api/pkg/config"
	"github.com/zercsiz/recipe-app-api/pkg/database"
	"github.com/zercsiz/recipe-app-api/pkg/jwtutil"
	"github.com/zercsiz/recipe-app-api/pkg/logger"
	"github.com/zercsiz/recipe-app-api/prometheus"
)

// @title Recipe API
// @version 1.0
// @description Recipe management backend with user accounts, tags and ingredients.
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// Load configuration from .env file and environment variables
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger with config
	logger.InitLogger(cfg)
	log := logger.GetLogger()
	log.Info("Starting recipe service...", zap.String("environment", cfg.Server.Env))

	// Initialize database
	if err := database.InitDB(&cfg.DB); err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	log.Info("Database connection established")

	if err := database.MigrateModels(
		&model.User{},
		&model.Recipe{},
		&model.Tag{},
		&model.Ingredient{},
	); err != nil {
		log.Fatal("Failed to migrate database", zap.Error(err))
	}
	log.Info("Database migrated")

	// Initialize JWT utility
	jwtutil.Initialize(&cfg.JWT)
	log.Info("JWT utility initialized")

	// Configure media storage for recipe images
	handler.SetMediaRoot(cfg.Media.Root)

	// Bootstrap the superuser account when configured
	if cfg.Admin.Email != "" && cfg.Admin.Password != "" {
		if err := bootstrapSuperuser(cfg.Admin.Email, cfg.Admin.Password); err != nil {
			log.Fatal("Failed to bootstrap superuser", zap.Error(err))
		}
	}

	// Initialize Echo framework
	e := echo.New()

	// Apply global middleware - order matters
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	e.Use(middleware.RequestIDMiddleware)
	e.Use(logger.Middleware(log))
	e.Use(prometheus.MetricsMiddleware())

	// Schema documentation
	e.GET("/swagger/*", echoswagger.WrapHandler)

	// API routes
	handler.RegisterRoutes(e)

	// Get server port from configuration
	port := cfg.Server.Port

	// Start server
	log.Info("Starting server", zap.String("port", port))
	if err := e.Start(":" + port); err != nil {
		log.Fatal("Failed to start server", zap.Error(err))
	}
}

// bootstrapSuperuser creates the configured admin account on first start.
// An already existing account is left as is.
func bootstrapSuperuser(email, password string) error {
	db := database.GetDB()

	var existing model.User
	if result := db.Where("email = ?", model.NormalizeEmail(email)).First(&existing); result.Error == nil {
		return nil
	}

	_, err := model.CreateSuperuser(db, email, password)
	return err
}
