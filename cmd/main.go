package main

import (
	"workforce-service/internal/handler"
	"workforce-service/internal/middleware"
	"workforce-service/pkg/config"
	"workforce-service/pkg/database"
	"workforce-service/pkg/jwtutil"
	"workforce-service/pkg/logger"
	"workforce-service/prometheus"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

func main() {
	// Load configuration from .env file and environment variables
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger with config
	logger.InitLogger(cfg)
	log := logger.GetLogger()
	log.Info("Starting workforce service...", zap.String("environment", cfg.Server.Env))

	// Initialize database
	if err := database.InitDB(cfg); err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	log.Info("Database connection established")

	// Initialize JWT utility and invite defaults
	jwtutil.Initialize(&cfg.JWT)
	handler.InitInviteDefaults(cfg.Invite.DefaultExpiryDays)

	// Initialize Echo framework
	e := echo.New()

	// Apply global middleware - order matters
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	e.Use(middleware.RequestIDMiddleware)
	e.Use(logger.Middleware(log))
	e.Use(prometheus.MetricsMiddleware())

	// Public routes - no authentication required
	e.GET("/health", handler.HealthCheck)
	e.GET("/metrics", handler.MetricsHandler)

	// Authentication routes
	auth := e.Group("/auth")
	auth.POST("/register", handler.Register)
	auth.POST("/login", handler.Login)
	auth.POST("/refresh", handler.Refresh)

	// API routes - all require authentication
	api := e.Group("/api")
	api.Use(middleware.AuthMiddleware)

	// Tenant management
	tenants := api.Group("/tenants")
	tenants.GET("", handler.ListTenants)
	tenants.GET("/:id", handler.GetTenant)
	tenants.PATCH("/:id", handler.UpdateTenant)
	tenants.DELETE("/:id", handler.DeleteTenant)

	// Invites are scoped under the tenant they join
	tenants.POST("/:id/invites", handler.GenerateInvite)
	tenants.GET("/:id/invites", handler.ListInvites)

	invites := api.Group("/invites")
	invites.POST("/accept", handler.AcceptInvite)
	invites.DELETE("/:id", handler.DeleteInvite)
	invites.POST("/:id/resend", handler.ResendInvite)

	// Contractor roster
	contractors := api.Group("/contractors")
	contractors.POST("", handler.CreateContractor)
	contractors.GET("", handler.ListContractors)
	contractors.GET("/:id", handler.GetContractor)
	contractors.PUT("/:id", handler.UpdateContractor)
	contractors.DELETE("/:id", handler.DeleteContractor)
	contractors.PATCH("/:id/rating", handler.UpdateContractorRating)
	contractors.PATCH("/:id/status", handler.UpdateContractorStatus)

	// Projects and the task hierarchy
	projects := api.Group("/projects")
	projects.POST("", handler.CreateProject)
	projects.GET("", handler.ListProjects)
	projects.GET("/:id", handler.GetProject)
	projects.PUT("/:id", handler.UpdateProject)
	projects.DELETE("/:id", handler.DeleteProject)
	projects.POST("/:id/tasks", handler.CreateTask)

	tasks := api.Group("/tasks")
	tasks.GET("/:id", handler.GetTask)
	tasks.PATCH("/:id", handler.UpdateTask)
	tasks.DELETE("/:id", handler.DeleteTask)
	tasks.POST("/:id/subtasks", handler.CreateSubtask)

	subtasks := api.Group("/subtasks")
	subtasks.PATCH("/:id", handler.UpdateSubtask)
	subtasks.DELETE("/:id", handler.DeleteSubtask)

	// Start server
	port := cfg.Server.Port
	log.Info("Starting server", zap.String("port", port))
	if err := e.Start(":" + port); err != nil {
		log.Fatal("Failed to start server", zap.Error(err))
	}
}
