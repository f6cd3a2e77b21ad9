package api

import (
	"time"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.mongodb.org/mongo-driver/mongo"

	_ "github.com/bibliotech/consultation-api/docs"
	"github.com/bibliotech/consultation-api/internal/api/handler"
	"github.com/bibliotech/consultation-api/internal/api/middleware"
	"github.com/bibliotech/consultation-api/internal/core/domain"
	"github.com/bibliotech/consultation-api/internal/core/service"
	mongorepo "github.com/bibliotech/consultation-api/internal/infrastructure/db/mongo"
	redisinfra "github.com/bibliotech/consultation-api/internal/infrastructure/db/redis"
	healthhandlers "github.com/bibliotech/consultation-api/internal/infrastructure/http/handlers"
)

// RouterDeps carries the already-connected infrastructure the router wires
// the application around. Lifecycle (connect, start, shutdown) stays in main.
type RouterDeps struct {
	DB        *mongo.Database
	Redis     *redis.Client
	Mail      service.EmailEnqueuer
	JWTSecret string
	Logger    zerolog.Logger
}

// NewRouter builds the Echo instance with all routes registered.
func NewRouter(deps RouterDeps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Logger)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("consultation"))

	// --- Repositories ---
	appointmentRepo := mongorepo.NewAppointmentRepository(deps.DB)
	notificationRepo := mongorepo.NewNotificationRepository(deps.DB)
	userRepo := mongorepo.NewUserRepository(deps.DB)
	catalogRepo := mongorepo.NewCatalogRepository(deps.DB)
	ledger := redisinfra.NewDeliveryLedger(deps.Redis)

	// --- Services ---
	dispatcher := service.NewNotificationDispatcher(notificationRepo, userRepo, ledger, deps.Mail, deps.Logger)
	appointmentService := service.NewAppointmentService(appointmentRepo, catalogRepo, dispatcher, deps.Logger)
	notificationService := service.NewNotificationService(notificationRepo, deps.Logger)
	authService := service.NewAuthService(userRepo, deps.JWTSecret, 24*time.Hour)

	// --- Handlers ---
	appointmentHandler := handler.NewAppointmentHandler(appointmentService)
	notificationHandler := handler.NewNotificationHandler(notificationService)
	authHandler := handler.NewAuthHandler(authService)

	authMiddleware := middleware.Auth(deps.JWTSecret)
	staffOnly := middleware.RequireRole(domain.RoleLibrarian, domain.RoleAdministration, domain.RoleAdmin)
	librarianOnly := middleware.RequireRole(domain.RoleLibrarian)

	// --- Auth routes ---
	e.POST("/auth/register", authHandler.Register)
	e.POST("/auth/login", authHandler.Login)

	// --- Appointment routes ---
	// Per-transition role checks live in the core state machine; the route
	// group only requires a valid token.
	v1 := e.Group("/v1", authMiddleware)
	v1.POST("/appointments", appointmentHandler.Create)
	v1.GET("/appointments", appointmentHandler.ListMine)
	v1.PATCH("/appointments/:id/status", appointmentHandler.Transition)
	v1.PATCH("/appointments/:id/date", appointmentHandler.Reschedule)
	v1.PATCH("/appointments/:id/attendance", appointmentHandler.Attendance, librarianOnly)
	v1.GET("/triage/appointments", appointmentHandler.Triage, staffOnly)

	// --- Notification routes ---
	v1.GET("/notifications", notificationHandler.List)
	v1.PATCH("/notifications/:id/read", notificationHandler.MarkRead)

	// --- Health probes (no auth required) ---
	healthHandler := healthhandlers.NewHealthHandler()
	healthDepsHandler := healthhandlers.NewHealthDependenciesHandler(deps.DB, deps.Redis)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?

	// --- Operational surfaces ---
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}
