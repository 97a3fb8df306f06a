package api

import (
	"strings"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	_ "github.com/etiya/crm-api/docs"
	"github.com/etiya/crm-api/internal/api/handler"
	"github.com/etiya/crm-api/internal/api/middleware"
	"github.com/etiya/crm-api/internal/core/domain"
	"github.com/etiya/crm-api/internal/core/ports"
	"github.com/etiya/crm-api/internal/infrastructure/http/handlers"
)

// Deps are the collaborators the HTTP layer needs.
type Deps struct {
	Users     ports.UserService
	Tasks     ports.TaskService
	Customers ports.CustomerService
	Events    ports.TaskEventService // optional
	Verifier  ports.TokenVerifier

	// Checks are the readiness probes, keyed by dependency name.
	Checks map[string]handlers.Check

	Logger         zerolog.Logger
	TracerProvider trace.TracerProvider // defaults to the global provider
	Registry       *prometheus.Registry // defaults to the global registry
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Logger)

	tp := d.TracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	var (
		registerer prometheus.Registerer = prometheus.DefaultRegisterer
		gatherer   prometheus.Gatherer   = prometheus.DefaultGatherer
	)
	if d.Registry != nil {
		registerer, gatherer = d.Registry, d.Registry
	}

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(d.Logger))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "crm",
		Registerer: registerer,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics" || strings.HasPrefix(c.Path(), "/swagger")
		},
	}))
	e.Use(middleware.Tracing(tp))

	// --- Operational endpoints (no auth required) ---
	e.GET("/health", handlers.NewHealthHandler().Liveness)
	e.GET("/health/ready", handlers.NewHealthDependenciesHandler(d.Checks).Readiness)
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: gatherer}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	authHandler := handler.NewAuthHandler(d.Users)
	userHandler := handler.NewUserHandler(d.Users)
	taskHandler := handler.NewTaskHandler(d.Tasks, d.Events)
	customerHandler := handler.NewCustomerHandler(d.Customers)
	dashboardHandler := handler.NewDashboardHandler(d.Tasks, d.Customers)

	adminOnly := middleware.RBAC(domain.RoleAdmin)
	staff := middleware.RBAC(domain.RoleAdmin, domain.RoleManager)

	api := e.Group("/api")

	// --- Auth routes ---
	api.POST("/auth/register", authHandler.Register)
	api.POST("/auth/login", authHandler.Login)

	secured := api.Group("", middleware.Auth(d.Verifier))

	users := secured.Group("/users")
	users.GET("/me", userHandler.Me)
	users.PUT("/me", userHandler.UpdateMe)
	users.GET("/:email", userHandler.GetByEmail, adminOnly)
	users.POST("/:email/activate", userHandler.Activate, adminOnly)
	users.POST("/:email/deactivate", userHandler.Deactivate, adminOnly)

	tasks := secured.Group("/tasks")
	tasks.POST("", taskHandler.Create)
	tasks.GET("", taskHandler.List)
	tasks.GET("/overdue", taskHandler.Overdue)
	tasks.GET("/due", taskHandler.DueBetween)
	tasks.GET("/count", taskHandler.Count)
	tasks.GET("/recent", taskHandler.Recent)
	tasks.GET("/upcoming", taskHandler.Upcoming)
	tasks.GET("/customer/:customerId", taskHandler.ByCustomer)
	tasks.GET("/assignee/:userId", taskHandler.ByAssignee)
	tasks.GET("/status/:status", taskHandler.ByStatus)
	tasks.GET("/:id", taskHandler.Get)
	tasks.PUT("/:id", taskHandler.Update)
	tasks.DELETE("/:id", taskHandler.Delete, staff)
	tasks.PUT("/:id/assign/:userId", taskHandler.Assign, staff)
	tasks.PATCH("/:id/status", taskHandler.UpdateStatus)
	tasks.GET("/:id/history", taskHandler.History)

	customers := secured.Group("/customers")
	customers.POST("", customerHandler.Create, staff)
	customers.GET("", customerHandler.List)
	customers.GET("/active", customerHandler.Active)
	customers.GET("/:id", customerHandler.Get)
	customers.PUT("/:id", customerHandler.Update, staff)
	customers.DELETE("/:id", customerHandler.Delete, adminOnly)

	secured.GET("/dashboard/stats", dashboardHandler.Stats)

	return e
}

func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Error != nil {
				ev = log.Warn().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
