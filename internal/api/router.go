package api

import (
	"github.com/google/uuid"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/workforce/employee-directory/docs"
	"github.com/workforce/employee-directory/internal/api/handler"
	"github.com/workforce/employee-directory/internal/api/middleware"
	"github.com/workforce/employee-directory/internal/core/ports"
)

const metricsSubsystem = "directory_http"

// Deps holds everything the router needs to build the HTTP surface.
type Deps struct {
	Service ports.DirectoryService
	Logger  zerolog.Logger

	// AdminSecret enables the admin guard on DELETE /employees when set.
	AdminSecret string

	// Health maps dependency names to readiness checks.
	Health map[string]handler.Pinger

	// Registry receives the HTTP metrics. Nil means the default Prometheus
	// registry.
	Registry *prometheus.Registry
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Logger)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestIDWithConfig(echomiddleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(requestLogger(deps.Logger))
	e.Use(metricsMiddleware(deps.Registry))

	// --- Employees ---
	employees := handler.NewEmployeeHandler(deps.Service)

	var adminGuard []echo.MiddlewareFunc
	if deps.AdminSecret != "" {
		adminGuard = middleware.AdminOnly(deps.AdminSecret)
	}

	e.POST("/employees", employees.Create)
	e.GET("/employees", employees.List)
	e.DELETE("/employees", employees.DeleteAll, adminGuard...)
	e.GET("/employees/:email", employees.Get)

	// --- Hierarchy ---
	e.PUT("/employees/:email/manager", employees.AssignManager)
	e.GET("/employees/:email/manager", employees.GetManager)
	e.DELETE("/employees/:email/manager", employees.RemoveManager)
	e.GET("/employees/:email/subordinates", employees.Subordinates)

	// --- Health probes (no auth required) ---
	health := handler.NewHealthHandler(deps.Health)
	e.GET("/health", health.Liveness)        // liveness  – is the process alive?
	e.GET("/health/ready", health.Readiness) // readiness – are dependencies up?

	// --- Ops ---
	e.GET("/metrics", metricsHandler(deps.Registry))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}

func metricsMiddleware(reg *prometheus.Registry) echo.MiddlewareFunc {
	cfg := echoprometheus.MiddlewareConfig{Subsystem: metricsSubsystem}
	if reg != nil {
		cfg.Registerer = reg
	}
	return echoprometheus.NewMiddlewareWithConfig(cfg)
}

func metricsHandler(reg *prometheus.Registry) echo.HandlerFunc {
	if reg == nil {
		return echoprometheus.NewHandler()
	}
	return echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: reg})
}

// requestLogger writes one zerolog line per request, tagged with the token
// subject on authenticated routes.
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
			evt := log.Info()
			if v.Error != nil {
				evt = log.Warn().Err(v.Error)
			}
			if sub, _ := c.Get(middleware.SubjectKey).(string); sub != "" {
				evt = evt.Str("subject", sub)
			}
			evt.
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
