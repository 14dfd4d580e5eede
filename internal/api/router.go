package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/taxsuite/tax-filing-backend/internal/handlers"
	"github.com/taxsuite/tax-filing-backend/internal/interfaces"
	"github.com/taxsuite/tax-filing-backend/internal/middleware"
	"github.com/taxsuite/tax-filing-backend/internal/service"
	"github.com/taxsuite/tax-filing-backend/internal/taxengine"
	"github.com/taxsuite/tax-filing-backend/internal/telemetry"
)

type Deps struct {
	Orchestrator *service.Orchestrator
	Payments     interfaces.PaymentRepository
	Submissions  interfaces.SubmissionRepository
	Users        interfaces.UserRepository
	Calculator   taxengine.Calculator
	JWTSecret    string
}

func NewRouter(deps Deps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(telemetry.TracingMiddleware())

	// Prometheus metrics
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "tax-filing-backend"})
	})

	authed := middleware.Auth(deps.JWTSecret)

	paymentHandler := handlers.NewPaymentHandler(deps.Orchestrator)
	payments := r.Group("/api/payments", authed)
	{
		payments.POST("/charge", paymentHandler.Charge)
		payments.GET("/status/:id", paymentHandler.GetStatus)
		payments.GET("/user", paymentHandler.ListMine)
		payments.POST("/confirm/:id", paymentHandler.Confirm)
	}

	taxHandler := handlers.NewTaxHandler(deps.Calculator)
	tax := r.Group("/api/tax")
	{
		tax.POST("/calculate", taxHandler.Calculate)
		tax.POST("/calculate-secure", authed, taxHandler.Calculate)
	}

	dashboardHandler := handlers.NewDashboardHandler(deps.Payments, deps.Submissions, deps.Users)
	dashboard := r.Group("/api/dashboard", authed)
	{
		dashboard.GET("", dashboardHandler.Overview)
		dashboard.GET("/stats", dashboardHandler.Stats)
	}

	adminHandler := handlers.NewAdminHandler(deps.Payments, deps.Submissions, deps.Users)
	admin := r.Group("/api/admin", authed, middleware.RequireAdmin())
	{
		admin.GET("/submissions", adminHandler.ListSubmissions)
		admin.PUT("/submissions/:id", adminHandler.UpdateSubmission)
		admin.GET("/payments", adminHandler.ListPayments)
		admin.GET("/users", adminHandler.ListUsers)
		admin.PUT("/users/:id/role", adminHandler.UpdateUserRole)
		admin.GET("/stats", adminHandler.Stats)
	}

	return r
}
