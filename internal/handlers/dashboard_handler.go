package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/taxsuite/tax-filing-backend/internal/interfaces"
	"github.com/taxsuite/tax-filing-backend/internal/middleware"
	"github.com/taxsuite/tax-filing-backend/internal/models"
	"github.com/taxsuite/tax-filing-backend/internal/telemetry"
)

const recentActivityLimit = 5

type DashboardHandler struct {
	payments    interfaces.PaymentRepository
	submissions interfaces.SubmissionRepository
	users       interfaces.UserRepository
}

func NewDashboardHandler(
	payments interfaces.PaymentRepository,
	submissions interfaces.SubmissionRepository,
	users interfaces.UserRepository,
) *DashboardHandler {
	return &DashboardHandler{payments: payments, submissions: submissions, users: users}
}

func (h *DashboardHandler) Overview(c *gin.Context) {
	ctx := c.Request.Context()
	userID := middleware.CallerID(c)

	recentSubmissions, err := h.submissions.ListByOwner(ctx, userID, recentActivityLimit)
	if err != nil {
		h.fail(c, "dashboard overview", err)
		return
	}
	recentPayments, err := h.payments.ListByOwner(ctx, userID, recentActivityLimit)
	if err != nil {
		h.fail(c, "dashboard overview", err)
		return
	}

	totalSubmissions, err := h.submissions.CountByOwner(ctx, userID, "")
	if err != nil {
		h.fail(c, "dashboard overview", err)
		return
	}
	acceptedSubmissions, err := h.submissions.CountByOwner(ctx, userID, models.SubmissionAccepted)
	if err != nil {
		h.fail(c, "dashboard overview", err)
		return
	}
	totalPayments, err := h.payments.CountByOwner(ctx, userID, "")
	if err != nil {
		h.fail(c, "dashboard overview", err)
		return
	}
	successfulPayments, err := h.payments.CountByOwner(ctx, userID, models.StatusSucceeded)
	if err != nil {
		h.fail(c, "dashboard overview", err)
		return
	}
	totalPaid, err := h.payments.TotalPaidByOwner(ctx, userID)
	if err != nil {
		h.fail(c, "dashboard overview", err)
		return
	}

	progress := percentage(acceptedSubmissions, totalSubmissions)
	successRate := percentage(successfulPayments, totalPayments)

	userInfo := gin.H{}
	if user, err := h.users.GetByID(ctx, userID); err == nil {
		userInfo = gin.H{"name": user.Name, "email": user.Email}
	}

	var lastActivity any
	if len(recentSubmissions) > 0 {
		lastActivity = recentSubmissions[0].CreatedAt
	}

	c.JSON(http.StatusOK, gin.H{
		"user": userInfo,
		"submissions": gin.H{
			"recent":   recentSubmissions,
			"total":    totalSubmissions,
			"accepted": acceptedSubmissions,
			"progress": progress,
		},
		"payments": gin.H{
			"recent":          recentPayments,
			"total":           totalPayments,
			"successful":      successfulPayments,
			"successRate":     successRate,
			"totalAmountPaid": totalPaid,
		},
		"summary": gin.H{
			"completionRate": progress,
			"lastActivity":   lastActivity,
		},
	})
}

func (h *DashboardHandler) Stats(c *gin.Context) {
	ctx := c.Request.Context()
	userID := middleware.CallerID(c)

	submissionStats, err := h.submissions.StatsByStatus(ctx, userID)
	if err != nil {
		h.fail(c, "dashboard stats", err)
		return
	}
	paymentStats, err := h.payments.StatsByMethod(ctx, userID)
	if err != nil {
		h.fail(c, "dashboard stats", err)
		return
	}
	monthly, err := h.submissions.MonthlyActivity(ctx, userID, 12)
	if err != nil {
		h.fail(c, "dashboard stats", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"submissionsByStatus": submissionStats,
		"paymentsByMethod":    paymentStats,
		"monthlyActivity":     monthly,
	})
}

func (h *DashboardHandler) fail(c *gin.Context, what string, err error) {
	telemetry.Logger.Error("failed to build "+what,
		zap.String("user_id", middleware.CallerID(c)),
		zap.Error(err),
	)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch dashboard data"})
}

func percentage(part, total int) string {
	if total == 0 {
		return "0.00"
	}
	return fmt.Sprintf("%.2f", float64(part)/float64(total)*100)
}
