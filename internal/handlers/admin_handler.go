package handlers

import (
	"database/sql"
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/taxsuite/tax-filing-backend/internal/interfaces"
	"github.com/taxsuite/tax-filing-backend/internal/models"
	"github.com/taxsuite/tax-filing-backend/internal/telemetry"
)

type AdminHandler struct {
	payments    interfaces.PaymentRepository
	submissions interfaces.SubmissionRepository
	users       interfaces.UserRepository
}

func NewAdminHandler(
	payments interfaces.PaymentRepository,
	submissions interfaces.SubmissionRepository,
	users interfaces.UserRepository,
) *AdminHandler {
	return &AdminHandler{payments: payments, submissions: submissions, users: users}
}

func (h *AdminHandler) ListSubmissions(c *gin.Context) {
	page, limit := pageParams(c)
	filter := models.SubmissionFilter{
		Status:   models.SubmissionStatus(c.Query("status")),
		OwnerID:  c.Query("userId"),
		FormType: c.Query("formType"),
		Page:     page,
		Limit:    limit,
	}

	submissions, total, err := h.submissions.List(c.Request.Context(), filter)
	if err != nil {
		h.fail(c, "list submissions", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"submissions": submissions,
		"totalPages":  totalPages(total, limit),
		"currentPage": page,
		"total":       total,
	})
}

type submissionUpdateRequest struct {
	Status          string `json:"status"`
	RejectionReason string `json:"rejectionReason"`
}

func (h *AdminHandler) UpdateSubmission(c *gin.Context) {
	var req submissionUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	ctx := c.Request.Context()
	submission, err := h.submissions.GetByID(ctx, c.Param("id"))
	if errors.Is(err, sql.ErrNoRows) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Submission not found"})
		return
	}
	if err != nil {
		h.fail(c, "update submission", err)
		return
	}

	status := submission.Status
	if req.Status != "" {
		parsed, ok := models.ParseSubmissionStatus(req.Status)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid submission status"})
			return
		}
		status = parsed
	}
	reason := submission.RejectionReason
	if req.RejectionReason != "" {
		reason = req.RejectionReason
	}

	if err := h.submissions.UpdateStatus(ctx, submission.ID, status, reason); err != nil {
		h.fail(c, "update submission", err)
		return
	}

	updated, err := h.submissions.GetByID(ctx, submission.ID)
	if err != nil {
		h.fail(c, "update submission", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":    "Submission updated successfully",
		"submission": updated,
	})
}

func (h *AdminHandler) ListPayments(c *gin.Context) {
	page, limit := pageParams(c)
	filter := models.PaymentFilter{
		Status:  models.PaymentStatus(c.Query("paymentStatus")),
		OwnerID: c.Query("userId"),
		Method:  models.PaymentMethod(c.Query("paymentMethod")),
		Page:    page,
		Limit:   limit,
	}

	payments, total, err := h.payments.List(c.Request.Context(), filter)
	if err != nil {
		h.fail(c, "list payments", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"payments":    payments,
		"totalPages":  totalPages(total, limit),
		"currentPage": page,
		"total":       total,
	})
}

func (h *AdminHandler) ListUsers(c *gin.Context) {
	page, limit := pageParams(c)
	users, total, err := h.users.List(c.Request.Context(), models.UserFilter{
		Search: c.Query("search"),
		Page:   page,
		Limit:  limit,
	})
	if err != nil {
		h.fail(c, "list users", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"users":       users,
		"totalPages":  totalPages(total, limit),
		"currentPage": page,
		"total":       total,
	})
}

type roleUpdateRequest struct {
	Role string `json:"role"`
}

func (h *AdminHandler) UpdateUserRole(c *gin.Context) {
	var req roleUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil || (req.Role != models.RoleUser && req.Role != models.RoleAdmin) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid role"})
		return
	}

	ctx := c.Request.Context()
	if err := h.users.UpdateRole(ctx, c.Param("id"), req.Role); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		h.fail(c, "update user role", err)
		return
	}

	user, err := h.users.GetByID(ctx, c.Param("id"))
	if err != nil {
		h.fail(c, "update user role", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "User role updated successfully",
		"user":    user,
	})
}

func (h *AdminHandler) Stats(c *gin.Context) {
	ctx := c.Request.Context()

	totalUsers, err := h.users.Count(ctx)
	if err != nil {
		h.fail(c, "admin stats", err)
		return
	}
	submissionStats, err := h.submissions.StatsByStatus(ctx, "")
	if err != nil {
		h.fail(c, "admin stats", err)
		return
	}
	paymentStats, err := h.payments.StatsByStatus(ctx, "")
	if err != nil {
		h.fail(c, "admin stats", err)
		return
	}
	recent, err := h.submissions.Recent(ctx, 10)
	if err != nil {
		h.fail(c, "admin stats", err)
		return
	}

	totalSubmissions := 0
	for _, s := range submissionStats {
		totalSubmissions += s.Count
	}
	totalPayments := 0
	for _, s := range paymentStats {
		totalPayments += s.Count
	}

	c.JSON(http.StatusOK, gin.H{
		"overview": gin.H{
			"totalUsers":       totalUsers,
			"totalSubmissions": totalSubmissions,
			"totalPayments":    totalPayments,
		},
		"submissionsByStatus": submissionStats,
		"paymentsByStatus":    paymentStats,
		"recentActivity":      recent,
	})
}

func (h *AdminHandler) fail(c *gin.Context, what string, err error) {
	telemetry.Logger.Error("admin "+what+" failed", zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch admin data"})
}

func pageParams(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	return page, limit
}

func totalPages(total, limit int) int {
	return int(math.Ceil(float64(total) / float64(limit)))
}
