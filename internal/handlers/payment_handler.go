package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/taxsuite/tax-filing-backend/internal/middleware"
	"github.com/taxsuite/tax-filing-backend/internal/service"
	"github.com/taxsuite/tax-filing-backend/internal/telemetry"
)

type PaymentHandler struct {
	orchestrator *service.Orchestrator
}

func NewPaymentHandler(orchestrator *service.Orchestrator) *PaymentHandler {
	return &PaymentHandler{orchestrator: orchestrator}
}

type chargeRequest struct {
	Amount        float64 `json:"amount"`
	PaymentMethod string  `json:"paymentMethod"`
}

type confirmRequest struct {
	ProviderRef string `json:"providerRef"`
	Approved    bool   `json:"approved"`
}

func (h *PaymentHandler) Charge(c *gin.Context) {
	var req chargeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	receipt, err := h.orchestrator.CreateCharge(c.Request.Context(), middleware.CallerID(c), req.Amount, req.PaymentMethod)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidRequest), errors.Is(err, service.ErrUnsupportedMethod):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			telemetry.Logger.Error("charge failed",
				zap.String("user_id", middleware.CallerID(c)),
				zap.Error(err),
			)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process payment"})
		}
		return
	}

	resp := gin.H{
		"paymentId":     receipt.PaymentID,
		"paymentStatus": receipt.Status,
	}
	if receipt.ProviderRef != "" {
		resp["providerRef"] = receipt.ProviderRef
	}
	if receipt.ClientToken != "" {
		resp["clientContinuationToken"] = receipt.ClientToken
	}
	c.JSON(http.StatusAccepted, resp)
}

func (h *PaymentHandler) GetStatus(c *gin.Context) {
	payment, err := h.orchestrator.GetStatus(c.Request.Context(), middleware.CallerID(c), c.Param("id"))
	if err != nil {
		respondPaymentError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"paymentStatus": payment.Status,
		"amount":        payment.Amount,
		"paymentMethod": payment.Method,
		"createdAt":     payment.CreatedAt,
		"updatedAt":     payment.UpdatedAt,
	})
}

func (h *PaymentHandler) ListMine(c *gin.Context) {
	payments, err := h.orchestrator.ListMine(c.Request.Context(), middleware.CallerID(c))
	if err != nil {
		telemetry.Logger.Error("failed to list payments",
			zap.String("user_id", middleware.CallerID(c)),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch payments"})
		return
	}
	c.JSON(http.StatusOK, payments)
}

func (h *PaymentHandler) Confirm(c *gin.Context) {
	var req confirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	payment, err := h.orchestrator.Confirm(c.Request.Context(), middleware.CallerID(c), c.Param("id"), req.ProviderRef, req.Approved)
	if err != nil {
		respondPaymentError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"paymentId":     payment.ID,
		"paymentStatus": payment.Status,
		"providerRef":   payment.ProviderRef,
		"updatedAt":     payment.UpdatedAt,
	})
}

func respondPaymentError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidRequest):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		telemetry.Logger.Error("payment request failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch payment"})
	}
}
