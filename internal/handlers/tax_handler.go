package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/taxsuite/tax-filing-backend/internal/taxengine"
)

type TaxHandler struct {
	calculator taxengine.Calculator
}

func NewTaxHandler(calculator taxengine.Calculator) *TaxHandler {
	return &TaxHandler{calculator: calculator}
}

func (h *TaxHandler) Calculate(c *gin.Context) {
	var form taxengine.FormData
	if err := c.ShouldBindJSON(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Form data is required"})
		return
	}

	c.JSON(http.StatusOK, h.calculator.Calculate(form))
}
