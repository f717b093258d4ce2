package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/predyx/exchange/internal/api/middleware"
	"github.com/predyx/exchange/internal/service"
)

// QuoteHandler prices prospective wagers without committing funds.
type QuoteHandler struct {
	quoteSvc *service.QuoteService
}

func NewQuoteHandler(quoteSvc *service.QuoteService) *QuoteHandler {
	return &QuoteHandler{quoteSvc: quoteSvc}
}

// GetQuote handles POST /quotes. Authentication is optional; when a valid
// token is present the quote folds in the caller's existing position on the
// same outcome so the indicative payout reflects a top-up, not a fresh entry.
func (h *QuoteHandler) GetQuote(c *gin.Context) {
	var req service.TradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION", err.Error())
		return
	}

	quote, err := h.quoteSvc.GetQuote(c.Request.Context(), middleware.OptionalUserID(c), req)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, quote)
}
