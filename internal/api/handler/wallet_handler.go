package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/predyx/exchange/internal/api/middleware"
	"github.com/predyx/exchange/internal/repository"
)

// WalletHandler serves the caller's wallet balances and transaction history.
type WalletHandler struct {
	walletRepo *repository.WalletRepository
}

func NewWalletHandler(walletRepo *repository.WalletRepository) *WalletHandler {
	return &WalletHandler{walletRepo: walletRepo}
}

// GetWallets handles GET /wallets and returns the caller's three wallets
// keyed by kind.
func (h *WalletHandler) GetWallets(c *gin.Context) {
	userID := middleware.GetUserID(c)

	set, err := h.walletRepo.GetSet(c.Request.Context(), userID)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"wallets": set,
	})
}

// GetTransactions handles GET /wallets/transactions with pagination.
func (h *WalletHandler) GetTransactions(c *gin.Context) {
	userID := middleware.GetUserID(c)
	limit, offset, page := parsePagination(c)

	txns, err := h.walletRepo.GetTransactions(c.Request.Context(), userID, limit, offset)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	respondList(c, txns, len(txns), page, limit)
}
