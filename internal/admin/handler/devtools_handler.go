package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/predyx/exchange/internal/service"
)

// DevToolsHandler serves /admin/dev-scripts endpoints used by ops and test
// tooling. There is no self-service signup; accounts are provisioned here.
type DevToolsHandler struct {
	authSvc *service.AuthService
}

// NewDevToolsHandler creates a DevToolsHandler.
func NewDevToolsHandler(authSvc *service.AuthService) *DevToolsHandler {
	return &DevToolsHandler{authSvc: authSvc}
}

// GenerateUserToken godoc
// POST /admin/dev-scripts/generate-user-token
// Issues a bearer token for the user with the given email, creating the user
// and seeding their wallets on first sight.
func (h *DevToolsHandler) GenerateUserToken(c *gin.Context) {
	var body struct {
		Email string `json:"email" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION", err.Error())
		return
	}

	token, user, err := h.authSvc.ProvisionUser(c.Request.Context(), body.Email)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{
		"token": token,
		"user":  user,
	})
}
