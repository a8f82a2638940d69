package http

import (
	"net/http"

	apperrors "crowdfunding-ledger-backend/internal/common/errors"
	"crowdfunding-ledger-backend/internal/features/walletauth/models"
	"crowdfunding-ledger-backend/internal/features/walletauth/service"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	service *service.Service
}

func NewAuthHandler(service *service.Service) *AuthHandler {
	return &AuthHandler{service: service}
}

func (h *AuthHandler) RegisterRoutes(router *gin.RouterGroup) {
	auth := router.Group("/auth")
	{
		auth.POST("/nonce", h.issueNonce)
		auth.POST("/verify", h.verify)
	}
}

// @Summary Request a login challenge
// @Description Returns a message the wallet must sign with personal_sign
// @Tags auth
// @Accept json
// @Produce json
// @Param request body models.NonceRequest true "Wallet address"
// @Success 200 {object} models.Challenge
// @Failure 400 {object} middleware.ErrorResponse
// @Router /auth/nonce [post]
func (h *AuthHandler) issueNonce(c *gin.Context) {
	var req models.NonceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperrors.NewBadRequestError("Invalid request body"))
		return
	}
	challenge, err := h.service.IssueNonce(c.Request.Context(), req.Address)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, challenge)
}

// @Summary Exchange a signed challenge for a token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body models.VerifyRequest true "Signed challenge"
// @Success 200 {object} models.TokenResponse
// @Failure 400 {object} middleware.ErrorResponse
// @Failure 401 {object} middleware.ErrorResponse
// @Router /auth/verify [post]
func (h *AuthHandler) verify(c *gin.Context) {
	var req models.VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperrors.NewBadRequestError("Invalid request body"))
		return
	}
	token, err := h.service.Verify(c.Request.Context(), req.Address, req.Nonce, req.Signature)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, token)
}
