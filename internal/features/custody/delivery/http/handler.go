package http

import (
	"net/http"

	"crowdfunding-ledger-backend/internal/features/custody/service"

	"github.com/gin-gonic/gin"
)

type CustodyHandler struct {
	service service.CustodyService
}

func NewCustodyHandler(service service.CustodyService) *CustodyHandler {
	return &CustodyHandler{service: service}
}

func (h *CustodyHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/accounts/:address/balance", h.getBalance)
}

// @Summary Payout balance
// @Description Sum of escrow releases credited to an account, with the payout history
// @Tags custody
// @Produce json
// @Param address path string true "Account address"
// @Success 200 {object} models.BalanceResponse
// @Failure 400 {object} middleware.ErrorResponse
// @Router /accounts/{address}/balance [get]
func (h *CustodyHandler) getBalance(c *gin.Context) {
	balance, err := h.service.GetBalance(c.Request.Context(), c.Param("address"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, balance)
}
