package http

import (
	"net/http"

	"crowdfunding-ledger-backend/internal/common/errors"
	"crowdfunding-ledger-backend/internal/common/middleware"
	"crowdfunding-ledger-backend/internal/features/access/models"
	"crowdfunding-ledger-backend/internal/features/access/service"

	"github.com/gin-gonic/gin"
)

type AccessHandler struct {
	service service.AccessService
}

func NewAccessHandler(service service.AccessService) *AccessHandler {
	return &AccessHandler{service: service}
}

// RegisterRoutes mounts the role endpoints. requireWallet guards the
// mutating ones.
func (h *AccessHandler) RegisterRoutes(router *gin.RouterGroup, requireWallet gin.HandlerFunc) {
	roles := router.Group("/roles")
	{
		roles.GET("/admin", h.getAdmin)
		roles.GET("/creators", h.listCreators)
		roles.GET("/:role/members/:address", h.hasRole)

		roles.POST("/creators", requireWallet, h.grantCreator)
		roles.DELETE("/creators/:address", requireWallet, h.revokeCreator)
		roles.POST("/admin/transfer", requireWallet, h.transferAdmin)
	}
}

// @Summary Check role membership
// @Description hasRole(role, address). role is a 32-byte hex id or one of admin, creator
// @Tags roles
// @Produce json
// @Param role path string true "Role id or name"
// @Param address path string true "Account address"
// @Success 200 {object} models.HasRoleResponse
// @Failure 400 {object} middleware.ErrorResponse
// @Router /roles/{role}/members/{address} [get]
func (h *AccessHandler) hasRole(c *gin.Context) {
	role, ok := models.ParseRole(c.Param("role"))
	if !ok {
		_ = c.Error(errors.NewValidationError("role", "Unknown role"))
		return
	}

	has, err := h.service.HasRole(c.Request.Context(), role, c.Param("address"))
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, models.HasRoleResponse{
		Role:     role,
		RoleName: role.Name(),
		Address:  c.Param("address"),
		HasRole:  has,
	})
}

// @Summary Current admin
// @Tags roles
// @Produce json
// @Success 200 {object} models.AddressRequest
// @Router /roles/admin [get]
func (h *AccessHandler) getAdmin(c *gin.Context) {
	admin, err := h.service.GetAdmin(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, models.AddressRequest{Address: admin})
}

// @Summary List campaign creators
// @Tags roles
// @Produce json
// @Success 200 {array} models.RoleAssignment
// @Router /roles/creators [get]
func (h *AccessHandler) listCreators(c *gin.Context) {
	list, err := h.service.ListCreators(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// @Summary Grant the campaign creator role
// @Description Admin only
// @Tags roles
// @Accept json
// @Produce json
// @Security WalletToken
// @Param input body models.AddressRequest true "Account to grant"
// @Success 204
// @Failure 400 {object} middleware.ErrorResponse
// @Failure 401 {object} middleware.ErrorResponse
// @Router /roles/creators [post]
func (h *AccessHandler) grantCreator(c *gin.Context) {
	var input models.AddressRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		_ = c.Error(errors.NewBadRequestError(err.Error()))
		return
	}

	caller, _ := middleware.WalletAddress(c)
	if err := h.service.GrantCampaignCreatorRole(c.Request.Context(), caller, input.Address); err != nil {
		_ = c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

// @Summary Revoke the campaign creator role
// @Description Admin only. Revoking an account without the role succeeds
// @Tags roles
// @Produce json
// @Security WalletToken
// @Param address path string true "Account to revoke"
// @Success 204
// @Failure 400 {object} middleware.ErrorResponse
// @Failure 401 {object} middleware.ErrorResponse
// @Router /roles/creators/{address} [delete]
func (h *AccessHandler) revokeCreator(c *gin.Context) {
	caller, _ := middleware.WalletAddress(c)
	if err := h.service.RevokeCampaignCreatorRole(c.Request.Context(), caller, c.Param("address")); err != nil {
		_ = c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

// @Summary Transfer the admin role
// @Tags roles
// @Accept json
// @Produce json
// @Security WalletToken
// @Param input body models.AddressRequest true "New admin"
// @Success 204
// @Failure 400 {object} middleware.ErrorResponse
// @Failure 401 {object} middleware.ErrorResponse
// @Router /roles/admin/transfer [post]
func (h *AccessHandler) transferAdmin(c *gin.Context) {
	var input models.AddressRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		_ = c.Error(errors.NewBadRequestError(err.Error()))
		return
	}

	caller, _ := middleware.WalletAddress(c)
	if err := h.service.TransferAdmin(c.Request.Context(), caller, input.Address); err != nil {
		_ = c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}
