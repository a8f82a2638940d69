package http

import (
	"net/http"

	"crowdfunding-ledger-backend/internal/common/errors"
	"crowdfunding-ledger-backend/internal/common/middleware"
	"crowdfunding-ledger-backend/internal/features/campaign/models"
	"crowdfunding-ledger-backend/internal/features/campaign/service"

	"github.com/gin-gonic/gin"
)

type CampaignHandler struct {
	service service.CampaignService
}

func NewCampaignHandler(service service.CampaignService) *CampaignHandler {
	return &CampaignHandler{service: service}
}

// RegisterRoutes mounts the campaign endpoints. requireWallet guards the
// mutating ones.
func (h *CampaignHandler) RegisterRoutes(router *gin.RouterGroup, requireWallet gin.HandlerFunc) {
	campaigns := router.Group("/campaigns")
	{
		campaigns.GET("", h.getAll)
		campaigns.GET("/stats", h.getStats)
		campaigns.GET("/:id", h.getByID)
		campaigns.GET("/:id/donations", h.getDonations)
		campaigns.GET("/:id/contributions/:address", h.getContribution)

		campaigns.POST("", requireWallet, h.create)
		campaigns.DELETE("/:id", requireWallet, h.delete)
		campaigns.POST("/:id/donations", requireWallet, h.donate)
		campaigns.POST("/:id/withdraw", requireWallet, h.withdraw)
	}
}

// @Summary Create a campaign
// @Description Caller must hold the campaign creator role. Deadline is now + duration_days
// @Tags campaigns
// @Accept json
// @Produce json
// @Security WalletToken
// @Param input body models.CreateCampaignRequest true "Campaign"
// @Success 201 {object} models.CreateCampaignResponse
// @Failure 400 {object} middleware.ErrorResponse "Validation error"
// @Failure 401 {object} middleware.ErrorResponse "Not a campaign creator"
// @Router /campaigns [post]
func (h *CampaignHandler) create(c *gin.Context) {
	var input models.CreateCampaignRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		_ = c.Error(errors.NewBadRequestError(err.Error()))
		return
	}

	target, err := parseAmount("target_amount", input.TargetAmount, input.TargetEth)
	if err != nil {
		_ = c.Error(err)
		return
	}

	caller, _ := middleware.WalletAddress(c)
	id, err := h.service.CreateCampaign(c.Request.Context(), caller, service.CreateCampaignInput{
		Title:        input.Title,
		Description:  input.Description,
		ImageURL:     input.ImageURL,
		TargetAmount: target,
		DurationDays: input.DurationDays,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, models.CreateCampaignResponse{ID: id})
}

// @Summary List campaigns
// @Description Campaigns that are not deleted, ordered by id
// @Tags campaigns
// @Produce json
// @Param owner query string false "Only campaigns of this owner"
// @Success 200 {array} models.CampaignResponse
// @Router /campaigns [get]
func (h *CampaignHandler) getAll(c *gin.Context) {
	list, err := h.service.GetAllCampaigns(c.Request.Context(), models.ListFilter{Owner: c.Query("owner")})
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// @Summary Ledger totals
// @Tags campaigns
// @Produce json
// @Success 200 {object} models.StatsResponse
// @Router /campaigns/stats [get]
func (h *CampaignHandler) getStats(c *gin.Context) {
	stats, err := h.service.GetStats(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// @Summary Get a campaign
// @Tags campaigns
// @Produce json
// @Param id path int true "Campaign id"
// @Success 200 {object} models.CampaignResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Router /campaigns/{id} [get]
func (h *CampaignHandler) getByID(c *gin.Context) {
	id, ok := campaignID(c)
	if !ok {
		return
	}
	campaign, err := h.service.GetCampaign(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, campaign)
}

// @Summary Delete a campaign
// @Description Owner or admin, only while no funds are held
// @Tags campaigns
// @Produce json
// @Security WalletToken
// @Param id path int true "Campaign id"
// @Success 204
// @Failure 403 {object} middleware.ErrorResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Failure 409 {object} middleware.ErrorResponse
// @Router /campaigns/{id} [delete]
func (h *CampaignHandler) delete(c *gin.Context) {
	id, ok := campaignID(c)
	if !ok {
		return
	}
	caller, _ := middleware.WalletAddress(c)
	if err := h.service.DeleteCampaign(c.Request.Context(), caller, id); err != nil {
		_ = c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

// @Summary Donate to a campaign
// @Tags donations
// @Accept json
// @Produce json
// @Security WalletToken
// @Param id path int true "Campaign id"
// @Param input body models.DonateRequest true "Attached payment"
// @Success 204
// @Failure 400 {object} middleware.ErrorResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Failure 409 {object} middleware.ErrorResponse "Campaign is already completed"
// @Failure 410 {object} middleware.ErrorResponse "Campaign has ended"
// @Router /campaigns/{id}/donations [post]
func (h *CampaignHandler) donate(c *gin.Context) {
	id, ok := campaignID(c)
	if !ok {
		return
	}

	var input models.DonateRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		_ = c.Error(errors.NewBadRequestError(err.Error()))
		return
	}
	value, err := parseAmount("amount", input.Amount, input.AmountEth)
	if err != nil {
		_ = c.Error(err)
		return
	}

	caller, _ := middleware.WalletAddress(c)
	if err := h.service.DonateToCampaign(c.Request.Context(), caller, id, value); err != nil {
		_ = c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

// @Summary List donations
// @Tags donations
// @Produce json
// @Param id path int true "Campaign id"
// @Success 200 {array} models.DonationResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Router /campaigns/{id}/donations [get]
func (h *CampaignHandler) getDonations(c *gin.Context) {
	id, ok := campaignID(c)
	if !ok {
		return
	}
	list, err := h.service.GetCampaignDonations(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// @Summary Donor contribution
// @Tags donations
// @Produce json
// @Param id path int true "Campaign id"
// @Param address path string true "Donor address"
// @Success 200 {object} models.ContributionResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Router /campaigns/{id}/contributions/{address} [get]
func (h *CampaignHandler) getContribution(c *gin.Context) {
	id, ok := campaignID(c)
	if !ok {
		return
	}
	resp, err := h.service.GetDonorContribution(c.Request.Context(), id, c.Param("address"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// @Summary Withdraw escrowed funds
// @Description Owner only, once, after the deadline or when the target is reached
// @Tags custody
// @Produce json
// @Security WalletToken
// @Param id path int true "Campaign id"
// @Success 200 {object} models.WithdrawResponse
// @Failure 403 {object} middleware.ErrorResponse "Not campaign owner"
// @Failure 409 {object} middleware.ErrorResponse "Campaign is still active / Funds already withdrawn"
// @Failure 502 {object} middleware.ErrorResponse "Transfer failed"
// @Router /campaigns/{id}/withdraw [post]
func (h *CampaignHandler) withdraw(c *gin.Context) {
	id, ok := campaignID(c)
	if !ok {
		return
	}
	caller, _ := middleware.WalletAddress(c)
	resp, err := h.service.WithdrawFunds(c.Request.Context(), caller, id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
