package service

import (
	"context"

	"crowdfunding-ledger-backend/internal/features/campaign/models"

	"github.com/shopspring/decimal"
)

// CreateCampaignInput is a validated-by-service createCampaign request.
// TargetAmount is in wei.
type CreateCampaignInput struct {
	Title        string
	Description  string
	ImageURL     string
	TargetAmount decimal.Decimal
	DurationDays int64
}

type CampaignService interface {
	CreateCampaign(ctx context.Context, caller string, input CreateCampaignInput) (uint64, error)
	GetCampaign(ctx context.Context, id uint64) (*models.CampaignResponse, error)
	GetAllCampaigns(ctx context.Context, filter models.ListFilter) ([]*models.CampaignResponse, error)
	GetTotalCampaigns(ctx context.Context) (int64, error)
	GetTotalActiveCampaigns(ctx context.Context) (int64, error)
	GetStats(ctx context.Context) (*models.StatsResponse, error)
	DeleteCampaign(ctx context.Context, caller string, id uint64) error

	DonateToCampaign(ctx context.Context, caller string, id uint64, amount decimal.Decimal) error
	GetCampaignDonations(ctx context.Context, id uint64) ([]*models.DonationResponse, error)
	GetDonorContribution(ctx context.Context, id uint64, donor string) (*models.ContributionResponse, error)

	WithdrawFunds(ctx context.Context, caller string, id uint64) (*models.WithdrawResponse, error)
}
