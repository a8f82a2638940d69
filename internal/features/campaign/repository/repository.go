package repository

import (
	"context"
	"errors"

	"crowdfunding-ledger-backend/internal/features/campaign/models"

	"github.com/shopspring/decimal"
)

var ErrCampaignNotFound = errors.New("campaign not found")

// Transaction stages writes until Commit. Rollback after Commit is a no-op.
type Transaction interface {
	Commit() error
	Rollback() error
}

// CampaignRepository stores campaigns, their donation logs and donor
// totals. Reads return snapshots; writes go through a Transaction so a
// mutation lands completely or not at all. Callers serialize writers per
// campaign and finish their reads before BeginTx.
type CampaignRepository interface {
	BeginTx(ctx context.Context) (Transaction, error)

	// NextID returns the id the next created campaign gets. Ids are dense
	// from 0 since campaigns are never removed from storage.
	NextID(ctx context.Context) (uint64, error)
	CreateTx(ctx context.Context, tx Transaction, campaign *models.Campaign) error
	UpdateTx(ctx context.Context, tx Transaction, campaign *models.Campaign) error

	// GetByID returns deleted campaigns too.
	GetByID(ctx context.Context, id uint64) (*models.Campaign, error)
	// GetAll returns campaigns that are not deleted, ordered by id.
	GetAll(ctx context.Context, filter models.ListFilter) ([]*models.Campaign, error)

	AddDonationTx(ctx context.Context, tx Transaction, donation *models.Donation) error
	SetContributionTx(ctx context.Context, tx Transaction, contribution *models.Contribution) error
	GetDonations(ctx context.Context, campaignID uint64) ([]*models.Donation, error)
	// GetContribution returns zero for donors that never gave.
	GetContribution(ctx context.Context, campaignID uint64, donor string) (decimal.Decimal, error)

	HealthCheck(ctx context.Context) error
}
