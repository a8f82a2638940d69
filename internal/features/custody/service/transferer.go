package service

import (
	"context"

	"crowdfunding-ledger-backend/internal/features/custody/models"

	"github.com/shopspring/decimal"
)

// TransferRequest releases escrowed funds of a campaign to an account.
type TransferRequest struct {
	CampaignID uint64
	To         string
	Amount     decimal.Decimal
}

// Transferer moves funds out of escrow. A returned error means nothing was
// transferred.
type Transferer interface {
	Transfer(ctx context.Context, req TransferRequest) (*models.Payout, error)
}

// Reverser is implemented by transferers whose payouts can be undone, so a
// ledger write that fails after the transfer leaves no credit behind.
type Reverser interface {
	Reverse(ctx context.Context, payout *models.Payout) error
}
