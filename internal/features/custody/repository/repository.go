package repository

import (
	"context"

	"crowdfunding-ledger-backend/internal/features/custody/models"
)

// PayoutRepository is the append-only payout book.
type PayoutRepository interface {
	Record(ctx context.Context, payout *models.Payout) error
	// Remove deletes a payout that was recorded for a ledger write that
	// never committed.
	Remove(ctx context.Context, payout *models.Payout) error
	ListByAccount(ctx context.Context, account string) ([]*models.Payout, error)
}
