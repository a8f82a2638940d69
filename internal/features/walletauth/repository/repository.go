package repository

import (
	"context"
	"time"

	"crowdfunding-ledger-backend/internal/features/walletauth/models"
)

// NonceRepository keeps pending login challenges keyed by address and nonce.
// An address may hold several; issuing one never cancels another.
type NonceRepository interface {
	Save(ctx context.Context, challenge *models.Challenge, ttl time.Duration) error
	// Take returns and removes the challenge, nil when there is none.
	// Stores may drop challenges after ttl but callers still check ExpiresAt.
	Take(ctx context.Context, address, nonce string) (*models.Challenge, error)
}
