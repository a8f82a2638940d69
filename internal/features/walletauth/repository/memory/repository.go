package memory

import (
	"context"
	"sync"
	"time"

	"crowdfunding-ledger-backend/internal/features/walletauth/models"
	"crowdfunding-ledger-backend/internal/features/walletauth/repository"
)

type challengeKey struct {
	address string
	nonce   string
}

// memoryRepository prunes expired challenges on Save, measured against the
// issue time of the challenge being saved.
type memoryRepository struct {
	mu         sync.Mutex
	challenges map[challengeKey]models.Challenge
}

func NewNonceRepository() repository.NonceRepository {
	return &memoryRepository{challenges: make(map[challengeKey]models.Challenge)}
}

func (r *memoryRepository) Save(ctx context.Context, challenge *models.Challenge, ttl time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for k, c := range r.challenges {
		if !challenge.IssuedAt.Before(c.ExpiresAt) {
			delete(r.challenges, k)
		}
	}
	r.challenges[challengeKey{challenge.Address, challenge.Nonce}] = *challenge
	return nil
}

func (r *memoryRepository) Take(ctx context.Context, address, nonce string) (*models.Challenge, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := challengeKey{address, nonce}
	c, ok := r.challenges[k]
	if !ok {
		return nil, nil
	}
	delete(r.challenges, k)
	return &c, nil
}
