package memory

import (
	"context"
	"sync"

	"crowdfunding-ledger-backend/internal/features/custody/models"
	"crowdfunding-ledger-backend/internal/features/custody/repository"
)

type memoryRepository struct {
	mu      sync.RWMutex
	payouts map[string][]*models.Payout
}

func NewPayoutRepository() repository.PayoutRepository {
	return &memoryRepository{payouts: make(map[string][]*models.Payout)}
}

func (r *memoryRepository) Record(ctx context.Context, payout *models.Payout) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p := *payout
	r.payouts[p.Account] = append(r.payouts[p.Account], &p)
	return nil
}

func (r *memoryRepository) Remove(ctx context.Context, payout *models.Payout) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	list := r.payouts[payout.Account]
	for i, p := range list {
		if p.ID == payout.ID {
			r.payouts[payout.Account] = append(list[:i:i], list[i+1:]...)
			break
		}
	}
	return nil
}

func (r *memoryRepository) ListByAccount(ctx context.Context, account string) ([]*models.Payout, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	list := r.payouts[account]
	result := make([]*models.Payout, len(list))
	for i, p := range list {
		cp := *p
		result[i] = &cp
	}
	return result, nil
}
