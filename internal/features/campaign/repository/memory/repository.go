package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"crowdfunding-ledger-backend/internal/features/campaign/models"
	"crowdfunding-ledger-backend/internal/features/campaign/repository"

	"github.com/shopspring/decimal"
)

type contributionKey struct {
	campaignID uint64
	donor      string
}

type memoryRepository struct {
	mu            sync.RWMutex
	campaigns     map[uint64]*models.Campaign
	donations     map[uint64][]*models.Donation
	contributions map[contributionKey]decimal.Decimal
}

func NewCampaignRepository() repository.CampaignRepository {
	return &memoryRepository{
		campaigns:     make(map[uint64]*models.Campaign),
		donations:     make(map[uint64][]*models.Donation),
		contributions: make(map[contributionKey]decimal.Decimal),
	}
}

// memoryTx buffers writes and applies them in one critical section.
type memoryTx struct {
	repo *memoryRepository
	ops  []func()
	done bool
}

func (tx *memoryTx) Commit() error {
	if tx.done {
		return fmt.Errorf("transaction already finished")
	}
	tx.done = true

	tx.repo.mu.Lock()
	defer tx.repo.mu.Unlock()
	for _, op := range tx.ops {
		op()
	}
	return nil
}

func (tx *memoryTx) Rollback() error {
	tx.done = true
	tx.ops = nil
	return nil
}

func (r *memoryRepository) BeginTx(ctx context.Context) (repository.Transaction, error) {
	return &memoryTx{repo: r}, nil
}

func (r *memoryRepository) stage(tx repository.Transaction, op func()) error {
	mtx, ok := tx.(*memoryTx)
	if !ok || mtx.repo != r {
		return fmt.Errorf("foreign transaction %T", tx)
	}
	if mtx.done {
		return fmt.Errorf("transaction already finished")
	}
	mtx.ops = append(mtx.ops, op)
	return nil
}

func (r *memoryRepository) NextID(ctx context.Context) (uint64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return uint64(len(r.campaigns)), nil
}

func (r *memoryRepository) CreateTx(ctx context.Context, tx repository.Transaction, campaign *models.Campaign) error {
	c := campaign.Clone()
	return r.stage(tx, func() {
		r.campaigns[c.ID] = c
	})
}

func (r *memoryRepository) UpdateTx(ctx context.Context, tx repository.Transaction, campaign *models.Campaign) error {
	c := campaign.Clone()
	return r.stage(tx, func() {
		r.campaigns[c.ID] = c
	})
}

func (r *memoryRepository) GetByID(ctx context.Context, id uint64) (*models.Campaign, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.campaigns[id]
	if !ok {
		return nil, repository.ErrCampaignNotFound
	}
	return c.Clone(), nil
}

func (r *memoryRepository) GetAll(ctx context.Context, filter models.ListFilter) ([]*models.Campaign, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*models.Campaign, 0, len(r.campaigns))
	for _, c := range r.campaigns {
		if c.IsDeleted {
			continue
		}
		if filter.Owner != "" && c.Owner != filter.Owner {
			continue
		}
		result = append(result, c.Clone())
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (r *memoryRepository) AddDonationTx(ctx context.Context, tx repository.Transaction, donation *models.Donation) error {
	d := *donation
	return r.stage(tx, func() {
		r.donations[d.CampaignID] = append(r.donations[d.CampaignID], &d)
	})
}

func (r *memoryRepository) SetContributionTx(ctx context.Context, tx repository.Transaction, contribution *models.Contribution) error {
	c := *contribution
	return r.stage(tx, func() {
		r.contributions[contributionKey{c.CampaignID, c.Donor}] = c.Amount
	})
}

func (r *memoryRepository) GetDonations(ctx context.Context, campaignID uint64) ([]*models.Donation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	log := r.donations[campaignID]
	result := make([]*models.Donation, len(log))
	for i, d := range log {
		cp := *d
		result[i] = &cp
	}
	return result, nil
}

func (r *memoryRepository) GetContribution(ctx context.Context, campaignID uint64, donor string) (decimal.Decimal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	amount, ok := r.contributions[contributionKey{campaignID, donor}]
	if !ok {
		return decimal.Zero, nil
	}
	return amount, nil
}

func (r *memoryRepository) HealthCheck(ctx context.Context) error {
	return nil
}
