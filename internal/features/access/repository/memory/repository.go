package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"crowdfunding-ledger-backend/internal/features/access/models"
	"crowdfunding-ledger-backend/internal/features/access/repository"
)

type memoryRepository struct {
	mu       sync.RWMutex
	admin    *models.RoleAssignment
	creators map[string]models.RoleAssignment
}

func NewRoleRepository() repository.RoleRepository {
	return &memoryRepository{creators: make(map[string]models.RoleAssignment)}
}

func (r *memoryRepository) GetAdmin(ctx context.Context) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.admin == nil {
		return "", nil
	}
	return r.admin.Address, nil
}

func (r *memoryRepository) SetAdmin(ctx context.Context, address, grantedBy string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.admin = &models.RoleAssignment{
		Address:   address,
		Role:      models.RoleAdmin,
		GrantedBy: grantedBy,
		GrantedAt: at,
	}
	return nil
}

func (r *memoryRepository) IsCreator(ctx context.Context, address string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.creators[address]
	return ok, nil
}

func (r *memoryRepository) AddCreator(ctx context.Context, address, grantedBy string, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.creators[address]; ok {
		return false, nil
	}
	r.creators[address] = models.RoleAssignment{
		Address:   address,
		Role:      models.RoleCampaignCreator,
		GrantedBy: grantedBy,
		GrantedAt: at,
	}
	return true, nil
}

func (r *memoryRepository) RemoveCreator(ctx context.Context, address string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.creators[address]; !ok {
		return false, nil
	}
	delete(r.creators, address)
	return true, nil
}

func (r *memoryRepository) ListCreators(ctx context.Context) ([]models.RoleAssignment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]models.RoleAssignment, 0, len(r.creators))
	for _, a := range r.creators {
		result = append(result, a)
	}
	sortAssignments(result)
	return result, nil
}

func sortAssignments(list []models.RoleAssignment) {
	sort.Slice(list, func(i, j int) bool {
		if !list[i].GrantedAt.Equal(list[j].GrantedAt) {
			return list[i].GrantedAt.Before(list[j].GrantedAt)
		}
		return list[i].Address < list[j].Address
	})
}
