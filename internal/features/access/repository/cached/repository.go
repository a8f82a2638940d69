// Package cached puts a Redis read-through cache in front of a RoleRepository.
// Authorization checks hit IsCreator and GetAdmin on every mutating request.
package cached

import (
	"context"
	"time"

	"crowdfunding-ledger-backend/internal/common/cache"
	"crowdfunding-ledger-backend/internal/common/logger"
	"crowdfunding-ledger-backend/internal/features/access/models"
	"crowdfunding-ledger-backend/internal/features/access/repository"
)

const (
	keyAdmin    = "admin"
	keyCreators = "creators"
)

func creatorKey(address string) string {
	return "creator:" + address
}

type cachedRepository struct {
	next  repository.RoleRepository
	cache *cache.CacheService
}

func NewCachedRoleRepository(next repository.RoleRepository, c *cache.CacheService) repository.RoleRepository {
	return &cachedRepository{next: next, cache: c}
}

func (r *cachedRepository) GetAdmin(ctx context.Context) (string, error) {
	return cache.GetOrSet(ctx, r.cache, keyAdmin, func() (string, error) {
		return r.next.GetAdmin(ctx)
	})
}

func (r *cachedRepository) SetAdmin(ctx context.Context, address, grantedBy string, at time.Time) error {
	if err := r.next.SetAdmin(ctx, address, grantedBy, at); err != nil {
		return err
	}
	r.invalidate(ctx, keyAdmin)
	return nil
}

func (r *cachedRepository) IsCreator(ctx context.Context, address string) (bool, error) {
	return cache.GetOrSet(ctx, r.cache, creatorKey(address), func() (bool, error) {
		return r.next.IsCreator(ctx, address)
	})
}

func (r *cachedRepository) AddCreator(ctx context.Context, address, grantedBy string, at time.Time) (bool, error) {
	added, err := r.next.AddCreator(ctx, address, grantedBy, at)
	if err != nil {
		return false, err
	}
	r.invalidate(ctx, creatorKey(address), keyCreators)
	return added, nil
}

func (r *cachedRepository) RemoveCreator(ctx context.Context, address string) (bool, error) {
	removed, err := r.next.RemoveCreator(ctx, address)
	if err != nil {
		return false, err
	}
	r.invalidate(ctx, creatorKey(address), keyCreators)
	return removed, nil
}

func (r *cachedRepository) ListCreators(ctx context.Context) ([]models.RoleAssignment, error) {
	return cache.GetOrSet(ctx, r.cache, keyCreators, func() ([]models.RoleAssignment, error) {
		return r.next.ListCreators(ctx)
	})
}

func (r *cachedRepository) invalidate(ctx context.Context, keys ...string) {
	if err := r.cache.Delete(ctx, keys...); err != nil {
		// Entries still expire after the cache TTL.
		logger.Error().Err(err).Strs("keys", keys).Msg("Failed to invalidate role cache")
	}
}
