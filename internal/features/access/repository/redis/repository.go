package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"crowdfunding-ledger-backend/internal/features/access/models"
	"crowdfunding-ledger-backend/internal/features/access/repository"

	"github.com/redis/go-redis/v9"
)

const (
	keyAdmin    = "roles:admin"
	keyCreators = "roles:creators"
)

type redisRepository struct {
	client *redis.Client
}

func NewRedisRoleRepository(client *redis.Client) repository.RoleRepository {
	return &redisRepository{client: client}
}

func (r *redisRepository) GetAdmin(ctx context.Context) (string, error) {
	data, err := r.client.Get(ctx, keyAdmin).Bytes()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get admin: %w", err)
	}

	var assignment models.RoleAssignment
	if err := json.Unmarshal(data, &assignment); err != nil {
		return "", fmt.Errorf("failed to unmarshal admin: %w", err)
	}
	return assignment.Address, nil
}

func (r *redisRepository) SetAdmin(ctx context.Context, address, grantedBy string, at time.Time) error {
	data, err := json.Marshal(models.RoleAssignment{
		Address:   address,
		Role:      models.RoleAdmin,
		GrantedBy: grantedBy,
		GrantedAt: at,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal admin: %w", err)
	}
	return r.client.Set(ctx, keyAdmin, data, 0).Err()
}

func (r *redisRepository) IsCreator(ctx context.Context, address string) (bool, error) {
	return r.client.HExists(ctx, keyCreators, address).Result()
}

func (r *redisRepository) AddCreator(ctx context.Context, address, grantedBy string, at time.Time) (bool, error) {
	data, err := json.Marshal(models.RoleAssignment{
		Address:   address,
		Role:      models.RoleCampaignCreator,
		GrantedBy: grantedBy,
		GrantedAt: at,
	})
	if err != nil {
		return false, fmt.Errorf("failed to marshal creator: %w", err)
	}
	return r.client.HSetNX(ctx, keyCreators, address, data).Result()
}

func (r *redisRepository) RemoveCreator(ctx context.Context, address string) (bool, error) {
	n, err := r.client.HDel(ctx, keyCreators, address).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *redisRepository) ListCreators(ctx context.Context) ([]models.RoleAssignment, error) {
	values, err := r.client.HVals(ctx, keyCreators).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list creators: %w", err)
	}

	result := make([]models.RoleAssignment, 0, len(values))
	for _, v := range values {
		var a models.RoleAssignment
		if err := json.Unmarshal([]byte(v), &a); err != nil {
			return nil, fmt.Errorf("failed to unmarshal creator: %w", err)
		}
		result = append(result, a)
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].GrantedAt.Equal(result[j].GrantedAt) {
			return result[i].GrantedAt.Before(result[j].GrantedAt)
		}
		return result[i].Address < result[j].Address
	})
	return result, nil
}
