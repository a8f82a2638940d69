package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"crowdfunding-ledger-backend/internal/features/custody/models"
	"crowdfunding-ledger-backend/internal/features/custody/repository"

	"github.com/redis/go-redis/v9"
)

const keyPrefixPayouts = "custody:payouts:"

type redisRepository struct {
	client *redis.Client
}

func NewRedisPayoutRepository(client *redis.Client) repository.PayoutRepository {
	return &redisRepository{client: client}
}

func makePayoutsKey(account string) string {
	return keyPrefixPayouts + account
}

func (r *redisRepository) Record(ctx context.Context, payout *models.Payout) error {
	data, err := json.Marshal(payout)
	if err != nil {
		return fmt.Errorf("failed to marshal payout: %w", err)
	}
	if err := r.client.RPush(ctx, makePayoutsKey(payout.Account), data).Err(); err != nil {
		return fmt.Errorf("failed to record payout: %w", err)
	}
	return nil
}

func (r *redisRepository) Remove(ctx context.Context, payout *models.Payout) error {
	data, err := json.Marshal(payout)
	if err != nil {
		return fmt.Errorf("failed to marshal payout: %w", err)
	}
	if err := r.client.LRem(ctx, makePayoutsKey(payout.Account), 1, data).Err(); err != nil {
		return fmt.Errorf("failed to remove payout: %w", err)
	}
	return nil
}

func (r *redisRepository) ListByAccount(ctx context.Context, account string) ([]*models.Payout, error) {
	items, err := r.client.LRange(ctx, makePayoutsKey(account), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list payouts: %w", err)
	}
	result := make([]*models.Payout, 0, len(items))
	for _, item := range items {
		var p models.Payout
		if err := json.Unmarshal([]byte(item), &p); err != nil {
			return nil, fmt.Errorf("failed to unmarshal payout: %w", err)
		}
		result = append(result, &p)
	}
	return result, nil
}
