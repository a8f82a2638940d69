package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"crowdfunding-ledger-backend/internal/features/walletauth/models"
	"crowdfunding-ledger-backend/internal/features/walletauth/repository"

	"github.com/redis/go-redis/v9"
)

const keyPrefixNonce = "auth:nonce:"

func challengeKey(address, nonce string) string {
	return keyPrefixNonce + address + ":" + nonce
}

type redisRepository struct {
	client *redis.Client
}

func NewRedisNonceRepository(client *redis.Client) repository.NonceRepository {
	return &redisRepository{client: client}
}

func (r *redisRepository) Save(ctx context.Context, challenge *models.Challenge, ttl time.Duration) error {
	data, err := json.Marshal(challenge)
	if err != nil {
		return fmt.Errorf("failed to marshal challenge: %w", err)
	}
	return r.client.Set(ctx, challengeKey(challenge.Address, challenge.Nonce), data, ttl).Err()
}

// Take uses GETDEL so a challenge can only be redeemed once.
func (r *redisRepository) Take(ctx context.Context, address, nonce string) (*models.Challenge, error) {
	data, err := r.client.GetDel(ctx, challengeKey(address, nonce)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to take challenge: %w", err)
	}

	var challenge models.Challenge
	if err := json.Unmarshal(data, &challenge); err != nil {
		return nil, fmt.Errorf("failed to unmarshal challenge: %w", err)
	}
	return &challenge, nil
}
