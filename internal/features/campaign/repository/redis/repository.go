package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"crowdfunding-ledger-backend/internal/features/campaign/models"
	"crowdfunding-ledger-backend/internal/features/campaign/repository"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

const (
	keyPrefixCampaign = "campaign:"
	keyCampaignIndex  = "campaigns:index"
	keyPrefixOwner    = "campaigns:owner:"
)

// redisTransaction queues commands in a MULTI/EXEC pipeline.
type redisTransaction struct {
	ctx  context.Context
	pipe redis.Pipeliner
	done bool
}

func (tx *redisTransaction) Commit() error {
	if tx.done {
		return fmt.Errorf("transaction already finished")
	}
	tx.done = true
	_, err := tx.pipe.Exec(tx.ctx)
	return err
}

func (tx *redisTransaction) Rollback() error {
	if !tx.done {
		tx.done = true
		tx.pipe.Discard()
	}
	return nil
}

type redisRepository struct {
	client *redis.Client
}

func NewRedisCampaignRepository(client *redis.Client) repository.CampaignRepository {
	return &redisRepository{client: client}
}

func makeCampaignKey(id uint64) string {
	return keyPrefixCampaign + strconv.FormatUint(id, 10)
}

func makeDonationsKey(id uint64) string {
	return makeCampaignKey(id) + ":donations"
}

func makeContributionsKey(id uint64) string {
	return makeCampaignKey(id) + ":contributions"
}

func makeOwnerKey(owner string) string {
	return keyPrefixOwner + owner
}

func pipeOf(tx repository.Transaction) (redis.Pipeliner, error) {
	rtx, ok := tx.(*redisTransaction)
	if !ok {
		return nil, fmt.Errorf("foreign transaction %T", tx)
	}
	if rtx.done {
		return nil, fmt.Errorf("transaction already finished")
	}
	return rtx.pipe, nil
}

func (r *redisRepository) BeginTx(ctx context.Context) (repository.Transaction, error) {
	return &redisTransaction{ctx: ctx, pipe: r.client.TxPipeline()}, nil
}

func (r *redisRepository) NextID(ctx context.Context) (uint64, error) {
	n, err := r.client.ZCard(ctx, keyCampaignIndex).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to count campaigns: %w", err)
	}
	return uint64(n), nil
}

func (r *redisRepository) CreateTx(ctx context.Context, tx repository.Transaction, campaign *models.Campaign) error {
	pipe, err := pipeOf(tx)
	if err != nil {
		return err
	}
	data, err := json.Marshal(campaign)
	if err != nil {
		return fmt.Errorf("failed to marshal campaign: %w", err)
	}

	member := redis.Z{Score: float64(campaign.ID), Member: campaign.ID}
	pipe.Set(ctx, makeCampaignKey(campaign.ID), data, 0)
	pipe.ZAdd(ctx, keyCampaignIndex, member)
	pipe.ZAdd(ctx, makeOwnerKey(campaign.Owner), member)
	return nil
}

func (r *redisRepository) UpdateTx(ctx context.Context, tx repository.Transaction, campaign *models.Campaign) error {
	pipe, err := pipeOf(tx)
	if err != nil {
		return err
	}
	data, err := json.Marshal(campaign)
	if err != nil {
		return fmt.Errorf("failed to marshal campaign: %w", err)
	}
	pipe.Set(ctx, makeCampaignKey(campaign.ID), data, 0)
	return nil
}

func (r *redisRepository) GetByID(ctx context.Context, id uint64) (*models.Campaign, error) {
	data, err := r.client.Get(ctx, makeCampaignKey(id)).Bytes()
	if err == redis.Nil {
		return nil, repository.ErrCampaignNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get campaign: %w", err)
	}

	var campaign models.Campaign
	if err := json.Unmarshal(data, &campaign); err != nil {
		return nil, fmt.Errorf("failed to unmarshal campaign: %w", err)
	}
	return &campaign, nil
}

func (r *redisRepository) GetAll(ctx context.Context, filter models.ListFilter) ([]*models.Campaign, error) {
	index := keyCampaignIndex
	if filter.Owner != "" {
		index = makeOwnerKey(filter.Owner)
	}

	ids, err := r.client.ZRange(ctx, index, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get campaign index: %w", err)
	}
	if len(ids) == 0 {
		return []*models.Campaign{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = keyPrefixCampaign + id
	}
	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get campaigns: %w", err)
	}

	result := make([]*models.Campaign, 0, len(values))
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("campaign %s is indexed but missing", ids[i])
		}
		var campaign models.Campaign
		if err := json.Unmarshal([]byte(raw), &campaign); err != nil {
			return nil, fmt.Errorf("failed to unmarshal campaign %s: %w", ids[i], err)
		}
		if campaign.IsDeleted {
			continue
		}
		result = append(result, &campaign)
	}
	return result, nil
}

func (r *redisRepository) AddDonationTx(ctx context.Context, tx repository.Transaction, donation *models.Donation) error {
	pipe, err := pipeOf(tx)
	if err != nil {
		return err
	}
	data, err := json.Marshal(donation)
	if err != nil {
		return fmt.Errorf("failed to marshal donation: %w", err)
	}
	pipe.RPush(ctx, makeDonationsKey(donation.CampaignID), data)
	return nil
}

func (r *redisRepository) SetContributionTx(ctx context.Context, tx repository.Transaction, contribution *models.Contribution) error {
	pipe, err := pipeOf(tx)
	if err != nil {
		return err
	}
	pipe.HSet(ctx, makeContributionsKey(contribution.CampaignID), contribution.Donor, contribution.Amount.String())
	return nil
}

func (r *redisRepository) GetDonations(ctx context.Context, campaignID uint64) ([]*models.Donation, error) {
	items, err := r.client.LRange(ctx, makeDonationsKey(campaignID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get donations: %w", err)
	}

	result := make([]*models.Donation, 0, len(items))
	for _, item := range items {
		var d models.Donation
		if err := json.Unmarshal([]byte(item), &d); err != nil {
			return nil, fmt.Errorf("failed to unmarshal donation: %w", err)
		}
		result = append(result, &d)
	}
	return result, nil
}

func (r *redisRepository) GetContribution(ctx context.Context, campaignID uint64, donor string) (decimal.Decimal, error) {
	raw, err := r.client.HGet(ctx, makeContributionsKey(campaignID), donor).Result()
	if err == redis.Nil {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to get contribution: %w", err)
	}
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("corrupt contribution %q: %w", raw, err)
	}
	return amount, nil
}

func (r *redisRepository) HealthCheck(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
