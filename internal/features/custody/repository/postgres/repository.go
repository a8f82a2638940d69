package postgres

import (
	"context"
	"fmt"

	"crowdfunding-ledger-backend/internal/features/custody/models"
	"crowdfunding-ledger-backend/internal/features/custody/repository"

	"gorm.io/gorm"
)

type postgresRepository struct {
	db *gorm.DB
}

func NewPostgresPayoutRepository(db *gorm.DB) repository.PayoutRepository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) Record(ctx context.Context, payout *models.Payout) error {
	if err := r.db.WithContext(ctx).Create(payout).Error; err != nil {
		return fmt.Errorf("failed to record payout: %w", err)
	}
	return nil
}

func (r *postgresRepository) Remove(ctx context.Context, payout *models.Payout) error {
	if err := r.db.WithContext(ctx).Delete(&models.Payout{}, "id = ?", payout.ID).Error; err != nil {
		return fmt.Errorf("failed to remove payout: %w", err)
	}
	return nil
}

func (r *postgresRepository) ListByAccount(ctx context.Context, account string) ([]*models.Payout, error) {
	var result []*models.Payout
	err := r.db.WithContext(ctx).
		Where("account = ?", account).
		Order("created_at ASC").
		Find(&result).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list payouts: %w", err)
	}
	return result, nil
}
