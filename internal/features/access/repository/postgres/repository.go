package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"crowdfunding-ledger-backend/internal/features/access/models"
	"crowdfunding-ledger-backend/internal/features/access/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type postgresRepository struct {
	db *gorm.DB
}

func NewPostgresRoleRepository(db *gorm.DB) repository.RoleRepository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) GetAdmin(ctx context.Context) (string, error) {
	var a models.RoleAssignment
	err := r.db.WithContext(ctx).
		Where("role = ?", models.RoleAdmin).
		Order("granted_at DESC").
		First(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get admin: %w", err)
	}
	return a.Address, nil
}

func (r *postgresRepository) SetAdmin(ctx context.Context, address, grantedBy string, at time.Time) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("role = ?", models.RoleAdmin).Delete(&models.RoleAssignment{}).Error; err != nil {
			return fmt.Errorf("failed to clear admin: %w", err)
		}
		return tx.Create(&models.RoleAssignment{
			Address:   address,
			Role:      models.RoleAdmin,
			GrantedBy: grantedBy,
			GrantedAt: at,
		}).Error
	})
}

func (r *postgresRepository) IsCreator(ctx context.Context, address string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.RoleAssignment{}).
		Where("address = ? AND role = ?", address, models.RoleCampaignCreator).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check creator: %w", err)
	}
	return count > 0, nil
}

func (r *postgresRepository) AddCreator(ctx context.Context, address, grantedBy string, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.RoleAssignment{
			Address:   address,
			Role:      models.RoleCampaignCreator,
			GrantedBy: grantedBy,
			GrantedAt: at,
		})
	if res.Error != nil {
		return false, fmt.Errorf("failed to add creator: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *postgresRepository) RemoveCreator(ctx context.Context, address string) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("address = ? AND role = ?", address, models.RoleCampaignCreator).
		Delete(&models.RoleAssignment{})
	if res.Error != nil {
		return false, fmt.Errorf("failed to remove creator: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *postgresRepository) ListCreators(ctx context.Context) ([]models.RoleAssignment, error) {
	var result []models.RoleAssignment
	err := r.db.WithContext(ctx).
		Where("role = ?", models.RoleCampaignCreator).
		Order("granted_at ASC, address ASC").
		Find(&result).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list creators: %w", err)
	}
	return result, nil
}
