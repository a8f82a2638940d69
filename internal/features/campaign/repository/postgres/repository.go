package postgres

import (
	"context"
	"errors"
	"fmt"

	"crowdfunding-ledger-backend/internal/features/campaign/models"
	"crowdfunding-ledger-backend/internal/features/campaign/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Models lists the tables this repository needs migrated.
var Models = []interface{}{
	&models.Campaign{},
	&models.Donation{},
	&models.Contribution{},
}

type postgresTransaction struct {
	tx   *gorm.DB
	done bool
}

func (t *postgresTransaction) Commit() error {
	if t.done {
		return fmt.Errorf("transaction already finished")
	}
	t.done = true
	return t.tx.Commit().Error
}

func (t *postgresTransaction) Rollback() error {
	if t.done {
		return nil
	}
	t.done = true
	return t.tx.Rollback().Error
}

type postgresRepository struct {
	db *gorm.DB
}

func NewPostgresCampaignRepository(db *gorm.DB) repository.CampaignRepository {
	return &postgresRepository{db: db}
}

func txOf(tx repository.Transaction) (*gorm.DB, error) {
	ptx, ok := tx.(*postgresTransaction)
	if !ok {
		return nil, fmt.Errorf("foreign transaction %T", tx)
	}
	if ptx.done {
		return nil, fmt.Errorf("transaction already finished")
	}
	return ptx.tx, nil
}

func (r *postgresRepository) BeginTx(ctx context.Context) (repository.Transaction, error) {
	tx := r.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", tx.Error)
	}
	return &postgresTransaction{tx: tx}, nil
}

func (r *postgresRepository) NextID(ctx context.Context) (uint64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Campaign{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count campaigns: %w", err)
	}
	return uint64(count), nil
}

func (r *postgresRepository) CreateTx(ctx context.Context, tx repository.Transaction, campaign *models.Campaign) error {
	db, err := txOf(tx)
	if err != nil {
		return err
	}
	if err := db.Create(campaign).Error; err != nil {
		return fmt.Errorf("failed to create campaign: %w", err)
	}
	return nil
}

func (r *postgresRepository) UpdateTx(ctx context.Context, tx repository.Transaction, campaign *models.Campaign) error {
	db, err := txOf(tx)
	if err != nil {
		return err
	}
	res := db.Model(&models.Campaign{}).
		Where("id = ?", campaign.ID).
		Select("raised_amount", "completed_amount", "target_reached", "funds_withdrawn", "is_deleted", "donation_count").
		Updates(campaign)
	if res.Error != nil {
		return fmt.Errorf("failed to update campaign: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return repository.ErrCampaignNotFound
	}
	return nil
}

func (r *postgresRepository) GetByID(ctx context.Context, id uint64) (*models.Campaign, error) {
	var campaign models.Campaign
	err := r.db.WithContext(ctx).First(&campaign, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, repository.ErrCampaignNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get campaign: %w", err)
	}
	return &campaign, nil
}

func (r *postgresRepository) GetAll(ctx context.Context, filter models.ListFilter) ([]*models.Campaign, error) {
	query := r.db.WithContext(ctx).Where("is_deleted = ?", false)
	if filter.Owner != "" {
		query = query.Where("owner = ?", filter.Owner)
	}

	var result []*models.Campaign
	if err := query.Order("id ASC").Find(&result).Error; err != nil {
		return nil, fmt.Errorf("failed to list campaigns: %w", err)
	}
	return result, nil
}

func (r *postgresRepository) AddDonationTx(ctx context.Context, tx repository.Transaction, donation *models.Donation) error {
	db, err := txOf(tx)
	if err != nil {
		return err
	}
	if err := db.Create(donation).Error; err != nil {
		return fmt.Errorf("failed to add donation: %w", err)
	}
	return nil
}

func (r *postgresRepository) SetContributionTx(ctx context.Context, tx repository.Transaction, contribution *models.Contribution) error {
	db, err := txOf(tx)
	if err != nil {
		return err
	}
	err = db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "campaign_id"}, {Name: "donor"}},
		DoUpdates: clause.AssignmentColumns([]string{"amount"}),
	}).Create(contribution).Error
	if err != nil {
		return fmt.Errorf("failed to set contribution: %w", err)
	}
	return nil
}

func (r *postgresRepository) GetDonations(ctx context.Context, campaignID uint64) ([]*models.Donation, error) {
	var result []*models.Donation
	err := r.db.WithContext(ctx).
		Where("campaign_id = ?", campaignID).
		Order("seq ASC").
		Find(&result).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get donations: %w", err)
	}
	return result, nil
}

func (r *postgresRepository) GetContribution(ctx context.Context, campaignID uint64, donor string) (decimal.Decimal, error) {
	var c models.Contribution
	err := r.db.WithContext(ctx).
		Where("campaign_id = ? AND donor = ?", campaignID, donor).
		First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to get contribution: %w", err)
	}
	return c.Amount, nil
}

func (r *postgresRepository) HealthCheck(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
