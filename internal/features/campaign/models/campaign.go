package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Campaign is a funding goal held in escrow until its owner withdraws.
// Amounts are in wei.
type Campaign struct {
	ID              uint64          `json:"id" gorm:"primaryKey;autoIncrement:false"`
	Title           string          `json:"title" gorm:"size:200;not null"`
	Description     string          `json:"description" gorm:"type:text"`
	ImageURL        string          `json:"image_url" gorm:"size:2048;not null"`
	TargetAmount    decimal.Decimal `json:"target_amount" gorm:"type:numeric(78,0);not null"`
	RaisedAmount    decimal.Decimal `json:"raised_amount" gorm:"type:numeric(78,0);not null"`
	CompletedAmount decimal.Decimal `json:"completed_amount" gorm:"type:numeric(78,0);not null"`
	Owner           string          `json:"owner" gorm:"size:42;index;not null"`
	CreatedAt       time.Time       `json:"created_at"`
	Deadline        time.Time       `json:"deadline"`
	TargetReached   bool            `json:"target_reached"`
	FundsWithdrawn  bool            `json:"funds_withdrawn"`
	IsDeleted       bool            `json:"is_deleted" gorm:"index"`
	DonationCount   uint64          `json:"donation_count"`
}

func (Campaign) TableName() string {
	return "campaigns"
}

// IsCompleted reports whether c stopped accepting donations at now: the
// deadline passed or the target was reached.
func (c *Campaign) IsCompleted(now time.Time) bool {
	return c.TargetReached ||
		!now.Before(c.Deadline) ||
		c.RaisedAmount.GreaterThanOrEqual(c.TargetAmount)
}

// IsActive reports a visible campaign still accepting donations.
func (c *Campaign) IsActive(now time.Time) bool {
	return !c.IsDeleted && !c.IsCompleted(now)
}

// Clone returns a deep copy. Repositories hand out clones so callers never
// share a record.
func (c *Campaign) Clone() *Campaign {
	cp := *c
	return &cp
}

// Donation is one entry of a campaign's append-only donation log.
type Donation struct {
	CampaignID uint64          `json:"campaign_id" gorm:"primaryKey;autoIncrement:false"`
	Seq        uint64          `json:"seq" gorm:"primaryKey;autoIncrement:false"`
	Donor      string          `json:"donor" gorm:"size:42;index;not null"`
	Amount     decimal.Decimal `json:"amount" gorm:"type:numeric(78,0);not null"`
	Timestamp  time.Time       `json:"timestamp"`
}

func (Donation) TableName() string {
	return "donations"
}

// Contribution is a donor's running total for one campaign.
type Contribution struct {
	CampaignID uint64          `json:"campaign_id" gorm:"primaryKey;autoIncrement:false"`
	Donor      string          `json:"donor" gorm:"primaryKey;size:42"`
	Amount     decimal.Decimal `json:"amount" gorm:"type:numeric(78,0);not null"`
}

func (Contribution) TableName() string {
	return "contributions"
}

// ListFilter narrows GetAll. Zero value lists every visible campaign.
type ListFilter struct {
	Owner string
}
