package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	DriverLedger   = "ledger"
	DriverEthereum = "ethereum"
)

// Payout is a release of escrowed funds to a campaign owner.
type Payout struct {
	ID         string          `json:"id" gorm:"primaryKey;size:36"`
	Account    string          `json:"account" gorm:"size:42;index;not null"`
	CampaignID uint64          `json:"campaign_id" gorm:"index"`
	Amount     decimal.Decimal `json:"amount" gorm:"type:numeric(78,0);not null"`
	Driver     string          `json:"driver" gorm:"size:16"`
	// Reference is the transaction hash for on-chain payouts.
	Reference string    `json:"reference,omitempty" gorm:"size:66"`
	CreatedAt time.Time `json:"created_at"`
}

func (Payout) TableName() string {
	return "payouts"
}

// BalanceResponse sums the payouts an account received.
// @Description Payout balance of an account
type BalanceResponse struct {
	Address    string    `json:"address"`
	Balance    string    `json:"balance"`
	BalanceEth string    `json:"balance_eth"`
	Payouts    []*Payout `json:"payouts"`
}
