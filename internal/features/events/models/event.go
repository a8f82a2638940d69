package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// EventType names a ledger notification.
type EventType string

const (
	CampaignCreated       EventType = "CampaignCreated"
	DonationReceived      EventType = "DonationReceived"
	CampaignTargetReached EventType = "CampaignTargetReached"
	FundsWithdrawn        EventType = "FundsWithdrawn"
	CampaignDeleted       EventType = "CampaignDeleted"

	RoleGranted      EventType = "RoleGranted"
	RoleRevoked      EventType = "RoleRevoked"
	AdminTransferred EventType = "AdminTransferred"
)

// Event is emitted after a mutation commits. It carries the campaign id and
// the quantities that changed so subscribers can patch cached views.
// @Description Ledger lifecycle notification
type Event struct {
	ID         string    `json:"id"`
	Type       EventType `json:"type"`
	Timestamp  time.Time `json:"timestamp"`
	CampaignID *uint64   `json:"campaign_id,omitempty"`

	// Address that triggered the change.
	Actor string `json:"actor,omitempty"`

	Title        string           `json:"title,omitempty"`
	Owner        string           `json:"owner,omitempty"`
	TargetAmount *decimal.Decimal `json:"target_amount,omitempty"`
	Deadline     *time.Time       `json:"deadline,omitempty"`

	Donor        string           `json:"donor,omitempty"`
	Amount       *decimal.Decimal `json:"amount,omitempty"`
	RaisedAmount *decimal.Decimal `json:"raised_amount,omitempty"`

	Role    string `json:"role,omitempty"`
	Account string `json:"account,omitempty"`
}

// Decimal returns a pointer to a copy of d for the optional amount fields.
func Decimal(d decimal.Decimal) *decimal.Decimal {
	return &d
}
