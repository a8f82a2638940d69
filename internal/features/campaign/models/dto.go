package models

import "time"

// CreateCampaignRequest is the createCampaign input. Exactly one of
// target_amount (wei) and target_eth must be set.
// @Description Campaign creation input
type CreateCampaignRequest struct {
	Title        string `json:"title" example:"Clean water for Kisumu"`
	Description  string `json:"description" example:"Boreholes for three schools"`
	ImageURL     string `json:"image_url" example:"https://example.org/well.png"`
	TargetAmount string `json:"target_amount,omitempty" example:"1000000000000000000"`
	TargetEth    string `json:"target_eth,omitempty" example:"1"`
	DurationDays int64  `json:"duration_days" example:"30"`
}

// DonateRequest carries the attached payment. Exactly one of amount (wei)
// and amount_eth must be set.
// @Description Donation input
type DonateRequest struct {
	Amount    string `json:"amount,omitempty" example:"500000000000000000"`
	AmountEth string `json:"amount_eth,omitempty" example:"0.5"`
}

// CampaignResponse is the read view of a campaign with completion
// evaluated at read time.
// @Description Campaign view
type CampaignResponse struct {
	ID                 uint64    `json:"id"`
	Title              string    `json:"title"`
	Description        string    `json:"description"`
	ImageURL           string    `json:"image_url"`
	Owner              string    `json:"owner"`
	TargetAmount       string    `json:"target_amount"`
	TargetEth          string    `json:"target_eth"`
	RaisedAmount       string    `json:"raised_amount"`
	RaisedEth          string    `json:"raised_eth"`
	CompletedAmount    string    `json:"completed_amount"`
	CompletedEth       string    `json:"completed_eth"`
	CreatedAt          time.Time `json:"created_at"`
	Deadline           time.Time `json:"deadline"`
	IsCompleted        bool      `json:"is_completed"`
	TargetReached      bool      `json:"target_reached"`
	FundsWithdrawn     bool      `json:"funds_withdrawn"`
	DonationCount      uint64    `json:"donation_count"`
	RemainingSeconds   int64     `json:"remaining_seconds"`
	ProgressPercentage float64   `json:"progress_percentage"`
}

// @Description Donation view
type DonationResponse struct {
	Seq       uint64    `json:"seq"`
	Donor     string    `json:"donor"`
	Amount    string    `json:"amount"`
	AmountEth string    `json:"amount_eth"`
	Timestamp time.Time `json:"timestamp"`
}

// @Description Cumulative contribution of a donor
type ContributionResponse struct {
	CampaignID uint64 `json:"campaign_id"`
	Donor      string `json:"donor"`
	Amount     string `json:"amount"`
	AmountEth  string `json:"amount_eth"`
}

// @Description Ledger totals
type StatsResponse struct {
	TotalCampaigns  int64  `json:"total_campaigns"`
	ActiveCampaigns int64  `json:"active_campaigns"`
	EscrowedAmount  string `json:"escrowed_amount"`
	EscrowedEth     string `json:"escrowed_eth"`
}

// @Description Created campaign id
type CreateCampaignResponse struct {
	ID uint64 `json:"id"`
}

// @Description Withdrawal result
type WithdrawResponse struct {
	CampaignID uint64 `json:"campaign_id"`
	Owner      string `json:"owner"`
	Amount     string `json:"amount"`
	AmountEth  string `json:"amount_eth"`
	Reference  string `json:"reference,omitempty"`
}
