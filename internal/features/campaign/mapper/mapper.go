package mapper

import (
	"time"

	"crowdfunding-ledger-backend/internal/common/amount"
	"crowdfunding-ledger-backend/internal/features/campaign/models"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// ToCampaignResponse renders c as seen at now.
func ToCampaignResponse(c *models.Campaign, now time.Time) *models.CampaignResponse {
	remaining := int64(c.Deadline.Sub(now) / time.Second)
	if remaining < 0 {
		remaining = 0
	}

	return &models.CampaignResponse{
		ID:                 c.ID,
		Title:              c.Title,
		Description:        c.Description,
		ImageURL:           c.ImageURL,
		Owner:              c.Owner,
		TargetAmount:       c.TargetAmount.String(),
		TargetEth:          amount.Ether(c.TargetAmount),
		RaisedAmount:       c.RaisedAmount.String(),
		RaisedEth:          amount.Ether(c.RaisedAmount),
		CompletedAmount:    c.CompletedAmount.String(),
		CompletedEth:       amount.Ether(c.CompletedAmount),
		CreatedAt:          c.CreatedAt,
		Deadline:           c.Deadline,
		IsCompleted:        c.IsCompleted(now),
		TargetReached:      c.TargetReached,
		FundsWithdrawn:     c.FundsWithdrawn,
		DonationCount:      c.DonationCount,
		RemainingSeconds:   remaining,
		ProgressPercentage: progress(c),
	}
}

func ToCampaignResponses(list []*models.Campaign, now time.Time) []*models.CampaignResponse {
	result := make([]*models.CampaignResponse, 0, len(list))
	for _, c := range list {
		result = append(result, ToCampaignResponse(c, now))
	}
	return result
}

func ToDonationResponses(list []*models.Donation) []*models.DonationResponse {
	result := make([]*models.DonationResponse, 0, len(list))
	for _, d := range list {
		result = append(result, &models.DonationResponse{
			Seq:       d.Seq,
			Donor:     d.Donor,
			Amount:    d.Amount.String(),
			AmountEth: amount.Ether(d.Amount),
			Timestamp: d.Timestamp,
		})
	}
	return result
}

func ToContributionResponse(campaignID uint64, donor string, total decimal.Decimal) *models.ContributionResponse {
	return &models.ContributionResponse{
		CampaignID: campaignID,
		Donor:      donor,
		Amount:     total.String(),
		AmountEth:  amount.Ether(total),
	}
}

// progress uses the withdrawn snapshot once raised funds were released.
func progress(c *models.Campaign) float64 {
	if !c.TargetAmount.IsPositive() {
		return 0
	}
	raised := c.RaisedAmount
	if c.FundsWithdrawn {
		raised = c.CompletedAmount
	}
	return raised.Mul(hundred).Div(c.TargetAmount).Round(2).InexactFloat64()
}
