package service

import apperrors "crowdfunding-ledger-backend/internal/common/errors"

// Reject reasons. Clients match on these strings.
const (
	ReasonNotFound         = "Campaign does not exist"
	ReasonEnded            = "Campaign has ended"
	ReasonAlreadyCompleted = "Campaign is already completed"
	ReasonStillActive      = "Campaign is still active"
	ReasonAlreadyWithdrawn = "Funds already withdrawn"
	ReasonHasFunds         = "Cannot delete campaign with existing funds"
	ReasonBusy             = "Campaign is busy, retry later"
)

func errNotFound(id uint64) error {
	return apperrors.NewNotFoundError(ReasonNotFound).WithDetail("campaign_id", id)
}
