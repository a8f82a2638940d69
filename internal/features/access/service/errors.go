package service

import apperrors "crowdfunding-ledger-backend/internal/common/errors"

const (
	ReasonNotCreator     = "Caller is not a campaign creator"
	ReasonNotAdmin       = "Caller is not an admin"
	ReasonNotOwner       = "Not campaign owner"
	ReasonDeleteNotOwner = "Only the owner or admin can delete this campaign"
	ReasonInvalidAddress = "Invalid address"
)

func errInvalidAddress(field string) error {
	return apperrors.NewValidationError(field, ReasonInvalidAddress)
}
