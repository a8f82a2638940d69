package validation

import (
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"crowdfunding-ledger-backend/internal/common/amount"
	apperrors "crowdfunding-ledger-backend/internal/common/errors"

	"github.com/shopspring/decimal"
)

const (
	MaxTitleLength       = 200
	MaxDescriptionLength = 5000
	MaxImageURLLength    = 2048

	MinDurationDays = 1
	MaxDurationDays = 365
)

// Reject reasons. Clients match on these strings, keep them verbatim.
const (
	ReasonTitleEmpty       = "Title cannot be empty"
	ReasonImageURLEmpty    = "Image URL cannot be empty"
	ReasonTargetNotPos     = "Target amount must be greater than 0"
	ReasonInvalidDuration  = "Invalid duration"
	ReasonDonationNotPos   = "Donation amount must be greater than 0"
	ReasonTargetTooLarge   = "Target amount is too large"
	ReasonDonationTooLarge = "Donation amount is too large"
)

func ValidateTitle(title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return apperrors.NewValidationError("title", ReasonTitleEmpty)
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return apperrors.NewValidationError("title", fmt.Sprintf("Title cannot exceed %d characters", MaxTitleLength))
	}
	return nil
}

// ValidateDescription only bounds the length, an empty description is allowed.
func ValidateDescription(description string) error {
	if utf8.RuneCountInString(description) > MaxDescriptionLength {
		return apperrors.NewValidationError("description", fmt.Sprintf("Description cannot exceed %d characters", MaxDescriptionLength))
	}
	return nil
}

func ValidateImageURL(imageURL string) error {
	imageURL = strings.TrimSpace(imageURL)
	if imageURL == "" {
		return apperrors.NewValidationError("image_url", ReasonImageURLEmpty)
	}
	if len(imageURL) > MaxImageURLLength {
		return apperrors.NewValidationError("image_url", fmt.Sprintf("Image URL cannot exceed %d characters", MaxImageURLLength))
	}
	u, err := url.Parse(imageURL)
	if err != nil || u.Scheme == "" {
		return apperrors.NewValidationError("image_url", "Image URL is not a valid URL")
	}
	return nil
}

func ValidateTargetAmount(target decimal.Decimal) error {
	if !target.IsPositive() {
		return apperrors.NewValidationError("target_amount", ReasonTargetNotPos)
	}
	if !target.IsInteger() {
		return apperrors.NewValidationError("target_amount", "Target amount must be a whole number of wei")
	}
	if target.GreaterThan(amount.MaxWei) {
		return apperrors.NewValidationError("target_amount", ReasonTargetTooLarge)
	}
	return nil
}

func ValidateDurationDays(days int64) error {
	if days < MinDurationDays || days > MaxDurationDays {
		return apperrors.NewValidationError("duration_days", ReasonInvalidDuration)
	}
	return nil
}

func ValidateDonationAmount(value decimal.Decimal) error {
	if !value.IsPositive() {
		return apperrors.NewValidationError("amount", ReasonDonationNotPos)
	}
	if !value.IsInteger() {
		return apperrors.NewValidationError("amount", "Donation amount must be a whole number of wei")
	}
	if value.GreaterThan(amount.MaxWei) {
		return apperrors.NewValidationError("amount", ReasonDonationTooLarge)
	}
	return nil
}
