package http

import (
	"strconv"
	"strings"

	"crowdfunding-ledger-backend/internal/common/amount"
	"crowdfunding-ledger-backend/internal/common/errors"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// campaignID parses the :id path parameter, reporting a bad request when
// it is not an unsigned integer.
func campaignID(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		_ = c.Error(errors.NewBadRequestError("Invalid campaign id"))
		return 0, false
	}
	return id, true
}

// parseAmount reads an amount given either in wei or in ether.
func parseAmount(field, wei, eth string) (decimal.Decimal, error) {
	wei, eth = strings.TrimSpace(wei), strings.TrimSpace(eth)
	switch {
	case wei != "" && eth != "":
		return decimal.Zero, errors.NewValidationError(field, "Give the amount in wei or in ether, not both")
	case wei != "":
		d, err := amount.ParseWei(wei)
		if err != nil {
			return decimal.Zero, errors.NewValidationError(field, "Invalid amount")
		}
		return d, nil
	case eth != "":
		d, err := amount.FromEther(eth)
		if err != nil {
			return decimal.Zero, errors.NewValidationError(field, "Invalid amount")
		}
		return d, nil
	default:
		return decimal.Zero, nil
	}
}
