package middleware

import (
	"strings"

	"crowdfunding-ledger-backend/internal/common/errors"

	"github.com/gin-gonic/gin"
)

const addressKey = "address"

// TokenParser resolves a bearer token to the wallet address it was issued to.
type TokenParser interface {
	ParseToken(token string) (string, error)
}

// RequireWallet rejects requests without a valid bearer token and stores
// the authenticated address in the context.
func RequireWallet(tokens TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			sendErrorResponse(c, errors.NewUnauthorizedError("Bearer token required"))
			return
		}

		addr, err := tokens.ParseToken(strings.TrimSpace(token))
		if err != nil {
			appErr, isApp := errors.AsAppError(err)
			if !isApp {
				appErr = errors.Wrap(err, errors.ErrCodeUnauthorized, "Invalid token")
			}
			sendErrorResponse(c, appErr)
			return
		}

		c.Set(addressKey, addr)
		c.Next()
	}
}

// WalletAddress returns the address set by RequireWallet.
func WalletAddress(c *gin.Context) (string, bool) {
	v, exists := c.Get(addressKey)
	if !exists {
		return "", false
	}
	addr, ok := v.(string)
	return addr, ok && addr != ""
}

// SetWalletAddress is used by tests that bypass token parsing.
func SetWalletAddress(c *gin.Context, addr string) {
	c.Set(addressKey, addr)
}
