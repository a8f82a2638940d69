package repository

import (
	"context"
	"time"

	"crowdfunding-ledger-backend/internal/features/access/models"
)

// RoleRepository stores the admin holder and the campaign creator set.
// Addresses are passed in checksum form.
type RoleRepository interface {
	// GetAdmin returns "" when no admin has been set yet.
	GetAdmin(ctx context.Context) (string, error)
	SetAdmin(ctx context.Context, address, grantedBy string, at time.Time) error

	IsCreator(ctx context.Context, address string) (bool, error)
	// AddCreator reports false when the address already held the role.
	AddCreator(ctx context.Context, address, grantedBy string, at time.Time) (bool, error)
	// RemoveCreator reports false when the address did not hold the role.
	RemoveCreator(ctx context.Context, address string) (bool, error)
	ListCreators(ctx context.Context) ([]models.RoleAssignment, error)
}
