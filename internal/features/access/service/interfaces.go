package service

import (
	"context"

	"crowdfunding-ledger-backend/internal/features/access/models"
)

// AccessService is the access control registry: one admin, a set of
// campaign creators, and the single authorization check every mutating
// ledger operation goes through.
type AccessService interface {
	// Bootstrap installs the deployer as admin and campaign creator unless
	// an admin already exists. Extra creators are granted idempotently.
	Bootstrap(ctx context.Context, admin string, creators []string) error

	HasRole(ctx context.Context, role models.Role, address string) (bool, error)
	GetAdmin(ctx context.Context) (string, error)
	ListCreators(ctx context.Context) ([]models.RoleAssignment, error)

	GrantCampaignCreatorRole(ctx context.Context, caller, account string) error
	RevokeCampaignCreatorRole(ctx context.Context, caller, account string) error
	TransferAdmin(ctx context.Context, caller, newAdmin string) error

	// Authorize allows or denies op for actor on resource.
	Authorize(ctx context.Context, op models.Operation, actor string, resource models.Resource) error
}
