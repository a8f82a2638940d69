package service

import (
	"context"
	"testing"
	"time"

	"crowdfunding-ledger-backend/internal/common/address"
	apperrors "crowdfunding-ledger-backend/internal/common/errors"
	"crowdfunding-ledger-backend/internal/common/lock"
	"crowdfunding-ledger-backend/internal/features/access/models"
	"crowdfunding-ledger-backend/internal/features/access/repository/memory"
	"crowdfunding-ledger-backend/internal/features/events"
	eventmodels "crowdfunding-ledger-backend/internal/features/events/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	deployer = address.MustNormalize("0xf39fd6e51aad88f6f4ce6ab8827279cfffb92266")
	alice    = address.MustNormalize("0x70997970c51812dc3a010c7d01b50e0d17dc79c8")
	bob      = address.MustNormalize("0x3c44cdddb6a900fa2b585dd299e03d12fa4293bc")
)

func newTestService(t *testing.T) (AccessService, *events.Recorder) {
	t.Helper()
	rec := &events.Recorder{}
	fixed := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	svc := NewAccessService(memory.NewRoleRepository(), lock.NewKeyedMutex(), rec, nil,
		WithClock(func() time.Time { return fixed }))
	require.NoError(t, svc.Bootstrap(context.Background(), deployer, nil))
	return svc, rec
}

func TestBootstrapGrantsDeployerBothRoles(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	isAdmin, err := svc.HasRole(ctx, models.RoleAdmin, deployer)
	require.NoError(t, err)
	assert.True(t, isAdmin)

	isCreator, err := svc.HasRole(ctx, models.RoleCampaignCreator, deployer)
	require.NoError(t, err)
	assert.True(t, isCreator)

	other, err := svc.HasRole(ctx, models.RoleCampaignCreator, alice)
	require.NoError(t, err)
	assert.False(t, other)
}

func TestBootstrapKeepsExistingAdmin(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Bootstrap(ctx, alice, []string{bob}))

	admin, err := svc.GetAdmin(ctx)
	require.NoError(t, err)
	assert.Equal(t, deployer, admin)

	isCreator, err := svc.HasRole(ctx, models.RoleCampaignCreator, bob)
	require.NoError(t, err)
	assert.True(t, isCreator)
}

func TestHasRoleAcceptsAnyCase(t *testing.T) {
	svc, _ := newTestService(t)
	ok, err := svc.HasRole(context.Background(), models.RoleAdmin, "0xF39FD6E51AAD88F6F4CE6AB8827279CFFFB92266")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestGrantAndRevokeCreatorRole(t *testing.T) {
	svc, rec := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.GrantCampaignCreatorRole(ctx, deployer, alice))
	ok, err := svc.HasRole(ctx, models.RoleCampaignCreator, alice)
	require.NoError(t, err)
	assert.True(t, ok)

	granted := rec.OfType(eventmodels.RoleGranted)
	require.Len(t, granted, 1)
	assert.Equal(t, alice, granted[0].Account)
	assert.Equal(t, deployer, granted[0].Actor)

	require.NoError(t, svc.RevokeCampaignCreatorRole(ctx, deployer, alice))
	ok, err = svc.HasRole(ctx, models.RoleCampaignCreator, alice)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Len(t, rec.OfType(eventmodels.RoleRevoked), 1)
}

func TestGrantAndRevokeAreIdempotent(t *testing.T) {
	svc, rec := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.GrantCampaignCreatorRole(ctx, deployer, alice))
	require.NoError(t, svc.GrantCampaignCreatorRole(ctx, deployer, alice))
	assert.Len(t, rec.OfType(eventmodels.RoleGranted), 1)

	require.NoError(t, svc.RevokeCampaignCreatorRole(ctx, deployer, bob))
	assert.Empty(t, rec.OfType(eventmodels.RoleRevoked))
}

func TestNonAdminCannotManageRoles(t *testing.T) {
	svc, rec := newTestService(t)
	ctx := context.Background()

	err := svc.GrantCampaignCreatorRole(ctx, alice, bob)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeUnauthorized))
	assert.Equal(t, ReasonNotAdmin, mustAppError(t, err).Message)

	err = svc.RevokeCampaignCreatorRole(ctx, alice, deployer)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeUnauthorized))

	err = svc.TransferAdmin(ctx, alice, alice)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeUnauthorized))

	assert.Empty(t, rec.Events())
}

func TestGrantRejectsInvalidAddress(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	for _, bad := range []string{"", "0x123", "not-an-address", "0x0000000000000000000000000000000000000000"} {
		err := svc.GrantCampaignCreatorRole(ctx, deployer, bad)
		assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeValidation), bad)
	}
}

func TestTransferAdmin(t *testing.T) {
	svc, rec := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.TransferAdmin(ctx, deployer, alice))

	admin, err := svc.GetAdmin(ctx)
	require.NoError(t, err)
	assert.Equal(t, alice, admin)

	wasAdmin, err := svc.HasRole(ctx, models.RoleAdmin, deployer)
	require.NoError(t, err)
	assert.False(t, wasAdmin)

	// The old admin keeps the creator role.
	stillCreator, err := svc.HasRole(ctx, models.RoleCampaignCreator, deployer)
	require.NoError(t, err)
	assert.True(t, stillCreator)

	err = svc.GrantCampaignCreatorRole(ctx, deployer, bob)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeUnauthorized))
	require.NoError(t, svc.GrantCampaignCreatorRole(ctx, alice, bob))

	assert.Len(t, rec.OfType(eventmodels.AdminTransferred), 1)
}

func TestAuthorize(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	owned := models.Resource{Owner: alice}

	tests := []struct {
		name    string
		op      models.Operation
		actor   string
		res     models.Resource
		code    apperrors.ErrorCode
		message string
	}{
		{"creator creates", models.OpCreateCampaign, deployer, models.Resource{}, "", ""},
		{"stranger creates", models.OpCreateCampaign, bob, models.Resource{}, apperrors.ErrCodeUnauthorized, ReasonNotCreator},
		{"anyone donates", models.OpDonate, bob, owned, "", ""},
		{"owner withdraws", models.OpWithdrawFunds, alice, owned, "", ""},
		{"admin cannot withdraw", models.OpWithdrawFunds, deployer, owned, apperrors.ErrCodeForbidden, ReasonNotOwner},
		{"owner deletes", models.OpDeleteCampaign, alice, owned, "", ""},
		{"admin deletes", models.OpDeleteCampaign, deployer, owned, "", ""},
		{"stranger deletes", models.OpDeleteCampaign, bob, owned, apperrors.ErrCodeForbidden, ReasonDeleteNotOwner},
		{"admin grants", models.OpGrantRole, deployer, models.Resource{}, "", ""},
		{"stranger revokes", models.OpRevokeRole, bob, models.Resource{}, apperrors.ErrCodeUnauthorized, ReasonNotAdmin},
		{"garbage actor", models.OpCreateCampaign, "nope", models.Resource{}, apperrors.ErrCodeUnauthorized, ReasonNotCreator},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.Authorize(ctx, tt.op, tt.actor, tt.res)
			if tt.code == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			appErr := mustAppError(t, err)
			assert.Equal(t, tt.code, appErr.Code)
			assert.Equal(t, tt.message, appErr.Message)
		})
	}
}

func mustAppError(t *testing.T, err error) *apperrors.AppError {
	t.Helper()
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok, "expected AppError, got %v", err)
	return appErr
}
