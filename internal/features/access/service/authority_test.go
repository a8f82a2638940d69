package service

import (
	"context"
	"testing"
	"time"

	"crowdfunding-ledger-backend/internal/common/cache"
	apperrors "crowdfunding-ledger-backend/internal/common/errors"
	"crowdfunding-ledger-backend/internal/common/lock"
	"crowdfunding-ledger-backend/internal/features/access/models"
	"crowdfunding-ledger-backend/internal/features/access/repository/cached"
	"crowdfunding-ledger-backend/internal/features/access/repository/memory"
	"crowdfunding-ledger-backend/internal/features/events"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// A lookup that read the role before a revoke can write it back into the
// cache after the revoke invalidated it. Authorization must not see that.
func TestRevokedCreatorDeniedDespiteStaleCache(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	roleCache := cache.NewCacheService(client, "cache:roles:", time.Minute)
	base := memory.NewRoleRepository()
	svc := NewAccessService(cached.NewCachedRoleRepository(base, roleCache), lock.NewKeyedMutex(), &events.Recorder{}, nil,
		WithAuthority(base))
	require.NoError(t, svc.Bootstrap(ctx, deployer, nil))

	require.NoError(t, svc.GrantCampaignCreatorRole(ctx, deployer, alice))
	ok, err := svc.HasRole(ctx, models.RoleCampaignCreator, alice)
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, svc.Authorize(ctx, models.OpCreateCampaign, alice, models.Resource{}))

	require.NoError(t, svc.RevokeCampaignCreatorRole(ctx, deployer, alice))
	// The racing lookup refills the entry it loaded before the revoke.
	require.NoError(t, roleCache.Set(ctx, "creator:"+alice, true))

	err = svc.Authorize(ctx, models.OpCreateCampaign, alice, models.Resource{})
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeUnauthorized))
	assert.Equal(t, ReasonNotCreator, mustAppError(t, err).Message)
}

func TestCachedRepositoryInvalidatesOnRevoke(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	base := memory.NewRoleRepository()
	repo := cached.NewCachedRoleRepository(base, cache.NewCacheService(client, "cache:roles:", time.Minute))
	svc := NewAccessService(repo, lock.NewKeyedMutex(), &events.Recorder{}, nil, WithAuthority(base))
	require.NoError(t, svc.Bootstrap(ctx, deployer, []string{alice}))

	ok, err := svc.HasRole(ctx, models.RoleCampaignCreator, alice)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, svc.RevokeCampaignCreatorRole(ctx, deployer, alice))
	ok, err = svc.HasRole(ctx, models.RoleCampaignCreator, alice)
	require.NoError(t, err)
	assert.False(t, ok)
}
