package repository_test

import (
	"context"
	"testing"
	"time"

	"crowdfunding-ledger-backend/internal/common/address"
	"crowdfunding-ledger-backend/internal/common/cache"
	"crowdfunding-ledger-backend/internal/features/access/models"
	"crowdfunding-ledger-backend/internal/features/access/repository"
	"crowdfunding-ledger-backend/internal/features/access/repository/cached"
	"crowdfunding-ledger-backend/internal/features/access/repository/memory"
	"crowdfunding-ledger-backend/internal/features/access/repository/postgres"
	redisrepo "crowdfunding-ledger-backend/internal/features/access/repository/redis"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	admin = address.MustNormalize("0xf39fd6e51aad88f6f4ce6ab8827279cfffb92266")
	carol = address.MustNormalize("0x70997970c51812dc3a010c7d01b50e0d17dc79c8")
	dave  = address.MustNormalize("0x3c44cdddb6a900fa2b585dd299e03d12fa4293bc")
)

func backends(t *testing.T) map[string]repository.RoleRepository {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// Every new connection to :memory: opens an empty database.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(&models.RoleAssignment{}))

	return map[string]repository.RoleRepository{
		"memory":   memory.NewRoleRepository(),
		"redis":    redisrepo.NewRedisRoleRepository(client),
		"postgres": postgres.NewPostgresRoleRepository(db),
		"cached": cached.NewCachedRoleRepository(
			memory.NewRoleRepository(),
			cache.NewCacheService(client, "rolecache:", time.Minute),
		),
	}
}

func TestRoleRepositoryContract(t *testing.T) {
	for name, repo := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			t0 := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

			got, err := repo.GetAdmin(ctx)
			require.NoError(t, err)
			assert.Empty(t, got)

			require.NoError(t, repo.SetAdmin(ctx, admin, admin, t0))
			got, err = repo.GetAdmin(ctx)
			require.NoError(t, err)
			assert.Equal(t, admin, got)

			require.NoError(t, repo.SetAdmin(ctx, carol, admin, t0.Add(time.Hour)))
			got, err = repo.GetAdmin(ctx)
			require.NoError(t, err)
			assert.Equal(t, carol, got)

			added, err := repo.AddCreator(ctx, dave, admin, t0.Add(2*time.Minute))
			require.NoError(t, err)
			assert.True(t, added)
			added, err = repo.AddCreator(ctx, carol, admin, t0.Add(time.Minute))
			require.NoError(t, err)
			assert.True(t, added)
			added, err = repo.AddCreator(ctx, carol, admin, t0.Add(3*time.Minute))
			require.NoError(t, err)
			assert.False(t, added)

			isCreator, err := repo.IsCreator(ctx, carol)
			require.NoError(t, err)
			assert.True(t, isCreator)

			list, err := repo.ListCreators(ctx)
			require.NoError(t, err)
			require.Len(t, list, 2)
			assert.Equal(t, carol, list[0].Address)
			assert.Equal(t, dave, list[1].Address)
			assert.Equal(t, models.RoleCampaignCreator, list[0].Role)

			removed, err := repo.RemoveCreator(ctx, carol)
			require.NoError(t, err)
			assert.True(t, removed)
			removed, err = repo.RemoveCreator(ctx, carol)
			require.NoError(t, err)
			assert.False(t, removed)

			isCreator, err = repo.IsCreator(ctx, carol)
			require.NoError(t, err)
			assert.False(t, isCreator)
		})
	}
}
