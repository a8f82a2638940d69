package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "crowdfunding-ledger-backend/docs"
	"crowdfunding-ledger-backend/internal/common/cache"
	"crowdfunding-ledger-backend/internal/common/config"
	"crowdfunding-ledger-backend/internal/common/lock"
	"crowdfunding-ledger-backend/internal/common/logger"
	"crowdfunding-ledger-backend/internal/common/metrics"
	"crowdfunding-ledger-backend/internal/common/middleware"
	accesshttp "crowdfunding-ledger-backend/internal/features/access/delivery/http"
	accessmodels "crowdfunding-ledger-backend/internal/features/access/models"
	accessrepo "crowdfunding-ledger-backend/internal/features/access/repository"
	accesscached "crowdfunding-ledger-backend/internal/features/access/repository/cached"
	accessmemory "crowdfunding-ledger-backend/internal/features/access/repository/memory"
	accesspostgres "crowdfunding-ledger-backend/internal/features/access/repository/postgres"
	accessredis "crowdfunding-ledger-backend/internal/features/access/repository/redis"
	accessservice "crowdfunding-ledger-backend/internal/features/access/service"
	campaignhttp "crowdfunding-ledger-backend/internal/features/campaign/delivery/http"
	campaignrepo "crowdfunding-ledger-backend/internal/features/campaign/repository"
	campaignmemory "crowdfunding-ledger-backend/internal/features/campaign/repository/memory"
	campaignpostgres "crowdfunding-ledger-backend/internal/features/campaign/repository/postgres"
	campaignredis "crowdfunding-ledger-backend/internal/features/campaign/repository/redis"
	campaignservice "crowdfunding-ledger-backend/internal/features/campaign/service"
	custodyhttp "crowdfunding-ledger-backend/internal/features/custody/delivery/http"
	custodymodels "crowdfunding-ledger-backend/internal/features/custody/models"
	custodyrepo "crowdfunding-ledger-backend/internal/features/custody/repository"
	custodymemory "crowdfunding-ledger-backend/internal/features/custody/repository/memory"
	custodypostgres "crowdfunding-ledger-backend/internal/features/custody/repository/postgres"
	custodyredis "crowdfunding-ledger-backend/internal/features/custody/repository/redis"
	custodyservice "crowdfunding-ledger-backend/internal/features/custody/service"
	"crowdfunding-ledger-backend/internal/features/events"
	eventshttp "crowdfunding-ledger-backend/internal/features/events/delivery/http"
	authhttp "crowdfunding-ledger-backend/internal/features/walletauth/delivery/http"
	authrepo "crowdfunding-ledger-backend/internal/features/walletauth/repository"
	authmemory "crowdfunding-ledger-backend/internal/features/walletauth/repository/memory"
	authredis "crowdfunding-ledger-backend/internal/features/walletauth/repository/redis"
	authservice "crowdfunding-ledger-backend/internal/features/walletauth/service"
	"crowdfunding-ledger-backend/internal/platform/postgres"
	"crowdfunding-ledger-backend/internal/platform/redis"
)

// @title           Crowdfunding Ledger API
// @version         1.0
// @description     Campaign ledger with escrowed donations and role based access control.

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey WalletToken
// @in header
// @name Authorization
// @description Bearer token from /auth/verify, sent as "Bearer <token>"

// @tag.name auth
// @tag.description Wallet sign-in with a personal_sign challenge

// @tag.name roles
// @tag.description Admin and campaign creator roles

// @tag.name campaigns
// @tag.description Campaigns, donations and escrow release

// @tag.name events
// @tag.description Live ledger events

// @tag.name custody
// @tag.description Released escrow balances

const serviceName = "crowdfunding-ledger-backend"

type healthChecker interface {
	HealthCheck(ctx context.Context) error
}

// stores groups the repositories of one storage driver.
type stores struct {
	roles accessrepo.RoleRepository
	// roleAuthority is set when roles is cached; authorization reads it.
	roleAuthority accessrepo.RoleRepository
	campaigns     campaignrepo.CampaignRepository
	payouts       custodyrepo.PayoutRepository
	nonces        authrepo.NonceRepository
	locker        lock.Locker
	redis         *redis.Client
	checks        map[string]healthChecker
	close         func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(serviceName, cfg.Debug, cfg.LogFile)
	logger.Info().
		Str("storage", cfg.StorageDriver).
		Str("payout", cfg.Payout.Driver).
		Bool("debug", cfg.Debug).
		Msg("Starting crowdfunding ledger")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := openStores(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to open storage")
	}
	defer st.close()
	st.checks["campaigns"] = st.campaigns

	m := metrics.New()

	// Events: structured log always, websocket fan-out locally or through
	// the Redis stream when instances share storage.
	hub := events.NewHub()
	go hub.Run(ctx)
	sinks := []events.Sink{events.LogSink{}}
	if st.redis != nil {
		sinks = append(sinks, events.NewStreamSink(st.redis.Client, cfg.Events.Stream, cfg.Events.MaxLen))
		go events.NewStreamWorker(st.redis.Client, cfg.Events.Stream, hub).Start(ctx)
	} else {
		sinks = append(sinks, hub)
	}
	publisher := events.NewDispatcher(sinks...)

	transferer, err := newTransferer(ctx, cfg, st.payouts)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize payout driver")
	}

	accessSvc := accessservice.NewAccessService(st.roles, st.locker, publisher, m,
		accessservice.WithAuthority(st.roleAuthority))
	if err := accessSvc.Bootstrap(ctx, cfg.Ledger.AdminAddress, cfg.Ledger.Creators); err != nil {
		logger.Fatal().Err(err).Msg("Failed to bootstrap access registry")
	}
	campaignSvc := campaignservice.NewCampaignService(
		st.campaigns, accessSvc, transferer, st.locker, publisher,
		campaignservice.WithLockTimeout(cfg.LockTimeout),
		campaignservice.WithMetrics(m),
	)
	custodySvc := custodyservice.NewCustodyService(st.payouts)
	authSvc := authservice.NewService(st.nonces, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, cfg.Auth.NonceTTL)

	logger.Info().Msg("Services initialized")

	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.Logger())
	router.Use(middleware.Metrics(m))
	router.Use(middleware.Errors())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{cfg.Server.Origin}
	corsConfig.AllowMethods = []string{"GET", "POST", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Content-Type", "Authorization", "Accept", "X-Request-ID"}
	router.Use(cors.New(corsConfig))

	requireWallet := middleware.RequireWallet(authSvc)
	v1 := router.Group("/api/v1")
	authhttp.NewAuthHandler(authSvc).RegisterRoutes(v1)
	accesshttp.NewAccessHandler(accessSvc).RegisterRoutes(v1, requireWallet)
	campaignhttp.NewCampaignHandler(campaignSvc).RegisterRoutes(v1, requireWallet)
	custodyhttp.NewCustodyHandler(custodySvc).RegisterRoutes(v1)
	eventshttp.NewHandler(hub, cfg.Server.Origin).RegisterRoutes(v1)

	setupProbes(router, m, st.checks)
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Int("port", cfg.Server.Port).Msg("Starting HTTP server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Server forced to shutdown")
	}
	logger.Info().Msg("Server exited")
}

func openStores(ctx context.Context, cfg *config.Config) (*stores, error) {
	switch cfg.StorageDriver {
	case config.StorageRedis:
		client, err := redis.Open(ctx, cfg.RedisAddr(), cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		return &stores{
			roles:     accessredis.NewRedisRoleRepository(client.Client),
			campaigns: campaignredis.NewRedisCampaignRepository(client.Client),
			payouts:   custodyredis.NewRedisPayoutRepository(client.Client),
			nonces:    authredis.NewRedisNonceRepository(client.Client),
			// The lease outlives the acquire timeout so a waiting writer
			// cannot steal a lock still in use.
			locker: redis.NewLocker(client, 3*cfg.LockTimeout),
			redis:  client,
			checks: map[string]healthChecker{"redis": client},
			close:  func() { _ = client.Close() },
		}, nil

	case config.StoragePostgres:
		models := append([]interface{}{&accessmodels.RoleAssignment{}, &custodymodels.Payout{}}, campaignpostgres.Models...)
		pg, err := postgres.NewClient(cfg, models...)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		st := &stores{
			roles:     accesspostgres.NewPostgresRoleRepository(pg.GetDB()),
			campaigns: campaignpostgres.NewPostgresCampaignRepository(pg.GetDB()),
			payouts:   custodypostgres.NewPostgresPayoutRepository(pg.GetDB()),
			nonces:    authmemory.NewNonceRepository(),
			locker:    lock.NewKeyedMutex(),
			checks:    map[string]healthChecker{"postgres": pg},
			close:     func() { _ = pg.Close() },
		}
		if !cfg.Cache.Enabled {
			return st, nil
		}

		client, err := redis.Open(ctx, cfg.RedisAddr(), cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			_ = pg.Close()
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		roleCache := cache.NewCacheService(client.Client, "cache:roles:", cfg.Cache.TTL)
		st.roleAuthority = st.roles
		st.roles = accesscached.NewCachedRoleRepository(st.roles, roleCache)
		st.nonces = authredis.NewRedisNonceRepository(client.Client)
		st.locker = redis.NewLocker(client, 3*cfg.LockTimeout)
		st.redis = client
		st.checks["redis"] = client
		st.close = func() {
			_ = client.Close()
			_ = pg.Close()
		}
		return st, nil

	default:
		return &stores{
			roles:     accessmemory.NewRoleRepository(),
			campaigns: campaignmemory.NewCampaignRepository(),
			payouts:   custodymemory.NewPayoutRepository(),
			nonces:    authmemory.NewNonceRepository(),
			locker:    lock.NewKeyedMutex(),
			checks:    map[string]healthChecker{},
			close:     func() {},
		}, nil
	}
}

func newTransferer(ctx context.Context, cfg *config.Config, payouts custodyrepo.PayoutRepository) (custodyservice.Transferer, error) {
	if cfg.Payout.Driver != config.PayoutEthereum {
		return custodyservice.NewLedgerTransferer(payouts), nil
	}
	client, err := ethclient.DialContext(ctx, cfg.Payout.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("dial ethereum rpc: %w", err)
	}
	t, err := custodyservice.NewEthTransferer(client, cfg.Payout.PrivateKey, cfg.Payout.ChainID, payouts)
	if err != nil {
		return nil, err
	}
	logger.Info().Str("escrow", t.From()).Int64("chain_id", cfg.Payout.ChainID).Msg("Ethereum payouts enabled")
	return t, nil
}

func setupProbes(router *gin.Engine, m *metrics.Metrics, checks map[string]healthChecker) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().UTC(),
			"service":   serviceName,
		})
	})

	router.GET("/live", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	router.GET("/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		for name, check := range checks {
			if err := check.HealthCheck(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{
					"status":  "unready",
					"error":   name + " unavailable",
					"details": err.Error(),
				})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{
			"status":    "ready",
			"timestamp": time.Now().UTC(),
			"service":   serviceName,
		})
	})

	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(m.Registry(), promhttp.HandlerOpts{})))
}
