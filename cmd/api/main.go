package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/iamasit07/soloq/internal/config"
	"github.com/iamasit07/soloq/internal/domain"
	"github.com/iamasit07/soloq/internal/repository/memory"
	"github.com/iamasit07/soloq/internal/repository/postgres"
	"github.com/iamasit07/soloq/internal/repository/redis"
	"github.com/iamasit07/soloq/internal/service/ranking"
	"github.com/iamasit07/soloq/internal/service/ratelimit"
	"github.com/iamasit07/soloq/internal/service/reconcile"
	"github.com/iamasit07/soloq/internal/service/settlement"
	transportHttp "github.com/iamasit07/soloq/internal/transport/http"
	"github.com/iamasit07/soloq/internal/transport/http/middleware"
	"github.com/iamasit07/soloq/pkg/auth"
	"github.com/iamasit07/soloq/pkg/logger"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// playerStore is what every service needs from the player table.
type playerStore interface {
	settlement.PlayerStore
	Leaderboard(ctx context.Context, specialty string, limit int) ([]domain.LeaderboardEntry, error)
	List(ctx context.Context, offset, limit int) ([]*domain.PlayerRating, error)
	SetSpecialtyRating(ctx context.Context, id, specialty string, rating int) error
}

// auditStore is what every service needs from the audit log.
type auditStore interface {
	settlement.AuditStore
	ranking.HistoryReader
	reconcile.LedgerReader
}

func main() {
	if err := godotenv.Load(); err != nil {
		_ = godotenv.Load("../.env")
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	err = run(cfg, log)
	if err != nil {
		log.Error("server failed", zap.Error(err))
	}
	_ = log.Sync()
	if err != nil {
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. Stores
	players, audit, closeStore, err := openStores(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	// 2. Redis (optional)
	redisClient := redis.Connect(ctx, redis.Options{
		Addr:     cfg.RedisURL,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}, log)
	if redisClient != nil {
		defer func() { _ = redisClient.Close() }()
	}

	var (
		limiter ratelimit.Limiter = ratelimit.NewMemoryLimiter()
		cache   ranking.CacheRepository
	)
	if redisClient != nil {
		limiter = ratelimit.NewFallback(ratelimit.NewRedisLimiter(redisClient), limiter, log)
		cache = redis.NewRedisCache(redisClient)
	}

	// 3. Services
	rankingService := ranking.NewService(players, audit, cache, ranking.Options{
		DefaultLimit: cfg.LeaderboardDefaultLimit,
		MaxLimit:     cfg.LeaderboardMaxLimit,
		CacheTTL:     cfg.LeaderboardCacheTTL,
	}, log)
	settlementService := settlement.NewService(players, audit, rankingService,
		settlement.Options{UpdateGlobalRating: cfg.UpdateGlobalRating}, log)
	verifier := auth.NewVerifier(cfg.JWTSecret, auth.DefaultTokenTTL)

	// 4. Background workers
	worker := reconcile.NewWorker(audit, players, cfg.ReconcileInterval, cfg.ReconcileRepair, log)
	go worker.Start(ctx)

	// 5. Router
	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := transportHttp.NewRouter(transportHttp.RouterDeps{
		Settlement:     settlementService,
		Ranking:        rankingService,
		Verifier:       verifier,
		Limiter:        limiter,
		GamesLimit:     middleware.RateLimit{Route: "games", Limit: cfg.RateLimitGames, Window: cfg.RateLimitWindow},
		ReadsLimit:     middleware.RateLimit{Route: "reads", Limit: cfg.RateLimitReads, Window: cfg.RateLimitWindow},
		AllowedOrigins: cfg.AllowedOrigins,
		Log:            log,
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting", zap.String("addr", cfg.Addr), zap.String("store", cfg.StoreDriver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	log.Info("server is shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info("server exited gracefully")
	return nil
}

func openStores(ctx context.Context, cfg *config.Config, log *zap.Logger) (playerStore, auditStore, func(), error) {
	if cfg.StoreDriver == config.StoreDriverMemory {
		log.Warn("using the in-memory store, data is lost on restart")
		return memory.NewPlayerStore(), memory.NewAuditStore(), func() {}, nil
	}

	db, err := postgres.Open(ctx, cfg.DatabaseURL, postgres.PoolOptions{
		MaxOpenConns:       cfg.DBMaxOpenConns,
		MaxIdleConns:       cfg.DBMaxIdleConns,
		ConnMaxLifetimeMin: cfg.DBConnMaxLifetimeMin,
	})
	if err != nil {
		return nil, nil, nil, err
	}

	log.Info("running database migrations")
	if err := postgres.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, nil, nil, fmt.Errorf("migration failed: %w", err)
	}
	log.Info("database migration completed")

	return postgres.NewPlayerRepo(db), postgres.NewAuditRepo(db), closer(db, log), nil
}

func closer(db *sql.DB, log *zap.Logger) func() {
	return func() {
		if err := db.Close(); err != nil {
			log.Warn("closing database", zap.Error(err))
		}
	}
}
