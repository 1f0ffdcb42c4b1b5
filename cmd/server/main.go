// Command server runs the WaveCard Guard service: rate limiting, security
// event classification, notification dispatch, and feature flags for the
// microsite platform.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	appservice "github.com/wavecard/guard/internal/application/service"
	"github.com/wavecard/guard/internal/config"
	"github.com/wavecard/guard/internal/domain/service"
	"github.com/wavecard/guard/internal/infrastructure/audit"
	"github.com/wavecard/guard/internal/infrastructure/consumers"
	"github.com/wavecard/guard/internal/infrastructure/monitoring"
	"github.com/wavecard/guard/internal/infrastructure/notification"
	"github.com/wavecard/guard/internal/infrastructure/persistence/postgres"
	redisinfra "github.com/wavecard/guard/internal/infrastructure/persistence/redis"
	"github.com/wavecard/guard/internal/infrastructure/ratelimit"
	"github.com/wavecard/guard/internal/infrastructure/secrets"
	"github.com/wavecard/guard/internal/interfaces/http/handlers"
	"github.com/wavecard/guard/internal/interfaces/http/router"
	"github.com/wavecard/guard/pkg/constants"
	"github.com/wavecard/guard/pkg/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "server exited with error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.New(constants.LogLevel(cfg.Log.Level))
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tracing, err := monitoring.NewTracingManager(&cfg.Tracing, log)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		tracing.Shutdown(shutdownCtx)
	}()

	metrics := monitoring.NewMetrics()

	db, err := postgres.NewConnection(&cfg.Database, log)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}

	rdb, err := redisinfra.NewConnection(&cfg.Redis, log)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	defer rdb.Close()

	publisher, err := audit.NewKafkaPublisher(cfg.Kafka, log)
	if err != nil {
		return fmt.Errorf("init kafka publisher: %w", err)
	}
	defer publisher.Close()

	// Repositories
	ruleRepo := postgres.NewRateLimitRuleRepo(db.DB)
	attemptRepo := postgres.NewAttemptRepo(db.Pool)
	eventRepo := postgres.NewSecurityEventRepo(db.DB)
	notifRepo := postgres.NewNotificationRepo(db.DB)
	flagRepo := postgres.NewFeatureFlagRepo(db.DB)

	// Shared stores
	counter, err := ratelimit.NewRedisWindowCounter(rdb, cfg.RateLimit.KeyPrefix, log)
	if err != nil {
		return fmt.Errorf("init window counter: %w", err)
	}
	blockStore := redisinfra.NewBlockStore(rdb, log)

	var fallback *ratelimit.TokenBucketPool
	if cfg.RateLimit.LocalFallback {
		fallback = ratelimit.NewTokenBucketPool()
	}

	// Provider credentials
	creds, err := resolveCredentials(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("resolve provider credentials: %w", err)
	}

	senders := []service.Sender{
		notification.NewEmailSender(cfg.Notifications.Email.Endpoint, creds.EmailAPIKey, cfg.Notifications.Email.FromAddress, log),
		notification.NewSMSSender(cfg.Notifications.SMS.Endpoint, creds.SMSAccountSID, creds.SMSAuthToken, cfg.Notifications.SMS.FromNumber, log),
		notification.NewPushSender(log),
		notification.NewInAppSender(notifRepo, log),
	}

	// Application services
	rateLimits := appservice.NewRateLimitAppService(
		ruleRepo, attemptRepo, eventRepo, counter, blockStore, publisher, fallback, metrics, log)
	security := appservice.NewSecurityAppService(eventRepo, blockStore, publisher, metrics, log)
	notifications := appservice.NewNotificationAppService(notifRepo, senders, metrics, log)
	flags := appservice.NewFeatureFlagAppService(flagRepo, metrics, log)

	// HTTP surface
	healthHandler := handlers.NewHealthHandler(db, rdb)
	guardHandler := handlers.NewGuardHandler(rateLimits, security, notifications, flags)
	adminHandler := handlers.NewAdminHandler(ruleRepo, rateLimits, security, flags)
	httpRouter := router.NewRouter(cfg, log, metrics, rateLimits, healthHandler, guardHandler, adminHandler)

	worker := appservice.NewQueueWorker(notifications,
		time.Duration(cfg.Notifications.PollInterval)*time.Second, log)
	triggerConsumer := consumers.NewTriggerConsumer(cfg.Kafka, notifications, log)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return httpRouter.Start()
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(),
			time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
		defer cancel()
		return httpRouter.Stop(shutdownCtx)
	})

	g.Go(func() error {
		err := worker.Run(gctx)
		if err == context.Canceled {
			return nil
		}
		return err
	})

	g.Go(func() error {
		triggerConsumer.Start(gctx)
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		triggerConsumer.Stop()
		return nil
	})

	g.Go(func() error {
		rateLimits.RunAttemptGC(gctx,
			time.Duration(cfg.RateLimit.GCInterval)*time.Minute,
			time.Duration(cfg.RateLimit.AttemptRetention)*time.Hour)
		return nil
	})

	log.Info(ctx, "Guard service started",
		logger.Int("port", cfg.Server.Port),
	)

	if err := g.Wait(); err != nil && err != context.Canceled {
		return err
	}

	log.Info(context.Background(), "Guard service stopped")
	return nil
}

func resolveCredentials(ctx context.Context, cfg *config.Config, log logger.Logger) (*secrets.ProviderCredentials, error) {
	var provider secrets.Provider
	if cfg.Vault.Enabled {
		vp, err := secrets.NewVaultProvider(&cfg.Vault, log)
		if err != nil {
			return nil, err
		}
		provider = vp
	} else {
		provider = secrets.NewStaticProvider(&cfg.Notifications)
	}
	return provider.Credentials(ctx)
}
