package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/afero"

	"github.com/textileco/pettycash/internal/app"
	"github.com/textileco/pettycash/internal/audit"
	"github.com/textileco/pettycash/internal/auth"
	"github.com/textileco/pettycash/internal/files"
	"github.com/textileco/pettycash/internal/masterdata/buyers"
	"github.com/textileco/pettycash/internal/masterdata/materials"
	"github.com/textileco/pettycash/internal/masterdata/orders"
	"github.com/textileco/pettycash/internal/masterdata/vendors"
	"github.com/textileco/pettycash/internal/notify"
	"github.com/textileco/pettycash/internal/observability"
	"github.com/textileco/pettycash/internal/platform/cache"
	"github.com/textileco/pettycash/internal/platform/db"
	"github.com/textileco/pettycash/internal/procurement"
	"github.com/textileco/pettycash/internal/reports"
	"github.com/textileco/pettycash/internal/shared"
	"github.com/textileco/pettycash/internal/users"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	if cfg.MigrateOnStart {
		if err := db.Migrate(ctx, dbpool); err != nil {
			logger.Error("migrate", slog.Any("error", err))
			os.Exit(1)
		}
	}

	var redisClient *redis.Client
	if client, err := cache.New(ctx, cfg.RedisAddr); err != nil {
		logger.Warn("redis unavailable, idempotency and report cache disabled", slog.Any("error", err))
	} else {
		redisClient = client
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
	}

	metrics := observability.NewMetrics()

	userRepo := users.NewRepository(dbpool)
	dispatcher := notify.NewDispatcher(notify.NewRepository(dbpool), userRepo, shared.NewAuditLogger(dbpool), logger, metrics)
	reportCache := reports.NewCache(redisClient, cfg.ReportCacheTTL)
	emitter := reports.NewInvalidatingEmitter(dispatcher, reportCache, logger)

	procCfg := procurement.ServiceConfig{
		Lenient:  cfg.LenientTransitions,
		Logger:   logger,
		Observer: metrics,
	}
	if redisClient != nil {
		procCfg.Idempotency = shared.NewIdempotencyStore(redisClient, cfg.IdempotencyTTL)
	}
	procurementService := procurement.NewService(procurement.NewRepository(dbpool), emitter, procCfg)

	fileStore := files.NewStore(afero.NewOsFs(), cfg.UploadsDir, cfg.UploadMaxBytes)

	tokens, err := auth.NewTokens(cfg.JWTSecret, cfg.JWTTTL)
	if err != nil {
		logger.Error("token issuer", slog.Any("error", err))
		os.Exit(1)
	}

	router := app.NewRouter(app.RouterParams{
		Logger:  logger,
		Config:  cfg,
		Metrics: metrics,
		Ready: func(r *http.Request) error {
			return dbpool.Ping(r.Context())
		},
		AuthHandler:          auth.NewHandler(logger, auth.NewService(auth.NewRepository(dbpool), tokens, emitter)),
		ProcurementHandler:   procurement.NewHandler(logger, procurementService, fileStore),
		UsersHandler:         users.NewHandler(logger, users.NewService(userRepo, emitter)),
		VendorsHandler:       vendors.NewHandler(logger, vendors.NewService(vendors.NewRepository(dbpool), emitter)),
		BuyersHandler:        buyers.NewHandler(logger, buyers.NewService(buyers.NewRepository(dbpool), emitter)),
		OrdersHandler:        orders.NewHandler(logger, orders.NewService(orders.NewRepository(dbpool), emitter)),
		MaterialsHandler:     materials.NewHandler(logger, materials.NewService(materials.NewRepository(dbpool), emitter)),
		NotificationsHandler: notify.NewHandler(notify.NewService(notify.NewRepository(dbpool))),
		ReportsHandler:       reports.NewHandler(logger, reports.NewService(reports.NewRepository(dbpool), reportCache)),
		AuditHandler:         audit.NewHandler(logger, audit.NewService(audit.NewRepository(dbpool))),
		FilesHandler:         files.NewHandler(logger, fileStore),
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
