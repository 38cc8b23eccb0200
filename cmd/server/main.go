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

	"github.com/go-chi/chi/v5"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"iotledger/internal/access"
	"iotledger/internal/authn"
	authnhandler "iotledger/internal/authn/handler"
	"iotledger/internal/blobstore"
	"iotledger/internal/identity"
	"iotledger/internal/ingest"
	ingesthandler "iotledger/internal/ingest/handler"
	"iotledger/internal/integrity"
	"iotledger/internal/ledger"
	ledgerhandler "iotledger/internal/ledger/handler"
	ledgermetrics "iotledger/internal/ledger/metrics"
	"iotledger/internal/platform/config"
	"iotledger/internal/platform/httpserver"
	"iotledger/internal/platform/logger"
	platformmetrics "iotledger/internal/platform/metrics"
	"iotledger/internal/platform/middleware"
	redisplatform "iotledger/internal/platform/redis"
	audit "iotledger/pkg/platform/audit"
	auditkafka "iotledger/pkg/platform/audit/kafka"
	auditmem "iotledger/pkg/platform/audit/store/memory"
	auditpg "iotledger/pkg/platform/audit/store/postgres"
	auditsqlite "iotledger/pkg/platform/audit/store/sqlite"
	auditworker "iotledger/pkg/platform/audit/worker"
)

// main wires the stores, the ledger, and the HTTP surface, then runs until
// interrupted. Business logic lives in the internal packages.
func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "iotledger:", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logger.New()

	var (
		devices     identity.Store
		records     integrity.Store
		permissions access.Store
		auditStore  audit.Store
		auditOutbox *auditpg.Store
	)
	if cfg.Postgres.DSN != "" {
		db, err := sql.Open("pgx", cfg.Postgres.DSN)
		if err != nil {
			return fmt.Errorf("open postgres: %w", err)
		}
		defer db.Close()
		for _, schema := range []string{identity.Schema, integrity.Schema, access.Schema, auditpg.Schema} {
			if _, err := db.ExecContext(ctx, schema); err != nil {
				return fmt.Errorf("apply schema: %w", err)
			}
		}
		devices = identity.NewPostgres(db)
		records = integrity.NewPostgres(db)
		permissions = access.NewPostgres(db)
		auditOutbox = auditpg.New(db)
		auditStore = auditOutbox
		log.Info("using postgres stores")
	} else {
		devices = identity.NewInMemory()
		records = integrity.NewInMemory()
		permissions = access.NewInMemory()
		if cfg.Audit.SQLitePath != "" {
			store, err := auditsqlite.Open(cfg.Audit.SQLitePath)
			if err != nil {
				return fmt.Errorf("open audit sqlite: %w", err)
			}
			defer store.Close()
			auditStore = store
			log.Info("using in-memory stores with sqlite audit trail", "path", cfg.Audit.SQLitePath)
		} else {
			auditStore = auditmem.NewInMemoryStore()
			log.Warn("no postgres DSN configured, state will not survive restarts")
		}
	}

	publisher := audit.NewPublisher(auditStore, log)

	g, ctx := errgroup.WithContext(ctx)

	if len(cfg.Kafka.Brokers) > 0 {
		forwarder, err := auditkafka.New(ctx, cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			return fmt.Errorf("connect kafka: %w", err)
		}
		defer forwarder.Close()
		var opts []auditworker.Option
		if auditOutbox != nil {
			opts = append(opts, auditworker.WithOutbox(auditOutbox))
		}
		w := auditworker.New(forwarder, publisher.Feed(), log, opts...)
		g.Go(func() error { return w.Run(ctx) })
		log.Info("forwarding audit events to kafka", "topic", cfg.Kafka.Topic)
	}

	var revocations authn.RevocationList = authn.NewMemoryRevocationList()
	if cfg.Redis.URL != "" {
		rdb, err := redisplatform.New(cfg.Redis)
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer rdb.Close()
		revocations = authn.NewRedisRevocationList(rdb.Client)
	}

	tokens := authn.NewTokenService(cfg.Auth.JWTSigningKey, "iotledger", cfg.Auth.TokenTTL)

	adminSecret := cfg.Auth.AdminSecret
	if adminSecret == "" {
		if adminSecret, err = authn.GenerateSecret(); err != nil {
			return fmt.Errorf("generate admin secret: %w", err)
		}
		// One-off secret for development; deployments set IOTLEDGER_ADMIN_SECRET.
		log.Warn("IOTLEDGER_ADMIN_SECRET not set, generated issuance secret", "secret", adminSecret)
	}
	adminSecretHash, err := authn.HashSecret(adminSecret)
	if err != nil {
		return fmt.Errorf("hash admin secret: %w", err)
	}

	core := ledger.New(devices, records, permissions,
		ledger.WithAudit(publisher),
		ledger.WithMetrics(ledgermetrics.New()),
		ledger.WithLogger(log),
	)

	var blobs blobstore.Store = blobstore.NewInMemory()
	if cfg.Blobstore.URL != "" {
		blobs = blobstore.NewIPFS(cfg.Blobstore.URL)
	}
	uploads := ingest.New(core, blobs, log)

	router := chi.NewRouter()
	router.Use(middleware.Latency(platformmetrics.NewHTTP()))
	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	router.Handle("/metrics", promhttp.Handler())
	authnhandler.New(tokens, revocations, adminSecretHash, log).Register(router)
	ingesthandler.New(uploads, log).Register(router)
	ledgerhandler.New(core, tokens, revocations, log).Register(router)

	srv := httpserver.New(cfg.Server.Addr, router)

	g.Go(func() error {
		log.Info("starting iotledger", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info("iotledger stopped")
	return nil
}
