// main wires the onboarding service: draft storage, document store, identity
// boundary, HTTP transport, and the server lifecycle. Business logic lives in
// the internal packages.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"kyconboard/internal/docstore"
	"kyconboard/internal/identity"
	"kyconboard/internal/kyc/draft"
	"kyconboard/internal/kyc/handler"
	kycservice "kyconboard/internal/kyc/service"
	"kyconboard/internal/platform/config"
	"kyconboard/internal/platform/httpserver"
	"kyconboard/internal/platform/logger"
	"kyconboard/internal/platform/metrics"
	"kyconboard/internal/platform/middleware"
	platformredis "kyconboard/internal/platform/redis"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	if err := run(cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Server, log *slog.Logger) error {
	m := metrics.New()

	drafts, closeDrafts, err := openDraftStore(cfg, log)
	if err != nil {
		return err
	}
	defer closeDrafts()

	docs, closeDocs, err := openDocumentStore(cfg, log)
	if err != nil {
		return err
	}
	defer closeDocs()

	opts := []kycservice.Option{
		kycservice.WithMetrics(m),
		kycservice.WithDebounce(cfg.AutoSaveDebounce),
	}
	redisClient, err := platformredis.New(cfg.RedisURL)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
		opts = append(opts, kycservice.WithMirror(draft.NewRedisMirror(redisClient)))
		log.Info("draft mirroring enabled")
	}

	svc := kycservice.New(drafts, docs, log, opts...)
	tokens := identity.NewService(cfg.JWTSigningKey, cfg.JWTIssuer)

	router := chi.NewRouter()
	router.Use(middleware.Recovery(log))
	router.Use(middleware.RequestID)
	router.Use(middleware.ClientMetadata)
	router.Use(middleware.Logger(log))
	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	router.Method(http.MethodGet, "/metrics", promhttp.Handler())
	handler.New(svc, log).Register(router, tokens)

	srv := httpserver.New(cfg.Addr, router)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting kyconboard", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		svc.Close(shutdownCtx)
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func openDraftStore(cfg config.Server, log *slog.Logger) (draft.Store, func(), error) {
	if cfg.DraftDBPath == "" {
		log.Warn("no draft db configured; drafts will not survive restarts")
		return draft.NewInMemoryStore(), func() {}, nil
	}
	store, err := draft.OpenSQLite(cfg.DraftDBPath)
	if err != nil {
		return nil, nil, err
	}
	return store, func() { _ = store.Close() }, nil
}

func openDocumentStore(cfg config.Server, log *slog.Logger) (docstore.Store, func(), error) {
	if cfg.DatabaseURL == "" {
		log.Warn("no database configured; submissions land in memory only")
		return docstore.NewInMemoryStore(), func() {}, nil
	}
	pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	if _, err := pool.Exec(context.Background(), docstore.Schema); err != nil {
		pool.Close()
		return nil, nil, err
	}
	return docstore.NewPostgresStore(pool), pool.Close, nil
}
