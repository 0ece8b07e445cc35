package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"ai-coach-chat/internal/domain/ports/usecase"
	"ai-coach-chat/internal/infra/api"
	pg "ai-coach-chat/internal/infra/db/postgres"
	"ai-coach-chat/internal/infra/metrics"
	"ai-coach-chat/internal/infra/worker"
	uc "ai-coach-chat/internal/usecase"
)

func newServeCmd(f *rootFlags) *cobra.Command {
	var migrate bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, job workers and the recovery sweeper",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), f, migrate)
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", false, "apply the database schema before serving")
	return cmd
}

func runServe(parent context.Context, f *rootFlags, migrate bool) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, log, err := f.load()
	if err != nil {
		return err
	}
	metrics.MustRegister()

	a, err := newApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	if migrate {
		if err := pg.Migrate(ctx, a.pool); err != nil {
			return err
		}
		log.Info().Msg("schema applied")
	}
	go pg.ReportPoolStats(ctx, a.pool, 15*time.Second, log)

	// Workers get their own context so shutdown can drain HTTP first.
	workCtx, cancelWork := context.WithCancel(context.Background())
	defer cancelWork()

	pool := worker.NewPool(cfg.Worker.Workers, cfg.Worker.QueueSize, log)
	pool.Start(workCtx)
	local := worker.NewPoolDispatcher(pool, a.processor, cfg.Runtime.Dev, log)

	var dispatcher usecase.ChatJobDispatcher = local
	consumed := make(chan struct{})
	if cfg.Dispatch.Mode == "redis" {
		q := a.jobQueue()
		dispatcher = q
		go func() {
			defer close(consumed)
			q.Consume(workCtx, cfg.Dispatch.Consumers, local)
		}()
	} else {
		close(consumed)
	}

	var sweeper *worker.RecoverySweeper
	if cfg.Recovery.IsEnabled() {
		sweeper = a.sweeper(dispatcher)
		if err := sweeper.Start(workCtx); err != nil {
			return err
		}
	}

	jobUC := uc.NewChatJobUseCase(a.convs, a.msgs, a.jobs, a.tm, dispatcher, log)
	queryUC := uc.NewChatQueryUseCase(a.convs, a.msgs, a.jobs, a.tm, a.cache, cfg.Coach.Greeting, log)
	auth := api.NewAuthenticator(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, cfg.Auth.DevHeader, cfg.Runtime.Dev, log)
	handler := api.NewRouter(api.NewServer(jobUC, queryUC, log), api.RouterOptions{
		Auth:           auth,
		RequestTimeout: cfg.Server.RequestTimeout,
		Metrics:        promhttp.Handler(),
		Ready:          a.ping,
	})

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("dispatch", cfg.Dispatch.Mode).Msg("http listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown requested")
	case runErr = <-serveErr:
		log.Error().Err(runErr).Msg("http server failed")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("http shutdown")
	}
	if sweeper != nil {
		sweeper.Stop()
	}
	// In-flight jobs see the cancel and stay PENDING for the next sweep.
	cancelWork()
	<-consumed
	pool.Stop()
	log.Info().Msg("stopped")
	return runErr
}
