package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"jobmatch/internal/api"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type httpServer interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the sweep scheduler",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := opts.setup()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			deps, cleanup, err := buildDeps(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer cleanup()

			var sched Scheduler
			if cfg.Scheduler.On() {
				sched = deps.sched
			}
			apiDeps := api.Deps{
				Jobs:     deps.store,
				Messages: deps.store,
				Matcher:  deps.service,
				Profiles: deps.profiles,
				Logger:   log.Named("api"),
			}
			if sched != nil {
				apiDeps.Scheduler = sched
			}

			addr := cfg.Server.Addr
			if addr == "" {
				addr = ":8080"
			}
			srv := &http.Server{
				Addr:              addr,
				Handler:           api.NewHandler(apiDeps, cfg.Server),
				ReadHeaderTimeout: 10 * time.Second,
			}

			log.Info("listening", zap.String("addr", addr), zap.Bool("scheduler", sched != nil))
			return runServer(ctx, srv, sched, 5*time.Second, log)
		},
	}
}

// runServer 运行 HTTP 服务与调度器，ctx 取消后优雅关闭；sched 可为空。
func runServer(ctx context.Context, srv httpServer, sched Scheduler, shutdownTimeout time.Duration, log *zap.Logger) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	schedDone := make(chan struct{})
	go func() {
		defer close(schedDone)
		if sched == nil {
			return
		}
		if err := sched.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Warn("scheduler stopped", zap.Error(err))
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	var serveErr error
	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr = err
		}
		cancel()
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil && serveErr == nil {
		serveErr = err
	}
	<-schedDone
	return serveErr
}
