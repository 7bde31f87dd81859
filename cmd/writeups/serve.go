package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/goliatone/go-command/dispatcher"
	"github.com/spf13/cobra"

	cachecmd "github.com/goliatone/go-writeups/internal/commands/cache"
	"github.com/goliatone/go-writeups/internal/logging"
)

// dispatchRetries bounds retries of cache commands delivered on SIGHUP.
const dispatchRetries = 1

func newServeCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the writeups API",
		Long: `serve starts the HTTP API, the cache maintenance schedule and, when
enabled, the content watcher. SIGHUP purges every cache; SIGINT and SIGTERM
shut the server down gracefully.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx)
		},
	}
	flags := cmd.Flags()
	flags.String("addr", "", "listen address")
	flags.String("base-path", "", "API base path")
	flags.Bool("watch", false, "purge caches when the content tree changes")
	flags.Bool("prewarm", false, "rebuild the listing on startup and after each sweep")
	flags.String("sweep-schedule", "", `cron expression for cache maintenance, e.g. "@every 10m"`)
	bindConfigKey(flags, "addr", "http.addr")
	bindConfigKey(flags, "base-path", "http.base_path")
	bindConfigKey(flags, "watch", "watch.enabled")
	bindConfigKey(flags, "prewarm", "cache.prewarm")
	bindConfigKey(flags, "sweep-schedule", "cache.sweep_schedule")
	return cmd
}

func (a *app) serve(ctx context.Context) error {
	cfg := a.config
	logger := logging.HTTPLogger(a.module.Container().LoggerProvider())

	handler, err := a.module.Handler()
	if err != nil {
		return err
	}
	server := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           handler,
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		ReadHeaderTimeout: cfg.HTTP.ReadTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
	}

	stopMaintenance, err := a.module.Start(ctx)
	if err != nil {
		return fmt.Errorf("start maintenance: %w", err)
	}
	defer stopMaintenance()

	unsubscribe := a.module.Container().CacheCommands().Subscribe(dispatchRetries)
	defer unsubscribe()
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-hup:
				msg := cachecmd.PurgeCachesCommand{Reason: cachecmd.ReasonManual}
				if err := dispatcher.Dispatch(ctx, msg); err != nil {
					logger.Error("http.server.purge_failed", "error", err)
				}
			}
		}
	}()

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("http.server.listening", "addr", cfg.HTTP.Addr, "base_path", cfg.HTTP.BasePath, "content_dir", cfg.ContentDir)
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	timeout := cfg.HTTP.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()
	logger.Info("http.server.shutdown", "timeout", timeout.String())
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
