package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"procproxy/internal/httpapi"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:     "serve",
		Short:   "Run the HTTP proxy",
		Example: "  procproxy serve --upstream https://api.example.com --addr :8080",
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr != "" {
				opts.cfg.Addr = addr
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, opts)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "HTTP listen address, e.g. :8080 (overrides config)")
	return cmd
}

// serve runs the proxy until ctx is done, then shuts down gracefully.
func serve(ctx context.Context, opts *rootOptions) error {
	cfg := opts.cfg
	svc, err := opts.newService()
	if err != nil {
		return err
	}

	httpapi.SetLogger(opts.log)
	httpapi.SetDefaultLogLevel(cfg.LogLevel)
	httpapi.SetRequestTimeout(cfg.RequestTimeout())
	httpapi.SetCORSOptions(len(cfg.CORSOrigins) > 0, cfg.CORSOrigins, nil, nil)
	httpapi.SetRateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst)
	httpapi.SetBaseContext(ctx)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpapi.NewMux(svc),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		opts.log.Info().Str("addr", cfg.Addr).Str("upstream", svc.BaseURL()).Msg("procproxy listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		opts.log.Warn().Err(err).Msg("graceful shutdown error")
	}
	return nil
}
