package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dukerupert/lovetoday/internal/push"
	"github.com/dukerupert/lovetoday/internal/server"
)

var originPatterns []string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server and the push dispatch schedule",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return withApp(ctx, func(a *app) error { return serve(ctx, a) })
	},
}

func init() {
	serveCmd.Flags().StringSliceVar(&originPatterns, "ws-origin", nil, "extra origins allowed to open /ws")
}

func serve(ctx context.Context, a *app) error {
	a.startReminders(ctx)

	srv := server.New(server.Deps{
		App:            a.appDeps(),
		Directory:      a.directory,
		Dispatcher:     a.dispatcher,
		PublicKey:      a.pushSvc.VAPIDPublicKey(),
		Registry:       a.registry,
		OriginPatterns: originPatterns,
	}, a.logger)

	if a.cfg.DispatchEnabled {
		if !a.cfg.PushConfigured() {
			a.logger.Warn("push dispatch schedule disabled, VAPID keys not set")
		} else {
			sched, err := push.NewScheduler(a.dispatcher, a.cfg.DispatchSchedule, a.logger.With("component", "push_scheduler"))
			if err != nil {
				return err
			}
			sched.Start(ctx)
			defer sched.Stop()
		}
	}

	// Expired rate limit windows.
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				srv.RateLimiter().Cleanup()
			}
		}
	}()

	// No WriteTimeout: it would cut /ws sessions, which set per-write deadlines.
	httpServer := &http.Server{
		Addr:        a.cfg.Addr(),
		Handler:     srv.Router(),
		ReadTimeout: 5 * time.Second,
		IdleTimeout: 120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("Love Today running", "addr", httpServer.Addr, "backend", a.cfg.StoreBackend, "transport", a.reminders.Transport().Name())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}

	a.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
