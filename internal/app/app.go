package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
)

type App struct {
	Config   Config
	Sessions *SessionStore
	Logger   *slog.Logger

	limiter *rateLimiter
}

func New(config Config, repo GuidanceRepo, logger *slog.Logger) *App {
	if logger == nil {
		logger = slog.Default()
	}

	a := &App{Config: config, Logger: logger}

	a.Sessions = NewSessionStore(func() *GuidanceForm {
		return NewGuidanceForm(repo, config.StalePolicy, logger)
	}, config.SessionTTL)

	if config.RateLimit > 0 {
		a.limiter = newRateLimiter(config.RateLimit, config.RateBurst)
	}

	return a
}

// Start serves until SIGINT or SIGTERM and then shuts down gracefully.
func (a *App) Start() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return a.Serve(ctx)
}

func (a *App) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", a.Config.Port),
		Handler:           a.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	janitorCtx, stopJanitor := context.WithCancel(ctx)
	var janitor sync.WaitGroup
	janitor.Add(1)
	go func() {
		defer janitor.Done()
		a.Sessions.Run(janitorCtx, time.Minute)
	}()
	defer func() {
		stopJanitor()
		janitor.Wait()
	}()

	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info("app running", slog.String("addr", srv.Addr), slog.String("api_url", a.Config.APIURL))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	a.Logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	a.Logger.Info("app stopped")
	return nil
}
