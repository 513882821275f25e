package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"pagebuilder/internal/httpapi"
)

const shutdownTimeout = 10 * time.Second

// HTTPServer builds the JSON API server from configuration.
func (a *App) HTTPServer() *http.Server {
	return &http.Server{
		Addr:              a.cfg.HTTP.Addr,
		Handler:           httpapi.New(a.site, a.logger.Named("http")).Router(),
		ReadTimeout:       a.cfg.HTTP.ReadTimeout,
		ReadHeaderTimeout: a.cfg.HTTP.ReadTimeout,
		WriteTimeout:      a.cfg.HTTP.WriteTimeout,
	}
}

// ServeHTTP runs the JSON API until ctx is cancelled, then shuts it down
// gracefully.
func (a *App) ServeHTTP(ctx context.Context) error {
	srv := a.HTTPServer()
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("http server listening", zap.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}
