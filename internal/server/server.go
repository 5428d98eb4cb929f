package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"
)

// Serve runs the API on addr until ctx is cancelled, then shuts down
// gracefully with a short drain window.
func Serve(ctx context.Context, addr string, store Store, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	srv := &http.Server{
		Addr:    addr,
		Handler: NewHandler(store, logger).Routes(),
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
			return
		}
		errc <- nil
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errc
}
