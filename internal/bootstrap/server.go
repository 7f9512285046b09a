package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/darshanhv296/Flight-Management-System/config"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Run serves handler on cfg.Address and blocks until ctx is cancelled or the
// server fails. On cancellation in-flight requests get the shutdown timeout
// to finish.
func Run(ctx context.Context, cfg config.HTTPConfig, handler http.Handler, log logrus.FieldLogger) error {
	srv := newServer(cfg, handler)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.WithField("address", cfg.Address).Info("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve http: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout(cfg))
		defer cancel()
		log.Info("shutting down http server")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	})
	return g.Wait()
}

func newServer(cfg config.HTTPConfig, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.Address,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func shutdownTimeout(cfg config.HTTPConfig) time.Duration {
	if d := cfg.ShutdownTimeout(); d > 0 {
		return d
	}
	return 5 * time.Second
}
