package shutdown

import (
	"context"
	"errors"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// GracePeriod bounds how long in-flight requests get after a shutdown signal
const GracePeriod = 10 * time.Second

// Serve runs srv until ctx is cancelled, then shuts it down gracefully
func Serve(ctx context.Context, srv *http.Server) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		log.WithField("addr", srv.Addr).Info("Shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), GracePeriod)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
