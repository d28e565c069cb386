package daemon

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/cadencelog/cadence/internal/api"
	"github.com/cadencelog/cadence/internal/app/logbook"
	"github.com/cadencelog/cadence/internal/infra/changefeed"
	"github.com/cadencelog/cadence/internal/infra/sqlite"
)

// Daemon is the running logbook service.
type Daemon struct {
	cfg  Config
	db   *sqlite.DB
	feed *changefeed.Hub
	srv  *http.Server
}

// New opens the database and assembles the service.
func New(cfg Config) (*Daemon, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		return nil, fmt.Errorf("create state dir: %w", err)
	}

	db, err := sqlite.Open(cfg.Database.Path)
	if err != nil {
		return nil, err
	}

	feed := changefeed.NewHub()
	lifecycle := logbook.NewLifecycle(db, feed)
	agg := logbook.NewAggregator(db)

	server := api.NewServer(db, lifecycle, agg, feed)
	if cfg.Metrics.Enabled {
		server.EnableMetrics()
	}

	return &Daemon{
		cfg:  cfg,
		db:   db,
		feed: feed,
		srv: &http.Server{
			Addr:              cfg.API.Addr(),
			Handler:           server.Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		},
	}, nil
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully.
func (d *Daemon) Run(ctx context.Context) error {
	log.WithFields(log.Fields{
		"addr":     d.cfg.API.Addr(),
		"database": d.cfg.Database.Path,
		"metrics":  d.cfg.Metrics.Enabled,
	}).Info("Logbook daemon starting")

	errCh := make(chan error, 1)
	go func() {
		if err := d.srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		d.db.Close()
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := d.srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("Shutdown did not finish cleanly")
	}
	return d.db.Close()
}
