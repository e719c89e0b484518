package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/keyhaven/backoffice/internal/identity/store"
)

// HousekeepingService periodically flips stale PENDING invitations to
// EXPIRED and deletes recovery tokens past their expiry. Correctness never
// depends on the sweep: every redemption path also checks expiry itself.
// The sweep keeps listings honest and the tables from growing unbounded.
type HousekeepingService struct {
	Store    store.Store
	Logger   *slog.Logger
	Interval time.Duration

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewHousekeepingService creates a housekeeping service with the given
// interval. An interval of 0 or less defaults to 1 hour.
func NewHousekeepingService(st store.Store, logger *slog.Logger, interval time.Duration) *HousekeepingService {
	if interval <= 0 {
		interval = 1 * time.Hour
	}

	return &HousekeepingService{
		Store:    st,
		Logger:   logger,
		Interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start begins the background worker. Non-blocking; call Stop to shut it
// down.
func (s *HousekeepingService) Start() {
	go s.run()
	s.Logger.Info("housekeeping service started", "interval", s.Interval)
}

// Stop shuts down the worker, blocking until any in-progress sweep
// finishes.
func (s *HousekeepingService) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("housekeeping service stopped")
}

func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	// Sweep immediately on startup
	s.sweep()

	for {
		select {
		case <-ticker.C:
			s.sweep()
		case <-s.stopCh:
			return
		}
	}
}

// sweep runs the two cleanups independently; one failing doesn't stop the
// other.
func (s *HousekeepingService) sweep() {
	ctx := context.Background()
	now := time.Now()

	expired, err := s.Store.Invitations().ExpireStale(ctx, now)
	if err != nil {
		s.Logger.Error("failed to expire stale invitations", "error", err)
	} else if expired > 0 {
		s.Logger.Info("expired stale invitations", "count", expired)
	}

	deleted, err := s.Store.RecoveryTokens().DeleteExpired(ctx, now)
	if err != nil {
		s.Logger.Error("failed to delete expired recovery tokens", "error", err)
	} else if deleted > 0 {
		s.Logger.Info("deleted expired recovery tokens", "count", deleted)
	}
}
