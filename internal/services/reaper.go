package services

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// Reaper fails bookings whose payment was never completed.
type Reaper struct {
	store BookingStore
	ttl   time.Duration
	log   *logrus.Logger
}

func NewReaper(store BookingStore, ttl time.Duration, log *logrus.Logger) *Reaper {
	return &Reaper{store: store, ttl: ttl, log: log}
}

// Run marks every booking still pending ttl after creation as failed.
func (r *Reaper) Run(ctx context.Context, now time.Time) (int64, error) {
	if r.ttl <= 0 {
		return 0, fmt.Errorf("reaper ttl must be positive, got %s", r.ttl)
	}
	cutoff := now.Add(-r.ttl)
	n, err := r.store.FailStalePending(ctx, cutoff, fmt.Sprintf("payment not completed within %s", r.ttl))
	if err != nil {
		return 0, err
	}
	r.log.WithFields(logrus.Fields{"cutoff": cutoff.Format(time.RFC3339), "failed": n}).Info("stale pending bookings reaped")
	return n, nil
}
