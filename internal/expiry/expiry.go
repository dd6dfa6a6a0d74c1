// Package expiry retires alerts whose lifetime has run out.
package expiry

import (
	"context"
	"log"
	"time"

	"pataalerta/config"
	"pataalerta/internal/metrics"
)

// Expirer is the store operation the sweeper needs.
type Expirer interface {
	ExpireBefore(ctx context.Context, t time.Time) (int64, error)
}

// Service periodically marks active alerts past their expiry as expired.
// Only the status field is written.
type Service struct {
	cfg     config.ExpiryConfig
	store   Expirer
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewService(cfg config.ExpiryConfig, store Expirer, m *metrics.Metrics) *Service {
	return &Service{cfg: cfg, store: store, metrics: m, now: time.Now}
}

// Run sweeps once immediately and then every configured interval until ctx ends.
func (s *Service) Run(ctx context.Context) {
	if !s.cfg.Enabled {
		log.Println("Expiry sweeper is disabled. Not starting.")
		return
	}
	log.Println("Starting expiry sweeper...")

	s.SweepOnce(ctx)

	timer := time.NewTimer(s.cfg.Interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Expiry sweeper shutting down.")
			return
		case <-timer.C:
			s.SweepOnce(ctx)
			timer.Reset(s.cfg.Interval)
		}
	}
}

// SweepOnce runs a single pass and returns how many alerts were expired.
func (s *Service) SweepOnce(ctx context.Context) (int64, error) {
	n, err := s.store.ExpireBefore(ctx, s.now().UTC())
	if err != nil {
		log.Printf("Error expiring alerts: %v", err)
		return 0, err
	}
	if n > 0 {
		log.Printf("Expired %d alerts", n)
	}
	s.metrics.AlertsExpired(n)
	return n, nil
}
