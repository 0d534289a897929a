package vault

import (
	"context"
	"time"

	"golang.org/x/exp/slog"
)

// Sweeper reclaims storage for codes that expired unredeemed. It shares the
// service's atomic expire transition, so a sweep and a concurrent
// redemption can never both act on the same record.
type Sweeper struct {
	service  *Service
	interval time.Duration
	log      *slog.Logger
	now      func() time.Time
}

func NewSweeper(service *Service, interval time.Duration, log *slog.Logger) *Sweeper {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Sweeper{
		service:  service,
		interval: interval,
		log:      log.With("component", "expiry_sweeper"),
		now:      time.Now,
	}
}

// Run sweeps on a fixed interval until the context is canceled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.log.Info("sweeper started", "interval", s.interval)
	for {
		select {
		case <-ctx.Done():
			s.log.Info("sweeper stopped")
			return
		case <-ticker.C:
			if _, err := s.SweepOnce(ctx, s.now()); err != nil {
				s.log.Error("sweep run failed", "error", err)
			}
		}
	}
}

// SweepOnce reclaims every pending record past expiry at the given instant
// and reports how many it deleted. Failures on individual records are
// logged and skipped; they do not abort the rest of the batch.
func (s *Sweeper) SweepOnce(ctx context.Context, now time.Time) (int, error) {
	expired, err := s.service.repo.ListExpired(ctx, now)
	if err != nil {
		return 0, err
	}
	if len(expired) == 0 {
		return 0, nil
	}

	reclaimed := 0
	for i := range expired {
		rec := &expired[i]
		if err := s.service.expire(ctx, rec); err != nil {
			s.log.Error("could not reclaim expired record", "code", rec.Code, "error", err)
			continue
		}
		reclaimed++
	}

	s.log.Info("sweep complete", "expired", len(expired), "reclaimed", reclaimed)
	return reclaimed, nil
}
