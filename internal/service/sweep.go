package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"bookly/internal/domain"
	"bookly/internal/events"
	"bookly/internal/repository"
)

// Sweeper marks CONFIRMED bookings whose service has ended as COMPLETED.
// Runs are serialized, so the cron job and list-triggered runs never overlap.
type Sweeper struct {
	repo   repository.BookingRepository
	events events.Publisher
	now    clock
	logger *zap.Logger

	mu   sync.Mutex
	cron *cron.Cron
}

func NewSweeper(repo repository.BookingRepository, publisher events.Publisher, now clock, logger *zap.Logger) *Sweeper {
	return &Sweeper{
		repo:   repo,
		events: publisher,
		now:    now,
		logger: logger,
	}
}

// Sweep completes finished bookings, of one business when businessID is set.
// It returns how many bookings were completed. A booking that fails to update
// is logged and skipped.
func (s *Sweeper) Sweep(ctx context.Context, businessID *int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	candidates, err := s.repo.ListConfirmedUntil(ctx, businessID, now.Format(domain.DateLayout))
	if err != nil {
		return 0, fmt.Errorf("sweep: failed to list confirmed bookings: %w", err)
	}

	completed := 0
	for _, booking := range candidates {
		endsAt, err := booking.EndsAt(now.Location())
		if err != nil {
			s.logger.Warn("Sweep: skipping booking with malformed time",
				zap.Int64("booking_id", booking.ID), zap.Error(err))
			continue
		}
		if endsAt.After(now) {
			continue
		}

		ok, err := s.repo.TransitionStatus(ctx, booking.ID, domain.BookingStatusConfirmed, domain.BookingStatusCompleted)
		if err != nil {
			s.logger.Error("Sweep: failed to complete booking", zap.Int64("booking_id", booking.ID), zap.Error(err))
			continue
		}
		if !ok {
			continue
		}

		booking.Status = domain.BookingStatusCompleted
		s.events.Publish(ctx, events.New(events.BookingCompleted, booking.BusinessID, booking))
		completed++
	}

	if completed > 0 {
		s.logger.Info("Sweep: bookings completed", zap.Int("count", completed))
	}

	return completed, nil
}

// Start runs Sweep on a robfig/cron schedule such as "@every 24h".
func (s *Sweeper) Start(schedule string, timeout time.Duration) error {
	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if _, err := s.Sweep(ctx, nil); err != nil {
			s.logger.Error("Scheduled sweep failed", zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("invalid sweep schedule %q: %w", schedule, err)
	}

	c.Start()
	s.cron = c
	s.logger.Info("Sweep scheduled", zap.String("schedule", schedule))
	return nil
}

// Stop waits for a running scheduled sweep to finish.
func (s *Sweeper) Stop() {
	if s.cron == nil {
		return
	}
	<-s.cron.Stop().Done()
}
