package service

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"log/slog"
	"time"

	"github.com/dtapi/booking-engine/config"
	"github.com/dtapi/booking-engine/internal/core"
	"github.com/dtapi/booking-engine/pkg/metrics"
)

// SweeperServiceOptions groups dependencies for SweeperService.
type SweeperServiceOptions struct {
	Jobs   core.JobRepository   // Required: job repository
	Config config.SweeperConfig // Required: sweeper configuration
	Logger *slog.Logger         // Optional: structured logger
}

// SweeperService expires pending jobs no translator accepted within the
// configured deadline, closing their open offers along the way.
type SweeperService struct {
	jobs   core.JobRepository
	config config.SweeperConfig
	logger *slog.Logger
}

// NewSweeperService constructs a new SweeperService.
func NewSweeperService(opts SweeperServiceOptions) (*SweeperService, error) {
	if opts.Jobs == nil {
		return nil, errors.New("JobRepository is required")
	}

	var logger *slog.Logger
	if opts.Logger != nil {
		logger = opts.Logger.With("component", "sweeper_service")
		logger.Debug("SweeperService initialized",
			"interval", opts.Config.Interval,
			"accept_deadline", opts.Config.AcceptDeadline,
			"batch_size", opts.Config.BatchSize,
		)
	}

	return &SweeperService{
		jobs:   opts.Jobs,
		config: opts.Config,
		logger: logger,
	}, nil
}

// Run starts the sweep loop and runs until the context is cancelled.
// Returns nil on graceful shutdown (context.Canceled), error otherwise.
func (s *SweeperService) Run(ctx context.Context) error {
	if s.logger != nil {
		s.logger.InfoContext(ctx, "starting sweeper service", "interval", s.config.Interval)
	}

	// Jitter prevents a thundering herd when several instances start together.
	s.waitWithJitter(ctx)

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	if err := s.sweep(ctx); err != nil {
		s.logSweepError(err)
	}

	for {
		select {
		case <-ctx.Done():
			if s.logger != nil {
				s.logger.InfoContext(ctx, "sweeper service stopping", "reason", ctx.Err())
			}
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()

		case <-ticker.C:
			if err := s.sweep(ctx); err != nil {
				s.logSweepError(err)
				// Keep running despite errors.
			}
		}
	}
}

// waitWithJitter adds a random delay up to 10% of the interval.
func (s *SweeperService) waitWithJitter(ctx context.Context) {
	maxJitter := int64(s.config.Interval / 10)
	if maxJitter <= 0 {
		return
	}

	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		if s.logger != nil {
			s.logger.WarnContext(ctx, "failed to generate jitter, skipping", "error", err)
		}
		return
	}
	jitter := time.Duration(int64(binary.BigEndian.Uint64(buf[:]) % uint64(maxJitter))) // #nosec G115 - bounded by maxJitter

	select {
	case <-time.After(jitter):
	case <-ctx.Done():
	}
}

// sweep expires stale pending jobs in batches until a batch comes back
// empty.
func (s *SweeperService) sweep(ctx context.Context) error {
	var total int
	for {
		expired, err := s.jobs.ExpireStalePending(ctx, s.config.AcceptDeadline, s.config.BatchSize)
		if err != nil {
			return err
		}
		total += len(expired)
		metrics.SweeperExpired.Add(float64(len(expired)))
		if len(expired) < s.config.BatchSize {
			break
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}

	if total > 0 && s.logger != nil {
		s.logger.InfoContext(ctx, "expired stale pending jobs",
			"count", total,
			"accept_deadline", s.config.AcceptDeadline,
		)
	}
	return nil
}

func (s *SweeperService) logSweepError(err error) {
	if err == nil || s.logger == nil {
		return
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		s.logger.Debug("sweep cancelled by context", "error", err)
		return
	}
	s.logger.Error("sweep failed", "error", err)
}
