package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	apperrors "github.com/dtapi/booking-engine/internal/errors"

	"github.com/dtapi/booking-engine/internal/core"
	"github.com/dtapi/booking-engine/internal/data"
	"github.com/dtapi/booking-engine/internal/domain/model"
)

// TelemetryServiceOptions groups dependencies for TelemetryService.
type TelemetryServiceOptions struct {
	Jobs   core.JobRepository // Required: job repository
	Logger *slog.Logger       // Optional: structured logger
}

// TelemetryService applies distance-feed updates to jobs. The feed sends
// everything as strings; normalization happens once at this boundary and the
// rest of the system only sees typed fields.
type TelemetryService struct {
	jobs   core.JobRepository
	logger *slog.Logger
}

// NewTelemetryService constructs a new TelemetryService.
func NewTelemetryService(opts TelemetryServiceOptions) *TelemetryService {
	if opts.Jobs == nil {
		panic("JobRepository is required")
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &TelemetryService{
		jobs:   opts.Jobs,
		logger: logger.With("component", "telemetry_service"),
	}
}

// Apply normalizes and persists one feed update. Flagging a job requires an
// admin comment; the update is rejected whole when the comment is missing,
// so neither group is written.
func (s *TelemetryService) Apply(
	ctx context.Context,
	jobID string,
	update model.TelemetryUpdate,
) (*model.Job, error) {
	fields := update.Normalize()

	if fields.HasFlags() && fields.Flagged && fields.AdminComment == "" {
		return nil, apperrors.MissingComment()
	}

	job, err := s.jobs.ApplyTelemetry(ctx, jobID, &fields)
	if errors.Is(err, data.ErrJobNotFound) {
		return nil, apperrors.NotFoundf("Job %s not found", jobID)
	}
	if err != nil {
		return nil, fmt.Errorf("apply telemetry: %w", err)
	}

	s.logger.InfoContext(ctx, "telemetry applied",
		"job_id", jobID,
		"has_measurements", fields.HasTelemetry(),
		"has_flags", fields.HasFlags(),
	)
	return job, nil
}
