package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dtapi/booking-engine/internal/data"
	apperrors "github.com/dtapi/booking-engine/internal/errors"

	"github.com/dtapi/booking-engine/internal/domain/model"
)

func TestTelemetryServiceApply(t *testing.T) {
	ctx := context.Background()

	t.Run("persists normalized fields", func(t *testing.T) {
		var gotFields *model.TelemetryFields
		jobs := &stubJobRepo{
			applyTelemetryFn: func(_ context.Context, _ string, fields *model.TelemetryFields) (*model.Job, error) {
				gotFields = fields
				return &model.Job{ID: "job-1"}, nil
			},
		}
		svc := NewTelemetryService(TelemetryServiceOptions{Jobs: jobs})

		job, err := svc.Apply(ctx, "job-1", model.TelemetryUpdate{Distance: "7.5", Time: "20"})

		require.NoError(t, err)
		assert.Equal(t, "job-1", job.ID)
		require.NotNil(t, gotFields)
		require.NotNil(t, gotFields.DistanceKm)
		assert.InDelta(t, 7.5, *gotFields.DistanceKm, 0.0001)
		assert.False(t, gotFields.HasFlags())
	})

	t.Run("flagging without a comment is rejected whole", func(t *testing.T) {
		applied := false
		jobs := &stubJobRepo{
			applyTelemetryFn: func(context.Context, string, *model.TelemetryFields) (*model.Job, error) {
				applied = true
				return nil, nil
			},
		}
		svc := NewTelemetryService(TelemetryServiceOptions{Jobs: jobs})

		_, err := svc.Apply(ctx, "job-1", model.TelemetryUpdate{Distance: "7.5", Flagged: "true"})

		assert.True(t, apperrors.IsMissingComment(err))
		assert.False(t, applied, "neither group may be written")
	})

	t.Run("flagging with a comment passes", func(t *testing.T) {
		jobs := &stubJobRepo{
			applyTelemetryFn: func(_ context.Context, _ string, fields *model.TelemetryFields) (*model.Job, error) {
				assert.True(t, fields.Flagged)
				assert.Equal(t, "no-show, rebooked", fields.AdminComment)
				return &model.Job{ID: "job-1"}, nil
			},
		}
		svc := NewTelemetryService(TelemetryServiceOptions{Jobs: jobs})

		_, err := svc.Apply(ctx, "job-1", model.TelemetryUpdate{
			Flagged:      "true",
			AdminComment: "no-show, rebooked",
		})

		require.NoError(t, err)
	})

	t.Run("unflagging never requires a comment", func(t *testing.T) {
		jobs := &stubJobRepo{
			applyTelemetryFn: func(context.Context, string, *model.TelemetryFields) (*model.Job, error) {
				return &model.Job{ID: "job-1"}, nil
			},
		}
		svc := NewTelemetryService(TelemetryServiceOptions{Jobs: jobs})

		_, err := svc.Apply(ctx, "job-1", model.TelemetryUpdate{Flagged: "false"})

		require.NoError(t, err)
	})

	t.Run("maps missing job to not found", func(t *testing.T) {
		jobs := &stubJobRepo{
			applyTelemetryFn: func(context.Context, string, *model.TelemetryFields) (*model.Job, error) {
				return nil, data.ErrJobNotFound
			},
		}
		svc := NewTelemetryService(TelemetryServiceOptions{Jobs: jobs})

		_, err := svc.Apply(ctx, "missing", model.TelemetryUpdate{Distance: "1"})

		assert.True(t, apperrors.IsNotFound(err))
	})
}
