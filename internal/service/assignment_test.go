package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dtapi/booking-engine/internal/data"
	apperrors "github.com/dtapi/booking-engine/internal/errors"

	"github.com/dtapi/booking-engine/internal/domain/model"
)

func newAssignmentService(jobs *stubJobRepo, offers *stubOfferRepo, store *stubAssignmentStore, elig *stubEligibility) *AssignmentService {
	if jobs == nil {
		jobs = &stubJobRepo{}
	}
	if offers == nil {
		offers = &stubOfferRepo{}
	}
	if store == nil {
		store = &stubAssignmentStore{}
	}
	if elig == nil {
		elig = &stubEligibility{}
	}
	return NewAssignmentService(AssignmentServiceOptions{
		Repos: AssignmentRepos{
			Jobs:        jobs,
			Offers:      offers,
			Assignments: store,
		},
		Eligibility: elig,
	})
}

func TestAssignmentServiceAccept(t *testing.T) {
	ctx := context.Background()

	t.Run("wins on first attempt", func(t *testing.T) {
		store := &stubAssignmentStore{}
		svc := newAssignmentService(nil, nil, store, nil)

		result, err := svc.Accept(ctx, "job-1", "tr-1")

		require.NoError(t, err)
		assert.Equal(t, model.AcceptWon, result.Outcome)
		assert.Equal(t, 1, store.calls)
	})

	t.Run("retries conflicts then resolves already taken", func(t *testing.T) {
		store := &stubAssignmentStore{
			acceptFn: func(context.Context, string, string) (*model.AcceptResult, error) {
				return nil, apperrors.Conflict("another translator holds the job")
			},
		}
		svc := newAssignmentService(nil, nil, store, nil)

		result, err := svc.Accept(ctx, "job-1", "tr-1")

		require.NoError(t, err)
		assert.Equal(t, model.AcceptAlreadyTaken, result.Outcome)
		assert.Equal(t, 3, store.calls)
	})

	t.Run("succeeds after a transient conflict", func(t *testing.T) {
		store := &stubAssignmentStore{}
		store.acceptFn = func(context.Context, string, string) (*model.AcceptResult, error) {
			if store.calls == 1 {
				return nil, apperrors.Conflict("lost the race")
			}
			return &model.AcceptResult{Outcome: model.AcceptWon}, nil
		}
		svc := newAssignmentService(nil, nil, store, nil)

		result, err := svc.Accept(ctx, "job-1", "tr-1")

		require.NoError(t, err)
		assert.Equal(t, model.AcceptWon, result.Outcome)
		assert.Equal(t, 2, store.calls)
	})

	t.Run("propagates non-conflict errors", func(t *testing.T) {
		store := &stubAssignmentStore{
			acceptFn: func(context.Context, string, string) (*model.AcceptResult, error) {
				return nil, errors.New("connection refused")
			},
		}
		svc := newAssignmentService(nil, nil, store, nil)

		_, err := svc.Accept(ctx, "job-1", "tr-1")

		require.Error(t, err)
		assert.Equal(t, 1, store.calls)
	})
}

func TestAssignmentServiceListPotentialJobs(t *testing.T) {
	ctx := context.Background()

	t.Run("no registered pairs yields no jobs", func(t *testing.T) {
		elig := &stubEligibility{
			pairsFn: func(context.Context, string) ([]string, error) { return nil, nil },
		}
		listCalled := false
		jobs := &stubJobRepo{
			listPendingFn: func(context.Context, []string) ([]*model.Job, error) {
				listCalled = true
				return nil, nil
			},
		}
		svc := newAssignmentService(jobs, nil, nil, elig)

		result, err := svc.ListPotentialJobs(ctx, "tr-1")

		require.NoError(t, err)
		assert.Empty(t, result)
		assert.False(t, listCalled, "should not query jobs without pairs")
	})

	t.Run("queries pending jobs for the translator pairs", func(t *testing.T) {
		elig := &stubEligibility{
			pairsFn: func(context.Context, string) ([]string, error) {
				return []string{"de-ar", "de-ti"}, nil
			},
		}
		var gotPairs []string
		jobs := &stubJobRepo{
			listPendingFn: func(_ context.Context, pairs []string) ([]*model.Job, error) {
				gotPairs = pairs
				return []*model.Job{{ID: "job-1", Status: model.JobStatusPending}}, nil
			},
		}
		svc := newAssignmentService(jobs, nil, nil, elig)

		result, err := svc.ListPotentialJobs(ctx, "tr-1")

		require.NoError(t, err)
		require.Len(t, result, 1)
		assert.Equal(t, []string{"de-ar", "de-ti"}, gotPairs)
	})
}

func TestAssignmentServiceDecline(t *testing.T) {
	ctx := context.Background()

	t.Run("maps missing offer to not found", func(t *testing.T) {
		offers := &stubOfferRepo{
			declineFn: func(context.Context, string, string) (*model.TranslatorJobOffer, error) {
				return nil, data.ErrOfferNotFound
			},
		}
		svc := newAssignmentService(nil, offers, nil, nil)

		_, err := svc.Decline(ctx, "job-1", "tr-1")

		assert.True(t, apperrors.IsNotFound(err))
	})

	t.Run("returns the declined offer", func(t *testing.T) {
		offers := &stubOfferRepo{
			declineFn: func(context.Context, string, string) (*model.TranslatorJobOffer, error) {
				return &model.TranslatorJobOffer{JobID: "job-1", TranslatorID: "tr-1", Status: model.OfferStatusDeclined}, nil
			},
		}
		svc := newAssignmentService(nil, offers, nil, nil)

		offer, err := svc.Decline(ctx, "job-1", "tr-1")

		require.NoError(t, err)
		assert.Equal(t, model.OfferStatusDeclined, offer.Status)
	})
}

func TestAssignmentServiceOfferRound(t *testing.T) {
	ctx := context.Background()
	job := &model.Job{ID: "job-1", Status: model.JobStatusPending, LanguagePair: "de-ar"}

	t.Run("opens offers for eligible translators", func(t *testing.T) {
		elig := &stubEligibility{
			eligibleFn: func(context.Context, string) ([]string, error) {
				return []string{"tr-1", "tr-2"}, nil
			},
		}
		var roundIDs []string
		offers := &stubOfferRepo{
			openRoundFn: func(_ context.Context, _ string, ids []string) ([]*model.TranslatorJobOffer, error) {
				roundIDs = ids
				return nil, nil
			},
		}
		svc := newAssignmentService(nil, offers, nil, elig)

		ids, err := svc.OfferRound(ctx, job)

		require.NoError(t, err)
		assert.Equal(t, []string{"tr-1", "tr-2"}, ids)
		assert.Equal(t, []string{"tr-1", "tr-2"}, roundIDs)
	})

	t.Run("empty eligible set opens no offers", func(t *testing.T) {
		opened := false
		offers := &stubOfferRepo{
			openRoundFn: func(context.Context, string, []string) ([]*model.TranslatorJobOffer, error) {
				opened = true
				return nil, nil
			},
		}
		svc := newAssignmentService(nil, offers, nil, &stubEligibility{})

		ids, err := svc.OfferRound(ctx, job)

		require.NoError(t, err)
		assert.Empty(t, ids)
		assert.False(t, opened)
	})
}
