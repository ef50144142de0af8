package service

import (
	"context"
	"time"

	"github.com/dtapi/booking-engine/internal/core"
	"github.com/dtapi/booking-engine/internal/domain/model"
)

// Hand-rolled test doubles for the core ports. Each method delegates to an
// optional function field; unset methods return zero values so tests only
// wire what they exercise.

type stubJobRepo struct {
	createFn             func(ctx context.Context, req *model.CreateJobRequest) (*model.Job, error)
	getByIDFn            func(ctx context.Context, id string) (*model.Job, error)
	getByIDWithOffersFn  func(ctx context.Context, id string) (*model.Job, error)
	listByCustomerFn     func(ctx context.Context, customerID string) ([]*model.Job, error)
	listByTranslatorFn   func(ctx context.Context, translatorID string) ([]*model.Job, error)
	historyFn            func(ctx context.Context, userID string, status model.JobStatus) ([]*model.Job, error)
	listFn               func(ctx context.Context, filter *model.JobFilter) ([]*model.Job, error)
	listPendingFn        func(ctx context.Context, pairs []string) ([]*model.Job, error)
	transitionFn         func(ctx context.Context, params core.TransitionParams) (*model.Job, error)
	updatePatchFn        func(ctx context.Context, id string, req *model.UpdateJobRequest) (*model.Job, error)
	applyTelemetryFn     func(ctx context.Context, id string, fields *model.TelemetryFields) (*model.Job, error)
	expireStalePendingFn func(ctx context.Context, maxAge time.Duration, batchSize int) ([]string, error)
	statsFn              func(ctx context.Context) (*model.JobStats, error)
}

func (s *stubJobRepo) Create(ctx context.Context, req *model.CreateJobRequest) (*model.Job, error) {
	if s.createFn != nil {
		return s.createFn(ctx, req)
	}
	return nil, nil
}

func (s *stubJobRepo) GetByID(ctx context.Context, id string) (*model.Job, error) {
	if s.getByIDFn != nil {
		return s.getByIDFn(ctx, id)
	}
	return nil, nil
}

func (s *stubJobRepo) GetByIDWithOffers(ctx context.Context, id string) (*model.Job, error) {
	if s.getByIDWithOffersFn != nil {
		return s.getByIDWithOffersFn(ctx, id)
	}
	return nil, nil
}

func (s *stubJobRepo) ListByCustomer(ctx context.Context, customerID string) ([]*model.Job, error) {
	if s.listByCustomerFn != nil {
		return s.listByCustomerFn(ctx, customerID)
	}
	return nil, nil
}

func (s *stubJobRepo) ListByTranslator(ctx context.Context, translatorID string) ([]*model.Job, error) {
	if s.listByTranslatorFn != nil {
		return s.listByTranslatorFn(ctx, translatorID)
	}
	return nil, nil
}

func (s *stubJobRepo) History(ctx context.Context, userID string, status model.JobStatus) ([]*model.Job, error) {
	if s.historyFn != nil {
		return s.historyFn(ctx, userID, status)
	}
	return nil, nil
}

func (s *stubJobRepo) List(ctx context.Context, filter *model.JobFilter) ([]*model.Job, error) {
	if s.listFn != nil {
		return s.listFn(ctx, filter)
	}
	return nil, nil
}

func (s *stubJobRepo) ListPendingByLanguages(ctx context.Context, pairs []string) ([]*model.Job, error) {
	if s.listPendingFn != nil {
		return s.listPendingFn(ctx, pairs)
	}
	return nil, nil
}

func (s *stubJobRepo) Transition(ctx context.Context, params core.TransitionParams) (*model.Job, error) {
	if s.transitionFn != nil {
		return s.transitionFn(ctx, params)
	}
	return nil, nil
}

func (s *stubJobRepo) UpdatePatch(ctx context.Context, id string, req *model.UpdateJobRequest) (*model.Job, error) {
	if s.updatePatchFn != nil {
		return s.updatePatchFn(ctx, id, req)
	}
	return nil, nil
}

func (s *stubJobRepo) ApplyTelemetry(ctx context.Context, id string, fields *model.TelemetryFields) (*model.Job, error) {
	if s.applyTelemetryFn != nil {
		return s.applyTelemetryFn(ctx, id, fields)
	}
	return nil, nil
}

func (s *stubJobRepo) ExpireStalePending(ctx context.Context, maxAge time.Duration, batchSize int) ([]string, error) {
	if s.expireStalePendingFn != nil {
		return s.expireStalePendingFn(ctx, maxAge, batchSize)
	}
	return nil, nil
}

func (s *stubJobRepo) Stats(ctx context.Context) (*model.JobStats, error) {
	if s.statsFn != nil {
		return s.statsFn(ctx)
	}
	return nil, nil
}

type stubOfferRepo struct {
	openRoundFn             func(ctx context.Context, jobID string, translatorIDs []string) ([]*model.TranslatorJobOffer, error)
	listByJobFn             func(ctx context.Context, jobID string) ([]*model.TranslatorJobOffer, error)
	closeRoundFn func(ctx context.Context, jobID string) (int64, error)
	declineFn    func(ctx context.Context, jobID, translatorID string) (*model.TranslatorJobOffer, error)
}

func (s *stubOfferRepo) OpenRound(ctx context.Context, jobID string, translatorIDs []string) ([]*model.TranslatorJobOffer, error) {
	if s.openRoundFn != nil {
		return s.openRoundFn(ctx, jobID, translatorIDs)
	}
	return nil, nil
}

func (s *stubOfferRepo) ListByJob(ctx context.Context, jobID string) ([]*model.TranslatorJobOffer, error) {
	if s.listByJobFn != nil {
		return s.listByJobFn(ctx, jobID)
	}
	return nil, nil
}

func (s *stubOfferRepo) CloseRound(ctx context.Context, jobID string) (int64, error) {
	if s.closeRoundFn != nil {
		return s.closeRoundFn(ctx, jobID)
	}
	return 0, nil
}

func (s *stubOfferRepo) Decline(ctx context.Context, jobID, translatorID string) (*model.TranslatorJobOffer, error) {
	if s.declineFn != nil {
		return s.declineFn(ctx, jobID, translatorID)
	}
	return nil, nil
}

type stubAssignmentStore struct {
	acceptFn func(ctx context.Context, jobID, translatorID string) (*model.AcceptResult, error)
	calls    int
}

func (s *stubAssignmentStore) Accept(ctx context.Context, jobID, translatorID string) (*model.AcceptResult, error) {
	s.calls++
	if s.acceptFn != nil {
		return s.acceptFn(ctx, jobID, translatorID)
	}
	return &model.AcceptResult{Outcome: model.AcceptWon}, nil
}

type stubAttemptRepo struct {
	recordFn func(ctx context.Context, attempt *model.NotificationAttempt) (*model.NotificationAttempt, error)
	recorded []*model.NotificationAttempt
}

func (s *stubAttemptRepo) Record(ctx context.Context, attempt *model.NotificationAttempt) (*model.NotificationAttempt, error) {
	s.recorded = append(s.recorded, attempt)
	if s.recordFn != nil {
		return s.recordFn(ctx, attempt)
	}
	return attempt, nil
}

func (s *stubAttemptRepo) ListByJob(ctx context.Context, jobID string) ([]*model.NotificationAttempt, error) {
	return s.recorded, nil
}

type stubEligibility struct {
	eligibleFn func(ctx context.Context, languagePair string) ([]string, error)
	pairsFn    func(ctx context.Context, translatorID string) ([]string, error)
}

func (s *stubEligibility) EligibleTranslators(ctx context.Context, languagePair string) ([]string, error) {
	if s.eligibleFn != nil {
		return s.eligibleFn(ctx, languagePair)
	}
	return nil, nil
}

func (s *stubEligibility) LanguagePairs(ctx context.Context, translatorID string) ([]string, error) {
	if s.pairsFn != nil {
		return s.pairsFn(ctx, translatorID)
	}
	return nil, nil
}

type stubPushGateway struct {
	sendFn func(ctx context.Context, req *model.PushRequest) error
	sent   []*model.PushRequest
}

func (s *stubPushGateway) Send(ctx context.Context, req *model.PushRequest) error {
	s.sent = append(s.sent, req)
	if s.sendFn != nil {
		return s.sendFn(ctx, req)
	}
	return nil
}

type stubSMSGateway struct {
	sendFn func(ctx context.Context, req *model.SMSRequest) error
	sent   []*model.SMSRequest
}

func (s *stubSMSGateway) Send(ctx context.Context, req *model.SMSRequest) error {
	s.sent = append(s.sent, req)
	if s.sendFn != nil {
		return s.sendFn(ctx, req)
	}
	return nil
}
