package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dtapi/booking-engine/config"
	"github.com/dtapi/booking-engine/internal/domain/model"
)

func newDispatchService(push *stubPushGateway, sms *stubSMSGateway, attempts *stubAttemptRepo) *DispatchService {
	gateways := DispatchGateways{}
	if push != nil {
		gateways.Push = push
	}
	if sms != nil {
		gateways.SMS = sms
	}
	return NewDispatchService(DispatchServiceOptions{
		Gateways: gateways,
		Attempts: attempts,
		Config:   config.DispatchConfig{},
	})
}

func TestResolveChannel(t *testing.T) {
	assert.Equal(t, model.ChannelPush, resolveChannel(model.ChannelHintDefault))
	assert.Equal(t, model.ChannelPush, resolveChannel(""))
	assert.Equal(t, model.ChannelPush, resolveChannel("carrier-pigeon"))
	assert.Equal(t, model.ChannelSMS, resolveChannel("sms"))
}

func TestDispatchServiceNotifyJobOffer(t *testing.T) {
	ctx := context.Background()
	job := &model.Job{ID: "job-1", Status: model.JobStatusPending, LanguagePair: "de-ar"}

	t.Run("delivers to every translator in the round", func(t *testing.T) {
		push := &stubPushGateway{}
		attempts := &stubAttemptRepo{}
		svc := newDispatchService(push, nil, attempts)

		result := svc.NotifyJobOffer(ctx, job, []string{"tr-1", "tr-2", "tr-3"}, model.ChannelHintDefault)

		assert.Equal(t, model.DispatchSent, result.Status)
		assert.Equal(t, 3, result.Delivered)
		assert.Zero(t, result.Failed)
		assert.Len(t, push.sent, 3)
		assert.Len(t, attempts.recorded, 3)
	})

	t.Run("one gateway fault does not block the rest", func(t *testing.T) {
		push := &stubPushGateway{}
		push.sendFn = func(_ context.Context, req *model.PushRequest) error {
			if req.RecipientID == "tr-2" {
				return errors.New("device token expired")
			}
			return nil
		}
		attempts := &stubAttemptRepo{}
		svc := newDispatchService(push, nil, attempts)

		result := svc.NotifyJobOffer(ctx, job, []string{"tr-1", "tr-2", "tr-3"}, model.ChannelHintDefault)

		assert.Equal(t, model.DispatchSent, result.Status)
		assert.Equal(t, 2, result.Delivered)
		assert.Equal(t, 1, result.Failed)
		require.Len(t, attempts.recorded, 3)

		var failed int
		for _, attempt := range attempts.recorded {
			if !attempt.Sent {
				failed++
				require.NotNil(t, attempt.ErrorDetail)
				assert.Contains(t, *attempt.ErrorDetail, "device token expired")
			}
		}
		assert.Equal(t, 1, failed)
	})

	t.Run("all failures surface the last error detail", func(t *testing.T) {
		push := &stubPushGateway{
			sendFn: func(context.Context, *model.PushRequest) error {
				return errors.New("provider unreachable")
			},
		}
		svc := newDispatchService(push, nil, &stubAttemptRepo{})

		result := svc.NotifyJobOffer(ctx, job, []string{"tr-1", "tr-2"}, model.ChannelHintDefault)

		assert.Equal(t, model.DispatchFailed, result.Status)
		assert.Zero(t, result.Delivered)
		assert.Equal(t, 2, result.Failed)
		assert.Contains(t, result.ErrorDetail, "provider unreachable")
	})

	t.Run("sms hint routes through the sms gateway", func(t *testing.T) {
		push := &stubPushGateway{}
		sms := &stubSMSGateway{}
		svc := newDispatchService(push, sms, &stubAttemptRepo{})

		result := svc.NotifyJobOffer(ctx, job, []string{"tr-1"}, "sms")

		assert.Equal(t, model.ChannelSMS, result.Channel)
		assert.Len(t, sms.sent, 1)
		assert.Empty(t, push.sent)
	})

	t.Run("unconfigured gateway is a failed dispatch, not an error", func(t *testing.T) {
		attempts := &stubAttemptRepo{}
		svc := newDispatchService(nil, nil, attempts)

		result := svc.NotifyJobOffer(ctx, job, []string{"tr-1"}, model.ChannelHintDefault)

		assert.Equal(t, model.DispatchFailed, result.Status)
		assert.Contains(t, result.ErrorDetail, "not configured")
		require.Len(t, attempts.recorded, 1)
		assert.False(t, attempts.recorded[0].Sent)
	})

	t.Run("empty round dispatches nothing", func(t *testing.T) {
		push := &stubPushGateway{}
		svc := newDispatchService(push, nil, &stubAttemptRepo{})

		result := svc.NotifyJobOffer(ctx, job, nil, model.ChannelHintDefault)

		assert.Equal(t, model.DispatchFailed, result.Status)
		assert.Empty(t, push.sent)
	})
}

func TestDispatchServiceResend(t *testing.T) {
	ctx := context.Background()
	job := &model.Job{ID: "job-1", Status: model.JobStatusAssigned, LanguagePair: "de-ar"}

	t.Run("resend push targets one recipient", func(t *testing.T) {
		push := &stubPushGateway{}
		svc := newDispatchService(push, nil, &stubAttemptRepo{})

		result := svc.ResendPush(ctx, job, "tr-1")

		assert.True(t, result.Succeeded())
		assert.Equal(t, 1, result.Delivered)
		require.Len(t, push.sent, 1)
		assert.Equal(t, "tr-1", push.sent[0].RecipientID)
		assert.Equal(t, "job-1", push.sent[0].JobID)
	})

	t.Run("resend sms uses the sms gateway", func(t *testing.T) {
		sms := &stubSMSGateway{}
		svc := newDispatchService(nil, sms, &stubAttemptRepo{})

		result := svc.ResendSMS(ctx, job, "tr-1")

		assert.True(t, result.Succeeded())
		assert.Equal(t, model.ChannelSMS, result.Channel)
		require.Len(t, sms.sent, 1)
	})

	t.Run("attempt log failure does not mask the delivery outcome", func(t *testing.T) {
		push := &stubPushGateway{}
		attempts := &stubAttemptRepo{
			recordFn: func(context.Context, *model.NotificationAttempt) (*model.NotificationAttempt, error) {
				return nil, errors.New("insert failed")
			},
		}
		svc := newDispatchService(push, nil, attempts)

		result := svc.ResendPush(ctx, job, "tr-1")

		assert.True(t, result.Succeeded())
	})
}
