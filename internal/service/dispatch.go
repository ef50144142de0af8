package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dtapi/booking-engine/config"
	"github.com/dtapi/booking-engine/internal/core"
	"github.com/dtapi/booking-engine/internal/domain/model"
	"github.com/dtapi/booking-engine/pkg/metrics"
)

// DispatchGateways groups the outbound notification channels.
type DispatchGateways struct {
	Push core.PushGateway
	SMS  core.SMSGateway
}

// DispatchServiceOptions groups dependencies for DispatchService.
type DispatchServiceOptions struct {
	Gateways DispatchGateways
	Attempts core.AttemptRepository // Required: attempt log
	Config   config.DispatchConfig
	Logger   *slog.Logger // Optional: structured logger
}

// DispatchService fans job notifications out to translators. Gateway faults
// never escape as errors: every outcome is captured in the returned
// DispatchResult and the append-only attempt log, so a notification failure
// can never roll back or fail the booking write that triggered it.
type DispatchService struct {
	push     core.PushGateway
	sms      core.SMSGateway
	attempts core.AttemptRepository
	config   config.DispatchConfig
	logger   *slog.Logger
}

// NewDispatchService constructs a new DispatchService.
func NewDispatchService(opts DispatchServiceOptions) *DispatchService {
	if opts.Attempts == nil {
		panic("AttemptRepository is required")
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &DispatchService{
		push:     opts.Gateways.Push,
		sms:      opts.Gateways.SMS,
		attempts: opts.Attempts,
		config:   opts.Config,
		logger:   logger.With("component", "dispatch_service"),
	}
}

// resolveChannel maps a channel hint to a concrete channel. The wildcard
// hint and anything unrecognized fall back to push.
func resolveChannel(hint string) model.Channel {
	if hint == string(model.ChannelSMS) {
		return model.ChannelSMS
	}
	return model.ChannelPush
}

// NotifyJobOffer notifies each translator in the offer round that a job is
// available. Recipients are processed sequentially; one translator's gateway
// fault never blocks the rest of the round.
func (s *DispatchService) NotifyJobOffer(
	ctx context.Context,
	job *model.Job,
	translatorIDs []string,
	channelHint string,
) model.DispatchResult {
	channel := resolveChannel(channelHint)
	result := model.DispatchResult{Status: model.DispatchFailed, Channel: channel}

	if job == nil || len(translatorIDs) == 0 {
		return result
	}

	var lastDetail string
	for _, translatorID := range translatorIDs {
		if err := s.deliver(ctx, job, translatorID, channel); err != nil {
			result.Failed++
			lastDetail = err.Error()
			continue
		}
		result.Delivered++
	}

	if result.Delivered > 0 {
		result.Status = model.DispatchSent
	} else {
		result.ErrorDetail = lastDetail
	}

	s.logger.InfoContext(ctx, "job offer dispatched",
		"job_id", job.ID,
		"channel", channel,
		"delivered", result.Delivered,
		"failed", result.Failed,
	)
	return result
}

// NotifyAssignment tells the winning translator the job is theirs.
func (s *DispatchService) NotifyAssignment(
	ctx context.Context,
	job *model.Job,
	translatorID string,
) model.DispatchResult {
	return s.notifyOne(ctx, job, translatorID, model.ChannelPush)
}

// ResendPush re-pushes the job notification to one translator. Resends are
// decoupled per channel so operators can retry exactly the channel that
// failed.
func (s *DispatchService) ResendPush(
	ctx context.Context,
	job *model.Job,
	translatorID string,
) model.DispatchResult {
	return s.notifyOne(ctx, job, translatorID, model.ChannelPush)
}

// ResendSMS re-sends the job notification by SMS to one translator.
func (s *DispatchService) ResendSMS(
	ctx context.Context,
	job *model.Job,
	translatorID string,
) model.DispatchResult {
	return s.notifyOne(ctx, job, translatorID, model.ChannelSMS)
}

func (s *DispatchService) notifyOne(
	ctx context.Context,
	job *model.Job,
	translatorID string,
	channel model.Channel,
) model.DispatchResult {
	result := model.DispatchResult{Status: model.DispatchFailed, Channel: channel}
	if job == nil || translatorID == "" {
		return result
	}

	if err := s.deliver(ctx, job, translatorID, channel); err != nil {
		result.Failed = 1
		result.ErrorDetail = err.Error()
		return result
	}
	result.Status = model.DispatchSent
	result.Delivered = 1
	return result
}

// deliver performs one timeout-bounded gateway call and records the attempt.
func (s *DispatchService) deliver(
	ctx context.Context,
	job *model.Job,
	translatorID string,
	channel model.Channel,
) error {
	timeout := s.config.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	err := s.send(callCtx, job, translatorID, channel)
	metrics.DispatchDuration.WithLabelValues(string(channel)).Observe(time.Since(start).Seconds())

	attempt := &model.NotificationAttempt{
		JobID:       job.ID,
		Channel:     channel,
		RecipientID: translatorID,
		Sent:        err == nil,
	}
	outcome := "sent"
	if err != nil {
		detail := err.Error()
		attempt.ErrorDetail = &detail
		outcome = "failed"
		s.logger.WarnContext(ctx, "notification delivery failed",
			"job_id", job.ID,
			"channel", channel,
			"recipient_id", translatorID,
			"error", err,
		)
	}
	metrics.DispatchAttempts.WithLabelValues(string(channel), outcome).Inc()

	// The attempt log is audit data; a log write failure must not mask the
	// delivery outcome.
	if _, recordErr := s.attempts.Record(ctx, attempt); recordErr != nil {
		s.logger.ErrorContext(ctx, "record notification attempt failed",
			"job_id", job.ID,
			"channel", channel,
			"error", recordErr,
		)
	}

	return err
}

func (s *DispatchService) send(
	ctx context.Context,
	job *model.Job,
	translatorID string,
	channel model.Channel,
) error {
	switch channel {
	case model.ChannelSMS:
		if s.sms == nil {
			return fmt.Errorf("sms gateway not configured")
		}
		return s.sms.Send(ctx, &model.SMSRequest{
			RecipientID: translatorID,
			Body:        smsBody(job),
			JobID:       job.ID,
		})
	default:
		if s.push == nil {
			return fmt.Errorf("push gateway not configured")
		}
		return s.push.Send(ctx, &model.PushRequest{
			RecipientID: translatorID,
			Title:       "New interpreting job",
			Body:        pushBody(job),
			JobID:       job.ID,
		})
	}
}

func pushBody(job *model.Job) string {
	return fmt.Sprintf("A %s job is available.", job.LanguagePair)
}

func smsBody(job *model.Job) string {
	return fmt.Sprintf("A %s interpreting job is available. Open the app to accept.", job.LanguagePair)
}
