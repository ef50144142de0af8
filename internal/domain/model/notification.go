package model

import "time"

// Channel identifies a notification delivery channel.
type Channel string

const (
	// ChannelPush is the push notification channel.
	ChannelPush Channel = "push"
	// ChannelSMS is the SMS text message channel.
	ChannelSMS Channel = "sms"
)

// ChannelHintDefault is the wildcard channel hint meaning "use default
// channel selection" (push).
const ChannelHintDefault = "*"

// NotificationAttempt is one delivery try against a gateway. Attempts are
// append-only audit records and are never mutated.
type NotificationAttempt struct {
	ID          string    `json:"id"                     db:"id"`
	JobID       string    `json:"job_id"                 db:"job_id"`
	Channel     Channel   `json:"channel"                db:"channel"`
	RecipientID string    `json:"recipient_id"           db:"recipient_id"`
	Sent        bool      `json:"sent"                   db:"sent"`
	ErrorDetail *string   `json:"error_detail,omitempty" db:"error_detail"`
	AttemptedAt time.Time `json:"attempted_at"           db:"attempted_at"`
}

// DispatchStatus classifies the overall outcome of a dispatch call.
type DispatchStatus string

const (
	// DispatchSent means at least one recipient was delivered to.
	DispatchSent DispatchStatus = "sent"
	// DispatchFailed means no recipient could be delivered to.
	DispatchFailed DispatchStatus = "failed"
)

// DispatchResult is the structured outcome of a notification dispatch.
// Gateway faults never escape the dispatcher as errors; they surface here.
type DispatchResult struct {
	Status      DispatchStatus `json:"status"`
	Channel     Channel        `json:"channel"`
	Delivered   int            `json:"delivered"`
	Failed      int            `json:"failed"`
	ErrorDetail string         `json:"error_detail,omitempty"`
}

// Succeeded reports whether the dispatch reached at least one recipient.
func (r DispatchResult) Succeeded() bool {
	return r.Status == DispatchSent
}

// PushRequest is a push delivery addressed to one recipient.
type PushRequest struct {
	RecipientID string `json:"recipient_id"`
	Title       string `json:"title"`
	Body        string `json:"body"`
	JobID       string `json:"job_id"`
}

// SMSRequest is an SMS delivery addressed to one recipient.
type SMSRequest struct {
	RecipientID string `json:"recipient_id"`
	Body        string `json:"body"`
	JobID       string `json:"job_id"`
}
