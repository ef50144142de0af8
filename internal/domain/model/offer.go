package model

import "time"

// OfferStatus represents the state of one translator's candidacy for a job.
type OfferStatus string

const (
	// OfferStatusOffered indicates the translator may still accept the job.
	OfferStatusOffered OfferStatus = "offered"
	// OfferStatusAccepted indicates the translator won the job. At most one
	// offer per job ever reaches this status.
	OfferStatusAccepted OfferStatus = "accepted"
	// OfferStatusDeclined indicates the translator turned the job down.
	OfferStatusDeclined OfferStatus = "declined"
	// OfferStatusExpired indicates the offer round closed without this
	// translator accepting.
	OfferStatusExpired OfferStatus = "expired"
)

// Valid returns true if the OfferStatus is a known status.
func (s OfferStatus) Valid() bool {
	switch s {
	case OfferStatusOffered, OfferStatusAccepted, OfferStatusDeclined, OfferStatusExpired:
		return true
	}
	return false
}

// TranslatorJobOffer represents one translator's candidacy for a pending job.
type TranslatorJobOffer struct {
	ID           string      `json:"id"                     db:"id"`
	JobID        string      `json:"job_id"                 db:"job_id"`
	TranslatorID string      `json:"translator_id"          db:"translator_id"`
	Status       OfferStatus `json:"status"                 db:"status"`
	OfferedAt    time.Time   `json:"offered_at"             db:"offered_at"`
	RespondedAt  *time.Time  `json:"responded_at,omitempty" db:"responded_at"`
}

// AcceptOutcome classifies the result of a translator's accept attempt.
type AcceptOutcome string

const (
	// AcceptWon means this translator's claim succeeded.
	AcceptWon AcceptOutcome = "won"
	// AcceptAlreadyTaken means another translator claimed the job first.
	// This is an expected race outcome, not a failure.
	AcceptAlreadyTaken AcceptOutcome = "already_taken"
	// AcceptNotAvailable means the job is not open for acceptance.
	AcceptNotAvailable AcceptOutcome = "not_available"
)

// AcceptResult is the outcome of an accept attempt. Job is populated only
// when the outcome is AcceptWon.
type AcceptResult struct {
	Outcome AcceptOutcome `json:"outcome"`
	Job     *Job          `json:"job,omitempty"`
}
