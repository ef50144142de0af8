// Package model defines the core data types and structures used throughout the booking engine.
package model

import (
	"errors"
	"strings"
	"time"
)

// JobStatus represents the current lifecycle status of a job.
type JobStatus string

const (
	// JobStatusCreated indicates a job has been stored but intake is not finished.
	JobStatusCreated JobStatus = "created"
	// JobStatusPending indicates a job is open for translators to accept.
	JobStatusPending JobStatus = "pending"
	// JobStatusAssigned indicates a translator has won the job.
	JobStatusAssigned JobStatus = "assigned"
	// JobStatusStarted indicates the interpreting session is in progress.
	JobStatusStarted JobStatus = "started"
	// JobStatusCompleted indicates the session ended normally.
	JobStatusCompleted JobStatus = "completed"
	// JobStatusCancelled indicates the job was cancelled after assignment.
	JobStatusCancelled JobStatus = "cancelled"
	// JobStatusWithdrawn indicates the customer withdrew the job before it ran.
	JobStatusWithdrawn JobStatus = "withdrawn"
	// JobStatusNotCarriedOut indicates the customer never called in.
	JobStatusNotCarriedOut JobStatus = "not_carried_out"
	// JobStatusExpired indicates no translator accepted before the deadline.
	JobStatusExpired JobStatus = "expired"
)

// Valid returns true if the JobStatus is a known status.
func (s JobStatus) Valid() bool {
	switch s {
	case JobStatusCreated, JobStatusPending, JobStatusAssigned, JobStatusStarted,
		JobStatusCompleted, JobStatusCancelled, JobStatusWithdrawn,
		JobStatusNotCarriedOut, JobStatusExpired:
		return true
	}
	return false
}

// Terminal returns true if no further lifecycle action except an admin reopen
// can move the job out of this status.
func (s JobStatus) Terminal() bool {
	switch s {
	case JobStatusCompleted, JobStatusCancelled, JobStatusWithdrawn,
		JobStatusNotCarriedOut, JobStatusExpired:
		return true
	}
	return false
}

// Job represents a single interpreting engagement between a customer and a translator.
type Job struct {
	ID                   string     `json:"id"                               db:"id"`
	Status               JobStatus  `json:"status"                           db:"status"`
	CustomerID           string     `json:"customer_id"                      db:"customer_id"`
	AssignedTranslatorID *string    `json:"assigned_translator_id,omitempty" db:"assigned_translator_id"`
	LanguagePair         string     `json:"language_pair"                    db:"language_pair"`
	Remarks              string     `json:"remarks,omitempty"                db:"remarks"`
	DistanceKm           *float64   `json:"distance_km,omitempty"            db:"distance_km"`
	DurationMinutes      *int       `json:"duration_minutes,omitempty"       db:"duration_minutes"`
	SessionMinutes       *int       `json:"session_minutes,omitempty"        db:"session_minutes"`
	Flagged              bool       `json:"flagged"                          db:"flagged"`
	ManuallyHandled      bool       `json:"manually_handled"                 db:"manually_handled"`
	ByAdmin              bool       `json:"by_admin"                         db:"by_admin"`
	AdminComment         string     `json:"admin_comment,omitempty"          db:"admin_comment"`
	CancelReason         string     `json:"cancel_reason,omitempty"          db:"cancel_reason"`
	CreatedAt            time.Time  `json:"created_at"                       db:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"                       db:"updated_at"`

	// Offers is populated on detail reads only.
	Offers []*TranslatorJobOffer `json:"offers,omitempty" db:"-"`
}

// CreateJobRequest represents a request to create a new job.
type CreateJobRequest struct {
	CustomerID   string `json:"customer_id"`
	LanguagePair string `json:"language_pair"`
	Remarks      string `json:"remarks,omitempty"`
}

// Validate validates the CreateJobRequest fields.
func (r *CreateJobRequest) Validate() error {
	if strings.TrimSpace(r.CustomerID) == "" {
		return errors.New("customer id is required")
	}
	if strings.TrimSpace(r.LanguagePair) == "" {
		return errors.New("language pair is required")
	}
	return nil
}

// UpdateJobRequest represents a partial update to a job's non-lifecycle fields.
// Nil pointers leave the stored field untouched.
type UpdateJobRequest struct {
	LanguagePair *string `json:"language_pair,omitempty"`
	Remarks      *string `json:"remarks,omitempty"`
}

// Empty reports whether the patch carries no changes.
func (r *UpdateJobRequest) Empty() bool {
	return r.LanguagePair == nil && r.Remarks == nil
}

// JobFilter narrows job listings for the admin view and history queries.
type JobFilter struct {
	Status       JobStatus `json:"status,omitempty"`
	CustomerID   string    `json:"customer_id,omitempty"`
	TranslatorID string    `json:"translator_id,omitempty"`
	LanguagePair string    `json:"language_pair,omitempty"`
	Limit        int       `json:"limit,omitempty"`
	Offset       int       `json:"offset,omitempty"`
}

// JobStats represents counts of jobs per lifecycle status.
type JobStats struct {
	Pending   int `json:"pending"`
	Assigned  int `json:"assigned"`
	Started   int `json:"started"`
	Completed int `json:"completed"`
	Cancelled int `json:"cancelled"`
	Expired   int `json:"expired"`
}
