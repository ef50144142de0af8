package data

import (
	"database/sql"
	"log/slog"
	"time"

	"github.com/dtapi/booking-engine/internal/domain/model"
)

// RepoConfig holds configuration options shared by the data repositories.
type RepoConfig struct {
	Logger       *slog.Logger
	TimeProvider TimeProvider
}

// JobRepo provides database operations for job management.
type JobRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
	logger       *slog.Logger
}

// NewJobRepo creates a new JobRepo instance with the given database connection and configuration.
func NewJobRepo(db *sql.DB, cfg RepoConfig) *JobRepo {
	tp := cfg.TimeProvider
	if tp == nil {
		tp = &RealTimeProvider{}
	}

	return &JobRepo{
		DB:           db,
		timeProvider: tp,
		logger:       cfg.Logger,
	}
}

const jobColumns = `
  id,
  status,
  customer_id,
  assigned_translator_id,
  language_pair,
  remarks,
  distance_km,
  duration_minutes,
  session_minutes,
  flagged,
  manually_handled,
  by_admin,
  admin_comment,
  cancel_reason,
  created_at,
  updated_at
`

type jobRowScanner interface {
	Scan(dest ...any) error
}

type jobRowData struct {
	assignedTranslatorID        sql.NullString
	remarks, adminComment       sql.NullString
	cancelReason                sql.NullString
	distanceKm                  sql.NullFloat64
	durationMinutes, sessionMin sql.NullInt64
}

func (d *jobRowData) scanInto(scanner jobRowScanner, job *model.Job) error {
	return scanner.Scan(
		&job.ID,
		&job.Status,
		&job.CustomerID,
		&d.assignedTranslatorID,
		&job.LanguagePair,
		&d.remarks,
		&d.distanceKm,
		&d.durationMinutes,
		&d.sessionMin,
		&job.Flagged,
		&job.ManuallyHandled,
		&job.ByAdmin,
		&d.adminComment,
		&d.cancelReason,
		&job.CreatedAt,
		&job.UpdatedAt,
	)
}

func (d *jobRowData) apply(job *model.Job) {
	job.AssignedTranslatorID = cloneNullableString(d.assignedTranslatorID)
	job.Remarks = d.remarks.String
	job.AdminComment = d.adminComment.String
	job.CancelReason = d.cancelReason.String
	if d.distanceKm.Valid {
		v := d.distanceKm.Float64
		job.DistanceKm = &v
	}
	if d.durationMinutes.Valid {
		v := int(d.durationMinutes.Int64)
		job.DurationMinutes = &v
	}
	if d.sessionMin.Valid {
		v := int(d.sessionMin.Int64)
		job.SessionMinutes = &v
	}
}

func scanJobFromRow(scanner jobRowScanner) (*model.Job, error) {
	job := &model.Job{}
	var data jobRowData
	if err := data.scanInto(scanner, job); err != nil {
		return nil, err
	}

	data.apply(job)
	return job, nil
}

func cloneNullableString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func cloneNullableTime(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time.UTC()
	return &t
}
