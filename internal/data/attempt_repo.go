package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/dtapi/booking-engine/internal/domain/model"
)

// AttemptRepo provides database operations for the notification attempt log.
// The log is append-only: rows are inserted, never updated or deleted.
type AttemptRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
	logger       *slog.Logger
}

// NewAttemptRepo creates a new AttemptRepo instance.
func NewAttemptRepo(db *sql.DB, cfg RepoConfig) *AttemptRepo {
	tp := cfg.TimeProvider
	if tp == nil {
		tp = &RealTimeProvider{}
	}

	return &AttemptRepo{
		DB:           db,
		timeProvider: tp,
		logger:       cfg.Logger,
	}
}

const attemptColumns = `
  id,
  job_id,
  channel,
  recipient_id,
  sent,
  error_detail,
  attempted_at
`

// Record appends one delivery attempt to the log.
func (r *AttemptRepo) Record(
	ctx context.Context,
	attempt *model.NotificationAttempt,
) (*model.NotificationAttempt, error) {
	if attempt == nil {
		return nil, errors.New("attempt is required")
	}

	attemptedAt := attempt.AttemptedAt
	if attemptedAt.IsZero() {
		attemptedAt = r.timeProvider.Now()
	}

	row := r.DB.QueryRowContext(ctx, `
		INSERT INTO notification_attempts(id, job_id, channel, recipient_id, sent, error_detail, attempted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+attemptColumns,
		uuid.NewString(),
		attempt.JobID,
		attempt.Channel,
		attempt.RecipientID,
		attempt.Sent,
		attempt.ErrorDetail,
		attemptedAt.UTC(),
	)

	stored, err := scanAttemptFromRow(row)
	if err != nil {
		return nil, fmt.Errorf("record attempt: %w", err)
	}
	return stored, nil
}

// ListByJob returns all attempts for a job, oldest first.
func (r *AttemptRepo) ListByJob(ctx context.Context, jobID string) ([]*model.NotificationAttempt, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT `+attemptColumns+`
		FROM notification_attempts
		WHERE job_id = $1
		ORDER BY attempted_at ASC
	`, jobID)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var attempts []*model.NotificationAttempt
	for rows.Next() {
		attempt, scanErr := scanAttemptFromRow(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("scan attempt: %w", scanErr)
		}
		attempts = append(attempts, attempt)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, rowsErr
	}
	return attempts, nil
}

type attemptRowScanner interface {
	Scan(dest ...any) error
}

func scanAttemptFromRow(scanner attemptRowScanner) (*model.NotificationAttempt, error) {
	attempt := &model.NotificationAttempt{}
	var errorDetail sql.NullString
	if err := scanner.Scan(
		&attempt.ID,
		&attempt.JobID,
		&attempt.Channel,
		&attempt.RecipientID,
		&attempt.Sent,
		&errorDetail,
		&attempt.AttemptedAt,
	); err != nil {
		return nil, err
	}
	attempt.ErrorDetail = cloneNullableString(errorDetail)
	return attempt, nil
}
