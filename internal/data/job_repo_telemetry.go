package data

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/dtapi/booking-engine/internal/data/pgxutil"
	"github.com/dtapi/booking-engine/internal/domain/model"
)

// UpdatePatch applies a partial edit of the request fields, leaving nil
// fields untouched.
func (r *JobRepo) UpdatePatch(
	ctx context.Context,
	id string,
	req *model.UpdateJobRequest,
) (*model.Job, error) {
	if req == nil || req.Empty() {
		return r.GetByID(ctx, id)
	}

	sets := []string{"updated_at = $2"}
	args := []any{id, r.timeProvider.Now().UTC()}

	if req.LanguagePair != nil {
		args = append(args, strings.TrimSpace(*req.LanguagePair))
		sets = append(sets, fmt.Sprintf("language_pair = $%d", len(args)))
	}
	if req.Remarks != nil {
		args = append(args, strings.TrimSpace(*req.Remarks))
		sets = append(sets, fmt.Sprintf("remarks = $%d", len(args)))
	}

	query := fmt.Sprintf(`
		UPDATE jobs
		SET %s
		WHERE id = $1
		RETURNING %s`, strings.Join(sets, ", "), jobColumns)

	var job *model.Job
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, qerr := conn.Query(ctx, query, args...)
		if qerr != nil {
			return fmt.Errorf("update job: %w", qerr)
		}
		defer rows.Close()
		var cerr error
		job, cerr = collectJobFromRows(rows)
		return cerr
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, err
	}
	return job, nil
}

// ApplyTelemetry writes the measurement group and the flag group, each in a
// single statement, inside one transaction. A group with no input data is
// skipped entirely so a measurement-only update never perturbs flag state.
func (r *JobRepo) ApplyTelemetry(
	ctx context.Context,
	id string,
	fields *model.TelemetryFields,
) (*model.Job, error) {
	if fields == nil {
		return nil, errors.New("telemetry fields are required")
	}

	var job *model.Job
	err := pgxutil.WithPgxTx(ctx, r.DB, pgxutil.TxConfig{
		Fn: func(tx pgx.Tx) error {
			if fields.HasTelemetry() {
				if err := r.applyMeasurements(ctx, tx, id, fields); err != nil {
					return err
				}
			}
			if fields.HasFlags() {
				if err := r.applyFlags(ctx, tx, id, fields); err != nil {
					return err
				}
			}

			rows, qerr := tx.Query(ctx, `
				SELECT `+jobColumns+`
				FROM jobs
				WHERE id = $1
			`, id)
			if qerr != nil {
				return fmt.Errorf("reload job: %w", qerr)
			}
			defer rows.Close()
			var cerr error
			job, cerr = collectJobFromRows(rows)
			return cerr
		},
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, err
	}
	return job, nil
}

func (r *JobRepo) applyMeasurements(
	ctx context.Context,
	tx pgx.Tx,
	id string,
	fields *model.TelemetryFields,
) error {
	sets := []string{"updated_at = $2"}
	args := []any{id, r.timeProvider.Now().UTC()}

	if fields.DistanceKm != nil {
		args = append(args, *fields.DistanceKm)
		sets = append(sets, fmt.Sprintf("distance_km = $%d", len(args)))
	}
	if fields.DurationMinutes != nil {
		args = append(args, *fields.DurationMinutes)
		sets = append(sets, fmt.Sprintf("duration_minutes = $%d", len(args)))
	}

	query := fmt.Sprintf("UPDATE jobs SET %s WHERE id = $1", strings.Join(sets, ", "))
	if _, err := tx.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("apply measurement group: %w", err)
	}
	return nil
}

// applyFlags writes all flag-group fields together. The booleans have no
// unchanged state once the group is touched; the session time rides along
// when supplied.
func (r *JobRepo) applyFlags(
	ctx context.Context,
	tx pgx.Tx,
	id string,
	fields *model.TelemetryFields,
) error {
	sets := []string{
		"updated_at = $2",
		"flagged = $3",
		"manually_handled = $4",
		"by_admin = $5",
		"admin_comment = $6",
	}
	args := []any{
		id,
		r.timeProvider.Now().UTC(),
		fields.Flagged,
		fields.ManuallyHandled,
		fields.ByAdmin,
		fields.AdminComment,
	}

	if fields.SessionMinutes != nil {
		args = append(args, *fields.SessionMinutes)
		sets = append(sets, fmt.Sprintf("session_minutes = $%d", len(args)))
	}

	query := fmt.Sprintf("UPDATE jobs SET %s WHERE id = $1", strings.Join(sets, ", "))
	if _, err := tx.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("apply flag group: %w", err)
	}
	return nil
}
