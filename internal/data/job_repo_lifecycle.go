package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/dtapi/booking-engine/internal/core"
	"github.com/dtapi/booking-engine/internal/data/pgxutil"
	"github.com/dtapi/booking-engine/internal/domain/model"
)

// Transition performs a compare-and-set status update. The UPDATE only
// matches while the job is still in one of params.From, so concurrent
// lifecycle writers cannot clobber each other: exactly one CAS wins, the
// rest match zero rows.
func (r *JobRepo) Transition(ctx context.Context, params core.TransitionParams) (*model.Job, error) {
	if strings.TrimSpace(params.JobID) == "" {
		return nil, errors.New("job id is required")
	}
	if len(params.From) == 0 {
		return nil, errors.New("transition requires at least one source status")
	}
	if !params.To.Valid() {
		return nil, fmt.Errorf("invalid target status: %s", params.To)
	}

	query, args := r.buildTransitionQuery(params)

	var job *model.Job
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, qerr := conn.Query(ctx, query, args...)
		if qerr != nil {
			return fmt.Errorf("transition job: %w", qerr)
		}
		defer rows.Close()
		var cerr error
		job, cerr = collectJobFromRows(rows)
		return cerr
	})
	if err == nil {
		return job, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	// CAS matched no rows. Re-read to tell a vanished job from a stale status.
	if _, getErr := r.GetByID(ctx, params.JobID); getErr != nil {
		return nil, getErr
	}
	return nil, ErrStaleStatus
}

func (r *JobRepo) buildTransitionQuery(params core.TransitionParams) (string, []any) {
	from := make([]string, len(params.From))
	for i, s := range params.From {
		from[i] = string(s)
	}

	sets := []string{"status = $2", "updated_at = $3"}
	args := []any{params.JobID, params.To, r.timeProvider.Now().UTC()}

	if params.AssignedTranslatorID != nil {
		args = append(args, *params.AssignedTranslatorID)
		sets = append(sets, fmt.Sprintf("assigned_translator_id = $%d", len(args)))
	} else if params.ClearAssignment {
		sets = append(sets, "assigned_translator_id = NULL")
	}
	if params.CancelReason != nil {
		args = append(args, *params.CancelReason)
		sets = append(sets, fmt.Sprintf("cancel_reason = $%d", len(args)))
	}
	if params.SessionMinutes != nil {
		args = append(args, *params.SessionMinutes)
		sets = append(sets, fmt.Sprintf("session_minutes = $%d", len(args)))
	}

	args = append(args, from)
	query := fmt.Sprintf(`
		UPDATE jobs
		SET %s
		WHERE id = $1 AND status = ANY($%d)
		RETURNING %s`, strings.Join(sets, ", "), len(args), jobColumns)

	return query, args
}

// Advisory lock namespace for ExpireStalePending so concurrent sweeper
// instances do not double-process the same batch.
const advisoryLockExpireMajor int64 = 2001

// ExpireStalePending marks pending jobs older than maxAge as expired and
// closes their open offers. Processes up to batchSize jobs per call to
// prevent long locks. Returns the IDs of the jobs expired.
func (r *JobRepo) ExpireStalePending(
	ctx context.Context,
	maxAge time.Duration,
	batchSize int,
) ([]string, error) {
	if batchSize <= 0 {
		return nil, errors.New("batchSize must be positive")
	}

	var expired []string
	err := pgxutil.WithSQLTx(ctx, r.DB, pgxutil.SQLTxConfig{
		Fn: func(tx *sql.Tx) error {
			var locked bool
			if err := tx.QueryRowContext(ctx,
				"SELECT pg_try_advisory_xact_lock($1::integer, 0)",
				advisoryLockExpireMajor,
			).Scan(&locked); err != nil {
				return fmt.Errorf("acquire advisory lock: %w", err)
			}
			if !locked {
				return nil
			}

			currentTime := r.timeProvider.Now().UTC()
			cutoff := currentTime.Add(-maxAge)

			rows, err := tx.QueryContext(ctx, `
				WITH stale AS (
					SELECT id FROM jobs
					WHERE status = 'pending' AND created_at < $1
					ORDER BY created_at ASC
					LIMIT $2
					FOR UPDATE SKIP LOCKED
				)
				UPDATE jobs j
				SET status = 'expired', updated_at = $3
				FROM stale
				WHERE j.id = stale.id
				RETURNING j.id
			`, cutoff, batchSize, currentTime)
			if err != nil {
				return fmt.Errorf("expire stale pending: %w", err)
			}
			defer func() { _ = rows.Close() }()

			for rows.Next() {
				var id string
				if scanErr := rows.Scan(&id); scanErr != nil {
					return fmt.Errorf("scan expired id: %w", scanErr)
				}
				expired = append(expired, id)
			}
			if rowsErr := rows.Err(); rowsErr != nil {
				return rowsErr
			}
			if len(expired) == 0 {
				return nil
			}

			if _, err := tx.ExecContext(ctx, `
				UPDATE translator_job_offers
				SET status = 'expired', responded_at = $2
				WHERE job_id = ANY($1) AND status = 'offered'
			`, expired, currentTime); err != nil {
				return fmt.Errorf("expire open offers: %w", err)
			}
			return nil
		},
	})
	if err != nil {
		return nil, err
	}
	return expired, nil
}
