package data

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/dtapi/booking-engine/internal/data/pgxutil"
	"github.com/dtapi/booking-engine/internal/domain/model"
)

// Create inserts a new job in the created status. Publication to pending is a
// separate lifecycle transition owned by the service layer.
func (r *JobRepo) Create(ctx context.Context, req *model.CreateJobRequest) (*model.Job, error) {
	if req == nil {
		return nil, errors.New("create job request is required")
	}
	if validateErr := req.Validate(); validateErr != nil {
		return nil, validateErr
	}

	now := r.timeProvider.Now().UTC()
	var job *model.Job
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, qerr := conn.Query(ctx, `
			INSERT INTO jobs(id, status, customer_id, language_pair, remarks, created_at, updated_at)
			VALUES ($1, 'created', $2, $3, $4, $5, $5)
			RETURNING `+jobColumns,
			uuid.NewString(),
			req.CustomerID,
			strings.TrimSpace(req.LanguagePair),
			strings.TrimSpace(req.Remarks),
			now,
		)
		if qerr != nil {
			return fmt.Errorf("insert job: %w", qerr)
		}
		defer rows.Close()
		var cerr error
		job, cerr = collectJobFromRows(rows)
		return cerr
	})
	if err != nil {
		return nil, err
	}
	return job, nil
}

// GetByID retrieves a job by its ID.
func (r *JobRepo) GetByID(ctx context.Context, id string) (*model.Job, error) {
	var job *model.Job
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, qerr := conn.Query(ctx, `
			SELECT `+jobColumns+`
			FROM jobs
			WHERE id = $1
		`, id)
		if qerr != nil {
			return qerr
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
		return nil, fmt.Errorf("get job: %w", err)
	}
	return job, nil
}

// GetByIDWithOffers retrieves a job together with all of its offer rows.
func (r *JobRepo) GetByIDWithOffers(ctx context.Context, id string) (*model.Job, error) {
	job, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	offers, err := r.offersByJob(ctx, id)
	if err != nil {
		return nil, err
	}
	job.Offers = offers
	return job, nil
}

func (r *JobRepo) offersByJob(ctx context.Context, jobID string) ([]*model.TranslatorJobOffer, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT `+offerColumns+`
		FROM translator_job_offers
		WHERE job_id = $1
		ORDER BY offered_at ASC
	`, jobID)
	if err != nil {
		return nil, fmt.Errorf("list offers for job: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var offers []*model.TranslatorJobOffer
	for rows.Next() {
		offer, scanErr := scanOfferFromRow(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("scan offer: %w", scanErr)
		}
		offers = append(offers, offer)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, rowsErr
	}
	return offers, nil
}

// ListByCustomer returns all jobs created by the given customer, newest first.
func (r *JobRepo) ListByCustomer(ctx context.Context, customerID string) ([]*model.Job, error) {
	return r.queryJobs(ctx, `
		SELECT `+jobColumns+`
		FROM jobs
		WHERE customer_id = $1
		ORDER BY created_at DESC
	`, customerID)
}

// ListByTranslator returns jobs currently assigned to the given translator,
// newest first.
func (r *JobRepo) ListByTranslator(ctx context.Context, translatorID string) ([]*model.Job, error) {
	return r.queryJobs(ctx, `
		SELECT `+jobColumns+`
		FROM jobs
		WHERE assigned_translator_id = $1
		  AND status IN ('assigned', 'started')
		ORDER BY created_at DESC
	`, translatorID)
}

// History returns terminal-status jobs the user participated in as either
// customer or translator. A non-empty status narrows the result to that
// single terminal status.
func (r *JobRepo) History(ctx context.Context, userID string, status model.JobStatus) ([]*model.Job, error) {
	query := `
		SELECT ` + jobColumns + `
		FROM jobs
		WHERE (customer_id = $1 OR assigned_translator_id = $1)
		  AND status IN ('completed', 'cancelled', 'withdrawn', 'not_carried_out', 'expired')`
	args := []any{userID}
	if status != "" {
		args = append(args, status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	query += ` ORDER BY updated_at DESC`
	return r.queryJobs(ctx, query, args...)
}

// ListPendingByLanguages returns pending jobs matching any of the given
// language pairs. An empty pair list yields no jobs.
func (r *JobRepo) ListPendingByLanguages(ctx context.Context, pairs []string) ([]*model.Job, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	return r.queryJobs(ctx, `
		SELECT `+jobColumns+`
		FROM jobs
		WHERE status = 'pending'
		  AND language_pair = ANY($1)
		ORDER BY created_at ASC
	`, pairs)
}

// List returns jobs matching the filter. Used by the admin overview.
func (r *JobRepo) List(ctx context.Context, filter *model.JobFilter) ([]*model.Job, error) {
	query, args := buildListQuery(filter)
	return r.queryJobs(ctx, query, args...)
}

// buildListQuery assembles the filtered admin listing statement.
func buildListQuery(filter *model.JobFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, val any) {
		args = append(args, val)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if filter != nil {
		if filter.Status != "" {
			add("status = $%d", filter.Status)
		}
		if filter.CustomerID != "" {
			add("customer_id = $%d", filter.CustomerID)
		}
		if filter.TranslatorID != "" {
			add("assigned_translator_id = $%d", filter.TranslatorID)
		}
		if filter.LanguagePair != "" {
			add("language_pair = $%d", filter.LanguagePair)
		}
	}

	query := `SELECT ` + jobColumns + ` FROM jobs`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY created_at DESC`

	limit, offset := 100, 0
	if filter != nil {
		if filter.Limit > 0 {
			limit = filter.Limit
		}
		if filter.Offset > 0 {
			offset = filter.Offset
		}
	}
	args = append(args, limit)
	query += fmt.Sprintf(" LIMIT $%d", len(args))
	args = append(args, offset)
	query += fmt.Sprintf(" OFFSET $%d", len(args))

	return query, args
}

func (r *JobRepo) queryJobs(ctx context.Context, query string, args ...any) ([]*model.Job, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var jobs []*model.Job
	for rows.Next() {
		job, scanErr := scanJobFromRow(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("scan job: %w", scanErr)
		}
		jobs = append(jobs, job)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, rowsErr
	}
	return jobs, nil
}

// Stats returns counts of jobs per lifecycle status.
func (r *JobRepo) Stats(ctx context.Context) (*model.JobStats, error) {
	var s model.JobStats
	err := r.DB.QueryRowContext(ctx, `
  SELECT
    count(*) FILTER (WHERE status = 'pending')   AS pending,
    count(*) FILTER (WHERE status = 'assigned')  AS assigned,
    count(*) FILTER (WHERE status = 'started')   AS started,
    count(*) FILTER (WHERE status = 'completed') AS completed,
    count(*) FILTER (WHERE status = 'cancelled') AS cancelled,
    count(*) FILTER (WHERE status = 'expired')   AS expired
  FROM jobs
  `).Scan(
		&s.Pending,
		&s.Assigned,
		&s.Started,
		&s.Completed,
		&s.Cancelled,
		&s.Expired,
	)
	if err != nil {
		return nil, fmt.Errorf("get job stats: %w", err)
	}
	return &s, nil
}

// collectJobFromRows collects a single job from pgx rows.
func collectJobFromRows(rows pgx.Rows) (*model.Job, error) {
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, pgx.ErrNoRows
	}

	job, err := scanJobFromRow(rows)
	if err != nil {
		return nil, err
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, rowsErr
	}
	return job, nil
}
