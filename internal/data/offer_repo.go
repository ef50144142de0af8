package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/dtapi/booking-engine/internal/data/pgxutil"
	"github.com/dtapi/booking-engine/internal/domain/model"
)

// OfferRepo provides database operations for translator job offers.
type OfferRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
	logger       *slog.Logger
}

// NewOfferRepo creates a new OfferRepo instance.
func NewOfferRepo(db *sql.DB, cfg RepoConfig) *OfferRepo {
	tp := cfg.TimeProvider
	if tp == nil {
		tp = &RealTimeProvider{}
	}

	return &OfferRepo{
		DB:           db,
		timeProvider: tp,
		logger:       cfg.Logger,
	}
}

const offerColumns = `
  id,
  job_id,
  translator_id,
  status,
  offered_at,
  responded_at
`

type offerRowScanner interface {
	Scan(dest ...any) error
}

func scanOfferFromRow(scanner offerRowScanner) (*model.TranslatorJobOffer, error) {
	offer := &model.TranslatorJobOffer{}
	var respondedAt sql.NullTime
	if err := scanner.Scan(
		&offer.ID,
		&offer.JobID,
		&offer.TranslatorID,
		&offer.Status,
		&offer.OfferedAt,
		&respondedAt,
	); err != nil {
		return nil, err
	}
	offer.RespondedAt = cloneNullableTime(respondedAt)
	return offer, nil
}

// OpenRound inserts offered rows for the given translators. Translators that
// already hold a row for the job keep their existing row untouched, so a
// re-dispatch never resets a decline.
func (r *OfferRepo) OpenRound(
	ctx context.Context,
	jobID string,
	translatorIDs []string,
) ([]*model.TranslatorJobOffer, error) {
	if len(translatorIDs) == 0 {
		return nil, nil
	}

	now := r.timeProvider.Now().UTC()
	var offers []*model.TranslatorJobOffer
	err := pgxutil.WithPgxTx(ctx, r.DB, pgxutil.TxConfig{
		Fn: func(tx pgx.Tx) error {
			for _, translatorID := range translatorIDs {
				rows, qerr := tx.Query(ctx, `
					INSERT INTO translator_job_offers(id, job_id, translator_id, status, offered_at)
					VALUES ($1, $2, $3, 'offered', $4)
					ON CONFLICT (job_id, translator_id) DO NOTHING
					RETURNING `+offerColumns,
					uuid.NewString(), jobID, translatorID, now,
				)
				if qerr != nil {
					return fmt.Errorf("insert offer: %w", qerr)
				}
				for rows.Next() {
					offer, scanErr := scanOfferFromRow(rows)
					if scanErr != nil {
						rows.Close()
						return fmt.Errorf("scan offer: %w", scanErr)
					}
					offers = append(offers, offer)
				}
				rowsErr := rows.Err()
				rows.Close()
				if rowsErr != nil {
					return rowsErr
				}
			}
			return nil
		},
	})
	if err != nil {
		return nil, err
	}
	return offers, nil
}

// ListByJob returns all offers for a job ordered by age.
func (r *OfferRepo) ListByJob(ctx context.Context, jobID string) ([]*model.TranslatorJobOffer, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT `+offerColumns+`
		FROM translator_job_offers
		WHERE job_id = $1
		ORDER BY offered_at ASC
	`, jobID)
	if err != nil {
		return nil, fmt.Errorf("list offers: %w", err)
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

// CloseRound expires the offered and accepted rows of a job's current offer
// round and returns the number of rows closed. Declined rows keep their
// status; they are already terminal and carry history. Clearing the accepted
// row frees the one-accepted-per-job guard index for the next round.
func (r *OfferRepo) CloseRound(ctx context.Context, jobID string) (int64, error) {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE translator_job_offers
		SET status = 'expired', responded_at = $2
		WHERE job_id = $1 AND status IN ('offered', 'accepted')
	`, jobID, r.timeProvider.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("close offer round: %w", err)
	}
	return res.RowsAffected()
}

// Decline records a translator turning a job down. Only a still-offered row
// can be declined.
func (r *OfferRepo) Decline(
	ctx context.Context,
	jobID, translatorID string,
) (*model.TranslatorJobOffer, error) {
	row := r.DB.QueryRowContext(ctx, `
		UPDATE translator_job_offers
		SET status = 'declined', responded_at = $3
		WHERE job_id = $1 AND translator_id = $2 AND status = 'offered'
		RETURNING `+offerColumns,
		jobID, translatorID, r.timeProvider.Now().UTC(),
	)

	offer, err := scanOfferFromRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOfferNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("decline offer: %w", err)
	}
	return offer, nil
}
