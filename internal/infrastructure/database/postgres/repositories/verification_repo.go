// Package repositories provides the PostgreSQL-backed implementation of
// the verification store.
package repositories

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/turtacn/CiteGuard/internal/domain/citation"
	"github.com/turtacn/CiteGuard/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/CiteGuard/pkg/errors"
)

const defaultListLimit = 50

// VerificationRepository persists lookup outcomes, one row per normalized
// citation.  Implements citation.VerificationStore.
type VerificationRepository struct {
	pool   *pgxpool.Pool
	logger logging.Logger
}

// NewVerificationRepository constructs the repository.
func NewVerificationRepository(pool *pgxpool.Pool, log logging.Logger) *VerificationRepository {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &VerificationRepository{pool: pool, logger: log}
}

// Save upserts a verification record keyed by the normalized citation.
// Re-verification overwrites the previous outcome.
func (r *VerificationRepository) Save(ctx context.Context, rec *citation.VerificationRecord) error {
	if rec == nil || rec.Citation == "" {
		return errors.NewInvalidInputError("verification record requires a citation")
	}
	id := rec.ID
	if id == "" {
		id = uuid.NewString()
	}
	checkedAt := rec.CheckedAt
	if checkedAt.IsZero() {
		checkedAt = time.Now().UTC()
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO citation_verifications (
			id, citation, outcome, case_name, decision_date, url, court, source, checked_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		ON CONFLICT (citation) DO UPDATE SET
			outcome       = EXCLUDED.outcome,
			case_name     = EXCLUDED.case_name,
			decision_date = EXCLUDED.decision_date,
			url           = EXCLUDED.url,
			court         = EXCLUDED.court,
			source        = EXCLUDED.source,
			checked_at    = EXCLUDED.checked_at`,
		id, citation.NormalizeCitation(rec.Citation), string(rec.Outcome),
		rec.CaseName, rec.Date, rec.URL, rec.Court, rec.Source, checkedAt,
	)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "save verification record")
	}
	return nil
}

// Get returns the stored record for the normalized form of cite.
func (r *VerificationRepository) Get(ctx context.Context, cite string) (*citation.VerificationRecord, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, citation, outcome, case_name, decision_date, url, court, source, checked_at
		FROM citation_verifications
		WHERE citation = $1`,
		citation.NormalizeCitation(cite),
	)

	rec, err := scanRecord(row)
	if err != nil {
		if stderrors.Is(err, pgx.ErrNoRows) {
			return nil, errors.NewNotFoundError("verification record", cite)
		}
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "load verification record")
	}
	return rec, nil
}

// ListRecent returns the most recently checked records, newest first.
func (r *VerificationRepository) ListRecent(ctx context.Context, limit int) ([]*citation.VerificationRecord, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, citation, outcome, case_name, decision_date, url, court, source, checked_at
		FROM citation_verifications
		ORDER BY checked_at DESC
		LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "list verification records")
	}
	defer rows.Close()

	var out []*citation.VerificationRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "scan verification record")
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "iterate verification records")
	}
	return out, nil
}

// CountByOutcome reports how many stored citations carry each outcome,
// which backs the verification statistics endpoint.
func (r *VerificationRepository) CountByOutcome(ctx context.Context) (map[citation.Outcome]int64, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT outcome, COUNT(*)
		FROM citation_verifications
		GROUP BY outcome`)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "count verification outcomes")
	}
	defer rows.Close()

	counts := make(map[citation.Outcome]int64)
	for rows.Next() {
		var outcome string
		var n int64
		if err := rows.Scan(&outcome, &n); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "scan outcome count")
		}
		counts[citation.Outcome(outcome)] = n
	}
	return counts, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*citation.VerificationRecord, error) {
	var rec citation.VerificationRecord
	var outcome string
	if err := row.Scan(&rec.ID, &rec.Citation, &outcome, &rec.CaseName,
		&rec.Date, &rec.URL, &rec.Court, &rec.Source, &rec.CheckedAt); err != nil {
		return nil, err
	}
	rec.Outcome = citation.Outcome(outcome)
	return &rec, nil
}
