package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	records "feedboard/internal/records/domain"
)

const defaultSummaryTable = "daily_summaries"

// SummaryRepository reads daily consumption summaries from Postgres. This is
// the document-store variant of the record source.
type SummaryRepository struct {
	db    *sql.DB
	table string
}

// NewSummaryRepository constructs a repository with the default table name.
func NewSummaryRepository(db *sql.DB, opts ...Option) *SummaryRepository {
	repo := &SummaryRepository{db: db, table: defaultSummaryTable}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// Option configures the repository.
type Option func(*SummaryRepository)

// WithTable overrides the default table name.
func WithTable(table string) Option {
	return func(repo *SummaryRepository) {
		if repo != nil && table != "" {
			repo.table = table
		}
	}
}

// Name identifies this source in cache keys and metrics labels.
func (r *SummaryRepository) Name() string { return "postgres" }

// LoadDocuments returns all summaries newest-first. Rows without a parseable
// date or device id are dropped and counted; any transport or auth failure is
// reported as source-unavailable.
func (r *SummaryRepository) LoadDocuments(ctx context.Context) ([]records.Document, int, error) {
	if r == nil || r.db == nil {
		return nil, 0, errors.New("summary repo: nil db")
	}

	query := fmt.Sprintf(`
SELECT summary_date, device_id, daily_consumption, corrected_daily_consumption, last_weight, last_corrected_weight
FROM %s
ORDER BY summary_date DESC, device_id ASC`, r.table)

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", records.ErrUnavailable, err)
	}
	defer rows.Close()

	docs, dropped, err := scanDocuments(rows)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", records.ErrUnavailable, err)
	}
	return docs, dropped, nil
}

// LatestDocuments returns the most recently updated summaries, newest update
// first. Used by the connectivity check.
func (r *SummaryRepository) LatestDocuments(ctx context.Context, limit int) ([]records.Document, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("summary repo: nil db")
	}
	if limit <= 0 {
		limit = 10
	}

	query := fmt.Sprintf(`
SELECT summary_date, device_id, daily_consumption, corrected_daily_consumption, last_weight, last_corrected_weight
FROM %s
ORDER BY last_update DESC
LIMIT $1`, r.table)

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", records.ErrUnavailable, err)
	}
	defer rows.Close()

	docs, _, err := scanDocuments(rows)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", records.ErrUnavailable, err)
	}
	return docs, nil
}

func scanDocuments(rows *sql.Rows) ([]records.Document, int, error) {
	var docs []records.Document
	dropped := 0

	for rows.Next() {
		var (
			date      sql.NullTime
			deviceID  sql.NullString
			daily     sql.NullFloat64
			corrected sql.NullFloat64
			weight    sql.NullFloat64
			corrW     sql.NullFloat64
		)
		if err := rows.Scan(&date, &deviceID, &daily, &corrected, &weight, &corrW); err != nil {
			return nil, 0, err
		}
		if !date.Valid || !deviceID.Valid || deviceID.String == "" {
			dropped++
			continue
		}
		doc := records.Document{
			Date:     records.DateOf(date.Time),
			DeviceID: deviceID.String,
		}
		doc.Provisional = nullableFloat(daily)
		doc.Corrected = nullableFloat(corrected)
		doc.LastWeight = nullableFloat(weight)
		doc.LastCorrectedWeight = nullableFloat(corrW)
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return docs, dropped, nil
}

func nullableFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	value := v.Float64
	return &value
}

// Ping verifies connectivity within a short deadline.
func (r *SummaryRepository) Ping(ctx context.Context) error {
	if r == nil || r.db == nil {
		return errors.New("summary repo: nil db")
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := r.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %v", records.ErrUnavailable, err)
	}
	return nil
}
