package leads

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Querier is the subset of pgxpool.Pool the repository needs, kept narrow
// so tests can substitute pgxmock.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository stores leads in the relational database.
type PostgresRepository struct {
	db Querier
}

// NewPostgresRepository initializes a repo backed by a pgx pool.
func NewPostgresRepository(db Querier) *PostgresRepository {
	if db == nil {
		panic("leads: pgx pool required")
	}
	return &PostgresRepository{db: db}
}

var (
	_ Repository = (*PostgresRepository)(nil)
	_ Lister     = (*PostgresRepository)(nil)
)

// Append inserts a new row.
func (r *PostgresRepository) Append(ctx context.Context, rec *LeadRecord) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	query := `
		INSERT INTO leads (id, created_at, sender, name, email, phone, course_name, course_fee, course_timing, status, note)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := r.db.Exec(ctx, query,
		rec.ID,
		rec.CreatedAt,
		rec.Sender,
		rec.Name,
		rec.Email,
		rec.Phone,
		rec.CourseName,
		rec.CourseFee,
		rec.CourseTiming,
		rec.Status,
		rec.Note,
	)
	if err != nil {
		return fmt.Errorf("leads: insert failed: %w", err)
	}
	return nil
}

// ListRecent fetches up to limit leads, newest first.
func (r *PostgresRepository) ListRecent(ctx context.Context, limit int) ([]*LeadRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT id, created_at, sender, name, email, phone, course_name, course_fee, course_timing, status, note
		FROM leads
		ORDER BY created_at DESC
		LIMIT $1
	`
	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("leads: select failed: %w", err)
	}
	defer rows.Close()

	var out []*LeadRecord
	for rows.Next() {
		var rec LeadRecord
		if err := rows.Scan(
			&rec.ID,
			&rec.CreatedAt,
			&rec.Sender,
			&rec.Name,
			&rec.Email,
			&rec.Phone,
			&rec.CourseName,
			&rec.CourseFee,
			&rec.CourseTiming,
			&rec.Status,
			&rec.Note,
		); err != nil {
			return nil, fmt.Errorf("leads: scan failed: %w", err)
		}
		out = append(out, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("leads: rows: %w", err)
	}
	return out, nil
}
