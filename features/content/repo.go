package content

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"misinfo/internal/record"
)

type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

func (r *PostgresRepo) Save(ctx context.Context, c *Content) error {
	meta, err := json.Marshal(c.Metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}
	if c.Status == "" {
		c.Status = record.StatusPending
	}
	query := `INSERT INTO content (source, type, content_text, metadata, file_url, status) VALUES ($1, $2, $3, $4, $5, $6) RETURNING id, created_at, updated_at`
	return r.db.QueryRowContext(ctx, query, c.Source, c.Type, c.ContentText, meta, c.FileURL, c.Status).
		Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
}

func (r *PostgresRepo) Get(ctx context.Context, id string) (*Content, error) {
	c := &Content{}
	var meta []byte
	query := `SELECT id, source, type, content_text, metadata, file_url, status, analysis, created_at, updated_at FROM content WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&c.ID, &c.Source, &c.Type, &c.ContentText, &meta, &c.FileURL, &c.Status, &c.Analysis, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(meta, &c.Metadata); err != nil {
		return nil, fmt.Errorf("decode metadata: %w", err)
	}
	return c, nil
}

func (r *PostgresRepo) GetText(ctx context.Context, id string) (string, error) {
	var text string
	query := `SELECT content_text FROM content WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).Scan(&text)
	return text, err
}

func (r *PostgresRepo) SaveAnalysis(ctx context.Context, id, analysis string) error {
	query := `UPDATE content SET analysis = $1, status = $2, updated_at = NOW() WHERE id = $3`
	res, err := r.db.ExecContext(ctx, query, analysis, record.StatusChecked, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *PostgresRepo) CountByType(ctx context.Context) (map[string]int, error) {
	query := `SELECT type, COUNT(*) FROM content GROUP BY type`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := map[string]int{}
	for rows.Next() {
		var t string
		var n int
		if err := rows.Scan(&t, &n); err != nil {
			return nil, err
		}
		counts[t] = n
	}
	return counts, rows.Err()
}

func (r *PostgresRepo) Count(ctx context.Context) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM content`
	err := r.db.QueryRowContext(ctx, query).Scan(&count)
	return count, err
}
