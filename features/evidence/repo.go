package evidence

import (
	"context"
	"database/sql"
	"fmt"
)

type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

const upsertQuery = `INSERT INTO evidence (id, text, description, source, guid, published_date) VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (id) DO UPDATE SET text = EXCLUDED.text, description = EXCLUDED.description, source = EXCLUDED.source, guid = EXCLUDED.guid, published_date = EXCLUDED.published_date, imported_at = NOW()`

// UpsertBatch writes items in one transaction keyed by id.
func (r *PostgresRepo) UpsertBatch(ctx context.Context, items []Evidence) (int, error) {
	if len(items) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, upsertQuery)
	if err != nil {
		return 0, fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, e := range items {
		if _, err := stmt.ExecContext(ctx, e.ID, e.Text, e.Description, e.Source, e.GUID, e.PublishedDate); err != nil {
			return 0, fmt.Errorf("upsert evidence %s: %w", e.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return len(items), nil
}

func (r *PostgresRepo) Get(ctx context.Context, id string) (*Evidence, error) {
	e := &Evidence{}
	query := `SELECT id, text, description, source, guid, published_date, imported_at FROM evidence WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).Scan(&e.ID, &e.Text, &e.Description, &e.Source, &e.GUID, &e.PublishedDate, &e.ImportedAt)
	if err != nil {
		return nil, err
	}
	return e, nil
}
