package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"evecorpbot/internal/domain"
)

const createDocumentsTable = `
	CREATE TABLE IF NOT EXISTS bot_documents (
		key        TEXT PRIMARY KEY,
		body       JSONB NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)
`

// Open connects to Postgres and verifies the connection.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

type documentRepository struct {
	DB  *sql.DB
	now func() time.Time
}

// NewDocumentRepository returns a DocumentStore keeping each document as one
// JSONB row of bot_documents.
func NewDocumentRepository(db *sql.DB) domain.DocumentStore {
	return &documentRepository{
		DB:  db,
		now: time.Now,
	}
}

// EnsureSchema creates the documents table if it does not exist.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, createDocumentsTable); err != nil {
		return fmt.Errorf("create bot_documents: %w", err)
	}
	return nil
}

func (r *documentRepository) Load(ctx context.Context, key string) ([]byte, error) {
	query := `
		SELECT body
		FROM bot_documents
		WHERE key = $1
	`
	var body string
	err := r.DB.QueryRowContext(ctx, query, key).Scan(&body)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return []byte(body), nil
}

func (r *documentRepository) Save(ctx context.Context, key string, data []byte) error {
	query := `
		INSERT INTO bot_documents (key, body, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE SET
			body = EXCLUDED.body,
			updated_at = EXCLUDED.updated_at
	`
	_, err := r.DB.ExecContext(ctx, query, key, string(data), r.now().UTC())
	return err
}
