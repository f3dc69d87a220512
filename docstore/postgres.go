package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS documents (
	collection TEXT NOT NULL,
	id         TEXT NOT NULL,
	data       JSONB NOT NULL DEFAULT '{}'::jsonb,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	PRIMARY KEY (collection, id)
);
CREATE INDEX IF NOT EXISTS documents_data_gin ON documents USING GIN (data jsonb_path_ops);
`

// SQLExecutor is satisfied by both *sql.DB and *sql.Tx.
type SQLExecutor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// Postgres keeps every document as a JSONB row keyed by (collection, id).
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// EnsureSchema creates the documents table when it does not exist yet.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	if _, err := p.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to create documents schema: %w", err)
	}
	return nil
}

func (p *Postgres) List(ctx context.Context, collection string) ([]Document, error) {
	return p.Query(ctx, collection, nil, nil)
}

func (p *Postgres) Get(ctx context.Context, path string) (Document, error) {
	return pgGet(ctx, p.db, path, false)
}

func (p *Postgres) Set(ctx context.Context, path string, fields map[string]any) error {
	return pgSet(ctx, p.db, path, fields)
}

func (p *Postgres) Update(ctx context.Context, path string, updates []Update) error {
	return p.RunTransaction(ctx, func(ctx context.Context, tx Tx) error {
		return tx.Update(path, updates)
	})
}

func (p *Postgres) Add(ctx context.Context, collection string, fields map[string]any) (string, error) {
	collection, err := checkCollectionPath(collection)
	if err != nil {
		return "", err
	}
	raw, err := json.Marshal(fields)
	if err != nil {
		return "", fmt.Errorf("encode document: %w", err)
	}
	id := uuid.NewString()
	query := `INSERT INTO documents (collection, id, data) VALUES ($1, $2, $3)`
	if _, err := p.db.ExecContext(ctx, query, collection, id, raw); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return "", fmt.Errorf("%w: %s/%s", ErrAlreadyExists, collection, id)
		}
		return "", fmt.Errorf("failed to add document to %s: %w", collection, err)
	}
	return id, nil
}

func (p *Postgres) Delete(ctx context.Context, path string) error {
	return pgDelete(ctx, p.db, path)
}

// Query pushes equality filters down as JSONB containment and evaluates the
// remaining filters and ordering in Go.
func (p *Postgres) Query(ctx context.Context, collection string, filters []Filter, order *OrderBy) ([]Document, error) {
	collection, err := checkCollectionPath(collection)
	if err != nil {
		return nil, err
	}

	query := `SELECT id, data FROM documents WHERE collection = $1`
	args := []interface{}{collection}
	containment := map[string]any{}
	for _, f := range filters {
		if f.Op != OpEqual {
			continue
		}
		if err := applyUpdates(containment, []Update{{Path: f.Field, Value: f.Value}}); err != nil {
			return nil, err
		}
	}
	if len(containment) > 0 {
		raw, err := json.Marshal(containment)
		if err != nil {
			return nil, fmt.Errorf("encode filter: %w", err)
		}
		query += ` AND data @> $2::jsonb`
		args = append(args, raw)
	}

	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapPQError(fmt.Errorf("failed to query %s: %w", collection, err))
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var id string
		var raw []byte
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, fmt.Errorf("failed to scan document in %s: %w", collection, err)
		}
		data, err := decodeFields(raw)
		if err != nil {
			return nil, err
		}
		docs = append(docs, Document{ID: id, Path: Join(collection, id), Data: data})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating documents in %s: %w", collection, err)
	}
	return filterAndSort(docs, filters, order)
}

func (p *Postgres) RunTransaction(ctx context.Context, fn func(ctx context.Context, tx Tx) error) (err error) {
	sqlTx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = sqlTx.Rollback()
			panic(p)
		} else if err != nil {
			_ = sqlTx.Rollback()
		} else {
			err = sqlTx.Commit()
			if err != nil {
				err = fmt.Errorf("failed to commit transaction: %w", err)
			}
		}
	}()

	err = fn(ctx, &postgresTx{ctx: ctx, exec: sqlTx})
	return err
}

func (p *Postgres) Close() error {
	return p.db.Close()
}

type postgresTx struct {
	ctx  context.Context
	exec SQLExecutor
}

func (t *postgresTx) Get(path string) (Document, error) {
	return pgGet(t.ctx, t.exec, path, true)
}

func (t *postgresTx) Set(path string, fields map[string]any) error {
	return pgSet(t.ctx, t.exec, path, fields)
}

func (t *postgresTx) Update(path string, updates []Update) error {
	doc, err := pgGet(t.ctx, t.exec, path, true)
	if err != nil {
		return err
	}
	if err := applyUpdates(doc.Data, updates); err != nil {
		return err
	}
	collection, id, _ := splitDocPath(path)
	raw, err := json.Marshal(doc.Data)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	query := `UPDATE documents SET data = $3, updated_at = NOW() WHERE collection = $1 AND id = $2`
	if _, err := t.exec.ExecContext(t.ctx, query, collection, id, raw); err != nil {
		return mapPQError(fmt.Errorf("failed to update %s: %w", path, err))
	}
	return nil
}

func (t *postgresTx) Delete(path string) error {
	return pgDelete(t.ctx, t.exec, path)
}

func pgGet(ctx context.Context, exec SQLExecutor, path string, forUpdate bool) (Document, error) {
	collection, id, err := splitDocPath(path)
	if err != nil {
		return Document{}, err
	}
	query := `SELECT data FROM documents WHERE collection = $1 AND id = $2`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	var raw []byte
	if err := exec.QueryRowContext(ctx, query, collection, id).Scan(&raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Document{}, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return Document{}, mapPQError(fmt.Errorf("failed to get %s: %w", path, err))
	}
	data, err := decodeFields(raw)
	if err != nil {
		return Document{}, err
	}
	return Document{ID: id, Path: Join(collection, id), Data: data}, nil
}

func pgSet(ctx context.Context, exec SQLExecutor, path string, fields map[string]any) error {
	collection, id, err := splitDocPath(path)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	query := `
		INSERT INTO documents (collection, id, data) VALUES ($1, $2, $3)
		ON CONFLICT (collection, id) DO UPDATE SET data = EXCLUDED.data, updated_at = NOW()`
	if _, err := exec.ExecContext(ctx, query, collection, id, raw); err != nil {
		return mapPQError(fmt.Errorf("failed to set %s: %w", path, err))
	}
	return nil
}

func pgDelete(ctx context.Context, exec SQLExecutor, path string) error {
	collection, id, err := splitDocPath(path)
	if err != nil {
		return err
	}
	query := `DELETE FROM documents WHERE collection = $1 AND id = $2`
	if _, err := exec.ExecContext(ctx, query, collection, id); err != nil {
		return mapPQError(fmt.Errorf("failed to delete %s: %w", path, err))
	}
	return nil
}

// mapPQError adds a hint for the missing-table case, the usual first-run failure.
func mapPQError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "42P01" {
		return fmt.Errorf("%w (documents table missing, run EnsureSchema)", err)
	}
	return err
}
