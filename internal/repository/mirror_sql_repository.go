package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	appErrors "github.com/noah-isme/tutor-billing/pkg/errors"
)

// SQLMirrorRepository persists mirror keys in the mirror_entries table,
// partitioned by namespace.
type SQLMirrorRepository struct {
	db        *sqlx.DB
	namespace string
}

type mirrorEntry struct {
	Namespace string    `db:"namespace"`
	Key       string    `db:"key"`
	Value     []byte    `db:"value"`
	UpdatedAt time.Time `db:"updated_at"`
}

// NewSQLMirrorRepository constructs the repository for one namespace.
func NewSQLMirrorRepository(db *sqlx.DB, namespace string) *SQLMirrorRepository {
	return &SQLMirrorRepository{db: db, namespace: namespace}
}

// EnsureSchema creates the backing table when missing.
func (r *SQLMirrorRepository) EnsureSchema(ctx context.Context) error {
	const query = `CREATE TABLE IF NOT EXISTS mirror_entries (
	namespace TEXT NOT NULL,
	key TEXT NOT NULL,
	value BYTEA NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (namespace, key)
)`
	if _, err := r.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("create mirror_entries: %w", err)
	}
	return nil
}

// Get returns the stored value or ErrMirrorMiss.
func (r *SQLMirrorRepository) Get(ctx context.Context, key string) ([]byte, error) {
	const query = `SELECT value FROM mirror_entries WHERE namespace = $1 AND key = $2`
	var value []byte
	if err := r.db.GetContext(ctx, &value, query, r.namespace, key); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrMirrorMiss
		}
		return nil, fmt.Errorf("get mirror entry %s: %w", key, err)
	}
	return value, nil
}

// Set upserts value.
func (r *SQLMirrorRepository) Set(ctx context.Context, key string, value []byte) error {
	const query = `INSERT INTO mirror_entries (namespace, key, value, updated_at)
VALUES (:namespace, :key, :value, :updated_at)
ON CONFLICT (namespace, key)
DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`
	entry := mirrorEntry{Namespace: r.namespace, Key: key, Value: value, UpdatedAt: time.Now().UTC()}
	if _, err := r.db.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("upsert mirror entry %s: %w", key, err)
	}
	return nil
}

// Delete removes key if present.
func (r *SQLMirrorRepository) Delete(ctx context.Context, key string) error {
	const query = `DELETE FROM mirror_entries WHERE namespace = $1 AND key = $2`
	if _, err := r.db.ExecContext(ctx, query, r.namespace, key); err != nil {
		return fmt.Errorf("delete mirror entry %s: %w", key, err)
	}
	return nil
}

// Keys lists keys in the namespace.
func (r *SQLMirrorRepository) Keys(ctx context.Context) ([]string, error) {
	const query = `SELECT key FROM mirror_entries WHERE namespace = $1 ORDER BY key ASC`
	keys := make([]string, 0)
	if err := r.db.SelectContext(ctx, &keys, query, r.namespace); err != nil {
		return nil, fmt.Errorf("list mirror keys: %w", err)
	}
	return keys, nil
}

// Clear removes every key in the namespace.
func (r *SQLMirrorRepository) Clear(ctx context.Context) error {
	const query = `DELETE FROM mirror_entries WHERE namespace = $1`
	if _, err := r.db.ExecContext(ctx, query, r.namespace); err != nil {
		return fmt.Errorf("clear mirror namespace %s: %w", r.namespace, err)
	}
	return nil
}
