package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/viqi/internal/dbx"
)

type SQLiteStore struct {
	db    dbx.DBTX
	table string
}

// NewSQLiteStore binds a store to the table of the given scope.
func NewSQLiteStore(db dbx.DBTX, scope Scope) (*SQLiteStore, error) {
	table, err := scope.table()
	if err != nil {
		return nil, err
	}
	return &SQLiteStore{db: db, table: table}, nil
}

func (r *SQLiteStore) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := r.db.QueryRowContext(ctx, `SELECT value FROM `+r.table+` WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s[%s]: %w", r.table, key, err)
	}
	return value, nil
}

func (r *SQLiteStore) Set(ctx context.Context, key string, value []byte) error {
	if value == nil {
		value = []byte{}
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO `+r.table+` (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, value)
	if err != nil {
		return fmt.Errorf("failed to set %s[%s]: %w", r.table, key, err)
	}
	return nil
}

func (r *SQLiteStore) Delete(ctx context.Context, key string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM `+r.table+` WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("failed to delete %s[%s]: %w", r.table, key, err)
	}
	return nil
}

func (r *SQLiteStore) Clear(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM `+r.table)
	if err != nil {
		return fmt.Errorf("failed to clear %s: %w", r.table, err)
	}
	return nil
}

func (r *SQLiteStore) List(ctx context.Context) (map[string][]byte, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT key, value FROM `+r.table)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", r.table, err)
	}
	defer rows.Close()

	result := make(map[string][]byte)
	for rows.Next() {
		var key string
		var value []byte
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("failed to scan %s row: %w", r.table, err)
		}
		result[key] = value
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate %s rows: %w", r.table, err)
	}

	return result, nil
}

func (r *SQLiteStore) SetMany(ctx context.Context, values map[string][]byte) error {
	return r.atomically(ctx, func(ctx context.Context, s *SQLiteStore) error {
		for k, v := range values {
			if err := s.Set(ctx, k, v); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *SQLiteStore) DeleteMany(ctx context.Context, keys ...string) error {
	return r.atomically(ctx, func(ctx context.Context, s *SQLiteStore) error {
		for _, k := range keys {
			if err := s.Delete(ctx, k); err != nil {
				return err
			}
		}
		return nil
	})
}

// atomically runs fn inside a transaction when the handle can start one, and
// directly on the handle when it already is a transaction.
func (r *SQLiteStore) atomically(ctx context.Context, fn func(ctx context.Context, s *SQLiteStore) error) error {
	db, ok := r.db.(dbx.TxBeginner)
	if !ok {
		return fn(ctx, r)
	}
	return dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return fn(ctx, &SQLiteStore{db: tx, table: r.table})
	})
}
