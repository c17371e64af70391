package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/viqi/internal/client/migrations"
	"github.com/pressly/goose/v3"

	_ "modernc.org/sqlite"
)

// Database owns the SQLite handle and the two scoped stores built on it.
type Database struct {
	DB      *sql.DB
	Durable *SQLiteStore
	Session *SQLiteStore
}

func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	goose.SetLogger(goose.NopLogger())

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	return goose.UpContext(ctx, db, ".")
}

// InitDatabase opens the SQLite file at dsn, applies migrations and returns
// the durable and session stores.
func InitDatabase(ctx context.Context, dsn string) (*Database, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// a single writer avoids SQLITE_BUSY between our own goroutines
	db.SetMaxOpenConns(1)

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	durable, err := NewSQLiteStore(db, ScopeDurable)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	session, err := NewSQLiteStore(db, ScopeSession)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Database{DB: db, Durable: durable, Session: session}, nil
}

// ResetSession wipes the session scope, the equivalent of opening a new tab.
func (d *Database) ResetSession(ctx context.Context) error {
	return d.Session.Clear(ctx)
}

func (d *Database) Close() error {
	return d.DB.Close()
}
