package storage

import (
	"context"
	"fmt"
)

// Scope selects which key/value table a Store reads and writes.
type Scope string

const (
	// ScopeDurable survives between client sessions.
	ScopeDurable Scope = "durable"
	// ScopeSession lives for one client session and is wiped on a fresh start.
	ScopeSession Scope = "session"
)

func (s Scope) table() (string, error) {
	switch s {
	case ScopeDurable:
		return "durable_storage", nil
	case ScopeSession:
		return "session_storage", nil
	default:
		return "", fmt.Errorf("unknown storage scope %q", string(s))
	}
}

// Store is a string-keyed byte store. Get returns (nil, nil) for absent keys.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	// SetMany and DeleteMany apply all keys or none.
	SetMany(ctx context.Context, values map[string][]byte) error
	DeleteMany(ctx context.Context, keys ...string) error
	List(ctx context.Context) (map[string][]byte, error)
	Clear(ctx context.Context) error
}
