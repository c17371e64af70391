// Package storage implements the local key/value stores that stand in for the
// browser's localStorage (ScopeDurable) and sessionStorage (ScopeSession).
//
// Two implementations are provided: SQLiteStore, backed by a goose-migrated
// SQLite file, and MemoryStore for tests and throwaway runs.
//
// The stores are safe for concurrent use within one process. Two processes
// sharing one database file may still overwrite each other's session keys;
// last write wins.
package storage
