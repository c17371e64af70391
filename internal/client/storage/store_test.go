package storage

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func openDatabase(t *testing.T) *Database {
	t.Helper()
	d, err := InitDatabase(context.Background(), filepath.Join(t.TempDir(), "viqi.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })
	return d
}

// contract runs the behaviour every Store must share.
func contract(t *testing.T, newStore func(t *testing.T) Store) {
	ctx := context.Background()

	t.Run("get absent returns nil nil", func(t *testing.T) {
		s := newStore(t)
		v, err := s.Get(ctx, "matchResults")
		require.NoError(t, err)
		require.Nil(t, v)
	})

	t.Run("set then get and upsert", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Set(ctx, "userQuery", []byte("Need a colorist in NYC")))
		require.NoError(t, s.Set(ctx, "userQuery", []byte("Need an editor in LA")))

		v, err := s.Get(ctx, "userQuery")
		require.NoError(t, err)
		require.Equal(t, []byte("Need an editor in LA"), v)
	})

	t.Run("delete is idempotent", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Set(ctx, "k", []byte{1}))
		require.NoError(t, s.Delete(ctx, "k"))
		require.NoError(t, s.Delete(ctx, "k"))

		v, err := s.Get(ctx, "k")
		require.NoError(t, err)
		require.Nil(t, v)
	})

	t.Run("set many and delete many", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.SetMany(ctx, map[string][]byte{
			"userEmail":      []byte("ada@studio.com"),
			"backendToken":   []byte("tok"),
			"businessDomain": []byte("studio.com"),
		}))

		m, err := s.List(ctx)
		require.NoError(t, err)
		assert.Len(t, m, 3)

		require.NoError(t, s.DeleteMany(ctx, "userEmail", "backendToken", "absent"))
		m, err = s.List(ctx)
		require.NoError(t, err)
		assert.Equal(t, map[string][]byte{"businessDomain": []byte("studio.com")}, m)
	})

	t.Run("clear empties", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Set(ctx, "a", []byte("1")))
		require.NoError(t, s.Set(ctx, "b", []byte("2")))
		require.NoError(t, s.Clear(ctx))

		m, err := s.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, m)
	})

	t.Run("returned values are copies", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Set(ctx, "k", []byte("abc")))
		v, err := s.Get(ctx, "k")
		require.NoError(t, err)
		v[0] = 'z'

		again, err := s.Get(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, []byte("abc"), again)
	})
}

func TestMemoryStore_Contract(t *testing.T) {
	contract(t, func(t *testing.T) Store { return NewMemoryStore() })
}

func TestSQLiteStore_Contract(t *testing.T) {
	contract(t, func(t *testing.T) Store { return openDatabase(t).Session })
}

func TestInitDatabase_ScopesAreIsolated(t *testing.T) {
	ctx := context.Background()
	d := openDatabase(t)

	require.NoError(t, d.Durable.Set(ctx, "customAuth", []byte(`{"email":"ada@studio.com"}`)))
	require.NoError(t, d.Session.Set(ctx, "userQuery", []byte("colorist")))

	v, err := d.Session.Get(ctx, "customAuth")
	require.NoError(t, err)
	assert.Nil(t, v)

	require.NoError(t, d.ResetSession(ctx))

	q, err := d.Session.Get(ctx, "userQuery")
	require.NoError(t, err)
	assert.Nil(t, q)

	a, err := d.Durable.Get(ctx, "customAuth")
	require.NoError(t, err)
	assert.NotNil(t, a, "durable scope survives a session reset")
}

func TestRunMigrations_IsIdempotent(t *testing.T) {
	ctx := context.Background()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "viqi.db"))
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, RunMigrations(ctx, db))
	require.NoError(t, RunMigrations(ctx, db))

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='session_storage'`).Scan(&n))
	assert.Equal(t, 1, n)
}

func TestNewSQLiteStore_UnknownScope(t *testing.T) {
	d := openDatabase(t)
	_, err := NewSQLiteStore(d.DB, Scope("cookies"))
	require.Error(t, err)
}

func TestSQLiteStore_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "viqi.db")

	d, err := InitDatabase(ctx, path)
	require.NoError(t, err)
	require.NoError(t, d.Durable.Set(ctx, "federatedSession", []byte("jwt")))
	require.NoError(t, d.Close())

	d, err = InitDatabase(ctx, path)
	require.NoError(t, err)
	defer d.Close()

	v, err := d.Durable.Get(ctx, "federatedSession")
	require.NoError(t, err)
	assert.Equal(t, []byte("jwt"), v)
}
