package storage

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func backends(t *testing.T) map[string]Storage {
	t.Helper()
	fs, err := NewFileStore(filepath.Join(t.TempDir(), "data"))
	require.NoError(t, err)
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "tada.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return map[string]Storage{
		"memory": NewMemory(),
		"file":   fs,
		"sqlite": db,
	}
}

func TestStorageContract(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, ok, err := s.GetItem("todos")
			require.NoError(t, err)
			assert.False(t, ok, "fresh storage should be empty")

			require.NoError(t, s.SetItem("todos", `[{"id":"1"}]`))
			v, ok, err := s.GetItem("todos")
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, `[{"id":"1"}]`, v)

			require.NoError(t, s.SetItem("todos", `[]`))
			v, _, err = s.GetItem("todos")
			require.NoError(t, err)
			assert.Equal(t, `[]`, v, "SetItem overwrites")

			require.NoError(t, s.SetItem("todos", ""))
			v, ok, err = s.GetItem("todos")
			require.NoError(t, err)
			assert.True(t, ok, "empty value is still a value")
			assert.Empty(t, v)

			require.NoError(t, s.RemoveItem("todos"))
			require.NoError(t, s.RemoveItem("todos"))
			_, ok, err = s.GetItem("todos")
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestInvalidKeys(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			for _, key := range []string{"", ".", "..", "a/b", `a\b`} {
				err := s.SetItem(key, "x")
				assert.True(t, errors.Is(err, ErrInvalidKey), "key %q: %v", key, err)
			}
		})
	}
}

func TestFileStoreLayout(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")
	fs, err := NewFileStore(dir)
	require.NoError(t, err)

	require.NoError(t, fs.SetItem("todos", `[]`))
	b, err := os.ReadFile(filepath.Join(dir, "todos.json"))
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(b))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files are cleaned up")
}

func TestFileStoreUnavailableDir(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	fs, err := NewFileStore(filepath.Join(blocker, "data"))
	require.NoError(t, err)
	err = fs.SetItem("todos", "[]")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestSQLitePersistsAcrossOpens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tada.db")
	db, err := OpenSQLite(path)
	require.NoError(t, err)
	require.NoError(t, db.SetItem("todos", `[1]`))
	require.NoError(t, db.Close())

	db, err = OpenSQLite(path)
	require.NoError(t, err)
	defer db.Close()
	v, ok, err := db.GetItem("todos")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `[1]`, v)
}

func TestMemoryFailWrites(t *testing.T) {
	m := NewMemory()
	require.NoError(t, m.SetItem("todos", "a"))

	m.FailWrites(ErrUnavailable)
	assert.ErrorIs(t, m.SetItem("todos", "b"), ErrUnavailable)
	v, _, _ := m.GetItem("todos")
	assert.Equal(t, "a", v)

	m.FailWrites(nil)
	require.NoError(t, m.SetItem("todos", "b"))
}

func TestQuota(t *testing.T) {
	m := NewMemory()
	s := WithQuota(m, 10)

	require.NoError(t, s.SetItem("k", "123456789"))
	err := s.SetItem("k", "1234567890")
	require.ErrorIs(t, err, ErrQuotaExceeded)

	v, _, err := s.GetItem("k")
	require.NoError(t, err)
	assert.Equal(t, "123456789", v, "rejected write leaves previous value")

	assert.Same(t, m, WithQuota(m, 0))
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	for _, backend := range []string{"", "file", "sqlite", "memory"} {
		s, err := Open(Options{Backend: backend, Dir: dir, QuotaBytes: 64})
		require.NoError(t, err, backend)
		require.NoError(t, s.SetItem("todos", "[]"))
		assert.ErrorIs(t, s.SetItem("todos", strings.Repeat("x", 100)), ErrQuotaExceeded)
		require.NoError(t, s.Close())
	}

	_, err := Open(Options{Backend: "cloud"})
	assert.Error(t, err)
}
