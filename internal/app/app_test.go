package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idilsaglam/tada/internal/config"
	"github.com/idilsaglam/tada/internal/logging"
	"github.com/idilsaglam/tada/internal/model"
	"github.com/idilsaglam/tada/internal/storage"
)

func sequentialIDs() model.IDGenerator {
	n := 0
	return func() string {
		n++
		return fmt.Sprint(n)
	}
}

func newApp(t *testing.T, st storage.Storage) *App {
	t.Helper()
	a, err := New(config.Default(), logging.Discard(), WithStorage(st), WithIDGenerator(sequentialIDs()))
	require.NoError(t, err)
	return a
}

func storedTodos(t *testing.T, st storage.Storage) []model.Todo {
	t.Helper()
	v, ok, err := st.GetItem(config.DefaultStorageKey)
	require.NoError(t, err)
	require.True(t, ok)
	var out []model.Todo
	require.NoError(t, json.Unmarshal([]byte(v), &out))
	return out
}

func TestStartEmptyWithoutStoredValue(t *testing.T) {
	mem := storage.NewMemory()
	a := newApp(t, mem)

	assert.False(t, a.Recovered())
	assert.Empty(t, a.Todos())
	_, ok, err := mem.GetItem(config.DefaultStorageKey)
	require.NoError(t, err)
	assert.False(t, ok, "boot alone must not write")
}

func TestStartEmptyWithCorruptValue(t *testing.T) {
	mem := storage.NewMemory()
	require.NoError(t, mem.SetItem(config.DefaultStorageKey, "not json"))

	a := newApp(t, mem)
	assert.False(t, a.Recovered())
	assert.Empty(t, a.Todos())
}

func TestCreateScenario(t *testing.T) {
	mem := storage.NewMemory()
	a := newApp(t, mem)

	created, err := a.Create("buy milk please", model.PriorityLow)
	require.NoError(t, err)
	assert.Equal(t, model.Todo{ID: "1", Description: "buy milk please", Priority: model.PriorityLow}, created)
	assert.Equal(t, []model.Todo{created}, a.Todos())
	assert.Equal(t, a.Todos(), storedTodos(t, mem))
}

func TestCreateRejectsInvalidInput(t *testing.T) {
	mem := storage.NewMemory()
	a := newApp(t, mem)

	_, err := a.Create("hello", model.PriorityHigh)
	var ve *model.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, model.CodeMinLength, ve.Code)

	_, err = a.Create("hello world", "")
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "priority", ve.Field)

	assert.Empty(t, a.Todos())
}

func TestPassThroughTransitions(t *testing.T) {
	mem := storage.NewMemory()
	a := newApp(t, mem)

	require.NoError(t, a.SetTodos([]model.Todo{
		{ID: "1", Description: "first", Priority: model.PriorityLow},
		{ID: "2", Description: "second", Priority: model.PriorityMiddle},
	}))
	assert.True(t, a.DeleteTodo("1"))
	assert.Equal(t, []model.Todo{{ID: "2", Description: "second", Priority: model.PriorityMiddle}}, a.Todos())

	assert.False(t, a.DeleteTodo("nonexistent"))
	assert.Equal(t, a.Todos(), storedTodos(t, mem), "no-op delete still leaves matching storage")

	assert.True(t, a.EditTodo(model.Todo{ID: "2", Description: "b", Priority: model.PriorityHigh}))
	got, ok := a.FindByID("2")
	require.True(t, ok)
	assert.Equal(t, model.PriorityHigh, got.Priority)
	assert.Equal(t, a.Todos(), storedTodos(t, mem))
}

func TestUpdate(t *testing.T) {
	a := newApp(t, storage.NewMemory())
	created, err := a.Create("write report", model.PriorityLow)
	require.NoError(t, err)

	updated, ok, err := a.Update(created.ID, "  write the report  ", model.PriorityHigh)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "write the report", updated.Description)

	_, ok, err = a.Update("missing", "write the report", model.PriorityHigh)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Len(t, a.Todos(), 1)
}

func TestSessionsShareStateThroughStorage(t *testing.T) {
	cfg := config.Default()
	cfg.Backend = "sqlite"
	cfg.DataDir = filepath.Join(t.TempDir(), "data")

	first, err := New(cfg, logging.Discard())
	require.NoError(t, err)
	_, err = first.Create("buy milk please", model.PriorityLow)
	require.NoError(t, err)
	_, err = first.Create("call the plumber", model.PriorityHigh)
	require.NoError(t, err)
	want := first.Todos()
	require.NoError(t, first.Close())

	second, err := New(cfg, logging.Discard())
	require.NoError(t, err)
	defer second.Close()
	assert.True(t, second.Recovered())
	assert.Equal(t, want, second.Todos())
}

func TestQuotaFailureKeepsSessionRunning(t *testing.T) {
	mem := storage.NewMemory()
	a := newApp(t, storage.WithQuota(mem, 80))

	_, err := a.Create("short one", model.PriorityLow)
	require.NoError(t, err)
	_, err = a.Create("this one does not fit in the tiny quota", model.PriorityLow)
	require.NoError(t, err, "persistence failures never reach callers")

	assert.Len(t, a.Todos(), 2)
	assert.ErrorIs(t, a.Synchronizer().LastErr(), storage.ErrQuotaExceeded)
	assert.Len(t, storedTodos(t, mem), 1)
}

func TestResolve(t *testing.T) {
	a := newApp(t, storage.NewMemory())
	require.NoError(t, a.SetTodos([]model.Todo{
		{ID: "abc-111", Description: "first", Priority: model.PriorityLow},
		{ID: "abd-222", Description: "second", Priority: model.PriorityLow},
		{ID: "xyz-333", Description: "third", Priority: model.PriorityLow},
	}))

	tests := []struct {
		ref     string
		wantID  string
		wantErr error
	}{
		{ref: "abd-222", wantID: "abd-222"},
		{ref: "3", wantID: "xyz-333"},
		{ref: "xy", wantID: "xyz-333"},
		{ref: "abc", wantID: "abc-111"},
		{ref: "ab"},
		{ref: "4", wantErr: ErrNotFound},
		{ref: "0", wantErr: ErrNotFound},
		{ref: "nope", wantErr: ErrNotFound},
		{ref: ""},
	}
	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			got, err := a.Resolve(tt.ref)
			if tt.wantID == "" {
				require.Error(t, err)
				if tt.wantErr != nil {
					assert.ErrorIs(t, err, tt.wantErr)
				}
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, got.ID)
		})
	}
}
