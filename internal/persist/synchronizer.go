// Package persist mirrors the store to local storage and recovers it at
// start-up. Both directions are best-effort: failures are logged and
// dropped, and the in-memory store stays authoritative.
package persist

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/idilsaglam/tada/internal/model"
	"github.com/idilsaglam/tada/internal/storage"
	"github.com/idilsaglam/tada/internal/store"
)

// Synchronizer writes the whole collection under one key after every
// committed store transition. It never reads storage and never mutates
// the store.
type Synchronizer struct {
	storage storage.Storage
	key     string
	logger  *log.Logger

	mu          sync.Mutex
	unsubscribe func()
	lastErr     error
	writes      int
	failures    int
}

// NewSynchronizer returns a detached synchronizer. A nil logger discards.
func NewSynchronizer(st storage.Storage, key string, logger *log.Logger) *Synchronizer {
	if logger == nil {
		logger = log.New(io.Discard)
		logger.SetLevel(log.FatalLevel)
	}
	return &Synchronizer{storage: st, key: key, logger: logger}
}

// Attach subscribes to s, replacing any previous attachment.
func (y *Synchronizer) Attach(s *store.Store) {
	y.Detach()
	unsub := s.Subscribe(y.onMutation)
	y.mu.Lock()
	y.unsubscribe = unsub
	y.mu.Unlock()
}

// Detach stops mirroring. It is safe to call when not attached.
func (y *Synchronizer) Detach() {
	y.mu.Lock()
	unsub := y.unsubscribe
	y.unsubscribe = nil
	y.mu.Unlock()
	if unsub != nil {
		unsub()
	}
}

func (y *Synchronizer) onMutation(m store.Mutation, todos []model.Todo) {
	err := y.Save(todos)
	if err != nil {
		y.logger.Warn("todos not persisted", "mutation", m.Type, "key", y.key, "err", err)
	}
}

// Save serializes todos and overwrites the key. The error is returned for
// callers that care; the subscription path only logs it.
func (y *Synchronizer) Save(todos []model.Todo) error {
	err := y.write(todos)

	y.mu.Lock()
	defer y.mu.Unlock()
	y.lastErr = err
	if err != nil {
		y.failures++
	} else {
		y.writes++
	}
	return err
}

func (y *Synchronizer) write(todos []model.Todo) error {
	if todos == nil {
		todos = []model.Todo{}
	}
	data, err := json.Marshal(todos)
	if err != nil {
		return fmt.Errorf("json marshal: %w", err)
	}
	if err := y.storage.SetItem(y.key, string(data)); err != nil {
		return err
	}
	return nil
}

// LastErr is the outcome of the most recent write.
func (y *Synchronizer) LastErr() error {
	y.mu.Lock()
	defer y.mu.Unlock()
	return y.lastErr
}

// Writes counts successful writes.
func (y *Synchronizer) Writes() int {
	y.mu.Lock()
	defer y.mu.Unlock()
	return y.writes
}

// Failures counts dropped writes.
func (y *Synchronizer) Failures() int {
	y.mu.Lock()
	defer y.mu.Unlock()
	return y.failures
}
