// Package app wires storage, the store and its synchronizer together.
// It is the only place that constructs a Store; everything else receives
// the App (or the Store) by pointer.
package app

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/idilsaglam/tada/internal/config"
	"github.com/idilsaglam/tada/internal/model"
	"github.com/idilsaglam/tada/internal/persist"
	"github.com/idilsaglam/tada/internal/storage"
	"github.com/idilsaglam/tada/internal/store"
)

// App is one session: recovered state, live store, persistence.
type App struct {
	cfg     *config.Config
	logger  *log.Logger
	storage storage.Storage
	store   *store.Store
	sync    *persist.Synchronizer
	newID   model.IDGenerator

	recovered bool
}

// Option tweaks construction, mostly for tests.
type Option func(*App)

// WithStorage uses st instead of opening the configured backend.
func WithStorage(st storage.Storage) Option {
	return func(a *App) { a.storage = st }
}

// WithIDGenerator replaces the random id generator.
func WithIDGenerator(gen model.IDGenerator) Option {
	return func(a *App) { a.newID = gen }
}

// New opens storage, recovers the persisted collection into a fresh store
// and only then starts mirroring, so recovery is the single read of the
// session and happens before any write.
func New(cfg *config.Config, logger *log.Logger, opts ...Option) (*App, error) {
	if logger == nil {
		logger = log.Default()
	}
	a := &App{cfg: cfg, logger: logger, newID: model.NewID}
	for _, opt := range opts {
		opt(a)
	}

	if a.storage == nil {
		st, err := storage.Open(storage.Options{
			Backend:    cfg.Backend,
			Dir:        cfg.DataDir,
			QuotaBytes: cfg.QuotaBytes,
		})
		if err != nil {
			return nil, fmt.Errorf("open storage: %w", err)
		}
		a.storage = st
	}

	a.store = store.New(store.WithLogger(logger))
	a.recovered = persist.Bootstrap(a.store, a.storage, cfg.StorageKey, logger)

	a.sync = persist.NewSynchronizer(a.storage, cfg.StorageKey, logger)
	a.sync.Attach(a.store)
	return a, nil
}

// Close stops mirroring and releases storage.
func (a *App) Close() error {
	a.sync.Detach()
	return a.storage.Close()
}

func (a *App) Store() *store.Store                 { return a.store }
func (a *App) Synchronizer() *persist.Synchronizer { return a.sync }
func (a *App) Logger() *log.Logger                 { return a.logger }
func (a *App) Config() *config.Config              { return a.cfg }

// Recovered reports whether start-up found a usable persisted collection.
func (a *App) Recovered() bool { return a.recovered }

// SetTodos replaces the whole collection.
func (a *App) SetTodos(todos []model.Todo) error { return a.store.SetTodos(todos) }

// AddTodo appends a todo.
func (a *App) AddTodo(t model.Todo) error { return a.store.AddTodo(t) }

// DeleteTodo removes a todo by id; false means there was nothing to remove.
func (a *App) DeleteTodo(id string) bool { return a.store.DeleteTodo(id) }

// EditTodo replaces a todo by id; false means the id was unknown and the
// edit was dropped.
func (a *App) EditTodo(t model.Todo) bool { return a.store.EditTodo(t) }

func (a *App) Todos() []model.Todo { return a.store.Todos() }

func (a *App) FindByID(id string) (model.Todo, bool) { return a.store.FindByID(id) }

// Subscribe observes committed transitions.
func (a *App) Subscribe(fn store.Subscriber) func() { return a.store.Subscribe(fn) }

// NewTodo validates form input and builds a todo with a fresh id. It does
// not add it to the store.
func (a *App) NewTodo(description string, priority model.Priority) (model.Todo, error) {
	t := model.Todo{
		ID:          a.newID(),
		Description: strings.TrimSpace(description),
		Priority:    priority,
	}
	if err := t.Validate(); err != nil {
		return model.Todo{}, err
	}
	return t, nil
}

// Create validates input and adds the resulting todo.
func (a *App) Create(description string, priority model.Priority) (model.Todo, error) {
	t, err := a.NewTodo(description, priority)
	if err != nil {
		return model.Todo{}, err
	}
	if err := a.store.AddTodo(t); err != nil {
		return model.Todo{}, err
	}
	return t, nil
}

// Update validates input and edits the todo with the given id. ok is false
// when the id is unknown.
func (a *App) Update(id, description string, priority model.Priority) (t model.Todo, ok bool, err error) {
	t = model.Todo{ID: id, Description: strings.TrimSpace(description), Priority: priority}
	if err := t.Validate(); err != nil {
		return model.Todo{}, false, err
	}
	return t, a.store.EditTodo(t), nil
}

// Resolve finds a todo by full id, by 1-based position (as printed by
// `todo ls`), or by unique id prefix, in that order.
func (a *App) Resolve(ref string) (model.Todo, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return model.Todo{}, fmt.Errorf("empty todo reference")
	}
	if t, ok := a.store.FindByID(ref); ok {
		return t, nil
	}

	todos := a.store.Todos()
	if n, err := strconv.Atoi(ref); err == nil {
		if n < 1 || n > len(todos) {
			return model.Todo{}, fmt.Errorf("%w: index out of range: have %d, got %d", ErrNotFound, len(todos), n)
		}
		return todos[n-1], nil
	}

	var match []model.Todo
	for _, t := range todos {
		if strings.HasPrefix(t.ID, ref) {
			match = append(match, t)
		}
	}
	switch len(match) {
	case 0:
		return model.Todo{}, fmt.Errorf("%w: %q", ErrNotFound, ref)
	case 1:
		return match[0], nil
	default:
		return model.Todo{}, fmt.Errorf("ambiguous todo reference %q matches %d todos", ref, len(match))
	}
}
