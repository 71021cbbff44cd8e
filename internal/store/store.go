// Package store holds the authoritative in-memory todo collection.
//
// All reads and writes go through a Store. Each transition is applied
// atomically and then announced synchronously to every subscriber with a
// snapshot of the new state, before the transition returns.
package store

import (
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/idilsaglam/tada/internal/model"
)

// ErrDuplicateID is returned when a transition would leave two todos with
// the same id. The state is left untouched.
var ErrDuplicateID = errors.New("duplicate todo id")

// MutationType names a committed transition.
type MutationType string

const (
	MutationSetTodos   MutationType = "setTodos"
	MutationAddTodo    MutationType = "addTodo"
	MutationDeleteTodo MutationType = "deleteTodo"
	MutationEditTodo   MutationType = "editTodo"
)

// Mutation describes a committed transition and the payload it was called
// with.
type Mutation struct {
	Type    MutationType
	Payload any
}

// Subscriber is called after every committed transition with a copy of the
// resulting collection. It runs on the caller's goroutine and must not call
// a Store transition.
type Subscriber func(m Mutation, todos []model.Todo)

// Option configures a Store.
type Option func(*Store)

// WithLogger logs committed mutations at debug level.
func WithLogger(l *log.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// Store is the single owner of the todo collection.
type Store struct {
	// commit serializes apply+notify so subscribers observe transitions in
	// the order they were invoked.
	commit sync.Mutex

	mu     sync.RWMutex
	todos  []model.Todo
	subs   []*subscription
	nextID int

	logger *log.Logger
}

type subscription struct {
	id int
	fn Subscriber
}

// New returns an empty store.
func New(opts ...Option) *Store {
	s := &Store{todos: []model.Todo{}}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Subscribe registers fn and returns a function that removes it.
// Calling the returned function more than once is harmless.
func (s *Store) Subscribe(fn Subscriber) (unsubscribe func()) {
	s.mu.Lock()
	s.nextID++
	sub := &subscription{id: s.nextID, fn: fn}
	s.subs = append(s.subs, sub)
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			for i, x := range s.subs {
				if x.id == sub.id {
					s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
					return
				}
			}
		})
	}
}

// SetTodos discards the collection and installs a copy of todos in order.
func (s *Store) SetTodos(todos []model.Todo) error {
	return s.apply(Mutation{Type: MutationSetTodos, Payload: clone(todos)}, func() error {
		if id, dup := firstDuplicate(todos); dup {
			return fmt.Errorf("set todos: %w: %q", ErrDuplicateID, id)
		}
		s.todos = clone(todos)
		return nil
	})
}

// AddTodo appends todo to the end of the collection.
func (s *Store) AddTodo(todo model.Todo) error {
	return s.apply(Mutation{Type: MutationAddTodo, Payload: todo}, func() error {
		if s.indexOf(todo.ID) >= 0 {
			return fmt.Errorf("add todo: %w: %q", ErrDuplicateID, todo.ID)
		}
		s.todos = append(s.todos, todo)
		return nil
	})
}

// DeleteTodo removes the todo with the given id. A missing id is a no-op;
// the result reports whether anything was removed.
func (s *Store) DeleteTodo(id string) bool {
	var removed bool
	_ = s.apply(Mutation{Type: MutationDeleteTodo, Payload: id}, func() error {
		i := s.indexOf(id)
		if i < 0 {
			return nil
		}
		next := make([]model.Todo, 0, len(s.todos)-1)
		next = append(next, s.todos[:i]...)
		s.todos = append(next, s.todos[i+1:]...)
		removed = true
		return nil
	})
	return removed
}

// EditTodo replaces the todo carrying todo.ID in place. A missing id is a
// no-op and the supplied record is dropped; the result reports whether a
// record was replaced.
func (s *Store) EditTodo(todo model.Todo) bool {
	var replaced bool
	_ = s.apply(Mutation{Type: MutationEditTodo, Payload: todo}, func() error {
		i := s.indexOf(todo.ID)
		if i < 0 {
			return nil
		}
		s.todos[i] = todo
		replaced = true
		return nil
	})
	return replaced
}

// Todos returns a copy of the collection in order.
func (s *Store) Todos() []model.Todo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clone(s.todos)
}

// FindByID returns the todo with the given id.
func (s *Store) FindByID(id string) (model.Todo, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexOf(id); i >= 0 {
		return s.todos[i], true
	}
	return model.Todo{}, false
}

// apply runs change under the write lock. A change that returns an error
// must leave the collection untouched; it is not committed and nobody is
// notified.
func (s *Store) apply(m Mutation, change func() error) error {
	s.commit.Lock()
	defer s.commit.Unlock()

	s.mu.Lock()
	if err := change(); err != nil {
		s.mu.Unlock()
		return err
	}
	snapshot := clone(s.todos)
	subs := append([]*subscription(nil), s.subs...)
	s.mu.Unlock()

	if s.logger != nil {
		s.logger.Debug("mutation committed", "type", m.Type, "todos", len(snapshot))
	}
	for _, sub := range subs {
		sub.fn(m, clone(snapshot))
	}
	return nil
}

// indexOf must be called with mu held.
func (s *Store) indexOf(id string) int {
	for i := range s.todos {
		if s.todos[i].ID == id {
			return i
		}
	}
	return -1
}

func clone(todos []model.Todo) []model.Todo {
	out := make([]model.Todo, len(todos))
	copy(out, todos)
	return out
}

func firstDuplicate(todos []model.Todo) (string, bool) {
	seen := make(map[string]struct{}, len(todos))
	for _, t := range todos {
		if _, ok := seen[t.ID]; ok {
			return t.ID, true
		}
		seen[t.ID] = struct{}{}
	}
	return "", false
}
