package persist

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/idilsaglam/tada/internal/model"
	"github.com/idilsaglam/tada/internal/storage"
	"github.com/idilsaglam/tada/internal/store"
)

const schemaURL = "todos.schema.json"

// todosSchema is the persisted layout: an array of plain todo records.
// Unknown properties are tolerated and dropped on decode.
const todosSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "array",
  "items": {
    "type": "object",
    "required": ["id", "description", "priority"],
    "properties": {
      "id": {"type": "string", "minLength": 1},
      "description": {"type": "string"},
      "priority": {"enum": ["low", "middle", "high"]}
    }
  }
}`

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(schemaURL, strings.NewReader(todosSchema)); err != nil {
			schemaErr = fmt.Errorf("add schema: %w", err)
			return
		}
		schema, schemaErr = compiler.Compile(schemaURL)
	})
	return schema, schemaErr
}

// Decode parses a persisted value. It fails for anything that is not a
// JSON array of todo-shaped records with unique ids.
func Decode(data string) ([]model.Todo, error) {
	var doc any
	dec := json.NewDecoder(strings.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("json unmarshal: %w", err)
	}
	if dec.More() {
		return nil, fmt.Errorf("json unmarshal: trailing data")
	}

	sch, err := compiledSchema()
	if err != nil {
		return nil, err
	}
	if err := sch.Validate(doc); err != nil {
		return nil, fmt.Errorf("unexpected shape: %w", err)
	}

	var todos []model.Todo
	if err := json.Unmarshal([]byte(data), &todos); err != nil {
		return nil, fmt.Errorf("json unmarshal: %w", err)
	}
	seen := make(map[string]struct{}, len(todos))
	for _, t := range todos {
		// Unmarshal matches keys case-insensitively, so a record can pass
		// the schema and still carry a differently-cased override.
		if t.ID == "" || !t.Priority.Valid() {
			return nil, fmt.Errorf("unexpected shape: record %q has priority %q", t.ID, t.Priority)
		}
		if _, dup := seen[t.ID]; dup {
			return nil, fmt.Errorf("%w: %q", store.ErrDuplicateID, t.ID)
		}
		seen[t.ID] = struct{}{}
	}
	return todos, nil
}

// Recover reads the collection stored under key. ok is false when there is
// nothing usable: no value, an unreadable storage, or a value that does
// not decode. None of these is an error for start-up.
func Recover(st storage.Storage, key string, logger *log.Logger) (todos []model.Todo, ok bool) {
	data, found, err := st.GetItem(key)
	if err != nil {
		logf(logger, log.WarnLevel, "cannot read persisted todos", "key", key, "err", err)
		return nil, false
	}
	if !found {
		logf(logger, log.DebugLevel, "no persisted todos", "key", key)
		return nil, false
	}
	todos, err = Decode(data)
	if err != nil {
		logf(logger, log.WarnLevel, "discarding persisted todos", "key", key, "err", err)
		return nil, false
	}
	return todos, true
}

// Bootstrap installs the recovered collection into s with SetTodos. It
// reports whether anything was installed. Call it before attaching the
// synchronizer and before any UI reads the store.
func Bootstrap(s *store.Store, st storage.Storage, key string, logger *log.Logger) bool {
	todos, ok := Recover(st, key, logger)
	if !ok {
		return false
	}
	if err := s.SetTodos(todos); err != nil {
		logf(logger, log.WarnLevel, "discarding persisted todos", "key", key, "err", err)
		return false
	}
	logf(logger, log.DebugLevel, "recovered todos", "key", key, "count", len(todos))
	return true
}

func logf(logger *log.Logger, level log.Level, msg string, keyvals ...any) {
	if logger == nil {
		return
	}
	logger.Log(level, msg, keyvals...)
}
