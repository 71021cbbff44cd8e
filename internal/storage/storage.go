// Package storage is a small key/value store for string values, shaped
// after browser local storage. Every operation reports its outcome as an
// error value; callers that treat persistence as best-effort discard it
// explicitly.
package storage

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrQuotaExceeded is returned when a value does not fit.
	ErrQuotaExceeded = errors.New("storage quota exceeded")
	// ErrUnavailable is returned when the backing storage cannot be used.
	ErrUnavailable = errors.New("storage unavailable")
	// ErrInvalidKey is returned for empty keys or keys that are not a
	// single path element.
	ErrInvalidKey = errors.New("invalid storage key")
)

// Storage holds string values under string keys.
type Storage interface {
	// GetItem returns the value under key. ok is false when nothing is
	// stored there.
	GetItem(key string) (value string, ok bool, err error)
	// SetItem stores value under key, replacing any previous value.
	SetItem(key, value string) error
	// RemoveItem deletes key. Removing a missing key is not an error.
	RemoveItem(key string) error
	Close() error
}

func checkKey(key string) error {
	if key == "" || key == "." || key == ".." || strings.ContainsAny(key, `/\`+"\x00") {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return nil
}

// Options selects and configures a backend for Open.
type Options struct {
	Backend    string // "file", "sqlite" or "memory"
	Dir        string // data directory for file and sqlite backends
	QuotaBytes int64  // 0 disables the quota
}

const sqliteFileName = "tada.db"

// Open builds the configured backend, wrapped with the quota if one is set.
func Open(opts Options) (Storage, error) {
	var (
		s   Storage
		err error
	)
	switch opts.Backend {
	case "", "file":
		s, err = NewFileStore(opts.Dir)
	case "sqlite":
		s, err = OpenSQLite(joinDir(opts.Dir, sqliteFileName))
	case "memory":
		s = NewMemory()
	default:
		return nil, fmt.Errorf("unknown storage backend %q", opts.Backend)
	}
	if err != nil {
		return nil, err
	}
	return WithQuota(s, opts.QuotaBytes), nil
}
