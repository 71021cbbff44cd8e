package storage

import "fmt"

type quota struct {
	Storage
	max int64
}

// WithQuota rejects values longer than maxBytes with ErrQuotaExceeded
// before they reach s. A maxBytes of zero or less returns s unchanged.
func WithQuota(s Storage, maxBytes int64) Storage {
	if maxBytes <= 0 {
		return s
	}
	return &quota{Storage: s, max: maxBytes}
}

func (q *quota) SetItem(key, value string) error {
	if n := int64(len(key) + len(value)); n > q.max {
		return fmt.Errorf("set %q: %w: %d bytes, limit %d", key, ErrQuotaExceeded, n, q.max)
	}
	return q.Storage.SetItem(key, value)
}
