package model

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Todo is the domain model for a todo entry.
// Plain data only: it is stored and persisted verbatim.
type Todo struct {
	ID          string   `json:"id" yaml:"id"`
	Description string   `json:"description" yaml:"description"`
	Priority    Priority `json:"priority" yaml:"priority"`
}

// Priority is the urgency of a todo. The zero value is not a valid priority.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMiddle Priority = "middle"
	PriorityHigh   Priority = "high"
)

var priorityLabels = map[Priority]string{
	PriorityLow:    "Low",
	PriorityMiddle: "Middle",
	PriorityHigh:   "High",
}

// Priorities returns the valid priorities, lowest first.
func Priorities() []Priority {
	return []Priority{PriorityLow, PriorityMiddle, PriorityHigh}
}

func (p Priority) String() string { return string(p) }

// Label is the display text for p.
func (p Priority) Label() string {
	if l, ok := priorityLabels[p]; ok {
		return l
	}
	return string(p)
}

func (p Priority) Valid() bool {
	_, ok := priorityLabels[p]
	return ok
}

// Next cycles low -> middle -> high -> low.
func (p Priority) Next() Priority {
	all := Priorities()
	for i, q := range all {
		if q == p {
			return all[(i+1)%len(all)]
		}
	}
	return PriorityLow
}

// ParsePriority accepts a value or a label, case-insensitively.
func ParsePriority(s string) (Priority, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, p := range Priorities() {
		if s == string(p) || s == strings.ToLower(p.Label()) {
			return p, nil
		}
	}
	return "", fmt.Errorf("invalid priority %q, must be one of: low, middle, high", s)
}

// IDGenerator produces unique opaque todo ids.
type IDGenerator func() string

// NewID returns a random UUID string.
func NewID() string { return uuid.NewString() }

// New builds a todo with a fresh random id.
func New(description string, priority Priority) Todo {
	return Todo{ID: NewID(), Description: description, Priority: priority}
}
