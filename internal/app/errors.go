package app

import "errors"

// ErrNotFound is returned by Resolve when no todo matches a reference.
var ErrNotFound = errors.New("todo not found")
