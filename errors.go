package refdb

import (
	"errors"
	"fmt"
)

// ErrCapacityExceeded is returned when a new record would not fit into the
// fixed-size record array.
var ErrCapacityExceeded = errors.New("record capacity exceeded")

// ErrInvalidCapacity is returned by NewStore for capacities the probe
// sequence cannot cover completely.
var ErrInvalidCapacity = errors.New("invalid store capacity")

// LoadError reports a failure while loading a data source.
// Records loaded before the failure remain in the store.
type LoadError struct {
	Op     string // "open", "read", "insert"
	Source string // file name or other source identifier
	Line   int    // 0 if not line related
	Err    error
}

func (e *LoadError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("refdb: %s %s:%d: %v", e.Op, e.Source, e.Line, e.Err)
	}
	return fmt.Sprintf("refdb: %s %s: %v", e.Op, e.Source, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As.
func (e *LoadError) Unwrap() error {
	return e.Err
}
