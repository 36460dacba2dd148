package store

import (
	"errors"
	"fmt"
)

// ErrNoRows is returned by Row.Scan when a query matched nothing.
var ErrNoRows = errors.New("store: no rows in result set")

// ConstraintViolationError reports a write the store rejected because it
// broke a key, NOT NULL, or foreign key constraint.
type ConstraintViolationError struct {
	// Constraint is the driver's name or code for the broken constraint,
	// when it reports one.
	Constraint string
	Err        error
}

func (e *ConstraintViolationError) Error() string {
	if e.Constraint == "" {
		return fmt.Sprintf("store: constraint violation: %v", e.Err)
	}
	return fmt.Sprintf("store: constraint violation (%s): %v", e.Constraint, e.Err)
}

func (e *ConstraintViolationError) Unwrap() error { return e.Err }

// ConnectionError reports a store that could not be reached.
type ConnectionError struct {
	Kind string
	Op   string
	Err  error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("store: %s %s: %v", e.Kind, e.Op, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }
