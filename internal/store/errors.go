package store

import (
	"errors"
	"fmt"
)

// NotFoundError reports that a referenced item id has no record in the
// store. Callers treat it as a stale reference: the view moved on but
// the database did too.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("item not found: %s", e.ID)
}

// ConflictError reports a mutation the store rejected: containment
// cycles, self-containment, or a second item in a singleton category.
// The transition that triggered it must abort without refreshing.
type ConflictError struct {
	Op     string
	Reason string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s rejected: %s", e.Op, e.Reason)
}

// IsNotFound reports whether err is (or wraps) a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsConflict reports whether err is (or wraps) a ConflictError.
func IsConflict(err error) bool {
	var c *ConflictError
	return errors.As(err, &c)
}
