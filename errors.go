package sap

import (
	"errors"
	"fmt"
)

// Sentinel errors. Match them with errors.Is; every error returned by the
// engine wraps one of these inside a *PropertyError.
var (
	// ErrBorrowConflict reports reentrant access: the store was entered from
	// inside one of its own mutation windows, an entry was read while its
	// evaluator was running, or an entry was touched under an exclusive borrow.
	ErrBorrowConflict = errors.New("borrow conflict")

	// ErrMissingEntry reports a stale or unknown PropertyID.
	ErrMissingEntry = errors.New("missing entry")

	// ErrTypeMismatch reports a handle whose type parameter does not match the
	// value type the entry was created with.
	ErrTypeMismatch = errors.New("type mismatch")

	// ErrNotSettable reports a direct write to an expression or to the clock.
	ErrNotSettable = errors.New("entry is not settable")

	// ErrInvalidEntry reports malformed insert arguments.
	ErrInvalidEntry = errors.New("invalid entry")

	// ErrCycle reports a dependency cycle.
	ErrCycle = errors.New("dependency cycle")

	// ErrShapeMismatch reports an interpolation between values of different
	// shapes, such as slices of different lengths.
	ErrShapeMismatch = errors.New("interpolation shape mismatch")

	// ErrNoEngine reports a zero Property used where an engine is required.
	ErrNoEngine = errors.New("property has no engine")
)

// PropertyError describes a failed store operation on one entry.
type PropertyError struct {
	Op     string     // operation that failed, e.g. "get", "set", "remove"
	ID     PropertyID // entry involved; zero when not applicable
	Name   string     // debug name of the entry, if any
	Detail string     // optional extra context
	Err    error      // one of the sentinel errors above
}

// Error implements the error interface.
func (e *PropertyError) Error() string {
	msg := "sap: " + e.Op
	if !e.ID.IsZero() {
		msg += " " + e.ID.String()
		if e.Name != "" {
			msg += fmt.Sprintf(" (%q)", e.Name)
		}
	}
	msg += ": " + e.Err.Error()
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

// Unwrap returns the sentinel error.
func (e *PropertyError) Unwrap() error { return e.Err }

func opError(op string, id PropertyID, err error, detail string) *PropertyError {
	return &PropertyError{Op: op, ID: id, Err: err, Detail: detail}
}

// IsBorrowConflict reports whether err is a borrow conflict.
func IsBorrowConflict(err error) bool { return errors.Is(err, ErrBorrowConflict) }

// IsMissingEntry reports whether err is a stale-id error.
func IsMissingEntry(err error) bool { return errors.Is(err, ErrMissingEntry) }
