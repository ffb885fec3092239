package content

import (
	"context"
	"errors"
	"fmt"

	"github.com/surrealdb/sitecontent/pkg/docstore"
)

// ValidationError reports input rejected before anything was written.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Reason
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// NotFoundError reports an operation on an id that does not exist. It
// matches docstore.ErrNotFound with errors.Is.
type NotFoundError struct {
	Collection string
	ID         string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Collection, e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == docstore.ErrNotFound
}

// StoreUnavailableError wraps a transport, authentication or timeout failure
// from the document store. It is returned once and never retried.
type StoreUnavailableError struct {
	Op  string
	Err error
}

func (e *StoreUnavailableError) Error() string {
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return fmt.Sprintf("store unavailable during %s: timed out", e.Op)
	}
	return fmt.Sprintf("store unavailable during %s: %v", e.Op, e.Err)
}

func (e *StoreUnavailableError) Unwrap() error {
	return e.Err
}

// IsValidation reports whether err is a *ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// IsUnavailable reports whether err is a *StoreUnavailableError.
func IsUnavailable(err error) bool {
	var u *StoreUnavailableError
	return errors.As(err, &u)
}

// storeError classifies an error returned by the store. Not found and
// read-only errors keep their identity so callers can react to them.
func storeError(op, collection, id string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, docstore.ErrNotFound):
		return &NotFoundError{Collection: collection, ID: id}
	case errors.Is(err, docstore.ErrReadOnly):
		return err
	}
	return &StoreUnavailableError{Op: op, Err: err}
}
