package forms

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mwantia/goforms/pkg/db/store"
)

const (
	MsgFormNotFillable = "form is not open for responses"
	MsgRequiredMissing = "required field missing"
	MsgInvalidFile     = "invalid file"
	MsgInvalidOption   = "invalid option"
	MsgTooManyOptions  = "only one option may be selected"
)

// ErrNotFound is returned for forms, questions, options and files that do
// not exist or are not owned by the caller.
var ErrNotFound = store.ErrNotFound

// ValidationError carries user-facing messages describing why an input
// was rejected.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Problems, "; ")
}

func (e *ValidationError) add(msg string, args ...any) {
	e.Problems = append(e.Problems, fmt.Sprintf(msg, args...))
}

func (e *ValidationError) orNil() error {
	if len(e.Problems) == 0 {
		return nil
	}
	return e
}

// StorageError wraps store and upload-area failures.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// wrap classifies err for op. Not-found and validation errors pass through.
func wrap(op string, err error) error {
	if err == nil {
		return nil
	}

	var verr *ValidationError
	var serr *StorageError
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrInvalidMove) || errors.As(err, &verr) || errors.As(err, &serr) {
		return err
	}

	return &StorageError{Op: op, Err: err}
}
