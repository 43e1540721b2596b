package store

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

var (
	ErrNotFound           = errors.New("post not found")
	ErrUniqueConstraint   = errors.New("post slug already exists")
	ErrStorageUnavailable = errors.New("post storage unavailable")
)

// ValidationError reports post fields that break a storage invariant.
type ValidationError struct {
	Fields []string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid post (%s): %s", strings.Join(e.Fields, ", "), e.Reason)
}

func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// storageError keeps the driver error for logs while matching ErrStorageUnavailable.
type storageError struct {
	op  string
	err error
}

func (e *storageError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrStorageUnavailable, e.op, e.err)
}

func (e *storageError) Is(target error) bool {
	return target == ErrStorageUnavailable
}

func (e *storageError) Unwrap() error {
	return e.err
}

func unavailable(op string, err error) error {
	return errors.WithStack(&storageError{op: op, err: err})
}
