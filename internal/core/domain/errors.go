package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrInvalidOperation = errors.New("invalid operation")
	ErrInvalidInput     = errors.New("invalid input")
	ErrConflict         = errors.New("version conflict")
	ErrTemporary        = errors.New("temporary failure")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}

// MissingIDsError names every identifier that failed to resolve in one request.
type MissingIDsError struct {
	Entity string
	IDs    []string
}

func (e *MissingIDsError) Error() string {
	return fmt.Sprintf("%s ids not present: %s", e.Entity, strings.Join(e.IDs, ", "))
}

// NotFound builds an ErrNotFound for the given entity and ids.
func NotFound(operation, entity string, ids ...string) error {
	return WrapError(ErrNotFound, operation, &MissingIDsError{Entity: entity, IDs: ids})
}

// MissingIDs extracts the unresolved ids from a NotFound error chain.
func MissingIDs(err error) []string {
	var missing *MissingIDsError
	if errors.As(err, &missing) {
		return missing.IDs
	}
	return nil
}
