package repository

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Common errors for store operations. Every store implementation
// (PostgreSQL, MongoDB, in-memory) returns these.
var (
	ErrUserNotFound = errors.New("user not found")
	ErrTaskNotFound = errors.New("task not found")
	ErrDuplicateKey = errors.New("duplicate key")
)

// DuplicateKeyError reports a unique constraint violation.
// Keys maps each offending field to the value that collided.
type DuplicateKeyError struct {
	Keys map[string]string
}

// NewDuplicateKeyError creates a DuplicateKeyError for a single field.
func NewDuplicateKeyError(field, value string) *DuplicateKeyError {
	return &DuplicateKeyError{Keys: map[string]string{field: value}}
}

func (e *DuplicateKeyError) Error() string {
	fields := make([]string, 0, len(e.Keys))
	for field := range e.Keys {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	return fmt.Sprintf("duplicate key: %s", strings.Join(fields, ", "))
}

// Is makes errors.Is(err, ErrDuplicateKey) match.
func (e *DuplicateKeyError) Is(target error) bool {
	return target == ErrDuplicateKey
}
