package shared

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrNotFound indicates a referenced resource does not exist.
var ErrNotFound = errors.New("not found")

// ErrOrderCompleted indicates a mutation attempt on an order that has already
// been committed. Completed orders only accept memo/tag edits.
var ErrOrderCompleted = errors.New("order already completed")

// ErrInvalidStatus indicates a disallowed order status transition.
var ErrInvalidStatus = errors.New("invalid status transition")

// ValidationError reports the offending fields of a malformed request.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	names := make([]string, 0, len(e.Fields))
	for f := range e.Fields {
		names = append(names, f)
	}
	sort.Strings(names)
	return fmt.Sprintf("validation failed: %s", strings.Join(names, ", "))
}

// NewValidationError builds a ValidationError for a single field.
func NewValidationError(field, msg string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: msg}}
}

// NotFoundError carries the entity kind and id that could not be resolved.
type NotFoundError struct {
	Entity string
	ID     int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d: %s", e.Entity, e.ID, ErrNotFound)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// InsufficientStockError aborts the whole order commitment when a decrement
// would drive stock negative.
type InsufficientStockError struct {
	Item string
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s", e.Item)
}

// UserSafeMessage returns a message suitable for API consumers, hiding
// internals for unexpected errors.
func UserSafeMessage(err error) string {
	var ve *ValidationError
	var nf *NotFoundError
	var is *InsufficientStockError
	switch {
	case errors.As(err, &ve):
		return ve.Error()
	case errors.As(err, &nf):
		return nf.Error()
	case errors.As(err, &is):
		return is.Error()
	case errors.Is(err, ErrNotFound):
		return "resource not found"
	case errors.Is(err, ErrOrderCompleted):
		return "order already completed"
	case errors.Is(err, ErrInvalidStatus):
		return "invalid status transition"
	default:
		return "internal error"
	}
}
