// Package errs defines the error taxonomy shared by the core, the services and
// the store adapters. Each concrete type matches its sentinel with errors.Is.
package errs

import (
	"errors"
	"fmt"
)

// Sentinels for errors.Is checks.
var (
	ErrValidation = errors.New("validation error")
	ErrConflict   = errors.New("conflict")
	ErrNotFound   = errors.New("not found")
	ErrStore      = errors.New("store error")
)

// ValidationError reports a request that would break a domain rule.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// ConflictError reports a request that clashes with current state,
// e.g. a second active sprint in a partition.
type ConflictError struct {
	Reason string
}

func (e *ConflictError) Error() string { return e.Reason }

func (e *ConflictError) Is(target error) bool { return target == ErrConflict }

// NotFoundError reports a reference to an id absent from the store.
type NotFoundError struct {
	Entity string
	ID     int64
}

func (e *NotFoundError) Error() string {
	if e.ID == 0 {
		return fmt.Sprintf("%s not found", e.Entity)
	}
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// StoreError wraps a persistence failure.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("failed to %s: %v", e.Op, e.Err)
}

func (e *StoreError) Is(target error) bool { return target == ErrStore }

func (e *StoreError) Unwrap() error { return e.Err }

// Validation builds a ValidationError.
func Validation(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// Conflict builds a ConflictError.
func Conflict(format string, args ...any) error {
	return &ConflictError{Reason: fmt.Sprintf(format, args...)}
}

// NotFound builds a NotFoundError.
func NotFound(entity string, id int64) error {
	return &NotFoundError{Entity: entity, ID: id}
}

// Store wraps err as a StoreError unless it already belongs to the taxonomy,
// so repository errors pass through transaction helpers unchanged.
func Store(op string, err error) error {
	if err == nil {
		return nil
	}
	if IsKnown(err) {
		return err
	}
	return &StoreError{Op: op, Err: err}
}

// IsKnown reports whether err already carries one of the taxonomy kinds.
func IsKnown(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrStore)
}

// Kind classifies a guard failure.
type Kind int

const (
	KindValidation Kind = iota
	KindConflict
)

// FromKind converts a guard reason into the matching typed error.
func FromKind(kind Kind, reason string) error {
	if kind == KindConflict {
		return &ConflictError{Reason: reason}
	}
	return &ValidationError{Reason: reason}
}
