package errs

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindsMatchSentinels(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel error
	}{
		{"validation", Validation("title", "must not be empty"), ErrValidation},
		{"conflict", Conflict("sprint %d is already active", 3), ErrConflict},
		{"not found", NotFound("sprint", 9), ErrNotFound},
		{"store", Store("list sprints", errors.New("disk I/O error")), ErrStore},
		{"wrapped validation", fmt.Errorf("failed to create item: %w", Validation("type", "bad")), ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !errors.Is(tt.err, tt.sentinel) {
				t.Errorf("errors.Is(%v, %v) = false, want true", tt.err, tt.sentinel)
			}
			for _, other := range []error{ErrValidation, ErrConflict, ErrNotFound, ErrStore} {
				if other != tt.sentinel && errors.Is(tt.err, other) {
					t.Errorf("errors.Is(%v, %v) = true, want false", tt.err, other)
				}
			}
		})
	}
}

func TestStoreKeepsKnownErrors(t *testing.T) {
	nf := NotFound("item", 4)
	if got := Store("update item", nf); got != nf {
		t.Errorf("Store() = %v, want original NotFoundError", got)
	}
	if Store("noop", nil) != nil {
		t.Error("Store(nil) should be nil")
	}
}

func TestStoreErrorUnwraps(t *testing.T) {
	cause := errors.New("database is locked")
	err := Store("begin transaction", cause)
	if !errors.Is(err, cause) {
		t.Errorf("StoreError should unwrap to its cause")
	}
	var se *StoreError
	if !errors.As(err, &se) || se.Op != "begin transaction" {
		t.Errorf("errors.As() StoreError = %+v", se)
	}
}

func TestMessages(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{Validation("title", "must not be empty"), "invalid title: must not be empty"},
		{&ValidationError{Reason: "a task cannot be its own parent"}, "a task cannot be its own parent"},
		{NotFound("item", 12), "item 12 not found"},
		{NotFound("active sprint", 0), "active sprint not found"},
		{Conflict("no active sprint"), "no active sprint"},
	}
	for _, tt := range tests {
		if tt.err.Error() != tt.want {
			t.Errorf("Error() = %q, want %q", tt.err.Error(), tt.want)
		}
	}
}
