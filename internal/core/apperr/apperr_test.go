package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestError_IsKindAndSentinel(t *testing.T) {
	t.Parallel()

	errTaskNotFound := New(ErrNotFound, "task: not found")
	wrapped := fmt.Errorf("complete task: %w", errTaskNotFound)

	if !errors.Is(wrapped, errTaskNotFound) {
		t.Fatalf("expected wrapped error to match its sentinel")
	}
	if !errors.Is(wrapped, ErrNotFound) {
		t.Fatalf("expected wrapped error to match its kind")
	}
	if errors.Is(wrapped, ErrConflict) {
		t.Fatalf("unexpected match with another kind")
	}
	if wrapped.Error() != "complete task: task: not found" {
		t.Fatalf("unexpected message: %s", wrapped.Error())
	}
}

func TestKind(t *testing.T) {
	t.Parallel()

	if Kind(New(ErrConflict, "x")) != ErrConflict {
		t.Fatalf("expected conflict kind")
	}
	if Kind(errors.New("plain")) != nil {
		t.Fatalf("expected nil kind for unclassified error")
	}
}
