package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestResolveError(t *testing.T) {
	t.Run("without cause", func(t *testing.T) {
		err := New(NotFound, "no definition for Foo")
		want := "[NOT_FOUND] no definition for Foo"
		if err.Error() != want {
			t.Errorf("Error() = %q, want %q", err.Error(), want)
		}
	})

	t.Run("with cause", func(t *testing.T) {
		cause := errors.New("disk on fire")
		err := Wrap(PersistenceError, "failed to load symbols", cause)
		want := "[PERSISTENCE_ERROR] failed to load symbols: disk on fire"
		if err.Error() != want {
			t.Errorf("Error() = %q, want %q", err.Error(), want)
		}
		if !errors.Is(err, cause) {
			t.Error("errors.Is should find the wrapped cause")
		}
	})

	t.Run("formatted message", func(t *testing.T) {
		err := Newf(ArtifactUnavailable, "cannot open %s", "lib.jar")
		if err.Message != "cannot open lib.jar" {
			t.Errorf("Message = %q", err.Message)
		}
	})
}

func TestCodeOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorCode
	}{
		{"direct", New(RecursionExceeded, "too deep"), RecursionExceeded},
		{"wrapped in fmt", fmt.Errorf("outer: %w", New(NotFound, "x")), NotFound},
		{"plain error", errors.New("plain"), InternalError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CodeOf(tt.err); got != tt.want {
				t.Errorf("CodeOf() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIsNotFound(t *testing.T) {
	if !IsNotFound(New(NotFound, "x")) {
		t.Error("expected true for NotFound error")
	}
	if IsNotFound(New(Ambiguous, "x")) {
		t.Error("expected false for Ambiguous error")
	}
}
