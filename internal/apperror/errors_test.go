package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
)

func TestAs(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
	}{
		{"bad request", NewBadRequest("Name is required."), http.StatusBadRequest},
		{"wrapped locked", fmt.Errorf("saving: %w", NewLocked("roadmap.xlsx", errors.New("sharing violation"))), StatusLocked},
		{"plain error", errors.New("disk full"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := As(tt.err).Code; got != tt.wantCode {
				t.Errorf("As(%v).Code = %d, want %d", tt.err, got, tt.wantCode)
			}
		})
	}
}

func TestNewUnexpected_IncludesRawText(t *testing.T) {
	err := NewUnexpected(errors.New("disk full"))
	if !strings.Contains(err.Message, "disk full") {
		t.Errorf("message %q does not include the raw error", err.Message)
	}
	if !strings.HasPrefix(err.Message, "Unexpected: ") {
		t.Errorf("message %q missing Unexpected prefix", err.Message)
	}
}

func TestIsLocked(t *testing.T) {
	cause := errors.New("permission denied")
	err := fmt.Errorf("opening workbook: %w", NewLocked("roadmap.xlsx", cause))
	if !IsLocked(err) {
		t.Error("expected wrapped locked error to be detected")
	}
	if !errors.Is(err, cause) {
		t.Error("expected locked error to unwrap to its cause")
	}
	if IsLocked(NewBadRequest("nope")) {
		t.Error("bad request reported as locked")
	}
	if IsLocked(nil) {
		t.Error("nil reported as locked")
	}
}

func TestIsNotFound(t *testing.T) {
	if !IsNotFound(fmt.Errorf("lookup: %w", NewNotFound("Goal id 3 not found"))) {
		t.Error("expected wrapped not-found to be detected")
	}
	if IsNotFound(errors.New("other")) {
		t.Error("plain error reported as not found")
	}
}

func TestNewLocked_NamesFile(t *testing.T) {
	err := NewLocked("plans-2025.xlsx", errors.New("held"))
	want := "plans-2025.xlsx is locked by another application. Close it and try again."
	if err.Message != want {
		t.Errorf("message = %q, want %q", err.Message, want)
	}
	if err.Code != StatusLocked || err.Type != "write_locked" {
		t.Errorf("code/type = %d/%s", err.Code, err.Type)
	}
}
