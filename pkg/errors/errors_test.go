package errors

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"
)

func TestErrorFormatting(t *testing.T) {
	err := New(ErrCodeNodeNotFound, "research %q is not in the layout", "Smithing")
	if got, want := err.Error(), `NODE_NOT_FOUND: research "Smithing" is not in the layout`; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	wrapped := Wrap(ErrCodeFileNotFound, fs.ErrNotExist, "definition file %s", "tree.toml")
	if got, want := wrapped.Error(), "FILE_NOT_FOUND: definition file tree.toml: file does not exist"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(wrapped, fs.ErrNotExist) {
		t.Error("Wrap should keep the cause reachable through errors.Is")
	}
	if errors.Unwrap(wrapped) != fs.ErrNotExist {
		t.Error("Unwrap() should return the cause")
	}
}

func TestCodeLookup(t *testing.T) {
	busy := New(ErrCodeBusy, "a layout run is in progress")
	tests := []struct {
		name string
		err  error
		code Code
		msg  string
	}{
		{"coded", busy, ErrCodeBusy, "a layout run is in progress"},
		{"fmt wrapped", fmt.Errorf("rebuild: %w", busy), ErrCodeBusy, "a layout run is in progress"},
		{"outer code wins", Wrap(ErrCodeSourceUnavailable, New(ErrCodeInvalidInput, "inner"), "outer"), ErrCodeSourceUnavailable, "outer"},
		{"plain", errors.New("disk full"), "", "disk full"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetCode(tt.err); got != tt.code {
				t.Errorf("GetCode() = %q, want %q", got, tt.code)
			}
			if tt.code != "" && !Is(tt.err, tt.code) {
				t.Errorf("Is(%q) = false", tt.code)
			}
			if Is(tt.err, ErrCodeCycle) {
				t.Error("Is(PREREQUISITE_CYCLE) = true")
			}
			if got := UserMessage(tt.err); got != tt.msg {
				t.Errorf("UserMessage() = %q, want %q", got, tt.msg)
			}
		})
	}

	if Is(nil, ErrCodeInternal) || GetCode(nil) != "" {
		t.Error("nil error should carry no code")
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		code Code
		want int
	}{
		{ErrCodeInvalidInput, 400},
		{ErrCodeInvalidConfig, 400},
		{ErrCodeInvalidFormat, 400},
		{ErrCodeInvalidPath, 400},
		{ErrCodeNotFound, 404},
		{ErrCodeNodeNotFound, 404},
		{ErrCodeFileNotFound, 404},
		{ErrCodeBusy, 409},
		{ErrCodeCycle, 422},
		{ErrCodeNotReady, 503},
		{ErrCodeSourceUnavailable, 503},
		{ErrCodeTimeout, 504},
		{ErrCodeUnsupported, 501},
		{ErrCodeInternal, 500},
		{"", 500},
	}
	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			if got := HTTPStatus(tt.code); got != tt.want {
				t.Errorf("HTTPStatus(%q) = %d, want %d", tt.code, got, tt.want)
			}
		})
	}
}
