package errors

import (
	"testing"
)

func TestValidateRecordID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid simple", "Electricity", false},
		{"valid with underscore", "Gun_Turrets", false},
		{"valid with dot", "mod.Research", false},

		{"empty", "", true},
		{"too long", string(make([]byte, 300)), true},
		{"space", "Gun Turrets", true},
		{"slash", "a/b", true},
		{"backslash", "a\\b", true},
		{"null byte", "foo\x00bar", true},
		{"newline", "foo\nbar", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRecordID(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateRecordID(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidInput) {
				t.Errorf("ValidateRecordID(%q) code = %v, want %v", tt.input, GetCode(err), ErrCodeInvalidInput)
			}
		})
	}
}

func TestValidateSourceName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"empty", "", false},
		{"core", "Ludeon.RimWorld", false},
		{"spaces allowed", "Vanilla Expanded", false},
		{"control char", "bad\x01", true},
		{"too long", string(make([]byte, 300)), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSourceName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateSourceName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateURI(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		schemes []string
		wantErr bool
	}{
		{"mongo", "mongodb://localhost:27017", []string{"mongodb", "mongodb+srv"}, false},
		{"mongo srv", "mongodb+srv://cluster.example.com", []string{"mongodb", "mongodb+srv"}, false},
		{"redis", "redis://localhost:6379/0", []string{"redis", "rediss"}, false},
		{"wrong scheme", "http://localhost", []string{"redis"}, true},
		{"empty", "", []string{"redis"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateURI(tt.input, tt.schemes...)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateURI(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestErrorCodesAreUnique(t *testing.T) {
	codes := []Code{
		ErrCodeInvalidInput,
		ErrCodeInvalidConfig,
		ErrCodeInvalidFormat,
		ErrCodeInvalidPath,
		ErrCodeCycle,
		ErrCodeNotFound,
		ErrCodeNodeNotFound,
		ErrCodeFileNotFound,
		ErrCodeNotReady,
		ErrCodeBusy,
		ErrCodeSourceUnavailable,
		ErrCodeTimeout,
		ErrCodeInternal,
		ErrCodeUnsupported,
	}

	seen := make(map[Code]bool)
	for _, code := range codes {
		if seen[code] {
			t.Errorf("Duplicate error code: %s", code)
		}
		seen[code] = true
	}
}
