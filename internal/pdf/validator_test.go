package pdf

import (
	"os"
	"path/filepath"
	"testing"

	pdferrors "github.com/a3tai/mcq-extractor/internal/pdf/errors"
)

func TestValidator_ValidateFile(t *testing.T) {
	validator := NewValidator(1024 * 1024) // 1MB limit

	tempDir := t.TempDir()
	garbagePath := filepath.Join(tempDir, "garbage.pdf")
	if err := os.WriteFile(garbagePath, []byte("this is not a pdf at all"), 0o644); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}

	tests := []struct {
		name string
		path string
	}{
		{"empty path", ""},
		{"non-existent file", "/non/existent/file.pdf"},
		{"directory", tempDir},
		{"not a pdf", garbagePath},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := validator.ValidateFile(tt.path)
			if result == nil {
				t.Fatalf("result should not be nil")
			}
			if result.Valid {
				t.Errorf("expected invalid result for %q", tt.path)
			}
			if result.Path != tt.path {
				t.Errorf("expected Path=%s but got %s", tt.path, result.Path)
			}
			if result.Message == "" {
				t.Errorf("expected validation message for invalid file")
			}
		})
	}
}

func TestValidator_ValidateIsSourceDocumentError(t *testing.T) {
	validator := NewValidator(1024)

	err := validator.Validate("/non/existent/file.pdf")
	if err == nil {
		t.Fatalf("expected error for missing file")
	}
	if got := pdferrors.TypeOf(err); got != pdferrors.ErrorTypeSourceDocument {
		t.Errorf("expected SOURCE_DOCUMENT error but got %s", got)
	}
	if result := validator.ValidateFile("/non/existent/file.pdf"); result.Valid {
		t.Errorf("missing file should not be a valid PDF")
	}
}

func TestValidator_ValidateFileInfo(t *testing.T) {
	validator := NewValidator(1024 * 1024) // 1MB limit

	tempDir := t.TempDir()

	files := map[string][]byte{
		"valid.pdf":    make([]byte, 1024),
		"large.pdf":    make([]byte, 2*1024*1024),
		"empty.pdf":    {},
		"document.txt": []byte("text"),
		"UPPER.PDF":    make([]byte, 10),
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(tempDir, name), content, 0o644); err != nil {
			t.Fatalf("failed to create test file %s: %v", name, err)
		}
	}

	tests := []struct {
		name        string
		path        string
		expectError bool
	}{
		{"valid PDF", "valid.pdf", false},
		{"uppercase extension", "UPPER.PDF", false},
		{"large PDF", "large.pdf", true},
		{"empty PDF", "empty.pdf", true},
		{"non-PDF file", "document.txt", true},
		{"directory", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(tempDir, tt.path)
			info, err := os.Stat(path)
			if err != nil {
				t.Fatalf("failed to stat %s: %v", path, err)
			}

			err = validator.ValidateFileInfo(path, info)
			if tt.expectError && err == nil {
				t.Errorf("expected error but got none")
			}
			if !tt.expectError && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}
