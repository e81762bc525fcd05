package pdf

import (
	"fmt"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"

	pdferrors "github.com/a3tai/mcq-extractor/internal/pdf/errors"
)

// ValidationResult reports whether a file can be fed to the extractor
type ValidationResult struct {
	Path    string `json:"path"`
	Valid   bool   `json:"valid"`
	Message string `json:"message,omitempty"`
}

// Validator handles PDF file validation operations
type Validator struct {
	maxFileSize int64
}

// NewValidator creates a new PDF validator with the specified constraints
func NewValidator(maxFileSize int64) *Validator {
	return &Validator{
		maxFileSize: maxFileSize,
	}
}

// ValidateFile checks a file and reports the outcome without failing
func (v *Validator) ValidateFile(path string) *ValidationResult {
	result := &ValidationResult{Path: path}
	if err := v.Validate(path); err != nil {
		result.Message = err.Error()
		return result
	}
	result.Valid = true
	return result
}

// Validate performs detailed validation on a PDF file, including opening it.
// Failures are source-document errors.
func (v *Validator) Validate(filePath string) error {
	if filePath == "" {
		return pdferrors.New(pdferrors.ErrorTypeSourceDocument, "path cannot be empty")
	}

	fileInfo, err := os.Stat(filePath)
	if os.IsNotExist(err) {
		return pdferrors.New(pdferrors.ErrorTypeSourceDocument, "file does not exist").WithFile(filePath)
	}
	if err != nil {
		return pdferrors.Wrap(pdferrors.ErrorTypeSourceDocument, fmt.Errorf("cannot access file: %w", err)).
			WithFile(filePath)
	}

	if err := v.ValidateFileInfo(filePath, fileInfo); err != nil {
		return pdferrors.Wrap(pdferrors.ErrorTypeSourceDocument, err).WithFile(filePath)
	}

	f, r, err := openPDF(filePath)
	if err != nil {
		return pdferrors.Wrap(pdferrors.ErrorTypeSourceDocument, fmt.Errorf("invalid PDF file: %w", err)).
			WithFile(filePath)
	}
	defer f.Close()

	if r.NumPage() == 0 {
		return pdferrors.New(pdferrors.ErrorTypeSourceDocument, "document has zero pages").WithFile(filePath)
	}

	return nil
}

// ValidateFileInfo performs basic validation on file info without opening the PDF
func (v *Validator) ValidateFileInfo(filePath string, fileInfo os.FileInfo) error {
	if fileInfo.IsDir() {
		return fmt.Errorf("path is a directory, not a file: %s", filePath)
	}

	if !strings.HasSuffix(strings.ToLower(filePath), ".pdf") {
		return fmt.Errorf("file is not a PDF: %s", filePath)
	}

	if fileInfo.Size() == 0 {
		return fmt.Errorf("file is empty: %s", filePath)
	}

	if fileInfo.Size() > v.maxFileSize {
		return fmt.Errorf("file too large: %d bytes (max: %d bytes)",
			fileInfo.Size(), v.maxFileSize)
	}

	return nil
}

// openPDF opens a PDF with ledongthuc/pdf, converting its panics on
// malformed input into errors.
func openPDF(path string) (f *os.File, r *pdf.Reader, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			if f != nil {
				f.Close()
			}
			f, r, err = nil, nil, fmt.Errorf("pdf reader panic: %v", rec)
		}
	}()
	return pdf.Open(path)
}
