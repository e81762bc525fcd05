package errors

import (
	stderrors "errors"
	"fmt"
	"sync"
	"time"
)

// ExtractionError describes a failure somewhere in the extraction pipeline,
// carrying enough context to report it per file without aborting the batch.
type ExtractionError struct {
	Type        ErrorType `json:"type"`
	Message     string    `json:"message"`
	Context     string    `json:"context,omitempty"`
	FilePath    string    `json:"file_path,omitempty"`
	PageNumber  int       `json:"page_number,omitempty"`
	Recoverable bool      `json:"recoverable"`
	Timestamp   time.Time `json:"timestamp"`
	Err         error     `json:"-"`
}

// ErrorType represents the categories of extraction failure
type ErrorType int

const (
	ErrorTypeUnknown ErrorType = iota
	// ErrorTypeSourceDocument covers unreadable files, corrupt PDFs and empty documents.
	ErrorTypeSourceDocument
	// ErrorTypeFormatAmbiguity is informational: no question family matched.
	ErrorTypeFormatAmbiguity
	// ErrorTypeBlockExtraction marks a single question block that could not be parsed.
	ErrorTypeBlockExtraction
	// ErrorTypeValidation marks an assembled record that violates the validity rules.
	ErrorTypeValidation
	// ErrorTypeImageIO covers per-image decode and persistence failures.
	ErrorTypeImageIO
)

// ErrorSeverity indicates how an error is reported
type ErrorSeverity int

const (
	SeverityInfo ErrorSeverity = iota
	SeverityWarning
	SeverityError
)

// Error implements the error interface
func (e *ExtractionError) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Type.String(), e.Message)
	if e.FilePath != "" {
		msg += " (" + e.FilePath
		if e.PageNumber > 0 {
			msg += fmt.Sprintf(", page %d", e.PageNumber)
		}
		msg += ")"
	}
	if e.Context != "" {
		msg += ": " + e.Context
	}
	return msg
}

// Unwrap exposes the underlying cause
func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// String returns a string representation of the ErrorType
func (et ErrorType) String() string {
	switch et {
	case ErrorTypeSourceDocument:
		return "SOURCE_DOCUMENT"
	case ErrorTypeFormatAmbiguity:
		return "FORMAT_AMBIGUITY"
	case ErrorTypeBlockExtraction:
		return "BLOCK_EXTRACTION"
	case ErrorTypeValidation:
		return "VALIDATION"
	case ErrorTypeImageIO:
		return "IMAGE_IO"
	default:
		return "UNKNOWN"
	}
}

// GetSeverity returns the severity level for a given error type
func (et ErrorType) GetSeverity() ErrorSeverity {
	switch et {
	case ErrorTypeFormatAmbiguity:
		return SeverityInfo
	case ErrorTypeBlockExtraction, ErrorTypeValidation, ErrorTypeImageIO:
		return SeverityWarning
	default:
		return SeverityError
	}
}

// IsRecoverable reports whether processing of the enclosing document can
// continue after an error of this type. Source document errors end the
// document, never the batch.
func (et ErrorType) IsRecoverable() bool {
	switch et {
	case ErrorTypeFormatAmbiguity, ErrorTypeBlockExtraction, ErrorTypeValidation, ErrorTypeImageIO:
		return true
	default:
		return false
	}
}

// New creates a new ExtractionError
func New(errorType ErrorType, message string) *ExtractionError {
	return &ExtractionError{
		Type:        errorType,
		Message:     message,
		Recoverable: errorType.IsRecoverable(),
		Timestamp:   time.Now(),
	}
}

// Wrap wraps err as an ExtractionError of the given type
func Wrap(errorType ErrorType, err error) *ExtractionError {
	if err == nil {
		return nil
	}
	e := New(errorType, err.Error())
	e.Err = err
	return e
}

// WithContext adds context to an existing ExtractionError
func (e *ExtractionError) WithContext(context string) *ExtractionError {
	e.Context = context
	return e
}

// WithFile adds file path information to an existing ExtractionError
func (e *ExtractionError) WithFile(filePath string) *ExtractionError {
	e.FilePath = filePath
	return e
}

// WithPage adds page number information to an existing ExtractionError
func (e *ExtractionError) WithPage(pageNumber int) *ExtractionError {
	e.PageNumber = pageNumber
	return e
}

// GetSeverity returns the severity of this specific error
func (e *ExtractionError) GetSeverity() ErrorSeverity {
	return e.Type.GetSeverity()
}

// TypeOf returns the ErrorType of err, or ErrorTypeUnknown when err is not
// an ExtractionError.
func TypeOf(err error) ErrorType {
	var ee *ExtractionError
	if stderrors.As(err, &ee) {
		return ee.Type
	}
	return ErrorTypeUnknown
}

// IsRecoverable reports whether err allows the current document to continue.
func IsRecoverable(err error) bool {
	var ee *ExtractionError
	if stderrors.As(err, &ee) {
		return ee.Recoverable
	}
	return false
}

// Collector accumulates errors for one run. Safe for concurrent use.
type Collector struct {
	mu       sync.Mutex
	errors   []*ExtractionError
	warnings []*ExtractionError
}

// NewCollector creates an empty Collector
func NewCollector() *Collector {
	return &Collector{}
}

// Add records err. Plain errors are recorded as unknown errors.
func (c *Collector) Add(err error) {
	if err == nil {
		return
	}
	var ee *ExtractionError
	if !stderrors.As(err, &ee) {
		ee = Wrap(ErrorTypeUnknown, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if ee.GetSeverity() == SeverityError {
		c.errors = append(c.errors, ee)
	} else {
		c.warnings = append(c.warnings, ee)
	}
}

// Errors returns a copy of the recorded errors
func (c *Collector) Errors() []*ExtractionError {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*ExtractionError(nil), c.errors...)
}

// Warnings returns a copy of the recorded warnings
func (c *Collector) Warnings() []*ExtractionError {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*ExtractionError(nil), c.warnings...)
}

// CountByType returns the number of recorded entries per error type
func (c *Collector) CountByType() map[string]int {
	c.mu.Lock()
	defer c.mu.Unlock()
	counts := make(map[string]int)
	for _, e := range c.errors {
		counts[e.Type.String()]++
	}
	for _, e := range c.warnings {
		counts[e.Type.String()]++
	}
	return counts
}

// Count returns the total number of errors and warnings
func (c *Collector) Count() (errors, warnings int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.errors), len(c.warnings)
}

// Summary returns a text summary of all errors and warnings
func (c *Collector) Summary() string {
	errorCount, warningCount := c.Count()
	if errorCount == 0 && warningCount == 0 {
		return "No errors or warnings"
	}
	return fmt.Sprintf("Found %d error(s) and %d warning(s)", errorCount, warningCount)
}
