package errors

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorType_String(t *testing.T) {
	tests := []struct {
		errType  ErrorType
		expected string
	}{
		{ErrorTypeSourceDocument, "SOURCE_DOCUMENT"},
		{ErrorTypeFormatAmbiguity, "FORMAT_AMBIGUITY"},
		{ErrorTypeBlockExtraction, "BLOCK_EXTRACTION"},
		{ErrorTypeValidation, "VALIDATION"},
		{ErrorTypeImageIO, "IMAGE_IO"},
		{ErrorTypeUnknown, "UNKNOWN"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.errType.String())
		})
	}
}

func TestErrorType_IsRecoverable(t *testing.T) {
	assert.False(t, ErrorTypeSourceDocument.IsRecoverable())
	assert.False(t, ErrorTypeUnknown.IsRecoverable())
	assert.True(t, ErrorTypeFormatAmbiguity.IsRecoverable())
	assert.True(t, ErrorTypeBlockExtraction.IsRecoverable())
	assert.True(t, ErrorTypeValidation.IsRecoverable())
	assert.True(t, ErrorTypeImageIO.IsRecoverable())
}

func TestExtractionError_Error(t *testing.T) {
	err := New(ErrorTypeImageIO, "decode failed").WithFile("a.pdf").WithPage(3).WithContext("obj 12")
	assert.Equal(t, "[IMAGE_IO] decode failed (a.pdf, page 3): obj 12", err.Error())

	plain := New(ErrorTypeSourceDocument, "corrupt")
	assert.Equal(t, "[SOURCE_DOCUMENT] corrupt", plain.Error())
}

func TestWrapAndUnwrap(t *testing.T) {
	cause := fmt.Errorf("boom")
	err := Wrap(ErrorTypeSourceDocument, cause)
	require.NotNil(t, err)
	assert.ErrorIs(t, err, cause)
	assert.Nil(t, Wrap(ErrorTypeImageIO, nil))

	wrapped := fmt.Errorf("outer: %w", err)
	assert.Equal(t, ErrorTypeSourceDocument, TypeOf(wrapped))
	assert.False(t, IsRecoverable(wrapped))
	assert.Equal(t, ErrorTypeUnknown, TypeOf(cause))
}

func TestCollector(t *testing.T) {
	c := NewCollector()
	assert.Equal(t, "No errors or warnings", c.Summary())

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				c.Add(New(ErrorTypeSourceDocument, "bad file"))
			} else {
				c.Add(New(ErrorTypeImageIO, "bad image"))
			}
		}(i)
	}
	wg.Wait()
	c.Add(nil)
	c.Add(fmt.Errorf("plain"))

	errs, warns := c.Count()
	assert.Equal(t, 6, errs)
	assert.Equal(t, 5, warns)
	assert.Equal(t, 5, c.CountByType()["SOURCE_DOCUMENT"])
	assert.Equal(t, 1, c.CountByType()["UNKNOWN"])
	assert.Contains(t, c.Summary(), "6 error(s)")
}
