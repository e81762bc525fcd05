package pdf

import (
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	pdferrors "github.com/a3tai/mcq-extractor/internal/pdf/errors"
)

// Content types reported for a document
const (
	ContentText          = "text"
	ContentMixed         = "mixed"
	ContentScannedImages = "scanned_images"
	ContentNone          = "no_content"
)

// minMeaningfulTextLength is the text length below which a document is
// treated as image-only.
const minMeaningfulTextLength = 50

// Reader handles PDF text reading operations
type Reader struct {
	validator   *Validator
	maxTextSize int
}

// NewReader creates a new PDF reader with the specified constraints
func NewReader(maxFileSize int64) *Reader {
	return &Reader{
		validator:   NewValidator(maxFileSize),
		maxTextSize: 10 * 1024 * 1024, // 10MB text limit
	}
}

// PageTexts returns the plain text of the first limit pages of a PDF, or of
// every page when limit is zero or negative.
func (r *Reader) PageTexts(ctx context.Context, path string, limit int) ([]string, error) {
	if err := r.validator.Validate(path); err != nil {
		return nil, err
	}

	f, pdfReader, err := openPDF(path)
	if err != nil {
		return nil, pdferrors.Wrap(pdferrors.ErrorTypeSourceDocument, err).WithFile(path)
	}
	defer f.Close()

	n := pdfReader.NumPage()
	if limit > 0 && limit < n {
		n = limit
	}

	texts := make([]string, 0, n)
	total := 0
	for pageNum := 1; pageNum <= n; pageNum++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		content, err := pageText(pdfReader, pageNum)
		if err != nil {
			// Continue with other pages even if one fails
			content = ""
		}

		if total+len(content) > r.maxTextSize {
			content = content[:max(0, r.maxTextSize-total)]
		}
		total += len(content)
		texts = append(texts, content)
	}

	return texts, nil
}

// pageText extracts the plain text of one page, converting reader panics
// into errors.
func pageText(pdfReader *pdf.Reader, pageNum int) (text string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			text, err = "", fmt.Errorf("page %d: text extraction panic: %v", pageNum, rec)
		}
	}()

	page := pdfReader.Page(pageNum)
	if page.V.IsNull() {
		return "", nil
	}

	return page.GetPlainText(nil)
}

// contentType classifies a document from its extracted text and image count
func contentType(text string, imageCount int) string {
	clean := strings.TrimSpace(text)
	hasImages := imageCount > 0

	if len(clean) < minMeaningfulTextLength {
		if hasImages {
			return ContentScannedImages
		}
		return ContentNone
	}

	if hasImages {
		return ContentMixed
	}

	return ContentText
}
