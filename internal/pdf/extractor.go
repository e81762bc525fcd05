package pdf

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	pdferrors "github.com/a3tai/mcq-extractor/internal/pdf/errors"
)

// Extractor turns a PDF into a Document: page texts plus, when an image
// filter is supplied, the surviving images of every page sorted top to bottom.
type Extractor struct {
	validator *Validator
	assets    *Assets
	logger    *slog.Logger
}

// NewExtractor creates an extractor for files up to maxFileSize bytes
func NewExtractor(maxFileSize int64, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{
		validator: NewValidator(maxFileSize),
		assets:    NewAssets(),
		logger:    logger,
	}
}

// Extract reads one PDF. A file that cannot be opened fails with a
// source-document error. Failures on individual pages or on the image layer
// are recorded in collector (which may be nil) and extraction continues.
// Passing a nil filter skips image extraction.
func (e *Extractor) Extract(ctx context.Context, path string, filter *ImageFilter, collector *pdferrors.Collector) (*Document, error) {
	if err := e.validator.Validate(path); err != nil {
		return nil, err
	}

	f, r, err := openPDF(path)
	if err != nil {
		return nil, pdferrors.Wrap(pdferrors.ErrorTypeSourceDocument, err).WithFile(path)
	}
	defer f.Close()

	doc := &Document{Path: path, Name: filepath.Base(path)}
	numPages := r.NumPage()

	for pageNum := 1; pageNum <= numPages; pageNum++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		text, err := pageText(r, pageNum)
		if err != nil {
			record(collector, pdferrors.Wrap(pdferrors.ErrorTypeBlockExtraction, err).
				WithFile(path).WithPage(pageNum))
			e.logger.Warn("page text extraction failed", "file", path, "page", pageNum, "error", err)
		}
		doc.Pages = append(doc.Pages, Page{Number: pageNum, Text: text})
	}

	if filter == nil {
		return doc, nil
	}

	byPage, err := e.assets.PageImages(path)
	if err != nil {
		record(collector, pdferrors.Wrap(pdferrors.ErrorTypeImageIO, err).WithFile(path))
		e.logger.Warn("image extraction failed, continuing without images", "file", path, "error", err)
		return doc, nil
	}

	for i := range doc.Pages {
		page := &doc.Pages[i]
		images := byPage[page.Number]
		if len(images) == 0 {
			continue
		}

		applySizes(images, e.assets.RawImages(r, page.Number))
		positions := imagePositions(r.Page(page.Number))
		for j := range images {
			if y, ok := positions[images[j].resource]; ok {
				images[j].YPosition = y
			}
		}
		page.Images = filter.FilterPage(images)
	}

	e.logger.Debug("extracted document",
		"file", path,
		"pages", numPages,
		"images", doc.ImageCount())

	return doc, nil
}

// Inspect reports page count, text volume and the raw image XObjects of a
// PDF without filtering anything.
func (e *Extractor) Inspect(ctx context.Context, path string) (*FileReport, error) {
	if err := e.validator.Validate(path); err != nil {
		return nil, err
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, pdferrors.Wrap(pdferrors.ErrorTypeSourceDocument, err).WithFile(path)
	}

	pageCount, err := e.pageCount(path)
	if err != nil {
		return nil, pdferrors.Wrap(pdferrors.ErrorTypeSourceDocument, err).WithFile(path)
	}

	f, r, err := openPDF(path)
	if err != nil {
		return nil, pdferrors.Wrap(pdferrors.ErrorTypeSourceDocument, err).WithFile(path)
	}
	defer f.Close()

	report := &FileReport{
		Path:      path,
		Size:      info.Size(),
		Pages:     pageCount,
		RawImages: []RawImageInfo{},
	}

	textLength := 0
	sample := ""
	for pageNum := 1; pageNum <= r.NumPage(); pageNum++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		text, _ := pageText(r, pageNum)
		textLength += len(text)
		if len(sample) < minMeaningfulTextLength {
			sample += text
		}
		report.RawImages = append(report.RawImages, e.assets.RawImages(r, pageNum)...)
	}

	report.TextLength = textLength
	report.ContentType = contentType(sample, len(report.RawImages))

	return report, nil
}

// pageCount reads the page count with pdfcpu, which tolerates more broken
// cross-reference tables than the text reader.
func (e *Extractor) pageCount(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	ctx, err := api.ReadContext(f, e.assets.conf)
	if err != nil {
		return 0, fmt.Errorf("failed to read PDF context: %w", err)
	}

	if err := ctx.EnsurePageCount(); err != nil {
		return 0, fmt.Errorf("failed to ensure page count: %w", err)
	}

	return ctx.PageCount, nil
}

func record(c *pdferrors.Collector, err error) {
	if c != nil {
		c.Add(err)
	}
}
