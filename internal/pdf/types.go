package pdf

import (
	"encoding/base64"
	"path/filepath"
	"sort"
	"strings"
)

// FileInfo represents information about a PDF file
type FileInfo struct {
	Path         string `json:"path"`
	Name         string `json:"name"`
	Size         int64  `json:"size"`
	ModifiedTime string `json:"modified_time"`
}

// ExtractedImage is an embedded raster image that survived filtering.
type ExtractedImage struct {
	ID         string  `json:"id"`
	Data       []byte  `json:"-"`
	Width      int     `json:"width"`
	Height     int     `json:"height"`
	PageNumber int     `json:"page_number"`
	YPosition  float64 `json:"y_position"`
	SourceFile string  `json:"source_file"`
	Format     string  `json:"format"`

	// resource is the XObject name the page draws the image under
	resource string
}

// Area returns the pixel area of the image
func (img *ExtractedImage) Area() int {
	return img.Width * img.Height
}

// Filename returns the on-disk file name for the image
func (img *ExtractedImage) Filename() string {
	return img.ID + "." + img.Format
}

// DataURI returns the image inlined as a base64 data URI
func (img *ExtractedImage) DataURI() string {
	return "data:image/" + img.Format + ";base64," + base64.StdEncoding.EncodeToString(img.Data)
}

// Page is one page of a document: its plain text and surviving images,
// sorted by vertical position (top first).
type Page struct {
	Number int              `json:"number"`
	Text   string           `json:"text"`
	Images []ExtractedImage `json:"images,omitempty"`
}

// Document is the ephemeral per-PDF extraction result.
type Document struct {
	Path  string `json:"path"`
	Name  string `json:"name"`
	Pages []Page `json:"pages"`
}

// NewDocument builds a Document for path from page texts; used by callers
// that already have text in hand.
func NewDocument(path string, texts []string) *Document {
	doc := &Document{Path: path, Name: filepath.Base(path)}
	for i, text := range texts {
		doc.Pages = append(doc.Pages, Page{Number: i + 1, Text: text})
	}
	return doc
}

// PageTexts returns the raw text of every page in order
func (d *Document) PageTexts() []string {
	texts := make([]string, len(d.Pages))
	for i, p := range d.Pages {
		texts[i] = p.Text
	}
	return texts
}

// FullText returns all pages joined by a blank line and cleaned for parsing
func (d *Document) FullText() string {
	var b strings.Builder
	for _, p := range d.Pages {
		b.WriteString(p.Text)
		b.WriteString("\n\n")
	}
	return CleanText(b.String())
}

// ImagesByPage groups the document's images by page number
func (d *Document) ImagesByPage() map[int][]ExtractedImage {
	byPage := make(map[int][]ExtractedImage)
	for _, p := range d.Pages {
		if len(p.Images) > 0 {
			byPage[p.Number] = p.Images
		}
	}
	return byPage
}

// ImageCount returns the number of images across all pages
func (d *Document) ImageCount() int {
	n := 0
	for _, p := range d.Pages {
		n += len(p.Images)
	}
	return n
}

// ImageStats counts what the image filter saw and why images were dropped.
type ImageStats struct {
	TotalExtracted    int `json:"total_extracted"`
	FilteredSmall     int `json:"filtered_small"`
	FilteredWatermark int `json:"filtered_watermark"`
	FilteredAspect    int `json:"filtered_aspect"`
	FilteredDuplicate int `json:"filtered_duplicate"`
	ValidImages       int `json:"valid_images"`
}

// RawImageInfo describes an image XObject as found in a page's resources,
// before any filtering. Used for diagnostics.
type RawImageInfo struct {
	Name       string `json:"name"`
	PageNumber int    `json:"page_number"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	Format     string `json:"format"`
}

// FileReport is the diagnostic view of a single PDF.
type FileReport struct {
	Path        string         `json:"path"`
	Size        int64          `json:"size"`
	Pages       int            `json:"pages"`
	TextLength  int            `json:"text_length"`
	ContentType string         `json:"content_type"`
	RawImages   []RawImageInfo `json:"raw_images"`
}

func sortByY(images []ExtractedImage) {
	sort.SliceStable(images, func(i, j int) bool {
		return images[i].YPosition < images[j].YPosition
	})
}
