package pdf

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDocument(t *testing.T) {
	doc := NewDocument("/data/raw/fmge_2021.pdf", []string{"Q.1 First  page", "", "Q.2 Third page"})

	assert.Equal(t, "fmge_2021.pdf", doc.Name)
	assert.Len(t, doc.Pages, 3)
	assert.Equal(t, 3, doc.Pages[2].Number)
	assert.Equal(t, "Q.1 First page\n\n\nQ.2 Third page", doc.FullText())

	doc.Pages[0].Images = []ExtractedImage{{ID: "fmge_2021_p1_i0"}}
	assert.Equal(t, 1, doc.ImageCount())
	assert.Contains(t, doc.ImagesByPage(), 1)
	assert.NotContains(t, doc.ImagesByPage(), 2)
}

func TestExtractedImage(t *testing.T) {
	img := ExtractedImage{ID: "paper_p3_i1", Format: "jpeg", Width: 120, Height: 100, Data: []byte("abc")}

	assert.Equal(t, 12000, img.Area())
	assert.Equal(t, "paper_p3_i1.jpeg", img.Filename())
	assert.Equal(t, "data:image/jpeg;base64,YWJj", img.DataURI())
}

func TestNormalizeFileType(t *testing.T) {
	assert.Equal(t, "jpeg", normalizeFileType("jpg"))
	assert.Equal(t, "tiff", normalizeFileType("tif"))
	assert.Equal(t, "png", normalizeFileType("PNG"))
	assert.Equal(t, "png", normalizeFileType(""))
}

func TestMatrixTop(t *testing.T) {
	// image drawn 200x100 at (50, 500)
	m := matrix{200, 0, 0, 100, 50, 500}
	assert.InDelta(t, 600.0, m.top(), 1e-9)

	// flipped vertically: top edge is the translation
	flipped := matrix{200, 0, 0, -100, 50, 500}
	assert.InDelta(t, 500.0, flipped.top(), 1e-9)

	// nested cm: scale then translate
	ctm := identity()
	ctm = matrix{1, 0, 0, 1, 10, 20}.mult(ctm)
	ctm = matrix{50, 0, 0, 50, 0, 0}.mult(ctm)
	assert.InDelta(t, 70.0, ctm.top(), 1e-9)
}
