package pdf

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "github.com/hhrutter/tiff"
	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// Assets handles PDF image extraction. Image bytes come from pdfcpu, page
// geometry and resource metadata from ledongthuc/pdf.
type Assets struct {
	conf *model.Configuration
}

// NewAssets creates a new PDF assets extractor
func NewAssets() *Assets {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	return &Assets{conf: conf}
}

// PageImages decodes every embedded raster image in the file and groups it
// by page. Images are unfiltered and carry their IDs but no y-positions.
// pdfcpu does not report dimensions, so they are read from the rendered
// bytes; formats Go cannot decode (jpx) come back as 0x0.
func (a *Assets) PageImages(path string) (map[int][]ExtractedImage, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	pages, err := api.ExtractImagesRaw(f, nil, a.conf)
	if err != nil {
		return nil, fmt.Errorf("failed to extract images: %w", err)
	}

	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	source := filepath.Base(path)
	result := make(map[int][]ExtractedImage)

	for _, page := range pages {
		objNrs := make([]int, 0, len(page))
		for objNr := range page {
			objNrs = append(objNrs, objNr)
		}
		sort.Ints(objNrs)

		for _, objNr := range objNrs {
			img := page[objNr]
			if img.Reader == nil {
				continue
			}
			data, err := io.ReadAll(img)
			if err != nil || len(data) == 0 {
				continue
			}

			width, height := img.Width, img.Height
			if width <= 0 || height <= 0 {
				width, height = imageSize(data)
			}

			idx := len(result[img.PageNr])
			result[img.PageNr] = append(result[img.PageNr], ExtractedImage{
				ID:         fmt.Sprintf("%s_p%d_i%d", stem, img.PageNr, idx),
				Data:       data,
				Width:      width,
				Height:     height,
				PageNumber: img.PageNr,
				SourceFile: source,
				Format:     normalizeFileType(img.FileType),
				resource:   img.Name,
			})
		}
	}

	return result, nil
}

// imageSize reads the pixel dimensions from an encoded image header
func imageSize(data []byte) (int, int) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0
	}
	return cfg.Width, cfg.Height
}

// applySizes overwrites image dimensions with the /Width and /Height of the
// XObject each image is drawn under, when the page declares them.
func applySizes(images []ExtractedImage, raw []RawImageInfo) {
	sizes := make(map[string]RawImageInfo, len(raw))
	for _, info := range raw {
		sizes[info.Name] = info
	}
	for i := range images {
		info, ok := sizes[images[i].resource]
		if !ok || info.Width <= 0 || info.Height <= 0 {
			continue
		}
		images[i].Width = info.Width
		images[i].Height = info.Height
	}
}

// RawImages lists the image XObjects referenced by a page's resources
func (a *Assets) RawImages(r *pdf.Reader, pageNum int) (images []RawImageInfo) {
	defer func() {
		// Recover from any panics during image extraction
		if recover() != nil {
			images = nil
		}
	}()

	page := r.Page(pageNum)
	if page.V.IsNull() {
		return nil
	}

	xObjects := page.V.Key("Resources").Key("XObject")
	if xObjects.IsNull() || xObjects.Kind() != pdf.Dict {
		return nil
	}

	for _, key := range xObjects.Keys() {
		obj := xObjects.Key(key)
		if obj.IsNull() || obj.Key("Subtype").Name() != "Image" {
			continue
		}

		info := RawImageInfo{
			Name:       key,
			PageNumber: pageNum,
			Width:      int(obj.Key("Width").Int64()),
			Height:     int(obj.Key("Height").Int64()),
			Format:     filterFormat(obj.Key("Filter")),
		}
		images = append(images, info)
	}

	return images
}

// filterFormat converts a PDF Filter entry to a readable format name. Filter
// may be a single name or an array whose last entry is the image codec.
func filterFormat(filter pdf.Value) string {
	name := filter.Name()
	if filter.Kind() == pdf.Array && filter.Len() > 0 {
		name = filter.Index(filter.Len() - 1).Name()
	}

	switch name {
	case "DCTDecode":
		return "jpeg"
	case "JPXDecode":
		return "jpx"
	case "CCITTFaxDecode":
		return "ccitt"
	case "JBIG2Decode":
		return "jbig2"
	case "FlateDecode":
		return "flate"
	case "":
		return "raw"
	default:
		return name
	}
}

// normalizeFileType maps pdfcpu file types to the extensions images are saved with
func normalizeFileType(t string) string {
	switch strings.ToLower(t) {
	case "jpg", "jpeg":
		return "jpeg"
	case "tif", "tiff":
		return "tiff"
	case "":
		return "png"
	default:
		return strings.ToLower(t)
	}
}
