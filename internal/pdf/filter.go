package pdf

import (
	"crypto/md5"
	"encoding/hex"
	"sync"
)

// Filter rejection reasons
const (
	RejectSmall     = "small"
	RejectWatermark = "watermark"
	RejectAspect    = "aspect"
	RejectDuplicate = "duplicate"
)

// Size is a width/height pair in pixels
type Size struct {
	Width  int `mapstructure:"width" json:"width"`
	Height int `mapstructure:"height" json:"height"`
}

// FilterOptions are the thresholds an image must pass to be kept.
type FilterOptions struct {
	MinWidth           int
	MinHeight          int
	MinArea            int
	WatermarkSizes     []Size
	WatermarkTolerance int
	MinAspect          float64
	MaxAspect          float64
}

// DefaultWatermarkSizes are icon and banner dimensions seen on decorative images.
var DefaultWatermarkSizes = []Size{
	{32, 32}, {48, 48}, {64, 64},
	{100, 30}, {150, 40}, {200, 50},
}

// DefaultFilterOptions returns the standard thresholds
func DefaultFilterOptions() FilterOptions {
	return FilterOptions{
		MinWidth:           80,
		MinHeight:          80,
		MinArea:            10000,
		WatermarkSizes:     DefaultWatermarkSizes,
		WatermarkTolerance: 10,
		MinAspect:          0.125,
		MaxAspect:          8.0,
	}
}

// ImageFilter rejects decorative, degenerate and already-seen images. The
// byte-hash set lives as long as the filter, so one filter shared across a
// run deduplicates images across every PDF in it. Safe for concurrent use.
type ImageFilter struct {
	opts FilterOptions

	mu    sync.Mutex
	seen  map[string]struct{}
	stats ImageStats
}

// NewImageFilter creates a filter with an empty seen-set
func NewImageFilter(opts FilterOptions) *ImageFilter {
	return &ImageFilter{
		opts: opts,
		seen: make(map[string]struct{}),
	}
}

// Accept runs the checks in cost order (dimensions, watermark sizes, aspect
// ratio, then content hash) and returns the rejection reason when the image
// is dropped. Accepted images are added to the seen-set.
func (f *ImageFilter) Accept(img *ExtractedImage) (bool, string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.stats.TotalExtracted++

	if reason := f.checkGeometry(img.Width, img.Height); reason != "" {
		switch reason {
		case RejectSmall:
			f.stats.FilteredSmall++
		case RejectWatermark:
			f.stats.FilteredWatermark++
		case RejectAspect:
			f.stats.FilteredAspect++
		}
		return false, reason
	}

	sum := md5.Sum(img.Data)
	key := hex.EncodeToString(sum[:])
	if _, dup := f.seen[key]; dup {
		f.stats.FilteredDuplicate++
		return false, RejectDuplicate
	}
	f.seen[key] = struct{}{}

	f.stats.ValidImages++
	return true, ""
}

func (f *ImageFilter) checkGeometry(width, height int) string {
	if width < f.opts.MinWidth || height < f.opts.MinHeight || width <= 0 || height <= 0 {
		return RejectSmall
	}
	if width*height < f.opts.MinArea {
		return RejectSmall
	}
	for _, s := range f.opts.WatermarkSizes {
		if abs(width-s.Width) <= f.opts.WatermarkTolerance && abs(height-s.Height) <= f.opts.WatermarkTolerance {
			return RejectWatermark
		}
	}
	aspect := float64(width) / float64(height)
	if aspect < f.opts.MinAspect || aspect > f.opts.MaxAspect {
		return RejectAspect
	}
	return ""
}

// FilterPage keeps the accepted images of one page, sorted top to bottom.
func (f *ImageFilter) FilterPage(images []ExtractedImage) []ExtractedImage {
	var kept []ExtractedImage
	for i := range images {
		if ok, _ := f.Accept(&images[i]); ok {
			kept = append(kept, images[i])
		}
	}
	sortByY(kept)
	return kept
}

// Seen reports whether an image with the same bytes was already accepted
func (f *ImageFilter) Seen(data []byte) bool {
	sum := md5.Sum(data)
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.seen[hex.EncodeToString(sum[:])]
	return ok
}

// Stats returns a snapshot of the filter counters
func (f *ImageFilter) Stats() ImageStats {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stats
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
