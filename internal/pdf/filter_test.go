package pdf

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testImage(w, h int, data string) *ExtractedImage {
	return &ExtractedImage{Width: w, Height: h, Data: []byte(data), Format: "png"}
}

func TestImageFilter_Accept(t *testing.T) {
	tests := []struct {
		name       string
		width      int
		height     int
		wantOK     bool
		wantReason string
	}{
		{"clinical photo", 300, 200, true, ""},
		{"icon", 32, 32, false, RejectSmall},
		{"narrow", 79, 400, false, RejectSmall},
		{"banner", 150, 40, false, RejectSmall},
		{"area below minimum", 80, 80, false, RejectSmall},
		{"very wide", 1000, 100, false, RejectAspect},
		{"very tall", 100, 1000, false, RejectAspect},
		{"zero size", 0, 0, false, RejectSmall},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewImageFilter(DefaultFilterOptions())
			ok, reason := f.Accept(testImage(tt.width, tt.height, tt.name))
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantReason, reason)
		})
	}
}

func TestImageFilter_Watermark(t *testing.T) {
	opts := DefaultFilterOptions()
	opts.MinWidth, opts.MinHeight, opts.MinArea = 1, 1, 1
	f := NewImageFilter(opts)

	for _, size := range [][2]int{{32, 32}, {40, 25}, {105, 35}, {210, 60}} {
		ok, reason := f.Accept(testImage(size[0], size[1], "wm"))
		assert.False(t, ok, "%dx%d", size[0], size[1])
		assert.Equal(t, RejectWatermark, reason, "%dx%d", size[0], size[1])
	}

	ok, _ := f.Accept(testImage(120, 120, "not a watermark"))
	assert.True(t, ok)
	assert.Equal(t, 4, f.Stats().FilteredWatermark)
}

func TestImageFilter_WatermarkNeverKept(t *testing.T) {
	f := NewImageFilter(DefaultFilterOptions())
	kept := f.FilterPage([]ExtractedImage{
		{ID: "logo", Width: 32, Height: 32, Data: []byte("logo")},
		{ID: "logo-again", Width: 32, Height: 32, Data: []byte("logo-2")},
	})
	assert.Empty(t, kept)

	stats := f.Stats()
	assert.Equal(t, 2, stats.TotalExtracted)
	assert.Equal(t, 0, stats.ValidImages)
}

func TestImageFilter_Duplicate(t *testing.T) {
	f := NewImageFilter(DefaultFilterOptions())

	ok, _ := f.Accept(testImage(300, 300, "same bytes"))
	require.True(t, ok)
	assert.True(t, f.Seen([]byte("same bytes")))

	ok, reason := f.Accept(testImage(400, 400, "same bytes"))
	assert.False(t, ok)
	assert.Equal(t, RejectDuplicate, reason)

	stats := f.Stats()
	assert.Equal(t, ImageStats{TotalExtracted: 2, FilteredDuplicate: 1, ValidImages: 1}, stats)
}

func TestImageFilter_FilterPageSortsByY(t *testing.T) {
	f := NewImageFilter(DefaultFilterOptions())
	kept := f.FilterPage([]ExtractedImage{
		{ID: "bottom", Width: 200, Height: 200, YPosition: 600, Data: []byte("1")},
		{ID: "icon", Width: 32, Height: 32, YPosition: 10, Data: []byte("2")},
		{ID: "top", Width: 200, Height: 200, YPosition: 100, Data: []byte("3")},
	})

	require.Len(t, kept, 2)
	assert.Equal(t, "top", kept[0].ID)
	assert.Equal(t, "bottom", kept[1].ID)
}

func TestImageFilter_Concurrent(t *testing.T) {
	f := NewImageFilter(DefaultFilterOptions())

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			f.Accept(testImage(300, 300, "shared"))
		}()
	}
	wg.Wait()

	stats := f.Stats()
	assert.Equal(t, 1, stats.ValidImages)
	assert.Equal(t, 19, stats.FilteredDuplicate)
}
