package assemble

import (
	"fmt"
	"path"

	"github.com/spf13/afero"

	"github.com/a3tai/mcq-extractor/internal/pdf"
)

// ImagesDir is where saved images live, relative to the data root.
const ImagesDir = "processed/images"

// ImageStore persists a linked image and returns the reference recorded on
// the question.
type ImageStore interface {
	Save(img *pdf.ExtractedImage) (string, error)
}

// DiskStore writes images under <root>/processed/images and returns paths
// relative to root, so a bank stays valid when the data directory moves.
type DiskStore struct {
	fs afero.Fs
}

// NewDiskStore creates a store rooted at root on the OS filesystem
func NewDiskStore(root string) *DiskStore {
	return NewDiskStoreFs(afero.NewBasePathFs(afero.NewOsFs(), root))
}

// NewDiskStoreFs creates a store on fs, whose root is the data root
func NewDiskStoreFs(fs afero.Fs) *DiskStore {
	return &DiskStore{fs: fs}
}

// Save writes the image bytes. An existing file with the same name is
// overwritten.
func (s *DiskStore) Save(img *pdf.ExtractedImage) (string, error) {
	if err := s.fs.MkdirAll(ImagesDir, 0o750); err != nil {
		return "", fmt.Errorf("failed to create images directory: %w", err)
	}

	rel := path.Join(ImagesDir, img.Filename())
	if err := afero.WriteFile(s.fs, rel, img.Data, 0o640); err != nil {
		return "", fmt.Errorf("failed to write image %s: %w", img.ID, err)
	}
	return rel, nil
}

// InlineStore embeds images as base64 data URIs instead of writing files.
type InlineStore struct{}

func (InlineStore) Save(img *pdf.ExtractedImage) (string, error) {
	return img.DataURI(), nil
}
