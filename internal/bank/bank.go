// Package bank persists the cleaned question bank as a JSON document and
// derives statistics and exports from it.
package bank

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"

	"github.com/a3tai/mcq-extractor/internal/question"
)

const (
	// Version is written into every saved bank.
	Version = "1.1"

	// DefaultFile is the bank file name under the data root.
	DefaultFile = "questions.json"

	// BackupDir holds timestamped copies of overwritten banks.
	BackupDir = "backups"

	backupTimeLayout = "20060102_150405"
)

// Bank is the on-disk question bank document.
type Bank struct {
	Version    string              `json:"version"`
	CreatedAt  string              `json:"created_at"`
	TotalCount int                 `json:"total_count"`
	WithImages int                 `json:"with_images"`
	Questions  []question.Question `json:"questions"`
}

// Store reads and writes banks under a data root. Image references are
// stored relative to the root and resolved against it on load.
type Store struct {
	fs     afero.Fs
	root   string
	logger *slog.Logger
	now    func() time.Time
}

// NewStore creates a store over the OS filesystem rooted at root. A relative
// root is made absolute so loaded image paths are too.
func NewStore(root string, logger *slog.Logger) *Store {
	if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}
	return NewStoreFs(afero.NewOsFs(), root, logger)
}

// NewStoreFs creates a store over fs, with root a directory inside fs
func NewStoreFs(fsys afero.Fs, root string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{fs: fsys, root: root, logger: logger, now: time.Now}
}

// Root returns the data root
func (s *Store) Root() string {
	return s.root
}

// Path resolves name against the data root unless it is absolute
func (s *Store) Path(name string) string {
	if name == "" {
		name = DefaultFile
	}
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(s.root, name)
}

// Save writes qs to name, first copying any existing bank into the
// backup directory.
func (s *Store) Save(name string, qs []question.Question) error {
	path := s.Path(name)

	backup, err := s.backup(path)
	if err != nil {
		return fmt.Errorf("backup %s: %w", path, err)
	}
	if backup != "" {
		s.logger.Info("backed up question bank", "file", path, "backup", backup)
	}

	b := Bank{
		Version:    Version,
		CreatedAt:  s.now().Format(time.RFC3339),
		TotalCount: len(qs),
		Questions:  make([]question.Question, len(qs)),
	}
	for i, q := range qs {
		q.Images = s.relativeImages(q.Images)
		if len(q.Images) > 0 {
			b.WithImages++
		}
		b.Questions[i] = q
	}

	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return fmt.Errorf("encode question bank: %w", err)
	}

	if err := s.fs.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("create bank directory: %w", err)
	}
	tmp := path + ".tmp"
	if err := afero.WriteFile(s.fs, tmp, data, 0o640); err != nil {
		return fmt.Errorf("write question bank: %w", err)
	}
	if err := s.fs.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace question bank: %w", err)
	}

	s.logger.Info("saved question bank",
		"file", path,
		"questions", b.TotalCount,
		"with_images", b.WithImages)
	return nil
}

// backup copies an existing bank at path and returns the copy's path, or
// "" when there was nothing to back up.
func (s *Store) backup(path string) (string, error) {
	data, err := afero.ReadFile(s.fs, path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", err
	}

	dir := filepath.Join(s.root, BackupDir)
	if err := s.fs.MkdirAll(dir, 0o750); err != nil {
		return "", err
	}
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	dst := filepath.Join(dir, stem+"_"+s.now().Format(backupTimeLayout)+".json")
	if err := afero.WriteFile(s.fs, dst, data, 0o640); err != nil {
		return "", err
	}
	return dst, nil
}

// Load reads and schema-checks the bank at name. Relative image paths come
// back resolved against the data root; data URIs are left alone.
func (s *Store) Load(name string) (*Bank, error) {
	path := s.Path(name)

	data, err := afero.ReadFile(s.fs, path)
	if err != nil {
		return nil, fmt.Errorf("read question bank: %w", err)
	}
	if err := Validate(data); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	var b Bank
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("decode question bank: %w", err)
	}
	for i := range b.Questions {
		b.Questions[i].Images = s.absoluteImages(b.Questions[i].Images)
	}
	return &b, nil
}

// LoadQuestions is Load for callers that only want the questions. A bank
// that does not exist yet is empty.
func (s *Store) LoadQuestions(name string) ([]question.Question, error) {
	b, err := s.Load(name)
	if errors.Is(err, fs.ErrNotExist) {
		return []question.Question{}, nil
	}
	if err != nil {
		return nil, err
	}
	return b.Questions, nil
}

// Append adds the questions of qs whose IDs are not already in the bank at
// name and saves it. It returns how many were added.
func (s *Store) Append(name string, qs []question.Question) (int, error) {
	existing, err := s.LoadQuestions(name)
	if err != nil {
		return 0, err
	}

	seen := make(map[string]bool, len(existing))
	for _, q := range existing {
		seen[q.ID] = true
	}

	added := 0
	for _, q := range qs {
		if seen[q.ID] {
			continue
		}
		seen[q.ID] = true
		existing = append(existing, q)
		added++
	}

	if err := s.Save(name, existing); err != nil {
		return 0, err
	}
	return added, nil
}

func isDataURI(ref string) bool {
	return strings.HasPrefix(ref, "data:")
}

// relativeImages rewrites absolute image paths relative to the data root.
// Images stored outside the root keep a "../" path so the bank never
// records an absolute path.
func (s *Store) relativeImages(refs []string) []string {
	out := make([]string, 0, len(refs))
	for _, ref := range refs {
		if !isDataURI(ref) && filepath.IsAbs(ref) {
			if rel, err := filepath.Rel(s.root, ref); err == nil {
				ref = filepath.ToSlash(rel)
			}
		}
		out = append(out, ref)
	}
	return out
}

func (s *Store) absoluteImages(refs []string) []string {
	out := make([]string, 0, len(refs))
	for _, ref := range refs {
		if !isDataURI(ref) && !filepath.IsAbs(ref) {
			ref = filepath.Join(s.root, filepath.FromSlash(ref))
		}
		out = append(out, ref)
	}
	return out
}
