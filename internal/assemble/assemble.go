// Package assemble turns strategy output into canonical questions: it
// resolves the real page, links and stores images, and validates fields.
package assemble

import (
	"log/slog"

	"github.com/a3tai/mcq-extractor/internal/linker"
	"github.com/a3tai/mcq-extractor/internal/pagetrack"
	"github.com/a3tai/mcq-extractor/internal/pdf"
	pdferrors "github.com/a3tai/mcq-extractor/internal/pdf/errors"
	"github.com/a3tai/mcq-extractor/internal/question"
)

// DefaultMaxImages is how many linked images are stored per question.
const DefaultMaxImages = 1

// Options configures an Assembler.
type Options struct {
	// Linker detects figure references and ranks candidate images. When
	// nil, image references are not looked for at all.
	Linker *linker.Linker
	// Store persists linked images. Defaults to InlineStore.
	Store ImageStore
	// MaxImages caps the images stored per question.
	MaxImages int
	Logger    *slog.Logger
}

// Assembler builds Question records for one run.
type Assembler struct {
	linker    *linker.Linker
	store     ImageStore
	maxImages int
	logger    *slog.Logger
}

// New creates an assembler
func New(opts Options) *Assembler {
	a := &Assembler{
		linker:    opts.Linker,
		store:     opts.Store,
		maxImages: opts.MaxImages,
		logger:    opts.Logger,
	}
	if a.store == nil {
		a.store = InlineStore{}
	}
	if a.maxImages < 1 {
		a.maxImages = DefaultMaxImages
	}
	if a.logger == nil {
		a.logger = slog.Default()
	}
	return a
}

// Source is the per-document context a question is assembled against.
type Source struct {
	Pages     pagetrack.Map
	Images    map[int][]pdf.ExtractedImage
	Collector *pdferrors.Collector
}

// Assemble builds one canonical question. Image write failures are
// recorded on the source collector and the image is skipped; the question
// is always returned, valid or not.
func (a *Assembler) Assemble(eq question.Extracted, src Source) question.Question {
	q := question.Question{
		ID:             question.ContentID(eq.Text),
		QuestionText:   eq.Text,
		CorrectAnswer:  eq.CorrectAnswer,
		Explanation:    eq.Explanation,
		SourceFile:     eq.SourceFile,
		PageNumber:     src.Pages.Page(eq.Number, eq.PageNumber),
		QuestionNumber: eq.Number,
		Images:         []string{},
	}
	q.SetOptions(eq.Options)

	if a.linker != nil {
		q.HasImageReference, q.ImagePatternMatched = a.linker.NeedsImage(eq.Text)
	}

	if q.HasImageReference && len(src.Images) > 0 {
		linked := a.linker.Candidates(q.PageNumber, src.Images)
		if len(linked) > a.maxImages {
			linked = linked[:a.maxImages]
		}
		for i := range linked {
			ref, err := a.store.Save(&linked[i])
			if err != nil {
				if src.Collector != nil {
					src.Collector.Add(pdferrors.Wrap(pdferrors.ErrorTypeImageIO, err).
						WithFile(eq.SourceFile).WithPage(linked[i].PageNumber))
				}
				a.logger.Warn("failed to store linked image",
					"file", eq.SourceFile,
					"image", linked[i].ID,
					"error", err)
				continue
			}
			q.Images = append(q.Images, ref)
		}
	}

	q.Validate()
	q.UpdateReviewFlag()
	return q
}

// AssembleAll assembles every extracted question of one document in order.
func (a *Assembler) AssembleAll(extracted []question.Extracted, src Source) []question.Question {
	out := make([]question.Question, 0, len(extracted))
	for _, eq := range extracted {
		out = append(out, a.Assemble(eq, src))
	}
	return out
}
