// Package pipeline runs the extraction stages over a batch of PDFs:
// detection, parsing, page tracking, assembly, review flagging and
// cleaning. A Pipeline owns the run-scoped state (the detector's
// signature cache and the image filter's byte-hash set), so build a fresh
// one per run.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/a3tai/mcq-extractor/internal/assemble"
	"github.com/a3tai/mcq-extractor/internal/clean"
	"github.com/a3tai/mcq-extractor/internal/detect"
	"github.com/a3tai/mcq-extractor/internal/linker"
	"github.com/a3tai/mcq-extractor/internal/pagetrack"
	"github.com/a3tai/mcq-extractor/internal/pdf"
	pdferrors "github.com/a3tai/mcq-extractor/internal/pdf/errors"
	"github.com/a3tai/mcq-extractor/internal/question"
	"github.com/a3tai/mcq-extractor/internal/review"
	"github.com/a3tai/mcq-extractor/internal/strategy"
)

// DocumentSource extracts one PDF into pages and images. *pdf.Extractor
// is the production implementation.
type DocumentSource interface {
	Extract(ctx context.Context, path string, filter *pdf.ImageFilter, collector *pdferrors.Collector) (*pdf.Document, error)
}

// ReviewHook receives questions that need a human decision.
// *review.Queue implements it.
type ReviewHook interface {
	Flag(ctx context.Context, item review.Item) error
}

// Options configures a Pipeline.
type Options struct {
	Source DocumentSource
	// Text reads leading pages for standalone detection through
	// Detector().Detect. Runs never need it.
	Text detect.TextSource

	// SamplePages is how many leading pages the format detector scores.
	SamplePages int

	// ExtractImages turns on image extraction and linking.
	ExtractImages bool
	FilterOptions pdf.FilterOptions
	// ImageStore persists linked images; nil inlines them as data URIs.
	ImageStore assemble.ImageStore
	// MaxImages caps the images stored per question.
	MaxImages int

	Clean clean.Options

	// Review, when set, is called for every question needing review.
	Review ReviewHook

	// Workers bounds how many documents are processed at once.
	Workers int

	Logger *slog.Logger
}

// Pipeline processes batches of PDFs.
type Pipeline struct {
	source    DocumentSource
	detector  *detect.Detector
	registry  *strategy.Registry
	filter    *pdf.ImageFilter
	assembler *assemble.Assembler
	cleaner   *clean.Cleaner
	review    ReviewHook
	workers   int
	logger    *slog.Logger
}

// New creates a pipeline. Source is required.
func New(opts Options) (*Pipeline, error) {
	if opts.Source == nil {
		return nil, errors.New("pipeline: document source is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}

	var lnk *linker.Linker
	var filter *pdf.ImageFilter
	if opts.ExtractImages {
		lnk = linker.New(linker.DefaultMaxCandidates)
		filter = pdf.NewImageFilter(opts.FilterOptions)
	}

	return &Pipeline{
		source:   opts.Source,
		detector: detect.New(opts.Text, opts.SamplePages, logger),
		registry: strategy.DefaultRegistry(),
		filter:   filter,
		assembler: assemble.New(assemble.Options{
			Linker:    lnk,
			Store:     opts.ImageStore,
			MaxImages: opts.MaxImages,
			Logger:    logger,
		}),
		cleaner: clean.New(opts.Clean),
		review:  opts.Review,
		workers: workers,
		logger:  logger,
	}, nil
}

// Detector returns the run's format detector
func (p *Pipeline) Detector() *detect.Detector {
	return p.detector
}

// Stats are the per-run parser counters.
type Stats struct {
	TotalPages                int            `json:"total_pages"`
	TotalPDFs                 int            `json:"total_pdfs"`
	TotalQuestions            int            `json:"total_questions"`
	ValidQuestions            int            `json:"valid_questions"`
	InvalidQuestions          int            `json:"invalid_questions"`
	QuestionsWithImageRefs    int            `json:"questions_with_image_refs"`
	QuestionsWithImagesLinked int            `json:"questions_with_images_linked"`
	ImagesExtracted           int            `json:"images_extracted"`
	ParsingErrors             int            `json:"parsing_errors"`
	FormatsDetected           map[string]int `json:"formats_detected"`
}

// FileResult is the outcome for one document.
type FileResult struct {
	Path      string           `json:"path"`
	Format    detect.Signature `json:"format"`
	Strategy  string           `json:"strategy,omitempty"`
	Pages     int              `json:"pages"`
	Images    int              `json:"images"`
	Questions int              `json:"questions"`
	Valid     int              `json:"valid"`
	Flagged   int              `json:"flagged"`
	Err       error            `json:"-"`
	Duration  time.Duration    `json:"duration"`

	questions []question.Question
}

// Status is the one-line summary printed per file
func (r *FileResult) Status() string {
	if r.Err != nil {
		return "error: " + r.Err.Error()
	}
	return fmt.Sprintf("%d questions (%d valid)", r.Questions, r.Valid)
}

// Result is the outcome of one batch.
type Result struct {
	RunID string       `json:"run_id"`
	Files []FileResult `json:"files"`
	// Raw holds every assembled question, valid or not, in input order.
	Raw []question.Question `json:"-"`
	// Questions is the cleaned bank contribution of this run.
	Questions  []question.Question  `json:"questions"`
	Stats      Stats                `json:"stats"`
	CleanStats clean.Stats          `json:"clean_stats"`
	ImageStats pdf.ImageStats       `json:"image_stats"`
	Errors     *pdferrors.Collector `json:"-"`
}

// Run processes paths with up to Workers documents in flight. A document
// that fails is recorded in its FileResult and the batch carries on; only
// context cancellation stops a run. Results keep the order of paths.
func (p *Pipeline) Run(ctx context.Context, paths []string) (*Result, error) {
	runID := uuid.NewString()
	collector := pdferrors.NewCollector()
	files := make([]FileResult, len(paths))

	p.logger.Info("starting run", "run_id", runID, "files", len(paths), "workers", p.workers)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			files[i] = p.processDocument(gctx, path, runID, collector)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res := &Result{
		RunID:  runID,
		Files:  files,
		Raw:    []question.Question{},
		Errors: collector,
		Stats:  Stats{FormatsDetected: make(map[string]int)},
	}
	for i := range files {
		f := &files[i]
		res.Raw = append(res.Raw, f.questions...)
		f.questions = nil

		if f.Err != nil {
			res.Stats.ParsingErrors++
			continue
		}
		res.Stats.TotalPDFs++
		res.Stats.TotalPages += f.Pages
		res.Stats.ImagesExtracted += f.Images
		res.Stats.FormatsDetected[string(f.Format.Kind)]++
	}
	for i := range res.Raw {
		q := &res.Raw[i]
		res.Stats.TotalQuestions++
		if q.IsValid {
			res.Stats.ValidQuestions++
		} else {
			res.Stats.InvalidQuestions++
		}
		if q.HasImageReference {
			res.Stats.QuestionsWithImageRefs++
		}
		if len(q.Images) > 0 {
			res.Stats.QuestionsWithImagesLinked++
		}
	}

	res.Questions, res.CleanStats = p.cleaner.Clean(res.Raw)
	if p.filter != nil {
		res.ImageStats = p.filter.Stats()
	}

	p.logger.Info("run finished",
		"run_id", runID,
		"files", len(paths),
		"questions", res.Stats.TotalQuestions,
		"kept", len(res.Questions),
		"duplicates", res.CleanStats.DuplicatesRemoved)

	return res, nil
}

// processDocument runs every per-document stage. It never fails the batch:
// problems are recorded on the result and in collector.
func (p *Pipeline) processDocument(ctx context.Context, path, runID string, collector *pdferrors.Collector) FileResult {
	start := time.Now()
	res := FileResult{Path: path, Format: detect.Unknown()}
	logger := p.logger.With("file", path, "run_id", runID)

	doc, err := p.source.Extract(ctx, path, p.filter, collector)
	if err == nil && len(doc.Pages) == 0 {
		err = pdferrors.New(pdferrors.ErrorTypeSourceDocument, "document has no pages").WithFile(path)
	}
	if err != nil {
		if pdferrors.TypeOf(err) == pdferrors.ErrorTypeUnknown {
			err = pdferrors.Wrap(pdferrors.ErrorTypeSourceDocument, err).WithFile(path)
		}
		collector.Add(err)
		logger.Error("skipping document", "error", err)
		res.Err = err
		res.Duration = time.Since(start)
		return res
	}

	texts := doc.PageTexts()
	res.Pages = len(doc.Pages)
	res.Images = doc.ImageCount()
	res.Format = p.detector.DetectPages(path, texts)
	if res.Format.Kind == detect.KindUnknown {
		collector.Add(pdferrors.New(pdferrors.ErrorTypeFormatAmbiguity, "no question format matched").WithFile(path))
	}

	s, extracted := p.registry.Parse(doc.FullText(), doc.Name, res.Format.Kind)
	if s == nil {
		logger.Warn("no strategy produced questions", "format", string(res.Format.Kind))
		res.Duration = time.Since(start)
		return res
	}
	res.Strategy = s.Name()

	questions := p.assembler.AssembleAll(extracted, assemble.Source{
		Pages:     pagetrack.Track(texts),
		Images:    doc.ImagesByPage(),
		Collector: collector,
	})

	for i := range questions {
		q := &questions[i]
		if q.IsValid {
			res.Valid++
		} else {
			collector.Add(pdferrors.New(pdferrors.ErrorTypeValidation, firstError(q.ValidationErrors)).
				WithFile(path).WithPage(q.PageNumber))
		}
		if p.flag(ctx, q, extracted[i].RawBlock, runID, logger) {
			res.Flagged++
		}
	}

	res.questions = questions
	res.Questions = len(questions)
	res.Duration = time.Since(start)

	logger.Info("processed document",
		"format", string(res.Format.Kind),
		"confidence", res.Format.Confidence,
		"strategy", res.Strategy,
		"questions", res.Questions,
		"valid", res.Valid)

	return res
}

// flag sends q to the review hook when it is missing its figure or failed
// validation. A figure reference without an image takes precedence.
func (p *Pipeline) flag(ctx context.Context, q *question.Question, rawBlock, runID string, logger *slog.Logger) bool {
	if p.review == nil {
		return false
	}

	var reason string
	switch {
	case q.NeedsReview:
		reason = review.ReasonMissingImage
	case !q.IsValid:
		reason = review.ValidationReason(q.ValidationErrors)
	default:
		return false
	}

	if err := p.review.Flag(ctx, review.ItemFromQuestion(*q, reason, rawBlock, runID)); err != nil {
		logger.Warn("failed to queue question for review", "question", q.ID, "error", err)
		return false
	}
	return true
}

func firstError(errs []string) string {
	if len(errs) == 0 {
		return "invalid question"
	}
	return errs[0]
}
