// Package detect infers which question layout a PDF uses by scoring
// question, option and answer regex families against its first pages.
package detect

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"regexp"
	"sort"
	"strings"
	"sync"

	pdferrors "github.com/a3tai/mcq-extractor/internal/pdf/errors"
)

// Kind names a question layout convention.
type Kind string

// Layout kinds. Table and Mixed are reserved: detection never produces them.
const (
	KindQuestionColon Kind = "question_colon"
	KindQDot          Kind = "q_dot"
	KindNumberDot     Kind = "number_dot"
	KindNumberParen   Kind = "number_paren"
	KindBracket       Kind = "bracket"
	KindTable         Kind = "table"
	KindMixed         Kind = "mixed"
	KindUnknown       Kind = "unknown"
)

// DefaultSamplePages is how many leading pages are scored.
const DefaultSamplePages = 5

const (
	maxSamples       = 5
	displayedSamples = 3
	linesPerQuestion = 20.0
	optionBoost      = 0.2
	answerBoost      = 0.1
)

// Signature is the inferred layout of one document.
type Signature struct {
	Kind            Kind     `json:"format_kind"`
	Confidence      float64  `json:"confidence"`
	QuestionPattern string   `json:"question_pattern"`
	OptionPattern   string   `json:"option_pattern"`
	AnswerPattern   string   `json:"answer_pattern"`
	SampleMatches   []string `json:"sample_matches"`
}

// Unknown is the zero-confidence signature returned when nothing matches.
func Unknown() Signature {
	return Signature{Kind: KindUnknown, SampleMatches: []string{}}
}

func (s Signature) String() string {
	return fmt.Sprintf("%s (confidence %d%%)", s.Kind, int(math.Round(s.Confidence*100)))
}

type questionFamily struct {
	kind    Kind
	pattern string
	desc    string
	re      *regexp.Regexp
}

type patternFamily struct {
	pattern string
	desc    string
	re      *regexp.Regexp
}

// Question families in declaration order; earlier families win ties.
var questionFamilies = []questionFamily{
	{kind: KindQuestionColon, pattern: `^\s*(\d{1,3})\s*\.\s*Question\s*:\s*`, desc: "X. Question:"},
	{kind: KindQDot, pattern: `^\s*Q\s*\.?\s*(\d{1,3})\s*[.):]`, desc: "Q1. or Q.1"},
	{kind: KindNumberDot, pattern: `^\s*(\d{1,3})\s*\.\s+[A-Z]`, desc: "1. Text"},
	{kind: KindNumberParen, pattern: `^\s*(\d{1,3})\s*\)\s+`, desc: "1) Text"},
	{kind: KindBracket, pattern: `^\s*\[(\d{1,3})\]\s*`, desc: "[1] Text"},
}

var optionFamilies = []patternFamily{
	{pattern: `Option\s*[1-4]\s*:`, desc: "Option X:"},
	{pattern: `(?:^|\n)\s*[A-Da-d]\s*[.)]`, desc: "A. or A)"},
	{pattern: `(?:^|\n)\s*\([A-Da-d]\)`, desc: "(A)"},
	{pattern: `(?:^|\n)\s*[A-Da-d]\s*[-:]`, desc: "A- or A:"},
	{pattern: `(?:^|\n)\s*[1-4]\s*[.)]`, desc: "1. 2. 3. 4."},
}

var answerFamilies = []patternFamily{
	{pattern: `Correct\s*option\s*:\s*\d`, desc: "Correct option: X"},
	{pattern: `Correct\s*Answer\s*:\s*[A-Da-d]`, desc: "Correct Answer: A"},
	{pattern: `Ans(?:wer)?\s*[.:\-]\s*[A-Da-d]`, desc: "Ans: A"},
	{pattern: `Answer\s*[A-Da-d]`, desc: "Answer A"},
	{pattern: `\*\*?[A-Da-d]\*\*?`, desc: "**A**"},
	{pattern: `Key\s*:\s*[A-Da-d]`, desc: "Key: A"},
}

func init() {
	for i := range questionFamilies {
		questionFamilies[i].re = regexp.MustCompile(`(?im)` + questionFamilies[i].pattern)
	}
	for i := range optionFamilies {
		optionFamilies[i].re = regexp.MustCompile(`(?im)` + optionFamilies[i].pattern)
	}
	for i := range answerFamilies {
		answerFamilies[i].re = regexp.MustCompile(`(?i)` + answerFamilies[i].pattern)
	}
}

type familyScore struct {
	family  questionFamily
	count   int
	samples []string
}

// Analyze scores sample text against every family and returns the winning
// signature, or Unknown when no question family matches.
func Analyze(text string) Signature {
	var scores []familyScore
	for _, fam := range questionFamilies {
		matches := fam.re.FindAllStringSubmatch(text, -1)
		if len(matches) == 0 {
			continue
		}
		score := familyScore{family: fam, count: len(matches)}
		for _, m := range matches {
			if len(score.samples) == maxSamples {
				break
			}
			score.samples = append(score.samples, m[1])
		}
		scores = append(scores, score)
	}

	if len(scores) == 0 {
		return Unknown()
	}

	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].count > scores[j].count
	})
	best := scores[0]

	sig := Signature{
		Kind:            best.family.kind,
		QuestionPattern: best.family.pattern,
		SampleMatches:   []string{},
	}

	estimated := math.Max(1, float64(strings.Count(text, "\n"))/linesPerQuestion)
	sig.Confidence = math.Min(1, float64(best.count)/estimated)

	for _, fam := range optionFamilies {
		if fam.re.MatchString(text) {
			sig.OptionPattern = fam.pattern
			sig.Confidence = math.Min(1, sig.Confidence+optionBoost)
			break
		}
	}
	for _, fam := range answerFamilies {
		if fam.re.MatchString(text) {
			sig.AnswerPattern = fam.pattern
			sig.Confidence = math.Min(1, sig.Confidence+answerBoost)
			break
		}
	}

	for i, s := range best.samples {
		if i == displayedSamples {
			break
		}
		sig.SampleMatches = append(sig.SampleMatches, best.family.desc+": "+s)
	}

	return sig
}

// TextSource reads the plain text of a document's leading pages.
type TextSource interface {
	PageTexts(ctx context.Context, path string, limit int) ([]string, error)
}

// Detector caches one signature per file path for its lifetime. Source
// files are treated as immutable, so entries are never invalidated. Safe
// for concurrent use.
type Detector struct {
	source      TextSource
	samplePages int
	logger      *slog.Logger

	mu    sync.Mutex
	cache map[string]Signature
}

// New creates a detector reading up to samplePages pages from source
func New(source TextSource, samplePages int, logger *slog.Logger) *Detector {
	if samplePages <= 0 {
		samplePages = DefaultSamplePages
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Detector{
		source:      source,
		samplePages: samplePages,
		logger:      logger,
		cache:       make(map[string]Signature),
	}
}

// Detect returns the signature for path. A document that cannot be read,
// or a detector built without a text source, is logged and reported as
// Unknown; such failures are not cached.
func (d *Detector) Detect(ctx context.Context, path string) Signature {
	if sig, ok := d.cached(path); ok {
		return sig
	}

	if d.source == nil {
		err := pdferrors.New(pdferrors.ErrorTypeSourceDocument, "no text source configured").WithFile(path)
		d.logger.Error("format detection failed", "file", path, "error", err)
		return Unknown()
	}

	texts, err := d.source.PageTexts(ctx, path, d.samplePages)
	if err != nil {
		err = pdferrors.Wrap(pdferrors.ErrorTypeSourceDocument, err).WithFile(path)
		d.logger.Error("format detection failed", "file", path, "error", err)
		return Unknown()
	}

	return d.DetectPages(path, texts)
}

// DetectPages scores already-extracted page texts and caches the result
// under path. A cached signature for path is returned unchanged.
func (d *Detector) DetectPages(path string, texts []string) Signature {
	if sig, ok := d.cached(path); ok {
		return sig
	}

	if len(texts) > d.samplePages {
		texts = texts[:d.samplePages]
	}
	var sample strings.Builder
	for _, t := range texts {
		sample.WriteString(t)
		sample.WriteString("\n\n")
	}

	sig := Analyze(sample.String())

	d.mu.Lock()
	if existing, ok := d.cache[path]; ok {
		sig = existing
	} else {
		d.cache[path] = sig
	}
	d.mu.Unlock()

	d.logger.Info("detected format",
		"file", path,
		"format", string(sig.Kind),
		"confidence", sig.Confidence)

	return sig
}

// DetectAll detects every path and returns the signatures keyed by path
func (d *Detector) DetectAll(ctx context.Context, paths []string) map[string]Signature {
	results := make(map[string]Signature, len(paths))
	for _, p := range paths {
		results[p] = d.Detect(ctx, p)
	}
	return results
}

// CacheSize returns the number of cached signatures
func (d *Detector) CacheSize() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.cache)
}

func (d *Detector) cached(path string) (Signature, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	sig, ok := d.cache[path]
	return sig, ok
}
