// Package strategy holds the layout-specific question parsers. Each
// strategy segments the full document text at its question markers and
// extracts stem, options, answer and explanation from every block.
package strategy

import (
	"regexp"

	"github.com/a3tai/mcq-extractor/internal/detect"
	"github.com/a3tai/mcq-extractor/internal/question"
)

// Strategy parses one layout convention.
type Strategy interface {
	// Name is a human-readable label used in logs and statistics.
	Name() string
	// Kind is the detector layout this strategy handles.
	Kind() detect.Kind
	// CanParse reports whether the text shows this layout's markers.
	CanParse(text string) bool
	// Parse extracts every question block that yields four options.
	Parse(text, filename string) []question.Extracted
}

// minBlockLength is the content length below which numbered blocks are
// treated as list items inside an explanation.
const minBlockLength = 50

// maxExplanationLength caps explanation text, in characters.
const maxExplanationLength = 2000

var imageHintRe = regexp.MustCompile(`(?i)\b(?:image|figure|diagram|picture|shown|given|above|below|following|radiograph|x-ray|ct|mri|ecg|graph|chart|table)\b`)

// HasImageHint reports whether a stem mentions a visual reference word.
func HasImageHint(stem string) bool {
	return imageHintRe.MatchString(stem)
}

// Registry is the closed, ordered set of strategies, most specific first
// with the generic fallback last.
type Registry struct {
	strategies []Strategy
}

// NewRegistry creates a registry that tries strategies in the given order
func NewRegistry(strategies ...Strategy) *Registry {
	return &Registry{strategies: strategies}
}

// DefaultRegistry returns every built-in strategy in priority order
func DefaultRegistry() *Registry {
	return NewRegistry(
		NewQuestionColon(),
		NewQDot(),
		NewNumberDot(),
		NewNumberParen(),
		NewGeneric(),
	)
}

// Strategies returns the strategies in priority order
func (r *Registry) Strategies() []Strategy {
	return r.strategies
}

// Order returns the strategies to try for a detected layout: the strategy
// handling that layout first, then the rest in priority order. Unknown and
// unhandled kinds keep the plain priority order.
func (r *Registry) Order(kind detect.Kind) []Strategy {
	ordered := make([]Strategy, 0, len(r.strategies))
	for _, s := range r.strategies {
		if s.Kind() == kind && kind != detect.KindUnknown {
			ordered = append(ordered, s)
		}
	}
	for _, s := range r.strategies {
		if s.Kind() != kind || kind == detect.KindUnknown {
			ordered = append(ordered, s)
		}
	}
	return ordered
}

// Parse runs strategies in order for kind and returns the output of the
// first one that accepts the text and produces at least one question.
// Strategies are never combined. It returns nil when none succeeds.
func (r *Registry) Parse(text, filename string, kind detect.Kind) (Strategy, []question.Extracted) {
	for _, s := range r.Order(kind) {
		if !s.CanParse(text) {
			continue
		}
		if questions := s.Parse(text, filename); len(questions) > 0 {
			return s, questions
		}
	}
	return nil, nil
}

// newExtracted fills the fields every strategy sets the same way.
func newExtracted(number, stem string, options map[string]string, content, filename string) question.Extracted {
	stem = cleanField(stem)
	return question.Extracted{
		Number:       number,
		Text:         stem,
		Options:      options,
		RawBlock:     question.Truncate(content, question.RawBlockPreview),
		SourceFile:   filename,
		PageNumber:   pageEstimate(number),
		HasImageHint: HasImageHint(stem),
	}
}

func explanation(text string) string {
	return question.Truncate(text, maxExplanationLength)
}

func mustCompileAll(patterns ...string) []*regexp.Regexp {
	res := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		res[i] = regexp.MustCompile(p)
	}
	return res
}
