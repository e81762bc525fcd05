package strategy

import (
	"regexp"
	"strings"

	"github.com/a3tai/mcq-extractor/internal/detect"
	"github.com/a3tai/mcq-extractor/internal/question"
)

// genericMinBlockLength is the generic strategy's stricter pre-filter.
const genericMinBlockLength = 100

// stemProbeLength is how much of an option is searched for to find where
// the options begin.
const stemProbeLength = 20

// minExplanationLength is the shortest explanation the generic strategy keeps.
const minExplanationLength = 20

// Generic is the permissive fallback. It accepts any text, treats the span
// between any two numeric or Q-prefixed markers as a block, and tries
// several option layouts until one yields four options.
type Generic struct {
	marker       *regexp.Regexp
	optionLayout []optionScanner
	trailingMark *regexp.Regexp
	answers      []*regexp.Regexp
	explanations []spanFinder
}

// NewGeneric creates the fallback strategy
func NewGeneric() *Generic {
	explanationStop := regexp.MustCompile(`(?i)Reference|Learning|\z`)
	return &Generic{
		marker: regexp.MustCompile(`\n\s*(?:Q\.?\s*)?(\d{1,3})\s*[.):]`),
		optionLayout: []optionScanner{
			{fieldScanner: fieldScanner{
				marker: regexp.MustCompile(`(?i)\n\s*([A-D])\s*[.):]\s*`),
				stop:   regexp.MustCompile(`(?i)\n\s*[A-D]\s*[.):]|\n\s*(?:Ans|Correct)|\z`),
			}, skipEmpty: true},
			{fieldScanner: fieldScanner{
				marker: regexp.MustCompile(`(?i)\n\s*\(([A-D])\)\s*`),
				stop:   regexp.MustCompile(`(?i)\n\s*\([A-D]\)|\n\s*(?:Ans|Correct)|\z`),
			}, skipEmpty: true},
			{fieldScanner: fieldScanner{
				marker: regexp.MustCompile(`(?i)Option\s*([1-4A-D])\s*:\s*`),
				stop:   regexp.MustCompile(`(?i)Option\s*[1-4A-D]|Correct|\z`),
			}, skipEmpty: true},
		},
		trailingMark: regexp.MustCompile(`[A-Da-d]\s*[.):]?\s*$`),
		answers: mustCompileAll(
			`(?i)Correct\s*option\s*:\s*(\d)`,
			`(?i)Correct\s*Answer\s*:\s*([A-D])`,
			`(?i)Ans(?:wer)?\s*[.:\-]?\s*\(?([A-D1-4])\)?`,
			`(?i)Answer\s*[.:\-]?\s*([A-D])`,
			`(?i)\*\*?([A-D])\*\*?`,
		),
		explanations: []spanFinder{
			{start: regexp.MustCompile(`(?i)Explanation\s*:\s*`), stop: explanationStop},
			{start: regexp.MustCompile(`(?i)Solution\s*:\s*`), stop: explanationStop},
			{start: regexp.MustCompile(`(?i)Rationale\s*:\s*`), stop: explanationStop},
		},
	}
}

func (s *Generic) Name() string      { return "Generic Fallback" }
func (s *Generic) Kind() detect.Kind { return detect.KindUnknown }

// CanParse always accepts.
func (s *Generic) CanParse(string) bool { return true }

func (s *Generic) Parse(text, filename string) []question.Extracted {
	var out []question.Extracted
	for _, b := range segment(text, s.marker, 0) {
		content := strings.TrimSpace(b.content)
		if question.Length(content) < genericMinBlockLength {
			continue
		}

		options := s.findOptions(content)
		if len(options) < 4 {
			continue
		}

		stem := s.extractStem(content, options)
		if question.Length(stem) < question.MinStemLength {
			continue
		}

		q := newExtracted(b.number, stem, options, content, filename)
		q.CorrectAnswer = s.findAnswer(content)
		q.Explanation = s.findExplanation(content)
		out = append(out, q)
	}
	return out
}

// findOptions accumulates options across layouts until four are known.
func (s *Generic) findOptions(content string) map[string]string {
	options := make(map[string]string, 4)
	for _, layout := range s.optionLayout {
		layout.collect(content, options)
		if len(options) >= 4 {
			break
		}
	}
	return options
}

// extractStem takes everything before the earliest option text. When no
// option text is found past the start of the block, the first paragraph is
// used instead.
func (s *Generic) extractStem(content string, options map[string]string) string {
	first := -1
	for _, opt := range options {
		idx := strings.Index(content, question.Truncate(opt, stemProbeLength))
		if idx != -1 && (first == -1 || idx < first) {
			first = idx
		}
	}

	if first > 0 {
		stem := s.trailingMark.ReplaceAllString(content[:first], "")
		return cleanField(stem)
	}

	paragraph, _, _ := strings.Cut(content, "\n\n")
	return cleanField(paragraph)
}

// findAnswer tries each pattern in turn, moving on when a match is not a
// usable letter.
func (s *Generic) findAnswer(content string) string {
	for _, re := range s.answers {
		m := re.FindStringSubmatch(content)
		if m == nil {
			continue
		}
		if letter, ok := question.NormalizeAnswer(m[1]); ok {
			return letter
		}
	}
	return ""
}

func (s *Generic) findExplanation(content string) string {
	for _, f := range s.explanations {
		if exp, ok := f.find(content); ok && question.Length(exp) > minExplanationLength {
			return explanation(exp)
		}
	}
	return ""
}
