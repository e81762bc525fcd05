package strategy

import (
	"regexp"

	"github.com/a3tai/mcq-extractor/internal/detect"
	"github.com/a3tai/mcq-extractor/internal/question"
)

// NumberDot parses "1. Stem" questions, where the number is followed by a
// capitalised word, with A-D lettered options. The capital is captured by the
// marker and kept as the first character of the block.
type NumberDot struct {
	hasQuestion *regexp.Regexp
	hasOptions  *regexp.Regexp
	marker      *regexp.Regexp
	firstOption *regexp.Regexp
	options     optionScanner
	answers     []*regexp.Regexp
	explanation spanFinder
}

// NewNumberDot creates the number-dot strategy
func NewNumberDot() *NumberDot {
	return &NumberDot{
		hasQuestion: regexp.MustCompile(`(?m)^\s*\d{1,3}\s*\.\s*[A-Z]`),
		hasOptions:  regexp.MustCompile(`(?m)(?:^|\n)\s*[A-D]\s*[.)]`),
		marker:      regexp.MustCompile(`\n\s*(\d{1,3})\s*\.\s+([A-Z])`),
		firstOption: regexp.MustCompile(`\n\s*[Aa]\s*[.):]`),
		options: optionScanner{
			fieldScanner: fieldScanner{
				marker: regexp.MustCompile(`(?i)\n\s*([A-D])\s*[.):]\s*`),
				stop:   regexp.MustCompile(`(?i)\n\s*[A-D]\s*[.):]|\n\s*(?:Ans|Answer|Correct|Explanation|\d+\s*\.)|\z`),
			},
			skipEmpty: true,
		},
		answers: mustCompileAll(
			`(?i)Ans(?:wer)?\s*[.:\-]?\s*\(?([A-D])\)?`,
			`(?i)Correct\s*(?:Answer|Option)?\s*[.:\-]?\s*\(?([A-D])\)?`,
			`(?i)\*\*?([A-D])\*\*?`,
		),
		explanation: spanFinder{
			start: regexp.MustCompile(`(?i)(?:Explanation|Solution|Rationale)\s*[.:\-]?\s*`),
			stop:  regexp.MustCompile(`\d+\s*\.|\z`),
		},
	}
}

func (s *NumberDot) Name() string      { return "Number-Dot Format" }
func (s *NumberDot) Kind() detect.Kind { return detect.KindNumberDot }

func (s *NumberDot) CanParse(text string) bool {
	return s.hasQuestion.MatchString(text) && s.hasOptions.MatchString(text)
}

func (s *NumberDot) Parse(text, filename string) []question.Extracted {
	var out []question.Extracted
	for _, b := range segment(text, s.marker, 2) {
		if question.Length(b.content) < minBlockLength {
			continue
		}
		if q, ok := s.parseBlock(b, filename); ok {
			out = append(out, q)
		}
	}
	return out
}

func (s *NumberDot) parseBlock(b block, filename string) (question.Extracted, bool) {
	start := lineIndex(b.content, s.firstOption)
	if start < 0 {
		return question.Extracted{}, false
	}

	stem := cleanField(b.content[:start])
	if question.Length(stem) < question.MinStemLength {
		return question.Extracted{}, false
	}

	options := make(map[string]string, 4)
	s.options.collect(b.content[start:], options)
	if len(options) < 4 {
		return question.Extracted{}, false
	}

	q := newExtracted(b.number, stem, options, b.content, filename)
	q.CorrectAnswer = firstAnswer(b.content, s.answers)
	if exp, ok := s.explanation.find(b.content); ok {
		q.Explanation = explanation(exp)
	}
	return q, true
}
