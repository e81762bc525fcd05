package strategy

import (
	"regexp"

	"github.com/a3tai/mcq-extractor/internal/detect"
	"github.com/a3tai/mcq-extractor/internal/question"
)

// NumberParen parses "1)" numbered questions with "(A)" or "A)" options.
// An option letter must be followed by punctuation, so stem lines that
// wrap onto a word starting with a-d stay in the stem.
type NumberParen struct {
	hasQuestion *regexp.Regexp
	hasOptions  *regexp.Regexp
	marker      *regexp.Regexp
	firstOption *regexp.Regexp
	options     optionScanner
	answers     []*regexp.Regexp
	explanation spanFinder
}

// NewNumberParen creates the number-paren strategy
func NewNumberParen() *NumberParen {
	return &NumberParen{
		hasQuestion: regexp.MustCompile(`(?m)^\s*\d{1,3}\s*\)`),
		hasOptions:  regexp.MustCompile(`(?m)(?:^|\n)\s*\(?[A-D]\)`),
		marker:      regexp.MustCompile(`\n\s*(\d{1,3})\s*\)\s*`),
		firstOption: regexp.MustCompile(`\n\s*\(?[Aa][.):]`),
		options: optionScanner{
			fieldScanner: fieldScanner{
				marker: regexp.MustCompile(`(?i)\n\s*\(?([A-D])[.):]\)?\s*`),
				stop:   regexp.MustCompile(`(?i)\n\s*\(?[A-D][.):]|\n\s*(?:Ans|Answer|Correct|\d+\s*\))|\z`),
			},
			skipEmpty: true,
		},
		answers: mustCompileAll(
			`(?i)(?:Ans(?:wer)?|Correct)\s*[.:\-]?\s*\(?([A-D])\)?`,
		),
		explanation: spanFinder{
			start: regexp.MustCompile(`(?i)(?:Explanation|Solution)\s*[.:\-]?\s*`),
			stop:  regexp.MustCompile(`\d+\s*\)|\z`),
		},
	}
}

func (s *NumberParen) Name() string      { return "Number-Paren Format" }
func (s *NumberParen) Kind() detect.Kind { return detect.KindNumberParen }

func (s *NumberParen) CanParse(text string) bool {
	return s.hasQuestion.MatchString(text) && s.hasOptions.MatchString(text)
}

func (s *NumberParen) Parse(text, filename string) []question.Extracted {
	var out []question.Extracted
	for _, b := range segment(text, s.marker, 0) {
		if question.Length(b.content) < minBlockLength {
			continue
		}
		if q, ok := s.parseBlock(b, filename); ok {
			out = append(out, q)
		}
	}
	return out
}

func (s *NumberParen) parseBlock(b block, filename string) (question.Extracted, bool) {
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
