package strategy

import (
	"regexp"

	"github.com/a3tai/mcq-extractor/internal/detect"
	"github.com/a3tai/mcq-extractor/internal/question"
)

// QDot parses "Q1." / "Q.1" numbered questions with A-D lettered options.
type QDot struct {
	hasQuestion *regexp.Regexp
	hasOptions  *regexp.Regexp
	marker      *regexp.Regexp
	firstOption *regexp.Regexp
	options     optionScanner
	answers     []*regexp.Regexp
	explanation spanFinder
}

// NewQDot creates the Q-dot strategy
func NewQDot() *QDot {
	return &QDot{
		hasQuestion: regexp.MustCompile(`(?i)Q\s*\.?\s*\d+`),
		hasOptions:  regexp.MustCompile(`(?m)(?:^|\n)\s*[A-D]\s*[.)]`),
		marker:      regexp.MustCompile(`(?i)\n\s*Q\s*\.?\s*(\d{1,3})\s*[.):]?\s*`),
		firstOption: regexp.MustCompile(`\n\s*[Aa]\s*[.):]`),
		options: optionScanner{fieldScanner: fieldScanner{
			marker: regexp.MustCompile(`(?i)\n\s*([A-D])\s*[.):]\s*`),
			stop:   regexp.MustCompile(`(?i)\n\s*[A-D]\s*[.):]|\n\s*(?:Ans|Answer|Correct|Explanation)|\z`),
		}},
		answers: mustCompileAll(
			`(?i)Ans(?:wer)?\s*[.:\-]?\s*([A-D])`,
			`(?i)Correct\s*(?:Answer|Option)?\s*[.:\-]?\s*([A-D])`,
			`(?i)Answer\s*[.:\-]?\s*([A-D])`,
		),
		explanation: spanFinder{
			start: regexp.MustCompile(`(?i)(?:Explanation|Solution)\s*[.:\-]?\s*`),
			stop:  regexp.MustCompile(`(?i)Q\s*\.?\s*\d|\z`),
		},
	}
}

func (s *QDot) Name() string      { return "Q-Dot Format" }
func (s *QDot) Kind() detect.Kind { return detect.KindQDot }

func (s *QDot) CanParse(text string) bool {
	return s.hasQuestion.MatchString(text) && s.hasOptions.MatchString(text)
}

func (s *QDot) Parse(text, filename string) []question.Extracted {
	var out []question.Extracted
	for _, b := range segment(text, s.marker, 0) {
		if q, ok := s.parseBlock(b, filename); ok {
			out = append(out, q)
		}
	}
	return out
}

func (s *QDot) parseBlock(b block, filename string) (question.Extracted, bool) {
	start := lineIndex(b.content, s.firstOption)
	if start < 0 {
		return question.Extracted{}, false
	}

	options := make(map[string]string, 4)
	s.options.collect(b.content[start:], options)
	if len(options) < 4 {
		return question.Extracted{}, false
	}

	q := newExtracted(b.number, b.content[:start], options, b.content, filename)
	q.CorrectAnswer = firstAnswer(b.content, s.answers)
	if exp, ok := s.explanation.find(b.content); ok {
		q.Explanation = explanation(exp)
	}
	return q, true
}
