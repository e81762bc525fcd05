package strategy

import (
	"regexp"

	"github.com/a3tai/mcq-extractor/internal/detect"
	"github.com/a3tai/mcq-extractor/internal/question"
)

// QuestionColon parses the "1. Question:" layout with "Option 1:" .. "Option 4:"
// options and a numeric "Correct option: N" answer.
type QuestionColon struct {
	hasQuestion *regexp.Regexp
	hasOptions  *regexp.Regexp
	marker      *regexp.Regexp
	firstOption *regexp.Regexp
	options     optionScanner
	answers     []*regexp.Regexp
	explanation spanFinder
}

// NewQuestionColon creates the question-colon strategy
func NewQuestionColon() *QuestionColon {
	return &QuestionColon{
		hasQuestion: regexp.MustCompile(`(?i)\d+\s*\.\s*Question\s*:`),
		hasOptions:  regexp.MustCompile(`(?i)Option\s*[1-4]\s*:`),
		marker:      regexp.MustCompile(`(?i)\n\s*(\d{1,3})\s*\.\s*Question\s*:\s*\n?`),
		firstOption: regexp.MustCompile(`(?i)Option\s*1\s*:`),
		options: optionScanner{fieldScanner: fieldScanner{
			marker: regexp.MustCompile(`(?i)Option\s*([1-4])\s*:\s*`),
			stop:   regexp.MustCompile(`(?i)Option\s*[1-4]\s*:|Correct\s*option|Solutions|Reference|\z`),
		}},
		answers: mustCompileAll(
			`(?i)Correct\s*option\s*:\s*(\d)`,
			`(?i)Correct\s*Answer\s*:\s*([A-Da-d])`,
		),
		explanation: spanFinder{
			start: regexp.MustCompile(`(?i)Explanation\s*:\s*`),
			stop:  regexp.MustCompile(`(?i)Reference|Incorrect|Learning|\z`),
		},
	}
}

func (s *QuestionColon) Name() string      { return "Question Colon Format" }
func (s *QuestionColon) Kind() detect.Kind { return detect.KindQuestionColon }

func (s *QuestionColon) CanParse(text string) bool {
	return s.hasQuestion.MatchString(text) && s.hasOptions.MatchString(text)
}

func (s *QuestionColon) Parse(text, filename string) []question.Extracted {
	var out []question.Extracted
	for _, b := range segment(text, s.marker, 0) {
		if q, ok := s.parseBlock(b, filename); ok {
			out = append(out, q)
		}
	}
	return out
}

func (s *QuestionColon) parseBlock(b block, filename string) (question.Extracted, bool) {
	loc := s.firstOption.FindStringIndex(b.content)
	if loc == nil {
		return question.Extracted{}, false
	}

	options := make(map[string]string, 4)
	s.options.collect(b.content[loc[0]:], options)
	if len(options) < 4 {
		return question.Extracted{}, false
	}

	q := newExtracted(b.number, b.content[:loc[0]], options, b.content, filename)
	q.CorrectAnswer = firstAnswer(b.content, s.answers)
	if exp, ok := s.explanation.find(b.content); ok {
		q.Explanation = explanation(exp)
	}
	return q, true
}
