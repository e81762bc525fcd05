package bank

import (
	"github.com/a3tai/mcq-extractor/internal/question"
)

// Stats summarises a question bank.
type Stats struct {
	Total            int            `json:"total"`
	WithAnswers      int            `json:"with_answers"`
	WithExplanations int            `json:"with_explanations"`
	WithImages       int            `json:"with_images"`
	NeedsReview      int            `json:"needs_review"`
	BySubject        map[string]int `json:"by_subject"`
	// AnswerCoverage is the percentage of questions carrying an answer
	AnswerCoverage float64 `json:"answer_coverage"`
}

// ComputeStats counts answers, explanations, images and subjects in qs.
// Questions without a subject are counted as "Unknown".
func ComputeStats(qs []question.Question) Stats {
	s := Stats{Total: len(qs), BySubject: make(map[string]int)}
	for i := range qs {
		q := &qs[i]
		if q.CorrectAnswer != "" {
			s.WithAnswers++
		}
		if q.Explanation != "" {
			s.WithExplanations++
		}
		if len(q.Images) > 0 {
			s.WithImages++
		}
		if q.NeedsReview {
			s.NeedsReview++
		}
		subject := q.Subject
		if subject == "" {
			subject = "Unknown"
		}
		s.BySubject[subject]++
	}
	if s.Total > 0 {
		s.AnswerCoverage = float64(s.WithAnswers) / float64(s.Total) * 100
	}
	return s
}

// NeedingImages returns the questions that refer to a figure but have none linked
func NeedingImages(qs []question.Question) []question.Question {
	var out []question.Question
	for _, q := range qs {
		if q.HasImageReference && len(q.Images) == 0 {
			out = append(out, q)
		}
	}
	return out
}

// WithLinkedImages returns the questions that have at least one image
func WithLinkedImages(qs []question.Question) []question.Question {
	var out []question.Question
	for _, q := range qs {
		if len(q.Images) > 0 {
			out = append(out, q)
		}
	}
	return out
}
