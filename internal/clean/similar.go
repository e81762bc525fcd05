package clean

import (
	"cmp"
	"slices"
	"strings"

	"github.com/a3tai/mcq-extractor/internal/intelligence"
	"github.com/a3tai/mcq-extractor/internal/question"
)

// DefaultSimilarityThreshold is the Jaccard score at which two stems are
// reported as near-duplicates.
const DefaultSimilarityThreshold = 0.8

// SimilarPair is two questions whose stems share most of their words.
type SimilarPair struct {
	First      question.Question `json:"first"`
	Second     question.Question `json:"second"`
	Similarity float64           `json:"similarity"`
}

// SimilarityAnalyzer finds near-duplicate stems for manual QA. It compares
// every pair, so it is meant for offline review of a bank, not for the
// extraction path.
type SimilarityAnalyzer struct {
	threshold float64
}

// NewSimilarityAnalyzer creates an analyzer; a threshold outside (0, 1]
// falls back to DefaultSimilarityThreshold.
func NewSimilarityAnalyzer(threshold float64) *SimilarityAnalyzer {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultSimilarityThreshold
	}
	return &SimilarityAnalyzer{threshold: threshold}
}

// Threshold returns the effective threshold
func (a *SimilarityAnalyzer) Threshold() float64 {
	return a.threshold
}

// FindSimilar returns every pair at or above the threshold, most similar
// first. Pairs with equal scores keep input order.
func (a *SimilarityAnalyzer) FindSimilar(questions []question.Question) []SimilarPair {
	tokens := make([]map[string]struct{}, len(questions))
	for i := range questions {
		tokens[i] = wordSet(questions[i].QuestionText)
	}

	var pairs []SimilarPair
	for i := range questions {
		for j := i + 1; j < len(questions); j++ {
			sim := jaccard(tokens[i], tokens[j])
			if sim >= a.threshold {
				pairs = append(pairs, SimilarPair{
					First:      questions[i],
					Second:     questions[j],
					Similarity: sim,
				})
			}
		}
	}

	slices.SortStableFunc(pairs, func(x, y SimilarPair) int {
		return cmp.Compare(y.Similarity, x.Similarity)
	})
	return pairs
}

// Similarity is the Jaccard index of the lowercased whitespace-separated
// words of two texts. Empty texts score zero.
func Similarity(a, b string) float64 {
	return jaccard(wordSet(a), wordSet(b))
}

func wordSet(text string) map[string]struct{} {
	words := strings.Fields(strings.ToLower(text))
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	inter := 0
	for w := range a {
		if _, ok := b[w]; ok {
			inter++
		}
	}
	return float64(inter) / float64(len(a)+len(b)-inter)
}

// SubjectCount is one row of a subject distribution.
type SubjectCount struct {
	Subject string `json:"subject"`
	Count   int    `json:"count"`
}

// SubjectDistribution counts questions per subject, largest first. Questions
// without a subject are counted as untagged.
func SubjectDistribution(questions []question.Question) []SubjectCount {
	counts := make(map[string]int)
	var order []string
	for _, q := range questions {
		s := q.Subject
		if s == "" {
			s = intelligence.SubjectUntagged
		}
		if _, ok := counts[s]; !ok {
			order = append(order, s)
		}
		counts[s]++
	}

	out := make([]SubjectCount, 0, len(order))
	for _, s := range order {
		out = append(out, SubjectCount{Subject: s, Count: counts[s]})
	}
	slices.SortStableFunc(out, func(a, b SubjectCount) int {
		return b.Count - a.Count
	})
	return out
}
