package clean

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/mcq-extractor/internal/question"
)

func TestSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, Similarity("Nerve supply of deltoid", "nerve SUPPLY of  deltoid"))
	assert.Equal(t, 0.0, Similarity("", "anything"))
	// {a b c} vs {a b d}: 2 shared of 4 distinct
	assert.InDelta(t, 0.5, Similarity("a b c", "a b d"), 1e-9)
}

func TestFindSimilar(t *testing.T) {
	qs := []question.Question{
		{ID: "1", QuestionText: "Which nerve supplies the deltoid muscle in adults"},
		{ID: "2", QuestionText: "Drug of choice for absence seizures"},
		{ID: "3", QuestionText: "which nerve supplies the deltoid muscle in children"},
		{ID: "4", QuestionText: "Which nerve supplies the deltoid muscle in adults"},
	}

	pairs := NewSimilarityAnalyzer(0.7).FindSimilar(qs)
	require.Len(t, pairs, 3)

	assert.Equal(t, "1", pairs[0].First.ID)
	assert.Equal(t, "4", pairs[0].Second.ID)
	assert.Equal(t, 1.0, pairs[0].Similarity)

	// 7 shared words of 9 distinct
	for _, p := range pairs[1:] {
		assert.InDelta(t, 7.0/9.0, p.Similarity, 1e-9)
	}
	assert.Equal(t, "1", pairs[1].First.ID)
	assert.Equal(t, "3", pairs[1].Second.ID)
	assert.Equal(t, "3", pairs[2].First.ID)
	assert.Equal(t, "4", pairs[2].Second.ID)

	assert.Len(t, NewSimilarityAnalyzer(0).FindSimilar(qs), 1)
}

func TestNewSimilarityAnalyzerThreshold(t *testing.T) {
	assert.Equal(t, DefaultSimilarityThreshold, NewSimilarityAnalyzer(0).Threshold())
	assert.Equal(t, DefaultSimilarityThreshold, NewSimilarityAnalyzer(1.5).Threshold())
	assert.Equal(t, 0.9, NewSimilarityAnalyzer(0.9).Threshold())
}

func TestSubjectDistribution(t *testing.T) {
	qs := []question.Question{
		{Subject: "Anatomy"},
		{Subject: ""},
		{Subject: "Pharmacology"},
		{Subject: "Pharmacology"},
		{Subject: "Anatomy"},
		{Subject: "Anatomy"},
	}

	assert.Equal(t, []SubjectCount{
		{Subject: "Anatomy", Count: 3},
		{Subject: "Pharmacology", Count: 2},
		{Subject: "Untagged", Count: 1},
	}, SubjectDistribution(qs))
}
