package clean

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/mcq-extractor/internal/question"
)

func newQuestion(stem, source string, options ...string) question.Question {
	if len(options) == 0 {
		options = []string{"Axillary", "Radial", "Ulnar", "Median"}
	}
	q := question.Question{
		ID:            question.ContentID(stem),
		QuestionText:  stem,
		CorrectAnswer: "A",
		SourceFile:    source,
		Images:        []string{},
	}
	q.OptionA, q.OptionB, q.OptionC, q.OptionD = options[0], options[1], options[2], options[3]
	q.Validate()
	return q
}

func TestCleanScenarioB(t *testing.T) {
	c := New(Options{})

	in := []question.Question{
		newQuestion("Which nerve supplies the deltoid muscle", "paper1.pdf"),
		newQuestion("WHICH NERVE SUPPLIES THE DELTOID MUSCLE", "paper2.pdf"),
	}

	out, stats := c.Clean(in)
	require.Len(t, out, 1)
	assert.Equal(t, "paper1.pdf", out[0].SourceFile)
	assert.Equal(t, Stats{TotalInput: 2, DuplicatesRemoved: 1, Enhanced: 1, FinalOutput: 1}, stats)
	assert.Equal(t, "50.0%", stats.DuplicateRate())
	assert.Equal(t, "50.0%", stats.RetentionRate())

	// input is untouched
	assert.Equal(t, "Which nerve supplies the deltoid muscle", in[0].QuestionText)
}

func TestCleanSeenSetSpansCalls(t *testing.T) {
	c := New(Options{})

	_, first := c.Clean([]question.Question{newQuestion("Which nerve supplies the deltoid muscle", "a.pdf")})
	out, second := c.Clean([]question.Question{newQuestion("Which nerve supplies the deltoid muscle", "b.pdf")})

	assert.Equal(t, 1, first.FinalOutput)
	assert.Empty(t, out)
	assert.Equal(t, 1, second.DuplicatesRemoved)
}

func TestCleanSharedPrefix(t *testing.T) {
	prefix := "A 45-year-old man presents to the emergency department with sudden onset chest pain radiating to the"
	require.Equal(t, 100, question.Length(prefix))

	first := newQuestion(prefix+" back. The most likely diagnosis is", "a.pdf")
	second := newQuestion(prefix+" left arm. The next investigation is", "a.pdf",
		"ECG", "Troponin", "Chest radiograph", "Echocardiography")

	t.Run("union drops the second question", func(t *testing.T) {
		out, stats := New(Options{Policy: PolicyUnion}).Clean([]question.Question{first, second})
		require.Len(t, out, 1)
		assert.Equal(t, first.ID, out[0].ID)
		assert.Equal(t, 1, stats.DuplicatesRemoved)
	})

	t.Run("strict keeps both", func(t *testing.T) {
		out, stats := New(Options{Policy: PolicyStrict}).Clean([]question.Question{first, second})
		assert.Len(t, out, 2)
		assert.Zero(t, stats.DuplicatesRemoved)
	})
}

func TestCleanInvalidFilter(t *testing.T) {
	invalid := newQuestion("Too short", "a.pdf")
	require.False(t, invalid.IsValid)

	tests := []struct {
		name string
		q    question.Question
	}{
		{"marked invalid", invalid},
		{"stem under twenty characters", newQuestion("Deltoid supplied by", "a.pdf")},
		{"stem over two thousand characters", newQuestion(strings.Repeat("long stem ", 201), "a.pdf")},
		{"digits only", newQuestion("1234 5678 9012 3456 7890", "a.pdf", "1", "2", "3", "4")},
		{"placeholder", newQuestion("Lorem ipsum dolor sit amet consectetur", "a.pdf")},
		{"repeated option after validation", func() question.Question {
			q := newQuestion("Which nerve supplies the deltoid muscle", "a.pdf")
			q.OptionD = "Axillary"
			return q
		}()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, stats := New(Options{}).Clean([]question.Question{tt.q})
			assert.Empty(t, out)
			assert.Equal(t, 1, stats.InvalidRemoved)
		})
	}
}

func TestCleanEnhance(t *testing.T) {
	c := New(Options{})

	q := newQuestion("which  nerve supplies the deltoid muscle in FMGE 2019 paper", "recall.pdf")
	q.Explanation = "axillary nerve , C5-C6 ."

	out, _ := c.Clean([]question.Question{q})
	require.Len(t, out, 1)

	got := out[0]
	assert.Equal(t, "Anatomy", got.Subject)
	assert.Equal(t, "2019", got.Year)
	assert.Equal(t, "Which nerve supplies the deltoid muscle in FMGE 2019 paper?", got.QuestionText)
	assert.Equal(t, "Axillary nerve, C5-C6.", got.Explanation)
}

func TestExtractYear(t *testing.T) {
	assert.Equal(t, "2021", ExtractYear("FMGE_June_2021.pdf", "Stem mentions FMGE 2019"))
	assert.Equal(t, "2019", ExtractYear("recall.pdf", "asked in fmge2019 exam"))
	assert.Equal(t, "", ExtractYear("recall.pdf", "asked in 1999"))
}

func TestNormalizeText(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"  the  answer , is .", "The answer, is."},
		{"ECG\nshows ST elevation", "ECG shows ST elevation"},
		{"émile durkheim", "Émile durkheim"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeText(tt.in), tt.in)
	}
}

func TestFinalize(t *testing.T) {
	q := question.Question{QuestionText: "Ends with colon:", CorrectAnswer: "E"}
	finalize(&q)
	assert.Equal(t, "Ends with colon:", q.QuestionText)
	assert.Empty(t, q.CorrectAnswer)

	q = question.Question{QuestionText: "No punctuation", CorrectAnswer: "C"}
	finalize(&q)
	assert.Equal(t, "No punctuation?", q.QuestionText)
	assert.Equal(t, "C", q.CorrectAnswer)
}

func TestIsGarbage(t *testing.T) {
	assert.True(t, IsGarbage("ABCDEFGHIJKLMNOPQRSTUVWXYZ"))
	assert.True(t, IsGarbage("12. 34 - 56"))
	assert.False(t, IsGarbage("Which nerve supplies the deltoid muscle"))
}

func TestSignaturesAreTagged(t *testing.T) {
	q := newQuestion("Which nerve supplies the deltoid muscle", "a.pdf")
	sigs := Signatures(&q)
	require.Len(t, sigs, 4)
	for i, prefix := range []string{"full_", "norm_", "prefix_", "combo_"} {
		assert.True(t, strings.HasPrefix(sigs[i], prefix), sigs[i])
	}
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy("")
	require.NoError(t, err)
	assert.Equal(t, PolicyUnion, p)

	p, err = ParsePolicy(" Strict ")
	require.NoError(t, err)
	assert.Equal(t, PolicyStrict, p)

	_, err = ParsePolicy("fuzzy")
	assert.Error(t, err)
}
