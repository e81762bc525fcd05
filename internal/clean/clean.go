// Package clean filters, deduplicates and enriches assembled questions
// before they enter the question bank.
package clean

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/a3tai/mcq-extractor/internal/intelligence"
	"github.com/a3tai/mcq-extractor/internal/question"
)

// Policy selects which content signatures count as a duplicate match.
type Policy string

const (
	// PolicyUnion drops a question when any one of its signatures was seen.
	PolicyUnion Policy = "union"
	// PolicyStrict drops a question only when its full-stem signature was seen.
	PolicyStrict Policy = "strict"
)

// ParsePolicy maps a configuration string to a Policy
func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(strings.ToLower(strings.TrimSpace(s))); p {
	case PolicyUnion, PolicyStrict:
		return p, nil
	case "":
		return PolicyUnion, nil
	default:
		return "", fmt.Errorf("unknown dedup policy %q (want union or strict)", s)
	}
}

const (
	// DefaultMinStemLength and DefaultMaxStemLength bound stems accepted
	// into the bank. They are tighter than the validity rules.
	DefaultMinStemLength = 20
	DefaultMaxStemLength = 2000

	prefixSignatureLength = 100
)

var (
	garbagePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)^[\d\s.\-]+$`),
		regexp.MustCompile(`(?i)^[A-Z]{20,}$`),
		regexp.MustCompile(`(?i)lorem ipsum`),
	}
	nonLetterRe        = regexp.MustCompile(`[^a-zA-Z\s]`)
	whitespaceRe       = regexp.MustCompile(`\s+`)
	spaceBeforePunctRe = regexp.MustCompile(`\s+([.,;:!?])`)
	fileYearRe         = regexp.MustCompile(`20[12]\d`)
	stemYearRe         = regexp.MustCompile(`(?i)FMGE\s*(20[12]\d)`)
)

// Options configures a Cleaner.
type Options struct {
	Policy     Policy
	Classifier *intelligence.SubjectClassifier

	MinStemLength int
	MaxStemLength int
}

// Stats summarises one Clean call.
type Stats struct {
	TotalInput        int `json:"total_input"`
	DuplicatesRemoved int `json:"duplicates_removed"`
	InvalidRemoved    int `json:"invalid_removed"`
	Enhanced          int `json:"enhanced"`
	FinalOutput       int `json:"final_output"`
}

// DuplicateRate is the share of input dropped as duplicates, as a percentage.
func (s Stats) DuplicateRate() string {
	return percent(s.DuplicatesRemoved, s.TotalInput)
}

// RetentionRate is the share of input kept, as a percentage.
func (s Stats) RetentionRate() string {
	return percent(s.FinalOutput, s.TotalInput)
}

func percent(n, total int) string {
	if total == 0 {
		return "0%"
	}
	return fmt.Sprintf("%.1f%%", float64(n)/float64(total)*100)
}

// Cleaner removes invalid and duplicate questions, tags subject and year,
// and normalises text. Signatures of accepted questions accumulate for the
// cleaner's lifetime and are never removed, so questions cleaned in later
// calls are deduplicated against earlier ones too.
type Cleaner struct {
	opts Options

	mu   sync.Mutex
	seen map[string]struct{}
}

// New creates a cleaner
func New(opts Options) *Cleaner {
	if opts.Policy == "" {
		opts.Policy = PolicyUnion
	}
	if opts.Classifier == nil {
		opts.Classifier = intelligence.NewSubjectClassifier()
	}
	if opts.MinStemLength <= 0 {
		opts.MinStemLength = DefaultMinStemLength
	}
	if opts.MaxStemLength <= 0 {
		opts.MaxStemLength = DefaultMaxStemLength
	}
	return &Cleaner{opts: opts, seen: make(map[string]struct{})}
}

// Clean runs the filter, dedup, enhance and final passes in that order and
// returns the surviving questions with the statistics of this call. The
// input slice is not modified.
func (c *Cleaner) Clean(questions []question.Question) ([]question.Question, Stats) {
	c.mu.Lock()
	defer c.mu.Unlock()

	stats := Stats{TotalInput: len(questions)}
	out := make([]question.Question, 0, len(questions))

	for _, q := range questions {
		if !c.acceptable(&q) {
			stats.InvalidRemoved++
			continue
		}
		if c.duplicate(&q) {
			stats.DuplicatesRemoved++
			continue
		}

		c.enhance(&q)
		stats.Enhanced++

		finalize(&q)
		out = append(out, q)
	}

	stats.FinalOutput = len(out)
	return out, stats
}

func (c *Cleaner) acceptable(q *question.Question) bool {
	if !q.IsValid {
		return false
	}

	n := question.Length(q.QuestionText)
	if n < c.opts.MinStemLength || n > c.opts.MaxStemLength {
		return false
	}

	options := q.Options()
	distinct := make(map[string]struct{}, 4)
	for _, opt := range options {
		if opt == "" {
			return false
		}
		distinct[opt] = struct{}{}
	}
	if len(distinct) != 4 {
		return false
	}

	return !IsGarbage(q.QuestionText + strings.Join(options, " "))
}

// IsGarbage reports whether text is only digits and punctuation, a single
// run of twenty or more letters, or placeholder copy.
func IsGarbage(text string) bool {
	for _, re := range garbagePatterns {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

// duplicate checks q's signatures against the seen set and, when q is new,
// records all of them.
func (c *Cleaner) duplicate(q *question.Question) bool {
	sigs := Signatures(q)

	check := sigs
	if c.opts.Policy == PolicyStrict {
		check = sigs[:1]
	}
	for _, s := range check {
		if _, ok := c.seen[s]; ok {
			return true
		}
	}

	for _, s := range sigs {
		c.seen[s] = struct{}{}
	}
	return false
}

// Signatures returns the tagged content hashes used for deduplication: the
// full lowercased stem, the stem reduced to letters, the first 100
// characters, and the stem joined with option A. The full-stem signature
// is always first.
func Signatures(q *question.Question) []string {
	stem := q.QuestionText
	lower := strings.ToLower(stem)

	normalized := nonLetterRe.ReplaceAllString(lower, "")
	normalized = strings.Join(strings.Fields(normalized), " ")

	return []string{
		"full_" + md5Hex(lower),
		"norm_" + md5Hex(normalized),
		"prefix_" + md5Hex(strings.ToLower(question.Truncate(stem, prefixSignatureLength))),
		"combo_" + md5Hex(strings.ToLower(stem+q.OptionA)),
	}
}

func md5Hex(s string) string {
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}

func (c *Cleaner) enhance(q *question.Question) {
	q.Subject = c.opts.Classifier.Subject(strings.Join(append([]string{q.QuestionText}, q.Options()...), " "))
	q.Year = ExtractYear(q.SourceFile, q.QuestionText)

	q.QuestionText = NormalizeText(q.QuestionText)
	q.OptionA = NormalizeText(q.OptionA)
	q.OptionB = NormalizeText(q.OptionB)
	q.OptionC = NormalizeText(q.OptionC)
	q.OptionD = NormalizeText(q.OptionD)
	if q.Explanation != "" {
		q.Explanation = NormalizeText(q.Explanation)
	}
}

// ExtractYear finds an exam year in the source file name, then in an
// "FMGE <year>" mention in the stem.
func ExtractYear(sourceFile, stem string) string {
	if y := fileYearRe.FindString(sourceFile); y != "" {
		return y
	}
	if m := stemYearRe.FindStringSubmatch(stem); m != nil {
		return m[1]
	}
	return ""
}

// NormalizeText collapses whitespace, removes spaces before punctuation and
// capitalises the first letter.
func NormalizeText(text string) string {
	text = whitespaceRe.ReplaceAllString(text, " ")
	text = spaceBeforePunctRe.ReplaceAllString(text, "$1")
	text = strings.TrimSpace(text)

	r, size := utf8.DecodeRuneInString(text)
	if size > 0 && unicode.IsLower(r) {
		text = string(unicode.ToUpper(r)) + text[size:]
	}
	return text
}

// finalize makes the stem end in '.', '?' or ':' and clears any answer
// outside A-D.
func finalize(q *question.Question) {
	if q.QuestionText != "" && !strings.ContainsAny(q.QuestionText[len(q.QuestionText)-1:], ".?:") {
		q.QuestionText += "?"
	}
	if q.CorrectAnswer != "" && !question.IsValidAnswer(q.CorrectAnswer) {
		q.CorrectAnswer = ""
	}
}
