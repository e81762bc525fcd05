// Package question defines the records that flow through the extraction
// pipeline: the raw per-strategy Extracted record and the canonical Question
// persisted to the bank.
package question

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	// MinStemLength and MaxStemLength bound a valid question_text, in characters.
	MinStemLength = 15
	MaxStemLength = 3000

	// idPrefixLength is how much of the stem feeds the content hash.
	idPrefixLength = 200
	idLength       = 12

	// RawBlockPreview bounds the raw text kept alongside an extracted block.
	RawBlockPreview = 500
)

// Letters lists the option keys in display order.
var Letters = []string{"A", "B", "C", "D"}

var numberToLetter = map[string]string{"1": "A", "2": "B", "3": "C", "4": "D"}

// Extracted is a question as produced by exactly one parsing strategy,
// before page resolution, image linking and validation.
type Extracted struct {
	Number        string            `json:"question_number"`
	Text          string            `json:"question_text"`
	Options       map[string]string `json:"options"`
	CorrectAnswer string            `json:"correct_answer,omitempty"`
	Explanation   string            `json:"explanation,omitempty"`
	RawBlock      string            `json:"raw_block"`
	SourceFile    string            `json:"source_file"`
	PageNumber    int               `json:"page_number"`
	HasImageHint  bool              `json:"has_image_hint"`
}

// Question is the canonical record persisted to the question bank.
type Question struct {
	ID                  string   `json:"id"`
	QuestionText        string   `json:"question_text"`
	OptionA             string   `json:"option_a"`
	OptionB             string   `json:"option_b"`
	OptionC             string   `json:"option_c"`
	OptionD             string   `json:"option_d"`
	CorrectAnswer       string   `json:"correct_answer,omitempty"`
	Explanation         string   `json:"explanation,omitempty"`
	SourceFile          string   `json:"source_file"`
	PageNumber          int      `json:"page_number"`
	QuestionNumber      string   `json:"question_number"`
	Images              []string `json:"images"`
	Subject             string   `json:"subject,omitempty"`
	Year                string   `json:"year,omitempty"`
	IsValid             bool     `json:"is_valid"`
	ValidationErrors    []string `json:"validation_errors,omitempty"`
	HasImageReference   bool     `json:"has_image_reference"`
	ImagePatternMatched string   `json:"image_pattern_matched"`
	NeedsReview         bool     `json:"needs_review"`
}

// ContentID returns the content-addressed identifier of a stem: the first
// 12 hex characters of the MD5 of its lowercased first 200 characters.
// Stems sharing that prefix share an ID.
func ContentID(text string) string {
	sum := md5.Sum([]byte(strings.ToLower(Truncate(text, idPrefixLength))))
	return hex.EncodeToString(sum[:])[:idLength]
}

// Truncate returns at most n characters of s.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

// Length returns the number of characters in s.
func Length(s string) int {
	return utf8.RuneCountInString(s)
}

// LetterForNumber maps a numeric answer 1-4 to A-D.
func LetterForNumber(n string) (string, bool) {
	l, ok := numberToLetter[strings.TrimSpace(n)]
	return l, ok
}

// NormalizeAnswer upper-cases a letter answer and maps numeric answers.
// It returns false for anything outside A-D / 1-4.
func NormalizeAnswer(s string) (string, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if l, ok := numberToLetter[s]; ok {
		return l, true
	}
	if IsValidAnswer(s) {
		return s, true
	}
	return "", false
}

// IsValidAnswer reports whether s is exactly one of A, B, C, D.
func IsValidAnswer(s string) bool {
	switch s {
	case "A", "B", "C", "D":
		return true
	}
	return false
}

// Options returns the four option texts in A-D order.
func (q *Question) Options() []string {
	return []string{q.OptionA, q.OptionB, q.OptionC, q.OptionD}
}

// OptionMap returns the options keyed by letter.
func (q *Question) OptionMap() map[string]string {
	return map[string]string{"A": q.OptionA, "B": q.OptionB, "C": q.OptionC, "D": q.OptionD}
}

// SetOptions copies A-D from m; missing letters become empty.
func (q *Question) SetOptions(m map[string]string) {
	q.OptionA = m["A"]
	q.OptionB = m["B"]
	q.OptionC = m["C"]
	q.OptionD = m["D"]
}

// Validate recomputes IsValid and ValidationErrors. An answer outside A-D
// is reported and cleared.
func (q *Question) Validate() {
	var errs []string

	n := Length(q.QuestionText)
	if n < MinStemLength {
		errs = append(errs, "Question too short")
	}
	if n > MaxStemLength {
		errs = append(errs, "Question too long")
	}

	empty := 0
	seen := make(map[string]bool, 4)
	duplicate := false
	for _, opt := range q.Options() {
		key := strings.ToLower(strings.TrimSpace(opt))
		if key == "" {
			empty++
			continue
		}
		if seen[key] {
			duplicate = true
		}
		seen[key] = true
	}
	if empty > 0 {
		errs = append(errs, fmt.Sprintf("%d empty options", empty))
	}
	if duplicate {
		errs = append(errs, "Duplicate options")
	}

	if q.CorrectAnswer != "" && !IsValidAnswer(q.CorrectAnswer) {
		errs = append(errs, "Invalid answer: "+q.CorrectAnswer)
		q.CorrectAnswer = ""
	}

	q.ValidationErrors = errs
	q.IsValid = len(errs) == 0
}

// UpdateReviewFlag enforces needs_review = has_image_reference && no images.
func (q *Question) UpdateReviewFlag() {
	q.NeedsReview = q.HasImageReference && len(q.Images) == 0
}
