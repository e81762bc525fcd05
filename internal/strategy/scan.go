package strategy

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/a3tai/mcq-extractor/internal/question"
)

// Layout regexes are written against text that starts with a newline, so a
// leading "\n" in a pattern stands for "start of text or start of line".
// The scanners below prepend that newline and map offsets back.

var whitespaceRe = regexp.MustCompile(`\s+`)

// cleanField collapses whitespace runs to single spaces and trims.
func cleanField(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

// block is one segmented question: its printed number and the text up to
// the next question marker.
type block struct {
	number  string
	content string
}

// segment splits text at every match of marker. Group 1 of marker is the
// question number; when contentGroup is non-zero the block content starts at
// that group instead of at the end of the match.
func segment(text string, marker *regexp.Regexp, contentGroup int) []block {
	src := "\n" + text
	locs := marker.FindAllStringSubmatchIndex(src, -1)

	blocks := make([]block, 0, len(locs))
	for i, loc := range locs {
		start := loc[1]
		if contentGroup > 0 && loc[2*contentGroup] >= 0 {
			start = loc[2*contentGroup]
		}
		end := len(src)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		blocks = append(blocks, block{
			number:  src[loc[2]:loc[3]],
			content: src[start:end],
		})
	}
	return blocks
}

// lineIndex returns the offset in text of the first match of re, where re
// is written with the leading-newline convention, or -1.
func lineIndex(text string, re *regexp.Regexp) int {
	loc := re.FindStringIndex("\n" + text)
	if loc == nil {
		return -1
	}
	return max(0, loc[0]-1)
}

// fieldScanner emulates a lazy "marker (.*?) until stop" findall: each
// marker match captures a key in group 1, and the value runs to the
// leftmost stop match after the marker, where the next scan resumes.
type fieldScanner struct {
	marker *regexp.Regexp
	stop   *regexp.Regexp
}

type field struct {
	key   string
	value string
}

func (s fieldScanner) scan(text string) []field {
	src := "\n" + text

	var fields []field
	pos := 0
	for pos <= len(src) {
		loc := s.marker.FindStringSubmatchIndex(src[pos:])
		if loc == nil {
			break
		}
		valueStart := pos + loc[1]
		valueEnd := len(src)
		if stop := s.stop.FindStringIndex(src[valueStart:]); stop != nil {
			valueEnd = valueStart + stop[0]
		}

		fields = append(fields, field{
			key:   src[pos+loc[2] : pos+loc[3]],
			value: src[valueStart:valueEnd],
		})

		next := valueEnd
		if next == pos {
			next++
		}
		pos = next
	}
	return fields
}

// optionScanner collects lettered options. The first marker seen for a
// letter wins, so option-like lines further down the block (answer lines,
// lists inside explanations) cannot replace a real option. Empty values are
// dropped when skipEmpty.
type optionScanner struct {
	fieldScanner
	skipEmpty bool
}

func (s optionScanner) collect(text string, into map[string]string) {
	for _, f := range s.scan(text) {
		letter := strings.ToUpper(f.key)
		if l, ok := question.LetterForNumber(letter); ok {
			letter = l
		}
		if !question.IsValidAnswer(letter) {
			continue
		}
		if _, seen := into[letter]; seen {
			continue
		}
		value := cleanField(f.value)
		if value == "" && s.skipEmpty {
			continue
		}
		into[letter] = value
	}
}

// spanFinder locates a keyword and returns the text after it up to the
// leftmost stop match.
type spanFinder struct {
	start *regexp.Regexp
	stop  *regexp.Regexp
}

func (s spanFinder) find(text string) (string, bool) {
	loc := s.start.FindStringIndex(text)
	if loc == nil {
		return "", false
	}
	rest := text[loc[1]:]
	if stop := s.stop.FindStringIndex(rest); stop != nil {
		rest = rest[:stop[0]]
	}
	return cleanField(rest), true
}

// firstAnswer applies patterns in order and stops at the first match. A
// match outside A-D or 1-4 leaves the answer unset.
func firstAnswer(text string, patterns []*regexp.Regexp) string {
	for _, re := range patterns {
		if m := re.FindStringSubmatch(text); m != nil {
			letter, _ := question.NormalizeAnswer(m[1])
			return letter
		}
	}
	return ""
}

// pageEstimate is the coarse page guess used until the page tracker
// supplies a real page.
func pageEstimate(number string) int {
	n, err := strconv.Atoi(number)
	if err != nil {
		return 1
	}
	return n/3 + 1
}
