// Package pagetrack maps printed question numbers to the page they appear on.
package pagetrack

import (
	"regexp"
)

// Question-start markers searched on each page. They match at the start of
// a line, case-insensitively.
var markers = []*regexp.Regexp{
	regexp.MustCompile(`(?im)^\s*(\d{1,3})\s*\.\s*Question\s*:`),
	regexp.MustCompile(`(?im)^\s*Q\s*\.?\s*(\d{1,3})`),
	regexp.MustCompile(`(?im)^\s*(\d{1,3})\s*\.\s+[A-Z]`),
}

// Map is question number to 1-based page.
type Map map[string]int

// Page returns the tracked page for number, or fallback when the number
// was never seen.
func (m Map) Page(number string, fallback int) int {
	if p, ok := m[number]; ok {
		return p
	}
	return fallback
}

// Track scans every page on its own and records the page each question
// number was found on. A number seen on several pages keeps the last one,
// so documents whose numbering restarts per section map every repeated
// number to its final occurrence.
func Track(pages []string) Map {
	m := make(Map)
	for i, text := range pages {
		for _, re := range markers {
			for _, match := range re.FindAllStringSubmatch(text, -1) {
				m[match[1]] = i + 1
			}
		}
	}
	return m
}
