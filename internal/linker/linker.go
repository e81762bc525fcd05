// Package linker decides which questions refer to a figure and picks the
// extracted images most likely to be that figure.
package linker

import (
	"regexp"
	"slices"

	"github.com/a3tai/mcq-extractor/internal/pdf"
)

// DefaultMaxCandidates is how many ranked images Candidates returns.
const DefaultMaxCandidates = 2

// imagePhrases are multi-word references to a figure. Single keywords such
// as "image" alone produce too many false positives in explanations.
var imagePhrases = []string{
	`(?:shown|given|seen|depicted|illustrated)\s+(?:in\s+)?(?:the\s+)?(?:image|figure|picture|photograph|diagram)`,
	`(?:image|figure|picture|photograph|diagram)\s+(?:shown|given|below|above)`,
	`identify\s+(?:the\s+)?(?:structure|finding|lesion|abnormality)`,
	`what\s+(?:is|does)\s+(?:the\s+)?(?:image|figure|arrow|structure)`,
	`(?:x-ray|xray|radiograph|ct\s*scan|mri|ecg|ekg|ultrasound|usg)\s+(?:shows|showing|revealed|image)`,
	`(?:clinical|gross)\s+photograph`,
	`histology\s+(?:slide|image|section)`,
	`(?:blood\s+)?smear\s+(?:shows|showing|image)`,
	`culture\s+(?:shown|image|plate)`,
	`fundus\s+(?:image|photograph|picture)`,
	`(?:the\s+)?(?:given|following)\s+(?:image|figure|picture)`,
	`(?:arrow|arrowhead)\s+(?:points|shows|indicates|marks)`,
	`marked\s+(?:structure|area|region|finding)`,
	`what\s+is\s+(?:the\s+)?(?:diagnosis|finding|abnormality)\s+(?:in|from)`,
	`biopsy\s+(?:shows|image|specimen)`,
	`specimen\s+(?:shown|image)`,
	`lesion\s+(?:shown|seen|image)`,
	`rash\s+(?:shown|seen|image)`,
	`(?:ct|mri|pet)\s+(?:scan)?\s+(?:image|finding|shows)`,
	`electrocardiogram\s+(?:shows|showing|image)`,
	`angiography\s+(?:shows|image)`,
}

// pageOffsets is the search order around a question's page.
var pageOffsets = []int{0, -1, 1, -2, 2}

// Linker matches stems against the image phrase list.
type Linker struct {
	patterns      []*regexp.Regexp
	maxCandidates int
}

// New creates a linker returning at most maxCandidates images per question;
// values below one fall back to DefaultMaxCandidates.
func New(maxCandidates int) *Linker {
	if maxCandidates < 1 {
		maxCandidates = DefaultMaxCandidates
	}
	patterns := make([]*regexp.Regexp, len(imagePhrases))
	for i, p := range imagePhrases {
		patterns[i] = regexp.MustCompile("(?i)" + p)
	}
	return &Linker{patterns: patterns, maxCandidates: maxCandidates}
}

// NeedsImage reports whether stem refers to a figure, and the text of the
// first phrase that matched.
func (l *Linker) NeedsImage(stem string) (bool, string) {
	for _, re := range l.patterns {
		if m := re.FindString(stem); m != "" {
			return true, m
		}
	}
	return false, ""
}

// Candidates gathers images from page and its neighbours up to two pages
// away, same page first, then ranks them by pixel area, largest first.
// Images of equal area keep their page-proximity order.
func (l *Linker) Candidates(page int, byPage map[int][]pdf.ExtractedImage) []pdf.ExtractedImage {
	var candidates []pdf.ExtractedImage
	for _, off := range pageOffsets {
		candidates = append(candidates, byPage[page+off]...)
	}
	if len(candidates) == 0 {
		return nil
	}

	slices.SortStableFunc(candidates, func(a, b pdf.ExtractedImage) int {
		return b.Area() - a.Area()
	})
	if len(candidates) > l.maxCandidates {
		candidates = candidates[:l.maxCandidates]
	}
	return candidates
}

// Link returns the ranked images for a question on page, or nil when the
// stem does not refer to a figure.
func (l *Linker) Link(stem string, page int, byPage map[int][]pdf.ExtractedImage) []pdf.ExtractedImage {
	if ok, _ := l.NeedsImage(stem); !ok {
		return nil
	}
	return l.Candidates(page, byPage)
}
