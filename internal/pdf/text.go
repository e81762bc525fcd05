package pdf

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var (
	zeroWidthRe    = regexp.MustCompile("[\u200b\u200c\u200d\ufeff]")
	horizontalWSRe = regexp.MustCompile(`[^\S\n]+`)
	blankRunRe     = regexp.MustCompile(`\n{4,}`)
)

// CleanText prepares extracted text for segmentation: it drops NUL and
// zero-width characters, applies NFKC, collapses horizontal whitespace and
// limits blank-line runs.
func CleanText(text string) string {
	text = strings.ReplaceAll(text, "\x00", "")
	text = zeroWidthRe.ReplaceAllString(text, "")
	text = norm.NFKC.String(text)
	text = horizontalWSRe.ReplaceAllString(text, " ")
	text = blankRunRe.ReplaceAllString(text, "\n\n\n")
	return strings.TrimSpace(text)
}
