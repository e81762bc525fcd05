package pagetrack

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTrack(t *testing.T) {
	pages := []string{
		"1. Question:\nFirst stem\nOption 1:\nx",
		"Preface text with no markers",
		"Q2. Second stem\nA. one\n  Q.3 Third stem",
		"4. Which nerve supplies the deltoid?\n5. also numbered",
	}

	m := Track(pages)
	assert.Equal(t, Map{"1": 1, "2": 3, "3": 3, "4": 4, "5": 4}, m)
}

func TestTrackLastPageWins(t *testing.T) {
	// numbering restarts in the second section; every repeated number is
	// attributed to its final page
	pages := []string{
		"1. First section question one\n2. First section question two",
		"1. Second section question one",
	}

	m := Track(pages)
	assert.Equal(t, 2, m["1"])
	assert.Equal(t, 1, m["2"])
}

func TestTrackIgnoresMidLineNumbers(t *testing.T) {
	m := Track([]string{"See question 12. It explains the answer"})
	assert.Empty(t, m)
}

func TestPageFallback(t *testing.T) {
	m := Map{"7": 3}
	assert.Equal(t, 3, m.Page("7", 9))
	assert.Equal(t, 9, m.Page("8", 9))

	var empty Map
	assert.Equal(t, 2, empty.Page("1", 2))
}
