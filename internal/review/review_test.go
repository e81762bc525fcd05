package review

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/a3tai/mcq-extractor/internal/question"
)

func newTestQueue(t *testing.T) *Queue {
	t.Helper()
	q, err := Open(":memory:")
	if err != nil {
		t.Fatalf("newTestQueue: %v", err)
	}
	t.Cleanup(func() { q.Close() })
	return q
}

func testQuestion(id string) question.Question {
	return question.Question{
		ID:            id,
		QuestionText:  "Identify the lesion shown in the image",
		OptionA:       "Melanoma",
		OptionB:       "Basal cell carcinoma",
		OptionC:       "Keratoacanthoma",
		OptionD:       "Seborrheic keratosis",
		CorrectAnswer: "B",
		SourceFile:    "derm.pdf",
		PageNumber:    4,
	}
}

func TestAddAndGet(t *testing.T) {
	ctx := context.Background()
	q := newTestQueue(t)

	added, err := q.Add(ctx, ItemFromQuestion(testQuestion("abc123"), ReasonMissingImage, "raw text", "run-1"))
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if !added {
		t.Fatal("expected first add to insert")
	}

	it, err := q.Get(ctx, "abc123")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if it.Reason != ReasonMissingImage || it.RunID != "run-1" || it.PageNumber != 4 {
		t.Errorf("unexpected item: %+v", it)
	}
	if it.Options["B"] != "Basal cell carcinoma" {
		t.Errorf("expected option B to round-trip, got %q", it.Options["B"])
	}
	if it.CreatedAt.IsZero() {
		t.Error("expected created_at to be set")
	}
	if it.Reviewed {
		t.Error("new item should be pending")
	}

	if _, err := q.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestAddIgnoresQueuedQuestion(t *testing.T) {
	ctx := context.Background()
	q := newTestQueue(t)

	if _, err := q.Add(ctx, ItemFromQuestion(testQuestion("dup"), ReasonMissingImage, "", "")); err != nil {
		t.Fatalf("Add: %v", err)
	}
	added, err := q.Add(ctx, ItemFromQuestion(testQuestion("dup"), "validation: Duplicate options", "", ""))
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if added {
		t.Error("expected duplicate question id to be ignored")
	}

	it, err := q.Get(ctx, "dup")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if it.Reason != ReasonMissingImage {
		t.Errorf("expected original reason kept, got %q", it.Reason)
	}

	if _, err := q.Add(ctx, Item{}); err == nil {
		t.Error("expected error for item without question id")
	}
}

func TestMarkReviewed(t *testing.T) {
	ctx := context.Background()
	q := newTestQueue(t)

	for _, id := range []string{"q1", "q2", "q3"} {
		if err := q.Flag(ctx, ItemFromQuestion(testQuestion(id), ReasonMissingImage, "", "")); err != nil {
			t.Fatalf("Flag: %v", err)
		}
	}

	if err := q.MarkReviewed(ctx, "q2", "3", "checked against key"); err != nil {
		t.Fatalf("MarkReviewed: %v", err)
	}

	it, err := q.Get(ctx, "q2")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !it.Reviewed || it.CorrectedAnswer != "C" || it.ReviewerNotes != "checked against key" {
		t.Errorf("unexpected reviewed item: %+v", it)
	}

	pending, err := q.Pending(ctx)
	if err != nil {
		t.Fatalf("Pending: %v", err)
	}
	if len(pending) != 2 || pending[0].QuestionID != "q1" || pending[1].QuestionID != "q3" {
		t.Errorf("unexpected pending items: %+v", pending)
	}

	reviewed, err := q.Reviewed(ctx)
	if err != nil {
		t.Fatalf("Reviewed: %v", err)
	}
	if len(reviewed) != 1 {
		t.Errorf("expected 1 reviewed item, got %d", len(reviewed))
	}

	if err := q.MarkReviewed(ctx, "nope", "", ""); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := q.MarkReviewed(ctx, "q1", "E", ""); err == nil {
		t.Error("expected error for invalid corrected answer")
	}
}

func TestStats(t *testing.T) {
	ctx := context.Background()
	q := newTestQueue(t)

	items := []Item{
		ItemFromQuestion(testQuestion("a"), ReasonMissingImage, "", ""),
		ItemFromQuestion(testQuestion("b"), ReasonMissingImage, "", ""),
		ItemFromQuestion(testQuestion("c"), ValidationReason([]string{"Question too short", "2 empty options"}), "", ""),
	}
	for _, it := range items {
		if _, err := q.Add(ctx, it); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}
	if err := q.MarkReviewed(ctx, "a", "", ""); err != nil {
		t.Fatalf("MarkReviewed: %v", err)
	}

	stats, err := q.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Total != 3 || stats.Pending != 2 || stats.Reviewed != 1 {
		t.Errorf("unexpected counts: %+v", stats)
	}
	if stats.ByReason[ReasonMissingImage] != 2 || stats.ByReason["validation: Question too short"] != 1 {
		t.Errorf("unexpected reasons: %v", stats.ByReason)
	}
}

func TestExportMarkdown(t *testing.T) {
	ctx := context.Background()
	q := newTestQueue(t)

	noAnswer := testQuestion("x1")
	noAnswer.CorrectAnswer = ""
	if _, err := q.Add(ctx, ItemFromQuestion(noAnswer, ReasonMissingImage, strings.Repeat("r", 600), "")); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if _, err := q.Add(ctx, ItemFromQuestion(testQuestion("x2"), ReasonMissingImage, "", "")); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := q.MarkReviewed(ctx, "x2", "", ""); err != nil {
		t.Fatalf("MarkReviewed: %v", err)
	}

	var buf bytes.Buffer
	n, err := q.ExportMarkdown(ctx, &buf, time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("ExportMarkdown: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 exported item, got %d", n)
	}

	out := buf.String()
	for _, want := range []string{
		"Generated: 2024-03-01T09:00:00Z",
		"Total pending: 1",
		"## [1] x1",
		"**Source:** derm.pdf, Page 4",
		"- D: Seborrheic keratosis",
		"**Current Answer:** None",
		"```\n" + strings.Repeat("r", 500) + "\n```",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected export to contain %q", want)
		}
	}
	if strings.Contains(out, "x2") {
		t.Error("reviewed items must not be exported")
	}
}
