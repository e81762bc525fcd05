package review

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/a3tai/mcq-extractor/internal/question"
)

// ExportMarkdown writes the pending items as a Markdown checklist for a
// reviewer and returns how many were written.
func (q *Queue) ExportMarkdown(ctx context.Context, w io.Writer, now time.Time) (int, error) {
	pending, err := q.Pending(ctx)
	if err != nil {
		return 0, err
	}

	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "# Questions Needing Review\n\n")
	fmt.Fprintf(bw, "Generated: %s\n\n", now.Format(time.RFC3339))
	fmt.Fprintf(bw, "Total pending: %d\n\n", len(pending))
	fmt.Fprintf(bw, "%s\n\n", strings.Repeat("=", 60))

	for i, it := range pending {
		fmt.Fprintf(bw, "## [%d] %s\n\n", i+1, it.QuestionID)
		fmt.Fprintf(bw, "**Source:** %s, Page %d\n\n", it.SourceFile, it.PageNumber)
		fmt.Fprintf(bw, "**Reason:** %s\n\n", it.Reason)
		fmt.Fprintf(bw, "**Question:** %s\n\n", it.QuestionText)
		fmt.Fprintf(bw, "**Options:**\n")
		for _, letter := range question.Letters {
			fmt.Fprintf(bw, "- %s: %s\n", letter, it.Options[letter])
		}

		answer := it.CurrentAnswer
		if answer == "" {
			answer = "None"
		}
		fmt.Fprintf(bw, "\n**Current Answer:** %s\n\n", answer)
		fmt.Fprintf(bw, "**Raw Text:**\n```\n%s\n```\n\n---\n\n", question.Truncate(it.RawBlock, question.RawBlockPreview))
	}

	if err := bw.Flush(); err != nil {
		return 0, fmt.Errorf("write review export: %w", err)
	}
	return len(pending), nil
}
