package main

import (
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/a3tai/mcq-extractor/internal/bank"
	"github.com/a3tai/mcq-extractor/internal/clean"
	"github.com/a3tai/mcq-extractor/internal/question"
)

const (
	formatXLSX     = "xlsx"
	formatReviewMD = "review-md"
)

func statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show question bank statistics",
		Args:  cobra.NoArgs,
		RunE:  runStats,
	}
}

func runStats(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	qs, err := a.bank.LoadQuestions(a.cfg.BankFile)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	s := bank.ComputeStats(qs)
	fmt.Fprintf(out, "QUESTION BANK: %s\n", a.bank.Path(a.cfg.BankFile))
	fmt.Fprintf(out, "  Total:               %d\n", s.Total)
	fmt.Fprintf(out, "  With answers:        %d (%.1f%%)\n", s.WithAnswers, s.AnswerCoverage)
	fmt.Fprintf(out, "  With explanations:   %d\n", s.WithExplanations)
	fmt.Fprintf(out, "  With images:         %d\n", s.WithImages)
	fmt.Fprintf(out, "  Needing review:      %d\n", s.NeedsReview)

	if dist := clean.SubjectDistribution(qs); len(dist) > 0 {
		fmt.Fprintf(out, "\nSUBJECTS\n")
		for _, sc := range dist {
			fmt.Fprintf(out, "  %-20s %d\n", sc.Subject, sc.Count)
		}
	}
	return nil
}

func viewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "view",
		Short: "List questions with linked or missing images",
		Args:  cobra.NoArgs,
		RunE:  runView,
	}
	f := cmd.Flags()
	f.Bool("show-linked", false, "List questions with linked images")
	f.Bool("show-missing", false, "List questions that reference an image but have none")
	f.Int("limit", 20, "Maximum questions to list per section (0 = all)")
	return cmd
}

func runView(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	qs, err := a.bank.LoadQuestions(a.cfg.BankFile)
	if err != nil {
		return err
	}

	showLinked, _ := cmd.Flags().GetBool("show-linked")
	showMissing, _ := cmd.Flags().GetBool("show-missing")
	limit, _ := cmd.Flags().GetInt("limit")

	linked := bank.WithLinkedImages(qs)
	missing := bank.NeedingImages(qs)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Questions with linked images:   %d\n", len(linked))
	fmt.Fprintf(out, "Questions with missing images:  %d\n", len(missing))

	if showLinked {
		fmt.Fprintf(out, "\nLINKED\n")
		printQuestions(out, linked, limit, true)
	}
	if showMissing {
		fmt.Fprintf(out, "\nMISSING\n")
		printQuestions(out, missing, limit, false)
	}
	return nil
}

func printQuestions(w io.Writer, qs []question.Question, limit int, withImages bool) {
	for i, q := range qs {
		if limit > 0 && i >= limit {
			fmt.Fprintf(w, "  ... and %d more\n", len(qs)-limit)
			return
		}
		fmt.Fprintf(w, "  [%s] %s p.%d: %s\n", q.ID, q.SourceFile, q.PageNumber, question.Truncate(q.QuestionText, 80))
		if withImages {
			for _, img := range q.Images {
				fmt.Fprintf(w, "      %s\n", imageLabel(img))
			}
		}
	}
}

func imageLabel(ref string) string {
	if strings.HasPrefix(ref, "data:") {
		return "inline image"
	}
	return ref
}

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the question bank or the review queue",
		Args:  cobra.NoArgs,
		RunE:  runExport,
	}
	f := cmd.Flags()
	f.String("format", formatXLSX, "Export format (xlsx, review-md)")
	f.StringP("output", "o", "", "Output file path (- for stdout, default under the data root)")
	return cmd
}

func runExport(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	format, _ := cmd.Flags().GetString("format")
	output, _ := cmd.Flags().GetString("output")

	var defaultName string
	switch format {
	case formatXLSX:
		defaultName = "questions.xlsx"
	case formatReviewMD:
		defaultName = "review_queue.md"
	default:
		return fmt.Errorf("unknown export format: %s (must be %s or %s)", format, formatXLSX, formatReviewMD)
	}
	if output == "" {
		output = filepath.Join(a.cfg.DataRoot, defaultName)
	}

	w := cmd.OutOrStdout()
	if output != "-" {
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("create export file: %w", err)
		}
		defer f.Close()
		w = f
	}

	var n int
	switch format {
	case formatXLSX:
		qs, err := a.bank.LoadQuestions(a.cfg.BankFile)
		if err != nil {
			return err
		}
		if err := bank.ExportXLSX(w, qs); err != nil {
			return err
		}
		n = len(qs)
	case formatReviewMD:
		queue, err := a.openReviewQueue()
		if err != nil {
			return err
		}
		defer queue.Close()
		if n, err = queue.ExportMarkdown(cmd.Context(), w, time.Now()); err != nil {
			return err
		}
	}

	if output != "-" {
		fmt.Fprintf(cmd.OutOrStdout(), "Exported %d item(s) to %s\n", n, output)
	}
	return nil
}

func similarCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "similar",
		Short: "Find near-duplicate questions in the bank",
		Args:  cobra.NoArgs,
		RunE:  runSimilar,
	}
	f := cmd.Flags()
	f.Float64("threshold", 0, "Minimum Jaccard similarity (default from --similarity-threshold)")
	f.Int("limit", 20, "Maximum pairs to list (0 = all)")
	return cmd
}

func runSimilar(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	threshold, _ := cmd.Flags().GetFloat64("threshold")
	if threshold == 0 {
		threshold = a.cfg.SimilarityThreshold
	}
	if threshold < 0 || threshold > 1 {
		return fmt.Errorf("threshold must be in (0, 1], got %g", threshold)
	}
	limit, _ := cmd.Flags().GetInt("limit")

	qs, err := a.bank.LoadQuestions(a.cfg.BankFile)
	if err != nil {
		return err
	}

	pairs := clean.NewSimilarityAnalyzer(threshold).FindSimilar(qs)
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Found %d similar pair(s) at threshold %.2f\n", len(pairs), threshold)
	for i, pair := range pairs {
		if limit > 0 && i >= limit {
			fmt.Fprintf(out, "  ... and %d more\n", len(pairs)-limit)
			break
		}
		fmt.Fprintf(out, "\n  %.0f%% similar\n", pair.Similarity*100)
		fmt.Fprintf(out, "    [%s] %s\n", pair.First.ID, question.Truncate(pair.First.QuestionText, 100))
		fmt.Fprintf(out, "    [%s] %s\n", pair.Second.ID, question.Truncate(pair.Second.QuestionText, 100))
	}
	return nil
}

func sortedKeys(m map[string]int) []string {
	return slices.Sorted(maps.Keys(m))
}
