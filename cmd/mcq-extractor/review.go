package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/a3tai/mcq-extractor/internal/question"
	"github.com/a3tai/mcq-extractor/internal/review"
)

func reviewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "review",
		Short: "Work through questions flagged for manual review",
	}
	cmd.AddCommand(reviewListCmd(), reviewMarkCmd())
	return cmd
}

func reviewListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List pending review items",
		Args:  cobra.NoArgs,
		RunE:  runReviewList,
	}
	cmd.Flags().Bool("all", false, "Include reviewed items")
	return cmd
}

func runReviewList(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	queue, err := a.openReviewQueue()
	if err != nil {
		return err
	}
	defer queue.Close()

	ctx := cmd.Context()
	all, _ := cmd.Flags().GetBool("all")

	var items []review.Item
	if all {
		items, err = queue.All(ctx)
	} else {
		items, err = queue.Pending(ctx)
	}
	if err != nil {
		return err
	}

	stats, err := queue.Stats(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Review queue: %d pending, %d reviewed\n", stats.Pending, stats.Reviewed)
	for _, reason := range sortedKeys(stats.ByReason) {
		fmt.Fprintf(out, "  %s: %d\n", reason, stats.ByReason[reason])
	}

	for _, item := range items {
		status := "pending"
		if item.Reviewed {
			status = "reviewed"
			if item.CorrectedAnswer != "" {
				status += ", answer " + item.CorrectedAnswer
			}
		}
		fmt.Fprintf(out, "\n[%s] %s p.%d (%s)\n", item.QuestionID, item.SourceFile, item.PageNumber, status)
		fmt.Fprintf(out, "  Reason:   %s\n", item.Reason)
		fmt.Fprintf(out, "  Question: %s\n", question.Truncate(item.QuestionText, 120))
		for _, letter := range question.Letters {
			fmt.Fprintf(out, "    %s. %s\n", letter, item.Options[letter])
		}
	}
	return nil
}

func reviewMarkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mark <question-id>",
		Short: "Mark an item as reviewed",
		Args:  cobra.ExactArgs(1),
		RunE:  runReviewMark,
	}
	f := cmd.Flags()
	f.String("answer", "", "Corrected answer (A-D or 1-4)")
	f.String("notes", "", "Reviewer notes")
	return cmd
}

func runReviewMark(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	queue, err := a.openReviewQueue()
	if err != nil {
		return err
	}
	defer queue.Close()

	answer, _ := cmd.Flags().GetString("answer")
	notes, _ := cmd.Flags().GetString("notes")

	if err := queue.MarkReviewed(cmd.Context(), args[0], answer, notes); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Marked %s as reviewed\n", args[0])
	return nil
}
