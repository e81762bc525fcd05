package main

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/a3tai/mcq-extractor/internal/detect"
	"github.com/a3tai/mcq-extractor/internal/pdf"
	pdferrors "github.com/a3tai/mcq-extractor/internal/pdf/errors"
	"github.com/a3tai/mcq-extractor/internal/pipeline"
)

func detectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "detect [path]",
		Short: "Report the question format of each PDF",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runDetect,
	}
}

func runDetect(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}

	paths, err := a.findPDFs(args)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(paths) == 0 {
		fmt.Fprintln(out, "No PDF files found")
		return nil
	}

	d := detect.New(a.reader(), a.cfg.SamplePages, a.logger)
	return detect.WriteReport(out, d.DetectAll(cmd.Context(), paths))
}

func processCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "process [path]",
		Short: "Extract, clean and save questions from PDFs",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runProcess,
	}
	f := cmd.Flags()
	f.Bool("append", false, "Add to the existing bank instead of replacing it")
	f.Bool("no-images", false, "Skip image extraction and linking")
	return cmd
}

func runProcess(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	if noImages, _ := cmd.Flags().GetBool("no-images"); noImages {
		a.cfg.ExtractImages = false
	}
	appendBank, _ := cmd.Flags().GetBool("append")

	paths, err := a.findPDFs(args)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(paths) == 0 {
		fmt.Fprintln(out, "No PDF files found")
		return nil
	}

	queue, err := a.openReviewQueue()
	if err != nil {
		return err
	}
	defer queue.Close()

	opts, err := pipeline.OptionsFromConfig(a.cfg, a.extractor(), a.reader(), queue, a.logger)
	if err != nil {
		return err
	}
	p, err := pipeline.New(opts)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Processing %d PDF(s)\n", len(paths))
	res, err := p.Run(cmd.Context(), paths)
	if err != nil {
		return err
	}
	printRunResult(out, res)

	if appendBank {
		added, err := a.bank.Append(a.cfg.BankFile, res.Questions)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "\nAppended %d new question(s) to %s\n", added, a.bank.Path(a.cfg.BankFile))
		return nil
	}

	if err := a.bank.Save(a.cfg.BankFile, res.Questions); err != nil {
		return err
	}
	fmt.Fprintf(out, "\nSaved %d question(s) to %s\n", len(res.Questions), a.bank.Path(a.cfg.BankFile))
	return nil
}

func printRunResult(w io.Writer, res *pipeline.Result) {
	for i := range res.Files {
		f := &res.Files[i]
		fmt.Fprintf(w, "  %s: %s", filepath.Base(f.Path), f.Status())
		if f.Err == nil {
			fmt.Fprintf(w, " [%s, %s]", f.Format, f.Duration.Round(time.Millisecond))
		}
		fmt.Fprintln(w)
	}

	s := res.Stats
	fmt.Fprintf(w, "\nPARSER STATISTICS\n")
	fmt.Fprintf(w, "  PDFs processed:      %d\n", s.TotalPDFs)
	fmt.Fprintf(w, "  Pages:               %d\n", s.TotalPages)
	fmt.Fprintf(w, "  Questions:           %d\n", s.TotalQuestions)
	fmt.Fprintf(w, "  Valid:               %d\n", s.ValidQuestions)
	fmt.Fprintf(w, "  Invalid:             %d\n", s.InvalidQuestions)
	fmt.Fprintf(w, "  Image references:    %d\n", s.QuestionsWithImageRefs)
	fmt.Fprintf(w, "  Images linked:       %d\n", s.QuestionsWithImagesLinked)
	fmt.Fprintf(w, "  Images extracted:    %d\n", s.ImagesExtracted)
	fmt.Fprintf(w, "  Parsing errors:      %d\n", s.ParsingErrors)
	for _, kind := range sortedKeys(s.FormatsDetected) {
		fmt.Fprintf(w, "  Format %-12s  %d file(s)\n", kind+":", s.FormatsDetected[kind])
	}

	c := res.CleanStats
	fmt.Fprintf(w, "\nCLEANING\n")
	fmt.Fprintf(w, "  Input:               %d\n", c.TotalInput)
	fmt.Fprintf(w, "  Duplicates removed:  %d (%s)\n", c.DuplicatesRemoved, c.DuplicateRate())
	fmt.Fprintf(w, "  Invalid removed:     %d\n", c.InvalidRemoved)
	fmt.Fprintf(w, "  Enhanced:            %d\n", c.Enhanced)
	fmt.Fprintf(w, "  Final:               %d (%s retained)\n", c.FinalOutput, c.RetentionRate())

	if img := res.ImageStats; img.TotalExtracted > 0 {
		printImageStats(w, img)
	}

	if res.Errors != nil {
		printErrors(w, res.Errors)
	}
}

func printImageStats(w io.Writer, img pdf.ImageStats) {
	fmt.Fprintf(w, "\nIMAGES\n")
	fmt.Fprintf(w, "  Extracted:           %d\n", img.TotalExtracted)
	fmt.Fprintf(w, "  Too small:           %d\n", img.FilteredSmall)
	fmt.Fprintf(w, "  Watermarks:          %d\n", img.FilteredWatermark)
	fmt.Fprintf(w, "  Bad aspect:          %d\n", img.FilteredAspect)
	fmt.Fprintf(w, "  Duplicates:          %d\n", img.FilteredDuplicate)
	fmt.Fprintf(w, "  Valid:               %d\n", img.ValidImages)
}

func printErrors(w io.Writer, c *pdferrors.Collector) {
	errs, warns := c.Count()
	if errs+warns == 0 {
		return
	}
	fmt.Fprintf(w, "\n%s\n", c.Summary())
	counts := c.CountByType()
	for _, typ := range sortedKeys(counts) {
		fmt.Fprintf(w, "  %s: %d\n", typ, counts[typ])
	}
	for _, e := range c.Errors() {
		fmt.Fprintf(w, "  error: %s\n", e)
	}
	for _, e := range c.Warnings() {
		fmt.Fprintf(w, "  warning: %s\n", e)
	}
}

func diagnoseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "diagnose <pdf>",
		Short: "Show what the extractor sees in one PDF",
		Args:  cobra.ExactArgs(1),
		RunE:  runDiagnose,
	}
}

func runDiagnose(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	path := args[0]
	out := cmd.OutOrStdout()

	if v := pdf.NewValidator(a.cfg.MaxFileSize).ValidateFile(path); !v.Valid {
		fmt.Fprintf(out, "Invalid PDF: %s\n", v.Message)
		return fmt.Errorf("cannot diagnose %s", path)
	}

	report, err := a.extractor().Inspect(cmd.Context(), path)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "File:         %s\n", report.Path)
	fmt.Fprintf(out, "Size:         %d bytes\n", report.Size)
	fmt.Fprintf(out, "Pages:        %d\n", report.Pages)
	fmt.Fprintf(out, "Text length:  %d\n", report.TextLength)
	fmt.Fprintf(out, "Content type: %s\n", report.ContentType)
	fmt.Fprintf(out, "Raw images:   %d\n", len(report.RawImages))
	for _, img := range report.RawImages {
		fmt.Fprintf(out, "  page %d %s: %dx%d %s\n", img.PageNumber, img.Name, img.Width, img.Height, img.Format)
	}

	sig := detect.New(a.reader(), a.cfg.SamplePages, a.logger).Detect(cmd.Context(), path)
	fmt.Fprintf(out, "\nFormat: %s\n", sig)
	for i, sample := range sig.SampleMatches {
		if i >= 3 {
			break
		}
		fmt.Fprintf(out, "  sample: %s\n", sample)
	}

	return diagnoseImages(cmd.Context(), out, a, path)
}

// diagnoseImages runs extraction with a fresh filter so the report shows
// how many images survive and why the rest were dropped.
func diagnoseImages(ctx context.Context, w io.Writer, a *app, path string) error {
	filter := pdf.NewImageFilter(a.cfg.FilterOptions())
	collector := pdferrors.NewCollector()

	doc, err := a.extractor().Extract(ctx, path, filter, collector)
	if err != nil {
		return err
	}

	printImageStats(w, filter.Stats())
	for _, page := range doc.Pages {
		for _, img := range page.Images {
			fmt.Fprintf(w, "  kept %s: %dx%d %s at y=%.0f\n", img.ID, img.Width, img.Height, img.Format, img.YPosition)
		}
	}
	printErrors(w, collector)
	return nil
}
