package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/a3tai/mcq-extractor/internal/bank"
	"github.com/a3tai/mcq-extractor/internal/config"
	"github.com/a3tai/mcq-extractor/internal/question"
	"github.com/a3tai/mcq-extractor/internal/review"
)

const (
	testVersion = "1.2.3"
	devVersion  = "dev"
)

// run executes the CLI with args and returns what it wrote to stdout
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := rootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetIn(strings.NewReader(""))
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func testQuestion(stem string) question.Question {
	q := question.Question{
		ID:            question.ContentID(stem),
		QuestionText:  stem,
		OptionA:       "Axillary nerve",
		OptionB:       "Radial nerve",
		OptionC:       "Ulnar nerve",
		OptionD:       "Median nerve",
		CorrectAnswer: "A",
		Subject:       "Anatomy",
		SourceFile:    "anatomy.pdf",
		PageNumber:    3,
		Images:        []string{},
	}
	q.Validate()
	return q
}

func TestPrintVersion(t *testing.T) {
	oldVersion := version
	oldBuildTime := buildTime
	oldGitCommit := gitCommit

	version = testVersion
	buildTime = "2023-12-01_10:30:00"
	gitCommit = "abc123"

	defer func() {
		version = oldVersion
		buildTime = oldBuildTime
		gitCommit = oldGitCommit
	}()

	var buf bytes.Buffer
	printVersion(&buf)
	output := buf.String()

	expectedStrings := []string{
		"MCQ Extractor",
		"Version: " + testVersion,
		"Build Time: 2023-12-01_10:30:00",
		"Git Commit: abc123",
		"Built with:",
	}

	for _, expected := range expectedStrings {
		if !strings.Contains(output, expected) {
			t.Errorf("printVersion() output missing expected string: %s\nActual output:\n%s", expected, output)
		}
	}
}

func TestVersionCommand(t *testing.T) {
	if version != devVersion {
		t.Skipf("version overridden by build flags: %s", version)
	}

	out, err := run(t, "version")
	if err != nil {
		t.Fatalf("version command failed: %v", err)
	}
	if !strings.Contains(out, "Version: "+devVersion) {
		t.Errorf("expected dev version, got: %s", out)
	}
}

func TestSetupLogging(t *testing.T) {
	defer slog.SetDefault(slog.Default())

	tests := []struct {
		name      string
		level     string
		format    string
		wantDebug bool
		wantJSON  bool
	}{
		{name: "info text", level: "info", format: "text", wantDebug: false, wantJSON: false},
		{name: "debug json", level: "debug", format: "json", wantDebug: true, wantJSON: true},
		{name: "error text", level: "error", format: "text", wantDebug: false, wantJSON: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.DefaultConfig()
			cfg.LogLevel = tt.level
			cfg.LogFormat = tt.format

			var buf bytes.Buffer
			logger := setupLogging(cfg, &buf)

			if got := logger.Enabled(context.Background(), slog.LevelDebug); got != tt.wantDebug {
				t.Errorf("debug enabled = %v, want %v", got, tt.wantDebug)
			}

			logger.Error("extraction failed", "file", "a.pdf")
			isJSON := strings.HasPrefix(buf.String(), "{")
			if isJSON != tt.wantJSON {
				t.Errorf("JSON output = %v, want %v: %s", isJSON, tt.wantJSON, buf.String())
			}
			if !strings.Contains(buf.String(), "a.pdf") {
				t.Errorf("expected log attributes in output: %s", buf.String())
			}
		})
	}
}

func TestStatsEmptyBank(t *testing.T) {
	dir := t.TempDir()

	out, err := run(t, "stats", "--data-root", dir)
	if err != nil {
		t.Fatalf("stats failed: %v", err)
	}
	if !strings.Contains(out, "Total:               0") {
		t.Errorf("expected empty bank statistics, got: %s", out)
	}
}

func TestBankCommands(t *testing.T) {
	dir := t.TempDir()

	linked := testQuestion("Identify the nerve shown in the image of the axilla")
	linked.Images = []string{filepath.Join(dir, "processed", "images", "anatomy_p3_i0.png")}
	linked.HasImageReference = true

	missing := testQuestion("Identify the artery shown in the figure of the neck")
	missing.HasImageReference = true
	missing.UpdateReviewFlag()

	plain := testQuestion("Which nerve supplies the deltoid muscle of the shoulder")
	similar := testQuestion("Which nerve supplies the deltoid muscle of the arm")
	similar.Subject = ""

	store := bank.NewStore(dir, nil)
	if err := store.Save("", []question.Question{linked, missing, plain, similar}); err != nil {
		t.Fatalf("failed to save bank: %v", err)
	}

	out, err := run(t, "stats", "--data-root", dir)
	if err != nil {
		t.Fatalf("stats failed: %v", err)
	}
	for _, want := range []string{"Total:               4", "With images:         1", "Needing review:      1", "Anatomy"} {
		if !strings.Contains(out, want) {
			t.Errorf("stats output missing %q:\n%s", want, out)
		}
	}

	out, err = run(t, "view", "--data-root", dir, "--show-linked", "--show-missing")
	if err != nil {
		t.Fatalf("view failed: %v", err)
	}
	for _, want := range []string{
		"Questions with linked images:   1",
		"Questions with missing images:  1",
		"anatomy_p3_i0.png",
		missing.ID,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("view output missing %q:\n%s", want, out)
		}
	}

	out, err = run(t, "similar", "--data-root", dir, "--threshold", "0.7")
	if err != nil {
		t.Fatalf("similar failed: %v", err)
	}
	if !strings.Contains(out, "Found 1 similar pair(s) at threshold 0.70") {
		t.Errorf("expected one similar pair, got: %s", out)
	}

	out, err = run(t, "export", "--data-root", dir, "--format", "xlsx")
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}
	if !strings.Contains(out, "Exported 4 item(s)") {
		t.Errorf("expected export confirmation, got: %s", out)
	}
	if info, err := os.Stat(filepath.Join(dir, "questions.xlsx")); err != nil || info.Size() == 0 {
		t.Errorf("expected non-empty questions.xlsx: %v", err)
	}
}

func TestReviewCommands(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	cfg := config.DefaultConfig()
	cfg.DataRoot = dir
	queue, err := review.Open(cfg.ReviewDBPath())
	if err != nil {
		t.Fatalf("failed to open review queue: %v", err)
	}
	q := testQuestion("Identify the artery shown in the figure of the neck")
	if err := queue.Flag(ctx, review.ItemFromQuestion(q, review.ReasonMissingImage, "raw block", "run-1")); err != nil {
		t.Fatalf("failed to queue item: %v", err)
	}
	queue.Close()

	out, err := run(t, "review", "list", "--data-root", dir)
	if err != nil {
		t.Fatalf("review list failed: %v", err)
	}
	if !strings.Contains(out, "1 pending, 0 reviewed") || !strings.Contains(out, q.ID) {
		t.Errorf("expected pending item, got: %s", out)
	}

	out, err = run(t, "export", "--data-root", dir, "--format", "review-md", "-o", "-")
	if err != nil {
		t.Fatalf("export review-md failed: %v", err)
	}
	if !strings.Contains(out, "# Questions Needing Review") || !strings.Contains(out, "Total pending: 1") {
		t.Errorf("expected markdown export, got: %s", out)
	}

	if _, err := run(t, "review", "mark", "ffffffffffff", "--data-root", dir); err == nil {
		t.Error("expected error marking an unknown question")
	}

	out, err = run(t, "review", "mark", q.ID, "--answer", "3", "--notes", "checked", "--data-root", dir)
	if err != nil {
		t.Fatalf("review mark failed: %v", err)
	}
	if !strings.Contains(out, "Marked "+q.ID) {
		t.Errorf("expected mark confirmation, got: %s", out)
	}

	out, err = run(t, "review", "list", "--all", "--data-root", dir)
	if err != nil {
		t.Fatalf("review list --all failed: %v", err)
	}
	if !strings.Contains(out, "reviewed, answer C") {
		t.Errorf("expected reviewed item with corrected answer, got: %s", out)
	}
}

func TestDetectEmptyInput(t *testing.T) {
	dir := t.TempDir()

	out, err := run(t, "detect", "--data-root", dir)
	if err != nil {
		t.Fatalf("detect failed: %v", err)
	}
	if !strings.Contains(out, "No PDF files found") {
		t.Errorf("expected no files message, got: %s", out)
	}
}

func TestProcessRecordsBrokenPDF(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "raw_pdfs")
	if err := os.MkdirAll(input, 0o750); err != nil {
		t.Fatalf("failed to create input dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(input, "broken.pdf"), []byte("this is not a pdf"), 0o644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}

	out, err := run(t, "process", "--data-root", dir, "--no-images")
	if err != nil {
		t.Fatalf("process failed: %v", err)
	}
	for _, want := range []string{"Processing 1 PDF(s)", "broken.pdf: error:", "Parsing errors:      1", "Saved 0 question(s)"} {
		if !strings.Contains(out, want) {
			t.Errorf("process output missing %q:\n%s", want, out)
		}
	}

	if _, err := os.Stat(filepath.Join(dir, bank.DefaultFile)); err != nil {
		t.Errorf("expected bank file to be written: %v", err)
	}
}

func TestCommandErrors(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name string
		args []string
	}{
		{name: "unknown export format", args: []string{"export", "--data-root", dir, "--format", "csv"}},
		{name: "diagnose without file", args: []string{"diagnose", "--data-root", dir}},
		{name: "diagnose missing file", args: []string{"diagnose", filepath.Join(dir, "missing.pdf"), "--data-root", dir}},
		{name: "invalid dedup policy", args: []string{"stats", "--data-root", dir, "--dedup-policy", "fuzzy"}},
		{name: "similar threshold out of range", args: []string{"similar", "--data-root", dir, "--threshold", "2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := run(t, tt.args...); err == nil {
				t.Errorf("expected error for %v", tt.args)
			}
		})
	}
}
