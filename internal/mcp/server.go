package mcp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"maps"
	"os"
	"slices"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/a3tai/mcq-extractor/internal/bank"
	"github.com/a3tai/mcq-extractor/internal/clean"
	"github.com/a3tai/mcq-extractor/internal/config"
	"github.com/a3tai/mcq-extractor/internal/descriptions"
	"github.com/a3tai/mcq-extractor/internal/detect"
	"github.com/a3tai/mcq-extractor/internal/pdf"
	"github.com/a3tai/mcq-extractor/internal/pipeline"
	"github.com/a3tai/mcq-extractor/internal/question"
	"github.com/a3tai/mcq-extractor/internal/review"
)

const (
	defaultListLimit    = 20
	defaultSimilarLimit = 20
)

// Backend is what the tools operate on. Source, Text and Bank are
// required; without Review the review_queue tool reports that no queue is
// configured and extraction flags nothing.
type Backend struct {
	Source pipeline.DocumentSource
	Text   detect.TextSource
	Bank   *bank.Store
	Review *review.Queue
}

// Server represents the MCP server instance
type Server struct {
	config    *config.Config
	backend   Backend
	detector  *detect.Detector
	search    *pdf.Search
	mcpServer *server.MCPServer
	logger    *slog.Logger
}

// NewServer creates a new MCP server instance
func NewServer(cfg *config.Config, backend Backend, logger *slog.Logger) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}
	if backend.Source == nil || backend.Text == nil {
		return nil, errors.New("document source and text source cannot be nil")
	}
	if backend.Bank == nil {
		return nil, errors.New("bank store cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	mcpServer := server.NewMCPServer(
		cfg.ServerName,
		cfg.Version,
		server.WithToolCapabilities(false),
	)

	s := &Server{
		config:    cfg,
		backend:   backend,
		detector:  detect.New(backend.Text, cfg.SamplePages, logger),
		search:    pdf.NewSearch(cfg.MaxFileSize),
		mcpServer: mcpServer,
		logger:    logger,
	}

	s.registerTools()

	return s, nil
}

// registerTools registers all available MCP tools
func (s *Server) registerTools() {
	detectFormatTool := mcp.NewTool(
		"detect_format",
		mcp.WithDescription(descriptions.GetToolDescription("detect_format")),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("PDF file or directory of PDFs"),
		),
	)
	s.mcpServer.AddTool(detectFormatTool, s.handleDetectFormat)

	extractQuestionsTool := mcp.NewTool(
		"extract_questions",
		mcp.WithDescription(descriptions.GetToolDescription("extract_questions")),
		mcp.WithString("path",
			mcp.Description("PDF file or directory of PDFs (uses the input directory if empty)"),
		),
		mcp.WithBoolean("save",
			mcp.Description("Write the extracted questions to the question bank"),
		),
		mcp.WithBoolean("append",
			mcp.Description("With save, add to the existing bank instead of replacing it"),
		),
	)
	s.mcpServer.AddTool(extractQuestionsTool, s.handleExtractQuestions)

	bankStatsTool := mcp.NewTool(
		"bank_stats",
		mcp.WithDescription(descriptions.GetToolDescription("bank_stats")),
	)
	s.mcpServer.AddTool(bankStatsTool, s.handleBankStats)

	reviewQueueTool := mcp.NewTool(
		"review_queue",
		mcp.WithDescription(descriptions.GetToolDescription("review_queue")),
		mcp.WithString("action",
			mcp.Description("list, stats or mark (default list)"),
			mcp.Enum("list", "stats", "mark"),
		),
		mcp.WithString("question_id",
			mcp.Description("Question to mark as reviewed"),
		),
		mcp.WithString("answer",
			mcp.Description("Corrected answer, A-D or 1-4"),
		),
		mcp.WithString("notes",
			mcp.Description("Reviewer notes"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum pending items to list (default 20)"),
		),
	)
	s.mcpServer.AddTool(reviewQueueTool, s.handleReviewQueue)

	findSimilarTool := mcp.NewTool(
		"find_similar",
		mcp.WithDescription(descriptions.GetToolDescription("find_similar")),
		mcp.WithNumber("threshold",
			mcp.Description("Minimum Jaccard similarity in (0, 1] (uses the configured threshold if empty)"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum pairs to report (default 20)"),
		),
	)
	s.mcpServer.AddTool(findSimilarTool, s.handleFindSimilar)
}

// Handler functions
func (s *Server) handleDetectFormat(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	paths, err := s.findPDFs(path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(paths) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("No PDF files found in: %s", path)), nil
	}

	results := s.detector.DetectAll(ctx, paths)

	var buf bytes.Buffer
	if err := detect.WriteReport(&buf, results); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(buf.String()), nil
}

func (s *Server) handleExtractQuestions(ctx context.Context, request mcp.CallToolRequest) (
	*mcp.CallToolResult, error,
) {
	path := request.GetString("path", s.config.InputDir)
	if path == "" {
		path = s.config.InputDir
	}
	save := request.GetBool("save", false)
	appendBank := request.GetBool("append", false)

	paths, err := s.findPDFs(path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(paths) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("No PDF files found in: %s", path)), nil
	}

	var hook pipeline.ReviewHook
	if s.backend.Review != nil {
		hook = s.backend.Review
	}
	opts, err := pipeline.OptionsFromConfig(s.config, s.backend.Source, s.backend.Text, hook, s.logger)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	p, err := pipeline.New(opts)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	res, err := p.Run(ctx, paths)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	text := formatRunResult(res)

	if save {
		if appendBank {
			added, err := s.backend.Bank.Append(s.config.BankFile, res.Questions)
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			text += fmt.Sprintf("\nAppended %d new question(s) to %s\n", added, s.backend.Bank.Path(s.config.BankFile))
		} else {
			if err := s.backend.Bank.Save(s.config.BankFile, res.Questions); err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			text += fmt.Sprintf("\nSaved %d question(s) to %s\n", len(res.Questions), s.backend.Bank.Path(s.config.BankFile))
		}
	}

	return mcp.NewToolResultText(text), nil
}

func (s *Server) handleBankStats(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	qs, err := s.backend.Bank.LoadQuestions(s.config.BankFile)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(qs) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("Question bank is empty: %s", s.backend.Bank.Path(s.config.BankFile))), nil
	}

	return mcp.NewToolResultText(formatBankStats(bank.ComputeStats(qs), clean.SubjectDistribution(qs))), nil
}

func (s *Server) handleReviewQueue(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.backend.Review == nil {
		return mcp.NewToolResultError("review queue is not configured"), nil
	}

	switch action := request.GetString("action", "list"); action {
	case "list":
		items, err := s.backend.Review.Pending(ctx)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(formatPendingItems(items, request.GetInt("limit", defaultListLimit))), nil

	case "stats":
		stats, err := s.backend.Review.Stats(ctx)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(formatReviewStats(stats)), nil

	case "mark":
		id := request.GetString("question_id", "")
		if id == "" {
			return mcp.NewToolResultError("question_id is required to mark an item"), nil
		}
		answer := request.GetString("answer", "")
		if err := s.backend.Review.MarkReviewed(ctx, id, answer, request.GetString("notes", "")); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		text := fmt.Sprintf("Marked %s as reviewed", id)
		if answer != "" {
			text += fmt.Sprintf(" (answer %s)", answer)
		}
		return mcp.NewToolResultText(text), nil

	default:
		return mcp.NewToolResultError(fmt.Sprintf("unknown action: %s (must be list, stats or mark)", action)), nil
	}
}

func (s *Server) handleFindSimilar(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	threshold := request.GetFloat("threshold", s.config.SimilarityThreshold)
	if threshold <= 0 || threshold > 1 {
		return mcp.NewToolResultError(fmt.Sprintf("threshold must be in (0, 1], got %g", threshold)), nil
	}

	qs, err := s.backend.Bank.LoadQuestions(s.config.BankFile)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	pairs := clean.NewSimilarityAnalyzer(threshold).FindSimilar(qs)
	return mcp.NewToolResultText(formatSimilarPairs(pairs, threshold, request.GetInt("limit", defaultSimilarLimit))), nil
}

// findPDFs resolves a file or directory to sorted PDF paths
func (s *Server) findPDFs(input string) ([]string, error) {
	files, err := s.search.FindPDFs(input)
	if err != nil {
		return nil, err
	}
	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.Path
	}
	return paths, nil
}

// Formatting methods
func formatRunResult(res *pipeline.Result) string {
	text := fmt.Sprintf("Extraction run %s\n", res.RunID)
	text += fmt.Sprintf("PDFs processed: %d (%d failed)\n", res.Stats.TotalPDFs, res.Stats.ParsingErrors)
	text += fmt.Sprintf("Pages: %d\n", res.Stats.TotalPages)
	text += fmt.Sprintf("Questions extracted: %d (%d valid, %d invalid)\n",
		res.Stats.TotalQuestions, res.Stats.ValidQuestions, res.Stats.InvalidQuestions)
	text += fmt.Sprintf("Image references: %d (%d linked)\n",
		res.Stats.QuestionsWithImageRefs, res.Stats.QuestionsWithImagesLinked)
	text += fmt.Sprintf("After cleaning: %d (%d duplicates, %d invalid removed)\n",
		res.CleanStats.FinalOutput, res.CleanStats.DuplicatesRemoved, res.CleanStats.InvalidRemoved)

	text += "\nFiles:\n"
	for i := range res.Files {
		f := &res.Files[i]
		text += fmt.Sprintf("%d. %s: %s", i+1, f.Path, f.Status())
		if f.Err == nil {
			text += fmt.Sprintf(" [%s]", f.Format)
		}
		text += "\n"
	}

	if res.Errors != nil {
		if errs, warns := res.Errors.Count(); errs+warns > 0 {
			text += "\n" + res.Errors.Summary() + "\n"
		}
	}

	return text
}

func formatBankStats(stats bank.Stats, subjects []clean.SubjectCount) string {
	text := "Question Bank Statistics\n"
	text += fmt.Sprintf("Total questions: %d\n", stats.Total)
	text += fmt.Sprintf("With answers: %d (%.1f%%)\n", stats.WithAnswers, stats.AnswerCoverage)
	text += fmt.Sprintf("With explanations: %d\n", stats.WithExplanations)
	text += fmt.Sprintf("With images: %d\n", stats.WithImages)
	text += fmt.Sprintf("Needing review: %d\n", stats.NeedsReview)

	if len(subjects) > 0 {
		text += "\nSubjects:\n"
		for _, sc := range subjects {
			text += fmt.Sprintf("  %s: %d\n", sc.Subject, sc.Count)
		}
	}

	return text
}

func formatPendingItems(items []review.Item, limit int) string {
	if len(items) == 0 {
		return "No questions pending review"
	}

	text := fmt.Sprintf("%d question(s) pending review\n", len(items))
	for i, item := range items {
		if limit > 0 && i >= limit {
			text += fmt.Sprintf("\n... and %d more\n", len(items)-limit)
			break
		}
		text += fmt.Sprintf("\n%d. %s (%s, page %d)\n", i+1, item.QuestionID, item.SourceFile, item.PageNumber)
		text += fmt.Sprintf("   Reason: %s\n", item.Reason)
		text += fmt.Sprintf("   Question: %s\n", question.Truncate(item.QuestionText, 200))
		for _, letter := range question.Letters {
			text += fmt.Sprintf("   %s: %s\n", letter, item.Options[letter])
		}
		if item.CurrentAnswer != "" {
			text += fmt.Sprintf("   Current answer: %s\n", item.CurrentAnswer)
		}
	}

	return text
}

func formatReviewStats(stats review.Stats) string {
	text := "Review Queue Statistics\n"
	text += fmt.Sprintf("Total: %d\n", stats.Total)
	text += fmt.Sprintf("Pending: %d\n", stats.Pending)
	text += fmt.Sprintf("Reviewed: %d\n", stats.Reviewed)

	if len(stats.ByReason) > 0 {
		text += "\nBy reason:\n"
		for _, reason := range sortedKeys(stats.ByReason) {
			text += fmt.Sprintf("  %s: %d\n", reason, stats.ByReason[reason])
		}
	}

	return text
}

func formatSimilarPairs(pairs []clean.SimilarPair, threshold float64, limit int) string {
	if len(pairs) == 0 {
		return fmt.Sprintf("No similar questions found at threshold %.2f", threshold)
	}

	text := fmt.Sprintf("Found %d similar pair(s) at threshold %.2f\n", len(pairs), threshold)
	for i, pair := range pairs {
		if limit > 0 && i >= limit {
			text += fmt.Sprintf("\n... and %d more\n", len(pairs)-limit)
			break
		}
		text += fmt.Sprintf("\n%d. %.0f%% similar\n", i+1, pair.Similarity*100)
		text += fmt.Sprintf("   [%s] %s\n", pair.First.ID, question.Truncate(pair.First.QuestionText, 120))
		text += fmt.Sprintf("   [%s] %s\n", pair.Second.ID, question.Truncate(pair.Second.QuestionText, 120))
	}

	return text
}

func sortedKeys(m map[string]int) []string {
	return slices.Sorted(maps.Keys(m))
}

// Run serves MCP over stdin and stdout until ctx is cancelled or the
// client closes stdin.
func (s *Server) Run(ctx context.Context) error {
	return s.Serve(ctx, os.Stdin, os.Stdout)
}

// Serve serves MCP over the given streams
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	s.logger.Debug("starting MCP server",
		"name", s.config.ServerName,
		"version", s.config.Version,
		"data_root", s.config.DataRoot)

	stdio := server.NewStdioServer(s.mcpServer)
	stdio.SetErrorLogger(log.New(os.Stderr, "", log.LstdFlags))

	if err := stdio.Listen(ctx, in, out); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("failed to serve stdio: %w", err)
	}
	return nil
}
