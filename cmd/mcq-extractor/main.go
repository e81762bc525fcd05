package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/a3tai/mcq-extractor/internal/bank"
	"github.com/a3tai/mcq-extractor/internal/config"
	"github.com/a3tai/mcq-extractor/internal/pdf"
	"github.com/a3tai/mcq-extractor/internal/review"
)

var (
	version   = "dev"     // This will be set by build flags
	buildTime = "unknown" // This will be set by build flags
	gitCommit = "unknown" // This will be set by build flags
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "mcq-extractor",
		Short:        "Extract multiple-choice exam questions from PDFs",
		SilenceUsage: true,
	}

	config.DefineFlags(root.PersistentFlags())
	root.PersistentFlags().String("config", "", "Config file (yaml, toml or json)")

	root.AddCommand(
		detectCmd(),
		processCmd(),
		statsCmd(),
		viewCmd(),
		diagnoseCmd(),
		reviewCmd(),
		exportCmd(),
		similarCmd(),
		serveCmd(),
		versionCmd(),
	)

	return root
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			printVersion(cmd.OutOrStdout())
		},
	}
}

// app holds what every command needs once configuration is loaded
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	bank   *bank.Store
}

// newApp loads configuration for cmd, installs the default logger and
// opens the bank store.
func newApp(cmd *cobra.Command) (*app, error) {
	configFile, _ := cmd.Flags().GetString("config")

	cfg, err := config.Load(cmd.Flags(), configFile)
	if err != nil {
		return nil, err
	}
	if version != "dev" {
		cfg.Version = version
	}

	logger := setupLogging(cfg, cmd.ErrOrStderr())
	if cfg.IsDebug() {
		logger.Debug("loaded configuration", "config", cfg.String())
	}

	return &app{
		cfg:    cfg,
		logger: logger,
		bank:   bank.NewStore(cfg.DataRoot, logger),
	}, nil
}

func (a *app) extractor() *pdf.Extractor {
	return pdf.NewExtractor(a.cfg.MaxFileSize, a.logger)
}

func (a *app) reader() *pdf.Reader {
	return pdf.NewReader(a.cfg.MaxFileSize)
}

func (a *app) openReviewQueue() (*review.Queue, error) {
	q, err := review.Open(a.cfg.ReviewDBPath())
	if err != nil {
		return nil, fmt.Errorf("open review queue: %w", err)
	}
	return q, nil
}

// findPDFs resolves the optional path argument, defaulting to the input
// directory, to the PDFs to process.
func (a *app) findPDFs(args []string) ([]string, error) {
	input := a.cfg.InputDir
	if len(args) > 0 {
		input = args[0]
	}

	files, err := pdf.NewSearch(a.cfg.MaxFileSize).FindPDFs(input)
	if err != nil {
		return nil, err
	}
	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.Path
	}
	return paths, nil
}

// setupLogging installs a slog default logger writing to w. Logs never go
// to stdout, which carries command output and the MCP stream.
func setupLogging(cfg *config.Config, w io.Writer) *slog.Logger {
	var level slog.Level
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	switch cfg.LogFormat {
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	default:
		handler = slog.NewTextHandler(w, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// printVersion prints version information
func printVersion(w io.Writer) {
	fmt.Fprintf(w, "MCQ Extractor\n")
	fmt.Fprintf(w, "Version: %s\n", version)
	fmt.Fprintf(w, "Build Time: %s\n", buildTime)
	fmt.Fprintf(w, "Git Commit: %s\n", gitCommit)
	fmt.Fprintf(w, "Built with: %s\n", runtime.Version())
}
