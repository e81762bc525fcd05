package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/a3tai/mcq-extractor/internal/pdf"
)

const (
	// EnvPrefix prefixes every environment variable, e.g. MCQ_DATA_ROOT
	EnvPrefix = "MCQ"

	// Default values
	DefaultDataRoot            = "data"
	DefaultInputSubdir         = "raw_pdfs"
	DefaultBankFile            = "questions.json"
	DefaultReviewDB            = "review_queue.db"
	DefaultSamplePages         = 5
	DefaultMaxImages           = 1
	DefaultDedupPolicy         = "union"
	DefaultSimilarityThreshold = 0.8
	DefaultWorkers             = 1
	DefaultLogLevel            = "info"
	DefaultLogFormat           = "text"
	DefaultMaxFileSize         = 100 * 1024 * 1024 // 100MB

	// Directory permissions
	DefaultDirPerm = 0o750
)

// Flag and viper keys
const (
	KeyDataRoot            = "data-root"
	KeyInputDir            = "input-dir"
	KeyBankFile            = "bank-file"
	KeyReviewDB            = "review-db"
	KeySamplePages         = "sample-pages"
	KeyImages              = "images"
	KeySaveImages          = "save-images"
	KeyMaxImages           = "max-images"
	KeyMinImageWidth       = "min-image-width"
	KeyMinImageHeight      = "min-image-height"
	KeyMinImageArea        = "min-image-area"
	KeyWatermarkTolerance  = "watermark-tolerance"
	KeyMinAspect           = "min-aspect"
	KeyMaxAspect           = "max-aspect"
	KeyDedupPolicy         = "dedup-policy"
	KeySimilarityThreshold = "similarity-threshold"
	KeySubjectRules        = "subject-rules"
	KeyWorkers             = "workers"
	KeyMaxFileSize         = "max-file-size"
	KeyLogLevel            = "log-level"
	KeyLogFormat           = "log-format"
)

// Config holds every tunable of the extractor
type Config struct {
	// Paths
	DataRoot string
	InputDir string
	BankFile string // relative to DataRoot unless absolute
	ReviewDB string // relative to DataRoot unless absolute

	// Detection
	SamplePages int

	// Images
	ExtractImages      bool
	SaveImages         bool // false inlines linked images as data URIs
	MaxImages          int
	MinImageWidth      int
	MinImageHeight     int
	MinImageArea       int
	WatermarkTolerance int
	MinAspect          float64
	MaxAspect          float64

	// Cleaning
	DedupPolicy         string
	SimilarityThreshold float64
	SubjectRules        string // optional JSON rule file

	// Application configuration
	Workers     int
	MaxFileSize int64 // Maximum PDF file size in bytes
	LogLevel    string
	LogFormat   string
	Version     string
	ServerName  string
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	filter := pdf.DefaultFilterOptions()
	return &Config{
		DataRoot:            DefaultDataRoot,
		BankFile:            DefaultBankFile,
		ReviewDB:            DefaultReviewDB,
		SamplePages:         DefaultSamplePages,
		ExtractImages:       true,
		SaveImages:          true,
		MaxImages:           DefaultMaxImages,
		MinImageWidth:       filter.MinWidth,
		MinImageHeight:      filter.MinHeight,
		MinImageArea:        filter.MinArea,
		WatermarkTolerance:  filter.WatermarkTolerance,
		MinAspect:           filter.MinAspect,
		MaxAspect:           filter.MaxAspect,
		DedupPolicy:         DefaultDedupPolicy,
		SimilarityThreshold: DefaultSimilarityThreshold,
		Workers:             DefaultWorkers,
		MaxFileSize:         DefaultMaxFileSize,
		LogLevel:            DefaultLogLevel,
		LogFormat:           DefaultLogFormat,
		Version:             "1.0.0",
		ServerName:          "mcq-extractor",
	}
}

// DefineFlags registers every configuration flag on flags
func DefineFlags(flags *pflag.FlagSet) {
	cfg := DefaultConfig()
	flags.String(KeyDataRoot, cfg.DataRoot, "Data root holding the bank, images and review queue")
	flags.String(KeyInputDir, "", "Directory containing source PDFs (default <data-root>/raw_pdfs)")
	flags.String(KeyBankFile, cfg.BankFile, "Question bank file, relative to the data root")
	flags.String(KeyReviewDB, cfg.ReviewDB, "Review queue database, relative to the data root")
	flags.Int(KeySamplePages, cfg.SamplePages, "Leading pages scored by format detection")
	flags.Bool(KeyImages, cfg.ExtractImages, "Extract and link images")
	flags.Bool(KeySaveImages, cfg.SaveImages, "Save linked images to disk instead of inlining them")
	flags.Int(KeyMaxImages, cfg.MaxImages, "Images stored per question")
	flags.Int(KeyMinImageWidth, cfg.MinImageWidth, "Minimum image width in pixels")
	flags.Int(KeyMinImageHeight, cfg.MinImageHeight, "Minimum image height in pixels")
	flags.Int(KeyMinImageArea, cfg.MinImageArea, "Minimum image area in pixels")
	flags.Int(KeyWatermarkTolerance, cfg.WatermarkTolerance, "Pixel tolerance when matching watermark sizes")
	flags.Float64(KeyMinAspect, cfg.MinAspect, "Minimum width/height ratio")
	flags.Float64(KeyMaxAspect, cfg.MaxAspect, "Maximum width/height ratio")
	flags.String(KeyDedupPolicy, cfg.DedupPolicy, "Duplicate policy: 'union' (any signature) or 'strict' (full stem)")
	flags.Float64(KeySimilarityThreshold, cfg.SimilarityThreshold, "Jaccard threshold for similar questions")
	flags.String(KeySubjectRules, "", "JSON file with subject keyword rules")
	flags.Int(KeyWorkers, cfg.Workers, "PDFs processed in parallel")
	flags.Int64(KeyMaxFileSize, cfg.MaxFileSize, "Maximum PDF file size in bytes")
	flags.String(KeyLogLevel, cfg.LogLevel, "Log level (debug, info, warn, error)")
	flags.String(KeyLogFormat, cfg.LogFormat, "Log format (text, json)")
}

// Load builds the configuration from defaults, an optional config file,
// MCQ_* environment variables and flags, in increasing precedence.
func Load(flags *pflag.FlagSet, configFile string) (*Config, error) {
	cfg := DefaultConfig()
	v := viper.New()

	setupViperEnvironment(v, cfg)

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("bind flags: %w", err)
		}
	}

	populateConfigFromViper(v, cfg)
	cfg.expandPaths()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setupViperEnvironment configures viper with environment variables and defaults
func setupViperEnvironment(v *viper.Viper, cfg *Config) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault(KeyDataRoot, cfg.DataRoot)
	v.SetDefault(KeyInputDir, cfg.InputDir)
	v.SetDefault(KeyBankFile, cfg.BankFile)
	v.SetDefault(KeyReviewDB, cfg.ReviewDB)
	v.SetDefault(KeySamplePages, cfg.SamplePages)
	v.SetDefault(KeyImages, cfg.ExtractImages)
	v.SetDefault(KeySaveImages, cfg.SaveImages)
	v.SetDefault(KeyMaxImages, cfg.MaxImages)
	v.SetDefault(KeyMinImageWidth, cfg.MinImageWidth)
	v.SetDefault(KeyMinImageHeight, cfg.MinImageHeight)
	v.SetDefault(KeyMinImageArea, cfg.MinImageArea)
	v.SetDefault(KeyWatermarkTolerance, cfg.WatermarkTolerance)
	v.SetDefault(KeyMinAspect, cfg.MinAspect)
	v.SetDefault(KeyMaxAspect, cfg.MaxAspect)
	v.SetDefault(KeyDedupPolicy, cfg.DedupPolicy)
	v.SetDefault(KeySimilarityThreshold, cfg.SimilarityThreshold)
	v.SetDefault(KeySubjectRules, cfg.SubjectRules)
	v.SetDefault(KeyWorkers, cfg.Workers)
	v.SetDefault(KeyMaxFileSize, cfg.MaxFileSize)
	v.SetDefault(KeyLogLevel, cfg.LogLevel)
	v.SetDefault(KeyLogFormat, cfg.LogFormat)
}

// populateConfigFromViper fills the config struct with values from viper
func populateConfigFromViper(v *viper.Viper, cfg *Config) {
	cfg.DataRoot = v.GetString(KeyDataRoot)
	cfg.InputDir = v.GetString(KeyInputDir)
	cfg.BankFile = v.GetString(KeyBankFile)
	cfg.ReviewDB = v.GetString(KeyReviewDB)
	cfg.SamplePages = v.GetInt(KeySamplePages)
	cfg.ExtractImages = v.GetBool(KeyImages)
	cfg.SaveImages = v.GetBool(KeySaveImages)
	cfg.MaxImages = v.GetInt(KeyMaxImages)
	cfg.MinImageWidth = v.GetInt(KeyMinImageWidth)
	cfg.MinImageHeight = v.GetInt(KeyMinImageHeight)
	cfg.MinImageArea = v.GetInt(KeyMinImageArea)
	cfg.WatermarkTolerance = v.GetInt(KeyWatermarkTolerance)
	cfg.MinAspect = v.GetFloat64(KeyMinAspect)
	cfg.MaxAspect = v.GetFloat64(KeyMaxAspect)
	cfg.DedupPolicy = strings.ToLower(v.GetString(KeyDedupPolicy))
	cfg.SimilarityThreshold = v.GetFloat64(KeySimilarityThreshold)
	cfg.SubjectRules = v.GetString(KeySubjectRules)
	cfg.Workers = v.GetInt(KeyWorkers)
	cfg.MaxFileSize = v.GetInt64(KeyMaxFileSize)
	cfg.LogLevel = strings.ToLower(v.GetString(KeyLogLevel))
	cfg.LogFormat = strings.ToLower(v.GetString(KeyLogFormat))
}

// expandPaths makes the data root absolute and derives the input directory
func (c *Config) expandPaths() {
	if c.DataRoot != "" {
		if abs, err := filepath.Abs(c.DataRoot); err == nil {
			c.DataRoot = abs
		}
	}
	if c.InputDir == "" && c.DataRoot != "" {
		c.InputDir = filepath.Join(c.DataRoot, DefaultInputSubdir)
	}
	if c.InputDir != "" {
		if abs, err := filepath.Abs(c.InputDir); err == nil {
			c.InputDir = abs
		}
	}
}

// Validate checks ranges and creates the data directories
func (c *Config) Validate() error {
	if c.DataRoot == "" {
		return errors.New("data root cannot be empty")
	}
	if c.InputDir == "" {
		return errors.New("input directory cannot be empty")
	}

	if c.SamplePages < 1 {
		return errors.New("sample pages must be at least 1")
	}
	if c.MaxImages < 1 {
		return errors.New("max images must be at least 1")
	}
	if c.MinImageWidth < 0 || c.MinImageHeight < 0 || c.MinImageArea < 0 || c.WatermarkTolerance < 0 {
		return errors.New("image thresholds cannot be negative")
	}
	if c.MinAspect <= 0 || c.MaxAspect < c.MinAspect {
		return fmt.Errorf("invalid aspect range [%g, %g]", c.MinAspect, c.MaxAspect)
	}

	if c.DedupPolicy != "union" && c.DedupPolicy != "strict" {
		return fmt.Errorf("invalid dedup policy: %s (must be 'union' or 'strict')", c.DedupPolicy)
	}
	if c.SimilarityThreshold <= 0 || c.SimilarityThreshold > 1 {
		return errors.New("similarity threshold must be in (0, 1]")
	}

	if c.Workers < 1 {
		return errors.New("workers must be at least 1")
	}
	if c.MaxFileSize <= 0 {
		return errors.New("maximum file size must be positive")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", c.LogLevel)
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("invalid log format: %s (must be 'text' or 'json')", c.LogFormat)
	}

	for _, dir := range []string{c.DataRoot, c.InputDir} {
		if err := ensureDir(dir); err != nil {
			return err
		}
	}

	return nil
}

// ensureDir creates dir if it does not exist
func ensureDir(dir string) error {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, DefaultDirPerm); err != nil {
			return fmt.Errorf("cannot create directory %s: %w", dir, err)
		}
	} else if err != nil {
		return fmt.Errorf("cannot access directory %s: %w", dir, err)
	}
	return nil
}

// BankPath returns the absolute path of the question bank
func (c *Config) BankPath() string {
	return c.underRoot(c.BankFile)
}

// ReviewDBPath returns the absolute path of the review queue database
func (c *Config) ReviewDBPath() string {
	return c.underRoot(c.ReviewDB)
}

func (c *Config) underRoot(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.DataRoot, name)
}

// FilterOptions returns the image filter thresholds
func (c *Config) FilterOptions() pdf.FilterOptions {
	opts := pdf.DefaultFilterOptions()
	opts.MinWidth = c.MinImageWidth
	opts.MinHeight = c.MinImageHeight
	opts.MinArea = c.MinImageArea
	opts.WatermarkTolerance = c.WatermarkTolerance
	opts.MinAspect = c.MinAspect
	opts.MaxAspect = c.MaxAspect
	return opts
}

// IsDebug returns true if debug logging is enabled
func (c *Config) IsDebug() bool {
	return c.LogLevel == "debug"
}

// String returns a string representation of the configuration
func (c *Config) String() string {
	return fmt.Sprintf("Config{DataRoot: %s, InputDir: %s, BankFile: %s, ReviewDB: %s, SamplePages: %d, "+
		"ExtractImages: %t, SaveImages: %t, MaxImages: %d, DedupPolicy: %s, Workers: %d, LogLevel: %s, MaxFileSize: %d}",
		c.DataRoot, c.InputDir, c.BankFile, c.ReviewDB, c.SamplePages,
		c.ExtractImages, c.SaveImages, c.MaxImages, c.DedupPolicy, c.Workers, c.LogLevel, c.MaxFileSize)
}
