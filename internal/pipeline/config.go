package pipeline

import (
	"fmt"
	"log/slog"

	"github.com/a3tai/mcq-extractor/internal/assemble"
	"github.com/a3tai/mcq-extractor/internal/clean"
	"github.com/a3tai/mcq-extractor/internal/config"
	"github.com/a3tai/mcq-extractor/internal/detect"
	"github.com/a3tai/mcq-extractor/internal/intelligence"
)

// OptionsFromConfig maps the configuration onto pipeline options. Linked
// images are written under the data root when SaveImages is set and
// inlined otherwise. A subject rule file, when configured, is merged into
// the default classifier rules.
func OptionsFromConfig(cfg *config.Config, source DocumentSource, text detect.TextSource, hook ReviewHook, logger *slog.Logger) (Options, error) {
	policy, err := clean.ParsePolicy(cfg.DedupPolicy)
	if err != nil {
		return Options{}, err
	}

	classifier := intelligence.NewSubjectClassifier()
	if cfg.SubjectRules != "" {
		if err := classifier.LoadCustomRules(cfg.SubjectRules); err != nil {
			return Options{}, fmt.Errorf("subject rules: %w", err)
		}
	}

	var store assemble.ImageStore = assemble.InlineStore{}
	if cfg.SaveImages {
		store = assemble.NewDiskStore(cfg.DataRoot)
	}

	return Options{
		Source:        source,
		Text:          text,
		SamplePages:   cfg.SamplePages,
		ExtractImages: cfg.ExtractImages,
		FilterOptions: cfg.FilterOptions(),
		ImageStore:    store,
		MaxImages:     cfg.MaxImages,
		Clean: clean.Options{
			Policy:     policy,
			Classifier: classifier,
		},
		Review:  hook,
		Workers: cfg.Workers,
		Logger:  logger,
	}, nil
}
