package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/mcq-extractor/internal/assemble"
	"github.com/a3tai/mcq-extractor/internal/clean"
	"github.com/a3tai/mcq-extractor/internal/config"
)

func TestOptionsFromConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.DataRoot = t.TempDir()
	cfg.DedupPolicy = "strict"
	cfg.Workers = 3

	opts, err := OptionsFromConfig(cfg, &fakeSource{}, nil, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, clean.PolicyStrict, opts.Clean.Policy)
	assert.Equal(t, 3, opts.Workers)
	assert.True(t, opts.ExtractImages)
	assert.IsType(t, &assemble.DiskStore{}, opts.ImageStore)
	assert.Nil(t, opts.Review)

	cfg.SaveImages = false
	opts, err = OptionsFromConfig(cfg, &fakeSource{}, nil, nil, nil)
	require.NoError(t, err)
	assert.IsType(t, assemble.InlineStore{}, opts.ImageStore)
}

func TestOptionsFromConfigSubjectRules(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.DataRoot = t.TempDir()

	rules := filepath.Join(cfg.DataRoot, "rules.json")
	content := `{"version":"1","rules":[{"subject":"Forensic Medicine","keywords":["rigor mortis"],"enabled":true}]}`
	require.NoError(t, os.WriteFile(rules, []byte(content), 0o600))
	cfg.SubjectRules = rules

	opts, err := OptionsFromConfig(cfg, &fakeSource{}, nil, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "Forensic Medicine", opts.Clean.Classifier.Subject("Onset of rigor mortis is first seen in which region"))

	cfg.SubjectRules = filepath.Join(cfg.DataRoot, "missing.json")
	_, err = OptionsFromConfig(cfg, &fakeSource{}, nil, nil, nil)
	assert.Error(t, err)

	cfg.SubjectRules = ""
	cfg.DedupPolicy = "fuzzy"
	_, err = OptionsFromConfig(cfg, &fakeSource{}, nil, nil, nil)
	assert.Error(t, err)
}
