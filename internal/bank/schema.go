package bank

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

var questionSchema = map[string]any{
	"type":     "object",
	"required": []string{"id", "question_text", "option_a", "option_b", "option_c", "option_d", "images"},
	"properties": map[string]any{
		"id":              map[string]any{"type": "string", "pattern": "^[0-9a-f]{12}$"},
		"question_text":   map[string]any{"type": "string"},
		"option_a":        map[string]any{"type": "string"},
		"option_b":        map[string]any{"type": "string"},
		"option_c":        map[string]any{"type": "string"},
		"option_d":        map[string]any{"type": "string"},
		"correct_answer":  map[string]any{"type": "string", "enum": []string{"", "A", "B", "C", "D"}},
		"explanation":     map[string]any{"type": "string"},
		"source_file":     map[string]any{"type": "string"},
		"page_number":     map[string]any{"type": "integer", "minimum": 0},
		"question_number": map[string]any{"type": "string"},
		"images": map[string]any{
			"type":  "array",
			"items": map[string]any{"type": "string"},
		},
		"subject":               map[string]any{"type": "string"},
		"year":                  map[string]any{"type": "string", "pattern": "^([0-9]{4})?$"},
		"is_valid":              map[string]any{"type": "boolean"},
		"validation_errors":     map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		"has_image_reference":   map[string]any{"type": "boolean"},
		"image_pattern_matched": map[string]any{"type": "string"},
		"needs_review":          map[string]any{"type": "boolean"},
	},
}

var bankSchema = map[string]any{
	"type":     "object",
	"required": []string{"version", "questions"},
	"properties": map[string]any{
		"version":     map[string]any{"type": "string"},
		"created_at":  map[string]any{"type": "string"},
		"total_count": map[string]any{"type": "integer", "minimum": 0},
		"with_images": map[string]any{"type": "integer", "minimum": 0},
		"questions": map[string]any{
			"type":  "array",
			"items": questionSchema,
		},
	},
}

var (
	compileOnce sync.Once
	compiled    *jsonschema.Schema
	compileErr  error
)

func schema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		b, err := json.Marshal(bankSchema)
		if err != nil {
			compileErr = fmt.Errorf("marshal schema: %w", err)
			return
		}
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("bank.json", bytes.NewReader(b)); err != nil {
			compileErr = fmt.Errorf("add schema: %w", err)
			return
		}
		compiled, compileErr = compiler.Compile("bank.json")
	})
	return compiled, compileErr
}

// Validate checks a serialized bank against the question record schema
func Validate(data []byte) error {
	s, err := schema()
	if err != nil {
		return err
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal bank: %w", err)
	}
	if err := s.Validate(v); err != nil {
		return fmt.Errorf("bank does not match schema: %w", err)
	}
	return nil
}
