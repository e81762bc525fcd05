// Package intelligence tags questions with an exam subject using keyword
// rules. It is a heuristic: keywords are matched as plain substrings.
package intelligence

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"
)

// SubjectClassifier scores text against subject keyword rules
type SubjectClassifier struct {
	mu      sync.RWMutex
	rules   []SubjectRule
	version string
}

// NewSubjectClassifier creates a classifier with the default rules
func NewSubjectClassifier() *SubjectClassifier {
	return NewSubjectClassifierWithRules(getDefaultRules())
}

// NewSubjectClassifierWithRules creates a classifier with custom rules
func NewSubjectClassifierWithRules(rules []SubjectRule) *SubjectClassifier {
	return &SubjectClassifier{
		rules:   append([]SubjectRule(nil), rules...),
		version: "1.0.0",
	}
}

// Classify scores every enabled rule against text. A rule scores one point
// per distinct keyword found, case-insensitively. The highest score wins;
// ties go to the rule listed first.
func (c *SubjectClassifier) Classify(text string) Classification {
	c.mu.RLock()
	defer c.mu.RUnlock()

	lower := strings.ToLower(text)
	result := Classification{Scores: make(map[string]int)}

	for _, rule := range c.rules {
		if !rule.Enabled {
			continue
		}

		score := 0
		for _, keyword := range rule.Keywords {
			if keyword == "" || !strings.Contains(lower, strings.ToLower(keyword)) {
				continue
			}
			score++
			result.Reasons = append(result.Reasons, ClassificationReason{
				Subject: rule.Subject,
				Keyword: keyword,
			})
		}
		if score == 0 {
			continue
		}

		result.Scores[rule.Subject] += score
		if total := result.Scores[rule.Subject]; total > result.Score {
			result.Subject = rule.Subject
			result.Score = total
		}
	}

	return result
}

// Subject returns the best subject for text, or "" when nothing matched
func (c *SubjectClassifier) Subject(text string) string {
	return c.Classify(text).Subject
}

// Rules returns a copy of the loaded rules in priority order
func (c *SubjectClassifier) Rules() []SubjectRule {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]SubjectRule(nil), c.rules...)
}

// LoadCustomRules reads a JSON rule set. A rule for a subject that already
// exists replaces its keywords in place; new subjects are appended and so
// lose ties to the built-in ones.
func (c *SubjectClassifier) LoadCustomRules(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read custom rules file: %w", err)
	}

	var ruleSet SubjectRuleSet
	if err := json.Unmarshal(data, &ruleSet); err != nil {
		return fmt.Errorf("failed to parse custom rules: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for _, custom := range ruleSet.Rules {
		if custom.Subject == "" {
			return fmt.Errorf("custom rule without subject in %s", path)
		}
		replaced := false
		for i := range c.rules {
			if strings.EqualFold(c.rules[i].Subject, custom.Subject) {
				c.rules[i] = custom
				replaced = true
				break
			}
		}
		if !replaced {
			c.rules = append(c.rules, custom)
		}
	}

	return nil
}

// GetVersion returns the classifier version
func (c *SubjectClassifier) GetVersion() string {
	return c.version
}
