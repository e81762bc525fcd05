package intelligence

// SubjectUntagged is reported for questions that match no subject rule.
const SubjectUntagged = "Untagged"

// SubjectRule maps an exam subject to the keywords that suggest it
type SubjectRule struct {
	Subject  string   `json:"subject"`
	Keywords []string `json:"keywords"`

	// Rule metadata
	Description string `json:"description,omitempty"`
	Enabled     bool   `json:"enabled"`
}

// SubjectRuleSet is the on-disk form of a custom rule file
type SubjectRuleSet struct {
	Version string        `json:"version"`
	Rules   []SubjectRule `json:"rules"`
}

// Classification is the outcome of scoring one question's text
type Classification struct {
	// Subject is the best-scoring subject, empty when nothing matched
	Subject string `json:"subject,omitempty"`
	// Score is the number of distinct keywords of Subject found
	Score int `json:"score"`

	// Scores holds every subject with at least one hit
	Scores  map[string]int         `json:"scores,omitempty"`
	Reasons []ClassificationReason `json:"reasons,omitempty"`
}

// ClassificationReason explains a keyword hit
type ClassificationReason struct {
	Subject string `json:"subject"`
	Keyword string `json:"keyword"`
}
