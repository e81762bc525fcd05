// Package review keeps the queue of questions that need a human decision,
// such as a figure reference with no linked image or a failed validation.
package review

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/a3tai/mcq-extractor/internal/question"
)

// Reasons used by the extraction pipeline.
const (
	ReasonMissingImage     = "missing_image"
	ReasonValidationPrefix = "validation: "
)

// ErrNotFound is returned when no queued item has the given question ID.
var ErrNotFound = errors.New("review item not found")

// Item is one question waiting for, or having had, manual review.
type Item struct {
	QuestionID      string            `json:"question_id"`
	QuestionText    string            `json:"question_text"`
	Options         map[string]string `json:"options"`
	CurrentAnswer   string            `json:"current_answer,omitempty"`
	SourceFile      string            `json:"source_file"`
	PageNumber      int               `json:"page_number"`
	Reason          string            `json:"reason"`
	RawBlock        string            `json:"raw_block"`
	CreatedAt       time.Time         `json:"created_at"`
	Reviewed        bool              `json:"reviewed"`
	CorrectedAnswer string            `json:"corrected_answer,omitempty"`
	ReviewerNotes   string            `json:"reviewer_notes"`
	RunID           string            `json:"run_id,omitempty"`
}

// ItemFromQuestion builds a queue item for q.
func ItemFromQuestion(q question.Question, reason, rawBlock, runID string) Item {
	return Item{
		QuestionID:    q.ID,
		QuestionText:  q.QuestionText,
		Options:       q.OptionMap(),
		CurrentAnswer: q.CorrectAnswer,
		SourceFile:    q.SourceFile,
		PageNumber:    q.PageNumber,
		Reason:        reason,
		RawBlock:      rawBlock,
		RunID:         runID,
	}
}

// ValidationReason formats the reason recorded for an invalid question.
func ValidationReason(errs []string) string {
	if len(errs) == 0 {
		return ReasonValidationPrefix + "unknown"
	}
	return ReasonValidationPrefix + errs[0]
}

// Stats summarises the queue.
type Stats struct {
	Total    int            `json:"total"`
	Pending  int            `json:"pending"`
	Reviewed int            `json:"reviewed"`
	ByReason map[string]int `json:"by_reason"`
}

// Queue is the review queue persisted in SQLite.
type Queue struct {
	db *sql.DB
}

// Open opens or creates the queue database at path. Use ":memory:" for a
// throwaway queue.
func Open(path string) (*Queue, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// a second connection to :memory: would see an empty database
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	q := &Queue{db: db}
	if err := q.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return q, nil
}

// Close closes the database
func (q *Queue) Close() error {
	return q.db.Close()
}

func (q *Queue) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS review_items (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		question_id TEXT NOT NULL UNIQUE,
		question_text TEXT NOT NULL,
		options TEXT NOT NULL DEFAULT '{}',
		current_answer TEXT NOT NULL DEFAULT '',
		source_file TEXT NOT NULL DEFAULT '',
		page_number INTEGER NOT NULL DEFAULT 0,
		reason TEXT NOT NULL,
		raw_block TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL,
		reviewed INTEGER NOT NULL DEFAULT 0,
		corrected_answer TEXT NOT NULL DEFAULT '',
		reviewer_notes TEXT NOT NULL DEFAULT '',
		run_id TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_review_items_reviewed ON review_items(reviewed);
	`
	_, err := q.db.Exec(schema)
	return err
}

// Add queues item. An item whose question ID is already queued is ignored
// and Add reports false.
func (q *Queue) Add(ctx context.Context, item Item) (bool, error) {
	if item.QuestionID == "" {
		return false, errors.New("review item without question id")
	}
	options, err := json.Marshal(item.Options)
	if err != nil {
		return false, fmt.Errorf("encode options: %w", err)
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now()
	}

	res, err := q.db.ExecContext(ctx,
		`INSERT INTO review_items (question_id, question_text, options, current_answer, source_file,
			page_number, reason, raw_block, created_at, run_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(question_id) DO NOTHING`,
		item.QuestionID, item.QuestionText, string(options), item.CurrentAnswer, item.SourceFile,
		item.PageNumber, item.Reason, item.RawBlock, item.CreatedAt, item.RunID,
	)
	if err != nil {
		return false, fmt.Errorf("insert review item: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Flag queues item and drops the added flag; it lets the queue serve as
// the pipeline's review hook.
func (q *Queue) Flag(ctx context.Context, item Item) error {
	_, err := q.Add(ctx, item)
	return err
}

const selectItems = `SELECT question_id, question_text, options, current_answer, source_file, page_number,
	reason, raw_block, created_at, reviewed, corrected_answer, reviewer_notes, run_id FROM review_items`

// Get returns the item queued for questionID
func (q *Queue) Get(ctx context.Context, questionID string) (Item, error) {
	items, err := q.list(ctx, selectItems+` WHERE question_id = ?`, questionID)
	if err != nil {
		return Item{}, err
	}
	if len(items) == 0 {
		return Item{}, ErrNotFound
	}
	return items[0], nil
}

// All returns every item in insertion order
func (q *Queue) All(ctx context.Context) ([]Item, error) {
	return q.list(ctx, selectItems+` ORDER BY seq`)
}

// Pending returns items not yet reviewed, oldest first
func (q *Queue) Pending(ctx context.Context) ([]Item, error) {
	return q.list(ctx, selectItems+` WHERE reviewed = 0 ORDER BY seq`)
}

// Reviewed returns items already reviewed, oldest first
func (q *Queue) Reviewed(ctx context.Context) ([]Item, error) {
	return q.list(ctx, selectItems+` WHERE reviewed = 1 ORDER BY seq`)
}

func (q *Queue) list(ctx context.Context, query string, args ...any) ([]Item, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var it Item
		var options string
		if err := rows.Scan(&it.QuestionID, &it.QuestionText, &options, &it.CurrentAnswer, &it.SourceFile,
			&it.PageNumber, &it.Reason, &it.RawBlock, &it.CreatedAt, &it.Reviewed, &it.CorrectedAnswer,
			&it.ReviewerNotes, &it.RunID); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(options), &it.Options); err != nil {
			return nil, fmt.Errorf("decode options of %s: %w", it.QuestionID, err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// MarkReviewed records a reviewer decision. correctedAnswer may be empty,
// a letter A-D or an option number 1-4.
func (q *Queue) MarkReviewed(ctx context.Context, questionID, correctedAnswer, notes string) error {
	answer := ""
	if strings.TrimSpace(correctedAnswer) != "" {
		letter, ok := question.NormalizeAnswer(correctedAnswer)
		if !ok {
			return fmt.Errorf("invalid corrected answer %q", correctedAnswer)
		}
		answer = letter
	}

	res, err := q.db.ExecContext(ctx,
		`UPDATE review_items SET reviewed = 1, corrected_answer = ?, reviewer_notes = ? WHERE question_id = ?`,
		answer, notes, questionID,
	)
	if err != nil {
		return fmt.Errorf("update review item: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Stats counts items by review state and by reason
func (q *Queue) Stats(ctx context.Context) (Stats, error) {
	stats := Stats{ByReason: make(map[string]int)}

	rows, err := q.db.QueryContext(ctx,
		`SELECT reason, reviewed, COUNT(*) FROM review_items GROUP BY reason, reviewed`)
	if err != nil {
		return stats, err
	}
	defer rows.Close()

	for rows.Next() {
		var reason string
		var reviewed bool
		var n int
		if err := rows.Scan(&reason, &reviewed, &n); err != nil {
			return stats, err
		}
		stats.Total += n
		stats.ByReason[reason] += n
		if reviewed {
			stats.Reviewed += n
		} else {
			stats.Pending += n
		}
	}
	return stats, rows.Err()
}
