// Package receipts keeps an append-only JSONL log of completed checks.
// Receipts are an audit trail, never read back by the service itself.
package receipts

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Receipt is one logged check outcome.
type Receipt struct {
	ID         string    `json:"id"`
	Time       time.Time `json:"time"`
	Platform   string    `json:"platform"`
	Level      string    `json:"level"`
	IssueCount int       `json:"issue_count"`
	Strict     bool      `json:"strict"`
}

// Log appends receipts to a single file, one JSON object per line. Safe for
// concurrent use.
type Log struct {
	mu   sync.Mutex
	path string
}

// Open returns a Log writing to path. The file is created on first append.
func Open(path string) *Log {
	return &Log{path: path}
}

// Append writes one receipt line and returns its ID.
func (l *Log) Append(platform, level string, issueCount int, strict bool) (string, error) {
	r := Receipt{
		ID:         uuid.NewString(),
		Time:       time.Now().UTC(),
		Platform:   platform,
		Level:      level,
		IssueCount: issueCount,
		Strict:     strict,
	}
	line, err := json.Marshal(r)
	if err != nil {
		return "", fmt.Errorf("marshal receipt: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return "", fmt.Errorf("open receipt log: %w", err)
	}
	defer f.Close()
	if _, err := f.Write(append(line, '\n')); err != nil {
		return "", fmt.Errorf("append receipt: %w", err)
	}
	return r.ID, nil
}
