// Package notify implements the notification plumbing: an append-only
// JSON-lines log, a reply log for recorded user responses, and sink
// composition. Notification delivery is strictly best-effort; nothing in the
// lab lifecycle may block or fail because a sink is absent.
package notify

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/example/labctl/internal/ports/secondary"
)

// Levels accepted by the notification log.
const (
	LevelInfo    = "info"
	LevelSuccess = "success"
	LevelWarning = "warning"
	LevelError   = "error"
)

// Entry is one notification log line.
type Entry struct {
	Timestamp time.Time `json:"timestamp"`
	Level     string    `json:"level"`
	Source    string    `json:"source"`
	Message   string    `json:"message"`
}

// Response is one recorded user reply to an interactive notification.
type Response struct {
	Timestamp       time.Time `json:"timestamp"`
	Source          string    `json:"source"`
	OriginalMessage string    `json:"original_message"`
	Reply           string    `json:"reply"`
}

// LogSink appends notifications to a JSON-lines file.
type LogSink struct {
	path string
	now  func() time.Time
}

var _ secondary.NotificationSink = (*LogSink)(nil)

// NewLogSink creates a sink appending to the log at path.
func NewLogSink(path string) *LogSink {
	return &LogSink{path: path, now: time.Now}
}

// Notify appends one entry to the log.
func (s *LogSink) Notify(message, level, source string) error {
	entry := Entry{
		Timestamp: s.now(),
		Level:     level,
		Source:    source,
		Message:   message,
	}
	return appendLine(s.path, entry)
}

// ReadEntries returns the notification log, oldest first. last limits the
// result to the most recent entries when positive.
func ReadEntries(path string, last int) ([]Entry, error) {
	var entries []Entry
	if err := readLines(path, func(line []byte) error {
		var e Entry
		if err := json.Unmarshal(line, &e); err != nil {
			return fmt.Errorf("malformed notification entry: %w", err)
		}
		entries = append(entries, e)
		return nil
	}); err != nil {
		return nil, err
	}
	return tail(entries, last), nil
}

// AppendResponse records a user reply.
func AppendResponse(path string, r Response) error {
	return appendLine(path, r)
}

// ReadResponses returns recorded replies, oldest first, optionally filtered
// by source. last limits the result to the most recent entries when positive.
func ReadResponses(path, source string, last int) ([]Response, error) {
	var responses []Response
	if err := readLines(path, func(line []byte) error {
		var r Response
		if err := json.Unmarshal(line, &r); err != nil {
			return fmt.Errorf("malformed response entry: %w", err)
		}
		if source == "" || r.Source == source {
			responses = append(responses, r)
		}
		return nil
	}); err != nil {
		return nil, err
	}
	return tail(responses, last), nil
}

// ClearResponses removes the reply log.
func ClearResponses(path string) error {
	err := os.Remove(path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to clear responses: %w", err)
	}
	return nil
}

func appendLine(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal log entry: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log %s: %w", path, err)
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to append to log %s: %w", path, err)
	}
	return nil
}

// readLines calls fn for each non-empty line. A missing log is empty, not an
// error.
func readLines(path string, fn func(line []byte) error) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to open log %s: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		if err := fn(line); err != nil {
			return err
		}
	}
	return scanner.Err()
}

func tail[T any](items []T, last int) []T {
	if last > 0 && len(items) > last {
		return items[len(items)-last:]
	}
	return items
}
