package notify

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLogSinkAppendAndRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notifications.jsonl")
	sink := NewLogSink(path)
	sink.now = func() time.Time { return time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC) }

	if err := sink.Notify("lab 'demo' created", LevelSuccess, "setup"); err != nil {
		t.Fatalf("Notify() error = %v", err)
	}
	if err := sink.Notify("lab 'demo' torn down", LevelInfo, "teardown"); err != nil {
		t.Fatalf("Notify() error = %v", err)
	}

	entries, err := ReadEntries(path, 0)
	if err != nil {
		t.Fatalf("ReadEntries() error = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("ReadEntries() returned %d entries, want 2", len(entries))
	}
	first := entries[0]
	if first.Message != "lab 'demo' created" || first.Level != LevelSuccess || first.Source != "setup" {
		t.Errorf("first entry = %+v", first)
	}
	if !first.Timestamp.Equal(time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)) {
		t.Errorf("first entry timestamp = %v", first.Timestamp)
	}
}

func TestReadEntriesLast(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notifications.jsonl")
	sink := NewLogSink(path)
	for _, msg := range []string{"one", "two", "three"} {
		if err := sink.Notify(msg, LevelInfo, "test"); err != nil {
			t.Fatal(err)
		}
	}

	entries, err := ReadEntries(path, 2)
	if err != nil {
		t.Fatalf("ReadEntries() error = %v", err)
	}
	if len(entries) != 2 || entries[0].Message != "two" || entries[1].Message != "three" {
		t.Errorf("ReadEntries(last=2) = %+v", entries)
	}
}

func TestReadEntriesMissingLog(t *testing.T) {
	entries, err := ReadEntries(filepath.Join(t.TempDir(), "absent.jsonl"), 0)
	if err != nil {
		t.Fatalf("ReadEntries() on missing log error = %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("ReadEntries() on missing log = %v, want empty", entries)
	}
}

func TestResponses(t *testing.T) {
	path := filepath.Join(t.TempDir(), "responses.jsonl")

	for _, r := range []Response{
		{Timestamp: time.Now(), Source: "demo", OriginalMessage: "deploy?", Reply: "yes"},
		{Timestamp: time.Now(), Source: "other", OriginalMessage: "retry?", Reply: "no"},
	} {
		if err := AppendResponse(path, r); err != nil {
			t.Fatalf("AppendResponse() error = %v", err)
		}
	}

	all, err := ReadResponses(path, "", 0)
	if err != nil {
		t.Fatalf("ReadResponses() error = %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("ReadResponses() = %d responses, want 2", len(all))
	}

	filtered, err := ReadResponses(path, "demo", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(filtered) != 1 || filtered[0].Reply != "yes" {
		t.Errorf("ReadResponses(source=demo) = %+v", filtered)
	}

	if err := ClearResponses(path); err != nil {
		t.Fatalf("ClearResponses() error = %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("ClearResponses() left the log behind")
	}
	// Clearing an absent log is fine.
	if err := ClearResponses(path); err != nil {
		t.Errorf("ClearResponses() on missing log error = %v", err)
	}
}

func TestReadEntriesMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notifications.jsonl")
	if err := os.WriteFile(path, []byte("{broken\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadEntries(path, 0); err == nil {
		t.Error("ReadEntries() on malformed log: expected error, got nil")
	}
}

func TestMultiSink(t *testing.T) {
	var delivered []string
	ok := sinkFunc(func(message, level, source string) error {
		delivered = append(delivered, message)
		return nil
	})
	failing := sinkFunc(func(string, string, string) error {
		return errors.New("sink down")
	})

	err := MultiSink{failing, ok}.Notify("hello", LevelInfo, "test")
	if err == nil || !strings.Contains(err.Error(), "sink down") {
		t.Errorf("MultiSink.Notify() error = %v, want sink failure", err)
	}
	// The failing sink did not stop delivery to the next one.
	if len(delivered) != 1 || delivered[0] != "hello" {
		t.Errorf("delivered = %v, want [hello]", delivered)
	}
}

type sinkFunc func(message, level, source string) error

func (f sinkFunc) Notify(message, level, source string) error {
	return f(message, level, source)
}
