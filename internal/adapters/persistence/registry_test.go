package persistence

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/example/labctl/internal/ports/secondary"
)

func testRegistry(t *testing.T) *FileRegistry {
	t.Helper()
	return NewFileRegistry(filepath.Join(t.TempDir(), "registry.json"))
}

func demoRecord(name string, httpPort int) *secondary.LabRecord {
	return &secondary.LabRecord{
		Name:      name,
		HTTPPort:  httpPort,
		APIPort:   httpPort + 1000,
		Directory: "/tmp/labs/" + name,
		Branch:    "main",
		CreatedAt: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestLoadMissingDocument(t *testing.T) {
	reg := testRegistry(t)

	records, err := reg.Load()
	if err != nil {
		t.Fatalf("Load() on missing document error = %v", err)
	}
	if len(records) != 0 {
		t.Errorf("Load() on missing document = %v, want empty map", records)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	reg := testRegistry(t)

	want := map[string]*secondary.LabRecord{
		"demo":  demoRecord("demo", 8081),
		"other": demoRecord("other", 8082),
	}
	if err := reg.Save(want); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := reg.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Load() returned %d records, want 2", len(got))
	}
	rec := got["demo"]
	if rec.Name != "demo" || rec.HTTPPort != 8081 || rec.APIPort != 9081 || rec.Branch != "main" {
		t.Errorf("round-tripped record = %+v", rec)
	}
	if !rec.CreatedAt.Equal(want["demo"].CreatedAt) {
		t.Errorf("CreatedAt = %v, want %v", rec.CreatedAt, want["demo"].CreatedAt)
	}
}

func TestSaveWireFormat(t *testing.T) {
	reg := testRegistry(t)
	if err := reg.Save(map[string]*secondary.LabRecord{"demo": demoRecord("demo", 8081)}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	data, err := os.ReadFile(reg.path)
	if err != nil {
		t.Fatalf("failed to read registry file: %v", err)
	}
	doc := string(data)

	// Field names are the stable on-disk format.
	for _, field := range []string{`"port": 8081`, `"api_port": 9081`, `"dir": "/tmp/labs/demo"`, `"branch": "main"`, `"created"`} {
		if !strings.Contains(doc, field) {
			t.Errorf("registry document missing %s:\n%s", field, doc)
		}
	}
	// Name is the map key, not a record field.
	if strings.Contains(doc, `"name"`) {
		t.Errorf("registry document serializes name inside record:\n%s", doc)
	}
}

func TestLoadMalformedDocument(t *testing.T) {
	reg := testRegistry(t)
	if err := os.WriteFile(reg.path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := reg.Load(); err == nil {
		t.Error("Load() on malformed document: expected error, got nil")
	}
}

func TestSaveRejectsDuplicatePorts(t *testing.T) {
	reg := testRegistry(t)

	records := map[string]*secondary.LabRecord{
		"a": demoRecord("a", 8081),
		"b": demoRecord("b", 8081),
	}
	if err := reg.Save(records); err == nil {
		t.Error("Save() with duplicate ports: expected error, got nil")
	}
	if _, err := os.Stat(reg.path); !os.IsNotExist(err) {
		t.Error("Save() with duplicate ports wrote a document")
	}
}

func TestSaveLeavesNoTempFiles(t *testing.T) {
	reg := testRegistry(t)
	if err := reg.Save(map[string]*secondary.LabRecord{"demo": demoRecord("demo", 8081)}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	entries, err := os.ReadDir(filepath.Dir(reg.path))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != "registry.json" {
		names := make([]string, len(entries))
		for i, e := range entries {
			names[i] = e.Name()
		}
		t.Errorf("registry directory contains %v, want only registry.json", names)
	}
}

func TestMutate(t *testing.T) {
	reg := testRegistry(t)

	err := reg.Mutate(func(records map[string]*secondary.LabRecord) error {
		records["demo"] = demoRecord("demo", 8081)
		return nil
	})
	if err != nil {
		t.Fatalf("Mutate() error = %v", err)
	}

	records, err := reg.Load()
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := records["demo"]; !ok {
		t.Error("Mutate() result not persisted")
	}

	// Lock must have been released.
	if _, err := os.Stat(reg.path + ".lock"); !os.IsNotExist(err) {
		t.Error("Mutate() left the lock file behind")
	}
}

func TestMutateAbortsWithoutSaving(t *testing.T) {
	reg := testRegistry(t)
	if err := reg.Save(map[string]*secondary.LabRecord{"keep": demoRecord("keep", 8081)}); err != nil {
		t.Fatal(err)
	}

	mutateErr := reg.Mutate(func(records map[string]*secondary.LabRecord) error {
		delete(records, "keep")
		return os.ErrInvalid
	})
	if mutateErr == nil {
		t.Fatal("Mutate() expected error, got nil")
	}

	records, err := reg.Load()
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := records["keep"]; !ok {
		t.Error("aborted Mutate() still removed the record")
	}
}

func TestMutateBlockedByLiveLock(t *testing.T) {
	reg := testRegistry(t)
	lockPath := reg.path + ".lock"
	if err := os.MkdirAll(filepath.Dir(lockPath), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(lockPath, []byte("99999\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	done := make(chan error, 1)
	go func() {
		done <- reg.Mutate(func(map[string]*secondary.LabRecord) error { return nil })
	}()

	// Held lock stalls the mutation; releasing it lets it proceed.
	select {
	case err := <-done:
		t.Fatalf("Mutate() returned %v while lock was held", err)
	case <-time.After(200 * time.Millisecond):
	}

	os.Remove(lockPath)
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Mutate() after lock release error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Mutate() did not proceed after lock release")
	}
}

func TestMutateTakesOverStaleLock(t *testing.T) {
	reg := testRegistry(t)
	lockPath := reg.path + ".lock"
	if err := os.MkdirAll(filepath.Dir(lockPath), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(lockPath, []byte("1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	old := time.Now().Add(-time.Minute)
	if err := os.Chtimes(lockPath, old, old); err != nil {
		t.Fatal(err)
	}

	err := reg.Mutate(func(records map[string]*secondary.LabRecord) error {
		records["demo"] = demoRecord("demo", 8081)
		return nil
	})
	if err != nil {
		t.Fatalf("Mutate() with stale lock error = %v", err)
	}
}
