// Package persistence implements the lab registry as a single JSON document
// on disk. Saves are atomic (temp file + rename) and mutations run under an
// exclusive lock file, so two orchestrator invocations cannot interleave a
// read-modify-write and allocate the same port.
package persistence

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/example/labctl/internal/ports/secondary"
)

// FileRegistry is the on-disk registry adapter.
type FileRegistry struct {
	path string
}

var _ secondary.LabRegistry = (*FileRegistry)(nil)

// NewFileRegistry creates a registry adapter backed by the document at path.
func NewFileRegistry(path string) *FileRegistry {
	return &FileRegistry{path: path}
}

// Load reads the registry document. A missing document is an empty registry.
// Malformed data is a surfaced error: state must never be silently dropped.
func (r *FileRegistry) Load() (map[string]*secondary.LabRecord, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]*secondary.LabRecord{}, nil
		}
		return nil, fmt.Errorf("failed to read registry %s: %w", r.path, err)
	}

	records := map[string]*secondary.LabRecord{}
	if len(data) == 0 {
		return records, nil
	}
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("registry %s is malformed: %w", r.path, err)
	}
	for name, rec := range records {
		rec.Name = name
	}
	return records, nil
}

// Save atomically rewrites the registry document: marshal, write a temp file
// in the same directory, rename over the target. A crash mid-save leaves the
// previous document intact. Port uniqueness is validated before anything
// touches the disk.
func (r *FileRegistry) Save(records map[string]*secondary.LabRecord) error {
	if err := validatePorts(records); err != nil {
		return err
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal registry: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create registry directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".registry-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp registry file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write temp registry file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp registry file: %w", err)
	}

	if err := os.Rename(tmpName, r.path); err != nil {
		return fmt.Errorf("failed to commit registry: %w", err)
	}
	return nil
}

// Mutate serializes load-mutate-save against other processes via the lock
// file. fn returning an error aborts without saving.
func (r *FileRegistry) Mutate(fn func(records map[string]*secondary.LabRecord) error) error {
	unlock, err := r.acquireLock()
	if err != nil {
		return err
	}
	defer unlock()

	records, err := r.Load()
	if err != nil {
		return err
	}
	if err := fn(records); err != nil {
		return err
	}
	return r.Save(records)
}

func validatePorts(records map[string]*secondary.LabRecord) error {
	seen := map[int]string{}
	for name, rec := range records {
		for _, port := range []int{rec.HTTPPort, rec.APIPort} {
			if other, dup := seen[port]; dup {
				return fmt.Errorf("registry invariant violation: port %d used by both %q and %q", port, other, name)
			}
			seen[port] = name
		}
	}
	return nil
}
