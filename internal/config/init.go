package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// defaultSettingsYAML is written by `labctl init`. It documents every
// supported key with its default.
const defaultSettingsYAML = `# labctl settings
# Project .lab/settings.yaml overrides ~/.lab/settings.yaml, which overrides
# LAB_* environment variables.

# Directory where lab worktrees are created.
worktree_dir: "/tmp/labs"

# Sandbox image for lab sessions.
docker_image: "claude"

# Starting port for allocation. Each lab gets an HTTP port and an API port
# (HTTP port + 1000).
base_port: 8080

# Additional bind mounts for all labs, "source:target:mode" with mode "ro"
# or "rw" (default rw). Sources that do not exist are skipped.
# Example:
#   - "~/.aws/credentials:/root/.aws/credentials:ro"
additional_mounts: []

# Environment variables injected into every lab session.
# Example:
#   DEBUG: "true"
environment: {}

# Deliver notifications through the platform notifier as well as the log.
notifications:
  desktop: false
`

// WriteDefaultSettings creates dir/.lab/settings.yaml with the documented
// defaults. An existing settings file is never overwritten.
func WriteDefaultSettings(dir string) (string, error) {
	labDir := filepath.Join(dir, ".lab")
	path := filepath.Join(labDir, "settings.yaml")

	if _, err := os.Stat(path); err == nil {
		return path, fmt.Errorf("settings already exist at %s (delete the file to reinitialize)", path)
	}

	if err := os.MkdirAll(labDir, 0o755); err != nil {
		return path, fmt.Errorf("failed to create %s: %w", labDir, err)
	}
	if err := os.WriteFile(path, []byte(defaultSettingsYAML), 0o644); err != nil {
		return path, fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}
