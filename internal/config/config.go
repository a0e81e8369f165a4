// Package config resolves labctl settings from layered sources.
//
// Resolution happens exactly once per invocation and produces an immutable
// Settings value that is threaded into the services. Precedence, highest
// first: project .lab/settings.yaml, user ~/.lab/settings.yaml, LAB_*
// environment variables, hardcoded defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Defaults applied when no other source provides a value.
const (
	DefaultWorktreeDir = "/tmp/labs"
	DefaultImage       = "claude"
	DefaultBasePort    = 8080
)

// Environment variable fallbacks.
const (
	EnvWorktreeDir = "LAB_WORKTREE_DIR"
	EnvImage       = "LAB_DOCKER_IMAGE"
	EnvBasePort    = "LAB_BASE_PORT"
)

// Settings is the resolved, immutable configuration for one invocation.
type Settings struct {
	// WorktreeDir is the base directory under which lab worktrees are created.
	WorktreeDir string

	// DockerImage is the default sandbox image for lab sessions.
	DockerImage string

	// BasePort is the floor for port allocation.
	BasePort int

	// AdditionalMounts are extra bind mounts in "source:target[:mode]" form.
	AdditionalMounts []string

	// Environment variables injected into every lab session.
	Environment map[string]string

	// DesktopNotifications enables delivery through the platform notifier
	// in addition to the notification log.
	DesktopNotifications bool

	// ProjectSettingsUsed and GlobalSettingsUsed record which settings files
	// contributed, for display only.
	ProjectSettingsUsed bool
	GlobalSettingsUsed  bool
}

// fileSettings is the YAML shape of a settings file. Pointer fields
// distinguish "absent" from zero values during layering.
type fileSettings struct {
	WorktreeDir      *string           `yaml:"worktree_dir"`
	DockerImage      *string           `yaml:"docker_image"`
	BasePort         *int              `yaml:"base_port"`
	AdditionalMounts []string          `yaml:"additional_mounts"`
	Environment      map[string]string `yaml:"environment"`
	Notifications    *struct {
		Desktop *bool `yaml:"desktop"`
	} `yaml:"notifications"`
}

// Resolve builds Settings for the current process: project settings from the
// working directory, user settings from the home directory.
func Resolve() (*Settings, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}
	return ResolveFrom(cwd, home, os.Getenv)
}

// ResolveFrom is the testable resolution core: projectDir and homeDir anchor
// the two settings files, getenv supplies environment fallbacks.
func ResolveFrom(projectDir, homeDir string, getenv func(string) string) (*Settings, error) {
	s := &Settings{
		WorktreeDir: DefaultWorktreeDir,
		DockerImage: DefaultImage,
		BasePort:    DefaultBasePort,
		Environment: map[string]string{},
	}

	// Environment layer.
	if v := getenv(EnvWorktreeDir); v != "" {
		s.WorktreeDir = v
	}
	if v := getenv(EnvImage); v != "" {
		s.DockerImage = v
	}
	if v := getenv(EnvBasePort); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid %s value %q: %w", EnvBasePort, v, err)
		}
		s.BasePort = port
	}

	// File layers, global first so project overrides.
	global, err := loadFile(filepath.Join(homeDir, ".lab", "settings.yaml"))
	if err != nil {
		return nil, err
	}
	project, err := loadFile(filepath.Join(projectDir, ".lab", "settings.yaml"))
	if err != nil {
		return nil, err
	}

	if global != nil {
		s.GlobalSettingsUsed = true
		s.apply(global)
	}
	if project != nil {
		s.ProjectSettingsUsed = true
		s.apply(project)
	}

	return s, nil
}

func (s *Settings) apply(f *fileSettings) {
	if f.WorktreeDir != nil {
		s.WorktreeDir = *f.WorktreeDir
	}
	if f.DockerImage != nil {
		s.DockerImage = *f.DockerImage
	}
	if f.BasePort != nil {
		s.BasePort = *f.BasePort
	}
	if f.AdditionalMounts != nil {
		s.AdditionalMounts = f.AdditionalMounts
	}
	for k, v := range f.Environment {
		s.Environment[k] = v
	}
	if f.Notifications != nil && f.Notifications.Desktop != nil {
		s.DesktopNotifications = *f.Notifications.Desktop
	}
}

// loadFile parses one settings file. A missing file yields (nil, nil);
// malformed YAML is a surfaced error, not a silently skipped layer.
func loadFile(path string) (*fileSettings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read settings %s: %w", path, err)
	}

	var f fileSettings
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse settings %s: %w", path, err)
	}
	return &f, nil
}
