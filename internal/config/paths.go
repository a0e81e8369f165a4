package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// LabDir returns ~/.lab, the directory holding user-level state: settings,
// the registry, notification logs, and the proxy config.
func LabDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".lab"), nil
}

// RegistryPath returns the location of the registry document.
func RegistryPath() (string, error) {
	dir, err := LabDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "registry.json"), nil
}

// NotificationsPath returns the location of the append-only notification log.
func NotificationsPath() (string, error) {
	dir, err := LabDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "notifications.jsonl"), nil
}

// ResponsesPath returns the location of the append-only reply log.
func ResponsesPath() (string, error) {
	dir, err := LabDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "responses.jsonl"), nil
}

// ProxyConfigPath returns the location of the generated proxy base config.
func ProxyConfigPath() (string, error) {
	dir, err := LabDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "caddy-config.json"), nil
}
