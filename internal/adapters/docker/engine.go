// Package docker drives the container engine for preflight checks and the
// optional proxy container lifecycle.
package docker

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/example/labctl/internal/ports/secondary"
)

// Engine shells out to the docker binary.
type Engine struct{}

var _ secondary.ContainerEngine = (*Engine)(nil)

// NewEngine creates a new docker engine adapter.
func NewEngine() *Engine {
	return &Engine{}
}

// DaemonRunning reports whether the docker daemon answers `docker info`.
func (e *Engine) DaemonRunning(ctx context.Context) bool {
	cmd := exec.CommandContext(ctx, "docker", "info")
	cmd.Stdout = nil
	cmd.Stderr = nil
	return cmd.Run() == nil
}

// ContainerRunning reports whether a container with the given name is up.
func (e *Engine) ContainerRunning(ctx context.Context, name string) (bool, error) {
	return e.containerListed(ctx, name, false)
}

// ContainerExists reports whether a container exists, running or stopped.
func (e *Engine) ContainerExists(ctx context.Context, name string) (bool, error) {
	return e.containerListed(ctx, name, true)
}

func (e *Engine) containerListed(ctx context.Context, name string, all bool) (bool, error) {
	args := []string{"ps"}
	if all {
		args = append(args, "-a")
	}
	args = append(args, "--filter", "name="+name, "--format", "{{.Names}}")

	out, err := e.output(ctx, args...)
	if err != nil {
		return false, err
	}
	for _, line := range strings.Split(out, "\n") {
		if strings.TrimSpace(line) == name {
			return true, nil
		}
	}
	return false, nil
}

// StartContainer starts an existing stopped container.
func (e *Engine) StartContainer(ctx context.Context, name string) error {
	return e.run(ctx, "start", name)
}

// StopContainer stops a running container.
func (e *Engine) StopContainer(ctx context.Context, name string) error {
	return e.run(ctx, "stop", name)
}

// RemoveContainer removes a stopped container.
func (e *Engine) RemoveContainer(ctx context.Context, name string) error {
	return e.run(ctx, "rm", name)
}

// RestartContainer restarts a running container.
func (e *Engine) RestartContainer(ctx context.Context, name string) error {
	return e.run(ctx, "restart", name)
}

// RunDetached creates and starts a container from spec.
func (e *Engine) RunDetached(ctx context.Context, spec secondary.RunSpec) error {
	args := []string{"run", "-d", "--name", spec.Name}
	if spec.RestartPolicy != "" {
		args = append(args, "--restart", spec.RestartPolicy)
	}
	for _, p := range spec.Ports {
		args = append(args, "-p", p)
	}
	for _, v := range spec.Volumes {
		args = append(args, "-v", v)
	}
	args = append(args, spec.Image)
	args = append(args, spec.Command...)
	return e.run(ctx, args...)
}

// Logs streams container logs to standard output.
func (e *Engine) Logs(ctx context.Context, name string, follow bool) error {
	args := []string{"logs"}
	if follow {
		args = append(args, "-f")
	}
	args = append(args, name)

	cmd := exec.CommandContext(ctx, "docker", args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

func (e *Engine) run(ctx context.Context, args ...string) error {
	cmd := exec.CommandContext(ctx, "docker", args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("docker %s: %w: %s", args[0], err, strings.TrimSpace(stderr.String()))
	}
	return nil
}

func (e *Engine) output(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "docker", args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("docker %s: %w: %s", args[0], err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}
