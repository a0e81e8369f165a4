package app

import (
	"context"
	"fmt"
	"os/exec"

	"github.com/example/labctl/internal/ports/primary"
	"github.com/example/labctl/internal/ports/secondary"
)

// requiredTools are the external binaries the orchestrator shells out to.
var requiredTools = []string{"docker", "git", "k3d", "tmux"}

// PreflightImpl implements the Preflight interface.
type PreflightImpl struct {
	engine secondary.ContainerEngine

	// lookPath resolves a binary on PATH, injectable for tests.
	lookPath func(string) (string, error)
}

var _ primary.Preflight = (*PreflightImpl)(nil)

// NewPreflight creates a new Preflight with injected dependencies.
func NewPreflight(engine secondary.ContainerEngine) *PreflightImpl {
	return &PreflightImpl{
		engine:   engine,
		lookPath: exec.LookPath,
	}
}

// Run checks that every required tool is on PATH and that the container
// engine daemon is reachable. It always runs all checks.
func (p *PreflightImpl) Run(ctx context.Context) []primary.CheckResult {
	results := make([]primary.CheckResult, 0, len(requiredTools)+1)

	dockerOnPath := false
	for _, tool := range requiredTools {
		r := primary.CheckResult{Name: tool, OK: true}
		if _, err := p.lookPath(tool); err != nil {
			r.OK = false
			r.Detail = fmt.Sprintf("%s not found on PATH", tool)
		} else if tool == "docker" {
			dockerOnPath = true
		}
		results = append(results, r)
	}

	daemon := primary.CheckResult{Name: "docker daemon", OK: true}
	if !dockerOnPath {
		daemon.OK = false
		daemon.Detail = "docker not installed"
	} else if !p.engine.DaemonRunning(ctx) {
		daemon.OK = false
		daemon.Detail = "docker daemon not reachable; is Docker running?"
	}
	results = append(results, daemon)

	return results
}

// FirstFailure returns the first failed check, or nil when all passed.
func FirstFailure(results []primary.CheckResult) *primary.CheckResult {
	for i := range results {
		if !results[i].OK {
			return &results[i]
		}
	}
	return nil
}
