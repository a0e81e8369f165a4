// Package git drives the git worktree machinery for lab checkouts.
package git

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/example/labctl/internal/ports/secondary"
)

// WorktreeAdapter shells out to git for worktree lifecycle operations.
type WorktreeAdapter struct{}

var _ secondary.WorktreeDriver = (*WorktreeAdapter)(nil)

// NewWorktreeAdapter creates a new WorktreeAdapter.
func NewWorktreeAdapter() *WorktreeAdapter {
	return &WorktreeAdapter{}
}

// Add creates a worktree at path checked out to branch.
func (a *WorktreeAdapter) Add(ctx context.Context, path, branch string) error {
	if err := a.run(ctx, "worktree", "add", path, branch); err != nil {
		return fmt.Errorf("failed to create worktree at %s: %w", path, err)
	}
	return nil
}

// Remove detaches the worktree at path, forcefully when requested.
func (a *WorktreeAdapter) Remove(ctx context.Context, path string, force bool) error {
	args := []string{"worktree", "remove"}
	if force {
		args = append(args, "--force")
	}
	args = append(args, path)
	if err := a.run(ctx, args...); err != nil {
		return fmt.Errorf("failed to remove worktree %s: %w", path, err)
	}
	return nil
}

// CurrentBranch returns the branch checked out in the working directory.
func (a *WorktreeAdapter) CurrentBranch(ctx context.Context) (string, error) {
	out, err := a.output(ctx, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", fmt.Errorf("failed to resolve current branch: %w", err)
	}
	return strings.TrimSpace(out), nil
}

func (a *WorktreeAdapter) run(ctx context.Context, args ...string) error {
	cmd := exec.CommandContext(ctx, "git", args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return nil
}

func (a *WorktreeAdapter) output(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("%w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}
