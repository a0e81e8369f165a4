// Package tmux manages lab terminal sessions through gotmux.
package tmux

import (
	"context"
	"fmt"
	"os/exec"

	"github.com/GianlucaP106/gotmux/gotmux"

	"github.com/example/labctl/internal/ports/secondary"
)

// SessionAdapter wraps the gotmux library for lab session lifecycle.
type SessionAdapter struct {
	tmux *gotmux.Tmux
}

var _ secondary.SessionDriver = (*SessionAdapter)(nil)

// NewSessionAdapter creates a new gotmux-backed session adapter.
func NewSessionAdapter() (*SessionAdapter, error) {
	t, err := gotmux.DefaultTmux()
	if err != nil {
		return nil, fmt.Errorf("failed to create tmux client: %w", err)
	}
	return &SessionAdapter{tmux: t}, nil
}

// Launch starts a detached session named name in dir and makes command the
// root process of its first pane. gotmux session options cannot carry a
// multi-word shell command without mangling its quoting, so the session is
// created with a plain shell and the pane is respawned with the command.
func (a *SessionAdapter) Launch(ctx context.Context, name, dir, command string) error {
	session, err := a.tmux.NewSession(&gotmux.SessionOptions{
		Name:           name,
		StartDirectory: dir,
	})
	if err != nil {
		return fmt.Errorf("failed to create session %s: %w", name, err)
	}

	windows, err := session.ListWindows()
	if err != nil {
		return fmt.Errorf("failed to list windows for session %s: %w", name, err)
	}
	if len(windows) == 0 {
		return fmt.Errorf("no windows found in new session %s", name)
	}
	panes, err := windows[0].ListPanes()
	if err != nil || len(panes) == 0 {
		return fmt.Errorf("failed to get initial pane for session %s: %w", name, err)
	}

	// respawn-pane -k hands the pane a full shell command string, which tmux
	// runs through sh -c.
	if err := exec.CommandContext(ctx, "tmux", "respawn-pane", "-t", panes[0].Id, "-k", command).Run(); err != nil {
		return fmt.Errorf("failed to start session command: %w", err)
	}
	return nil
}

// HasSession reports whether a session with the given name exists.
func (a *SessionAdapter) HasSession(ctx context.Context, name string) bool {
	sessions, err := a.tmux.ListSessions()
	if err != nil {
		return false
	}
	for _, s := range sessions {
		if s.Name == name {
			return true
		}
	}
	return false
}

// Kill terminates the session.
func (a *SessionAdapter) Kill(ctx context.Context, name string) error {
	sessions, err := a.tmux.ListSessions()
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}
	for _, s := range sessions {
		if s.Name == name {
			return s.Kill()
		}
	}
	return fmt.Errorf("session %s not found", name)
}
