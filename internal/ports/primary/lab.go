// Package primary defines the primary ports (driving interfaces) for the
// application. CLI adapters call these interfaces; internal/app implements them.
package primary

import (
	"context"

	"github.com/example/labctl/internal/ports/secondary"
)

// CreateLabRequest contains parameters for lab creation.
type CreateLabRequest struct {
	Name   string
	Branch string // empty: current branch of the invoking repository
	Image  string // empty: configured default image
}

// CreateLabResponse contains the result of lab creation.
type CreateLabResponse struct {
	Record secondary.LabRecord

	// RouteRegistered is set when the reverse proxy was running and the
	// lab's route was added. Route registration is best-effort; a false
	// value is not a failure.
	RouteRegistered bool

	// Warnings carries non-fatal problems, such as a failed route
	// registration attempt.
	Warnings []string
}

// DestroyLabRequest contains parameters for lab destruction.
type DestroyLabRequest struct {
	Name  string
	Force bool
}

// DestroyLabResponse contains the result of lab destruction. The registry
// record is always gone when Destroy returns nil, even when Warnings is
// non-empty.
type DestroyLabResponse struct {
	Warnings []string
}

// LabStatus is a registry record joined with live session state.
type LabStatus struct {
	Record         secondary.LabRecord
	SessionRunning bool
}

// LabService is the primary port for the lab lifecycle orchestrator.
type LabService interface {
	// Create provisions a new lab: worktree, cluster, credentials, session,
	// registry record, and best-effort proxy route, in that order. On a
	// provisioning failure everything created so far is rolled back in
	// reverse order and no registry record is persisted.
	Create(ctx context.Context, req CreateLabRequest) (*CreateLabResponse, error)

	// Destroy tears down a lab. Every teardown step is attempted regardless
	// of earlier failures, and the registry record is removed
	// unconditionally once the workflow starts. Destroying an unknown name
	// is an error and performs no resource operations.
	Destroy(ctx context.Context, req DestroyLabRequest) (*DestroyLabResponse, error)

	// List returns all registry records with live session status.
	List(ctx context.Context) ([]LabStatus, error)
}
