package secondary

import "context"

// ClusterDriver defines the secondary port for the cluster engine.
// Operations block until the engine reports success or failure; diagnostic
// output from the engine is carried in returned errors.
type ClusterDriver interface {
	// Create provisions a cluster bound to the given host ports.
	Create(ctx context.Context, name string, httpPort, apiPort int) error

	// Delete removes the cluster. Deleting an unknown cluster is an error.
	Delete(ctx context.Context, name string) error

	// GetCredentials returns the cluster's connection credentials blob.
	GetCredentials(ctx context.Context, name string) (string, error)
}

// WorktreeDriver defines the secondary port for version-control worktrees.
type WorktreeDriver interface {
	// Add creates a worktree at path checked out to branch.
	Add(ctx context.Context, path, branch string) error

	// Remove detaches the worktree at path. With force set, removal
	// proceeds even when the tree is dirty or locked.
	Remove(ctx context.Context, path string, force bool) error

	// CurrentBranch returns the branch checked out in the working directory.
	CurrentBranch(ctx context.Context) (string, error)
}

// SessionDriver defines the secondary port for the terminal multiplexer.
type SessionDriver interface {
	// Launch starts a detached session named name in dir running command.
	Launch(ctx context.Context, name, dir, command string) error

	// HasSession reports whether a session with the given name exists.
	HasSession(ctx context.Context, name string) bool

	// Kill terminates the session.
	Kill(ctx context.Context, name string) error
}

// ProxyAdmin defines the secondary port for the reverse proxy's
// administrative control plane. Paths are control-plane resource paths;
// bodies and responses are raw JSON. Every call must be bounded by a
// client-side timeout so a hung proxy cannot hang the orchestrator.
type ProxyAdmin interface {
	Get(ctx context.Context, path string) ([]byte, error)
	Post(ctx context.Context, path string, body []byte) error
	Delete(ctx context.Context, path string) error
}

// ContainerEngine defines the secondary port for the container engine,
// used for preflight checks and for the optional proxy container lifecycle.
type ContainerEngine interface {
	// DaemonRunning reports whether the engine daemon is reachable.
	DaemonRunning(ctx context.Context) bool

	// ContainerRunning reports whether a container with the given name is up.
	ContainerRunning(ctx context.Context, name string) (bool, error)

	// ContainerExists reports whether a container exists, running or not.
	ContainerExists(ctx context.Context, name string) (bool, error)

	// StartContainer starts an existing stopped container.
	StartContainer(ctx context.Context, name string) error

	// StopContainer stops a running container.
	StopContainer(ctx context.Context, name string) error

	// RemoveContainer removes a stopped container.
	RemoveContainer(ctx context.Context, name string) error

	// RestartContainer restarts a running container.
	RestartContainer(ctx context.Context, name string) error

	// RunDetached creates and starts a container from spec.
	RunDetached(ctx context.Context, spec RunSpec) error

	// Logs streams container logs to standard output.
	Logs(ctx context.Context, name string, follow bool) error
}

// RunSpec describes a detached container run.
type RunSpec struct {
	Name          string
	Image         string
	Ports         []string // host:container publish specs
	Volumes       []string // host:container bind specs
	RestartPolicy string
	Command       []string
}

// NotificationSink is the narrow interface for notification delivery.
// Implementations must never block the caller on user interaction and an
// absent delivery mechanism is not an error.
type NotificationSink interface {
	Notify(message, level, source string) error
}
