package primary

import "context"

// ProxyState describes the reverse proxy container.
type ProxyState struct {
	Running bool

	// Exists is set when a stopped container is still present.
	Exists bool

	// Report is the routing table, populated only when the proxy is running.
	Report *RouteReport
}

// ProxyService is the primary port for the reverse proxy container lifecycle.
type ProxyService interface {
	// Start brings the proxy up, creating the container from the base
	// configuration when none exists. Starting a running proxy is a no-op;
	// the response reports whether anything was done.
	Start(ctx context.Context) (started bool, err error)

	// Stop stops and removes the proxy container. Stopping an absent proxy
	// is a no-op.
	Stop(ctx context.Context) (stopped bool, err error)

	// Restart restarts a running proxy. It is an error when the proxy is
	// not running.
	Restart(ctx context.Context) error

	// Status reports container state and the current routing table.
	Status(ctx context.Context) (*ProxyState, error)

	// Logs streams the proxy container's logs to standard output.
	Logs(ctx context.Context, follow bool) error
}
