package primary

import "context"

// RouteStatus describes one proxy route cross-referenced with the registry.
type RouteStatus struct {
	Name  string
	Hosts []string
	Port  string

	// Orphaned marks a route with no matching registry record: an external
	// resource leaked past the registry's authority. Drift is reported,
	// never auto-repaired.
	Orphaned bool
}

// RouteReport is the full routing-table view.
type RouteReport struct {
	Routes []RouteStatus

	// Unrouted lists registry records that have no proxy route.
	Unrouted []string
}

// RouteSynchronizer is the primary port for keeping the reverse proxy's
// routing table consistent with the registry. All operations are no-ops
// (not errors) when the proxy is not running.
type RouteSynchronizer interface {
	// RegisterRoute adds a host-pattern route for the lab, forwarding
	// <name>.local and *.<name>.local to the host-reachable address for
	// port. Re-registering overwrites in effect. A failed call is retried
	// once, never looped.
	RegisterRoute(ctx context.Context, name string, port int) error

	// UnregisterRoute deletes the lab's route by identifier. A route that
	// does not exist is treated as success.
	UnregisterRoute(ctx context.Context, name string) error

	// ListRoutes reads the routing table back and cross-references it
	// against the registry.
	ListRoutes(ctx context.Context) (*RouteReport, error)
}
