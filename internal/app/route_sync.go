package app

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/example/labctl/internal/adapters/caddy"
	"github.com/example/labctl/internal/ports/primary"
	"github.com/example/labctl/internal/ports/secondary"
)

// ProxyContainerName is the reverse proxy's container name. The route
// synchronizer treats the proxy as absent unless this container is running.
const ProxyContainerName = "lab-proxy"

// RouteSyncImpl implements the RouteSynchronizer interface over the proxy's
// admin API. Every operation degrades to a no-op when the proxy container is
// not running: routing is a convenience layer, never a dependency.
type RouteSyncImpl struct {
	admin    secondary.ProxyAdmin
	engine   secondary.ContainerEngine
	registry secondary.LabRegistry
}

var _ primary.RouteSynchronizer = (*RouteSyncImpl)(nil)

// NewRouteSync creates a new RouteSynchronizer with injected dependencies.
func NewRouteSync(admin secondary.ProxyAdmin, engine secondary.ContainerEngine, registry secondary.LabRegistry) *RouteSyncImpl {
	return &RouteSyncImpl{
		admin:    admin,
		engine:   engine,
		registry: registry,
	}
}

func (s *RouteSyncImpl) proxyRunning(ctx context.Context) bool {
	if !s.engine.DaemonRunning(ctx) {
		return false
	}
	running, err := s.engine.ContainerRunning(ctx, ProxyContainerName)
	return err == nil && running
}

// RegisterRoute adds the lab's host-pattern route. Any stale route with the
// same identifier is removed first so re-registration overwrites in effect.
// A failed POST is retried once.
func (s *RouteSyncImpl) RegisterRoute(ctx context.Context, name string, port int) error {
	if !s.proxyRunning(ctx) {
		return nil
	}

	if err := s.deleteRoute(ctx, name); err != nil {
		return fmt.Errorf("failed to clear existing route: %w", err)
	}

	body, err := json.Marshal(caddy.LabRoute(name, port))
	if err != nil {
		return fmt.Errorf("failed to encode route: %w", err)
	}

	if err := s.admin.Post(ctx, caddy.RoutesPath, body); err != nil {
		if retryErr := s.admin.Post(ctx, caddy.RoutesPath, body); retryErr != nil {
			return fmt.Errorf("failed to register route: %w", retryErr)
		}
	}
	return nil
}

// UnregisterRoute removes the lab's route. A route that does not exist is
// success: absence is the desired end-state.
func (s *RouteSyncImpl) UnregisterRoute(ctx context.Context, name string) error {
	if !s.proxyRunning(ctx) {
		return nil
	}
	return s.deleteRoute(ctx, name)
}

func (s *RouteSyncImpl) deleteRoute(ctx context.Context, name string) error {
	err := s.admin.Delete(ctx, caddy.RouteIDPath(name))
	if err == nil || caddy.IsNotFound(err) {
		return nil
	}
	return err
}

// ListRoutes reads the routing table and cross-references it against the
// registry. Orphaned routes and unrouted labs are reported, never repaired.
func (s *RouteSyncImpl) ListRoutes(ctx context.Context) (*primary.RouteReport, error) {
	report := &primary.RouteReport{}
	if !s.proxyRunning(ctx) {
		return report, nil
	}

	raw, err := s.admin.Get(ctx, caddy.RoutesPath)
	if err != nil {
		if caddy.IsNotFound(err) {
			return report, nil
		}
		return nil, fmt.Errorf("failed to read routes: %w", err)
	}

	var routes []caddy.Route
	if len(raw) > 0 && !bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		if err := json.Unmarshal(raw, &routes); err != nil {
			return nil, fmt.Errorf("failed to decode routes: %w", err)
		}
	}

	records, err := s.registry.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load registry: %w", err)
	}

	routed := make(map[string]bool)
	for _, r := range routes {
		name, ok := r.LabName()
		if !ok {
			continue
		}
		routed[name] = true
		report.Routes = append(report.Routes, primary.RouteStatus{
			Name:     name,
			Hosts:    r.Hosts(),
			Port:     r.UpstreamPort(),
			Orphaned: !containsName(records, name),
		})
	}
	sort.Slice(report.Routes, func(i, j int) bool {
		return report.Routes[i].Name < report.Routes[j].Name
	})

	for _, name := range sortedNames(records) {
		if !routed[name] {
			report.Unrouted = append(report.Unrouted, name)
		}
	}

	return report, nil
}
