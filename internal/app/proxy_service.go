package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/example/labctl/internal/adapters/caddy"
	"github.com/example/labctl/internal/ports/primary"
	"github.com/example/labctl/internal/ports/secondary"
)

// ProxyImage is the container image the reverse proxy runs.
const ProxyImage = "caddy:latest"

// proxyConfigTarget is where the base configuration is mounted inside the
// proxy container.
const proxyConfigTarget = "/etc/caddy/config.json"

// ProxyServiceImpl implements the ProxyService interface.
type ProxyServiceImpl struct {
	engine secondary.ContainerEngine
	routes primary.RouteSynchronizer

	// configPath is the host path of the proxy's base configuration.
	configPath string
}

var _ primary.ProxyService = (*ProxyServiceImpl)(nil)

// NewProxyService creates a new ProxyService with injected dependencies.
func NewProxyService(engine secondary.ContainerEngine, routes primary.RouteSynchronizer, configPath string) *ProxyServiceImpl {
	return &ProxyServiceImpl{
		engine:     engine,
		routes:     routes,
		configPath: configPath,
	}
}

// Start brings the proxy container up. An existing stopped container is
// restarted with its live routing table intact; otherwise a fresh container
// is created from the base configuration.
func (s *ProxyServiceImpl) Start(ctx context.Context) (bool, error) {
	if !s.engine.DaemonRunning(ctx) {
		return false, fmt.Errorf("docker daemon not reachable; is Docker running?")
	}

	running, err := s.engine.ContainerRunning(ctx, ProxyContainerName)
	if err != nil {
		return false, fmt.Errorf("failed to inspect proxy container: %w", err)
	}
	if running {
		return false, nil
	}

	exists, err := s.engine.ContainerExists(ctx, ProxyContainerName)
	if err != nil {
		return false, fmt.Errorf("failed to inspect proxy container: %w", err)
	}
	if exists {
		if err := s.engine.StartContainer(ctx, ProxyContainerName); err != nil {
			return false, fmt.Errorf("failed to start proxy container: %w", err)
		}
		return true, nil
	}

	if err := s.writeBaseConfig(); err != nil {
		return false, err
	}

	spec := secondary.RunSpec{
		Name:          ProxyContainerName,
		Image:         ProxyImage,
		Ports:         []string{"80:80", "2019:2019"},
		Volumes:       []string{s.configPath + ":" + proxyConfigTarget},
		RestartPolicy: "unless-stopped",
		Command:       []string{"caddy", "run", "--config", proxyConfigTarget, "--adapter", "json"},
	}
	if err := s.engine.RunDetached(ctx, spec); err != nil {
		return false, fmt.Errorf("failed to run proxy container: %w", err)
	}
	return true, nil
}

func (s *ProxyServiceImpl) writeBaseConfig() error {
	if err := os.MkdirAll(filepath.Dir(s.configPath), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(s.configPath, caddy.BaseConfig(), 0o644); err != nil {
		return fmt.Errorf("failed to write proxy config: %w", err)
	}
	return nil
}

// Stop stops and removes the proxy container. Registered routes live only
// in the container, so stopping discards them; labs themselves are untouched.
func (s *ProxyServiceImpl) Stop(ctx context.Context) (bool, error) {
	exists, err := s.engine.ContainerExists(ctx, ProxyContainerName)
	if err != nil {
		return false, fmt.Errorf("failed to inspect proxy container: %w", err)
	}
	if !exists {
		return false, nil
	}

	if err := s.engine.StopContainer(ctx, ProxyContainerName); err != nil {
		return false, fmt.Errorf("failed to stop proxy container: %w", err)
	}
	if err := s.engine.RemoveContainer(ctx, ProxyContainerName); err != nil {
		return false, fmt.Errorf("failed to remove proxy container: %w", err)
	}
	return true, nil
}

// Restart restarts a running proxy container.
func (s *ProxyServiceImpl) Restart(ctx context.Context) error {
	running, err := s.engine.ContainerRunning(ctx, ProxyContainerName)
	if err != nil {
		return fmt.Errorf("failed to inspect proxy container: %w", err)
	}
	if !running {
		return fmt.Errorf("proxy is not running; start it with: labctl proxy start")
	}
	if err := s.engine.RestartContainer(ctx, ProxyContainerName); err != nil {
		return fmt.Errorf("failed to restart proxy container: %w", err)
	}
	return nil
}

// Status reports container state and, when running, the routing table.
func (s *ProxyServiceImpl) Status(ctx context.Context) (*primary.ProxyState, error) {
	state := &primary.ProxyState{}

	running, err := s.engine.ContainerRunning(ctx, ProxyContainerName)
	if err != nil {
		return nil, fmt.Errorf("failed to inspect proxy container: %w", err)
	}
	state.Running = running

	exists, err := s.engine.ContainerExists(ctx, ProxyContainerName)
	if err != nil {
		return nil, fmt.Errorf("failed to inspect proxy container: %w", err)
	}
	state.Exists = exists

	if running {
		report, err := s.routes.ListRoutes(ctx)
		if err != nil {
			return nil, err
		}
		state.Report = report
	}

	return state, nil
}

// Logs streams the proxy container's logs to standard output.
func (s *ProxyServiceImpl) Logs(ctx context.Context, follow bool) error {
	running, err := s.engine.ContainerRunning(ctx, ProxyContainerName)
	if err != nil {
		return fmt.Errorf("failed to inspect proxy container: %w", err)
	}
	if !running {
		return fmt.Errorf("proxy is not running; start it with: labctl proxy start")
	}
	return s.engine.Logs(ctx, ProxyContainerName, follow)
}
