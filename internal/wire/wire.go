// Package wire provides dependency injection for the labctl application.
// It creates singleton services with lazy initialization.
package wire

import (
	"log"
	"sync"

	"github.com/example/labctl/internal/adapters/caddy"
	"github.com/example/labctl/internal/adapters/docker"
	"github.com/example/labctl/internal/adapters/git"
	"github.com/example/labctl/internal/adapters/k3d"
	"github.com/example/labctl/internal/adapters/notify"
	"github.com/example/labctl/internal/adapters/persistence"
	labtmux "github.com/example/labctl/internal/adapters/tmux"
	"github.com/example/labctl/internal/app"
	"github.com/example/labctl/internal/config"
	"github.com/example/labctl/internal/ports/primary"
	"github.com/example/labctl/internal/ports/secondary"
)

var (
	settings     *config.Settings
	labService   primary.LabService
	routeSync    primary.RouteSynchronizer
	proxyService primary.ProxyService
	preflight    primary.Preflight
	notifier     secondary.NotificationSink
	once         sync.Once
)

// Settings returns the resolved configuration for this invocation.
func Settings() *config.Settings {
	once.Do(initServices)
	return settings
}

// LabService returns the singleton LabService instance.
func LabService() primary.LabService {
	once.Do(initServices)
	return labService
}

// RouteSynchronizer returns the singleton RouteSynchronizer instance.
func RouteSynchronizer() primary.RouteSynchronizer {
	once.Do(initServices)
	return routeSync
}

// ProxyService returns the singleton ProxyService instance.
func ProxyService() primary.ProxyService {
	once.Do(initServices)
	return proxyService
}

// Preflight returns the singleton Preflight instance.
func Preflight() primary.Preflight {
	once.Do(initServices)
	return preflight
}

// Notifier returns the notification sink for this invocation: the file log,
// fanned out to the desktop notifier when enabled in settings.
func Notifier() secondary.NotificationSink {
	once.Do(initServices)
	return notifier
}

// initServices initializes all services and their dependencies.
// This is called once via sync.Once.
func initServices() {
	var err error
	settings, err = config.Resolve()
	if err != nil {
		log.Fatalf("failed to resolve settings: %v", err)
	}

	registryPath, err := config.RegistryPath()
	if err != nil {
		log.Fatalf("failed to locate registry: %v", err)
	}
	notificationsPath, err := config.NotificationsPath()
	if err != nil {
		log.Fatalf("failed to locate notification log: %v", err)
	}
	proxyConfigPath, err := config.ProxyConfigPath()
	if err != nil {
		log.Fatalf("failed to locate proxy config: %v", err)
	}

	// Secondary adapters.
	registry := persistence.NewFileRegistry(registryPath)
	clusters := k3d.NewClusterAdapter()
	worktrees := git.NewWorktreeAdapter()
	engine := docker.NewEngine()
	admin := caddy.NewAdminClient(caddy.DefaultAdminAddr)

	sessions, err := labtmux.NewSessionAdapter()
	if err != nil {
		log.Fatalf("failed to initialize tmux: %v", err)
	}

	notifier = notify.NewLogSink(notificationsPath)
	if settings.DesktopNotifications {
		responsesPath, err := config.ResponsesPath()
		if err != nil {
			log.Fatalf("failed to locate responses log: %v", err)
		}
		if desktop, ok := notify.NewDesktopSink(responsesPath); ok {
			notifier = notify.MultiSink{notifier, desktop}
		}
	}

	// Services (primary ports implementation).
	preflight = app.NewPreflight(engine)
	routeSync = app.NewRouteSync(admin, engine, registry)
	proxyService = app.NewProxyService(engine, routeSync, proxyConfigPath)
	labService = app.NewLabService(registry, clusters, worktrees, sessions, routeSync, notifier, preflight, settings)
}
