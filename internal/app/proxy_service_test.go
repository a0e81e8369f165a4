package app

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newProxyService(t *testing.T, engine *mockEngine) *ProxyServiceImpl {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), "caddy-config.json")
	return NewProxyService(engine, newMockRouteSync(), configPath)
}

func TestProxyStartCreatesContainer(t *testing.T) {
	engine := newMockEngine()
	svc := newProxyService(t, engine)

	started, err := svc.Start(context.Background())
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if !started {
		t.Error("started = false, want true")
	}

	if len(engine.runSpecs) != 1 {
		t.Fatalf("ran %d containers, want 1", len(engine.runSpecs))
	}
	spec := engine.runSpecs[0]
	if spec.Name != ProxyContainerName || spec.Image != ProxyImage {
		t.Errorf("spec = %+v", spec)
	}
	if len(spec.Ports) != 2 || spec.Ports[0] != "80:80" || spec.Ports[1] != "2019:2019" {
		t.Errorf("ports = %v", spec.Ports)
	}
	if spec.RestartPolicy != "unless-stopped" {
		t.Errorf("restart policy = %q", spec.RestartPolicy)
	}

	// The base configuration exists on disk before the container starts.
	raw, err := os.ReadFile(svc.configPath)
	if err != nil {
		t.Fatalf("base config not written: %v", err)
	}
	for _, want := range []string{`"0.0.0.0:2019"`, `"lab-proxy"`, `":80"`} {
		if !strings.Contains(string(raw), want) {
			t.Errorf("base config missing %s: %s", want, raw)
		}
	}
}

func TestProxyStartIdempotent(t *testing.T) {
	engine := newMockEngine()
	engine.running[ProxyContainerName] = true
	svc := newProxyService(t, engine)

	started, err := svc.Start(context.Background())
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if started {
		t.Error("started = true for an already running proxy")
	}
	if len(engine.runSpecs) != 0 {
		t.Error("no container should have been created")
	}
}

func TestProxyStartReusesStoppedContainer(t *testing.T) {
	engine := newMockEngine()
	engine.existing[ProxyContainerName] = true
	svc := newProxyService(t, engine)

	started, err := svc.Start(context.Background())
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if !started {
		t.Error("started = false, want true")
	}
	if len(engine.started) != 1 {
		t.Errorf("started containers = %v, want the existing one restarted", engine.started)
	}
	if len(engine.runSpecs) != 0 {
		t.Error("a stopped container must be reused, not recreated")
	}
}

func TestProxyStartDaemonDown(t *testing.T) {
	engine := newMockEngine()
	engine.daemonUp = false
	svc := newProxyService(t, engine)

	if _, err := svc.Start(context.Background()); err == nil {
		t.Fatal("Start() error = nil, want daemon failure")
	}
}

func TestProxyStop(t *testing.T) {
	engine := newMockEngine()
	engine.running[ProxyContainerName] = true
	svc := newProxyService(t, engine)

	stopped, err := svc.Stop(context.Background())
	if err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if !stopped {
		t.Error("stopped = false, want true")
	}
	if len(engine.stopped) != 1 || len(engine.removed) != 1 {
		t.Errorf("stopped = %v removed = %v, want container stopped and removed", engine.stopped, engine.removed)
	}

	// Stopping again is a no-op.
	stopped, err = svc.Stop(context.Background())
	if err != nil {
		t.Fatalf("second Stop() error = %v", err)
	}
	if stopped {
		t.Error("second Stop() reported work done")
	}
}

func TestProxyRestartRequiresRunning(t *testing.T) {
	engine := newMockEngine()
	svc := newProxyService(t, engine)

	if err := svc.Restart(context.Background()); err == nil {
		t.Fatal("Restart() error = nil, want failure when proxy is down")
	}

	engine.running[ProxyContainerName] = true
	if err := svc.Restart(context.Background()); err != nil {
		t.Fatalf("Restart() error = %v", err)
	}
	if len(engine.restarted) != 1 {
		t.Errorf("restarted = %v", engine.restarted)
	}
}

func TestProxyStatus(t *testing.T) {
	engine := newMockEngine()
	svc := newProxyService(t, engine)

	state, err := svc.Status(context.Background())
	if err != nil {
		t.Fatalf("Status() error = %v", err)
	}
	if state.Running || state.Exists || state.Report != nil {
		t.Errorf("state = %+v, want absent proxy", state)
	}

	engine.running[ProxyContainerName] = true
	state, err = svc.Status(context.Background())
	if err != nil {
		t.Fatalf("Status() error = %v", err)
	}
	if !state.Running || state.Report == nil {
		t.Errorf("state = %+v, want running with route report", state)
	}
}
