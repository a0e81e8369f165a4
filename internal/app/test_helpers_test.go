package app

import (
	"context"
	"fmt"
	"os"

	"github.com/example/labctl/internal/ports/primary"
	"github.com/example/labctl/internal/ports/secondary"
)

// errServiceDown stands in for any external driver failure.
var errServiceDown = fmt.Errorf("service unavailable")

func labRecordFixture(name string, httpPort int) *secondary.LabRecord {
	return &secondary.LabRecord{
		Name:      name,
		HTTPPort:  httpPort,
		APIPort:   httpPort + 1000,
		Directory: "/tmp/labs/" + name,
		Branch:    "main",
	}
}

// Ensure mocks implement the interfaces
var (
	_ secondary.LabRegistry      = (*mockRegistry)(nil)
	_ secondary.ClusterDriver    = (*mockClusterDriver)(nil)
	_ secondary.WorktreeDriver   = (*mockWorktreeDriver)(nil)
	_ secondary.SessionDriver    = (*mockSessionDriver)(nil)
	_ secondary.ProxyAdmin       = (*mockProxyAdmin)(nil)
	_ secondary.ContainerEngine  = (*mockEngine)(nil)
	_ secondary.NotificationSink = (*mockNotifier)(nil)
	_ primary.RouteSynchronizer  = (*mockRouteSync)(nil)
	_ primary.Preflight          = (*mockPreflight)(nil)
)

// mockRegistry implements secondary.LabRegistry in memory.
type mockRegistry struct {
	records map[string]*secondary.LabRecord
	loadErr error
	saveErr error
	// saveErrAfter delays saveErr by this many successful saves.
	saveErrAfter int
	mutateErr    error

	// onMutate runs inside each Mutate before the caller's function, to
	// model other processes touching the registry between critical sections.
	onMutate func(records map[string]*secondary.LabRecord)
}

func newMockRegistry() *mockRegistry {
	return &mockRegistry{records: make(map[string]*secondary.LabRecord)}
}

func (m *mockRegistry) Load() (map[string]*secondary.LabRecord, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	out := make(map[string]*secondary.LabRecord, len(m.records))
	for name, rec := range m.records {
		copied := *rec
		out[name] = &copied
	}
	return out, nil
}

func (m *mockRegistry) Save(records map[string]*secondary.LabRecord) error {
	if m.saveErr != nil {
		if m.saveErrAfter == 0 {
			return m.saveErr
		}
		m.saveErrAfter--
	}
	m.records = records
	return nil
}

// Mutate mirrors the file-backed registry: a failed save leaves the stored
// document untouched.
func (m *mockRegistry) Mutate(fn func(map[string]*secondary.LabRecord) error) error {
	if m.mutateErr != nil {
		return m.mutateErr
	}
	work, err := m.Load()
	if err != nil {
		return err
	}
	if m.onMutate != nil {
		m.onMutate(work)
	}
	if err := fn(work); err != nil {
		return err
	}
	return m.Save(work)
}

// mockClusterDriver implements secondary.ClusterDriver for testing.
type mockClusterDriver struct {
	created     map[string]corePorts
	deleted     []string
	createErr   error
	deleteErr   error
	credentials string
	credsErr    error
}

type corePorts struct{ http, api int }

func newMockClusterDriver() *mockClusterDriver {
	return &mockClusterDriver{
		created:     make(map[string]corePorts),
		credentials: "server: https://127.0.0.1:9443",
	}
}

func (m *mockClusterDriver) Create(ctx context.Context, name string, httpPort, apiPort int) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.created[name] = corePorts{http: httpPort, api: apiPort}
	return nil
}

func (m *mockClusterDriver) Delete(ctx context.Context, name string) error {
	m.deleted = append(m.deleted, name)
	if m.deleteErr != nil {
		return m.deleteErr
	}
	delete(m.created, name)
	return nil
}

func (m *mockClusterDriver) GetCredentials(ctx context.Context, name string) (string, error) {
	if m.credsErr != nil {
		return "", m.credsErr
	}
	return m.credentials, nil
}

// mockWorktreeDriver implements secondary.WorktreeDriver for testing.
type mockWorktreeDriver struct {
	added         map[string]string // path -> branch
	removed       []string
	addErr        error
	removeErr     error // plain removal
	forceErr      error // forced removal
	currentBranch string
	branchErr     error
}

func newMockWorktreeDriver() *mockWorktreeDriver {
	return &mockWorktreeDriver{
		added:         make(map[string]string),
		currentBranch: "main",
	}
}

// Add materializes the worktree directory so checkout-relative file writes
// behave as they do against the real driver.
func (m *mockWorktreeDriver) Add(ctx context.Context, path, branch string) error {
	if m.addErr != nil {
		return m.addErr
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return err
	}
	m.added[path] = branch
	return nil
}

func (m *mockWorktreeDriver) Remove(ctx context.Context, path string, force bool) error {
	if force && m.forceErr != nil {
		return m.forceErr
	}
	if !force && m.removeErr != nil {
		return m.removeErr
	}
	m.removed = append(m.removed, path)
	delete(m.added, path)
	return os.RemoveAll(path)
}

func (m *mockWorktreeDriver) CurrentBranch(ctx context.Context) (string, error) {
	if m.branchErr != nil {
		return "", m.branchErr
	}
	return m.currentBranch, nil
}

// mockSessionDriver implements secondary.SessionDriver for testing.
type mockSessionDriver struct {
	sessions  map[string]string // name -> command
	killed    []string
	launchErr error
	killErr   error
}

func newMockSessionDriver() *mockSessionDriver {
	return &mockSessionDriver{sessions: make(map[string]string)}
}

func (m *mockSessionDriver) Launch(ctx context.Context, name, dir, command string) error {
	if m.launchErr != nil {
		return m.launchErr
	}
	m.sessions[name] = command
	return nil
}

func (m *mockSessionDriver) HasSession(ctx context.Context, name string) bool {
	_, ok := m.sessions[name]
	return ok
}

func (m *mockSessionDriver) Kill(ctx context.Context, name string) error {
	m.killed = append(m.killed, name)
	if m.killErr != nil {
		return m.killErr
	}
	delete(m.sessions, name)
	return nil
}

// mockRouteSync implements primary.RouteSynchronizer for testing.
type mockRouteSync struct {
	registered    map[string]int
	unregistered  []string
	registerErr   error
	unregisterErr error
	report        *primary.RouteReport
}

func newMockRouteSync() *mockRouteSync {
	return &mockRouteSync{registered: make(map[string]int)}
}

func (m *mockRouteSync) RegisterRoute(ctx context.Context, name string, port int) error {
	if m.registerErr != nil {
		return m.registerErr
	}
	m.registered[name] = port
	return nil
}

func (m *mockRouteSync) UnregisterRoute(ctx context.Context, name string) error {
	m.unregistered = append(m.unregistered, name)
	if m.unregisterErr != nil {
		return m.unregisterErr
	}
	delete(m.registered, name)
	return nil
}

func (m *mockRouteSync) ListRoutes(ctx context.Context) (*primary.RouteReport, error) {
	if m.report != nil {
		return m.report, nil
	}
	return &primary.RouteReport{}, nil
}

// mockPreflight implements primary.Preflight for testing.
type mockPreflight struct {
	results []primary.CheckResult
}

func (m *mockPreflight) Run(ctx context.Context) []primary.CheckResult {
	return m.results
}

// mockNotifier implements secondary.NotificationSink for testing.
type mockNotifier struct {
	messages []string
	levels   []string
}

func (m *mockNotifier) Notify(message, level, source string) error {
	m.messages = append(m.messages, message)
	m.levels = append(m.levels, level)
	return nil
}

// mockProxyAdmin implements secondary.ProxyAdmin for testing. Objects are
// keyed by control-plane path.
type mockProxyAdmin struct {
	objects   map[string][]byte
	posted    [][]byte
	deleted   []string
	getErr    error
	postErr   error
	postFails int // fail this many POSTs before succeeding
	deleteErr error
}

func newMockProxyAdmin() *mockProxyAdmin {
	return &mockProxyAdmin{objects: make(map[string][]byte)}
}

func (m *mockProxyAdmin) Get(ctx context.Context, path string) ([]byte, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	body, ok := m.objects[path]
	if !ok {
		return nil, fmt.Errorf("unknown path %s", path)
	}
	return body, nil
}

func (m *mockProxyAdmin) Post(ctx context.Context, path string, body []byte) error {
	if m.postFails > 0 {
		m.postFails--
		return fmt.Errorf("transient failure")
	}
	if m.postErr != nil {
		return m.postErr
	}
	m.posted = append(m.posted, body)
	return nil
}

func (m *mockProxyAdmin) Delete(ctx context.Context, path string) error {
	m.deleted = append(m.deleted, path)
	return m.deleteErr
}

// mockEngine implements secondary.ContainerEngine for testing.
type mockEngine struct {
	daemonUp   bool
	running    map[string]bool
	existing   map[string]bool
	started    []string
	stopped    []string
	removed    []string
	restarted  []string
	runSpecs   []secondary.RunSpec
	runErr     error
	startErr   error
	logsCalled bool
}

func newMockEngine() *mockEngine {
	return &mockEngine{
		daemonUp: true,
		running:  make(map[string]bool),
		existing: make(map[string]bool),
	}
}

func (m *mockEngine) DaemonRunning(ctx context.Context) bool { return m.daemonUp }

func (m *mockEngine) ContainerRunning(ctx context.Context, name string) (bool, error) {
	return m.running[name], nil
}

func (m *mockEngine) ContainerExists(ctx context.Context, name string) (bool, error) {
	return m.existing[name] || m.running[name], nil
}

func (m *mockEngine) StartContainer(ctx context.Context, name string) error {
	if m.startErr != nil {
		return m.startErr
	}
	m.started = append(m.started, name)
	m.running[name] = true
	return nil
}

func (m *mockEngine) StopContainer(ctx context.Context, name string) error {
	m.stopped = append(m.stopped, name)
	m.running[name] = false
	m.existing[name] = true
	return nil
}

func (m *mockEngine) RemoveContainer(ctx context.Context, name string) error {
	m.removed = append(m.removed, name)
	delete(m.existing, name)
	return nil
}

func (m *mockEngine) RestartContainer(ctx context.Context, name string) error {
	m.restarted = append(m.restarted, name)
	return nil
}

func (m *mockEngine) RunDetached(ctx context.Context, spec secondary.RunSpec) error {
	if m.runErr != nil {
		return m.runErr
	}
	m.runSpecs = append(m.runSpecs, spec)
	m.running[spec.Name] = true
	return nil
}

func (m *mockEngine) Logs(ctx context.Context, name string, follow bool) error {
	m.logsCalled = true
	return nil
}
