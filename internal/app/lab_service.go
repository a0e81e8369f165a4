package app

import (
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/example/labctl/internal/config"
	corelab "github.com/example/labctl/internal/core/lab"
	"github.com/example/labctl/internal/ports/primary"
	"github.com/example/labctl/internal/ports/secondary"
)

// LabServiceImpl implements the LabService interface.
type LabServiceImpl struct {
	registry  secondary.LabRegistry
	clusters  secondary.ClusterDriver
	worktrees secondary.WorktreeDriver
	sessions  secondary.SessionDriver
	routes    primary.RouteSynchronizer
	notifier  secondary.NotificationSink
	preflight primary.Preflight
	settings  *config.Settings

	// Injectable for tests.
	portFree func(port int) bool
	homeDir  func() (string, error)
	getenv   func(string) string
	now      func() time.Time
}

var _ primary.LabService = (*LabServiceImpl)(nil)

// NewLabService creates a new LabService with injected dependencies.
func NewLabService(
	registry secondary.LabRegistry,
	clusters secondary.ClusterDriver,
	worktrees secondary.WorktreeDriver,
	sessions secondary.SessionDriver,
	routes primary.RouteSynchronizer,
	notifier secondary.NotificationSink,
	preflight primary.Preflight,
	settings *config.Settings,
) *LabServiceImpl {
	return &LabServiceImpl{
		registry:  registry,
		clusters:  clusters,
		worktrees: worktrees,
		sessions:  sessions,
		routes:    routes,
		notifier:  notifier,
		preflight: preflight,
		settings:  settings,
		portFree:  hostPortFree,
		homeDir:   os.UserHomeDir,
		getenv:    os.Getenv,
		now:       time.Now,
	}
}

// rollbackStep undoes one provisioning step. Steps are pushed as resources
// are created and run in reverse order on failure.
type rollbackStep struct {
	name string
	undo func(ctx context.Context) error
}

// Create provisions a new lab. See primary.LabService for the contract.
func (s *LabServiceImpl) Create(ctx context.Context, req primary.CreateLabRequest) (*primary.CreateLabResponse, error) {
	// 1. Environment checks, before any side effect.
	if fail := FirstFailure(s.preflight.Run(ctx)); fail != nil {
		return nil, fmt.Errorf("environment check failed: %s", fail.Detail)
	}

	if err := corelab.ValidateName(req.Name); err != nil {
		return nil, err
	}

	// 2. Branch defaults to the invoking repository's current branch.
	branch := req.Branch
	if branch == "" {
		current, err := s.worktrees.CurrentBranch(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to determine current branch: %w", err)
		}
		branch = current
	}

	dir := filepath.Join(s.settings.WorktreeDir, req.Name)

	// 3. Guard check against registry and filesystem state.
	records, err := s.registry.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load registry: %w", err)
	}
	guardCtx := corelab.CreateLabContext{
		Name:            req.Name,
		Directory:       dir,
		DirectoryExists: pathExists(dir),
		NameInRegistry:  containsName(records, req.Name),
	}
	if result := corelab.CanCreateLab(guardCtx); !result.Allowed {
		return nil, result.Error()
	}

	// 4. Allocate ports under the registry lock so concurrent invocations
	// cannot pick the same pair.
	var ports corelab.PortPair
	err = s.registry.Mutate(func(records map[string]*secondary.LabRecord) error {
		used := make([]int, 0, len(records))
		for _, r := range records {
			used = append(used, r.HTTPPort)
		}
		ports = corelab.NextPort(used, s.settings.BasePort, s.portFree)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to allocate ports: %w", err)
	}

	var undo []rollbackStep
	fail := func(step string, cause error) error {
		return s.unwind(ctx, undo, fmt.Errorf("failed to %s: %w", step, cause))
	}

	// 5. Worktree first; nothing to roll back if it fails.
	if err := s.worktrees.Add(ctx, dir, branch); err != nil {
		return nil, fmt.Errorf("failed to create worktree: %w", err)
	}
	undo = append(undo, rollbackStep{"remove worktree", func(ctx context.Context) error {
		if err := s.worktrees.Remove(ctx, dir, true); err != nil {
			return os.RemoveAll(dir)
		}
		return nil
	}})

	// 6. Cluster bound to the allocated ports.
	if err := s.clusters.Create(ctx, req.Name, ports.HTTP, ports.API); err != nil {
		return nil, fail("create cluster", err)
	}
	undo = append(undo, rollbackStep{"delete cluster", func(ctx context.Context) error {
		return s.clusters.Delete(ctx, req.Name)
	}})

	// 7. Credentials, rewritten so they resolve from inside the sandbox.
	creds, err := s.clusters.GetCredentials(ctx, req.Name)
	if err != nil {
		return nil, fail("fetch cluster credentials", err)
	}
	kubeconfigPath := filepath.Join(dir, corelab.KubeconfigFileName(req.Name))
	if err := os.WriteFile(kubeconfigPath, []byte(corelab.RewriteCredentials(creds)), 0o600); err != nil {
		return nil, fail("write kubeconfig", err)
	}

	// 8. Detached session running the sandboxed agent.
	image := req.Image
	if image == "" && s.settings.DockerImage != config.DefaultImage {
		image = s.settings.DockerImage
	}
	command := corelab.BuildSessionCommand(s.sessionInput(req.Name, dir, image, kubeconfigPath))
	if err := s.sessions.Launch(ctx, req.Name, dir, command); err != nil {
		return nil, fail("launch session", err)
	}
	undo = append(undo, rollbackStep{"kill session", func(ctx context.Context) error {
		return s.sessions.Kill(ctx, req.Name)
	}})

	// 9. Commit the record. Only a fully provisioned lab enters the registry.
	record := secondary.LabRecord{
		Name:      req.Name,
		HTTPPort:  ports.HTTP,
		APIPort:   ports.API,
		Directory: dir,
		Branch:    branch,
		CreatedAt: s.now().UTC(),
	}
	err = s.registry.Mutate(func(records map[string]*secondary.LabRecord) error {
		if containsName(records, req.Name) {
			return fmt.Errorf("lab %q already exists in registry", req.Name)
		}
		// Provisioning runs outside the lock, so a concurrent create may
		// have claimed the same pair since allocation.
		for _, other := range records {
			if other.HTTPPort == ports.HTTP || other.APIPort == ports.API {
				return fmt.Errorf("ports %d/%d were claimed by lab %q during provisioning; retry", ports.HTTP, ports.API, other.Name)
			}
		}
		rec := record
		records[req.Name] = &rec
		return nil
	})
	if err != nil {
		return nil, fail("save registry", err)
	}

	resp := &primary.CreateLabResponse{Record: record}

	// 10. Best-effort route registration; never unwinds the lab.
	if err := s.routes.RegisterRoute(ctx, req.Name, ports.HTTP); err != nil {
		resp.Warnings = append(resp.Warnings, fmt.Sprintf("route registration failed: %v", err))
	} else {
		resp.RouteRegistered = true
	}

	s.notifyQuietly(fmt.Sprintf("lab %q created on branch %q (http :%d)", req.Name, branch, ports.HTTP), "success", "setup")

	return resp, nil
}

// unwind runs rollback steps in reverse order. Rollback failures are
// appended to the original error rather than masking it.
func (s *LabServiceImpl) unwind(ctx context.Context, undo []rollbackStep, cause error) error {
	var leftovers []string
	for i := len(undo) - 1; i >= 0; i-- {
		if err := undo[i].undo(ctx); err != nil {
			leftovers = append(leftovers, fmt.Sprintf("%s: %v", undo[i].name, err))
		}
	}
	if len(leftovers) > 0 {
		return fmt.Errorf("%w (rollback incomplete: %s)", cause, strings.Join(leftovers, "; "))
	}
	return cause
}

// Destroy tears down a lab. See primary.LabService for the contract.
func (s *LabServiceImpl) Destroy(ctx context.Context, req primary.DestroyLabRequest) (*primary.DestroyLabResponse, error) {
	records, err := s.registry.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load registry: %w", err)
	}

	guardCtx := corelab.DestroyLabContext{
		Name:           req.Name,
		NameInRegistry: containsName(records, req.Name),
		KnownLabs:      sortedNames(records),
	}
	if result := corelab.CanDestroyLab(guardCtx); !result.Allowed {
		return nil, result.Error()
	}
	record := records[req.Name]

	// Past this point every step runs; failures become warnings and the
	// registry record is removed regardless.
	resp := &primary.DestroyLabResponse{}
	warn := func(format string, args ...any) {
		resp.Warnings = append(resp.Warnings, fmt.Sprintf(format, args...))
	}

	if err := s.clusters.Delete(ctx, req.Name); err != nil {
		warn("cluster removal failed: %v", err)
	}

	if err := s.removeWorktree(ctx, record.Directory, req.Force); err != nil {
		warn("worktree removal failed: %v", err)
	}

	if s.sessions.HasSession(ctx, req.Name) {
		if err := s.sessions.Kill(ctx, req.Name); err != nil {
			warn("session kill failed: %v", err)
		}
	}

	if err := s.routes.UnregisterRoute(ctx, req.Name); err != nil {
		warn("route removal failed: %v", err)
	}

	err = s.registry.Mutate(func(records map[string]*secondary.LabRecord) error {
		delete(records, req.Name)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update registry: %w", err)
	}

	s.notifyQuietly(fmt.Sprintf("lab %q torn down", req.Name), "info", "teardown")

	return resp, nil
}

// removeWorktree escalates: plain removal, then forced, then plain
// directory deletion. Each escalation runs only after the previous failed.
func (s *LabServiceImpl) removeWorktree(ctx context.Context, dir string, force bool) error {
	if err := s.worktrees.Remove(ctx, dir, force); err == nil {
		return nil
	}
	if err := s.worktrees.Remove(ctx, dir, true); err == nil {
		return nil
	}
	if !pathExists(dir) {
		return nil
	}
	return os.RemoveAll(dir)
}

// List returns all registry records joined with live session status.
func (s *LabServiceImpl) List(ctx context.Context) ([]primary.LabStatus, error) {
	records, err := s.registry.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load registry: %w", err)
	}

	statuses := make([]primary.LabStatus, 0, len(records))
	for _, name := range sortedNames(records) {
		statuses = append(statuses, primary.LabStatus{
			Record:         *records[name],
			SessionRunning: s.sessions.HasSession(ctx, name),
		})
	}
	return statuses, nil
}

// sessionInput gathers the host state the session command depends on:
// credential files that exist, the agent socket, configured mounts and
// environment.
func (s *LabServiceImpl) sessionInput(name, dir, image, kubeconfigPath string) corelab.SessionCommandInput {
	target := "/" + corelab.KubeconfigFileName(name)
	in := corelab.SessionCommandInput{
		Directory:        dir,
		Image:            image,
		KubeconfigTarget: target,
		KubeconfigMount:  corelab.Mount{Source: kubeconfigPath, Target: target},
		SSHAuthSock:      s.getenv("SSH_AUTH_SOCK"),
		Environment:      s.settings.Environment,
	}

	home, homeErr := s.homeDir()
	if homeErr == nil {
		for _, m := range []corelab.Mount{
			{Source: filepath.Join(home, ".claude"), Target: "/root/.claude", ReadOnly: true},
			{Source: filepath.Join(home, ".gitconfig"), Target: "/root/.gitconfig", ReadOnly: true},
			{Source: filepath.Join(home, ".docker", "config.json"), Target: "/root/.docker/config.json", ReadOnly: true},
		} {
			if pathExists(m.Source) {
				in.ConfigMounts = append(in.ConfigMounts, m)
			}
		}
	}

	for _, spec := range s.settings.AdditionalMounts {
		m, ok := parseMountSpec(spec)
		if !ok {
			continue
		}
		if homeErr == nil {
			m.Source = expandHome(m.Source, home)
		}
		if !pathExists(m.Source) {
			continue
		}
		in.ExtraMounts = append(in.ExtraMounts, m)
	}

	return in
}

// expandHome resolves a leading ~ in a mount source so settings can refer to
// home-relative paths the way the documented examples do.
func expandHome(path, home string) string {
	if path == "~" {
		return home
	}
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(home, path[2:])
	}
	return path
}

// parseMountSpec parses "source:target[:mode]" where mode "ro" marks the
// mount read-only.
func parseMountSpec(spec string) (corelab.Mount, bool) {
	parts := strings.Split(spec, ":")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return corelab.Mount{}, false
	}
	m := corelab.Mount{Source: parts[0], Target: parts[1]}
	if len(parts) >= 3 && parts[2] == "ro" {
		m.ReadOnly = true
	}
	return m, true
}

func (s *LabServiceImpl) notifyQuietly(message, level, source string) {
	if s.notifier == nil {
		return
	}
	// Notification delivery never fails a lifecycle operation.
	_ = s.notifier.Notify(message, level, source)
}

// hostPortFree reports whether a TCP port can be bound on the host. A
// transient bind failure just advances allocation to the next candidate.
func hostPortFree(port int) bool {
	l, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", port))
	if err != nil {
		return false
	}
	_ = l.Close()
	return true
}

func pathExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func containsName(records map[string]*secondary.LabRecord, name string) bool {
	_, ok := records[name]
	return ok
}

func sortedNames(records map[string]*secondary.LabRecord) []string {
	names := make([]string, 0, len(records))
	for name := range records {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
