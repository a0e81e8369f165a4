package lab

import (
	"fmt"
	"sort"
	"strings"
)

// HostGatewayAlias is the address at which workloads running inside a
// container can reach the host. Cluster credentials advertise loopback
// addresses, which are unreachable from inside the sandbox, so they are
// rewritten to this alias before being handed to the session.
const HostGatewayAlias = "host.docker.internal"

// RewriteCredentials replaces loopback addresses in a credentials blob with
// the host-reachable alias.
func RewriteCredentials(blob string) string {
	return strings.ReplaceAll(blob, "127.0.0.1", HostGatewayAlias)
}

// KubeconfigFileName returns the name of the rewritten credentials file
// persisted next to the worktree.
func KubeconfigFileName(name string) string {
	return ".kubeconfig-" + name
}

// Mount is a bind mount included in the session command. Only mounts whose
// source was confirmed to exist on the host may be passed in; absence of an
// optional file is not an error, it is simply omitted.
type Mount struct {
	Source   string
	Target   string
	ReadOnly bool
}

func (m Mount) spec() string {
	s := fmt.Sprintf("type=bind,source=%s,target=%s", m.Source, m.Target)
	if m.ReadOnly {
		s += ",readonly"
	}
	return s
}

// SessionCommandInput collects everything the session launch command needs.
type SessionCommandInput struct {
	Directory string

	// Image overrides the sandbox's default agent image when non-empty.
	Image string

	// KubeconfigTarget is the in-sandbox path of the rewritten credentials.
	KubeconfigTarget string

	// KubeconfigMount binds the rewritten credentials file into the sandbox.
	KubeconfigMount Mount

	// SSHAuthSock shares the host's credential-agent socket when non-empty.
	SSHAuthSock string

	// ConfigMounts are identity/credential files found on the host.
	ConfigMounts []Mount

	// ExtraMounts come from project or user settings.
	ExtraMounts []Mount

	// Environment variables injected into the sandbox, from settings.
	Environment map[string]string
}

// BuildSessionCommand assembles the shell command the detached session runs:
// change into the worktree, then start the sandboxed agent with its
// credentials, identity mounts, and configured environment. Environment
// variables are emitted in sorted key order so the command is deterministic.
func BuildSessionCommand(in SessionCommandInput) string {
	sandbox := "docker sandbox run claude ."
	if in.Image != "" {
		sandbox = fmt.Sprintf("docker sandbox run --image %s .", in.Image)
	}

	parts := []string{
		sandbox,
		fmt.Sprintf("--env KUBECONFIG=%s", in.KubeconfigTarget),
	}

	keys := make([]string, 0, len(in.Environment))
	for k := range in.Environment {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("--env %s=%s", k, in.Environment[k]))
	}

	if in.SSHAuthSock != "" {
		parts = append(parts,
			fmt.Sprintf("--env SSH_AUTH_SOCK=%s", in.SSHAuthSock),
			fmt.Sprintf("--mount type=bind,source=%s,target=%s", in.SSHAuthSock, in.SSHAuthSock),
		)
	}

	parts = append(parts, "--mount "+in.KubeconfigMount.spec())

	for _, m := range in.ConfigMounts {
		parts = append(parts, "--mount "+m.spec())
	}
	for _, m := range in.ExtraMounts {
		parts = append(parts, "--mount "+m.spec())
	}

	parts = append(parts, "-- --dangerously-skip-permissions")

	return fmt.Sprintf("cd %s && %s", in.Directory, strings.Join(parts, " "))
}
