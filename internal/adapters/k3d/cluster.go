// Package k3d drives the k3d cluster engine. Each lab gets its own cluster
// with the load balancer published on the lab's HTTP port and the API server
// bound to the lab's API port on loopback.
package k3d

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/example/labctl/internal/ports/secondary"
)

// ClusterAdapter shells out to the k3d binary.
type ClusterAdapter struct{}

var _ secondary.ClusterDriver = (*ClusterAdapter)(nil)

// NewClusterAdapter creates a new ClusterAdapter.
func NewClusterAdapter() *ClusterAdapter {
	return &ClusterAdapter{}
}

// Create provisions a cluster bound to the given host ports. The kubeconfig
// context switch is suppressed so the invoking shell's kubectl context is
// left alone.
func (a *ClusterAdapter) Create(ctx context.Context, name string, httpPort, apiPort int) error {
	err := a.run(ctx,
		"cluster", "create", name,
		"--api-port", fmt.Sprintf("127.0.0.1:%d", apiPort),
		"-p", fmt.Sprintf("%d:80@loadbalancer", httpPort),
		"--kubeconfig-switch-context=false",
	)
	if err != nil {
		return fmt.Errorf("failed to create cluster %s: %w", name, err)
	}
	return nil
}

// Delete removes the cluster.
func (a *ClusterAdapter) Delete(ctx context.Context, name string) error {
	if err := a.run(ctx, "cluster", "delete", name); err != nil {
		return fmt.Errorf("failed to delete cluster %s: %w", name, err)
	}
	return nil
}

// GetCredentials returns the cluster's kubeconfig. Servers in the returned
// blob point at loopback; callers rewrite them before handing the blob to a
// sandboxed workload.
func (a *ClusterAdapter) GetCredentials(ctx context.Context, name string) (string, error) {
	out, err := a.output(ctx, "kubeconfig", "get", name)
	if err != nil {
		return "", fmt.Errorf("failed to get kubeconfig for cluster %s: %w", name, err)
	}
	return out, nil
}

func (a *ClusterAdapter) run(ctx context.Context, args ...string) error {
	cmd := exec.CommandContext(ctx, "k3d", args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return nil
}

func (a *ClusterAdapter) output(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "k3d", args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("%w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}
