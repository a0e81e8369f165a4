// Package lab contains the pure business logic for lab lifecycle operations.
// Guards are pure functions that evaluate preconditions without side effects.
package lab

import (
	"fmt"
	"strings"
)

// GuardResult represents the outcome of a guard evaluation.
type GuardResult struct {
	Allowed bool
	Reason  string
}

// Error converts the guard result to an error if not allowed.
func (r GuardResult) Error() error {
	if r.Allowed {
		return nil
	}
	return fmt.Errorf("%s", r.Reason)
}

// ValidateName checks that a lab name satisfies every downstream consumer:
// cluster name, session name, worktree directory, and proxy route id all
// derive from it. Lowercase alphanumerics and inner hyphens only.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("lab name must not be empty")
	}
	if strings.HasPrefix(name, "-") || strings.HasSuffix(name, "-") {
		return fmt.Errorf("lab name %q must not start or end with a hyphen", name)
	}
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= '0' && r <= '9':
		case r == '-':
		default:
			return fmt.Errorf("lab name %q contains invalid character %q (use lowercase letters, digits, hyphens)", name, r)
		}
	}
	return nil
}

// CreateLabContext provides context for lab creation guards.
type CreateLabContext struct {
	Name            string
	Directory       string
	DirectoryExists bool
	NameInRegistry  bool
}

// DestroyLabContext provides context for lab destruction guards.
type DestroyLabContext struct {
	Name           string
	NameInRegistry bool
	KnownLabs      []string
}

// CanCreateLab evaluates whether a lab can be created.
// Rules:
// - Name must be valid for all downstream resource names
// - Target directory must not already exist
// - Name must not already be registered
func CanCreateLab(ctx CreateLabContext) GuardResult {
	if err := ValidateName(ctx.Name); err != nil {
		return GuardResult{Allowed: false, Reason: err.Error()}
	}

	if ctx.DirectoryExists {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("directory %s already exists", ctx.Directory),
		}
	}

	if ctx.NameInRegistry {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("lab %q already exists in registry", ctx.Name),
		}
	}

	return GuardResult{Allowed: true}
}

// CanDestroyLab evaluates whether a lab can be destroyed.
// Rules:
// - Name must exist in the registry (destruction is not idempotent)
func CanDestroyLab(ctx DestroyLabContext) GuardResult {
	if !ctx.NameInRegistry {
		reason := fmt.Sprintf("lab %q not found in registry", ctx.Name)
		if len(ctx.KnownLabs) > 0 {
			reason += fmt.Sprintf(" (known labs: %s)", strings.Join(ctx.KnownLabs, ", "))
		}
		return GuardResult{Allowed: false, Reason: reason}
	}
	return GuardResult{Allowed: true}
}
