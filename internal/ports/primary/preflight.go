package primary

import "context"

// CheckResult is the outcome of one environment check.
type CheckResult struct {
	Name string
	OK   bool

	// Detail explains a failure and, where possible, how to fix it.
	Detail string
}

// Preflight is the primary port for environment verification. Lab creation
// runs it before touching any external system.
type Preflight interface {
	Run(ctx context.Context) []CheckResult
}
