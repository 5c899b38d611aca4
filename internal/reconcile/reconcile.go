// Package reconcile runs a sequence of desired-state resources against
// the machine: check each one, apply it only if needed, and report one
// outcome per resource. Reruns converge without duplicating work.
package reconcile

import (
	"context"
	"fmt"
)

// Resource is one piece of externally owned state latchkey manages.
// Implementations must be idempotent: Apply after a satisfied Check is
// never called, and Apply itself may be retried across runs.
type Resource interface {
	// Name is a short human-readable label for result output.
	Name() string

	// Check reports whether the resource is already in its desired state.
	Check(ctx context.Context) (bool, error)

	// Apply moves the resource into its desired state.
	Apply(ctx context.Context) error
}

// Advisor marks resources whose failures are advisory: reported, but
// never fatal to the run (service masking, store seeding).
type Advisor interface {
	Advisory() bool
}

// Outcome classifies what happened to a single resource.
type Outcome int

const (
	// Applied means the resource was out of state and has been fixed.
	Applied Outcome = iota

	// AlreadySatisfied means no mutation was needed.
	AlreadySatisfied

	// WouldApply is the dry-run stand-in for Applied.
	WouldApply

	// Advisory means a best-effort resource failed; the run continued.
	Advisory

	// Failed means a required resource failed; the run stopped here.
	Failed
)

// String returns a human-readable form of the outcome.
func (o Outcome) String() string {
	switch o {
	case Applied:
		return "applied"
	case AlreadySatisfied:
		return "already satisfied"
	case WouldApply:
		return "would apply"
	case Advisory:
		return "advisory"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Result is the recorded outcome for one resource.
type Result struct {
	Name    string
	Outcome Outcome
	Err     error
}

// Options configures a reconciliation run.
type Options struct {
	// DryRun checks every resource but applies nothing.
	DryRun bool
}

// Run reconciles the resources strictly in order. The first fatal
// failure stops the run and is returned; everything applied before it
// stays applied (there is no rollback). Advisory failures are recorded
// and skipped over.
func Run(ctx context.Context, resources []Resource, opts Options) ([]Result, error) {
	var results []Result

	for _, r := range resources {
		result, fatal := runOne(ctx, r, opts)
		results = append(results, result)
		if fatal {
			return results, fmt.Errorf("%s: %w", result.Name, result.Err)
		}
	}
	return results, nil
}

func runOne(ctx context.Context, r Resource, opts Options) (Result, bool) {
	advisory := false
	if a, ok := r.(Advisor); ok {
		advisory = a.Advisory()
	}

	satisfied, err := r.Check(ctx)
	if err != nil {
		if advisory {
			return Result{Name: r.Name(), Outcome: Advisory, Err: err}, false
		}
		return Result{Name: r.Name(), Outcome: Failed, Err: err}, true
	}
	if satisfied {
		return Result{Name: r.Name(), Outcome: AlreadySatisfied}, false
	}

	if opts.DryRun {
		return Result{Name: r.Name(), Outcome: WouldApply}, false
	}

	if err := r.Apply(ctx); err != nil {
		if advisory {
			return Result{Name: r.Name(), Outcome: Advisory, Err: err}, false
		}
		return Result{Name: r.Name(), Outcome: Failed, Err: err}, true
	}
	return Result{Name: r.Name(), Outcome: Applied}, false
}
