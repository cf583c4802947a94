package scenario

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/OpenZilia/parsemap-test-harness/framework"
	"github.com/OpenZilia/parsemap-test-harness/framework/helpers"
	"github.com/OpenZilia/parsemap-test-harness/framework/matchers"
	"github.com/OpenZilia/parsemap-test-harness/geoclient"
	"github.com/OpenZilia/parsemap-test-harness/servicedef"

	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
)

// Chain is a sequence of dependent operations. Steps run one at a time, in order; each step's
// input is built only after the previous step's result has arrived. The first step that fails
// stops the sequence. Teardown steps run afterward in every case.
type Chain struct {
	Name  string
	Steps []Step

	// Teardown is run after Steps, whether or not they succeeded. A teardown step that reads an
	// unresolved reference is skipped, and failures are only logged. If Teardown is nil, every
	// point created by the chain and not already deleted is deleted.
	Teardown []Step

	// Merge is the model used to compute expected metadata content. The default is UnionOfKeys.
	Merge MergeModel

	// StepTimeout, if positive, bounds each step separately from the context passed to Run.
	StepTimeout time.Duration
}

// Report is the outcome of one run of a chain.
type Report struct {
	Chain string

	// Completed lists the names of the steps that completed, including teardown steps.
	Completed []string

	// Failure is the error that stopped the chain, or nil.
	Failure *StepError

	Mismatches    []AssertionMismatch
	CleanupErrors []CleanupError

	Duration time.Duration
}

// OK returns true if no step failed and every result matched its expectation. Cleanup errors
// do not count.
func (r Report) OK() bool {
	return r.Failure == nil && len(r.Mismatches) == 0
}

// Errors returns the failure and the mismatches as errors.
func (r Report) Errors() []error {
	var ret []error
	if r.Failure != nil {
		ret = append(ret, r.Failure)
	}
	for _, m := range r.Mismatches {
		ret = append(ret, m)
	}
	return ret
}

func (r Report) String() string {
	if r.OK() {
		return fmt.Sprintf("%s: passed (%d steps in %s)", r.Chain, len(r.Completed), r.Duration)
	}
	var lines []string
	for _, e := range r.Errors() {
		lines = append(lines, e.Error())
	}
	return fmt.Sprintf("%s: failed\n  %s", r.Chain, strings.Join(lines, "\n  "))
}

// Run executes the chain against ops. The logger receives one line per step; it may be nil.
func (c Chain) Run(ctx context.Context, ops geoclient.Operations, logger framework.Logger) Report {
	if logger == nil {
		logger = framework.NullLogger()
	}
	started := time.Now()
	state := newState(c.Merge)
	report := Report{Chain: c.Name}

	for _, step := range c.Steps {
		if err := ctx.Err(); err != nil {
			report.Failure = &StepError{Step: step.Name, Operation: step.Operation, Err: err}
			break
		}
		result, err := c.runStep(ctx, step, ops, state)
		if err != nil {
			logger.Printf("step %q failed: %s", step.Name, err)
			report.Failure = &StepError{Step: step.Name, Operation: step.Operation, Err: err}
			break
		}
		report.Completed = append(report.Completed, step.Name)
		logger.Printf("step %q completed: %s", step.Name, helpers.CanonicalizedJSONString(result))

		if step.expect != nil {
			expected := matchers.ShapeOf(step.expect(state))
			if refs := state.takeUnresolved(); len(refs) != 0 {
				report.Failure = &StepError{Step: step.Name, Operation: step.Operation,
					Err: &UnresolvedReferenceError{Refs: refs}}
				break
			}
			if ok, mismatch := matchers.MatchShape(expected, result); !ok {
				m := AssertionMismatch{Step: step.Name, Operation: step.Operation, Mismatch: mismatch}
				logger.Printf("%s", m)
				report.Mismatches = append(report.Mismatches, m)
			}
		}
	}

	// teardown must still get a chance to run if the chain was canceled
	cleanupCtx := context.WithoutCancel(ctx)
	teardown := c.Teardown
	if teardown == nil {
		teardown = []Step{deleteCreatedPoints()}
	}
	for _, step := range teardown {
		_, err := c.runStep(cleanupCtx, step, ops, state)
		var unresolved *UnresolvedReferenceError
		switch {
		case errors.As(err, &unresolved):
			logger.Printf("skipping cleanup step %q: %s", step.Name, err)
		case err != nil:
			ce := CleanupError{Step: step.Name, Operation: step.Operation, Err: err}
			logger.Printf("%s", ce)
			report.CleanupErrors = append(report.CleanupErrors, ce)
		default:
			report.Completed = append(report.Completed, step.Name)
		}
	}

	report.Duration = time.Since(started)
	return report
}

func (c Chain) runStep(
	ctx context.Context,
	step Step,
	ops geoclient.Operations,
	state *State,
) (ldvalue.Value, error) {
	if c.StepTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.StepTimeout)
		defer cancel()
	}
	result, err := step.run(ctx, ops, state)
	if err == nil {
		state.results[step.Name] = result
	}
	return result, err
}

// deleteCreatedPoints is the default teardown. It deletes every point that is still alive and
// reports all failures together.
func deleteCreatedPoints() Step {
	return NewStep("delete created points", geoclient.OpDeletePoint,
		func(state *State) []servicedef.EntityRef { return state.CreatedPoints() },
		func(ctx context.Context, ops geoclient.Operations, points []servicedef.EntityRef) ([]servicedef.EntityRef, error) {
			var deleted []servicedef.EntityRef
			var errs []error
			for _, p := range points {
				if err := ops.DeletePoint(ctx, p); err != nil {
					errs = append(errs, err)
					continue
				}
				deleted = append(deleted, p)
			}
			return deleted, errors.Join(errs...)
		},
		func(state *State, _ []servicedef.EntityRef, deleted []servicedef.EntityRef) ldvalue.Value {
			for _, p := range deleted {
				state.deleted[p] = true
			}
			return ldvalue.Int(len(deleted))
		},
	)
}
