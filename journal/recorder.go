package journal

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/OpenZilia/parsemap-test-harness/framework"
	"github.com/OpenZilia/parsemap-test-harness/geoclient"
	"github.com/OpenZilia/parsemap-test-harness/scenario"
	"github.com/OpenZilia/parsemap-test-harness/servicedef"
)

// Recorder writes every point created during one run to a journal. It is a scenario.Observer
// for fan-outs, and Tracking wraps an Operations with it for chains.
//
// A failure to record is logged once and counted; it never fails the run.
type Recorder struct {
	ctx      context.Context
	journal  Journal
	runID    string
	logger   framework.Logger
	now      func() time.Time
	failures atomic.Int64
	firstErr error
	lock     sync.Mutex
}

var _ scenario.Observer = (*Recorder)(nil)

// NewRecorder creates a Recorder with a new random run identifier. The context bounds the
// journal writes; it should outlive the run.
func NewRecorder(ctx context.Context, j Journal, logger framework.Logger) *Recorder {
	if logger == nil {
		logger = framework.NullLogger()
	}
	return &Recorder{ctx: ctx, journal: j, runID: uuid.NewString(), logger: logger, now: time.Now}
}

// RunID identifies the entries written by this recorder.
func (r *Recorder) RunID() string { return r.runID }

// Failures returns how many points could not be recorded.
func (r *Recorder) Failures() int { return int(r.failures.Load()) }

// Err returns the first recording error, if any.
func (r *Recorder) Err() error {
	r.lock.Lock()
	defer r.lock.Unlock()
	return r.firstErr
}

func (r *Recorder) fail(err error) {
	r.failures.Add(1)
	r.lock.Lock()
	first := r.firstErr == nil
	if first {
		r.firstErr = err
	}
	r.lock.Unlock()
	if first {
		r.logger.Printf("cannot write to journal %s, later failures will not be logged: %s", r.journal.DSN(), err)
	}
}

func (r *Recorder) PointCreated(point servicedef.EntityRef) {
	if err := r.journal.Record(r.ctx, Entry{Point: point, RunID: r.runID, Created: r.now().UTC()}); err != nil {
		r.fail(err)
	}
}

func (r *Recorder) forget(point servicedef.EntityRef) {
	if err := r.journal.Forget(r.ctx, point); err != nil {
		r.fail(err)
	}
}

func (r *Recorder) OperationFinished(string, time.Duration, error) {}

func (r *Recorder) SequenceFinished(error) {}

type trackingOperations struct {
	geoclient.Operations
	recorder *Recorder
}

// Tracking returns Operations that record every created point and forget every deleted one.
func Tracking(ops geoclient.Operations, r *Recorder) geoclient.Operations {
	if r == nil {
		return ops
	}
	return trackingOperations{Operations: ops, recorder: r}
}

func (t trackingOperations) CreatePoint(ctx context.Context, params servicedef.PointParams) (
	servicedef.EntityRef, error) {
	point, err := t.Operations.CreatePoint(ctx, params)
	if err == nil {
		t.recorder.PointCreated(point)
	}
	return point, err
}

func (t trackingOperations) DeletePoint(ctx context.Context, point servicedef.EntityRef) error {
	err := t.Operations.DeletePoint(ctx, point)
	if err == nil {
		t.recorder.forget(point)
	}
	return err
}
