package scenario

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/OpenZilia/parsemap-test-harness/framework"
	"github.com/OpenZilia/parsemap-test-harness/geoclient"
	"github.com/OpenZilia/parsemap-test-harness/servicedef"

	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
	"github.com/sourcegraph/conc/pool"
)

// ErrorPolicy says what a fan-out does when one of its sequences fails.
type ErrorPolicy int

const (
	// IgnoreErrors counts and logs failed sequences but keeps going. This is the default.
	IgnoreErrors ErrorPolicy = iota
	// AbortOnError stops issuing sequences after the first failure and cancels those in flight.
	AbortOnError
)

func (p ErrorPolicy) String() string {
	if p == AbortOnError {
		return "abort"
	}
	return "ignore"
}

// MetaSpec is metadata written on each point of a fan-out before the point is attached.
type MetaSpec struct {
	UID     string
	Action  servicedef.MetaAction
	Content ldvalue.Value
	NoEvent bool
}

// FanOut issues Count independent sequences of "create point, optionally set its metadata,
// attach it to Container". Sequences are not ordered with respect to each other.
type FanOut struct {
	Count int

	// Container is the list that points are attached to. If empty, points are only created.
	Container servicedef.EntityRef

	// Generate returns the point to create for sequence i. It may be called concurrently.
	Generate func(i int) servicedef.PointParams

	// Meta, if set, returns the metadata to write for sequence i, or nil for none. It may be
	// called concurrently.
	Meta func(i int) *MetaSpec

	// ConcurrencyLimit caps the number of sequences in flight. Zero means no limit, in which
	// case Dispatch starts every sequence before returning.
	ConcurrencyLimit int

	OnError  ErrorPolicy
	Observer Observer

	// Logger receives a line for each failed sequence. It may be nil.
	Logger framework.Logger
}

// Summary counts the outcomes of a fan-out.
type Summary struct {
	Dispatched int
	Succeeded  int
	Failed     int
	// Canceled counts sequences that were cut short because the run was aborted or its context
	// was done, whether or not they had started an operation. They are not counted as Failed.
	Canceled   int
	FirstError error
	Duration   time.Duration
}

// Dispatch is a fan-out in progress.
type Dispatch struct {
	done       chan struct{}
	started    time.Time
	summary    Summary
	dispatched atomic.Int64
	succeeded  atomic.Int64
	failed     atomic.Int64
	canceled   atomic.Int64
	firstError error
	errorOnce  sync.Once
}

// Dispatch starts the fan-out and returns without waiting for any operation to complete. With
// no concurrency limit, every sequence has been handed to its own goroutine by the time this
// returns; with a limit, sequences are fed from a background goroutine as slots free up.
func (f FanOut) Dispatch(ctx context.Context, ops geoclient.Operations) *Dispatch {
	d := &Dispatch{done: make(chan struct{}), started: time.Now()}
	if f.Count <= 0 {
		d.finish()
		return d
	}

	ctx, cancel := context.WithCancel(ctx)
	p := pool.New().WithContext(ctx)
	if f.ConcurrencyLimit > 0 {
		p = p.WithMaxGoroutines(f.ConcurrencyLimit)
	}
	issue := func() {
		for i := 0; i < f.Count; i++ {
			if ctx.Err() != nil {
				break
			}
			d.dispatched.Add(1)
			p.Go(func(ctx context.Context) error {
				if ctx.Err() != nil {
					d.canceled.Add(1)
					return nil
				}
				if err := f.sequence(ctx, ops, i); err != nil {
					if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
						d.canceled.Add(1)
						return nil
					}
					d.failed.Add(1)
					d.errorOnce.Do(func() { d.firstError = err })
					if f.OnError == AbortOnError {
						cancel()
					} else if f.Logger != nil {
						f.Logger.Printf("sequence %d failed: %s", i, err)
					}
					return nil
				}
				d.succeeded.Add(1)
				return nil
			})
		}
	}
	complete := func() {
		_ = p.Wait()
		cancel()
		d.finish()
	}

	if f.ConcurrencyLimit > 0 {
		go func() {
			issue()
			complete()
		}()
	} else {
		issue()
		go complete()
	}
	return d
}

func (f FanOut) sequence(ctx context.Context, ops geoclient.Operations, i int) error {
	params := f.Generate(i)
	started := time.Now()
	point, err := ops.CreatePoint(ctx, params)
	f.observe(geoclient.OpCreatePoint, started, err)
	if err != nil {
		return f.sequenceDone(err)
	}
	if f.Observer != nil {
		f.Observer.PointCreated(point)
	}

	if f.Meta != nil {
		if meta := f.Meta(i); meta != nil {
			started = time.Now()
			_, err = ops.SetPointMeta(ctx, servicedef.PointMetaParams{
				Point:   point,
				List:    f.Container,
				UID:     meta.UID,
				Action:  meta.Action,
				Content: meta.Content,
				NoEvent: meta.NoEvent,
			})
			f.observe(geoclient.OpSetPointMeta, started, err)
			if err != nil {
				return f.sequenceDone(err)
			}
		}
	}

	if f.Container.IsDefined() {
		started = time.Now()
		err = ops.AttachPointToList(ctx, f.Container, point)
		f.observe(geoclient.OpAttachPointToList, started, err)
	}
	return f.sequenceDone(err)
}

func (f FanOut) observe(operation string, started time.Time, err error) {
	if f.Observer != nil {
		f.Observer.OperationFinished(operation, time.Since(started), err)
	}
}

func (f FanOut) sequenceDone(err error) error {
	if f.Observer != nil {
		f.Observer.SequenceFinished(err)
	}
	return err
}

func (d *Dispatch) finish() {
	d.summary = Summary{
		Dispatched: int(d.dispatched.Load()),
		Succeeded:  int(d.succeeded.Load()),
		Failed:     int(d.failed.Load()),
		Canceled:   int(d.canceled.Load()),
		FirstError: d.firstError,
		Duration:   time.Since(d.started),
	}
	close(d.done)
}

// Dispatched returns the number of sequences issued so far.
func (d *Dispatch) Dispatched() int {
	return int(d.dispatched.Load())
}

// Done is closed when every issued sequence has finished.
func (d *Dispatch) Done() <-chan struct{} {
	return d.done
}

// Wait blocks until every issued sequence has finished and returns the counts. The fan-out
// itself never needs this to be called.
func (d *Dispatch) Wait() Summary {
	<-d.done
	return d.summary
}

// CreateContainer creates the list that the sequences of a fan-out are attached to.
func CreateContainer(ctx context.Context, ops geoclient.Operations, params servicedef.ListParams) (
	servicedef.EntityRef, error) {
	return geoclient.Go(ctx, func(ctx context.Context) (servicedef.EntityRef, error) {
		return ops.CreateList(ctx, params)
	}).Await(ctx)
}
