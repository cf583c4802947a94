package journal

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"

	"github.com/sourcegraph/conc/pool"

	"github.com/OpenZilia/parsemap-test-harness/framework"
	"github.com/OpenZilia/parsemap-test-harness/geoclient"
)

// SweepResult counts the outcomes of a sweep.
type SweepResult struct {
	Deleted int
	// Missing counts points the service no longer had. They are forgotten like deleted ones.
	Missing int
	Failed  int
}

// Sweep deletes every point in the journal, forgetting each one the service confirms is gone.
// If runID is not empty, only that run's points are swept. Points that cannot be deleted stay
// in the journal for the next sweep.
func Sweep(
	ctx context.Context,
	j Journal,
	ops geoclient.Operations,
	runID string,
	concurrency int,
	logger framework.Logger,
) (SweepResult, error) {
	if logger == nil {
		logger = framework.NullLogger()
	}
	entries, err := j.Entries(ctx)
	if err != nil {
		return SweepResult{}, err
	}
	var deleted, missing, failed atomic.Int64
	p := pool.New().WithContext(ctx).WithMaxGoroutines(max(1, concurrency))
	for _, e := range entries {
		if runID != "" && e.RunID != runID {
			continue
		}
		p.Go(func(ctx context.Context) error {
			err := ops.DeletePoint(ctx, e.Point)
			var re *geoclient.RequestError
			switch {
			case err == nil:
				deleted.Add(1)
			case errors.As(err, &re) && re.Status == http.StatusNotFound:
				missing.Add(1)
			default:
				failed.Add(1)
				logger.Printf("cannot delete point %s: %s", e.Point, err)
				return nil
			}
			if err := j.Forget(ctx, e.Point); err != nil {
				logger.Printf("deleted point %s but cannot remove it from the journal: %s", e.Point, err)
			}
			return nil
		})
	}
	_ = p.Wait()
	result := SweepResult{Deleted: int(deleted.Load()), Missing: int(missing.Load()), Failed: int(failed.Load())}
	return result, ctx.Err()
}
