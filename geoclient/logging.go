package geoclient

import (
	"context"
	"time"

	"github.com/OpenZilia/parsemap-test-harness/framework"
	"github.com/OpenZilia/parsemap-test-harness/servicedef"
)

type loggingOperations struct {
	target Operations
	logger framework.Logger
}

// Logging returns an Operations that logs each call to the target and its outcome.
func Logging(target Operations, logger framework.Logger) Operations {
	if logger == nil {
		return target
	}
	return loggingOperations{target: target, logger: logger}
}

func (l loggingOperations) log(operation string, detail interface{}, started time.Time, result interface{}, err error) {
	elapsed := time.Since(started).Round(time.Millisecond)
	if err != nil {
		l.logger.Printf("%s %v failed after %s: %s", operation, detail, elapsed, err)
		return
	}
	if result == nil {
		l.logger.Printf("%s %v done in %s", operation, detail, elapsed)
		return
	}
	l.logger.Printf("%s %v => %v (%s)", operation, detail, result, elapsed)
}

func (l loggingOperations) CreateList(ctx context.Context, params servicedef.ListParams) (servicedef.EntityRef, error) {
	started := time.Now()
	ref, err := l.target.CreateList(ctx, params)
	l.log(OpCreateList, params.Body().JSONString(), started, ref, err)
	return ref, err
}

func (l loggingOperations) CreatePoint(ctx context.Context, params servicedef.PointParams) (servicedef.EntityRef, error) {
	started := time.Now()
	ref, err := l.target.CreatePoint(ctx, params)
	l.log(OpCreatePoint, params.Body().JSONString(), started, ref, err)
	return ref, err
}

func (l loggingOperations) AttachPointToList(ctx context.Context, list, point servicedef.EntityRef) error {
	started := time.Now()
	err := l.target.AttachPointToList(ctx, list, point)
	l.log(OpAttachPointToList, servicedef.ListPointPath(list, point), started, nil, err)
	return err
}

func (l loggingOperations) SetPointMeta(
	ctx context.Context,
	params servicedef.PointMetaParams,
) (servicedef.EntityRef, error) {
	started := time.Now()
	ref, err := l.target.SetPointMeta(ctx, params)
	l.log(OpSetPointMeta, params.Body().JSONString(), started, ref, err)
	return ref, err
}

func (l loggingOperations) SetListMeta(
	ctx context.Context,
	params servicedef.ListMetaParams,
) (servicedef.EntityRef, error) {
	started := time.Now()
	ref, err := l.target.SetListMeta(ctx, params)
	l.log(OpSetListMeta, params.Body().JSONString(), started, ref, err)
	return ref, err
}

func (l loggingOperations) QueryListPoints(
	ctx context.Context,
	list servicedef.EntityRef,
	query servicedef.PointsQuery,
) ([]servicedef.PointView, error) {
	started := time.Now()
	views, err := l.target.QueryListPoints(ctx, list, query)
	var result interface{}
	if err == nil {
		result = servicedef.RawPointViews(views).JSONString()
	}
	l.log(OpQueryListPoints, servicedef.ListPointsPath(list)+"?"+query.Values().Encode(), started, result, err)
	return views, err
}

func (l loggingOperations) DeletePoint(ctx context.Context, point servicedef.EntityRef) error {
	started := time.Now()
	err := l.target.DeletePoint(ctx, point)
	l.log(OpDeletePoint, point, started, nil, err)
	return err
}
