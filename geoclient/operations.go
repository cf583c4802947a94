// Package geoclient defines the contract for issuing operations against the target service,
// and provides the HTTP implementation of it.
package geoclient

import (
	"context"
	"fmt"

	"github.com/OpenZilia/parsemap-test-harness/servicedef"
)

// Operation names, used in errors and logs.
const (
	OpCreateList        = "create list"
	OpCreatePoint       = "create point"
	OpAttachPointToList = "attach point to list"
	OpSetPointMeta      = "set point meta"
	OpSetListMeta       = "set list meta"
	OpQueryListPoints   = "query list points"
	OpDeletePoint       = "delete point"
)

// Operations is the set of logical actions the harness can take against the target service.
// Every method blocks until the service has answered or ctx is done. Use Go to run one
// asynchronously.
type Operations interface {
	CreateList(ctx context.Context, params servicedef.ListParams) (servicedef.EntityRef, error)
	CreatePoint(ctx context.Context, params servicedef.PointParams) (servicedef.EntityRef, error)
	AttachPointToList(ctx context.Context, list, point servicedef.EntityRef) error
	SetPointMeta(ctx context.Context, params servicedef.PointMetaParams) (servicedef.EntityRef, error)
	SetListMeta(ctx context.Context, params servicedef.ListMetaParams) (servicedef.EntityRef, error)
	QueryListPoints(
		ctx context.Context,
		list servicedef.EntityRef,
		query servicedef.PointsQuery,
	) ([]servicedef.PointView, error)
	DeletePoint(ctx context.Context, point servicedef.EntityRef) error
}

// RequestError is returned when an operation could not be completed: a transport failure,
// an unexpected status, or a response that does not have the expected form.
type RequestError struct {
	Operation string
	// Status is the HTTP status, or 0 if no response was received.
	Status  int
	Message string
	Err     error
}

func (e *RequestError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("%s failed: %s", e.Operation, e.Message)
	}
	return fmt.Sprintf("%s failed: HTTP %d: %s", e.Operation, e.Status, e.Message)
}

func (e *RequestError) Unwrap() error { return e.Err }
