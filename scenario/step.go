package scenario

import (
	"context"

	"github.com/OpenZilia/parsemap-test-harness/geoclient"
	"github.com/OpenZilia/parsemap-test-harness/servicedef"

	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
)

// Step is one operation of a chain. Build steps with NewStep or one of the typed constructors
// such as CreatePoint.
type Step struct {
	Name      string
	Operation string

	run    func(ctx context.Context, ops geoclient.Operations, state *State) (ldvalue.Value, error)
	expect func(*State) interface{}
}

// NewStep creates a step from three functions. input builds the operation's input from the
// references resolved so far; it is not called until every earlier step has completed.
// invoke performs the operation. output records whatever the operation resolved into the state
// and returns the JSON form of the result, which is what Expect is compared against.
func NewStep[In, Out any](
	name, operation string,
	input func(*State) In,
	invoke func(context.Context, geoclient.Operations, In) (Out, error),
	output func(*State, In, Out) ldvalue.Value,
) Step {
	return Step{
		Name:      name,
		Operation: operation,
		run: func(ctx context.Context, ops geoclient.Operations, state *State) (ldvalue.Value, error) {
			in := input(state)
			if refs := state.takeUnresolved(); len(refs) != 0 {
				return ldvalue.Null(), &UnresolvedReferenceError{Refs: refs}
			}
			pending := geoclient.Go(ctx, func(ctx context.Context) (Out, error) {
				return invoke(ctx, ops, in)
			})
			out, err := pending.Await(ctx)
			if err != nil {
				return ldvalue.Null(), err
			}
			return output(state, in, out), nil
		},
	}
}

// Expect attaches an expected result to the step. The function is called after the step has
// completed, and its return value is converted with matchers.ShapeOf.
func (s Step) Expect(expected func(*State) interface{}) Step {
	s.expect = expected
	return s
}

// Named returns a copy of the step with a different name.
func (s Step) Named(name string) Step {
	s.Name = name
	return s
}

func recordRef(as Ref) func(*State, servicedef.EntityRef) ldvalue.Value {
	return func(state *State, ref servicedef.EntityRef) ldvalue.Value {
		state.resolve(as, ref)
		return ldvalue.ObjectBuild().SetString("identifier", ref.String()).Build()
	}
}

// CreateList creates a list and resolves its reference as the given name.
func CreateList(as Ref, params func(*State) servicedef.ListParams) Step {
	return NewStep("create list "+string(as), geoclient.OpCreateList,
		params,
		func(ctx context.Context, ops geoclient.Operations, in servicedef.ListParams) (servicedef.EntityRef, error) {
			return ops.CreateList(ctx, in)
		},
		func(state *State, _ servicedef.ListParams, ref servicedef.EntityRef) ldvalue.Value {
			return recordRef(as)(state, ref)
		},
	)
}

// CreatePoint creates a point and resolves its reference as the given name.
func CreatePoint(as Ref, params func(*State) servicedef.PointParams) Step {
	return NewStep("create point "+string(as), geoclient.OpCreatePoint,
		params,
		func(ctx context.Context, ops geoclient.Operations, in servicedef.PointParams) (servicedef.EntityRef, error) {
			return ops.CreatePoint(ctx, in)
		},
		func(state *State, _ servicedef.PointParams, ref servicedef.EntityRef) ldvalue.Value {
			state.points = append(state.points, ref)
			return recordRef(as)(state, ref)
		},
	)
}

type listAndPoint struct{ list, point servicedef.EntityRef }

// AttachPointToList adds a point to a list.
func AttachPointToList(list, point Ref) Step {
	return NewStep("attach "+string(point)+" to "+string(list), geoclient.OpAttachPointToList,
		func(state *State) listAndPoint {
			return listAndPoint{list: state.Get(list), point: state.Get(point)}
		},
		func(ctx context.Context, ops geoclient.Operations, in listAndPoint) (struct{}, error) {
			return struct{}{}, ops.AttachPointToList(ctx, in.list, in.point)
		},
		func(*State, listAndPoint, struct{}) ldvalue.Value { return ldvalue.Null() },
	)
}

// SetPointMeta writes metadata on a point and resolves the metadata reference as the given
// name. The write is remembered so that State.MetaContent and State.ExpectedMeta can compute
// the merged content.
func SetPointMeta(as Ref, params func(*State) servicedef.PointMetaParams) Step {
	return NewStep("set point meta "+string(as), geoclient.OpSetPointMeta,
		params,
		func(ctx context.Context, ops geoclient.Operations, in servicedef.PointMetaParams) (servicedef.EntityRef, error) {
			return ops.SetPointMeta(ctx, in)
		},
		func(state *State, in servicedef.PointMetaParams, ref servicedef.EntityRef) ldvalue.Value {
			state.metaWrites = append(state.metaWrites, metaWrite{
				ref: as, id: ref, target: in.Point, list: in.List, uid: in.UID, action: in.Action, content: in.Content,
			})
			return recordRef(as)(state, ref)
		},
	)
}

// SetListMeta writes metadata on a list and resolves the metadata reference as the given name.
func SetListMeta(as Ref, params func(*State) servicedef.ListMetaParams) Step {
	return NewStep("set list meta "+string(as), geoclient.OpSetListMeta,
		params,
		func(ctx context.Context, ops geoclient.Operations, in servicedef.ListMetaParams) (servicedef.EntityRef, error) {
			return ops.SetListMeta(ctx, in)
		},
		func(state *State, in servicedef.ListMetaParams, ref servicedef.EntityRef) ldvalue.Value {
			state.metaWrites = append(state.metaWrites, metaWrite{
				ref: as, id: ref, target: in.List, uid: in.UID, action: in.Action, content: in.Content,
			})
			return recordRef(as)(state, ref)
		},
	)
}

// QueryListPoints queries the points of a list. Its result, for Expect, is the JSON array of
// point views exactly as the service returned them.
func QueryListPoints(list Ref, query servicedef.PointsQuery) Step {
	name := "query points of " + string(list)
	return NewStep(name, geoclient.OpQueryListPoints,
		func(state *State) servicedef.EntityRef { return state.Get(list) },
		func(ctx context.Context, ops geoclient.Operations, ref servicedef.EntityRef) ([]servicedef.PointView, error) {
			return ops.QueryListPoints(ctx, ref, query)
		},
		func(state *State, _ servicedef.EntityRef, views []servicedef.PointView) ldvalue.Value {
			return servicedef.RawPointViews(views)
		},
	)
}

// DeletePoint deletes a point. In a chain's teardown, it is skipped if the point was never
// created.
func DeletePoint(point Ref) Step {
	return NewStep("delete point "+string(point), geoclient.OpDeletePoint,
		func(state *State) servicedef.EntityRef { return state.Get(point) },
		func(ctx context.Context, ops geoclient.Operations, ref servicedef.EntityRef) (struct{}, error) {
			return struct{}{}, ops.DeletePoint(ctx, ref)
		},
		func(state *State, ref servicedef.EntityRef, _ struct{}) ldvalue.Value {
			state.deleted[ref] = true
			return ldvalue.Null()
		},
	)
}
