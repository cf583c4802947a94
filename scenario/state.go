package scenario

import (
	"fmt"

	"github.com/OpenZilia/parsemap-test-harness/framework/matchers"
	"github.com/OpenZilia/parsemap-test-harness/servicedef"

	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
	"golang.org/x/exp/slices"
)

// Ref names an entity reference held in a State, such as "list" or "point".
type Ref string

type metaWrite struct {
	ref     Ref
	id      servicedef.EntityRef
	target  servicedef.EntityRef
	list    servicedef.EntityRef
	uid     string
	action  servicedef.MetaAction
	content ldvalue.Value
}

// State accumulates the references created by the steps of one chain run. Only the chain's
// driver loop writes to it, between steps.
type State struct {
	merge      MergeModel
	refs       map[Ref]servicedef.EntityRef
	results    map[string]ldvalue.Value
	points     []servicedef.EntityRef
	deleted    map[servicedef.EntityRef]bool
	metaWrites []metaWrite
	unresolved []Ref
}

func newState(merge MergeModel) *State {
	if merge == nil {
		merge = UnionOfKeys
	}
	return &State{
		merge:   merge,
		refs:    make(map[Ref]servicedef.EntityRef),
		results: make(map[string]ldvalue.Value),
		deleted: make(map[servicedef.EntityRef]bool),
	}
}

// Get returns a resolved reference. If the reference has not been resolved, Get returns an
// empty reference and the step that called it fails with an UnresolvedReferenceError before
// its operation is invoked.
func (s *State) Get(ref Ref) servicedef.EntityRef {
	if value, ok := s.refs[ref]; ok {
		return value
	}
	if !slices.Contains(s.unresolved, ref) {
		s.unresolved = append(s.unresolved, ref)
	}
	return ""
}

// Has returns true if the reference has been resolved.
func (s *State) Has(ref Ref) bool {
	_, ok := s.refs[ref]
	return ok
}

// Result returns the JSON form of the output of a completed step, or an undefined value.
func (s *State) Result(step string) ldvalue.Value {
	return s.results[step]
}

// CreatedPoints returns the points created so far that have not been deleted.
func (s *State) CreatedPoints() []servicedef.EntityRef {
	var ret []servicedef.EntityRef
	for _, p := range s.points {
		if !s.deleted[p] {
			ret = append(ret, p)
		}
	}
	return ret
}

func (s *State) resolve(ref Ref, value servicedef.EntityRef) {
	if ref != "" {
		s.refs[ref] = value
	}
}

func (s *State) takeUnresolved() []Ref {
	ret := s.unresolved
	s.unresolved = nil
	return ret
}

// MetaContent returns the content that the service is expected to hold for a metadata uid,
// after combining every write made so far in this run with the chain's merge model. Writes with
// the "display" action replace the content. The result is undefined if there were no writes.
func (s *State) MetaContent(target, list servicedef.EntityRef, uid string) ldvalue.Value {
	content, _ := s.metaHistory(target, list, uid)
	return content
}

func (s *State) metaHistory(target, list servicedef.EntityRef, uid string) (ldvalue.Value, []metaWrite) {
	var content ldvalue.Value
	var writes []metaWrite
	for _, w := range s.metaWrites {
		if w.target != target || w.list != list || w.uid != uid {
			continue
		}
		if len(writes) == 0 || w.action == servicedef.MetaDisplay {
			content = w.content
		} else {
			content = s.merge(content, w.content)
		}
		writes = append(writes, w)
	}
	return content, writes
}

// ExpectedMeta returns the shape of the metadata record a query is expected to show for the
// write that resolved ref, with its content merged from all writes sharing the same uid. If
// there was more than one write, any identifier is accepted.
func (s *State) ExpectedMeta(ref Ref) matchers.Shape {
	var found *metaWrite
	for i := range s.metaWrites {
		if s.metaWrites[i].ref == ref {
			found = &s.metaWrites[i]
		}
	}
	if found == nil {
		s.Get(ref)
		return matchers.AnyValue()
	}
	content, writes := s.metaHistory(found.target, found.list, found.uid)
	last := writes[len(writes)-1]
	var identifier interface{} = last.id.String()
	if len(writes) > 1 {
		identifier = matchers.AnyString()
	}
	var list interface{}
	if found.list.IsDefined() {
		list = found.list.String()
	}
	var expectedContent interface{} = content
	if t := content.Type(); t != ldvalue.ObjectType && t != ldvalue.ArrayType {
		// the service returns the encoded string, which is only decoded for objects and arrays
		expectedContent = content.JSONString()
	}
	return matchers.ShapeOf(map[string]interface{}{
		"identifier": identifier,
		"uid":        found.uid,
		"action":     string(last.action),
		"content":    expectedContent,
		"list":       list,
	})
}

func (s *State) String() string {
	return fmt.Sprintf("%v", s.refs)
}
