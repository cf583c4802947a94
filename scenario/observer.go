package scenario

import (
	"time"

	"github.com/OpenZilia/parsemap-test-harness/servicedef"
)

// Observer is notified of the progress of a fan-out. Its methods are called concurrently.
type Observer interface {
	// OperationFinished is called after every operation, successful or not.
	OperationFinished(operation string, elapsed time.Duration, err error)
	// PointCreated is called as soon as a point exists, before the rest of its sequence.
	PointCreated(point servicedef.EntityRef)
	// SequenceFinished is called once per sequence that started.
	SequenceFinished(err error)
}

type multiObserver []Observer

// Observers combines observers into one. Nil values are ignored.
func Observers(observers ...Observer) Observer {
	var ret multiObserver
	for _, o := range observers {
		if o != nil {
			ret = append(ret, o)
		}
	}
	if len(ret) == 1 {
		return ret[0]
	}
	return ret
}

func (m multiObserver) OperationFinished(operation string, elapsed time.Duration, err error) {
	for _, o := range m {
		o.OperationFinished(operation, elapsed, err)
	}
}

func (m multiObserver) PointCreated(point servicedef.EntityRef) {
	for _, o := range m {
		o.PointCreated(point)
	}
}

func (m multiObserver) SequenceFinished(err error) {
	for _, o := range m {
		o.SequenceFinished(err)
	}
}
