package helpers

import "fmt"

// recorder is a TestContext that keeps failure messages. FailNow panics with the recorder so
// that code after it does not run, as with a real test.
type recorder struct {
	errors []string
	failed bool
}

func (r *recorder) Errorf(msgFormat string, msgArgs ...interface{}) {
	r.errors = append(r.errors, fmt.Sprintf(msgFormat, msgArgs...))
}

func (r *recorder) FailNow() {
	r.failed = true
	panic(r)
}

func (r *recorder) Helper() {}

// run calls action and reports whether it stopped by calling FailNow.
func (r *recorder) run(action func()) (stopped bool) {
	defer func() {
		if p := recover(); p != nil {
			if p != r {
				panic(p)
			}
			stopped = true
		}
	}()
	action()
	return false
}
