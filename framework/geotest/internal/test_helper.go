// Package internal holds code that geotest's tests need to call from outside the geotest package.
package internal

// RunAction calls action. It shows up as a non-framework frame in stacktraces.
//
//go:noinline
func RunAction(action func()) {
	action()
}
