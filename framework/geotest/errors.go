package geotest

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"runtime"
	"strings"
)

// ErrorWithStacktrace is a test failure along with the calls that led to it.
type ErrorWithStacktrace struct {
	Message    string
	Stacktrace []StacktraceInfo
}

// StacktraceInfo is one call in an ErrorWithStacktrace.
type StacktraceInfo struct {
	FileName string
	Package  string
	Function string
	Line     int
}

//nolint:gochecknoglobals
var (
	geotestPackage = reflect.TypeOf(T{}).PkgPath()
	modulePrefix   = strings.TrimSuffix(geotestPackage, "framework/geotest")
	testifyTrace   = regexp.MustCompile(`^(?s:\s*Error Trace:.*\sError:\s*)`)
)

func (e ErrorWithStacktrace) Error() string { return e.Message }

func (s StacktraceInfo) String() string {
	return fmt.Sprintf("%s.%s (%s:%d)", strings.TrimPrefix(s.Package, modulePrefix), s.Function, s.FileName, s.Line)
}

// withStacktrace builds the error recorded for a failure. testify's assertions put their own
// trace at the start of the message; that is dropped in favor of stack.
func withStacktrace(err error, stack []StacktraceInfo) error {
	message := err.Error()
	if strings.Contains(message, "Error Trace:") {
		message = strings.TrimSpace(testifyTrace.ReplaceAllLiteralString(message, ""))
	}
	if len(stack) == 0 {
		return errors.New(message)
	}
	return ErrorWithStacktrace{Message: message, Stacktrace: stack}
}

// captureStacktrace lists the callers of its caller, stopping at the top-level Run. Frames from
// this package are left out unless includeFramework is set, and so are the functions that marked
// themselves with T.Helper.
func captureStacktrace(includeFramework bool, helpers map[string]struct{}) []StacktraceInfo {
	pcs := make([]uintptr, 64)
	pcs = pcs[:runtime.Callers(2, pcs)]
	frames := runtime.CallersFrames(pcs)

	stack := []StacktraceInfo{}
	for {
		frame, more := frames.Next()
		if frame.Function == "" {
			break
		}
		pkg, fn := splitFunctionName(frame.Function)
		if pkg == geotestPackage && fn == "Run" {
			break
		}
		_, isHelper := helpers[frame.Function]
		if !isHelper && (includeFramework || pkg != geotestPackage) {
			stack = append(stack, StacktraceInfo{
				FileName: frame.File[strings.LastIndex(frame.File, "/")+1:],
				Package:  pkg,
				Function: fn,
				Line:     frame.Line,
			})
		}
		if !more {
			break
		}
	}
	return stack
}

// splitFunctionName splits a qualified name such as "example.com/a/b.(*T).Run" at the first dot
// after the last slash.
func splitFunctionName(qualified string) (pkg, fn string) {
	lastSlash := strings.LastIndex(qualified, "/")
	dot := strings.Index(qualified[lastSlash+1:], ".")
	if dot < 0 {
		return qualified, ""
	}
	split := lastSlash + 1 + dot
	return qualified[:split], qualified[split+1:]
}
