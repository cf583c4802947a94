package geotest

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OpenZilia/parsemap-test-harness/framework/geotest/internal"
)

func TestCaptureStacktraceIncludingFramework(t *testing.T) {
	_ = Run(TestConfiguration{}, func(gt *T) {
		gt.Run("stack", func(*T) {
			stack := captureStacktrace(true, nil)
			require.Greater(t, len(stack), 1)
			assert.Equal(t, geotestPackage, stack[0].Package)
			assert.Contains(t, stack[0].Function, "TestCaptureStacktraceIncludingFramework.")
			assert.Equal(t, "(*T).run", stack[1].Function)
		})
	})
}

func TestCaptureStacktraceLeavesOutFramework(t *testing.T) {
	_ = Run(TestConfiguration{}, func(gt *T) {
		gt.Run("stack", func(*T) {
			internal.RunAction(func() {
				stack := captureStacktrace(false, nil)
				require.Len(t, stack, 1)
				assert.Equal(t, geotestPackage+"/internal", stack[0].Package)
				assert.Equal(t, "RunAction", stack[0].Function)
				assert.Equal(t, "test_helper.go", stack[0].FileName)
			})
		})
	})
}

func TestCaptureStacktraceLeavesOutHelpers(t *testing.T) {
	_ = Run(TestConfiguration{}, func(gt *T) {
		gt.Run("stack", func(*T) {
			outerStep(func() {
				innerStep(func() {
					stack := captureStacktrace(true, map[string]struct{}{geotestPackage + ".innerStep": {}})
					var names []string
					for _, s := range stack {
						names = append(names, s.Function)
					}
					assert.Contains(t, names, "outerStep")
					assert.NotContains(t, names, "innerStep")
				})
			})
		})
	})
}

func TestHelperRecordsCallingFunction(t *testing.T) {
	_ = Run(TestConfiguration{}, func(gt *T) {
		markingHelper(gt)
		assert.Contains(t, gt.helpers, geotestPackage+".markingHelper")
	})
}

func TestWithStacktraceDropsTestifyTrace(t *testing.T) {
	err := withStacktrace(errors.New("\n\tError Trace:\tquery_tests.go:40\n\tError:      \tNot equal: 1 != 2"), nil)
	assert.EqualError(t, err, "Not equal: 1 != 2")

	stack := []StacktraceInfo{{FileName: "query_tests.go", Package: modulePrefix + "geotests", Function: "doQueryTests", Line: 40}}
	err = withStacktrace(errors.New("no points"), stack)
	assert.Equal(t, ErrorWithStacktrace{Message: "no points", Stacktrace: stack}, err)
	assert.Equal(t, "geotests.doQueryTests (query_tests.go:40)", stack[0].String())
}

func TestSplitFunctionName(t *testing.T) {
	pkg, fn := splitFunctionName("github.com/OpenZilia/parsemap-test-harness/framework/geotest.(*T).Run")
	assert.Equal(t, "github.com/OpenZilia/parsemap-test-harness/framework/geotest", pkg)
	assert.Equal(t, "(*T).Run", fn)

	pkg, fn = splitFunctionName("main.main")
	assert.Equal(t, "main", pkg)
	assert.Equal(t, "main", fn)
}

//go:noinline
func outerStep(action func()) { action() }

//go:noinline
func innerStep(action func()) { action() }

//go:noinline
func markingHelper(t *T) { t.Helper() }
