package helpers

// TestContext is the part of *testing.T that assertion helpers need. *geotest.T implements it too,
// so the same helpers serve unit tests and contract tests.
type TestContext interface {
	Errorf(msgFormat string, msgArgs ...interface{})
	FailNow()
	Helper()
}
