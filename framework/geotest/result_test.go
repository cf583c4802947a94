package geotest

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTestID(t *testing.T) {
	var root TestID
	assert.Equal(t, "", root.String())

	query := root.Plus("query")
	limit := query.Plus("limit is capped")
	paging := query.Plus("paging")
	assert.Equal(t, "query/limit is capped", limit.String())
	assert.Equal(t, "query/paging", paging.String())
	assert.Equal(t, TestID{"query"}, query, "Plus must not modify its receiver")
}

func TestTestFailure(t *testing.T) {
	err := TestFailure{ID: TestID{"access", "wrong key"}, Err: errors.New("status 200")}
	assert.EqualError(t, err, "[access/wrong key]: status 200")
}

func TestResultsOK(t *testing.T) {
	assert.True(t, Results{NonCriticalFailures: []TestResult{{Failed: true}}}.OK())
	assert.False(t, Results{Failures: []TestResult{{Failed: true}}}.OK())
}
