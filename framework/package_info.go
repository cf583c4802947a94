// Package framework contains the low-level implementation of test harness infrastructure
// that can be reused for different kinds of tests. The base package contains shared
// types such as Logger; other components are in the subpackages harness and geotest.
//
// The general model is:
//
// 1. The test harness talks to a single target service over HTTP, which it verifies is
// reachable before any test runs.
//
// 2. Tests create entities within the target service, observe the results, and remove
// what they created when they are done.
package framework
