// Package scenario drives operations against the target service in the two ways the contract
// tests need.
//
// A Chain runs dependent operations strictly in sequence, passing references created by
// earlier steps to later ones through a State, comparing results against expected shapes, and
// always running its teardown.
//
// A FanOut issues many independent create-and-attach sequences at once, with no ordering and,
// by default, no limit on how many are in flight. It is a load generator: it does not verify
// results, and by default it ignores individual failures.
package scenario
