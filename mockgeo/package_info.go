// Package mockgeo is an in-memory fake of the target geo service.
//
// Store holds lists, points and metadata records. Service exposes a Store over the same REST
// protocol as the real service, and Client calls a Store directly for tests that do not need
// HTTP. Both can be told to fail upcoming calls with FailNext.
//
// The fake does not filter points by geohash: a query returns every point of the list, in the
// order they were attached, subject to the limit and last_point_date parameters.
package mockgeo
