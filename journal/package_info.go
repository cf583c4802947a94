// Package journal records the points that a harness run created, so that points left behind by
// an interrupted chain or by a stress run can be deleted later with the sweep command.
//
// A journal is opened from a DSN. The scheme selects the backend:
//
//	memory:                               in-process only; lost on exit
//	redis://host:6379/0                   a Redis hash
//	consul://host:8500/parsemap/points    a Consul KV prefix
//	dynamodb://table?region=eu-west-1     a DynamoDB table, created if missing
package journal
