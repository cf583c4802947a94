// Package geotests contains the contract tests run against the geo service.
//
// Tests in this package use other packages as follows:
//
// data: fixture contents and data file loader
//
// geotest: the basic test scope framework
//
// scenario: chains of dependent operations and the fan-out driver
//
// servicedef: types used in communication with the service
package geotests
