// Package servicedef contains the wire-level definitions of the target service: its paths,
// headers, request parameters, and response views.
//
// These types are shared by the HTTP operation client, the in-process fake service, and the
// scenario engine, so that all three agree on one description of the protocol.
package servicedef
