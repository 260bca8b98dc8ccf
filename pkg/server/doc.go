// Package server wires the hybrid identity driver and its stores into
// an HTTP server. Endpoints are registered by the endpoints package.
package server
