// Package store defines storage abstractions for the SQL side of the
// hybrid backend: projects, roles, role assignments and health.
//
// Interfaces are defined here; the gorm subpackage implements them
// against PostgreSQL. Endpoints and the hybrid driver depend only on
// the interfaces so tests can substitute mocks.
package store
