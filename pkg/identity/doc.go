// Package identity defines the pluggable identity-driver contract.
//
// A Driver answers authentication and user-lookup requests. Two
// concrete backends exist:
//
//   - sqlident: users, projects and roles persisted in PostgreSQL
//   - ldapident: read-only users authenticated by directory bind
//
// The hybrid package composes the two into the driver the server
// actually runs: SQL-first authentication with LDAP fallback, reads
// served from SQL, role grants written to SQL keyed by the
// LDAP-provided user id.
//
// User records returned by any driver are filtered: password hashes
// and bind material never leave the backend that holds them.
package identity
