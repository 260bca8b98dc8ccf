// Package audit emits security audit events for the hybrid backend.
//
// Events are written as RFC5424 syslog lines to stdout and, when
// AUDIT_DATABASE_URL is set, persisted to a messages table.
//
// Event types:
//
//   - authn: an authentication attempt, tagged with the backend
//     (sql or ldap) that answered it
//   - provision: creation of the default project/role assignment on a
//     directory user's first login
//   - grant/revoke: explicit role assignment changes
//
// Set HYBRID_AUDIT_ENABLED=false to disable.
package audit
