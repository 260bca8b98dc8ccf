// Package model holds the GORM models for the SQL identity backend.
//
// Tables:
//
//   - users: locally-managed identities (password optional)
//   - projects: tenants
//   - roles: role definitions
//   - user_project_metadata: (user_id, project_id, role_id) grants
//
// user_project_metadata rows for directory users reference ids that
// exist only in LDAP; no user or group objects are mirrored from the
// directory into SQL.
package model
