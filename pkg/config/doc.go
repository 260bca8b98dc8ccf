// Package config provides configuration management for the hybrid
// identity backend.
//
// Configuration is loaded from an optional YAML file and overridden by
// environment variables; each attribute remembers which source set it.
//
// # Configuration Sources
//
//   - /etc/keystone-hybrid/config/hybrid.yml (or HYBRID_CONFIG_PATH)
//   - HYBRID_* environment variables (take precedence)
//
// # Key Configuration Options
//
//   - HYBRID_DEFAULT_PROJECT / HYBRID_DEFAULT_ROLE: assignment created
//     on a directory user's first login
//   - HYBRID_LDAP_URL, HYBRID_LDAP_USER_TREE_DN, ...: directory backend
//   - HYBRID_SESSION_KEY: admin-session token signing key
//   - DATABASE_URL: SQL backend connection
//   - HYBRID_LOG_LEVEL: logging verbosity
package config
