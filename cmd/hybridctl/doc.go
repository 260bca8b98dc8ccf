// Package main provides hybridctl, the CLI for the hybrid identity
// backend.
//
// The hybrid backend authenticates users against an LDAP directory
// while keeping user records, projects, roles and role assignments in
// PostgreSQL. Directory users get a default project/role assignment
// provisioned on their first login.
//
// # Architecture
//
// The service is organized into several packages:
//
//   - pkg/identity: backend driver contract and the hybrid driver
//   - pkg/identity/sqlident: SQL-backed identity driver
//   - pkg/identity/ldapident: LDAP-backed identity driver
//   - pkg/server: HTTP server and routing
//   - pkg/server/endpoints: REST API endpoint handlers
//   - pkg/server/store: project, role and assignment stores
//   - pkg/model: database models
//   - pkg/db: database connection utilities
//   - pkg/audit: audit logging
//   - pkg/config: configuration management
//   - pkg/notify: optional RabbitMQ event publishing
//
// # Quick Start
//
//	# Run database migrations
//	hybridctl db migrate
//
//	# Create a local admin user
//	hybridctl user create admin --password secret
//
//	# Start the server
//	hybridctl server
//
// # Environment Variables
//
//   - DATABASE_URL: PostgreSQL connection string
//   - AUDIT_DATABASE_URL: optional audit message database
//   - HYBRID_SESSION_KEY: HMAC key for API session tokens
//   - HYBRID_CONFIG_PATH: config directory (default /etc/keystone-hybrid/config)
//   - HYBRID_LDAP_URL, HYBRID_LDAP_USER_TREE_DN, ...: LDAP settings
//   - HYBRID_DEFAULT_PROJECT, HYBRID_DEFAULT_ROLE: first-login provisioning
//   - HYBRID_LOG_LEVEL: log level (debug enables SQL logging)
//   - AMQP_URL: optional RabbitMQ broker for provisioning events
//   - PORT: server port (default: 8000)
package main
