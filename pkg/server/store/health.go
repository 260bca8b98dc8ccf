package store

// HealthStore abstracts backend health checks
type HealthStore interface {
	// Ping verifies the SQL backend is reachable
	Ping() error
}
