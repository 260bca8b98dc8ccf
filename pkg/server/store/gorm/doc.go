// Package gorm implements the store interfaces against PostgreSQL.
package gorm
