// Package config provides PostgreSQL database configuration for circulation
// store testing.
//
// This package contains factory functions for creating database connections
// using the store's supported PostgreSQL adapters (pgx.Pool, sql.DB, sqlx.DB)
// with a pre-configured test database DSN. The DSN can be overridden with the
// CIRCULATION_TEST_POSTGRES_DSN environment variable.
package config
