// Package database provides connection setup for the ingestor's local
// store: a PostgreSQL pool for price rows and a Redis client for the
// latest-price cache.
package database
