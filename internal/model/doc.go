// Package model defines the canonical data types shared across the
// ingestor: pair-exchange identifiers, live price updates, and the plain
// records returned by the provider's REST endpoints.
package model
