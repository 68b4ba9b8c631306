// Package config loads ingestor configuration from YAML with ${VAR}
// environment expansion, applies defaults, and validates.
//
// Two environment variables are honored directly: COINAPI_KEY supplies the
// feed credential (required; validation fails without it) and
// PREFETCH_DISABLED=true turns off the periodic historical prefetch job.
package config
