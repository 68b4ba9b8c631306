// Package symbol maps between canonical pair-exchange identifiers and the
// provider's wire symbols (EXCHANGE_SPOT_BASE_QUOTE).
package symbol
