// Package prefetch periodically backfills recent trade history over REST.
//
// Each run discovers the provider's spot instruments, filters them through
// the symbol codec, fetches the latest trades for every supported pair
// concurrently, and hands them to the history store. Failures are logged
// and skipped; the next run starts from scratch.
package prefetch
