// Package store is the local store the ingestor writes into: a Redis
// latest-price cache with TTL and two PostgreSQL tables, latest_prices
// (upserted from the live stream) and price_history (appended by the
// prefetch job).
//
// The Store satisfies the feed's sink contract: Write never blocks. Ticks
// land in a growable buffer and a consumer goroutine does the actual I/O.
package store
