package store

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/coinstream/price-data/internal/model"
)

// Config holds store settings.
type Config struct {
	BatchSize     int           // Rows per database flush
	FlushInterval time.Duration // Max time a row waits before flushing
	BufferSize    int           // Initial tick buffer capacity
	CacheTTL      time.Duration // Lifetime of latest-price cache entries
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		BatchSize:     500,
		FlushInterval: time.Second,
		BufferSize:    10000,
		CacheTTL:      2 * time.Minute,
	}
}

// Metrics holds cumulative store counters.
type Metrics struct {
	Accepted    int64 // Ticks accepted from the feed
	Upserts     int64 // Rows written to latest_prices
	Flushes     int64
	Errors      int64 // Failed database flushes
	CacheErrors int64 // Failed cache updates
}

// latestRow is the database shape of one latest-price upsert.
type latestRow struct {
	Exchange   string
	Base       string
	Quote      string
	Price      float64
	ReceivedAt int64 // µs since epoch
}

// Store is the downstream sink for live ticks: each accepted update lands
// in the Redis latest-price cache and is batch-upserted into PostgreSQL.
// Write never blocks the caller.
type Store struct {
	cfg    Config
	logger *slog.Logger

	db    *pgxpool.Pool
	cache *redis.Client

	input *GrowableBuffer[model.PriceUpdate]

	batchMu sync.Mutex
	batch   []latestRow
	metrics Metrics

	flushTicker *time.Ticker

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a Store.
func New(cfg Config, db *pgxpool.Pool, cache *redis.Client, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		cfg:    cfg,
		logger: logger,
		db:     db,
		cache:  cache,
		input:  NewGrowableBuffer[model.PriceUpdate](cfg.BufferSize),
		batch:  make([]latestRow, 0, cfg.BatchSize),
	}
}

// Write enqueues one tick. It satisfies the feed sink contract: the buffer
// grows instead of blocking, so the feed's dispatch context never stalls
// here.
func (s *Store) Write(u model.PriceUpdate) {
	s.input.Send(u)
}

// Start begins consuming ticks and writing them out.
func (s *Store) Start(ctx context.Context) error {
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.flushTicker = time.NewTicker(s.cfg.FlushInterval)

	s.wg.Add(1)
	go s.consumeLoop()

	s.wg.Add(1)
	go s.flushLoop()

	s.logger.Info("store started",
		"batch_size", s.cfg.BatchSize,
		"flush_interval", s.cfg.FlushInterval,
	)
	return nil
}

// Stop drains goroutines and performs a final flush.
func (s *Store) Stop(ctx context.Context) error {
	s.logger.Info("stopping store")

	if s.cancel != nil {
		s.cancel()
	}
	if s.flushTicker != nil {
		s.flushTicker.Stop()
	}
	s.input.Close()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		s.logger.Warn("store stop timed out")
	}

	// Final flush runs against the caller's context; s.ctx is already
	// canceled at this point.
	s.flush(ctx)
	s.logger.Info("store stopped")
	return nil
}

// Stats returns current metrics.
func (s *Store) Stats() Metrics {
	s.batchMu.Lock()
	defer s.batchMu.Unlock()
	return s.metrics
}

// consumeLoop reads ticks from the buffer and accumulates batches.
func (s *Store) consumeLoop() {
	defer s.wg.Done()

	for {
		u, ok := s.input.TryReceive()
		if !ok {
			select {
			case <-s.ctx.Done():
				s.drain()
				return
			case <-time.After(10 * time.Millisecond):
				continue
			}
		}

		s.handleUpdate(u)
	}
}

// drain moves anything still buffered into the pending batch so the final
// flush can write it. Cache updates are skipped; the entries would expire
// before anyone read them.
func (s *Store) drain() {
	for {
		u, ok := s.input.TryReceive()
		if !ok {
			return
		}
		s.batchMu.Lock()
		s.metrics.Accepted++
		s.batch = append(s.batch, transform(u))
		s.batchMu.Unlock()
	}
}

// flushLoop periodically flushes the batch.
func (s *Store) flushLoop() {
	defer s.wg.Done()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-s.flushTicker.C:
			s.flush(s.ctx)
		}
	}
}

// handleUpdate caches the tick and adds it to the pending batch.
func (s *Store) handleUpdate(u model.PriceUpdate) {
	if err := s.setLatest(s.ctx, u); err != nil {
		s.batchMu.Lock()
		s.metrics.CacheErrors++
		s.batchMu.Unlock()
		s.logger.Warn("cache update failed", "pair", u.Pair, "error", err)
	}

	row := transform(u)

	s.batchMu.Lock()
	s.metrics.Accepted++
	s.batch = append(s.batch, row)
	shouldFlush := len(s.batch) >= s.cfg.BatchSize
	s.batchMu.Unlock()

	if shouldFlush {
		s.flush(s.ctx)
	}
}

// transform converts a PriceUpdate to its database row.
func transform(u model.PriceUpdate) latestRow {
	return latestRow{
		Exchange:   u.Pair.Exchange,
		Base:       u.Pair.Base,
		Quote:      u.Pair.Quote,
		Price:      u.Price,
		ReceivedAt: u.ReceivedAt.UnixMicro(),
	}
}

// flush upserts the current batch into latest_prices.
func (s *Store) flush(ctx context.Context) {
	s.batchMu.Lock()
	if len(s.batch) == 0 {
		s.batchMu.Unlock()
		return
	}
	batch := s.batch
	s.batch = make([]latestRow, 0, s.cfg.BatchSize)
	s.batchMu.Unlock()

	start := time.Now()

	if err := s.batchUpsert(ctx, batch); err != nil {
		s.logger.Error("batch upsert failed", "error", err, "count", len(batch))
		s.batchMu.Lock()
		s.metrics.Errors++
		s.batchMu.Unlock()
		return
	}

	s.batchMu.Lock()
	s.metrics.Upserts += int64(len(batch))
	s.metrics.Flushes++
	s.batchMu.Unlock()

	s.logger.Debug("flushed latest prices",
		"count", len(batch),
		"duration", time.Since(start),
	)
}

// batchUpsert writes rows using pgx.Batch. Queue order is preserved, so
// several ticks for the same pair within one batch resolve to the newest.
func (s *Store) batchUpsert(ctx context.Context, rows []latestRow) error {
	batch := &pgx.Batch{}
	for _, r := range rows {
		batch.Queue(`
			INSERT INTO latest_prices (exchange, base, quote, price, received_at)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (exchange, base, quote)
			DO UPDATE SET price = EXCLUDED.price, received_at = EXCLUDED.received_at
		`, r.Exchange, r.Base, r.Quote, r.Price, r.ReceivedAt)
	}

	results := s.db.SendBatch(ctx, batch)
	defer results.Close()

	for range rows {
		if _, err := results.Exec(); err != nil {
			return err
		}
	}

	return nil
}

// cachedPrice is the JSON shape stored per pair in Redis.
type cachedPrice struct {
	Exchange   string  `json:"exchange"`
	Base       string  `json:"base"`
	Quote      string  `json:"quote"`
	Price      float64 `json:"price"`
	ReceivedAt int64   `json:"received_at"` // µs since epoch
}

// setLatest refreshes the Redis latest-price entry for this pair. Entries
// expire so a stalled feed reads as absent rather than as a stale price.
func (s *Store) setLatest(ctx context.Context, u model.PriceUpdate) error {
	entry := cachedPrice{
		Exchange:   u.Pair.Exchange,
		Base:       u.Pair.Base,
		Quote:      u.Pair.Quote,
		Price:      u.Price,
		ReceivedAt: u.ReceivedAt.UnixMicro(),
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	return s.cache.Set(ctx, cacheKey(u.Pair), data, s.cfg.CacheTTL).Err()
}

func cacheKey(p model.PairExchange) string {
	return "latest:" + p.Exchange + ":" + p.Base + ":" + p.Quote
}
