package prefetch

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/coinstream/price-data/internal/api"
	"github.com/coinstream/price-data/internal/model"
	"github.com/coinstream/price-data/internal/symbol"
)

// HistoryWriter receives fetched historical trades.
type HistoryWriter interface {
	WriteHistory(ctx context.Context, trades []model.HistoricalTrade) (int, error)
}

// Config holds prefetcher configuration.
type Config struct {
	Interval    time.Duration // Run interval (default: 15m)
	Limit       int           // Trades fetched per pair per run
	Concurrency int           // Max concurrent REST requests
	Timeout     time.Duration // Per-request timeout
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Interval:    15 * time.Minute,
		Limit:       100,
		Concurrency: 4,
		Timeout:     10 * time.Second,
	}
}

// Prefetcher periodically warms the historical price store over REST. It
// discovers the provider's spot instruments, keeps the ones whose assets
// the codec supports, and fetches recent trade history for each. It shares
// nothing with the live-stream supervisor except the store itself.
type Prefetcher struct {
	cfg    Config
	client *api.Client
	codec  *symbol.Codec
	store  HistoryWriter
	logger *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a Prefetcher.
func New(cfg Config, client *api.Client, codec *symbol.Codec, store HistoryWriter, logger *slog.Logger) *Prefetcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Prefetcher{
		cfg:    cfg,
		client: client,
		codec:  codec,
		store:  store,
		logger: logger,
	}
}

// Start begins the prefetch loop.
func (p *Prefetcher) Start(ctx context.Context) error {
	p.ctx, p.cancel = context.WithCancel(ctx)

	p.wg.Add(1)
	go p.run()

	p.logger.Info("prefetcher started",
		"interval", p.cfg.Interval,
		"concurrency", p.cfg.Concurrency,
	)
	return nil
}

// Stop gracefully shuts down the prefetcher.
func (p *Prefetcher) Stop(ctx context.Context) error {
	if p.cancel != nil {
		p.cancel()
	}

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info("prefetcher stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// run is the main loop.
func (p *Prefetcher) run() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	// Run immediately on start.
	p.runOnce()

	for {
		select {
		case <-p.ctx.Done():
			return
		case <-ticker.C:
			p.runOnce()
		}
	}
}

// runOnce fetches history for all supported pair-exchanges concurrently.
func (p *Prefetcher) runOnce() {
	start := time.Now()

	pairs, err := p.discoverPairs()
	if err != nil {
		p.logger.Warn("failed to discover pairs", "error", err)
		return
	}
	if len(pairs) == 0 {
		p.logger.Debug("no supported pairs to prefetch")
		return
	}

	var fetched, inserted, failures atomic.Int64

	g, ctx := errgroup.WithContext(p.ctx)
	g.SetLimit(p.cfg.Concurrency)

	for _, pair := range pairs {
		pair := pair
		g.Go(func() error {
			reqCtx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
			defer cancel()

			trades, err := p.client.GetTradeHistory(reqCtx, p.codec, pair, p.cfg.Limit)
			if err != nil {
				failures.Add(1)
				p.logger.Warn("failed to prefetch history", "pair", pair, "error", err)
				return nil
			}
			fetched.Add(int64(len(trades)))

			n, err := p.store.WriteHistory(reqCtx, trades)
			if err != nil {
				failures.Add(1)
				p.logger.Warn("failed to store history", "pair", pair, "error", err)
				return nil
			}
			inserted.Add(int64(n))
			return nil
		})
	}

	g.Wait()

	p.logger.Info("prefetch run complete",
		"pairs", len(pairs),
		"fetched", fetched.Load(),
		"inserted", inserted.Load(),
		"failures", failures.Load(),
		"duration", time.Since(start),
	)
}

// discoverPairs pulls the provider's instrument catalog and keeps the
// pairs the codec accepts (spot instruments over supported assets).
func (p *Prefetcher) discoverPairs() ([]model.PairExchange, error) {
	reqCtx, cancel := context.WithTimeout(p.ctx, p.cfg.Timeout)
	defer cancel()

	symbols, err := p.client.GetSymbols(reqCtx)
	if err != nil {
		return nil, err
	}

	var pairs []model.PairExchange
	for _, s := range symbols {
		if pair, ok := p.codec.Decode(s.SymbolID); ok {
			pairs = append(pairs, pair)
		}
	}
	return pairs, nil
}
