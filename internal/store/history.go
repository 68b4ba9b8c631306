package store

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/coinstream/price-data/internal/model"
)

// WriteHistory inserts prefetched historical trades into price_history.
// Rows already present are skipped; the prefetch job re-fetches overlapping
// windows on every run. Returns the number of rows actually inserted.
func (s *Store) WriteHistory(ctx context.Context, trades []model.HistoricalTrade) (int, error) {
	if len(trades) == 0 {
		return 0, nil
	}

	batch := &pgx.Batch{}
	for _, t := range trades {
		batch.Queue(`
			INSERT INTO price_history (exchange, base, quote, price, size, trade_time)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (exchange, base, quote, trade_time) DO NOTHING
		`, t.Pair.Exchange, t.Pair.Base, t.Pair.Quote, t.Price, t.Size, t.Time.UnixMicro())
	}

	results := s.db.SendBatch(ctx, batch)
	defer results.Close()

	inserted := 0
	for range trades {
		ct, err := results.Exec()
		if err != nil {
			return inserted, err
		}
		if ct.RowsAffected() > 0 {
			inserted++
		}
	}

	return inserted, nil
}
