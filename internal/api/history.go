package api

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/coinstream/price-data/internal/model"
	"github.com/coinstream/price-data/internal/symbol"
)

// GetTradeHistory fetches the most recent trades for one pair-exchange,
// newest first, at most limit entries.
func (c *Client) GetTradeHistory(ctx context.Context, codec *symbol.Codec, pair model.PairExchange, limit int) ([]model.HistoricalTrade, error) {
	sym, err := codec.Encode(pair)
	if err != nil {
		return nil, fmt.Errorf("encode %v: %w", pair, err)
	}

	query := url.Values{}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}

	var resp []APITrade
	if err := c.get(ctx, "/trades/"+sym+"/latest", query, &resp); err != nil {
		return nil, fmt.Errorf("get trade history %s: %w", sym, err)
	}

	out := make([]model.HistoricalTrade, 0, len(resp))
	for _, t := range resp {
		out = append(out, model.HistoricalTrade{
			Pair:  pair,
			Price: t.Price,
			Size:  t.Size,
			Time:  t.TimeExchange,
		})
	}
	return out, nil
}
