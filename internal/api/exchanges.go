package api

import (
	"context"
	"fmt"

	"github.com/coinstream/price-data/internal/model"
)

// GetExchanges fetches the provider's exchange list.
func (c *Client) GetExchanges(ctx context.Context) ([]model.Exchange, error) {
	var resp []APIExchange
	if err := c.get(ctx, "/exchanges", nil, &resp); err != nil {
		return nil, fmt.Errorf("get exchanges: %w", err)
	}

	out := make([]model.Exchange, 0, len(resp))
	for _, e := range resp {
		out = append(out, model.Exchange{
			ExchangeID: e.ExchangeID,
			Name:       e.Name,
			Website:    e.Website,
			DataStart:  e.DataStart,
		})
	}
	return out, nil
}

// GetSymbols fetches the provider's instrument catalog (available pairs).
func (c *Client) GetSymbols(ctx context.Context) ([]model.Symbol, error) {
	var resp []APISymbol
	if err := c.get(ctx, "/symbols", nil, &resp); err != nil {
		return nil, fmt.Errorf("get symbols: %w", err)
	}

	out := make([]model.Symbol, 0, len(resp))
	for _, s := range resp {
		out = append(out, model.Symbol{
			SymbolID:   s.SymbolID,
			ExchangeID: s.ExchangeID,
			SymbolType: s.SymbolType,
			AssetBase:  s.AssetBase,
			AssetQuote: s.AssetQuote,
		})
	}
	return out, nil
}
