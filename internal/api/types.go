package api

import "time"

// APIExchange is the wire representation of one venue.
type APIExchange struct {
	ExchangeID string `json:"exchange_id"`
	Name       string `json:"name"`
	Website    string `json:"website"`
	DataStart  string `json:"data_start"`
}

// APISymbol is the wire representation of one instrument.
type APISymbol struct {
	SymbolID   string `json:"symbol_id"`
	ExchangeID string `json:"exchange_id"`
	SymbolType string `json:"symbol_type"`
	AssetBase  string `json:"asset_id_base"`
	AssetQuote string `json:"asset_id_quote"`
}

// APITrade is the wire representation of one historical trade.
type APITrade struct {
	SymbolID     string    `json:"symbol_id"`
	TimeExchange time.Time `json:"time_exchange"`
	Price        float64   `json:"price"`
	Size         float64   `json:"size"`
}
