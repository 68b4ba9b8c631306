package model

import (
	"fmt"
	"time"
)

// PairExchange identifies a tradable spot pair on a specific exchange,
// e.g. BTC/USD on Kraken. Values are compared structurally.
type PairExchange struct {
	Exchange string // Exchange identifier (e.g., "KRAKEN")
	Base     string // Asset being priced (e.g., "BTC")
	Quote    string // Asset the price is denominated in (e.g., "USD")
}

// String returns a human-readable form for logs, e.g. "KRAKEN:BTC/USD".
func (p PairExchange) String() string {
	return fmt.Sprintf("%s:%s/%s", p.Exchange, p.Base, p.Quote)
}

// PriceUpdate is a single accepted tick. It is handed to the downstream
// sink once and then discarded; it has no storage of its own.
type PriceUpdate struct {
	Pair       PairExchange
	Price      float64
	ReceivedAt time.Time // Local timestamp when the frame was read
}

// Exchange describes a venue reported by the provider's exchange list.
type Exchange struct {
	ExchangeID string // Provider exchange identifier (e.g., "KRAKEN")
	Name       string // Display name
	Website    string // Venue website URL
	DataStart  string // First date data is available (YYYY-MM-DD)
}

// Symbol describes one instrument from the provider's symbol catalog.
type Symbol struct {
	SymbolID   string // Provider wire symbol (e.g., "KRAKEN_SPOT_BTC_USD")
	ExchangeID string
	SymbolType string // "SPOT", "FUTURES", "MARGIN", ...
	AssetBase  string
	AssetQuote string
}

// HistoricalTrade is one point of a historical trade series fetched over
// REST by the prefetch job.
type HistoricalTrade struct {
	Pair  PairExchange
	Price float64
	Size  float64
	Time  time.Time // Exchange-reported trade time
}
