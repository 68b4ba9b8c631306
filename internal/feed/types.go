package feed

import (
	"time"

	"github.com/coinstream/price-data/internal/model"
)

// Sink receives each accepted tick. Write is called from the connection's
// read loop and must not block; implementations drop rather than stall it.
type Sink interface {
	Write(update model.PriceUpdate)
}

// SinkFunc is a function adapter for Sink.
type SinkFunc func(model.PriceUpdate)

func (f SinkFunc) Write(u model.PriceUpdate) { f(u) }

// TerminationKind distinguishes how a connection ended. Errors (transport
// or provider-signaled) and graceful remote closure are never conflated:
// the supervisor's recovery delay depends on which occurred.
type TerminationKind int

const (
	// TerminationError covers transport failures and provider error frames.
	TerminationError TerminationKind = iota
	// TerminationComplete is a remote-initiated graceful close.
	TerminationComplete
)

func (k TerminationKind) String() string {
	switch k {
	case TerminationError:
		return "error"
	case TerminationComplete:
		return "complete"
	default:
		return "unknown"
	}
}

// Termination is the single terminal outcome of a connection attempt.
type Termination struct {
	Kind TerminationKind
	Err  error // Set for TerminationError
}

// ClientConfig configures the streaming feed client.
type ClientConfig struct {
	URL              string        // WebSocket URL (e.g., wss://ws.coinapi.io/v1/)
	APIKey           string        // Feed credential sent in the hello frame
	HandshakeTimeout time.Duration // WebSocket dial timeout
	WriteTimeout     time.Duration // Deadline for the hello frame write
}

// DefaultClientConfig returns sensible defaults.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		HandshakeTimeout: 10 * time.Second,
		WriteTimeout:     5 * time.Second,
	}
}

// helloMessage is the one outbound frame, sent on transport open. It
// carries the credential and declares interest in trade ticks for the
// supported asset universe.
type helloMessage struct {
	Type                   string   `json:"type"`
	APIKey                 string   `json:"apikey"`
	Heartbeat              bool     `json:"heartbeat"`
	SubscribeDataType      []string `json:"subscribe_data_type"`
	SubscribeFilterAssetID []string `json:"subscribe_filter_asset_id"`
}

// Inbound frame discriminants. Anything else is dropped unparsed.
const (
	frameTypeTrade = "trade"
	frameTypeError = "error"
)

// inboundFrame is the superset of fields across inbound frame variants;
// Type selects which are meaningful.
type inboundFrame struct {
	Type     string  `json:"type"`
	SymbolID string  `json:"symbol_id"` // trade frames
	Price    float64 `json:"price"`     // trade frames
	Message  string  `json:"message"`   // error frames
}
