package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"

	"github.com/coinstream/price-data/internal/model"
	"github.com/coinstream/price-data/internal/symbol"
)

// ErrMissingCredential is returned by NewClient when no API key is set.
var ErrMissingCredential = errors.New("feed: missing API credential")

// Client opens streaming connections to the live feed. Each Open is an
// independent, non-restartable attempt: transport up, hello sent, then
// trade frames until the attempt terminates.
type Client struct {
	cfg    ClientConfig
	codec  *symbol.Codec
	sink   Sink
	logger *slog.Logger
}

// NewClient creates a streaming feed client. It fails when the credential
// is absent; this is checked once, at construction, and is meant to be
// fatal at process start.
func NewClient(cfg ClientConfig, codec *symbol.Codec, sink Sink, logger *slog.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingCredential
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:    cfg,
		codec:  codec,
		sink:   sink,
		logger: logger,
	}, nil
}

// Open dials the feed, sends the subscription hello, and starts the read
// loop. A dial or handshake failure is returned synchronously; the caller
// treats it like an errored connection.
func (c *Client) Open(ctx context.Context) (*Handle, error) {
	dialer := websocket.Dialer{
		HandshakeTimeout: c.cfg.HandshakeTimeout,
	}

	conn, _, err := dialer.DialContext(ctx, c.cfg.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("dial feed: %w", err)
	}

	hello := helloMessage{
		Type:                   "hello",
		APIKey:                 c.cfg.APIKey,
		Heartbeat:              false,
		SubscribeDataType:      []string{"trade"},
		SubscribeFilterAssetID: c.codec.Assets(),
	}

	conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
	if err := conn.WriteJSON(hello); err != nil {
		conn.Close()
		return nil, fmt.Errorf("send hello: %w", err)
	}

	h := newHandle(conn)
	go c.readLoop(h)

	c.logger.Debug("feed connection open", "handle", h.ID(), "url", c.cfg.URL)

	return h, nil
}

// readLoop decodes inbound frames until the attempt terminates. It is the
// only goroutine touching this handle's events, so frame handling for one
// connection is effectively single-threaded.
func (c *Client) readLoop(h *Handle) {
	defer h.closeTransport()

	for {
		_, data, err := h.conn.ReadMessage()
		receivedAt := time.Now()

		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.terminate(Termination{Kind: TerminationComplete})
			} else {
				h.terminate(Termination{Kind: TerminationError, Err: err})
			}
			return
		}

		if stop := c.handleFrame(h, data, receivedAt); stop {
			return
		}
	}
}

// handleFrame dispatches one inbound frame. Malformed and unrecognized
// frames are dropped without terminating the connection; an explicit
// provider error frame ends the attempt.
func (c *Client) handleFrame(h *Handle, data []byte, receivedAt time.Time) (stop bool) {
	var f inboundFrame
	if err := json.Unmarshal(data, &f); err != nil {
		c.logger.Debug("dropping unparseable frame", "handle", h.ID(), "error", err)
		return false
	}

	switch f.Type {
	case frameTypeError:
		h.terminate(Termination{
			Kind: TerminationError,
			Err:  fmt.Errorf("provider error: %s", f.Message),
		})
		return true

	case frameTypeTrade:
		pair, ok := c.codec.Decode(f.SymbolID)
		if !ok {
			// Non-spot or unsupported asset; not an error.
			return false
		}
		h.deliver(c.sink, model.PriceUpdate{
			Pair:       pair,
			Price:      f.Price,
			ReceivedAt: receivedAt,
		})
		return false

	default:
		// Unrecognized frame type, dropped.
		return false
	}
}
