package feed

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/coinstream/price-data/internal/model"
	"github.com/coinstream/price-data/internal/symbol"
)

var testAssets = []string{"BTC", "ETH", "USD"}

// mockFeedServer upgrades each request and hands the connection to handler.
func mockFeedServer(t *testing.T, handler func(*websocket.Conn)) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	}

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Logf("upgrade error: %v", err)
			return
		}
		defer conn.Close()
		handler(conn)
	}))
}

func wsURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func testClient(t *testing.T, url string, sink Sink) *Client {
	t.Helper()
	cfg := ClientConfig{
		URL:              url,
		APIKey:           "test-key",
		HandshakeTimeout: 5 * time.Second,
		WriteTimeout:     5 * time.Second,
	}
	if sink == nil {
		sink = SinkFunc(func(model.PriceUpdate) {})
	}
	c, err := NewClient(cfg, symbol.NewCodec(testAssets), sink, nil)
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	return c
}

// readHello consumes and decodes the handshake frame on the server side.
func readHello(t *testing.T, conn *websocket.Conn) helloMessage {
	t.Helper()
	var hello helloMessage
	if _, data, err := conn.ReadMessage(); err != nil {
		t.Errorf("read hello: %v", err)
	} else if err := json.Unmarshal(data, &hello); err != nil {
		t.Errorf("parse hello: %v", err)
	}
	return hello
}

func TestNewClient_MissingCredential(t *testing.T) {
	_, err := NewClient(ClientConfig{URL: "wss://example.test"}, symbol.NewCodec(testAssets), nil, nil)
	if err != ErrMissingCredential {
		t.Errorf("NewClient error = %v, want ErrMissingCredential", err)
	}
}

func TestClient_SendsHandshake(t *testing.T) {
	helloCh := make(chan helloMessage, 1)
	server := mockFeedServer(t, func(conn *websocket.Conn) {
		helloCh <- readHello(t, conn)
		// Keep the connection open until the client goes away.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
	defer server.Close()

	client := testClient(t, wsURL(server), nil)
	h, err := client.Open(context.Background())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer h.Cancel()

	select {
	case hello := <-helloCh:
		if hello.Type != "hello" {
			t.Errorf("hello.Type = %q, want hello", hello.Type)
		}
		if hello.APIKey != "test-key" {
			t.Errorf("hello.APIKey = %q, want test-key", hello.APIKey)
		}
		if hello.Heartbeat {
			t.Error("hello.Heartbeat = true, want false")
		}
		if len(hello.SubscribeDataType) != 1 || hello.SubscribeDataType[0] != "trade" {
			t.Errorf("hello.SubscribeDataType = %v, want [trade]", hello.SubscribeDataType)
		}
		if len(hello.SubscribeFilterAssetID) != len(testAssets) {
			t.Errorf("hello.SubscribeFilterAssetID = %v, want %d assets", hello.SubscribeFilterAssetID, len(testAssets))
		}
	case <-time.After(2 * time.Second):
		t.Fatal("server never received hello")
	}
}

func TestClient_TradeDeliveredToSink(t *testing.T) {
	server := mockFeedServer(t, func(conn *websocket.Conn) {
		readHello(t, conn)
		conn.WriteMessage(websocket.TextMessage,
			[]byte(`{"type":"trade","symbol_id":"KRAKEN_SPOT_BTC_USD","price":50000}`))
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
	defer server.Close()

	updates := make(chan model.PriceUpdate, 10)
	client := testClient(t, wsURL(server), SinkFunc(func(u model.PriceUpdate) {
		updates <- u
	}))

	h, err := client.Open(context.Background())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer h.Cancel()

	select {
	case u := <-updates:
		want := model.PairExchange{Exchange: "KRAKEN", Base: "BTC", Quote: "USD"}
		if u.Pair != want {
			t.Errorf("Pair = %v, want %v", u.Pair, want)
		}
		if u.Price != 50000 {
			t.Errorf("Price = %v, want 50000", u.Price)
		}
		if u.ReceivedAt.IsZero() {
			t.Error("ReceivedAt is zero")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("sink never received the tick")
	}
}

func TestClient_DroppedFrames(t *testing.T) {
	// Non-spot, unsupported-asset, malformed, and unknown-type frames are
	// all silently dropped; the connection survives them and still
	// delivers the valid trade sent last.
	frames := []string{
		`{"type":"trade","symbol_id":"KRAKEN_MARGIN_BTC_USD","price":1}`,
		`{"type":"trade","symbol_id":"KRAKEN_SPOT_DOGE_USD","price":2}`,
		`this is not json`,
		`{"type":"heartbeat"}`,
		`{"type":"trade","symbol_id":"KRAKEN_SPOT_ETH_USD","price":3000}`,
	}

	server := mockFeedServer(t, func(conn *websocket.Conn) {
		readHello(t, conn)
		for _, f := range frames {
			conn.WriteMessage(websocket.TextMessage, []byte(f))
		}
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
	defer server.Close()

	updates := make(chan model.PriceUpdate, 10)
	client := testClient(t, wsURL(server), SinkFunc(func(u model.PriceUpdate) {
		updates <- u
	}))

	h, err := client.Open(context.Background())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer h.Cancel()

	select {
	case u := <-updates:
		if u.Pair.Base != "ETH" {
			t.Errorf("first delivered tick = %v, want the ETH trade", u)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("valid trade after dropped frames never arrived")
	}

	select {
	case u := <-updates:
		t.Errorf("unexpected extra delivery: %v", u)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestClient_ProviderErrorTerminates(t *testing.T) {
	server := mockFeedServer(t, func(conn *websocket.Conn) {
		readHello(t, conn)
		conn.WriteMessage(websocket.TextMessage,
			[]byte(`{"type":"error","message":"invalid api key"}`))
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
	defer server.Close()

	client := testClient(t, wsURL(server), nil)
	h, err := client.Open(context.Background())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	select {
	case term := <-h.Done():
		if term.Kind != TerminationError {
			t.Errorf("Kind = %v, want error", term.Kind)
		}
		if term.Err == nil || !strings.Contains(term.Err.Error(), "invalid api key") {
			t.Errorf("Err = %v, want provider message", term.Err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("error frame never terminated the connection")
	}
}

func TestClient_RemoteCloseCompletes(t *testing.T) {
	server := mockFeedServer(t, func(conn *websocket.Conn) {
		readHello(t, conn)
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"),
			time.Now().Add(time.Second))
	})
	defer server.Close()

	client := testClient(t, wsURL(server), nil)
	h, err := client.Open(context.Background())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	select {
	case term := <-h.Done():
		if term.Kind != TerminationComplete {
			t.Errorf("Kind = %v (err=%v), want complete", term.Kind, term.Err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("remote close never surfaced")
	}
}

func TestClient_AbruptDisconnectErrors(t *testing.T) {
	server := mockFeedServer(t, func(conn *websocket.Conn) {
		readHello(t, conn)
		// Tear down the TCP connection without a close frame.
		conn.Close()
	})
	defer server.Close()

	client := testClient(t, wsURL(server), nil)
	h, err := client.Open(context.Background())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	select {
	case term := <-h.Done():
		if term.Kind != TerminationError {
			t.Errorf("Kind = %v, want error", term.Kind)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("abrupt disconnect never surfaced")
	}
}

func TestHandle_CancelSuppressesEverything(t *testing.T) {
	firstTick := make(chan struct{})
	release := make(chan struct{})
	server := mockFeedServer(t, func(conn *websocket.Conn) {
		readHello(t, conn)
		conn.WriteMessage(websocket.TextMessage,
			[]byte(`{"type":"trade","symbol_id":"KRAKEN_SPOT_BTC_USD","price":1}`))
		<-release
		// Frames in flight after the client canceled.
		for i := 0; i < 20; i++ {
			if err := conn.WriteMessage(websocket.TextMessage,
				[]byte(`{"type":"trade","symbol_id":"KRAKEN_SPOT_BTC_USD","price":2}`)); err != nil {
				return
			}
		}
	})
	defer server.Close()

	var delivered atomic.Int32
	client := testClient(t, wsURL(server), SinkFunc(func(model.PriceUpdate) {
		if delivered.Add(1) == 1 {
			close(firstTick)
		}
	}))

	h, err := client.Open(context.Background())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	select {
	case <-firstTick:
	case <-time.After(2 * time.Second):
		t.Fatal("never received the first tick")
	}

	h.Cancel()
	h.Cancel() // Idempotent; second call must be a no-op.
	close(release)

	time.Sleep(200 * time.Millisecond)

	if got := delivered.Load(); got != 1 {
		t.Errorf("delivered = %d ticks, want exactly the 1 pre-cancel tick", got)
	}

	select {
	case term := <-h.Done():
		t.Errorf("canceled handle delivered termination %+v", term)
	default:
	}
}

func TestClient_OpenFailsOnDialError(t *testing.T) {
	server := mockFeedServer(t, func(conn *websocket.Conn) {})
	server.Close() // Nothing is listening anymore.

	client := testClient(t, wsURL(server), nil)
	if _, err := client.Open(context.Background()); err == nil {
		t.Error("Open succeeded against a closed server")
	}
}
