package feed

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/coinstream/price-data/internal/model"
)

// Handle represents one connection attempt. It delivers at most one
// Termination on Done, and once Cancel is invoked no further sink delivery
// or termination signal can fire, even for frames already buffered in the
// transport.
type Handle struct {
	id   uuid.UUID
	conn *websocket.Conn
	done chan Termination

	closeOnce sync.Once

	// mu gates every signal the handle can emit. Cancel and the read
	// loop's delivery path contend on it, which is what makes "nothing
	// after Cancel returns" hold regardless of in-flight frames.
	mu         sync.Mutex
	canceled   bool
	terminated bool
}

func newHandle(conn *websocket.Conn) *Handle {
	return &Handle{
		id:   uuid.New(),
		conn: conn,
		done: make(chan Termination, 1),
	}
}

// ID identifies this attempt in logs.
func (h *Handle) ID() uuid.UUID {
	return h.id
}

// Done delivers the terminal outcome of this attempt. A canceled handle
// never delivers.
func (h *Handle) Done() <-chan Termination {
	return h.done
}

// Cancel closes the transport and suppresses all further signals. It is
// idempotent; a second call has no additional effect.
func (h *Handle) Cancel() {
	h.mu.Lock()
	if h.canceled {
		h.mu.Unlock()
		return
	}
	h.canceled = true
	h.mu.Unlock()

	h.closeTransport()
}

// closeTransport closes the underlying connection exactly once.
func (h *Handle) closeTransport() {
	h.closeOnce.Do(func() {
		h.conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second),
		)
		h.conn.Close()
	})
}

// terminate records the terminal outcome. It is a no-op on a canceled or
// already-terminated handle, so a forced cancel that also surfaces as a
// read error cannot signal twice.
func (h *Handle) terminate(t Termination) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.canceled || h.terminated {
		return
	}
	h.terminated = true
	h.done <- t
}

// deliver hands one tick to the sink unless the handle has been canceled
// or terminated. The sink contract is non-blocking, so holding mu across
// the call is safe and closes the race with Cancel.
func (h *Handle) deliver(sink Sink, u model.PriceUpdate) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.canceled || h.terminated {
		return
	}
	sink.Write(u)
}
