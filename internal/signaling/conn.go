package signaling

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/soberline/soberline/internal/auth"
)

const writeWait = 10 * time.Second

// connState tracks the lifecycle of one relay connection:
//
//	connecting -> open -> joined -> closing -> closed
//
// A connection that never sends joinRoom goes open -> closing directly.
// Closed connections are never reused; a reconnect is a fresh Conn.
type connState int32

const (
	stateConnecting connState = iota
	stateOpen
	stateJoined
	stateClosing
	stateClosed
)

func (s connState) String() string {
	switch s {
	case stateConnecting:
		return "connecting"
	case stateOpen:
		return "open"
	case stateJoined:
		return "joined"
	case stateClosing:
		return "closing"
	case stateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Conn is one authenticated client's live relay session. The identity is
// fixed at upgrade time and immutable for the connection's lifetime.
type Conn struct {
	id        string
	principal auth.Principal
	ws        *websocket.Conn
	log       zerolog.Logger

	// send feeds the writer goroutine. It is closed during teardown, strictly
	// after the connection has left the Registry; Broadcast is the only
	// producer and holds the registry lock, so no send can race the close.
	send chan []byte

	// roomID is confined to the reader goroutine: dispatch and teardown both
	// run there, so no lock is needed.
	roomID RoomID

	state     atomic.Int32
	closeOnce sync.Once
}

func newConn(ws *websocket.Conn, principal auth.Principal, queueSize int, logger zerolog.Logger) *Conn {
	if queueSize <= 0 {
		queueSize = 256
	}
	id := uuid.NewString()
	c := &Conn{
		id:        id,
		principal: principal,
		ws:        ws,
		log:       logger.With().Str("conn_id", id).Str("username", principal.Username).Logger(),
		send:      make(chan []byte, queueSize),
	}
	c.state.Store(int32(stateConnecting))
	return c
}

func (c *Conn) setState(s connState) {
	old := connState(c.state.Swap(int32(s)))
	if old != s {
		c.log.Debug().Stringer("from", old).Stringer("to", s).Msg("connection state")
	}
}

func (c *Conn) currentState() connState {
	return connState(c.state.Load())
}

// enqueue hands msg to the writer without blocking. A full queue means the
// peer is too slow to keep up; the message is dropped for that peer only.
func (c *Conn) enqueue(msg []byte) bool {
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

// writePump serializes all writes to the underlying WebSocket: queued
// broadcasts plus keepalive pings. It exits when send is closed or a write
// fails, closing the socket either way so the reader unblocks.
func (c *Conn) writePump(pingInterval time.Duration) {
	if pingInterval <= 0 {
		pingInterval = 30 * time.Second
	}
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		_ = c.ws.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				_ = c.ws.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
					time.Now().Add(writeWait))
				return
			}
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}
