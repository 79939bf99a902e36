package signaling

import (
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/soberline/soberline/internal/auth"
	"github.com/soberline/soberline/internal/config"
	"github.com/soberline/soberline/internal/metrics"
	"github.com/soberline/soberline/internal/ratelimit"
)

// Server upgrades authenticated clients to WebSocket relay sessions and
// dispatches their messages against the shared Registry.
//
// Authentication happens once, before the upgrade: a missing or invalid
// `?token=` rejects the request with 401 and no Conn is ever created.
type Server struct {
	cfg      config.Config
	tokens   *auth.TokenService
	registry *Registry
	metrics  *metrics.Metrics
	log      zerolog.Logger
	upgrader websocket.Upgrader
}

func NewServer(cfg config.Config, tokens *auth.TokenService, registry *Registry, m *metrics.Metrics, logger zerolog.Logger) *Server {
	s := &Server{
		cfg:      cfg,
		tokens:   tokens,
		registry: registry,
		metrics:  m,
		log:      logger.With().Str("component", "signaling").Logger(),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}
	return s
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := strings.TrimSpace(r.Header.Get("Origin"))
	if origin == "" {
		return true
	}
	normalized := strings.TrimSuffix(strings.ToLower(origin), "/")
	if host := strings.TrimPrefix(strings.TrimPrefix(normalized, "https://"), "http://"); host == strings.ToLower(r.Host) {
		return true
	}
	for _, allowed := range s.cfg.AllowedOrigins {
		if normalized == allowed {
			return true
		}
	}
	return false
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	token, err := auth.TokenFromQuery(r.URL.Query())
	if err != nil {
		s.metrics.Inc(metrics.AuthFailure)
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	principal, err := s.tokens.VerifyAccessToken(token)
	if err != nil {
		s.metrics.Inc(metrics.AuthFailure)
		s.log.Warn().Err(err).Str("remote_addr", r.RemoteAddr).Msg("rejected ws upgrade")
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote an HTTP error to the client.
		s.log.Debug().Err(err).Msg("ws upgrade failed")
		return
	}

	s.metrics.Inc(metrics.WSConnections)

	c := newConn(ws, principal, s.cfg.WSSendQueueSize, s.log)
	c.setState(stateOpen)
	c.log.Info().Msg("client connected")

	go c.writePump(s.cfg.WSPingInterval)
	s.readLoop(c)
}

// readLoop consumes messages for one connection strictly in order. It owns
// the connection's room assignment and guarantees teardown on every exit
// path; read errors and transport close events land here identically.
func (s *Server) readLoop(c *Conn) {
	defer s.teardown(c)

	c.ws.SetReadLimit(s.cfg.MaxSignalingMessageBytes)
	_ = c.ws.SetReadDeadline(deadline(s.cfg.WSPongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(deadline(s.cfg.WSPongWait))
	})

	limiter := ratelimit.NewTokenBucket(nil, s.cfg.SignalingMessagesPerSecond, s.cfg.SignalingMessagesPerSecond)

	for {
		msgType, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure) {
				c.log.Warn().Err(err).Msg("unexpected close")
			}
			return
		}
		if msgType != websocket.TextMessage {
			s.metrics.Inc(metrics.DropReasonMalformed)
			c.log.Warn().Int("message_type", msgType).Msg("dropping non-text message")
			continue
		}
		if !limiter.Allow() {
			s.metrics.Inc(metrics.DropReasonRateLimit)
			c.log.Warn().Msg("dropping message over rate limit")
			continue
		}
		s.dispatch(c, data)
	}
}

// dispatch handles one parsed client message. Malformed input is logged and
// dropped; it never terminates the session or disturbs other clients.
func (s *Server) dispatch(c *Conn, data []byte) {
	msg, err := parseInbound(data)
	if err != nil {
		s.metrics.Inc(metrics.DropReasonMalformed)
		c.log.Warn().Err(err).Msg("dropping malformed message")
		return
	}

	switch msg.Type {
	case MessageTypeJoinRoom:
		s.handleJoin(c, msg.RoomID)
	case MessageTypeSignal:
		s.handleSignal(c, msg)
	}
}

func (s *Server) handleJoin(c *Conn, roomID RoomID) {
	// A connection belongs to at most one room: joining a different room
	// implicitly leaves the previous one, with the usual departure notice.
	if c.roomID != "" && c.roomID != roomID {
		if s.registry.Leave(c.roomID, c) {
			s.registry.Broadcast(c.roomID, encodeUserLeft(c.principal.Username), nil)
		}
	}

	c.roomID = roomID
	s.registry.Join(roomID, c)
	c.setState(stateJoined)
	s.metrics.Inc(metrics.RoomJoins)
	c.log.Info().Str("room_id", roomID.String()).Msg("joined room")

	// The presence notice fires on every join message, rejoins included:
	// clients use it to (re)start their offer exchange.
	s.registry.Broadcast(roomID, encodeUserJoined(c.principal.Username), c)
}

func (s *Server) handleSignal(c *Conn, msg inboundMessage) {
	if c.roomID == "" {
		// Signaling data before joinRoom is a client ordering bug, not a
		// protocol violation worth killing the session for.
		s.metrics.Inc(metrics.DropReasonUnjoined)
		c.log.Debug().Msg("dropping signal before join")
		return
	}
	n := s.registry.Broadcast(c.roomID, encodeSignal(c.principal.Username, msg.Payload), c)
	if n < s.registry.MemberCount(c.roomID)-1 {
		s.metrics.Inc(metrics.DropReasonSlowReader)
	}
	s.metrics.Inc(metrics.SignalsRelayed)
}

// teardown runs exactly once per connection regardless of how many exit
// paths fire. It removes the connection from its room, notifies former
// peers, and stops the writer.
func (s *Server) teardown(c *Conn) {
	c.closeOnce.Do(func() {
		c.setState(stateClosing)

		if c.roomID != "" {
			if s.registry.Leave(c.roomID, c) {
				// The leaver is already out of the member set, so the
				// departure notice naturally excludes it.
				s.registry.Broadcast(c.roomID, encodeUserLeft(c.principal.Username), nil)
			}
		}

		close(c.send)
		_ = c.ws.Close()

		c.setState(stateClosed)
		c.log.Info().Msg("client disconnected")
	})
}

func deadline(d time.Duration) time.Time {
	if d <= 0 {
		return time.Time{}
	}
	return time.Now().Add(d)
}
