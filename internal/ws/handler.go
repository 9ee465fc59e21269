package ws

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"

	"github.com/phani-manda/chatX/internal/observability"
	"github.com/phani-manda/chatX/internal/rabbitmq"
)

// Handler admits authenticated websocket connections and feeds client frames
// into the hub.
type Handler struct {
	hub       *Hub
	auth      *Authenticator
	publisher rabbitmq.Publisher
	origin    string
}

// NewHandler constructs the websocket endpoint. origin restricts upgrade
// requests to the configured client URL; empty allows any origin.
func NewHandler(hub *Hub, auth *Authenticator, publisher rabbitmq.Publisher, origin string) *Handler {
	h := &Handler{hub: hub, auth: auth, publisher: publisher, origin: origin}
	return h
}

func (h *Handler) upgrader() websocket.Upgrader {
	return websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			if h.origin == "" {
				return true
			}
			return r.Header.Get("Origin") == h.origin
		},
	}
}

// Handle authenticates the upgrade request, admits the connection, and runs
// its read loop. Rejected connections never complete the handshake.
func (h *Handler) Handle(c *gin.Context) {
	ctx, span := otel.Tracer("chatx/ws").Start(c.Request.Context(), "ws.handshake")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	user, err := h.auth.Authenticate(ctx, c.Request)
	if err != nil {
		log.Printf("ws: connection rejected: %v", err)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication error"})
		return
	}

	up := h.upgrader()
	conn, err := up.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	session := NewSession(conn, user.ID, user.Username, observability.IPFromRequest(c.Request))
	h.hub.Bind(session)
	go session.writePump()

	observability.IncWSActive("realtime")
	observability.IncWSEvent("in", "connect")
	h.publishLifecycle(ctx, session, "ws_connect", "", observability.RequestIDFromRequest(c.Request))

	// Everyone, including the new session, gets the fresh roster.
	h.hub.Route(ctx, PresenceChanged{})

	go h.readLoop(session)
}

// readLoop consumes client frames until the connection dies, then tears the
// session down exactly once.
func (h *Handler) readLoop(s *Session) {
	// Detached from the request context: the session outlives the handshake.
	ctx := context.Background()

	var closeReason string
	defer func() {
		h.hub.Unbind(s)
		observability.DecWSActive("realtime")
		observability.IncWSEvent("in", "disconnect")
		h.publishLifecycle(ctx, s, "ws_disconnect", closeReason, "")
		h.hub.Route(ctx, PresenceChanged{})
	}()

	for {
		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			closeReason = err.Error()
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				observability.IncWSEvent("in", "error")
			}
			return
		}
		h.dispatch(ctx, s, raw)
	}
}

// dispatch routes a client frame. Unknown events are ignored; clients may be
// newer than the server.
func (h *Handler) dispatch(ctx context.Context, s *Session, raw []byte) {
	var frame clientFrame
	if err := json.Unmarshal(raw, &frame); err != nil {
		log.Printf("ws: bad frame from user %d: %v", s.UserID, err)
		return
	}

	switch frame.Event {
	case "typing":
		h.hub.Route(ctx, UserTyping{
			SenderID:   s.UserID,
			ReceiverID: frame.Data.ReceiverID,
			IsTyping:   frame.Data.IsTyping,
		})
	case "groupTyping":
		h.hub.Route(ctx, GroupUserTyping{
			GroupID:  frame.Data.GroupID,
			UserID:   s.UserID,
			Username: s.Username,
			IsTyping: frame.Data.IsTyping,
		})
	}
}

func (h *Handler) publishLifecycle(ctx context.Context, s *Session, event, reason, requestID string) {
	if h.publisher == nil {
		return
	}
	err := h.publisher.Publish(ctx, "ws_events.realtime", observability.EventEnvelope{
		EventType: "ws_events",
		EventName: event,
		RequestID: requestID,
		Payload: map[string]any{
			"conn_id":     s.ID,
			"user_id":     s.UserID,
			"ip":          s.IP,
			"duration_ms": time.Since(s.ConnectedAt).Milliseconds(),
			"reason":      reason,
		},
	})
	if err != nil {
		observability.IncAMQPPublishError()
	}
}
