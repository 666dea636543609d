package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"

	"lostfound-backend/internal/models"
	"lostfound-backend/internal/observability"
	"lostfound-backend/internal/repositories"
)

const wsEventsRoutingKey = "ws_events.relay"

// Per-frame rejection reasons reported back on the same connection.
var (
	errBadFrame     = errors.New("invalid message payload")
	errEmptyContent = errors.New("message content is empty")
	errNoAccess     = errors.New("no access to this chat")
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// RelayHandler governs the lifecycle of one realtime connection: identify
// the user, register the connection, then validate, persist and fan out each
// inbound frame.
type RelayHandler struct {
	hub           *Hub
	chatRepo      repositories.ChatRepository
	messageRepo   repositories.MessageRepository
	notifications repositories.NotificationRepository
}

// NewRelayHandler constructs a RelayHandler.
func NewRelayHandler(hub *Hub, chatRepo repositories.ChatRepository, messageRepo repositories.MessageRepository, notifications repositories.NotificationRepository) *RelayHandler {
	return &RelayHandler{hub: hub, chatRepo: chatRepo, messageRepo: messageRepo, notifications: notifications}
}

// Handle upgrades the connection and runs the relay loop. The user id comes
// from the userId query parameter of the upgrade URL; a connection without a
// valid positive id is closed immediately.
func (h *RelayHandler) Handle(c *gin.Context) {
	ctx, span := otel.Tracer("lostfound-backend/ws").Start(c.Request.Context(), "ws.handshake")
	c.Request = c.Request.WithContext(ctx)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		span.End()
		return
	}

	userID, err := strconv.Atoi(c.Query("userId"))
	if err != nil || userID <= 0 {
		log.Printf("websocket connect without valid userId from %s", c.Request.RemoteAddr)
		span.End()
		conn.Close()
		return
	}

	info := ConnInfo{
		ConnID:      newConnID(),
		UserID:      userID,
		IP:          observability.IPFromRequest(c.Request),
		RequestID:   observability.RequestIDFromRequest(c.Request),
		TraceID:     span.SpanContext().TraceID().String(),
		ConnectedAt: time.Now(),
	}
	cl := h.hub.Register(userID, conn, info)

	observability.IncWSActive()
	observability.IncWSEvent("ws_connect")
	publishLifecycleEvent(ctx, "ws_connect", info, "")
	span.End()

	// The handler goroutine stays parked on the read loop for the whole
	// connection; returning would cancel the request context under it.
	h.readLoop(ctx, cl, info)
}

// readLoop processes frames until the connection drops, then unregisters the
// identity captured at connect time.
func (h *RelayHandler) readLoop(ctx context.Context, cl *client, info ConnInfo) {
	var closeReason string
	defer func() {
		h.hub.Unregister(info.UserID, cl.conn)
		observability.DecWSActive()
		observability.IncWSEvent("ws_disconnect")
		publishLifecycleEvent(ctx, "ws_disconnect", info, closeReason)
		cl.conn.Close()
	}()

	for {
		_, raw, err := cl.conn.ReadMessage()
		if err != nil {
			closeReason = err.Error()
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				observability.IncWSEvent("ws_error")
			}
			return
		}
		h.handleFrame(ctx, cl, raw)
	}
}

// handleFrame runs one inbound frame to completion. Failures are reported on
// the same connection as error frames and never close it.
func (h *RelayHandler) handleFrame(ctx context.Context, cl *client, raw []byte) {
	msg, frame, err := h.processFrame(ctx, raw)
	if err != nil {
		switch {
		case errors.Is(err, errBadFrame), errors.Is(err, errEmptyContent), errors.Is(err, errNoAccess):
			observability.IncRelayFrame("rejected")
			h.writeError(cl, err.Error())
		default:
			log.Printf("relay frame failed for user %d: %v", frame.SenderID, err)
			observability.IncRelayFrame("failed")
			h.writeError(cl, "failed to send message")
		}
		return
	}

	if err := h.notifications.Create(ctx, frame.ReceiverID, "message", "You have a new message", chatLink(msg.ChatID)); err != nil {
		log.Printf("notification insert failed for user %d: %v", frame.ReceiverID, err)
	}

	event := models.NewMessageEvent(msg)
	for _, id := range []int{frame.SenderID, frame.ReceiverID} {
		h.hub.SendToUser(id, event)
	}
	observability.IncRelayFrame("delivered")
}

// processFrame validates the frame, re-checks chat membership and persists
// the message. Membership is checked per frame: connections are long-lived
// and client-supplied chat ids are never trusted.
func (h *RelayHandler) processFrame(ctx context.Context, raw []byte) (models.Message, models.InboundFrame, error) {
	var frame models.InboundFrame
	if err := json.Unmarshal(raw, &frame); err != nil {
		return models.Message{}, frame, errBadFrame
	}
	if frame.ChatID <= 0 || frame.SenderID <= 0 || frame.ReceiverID <= 0 {
		return models.Message{}, frame, errBadFrame
	}
	if strings.TrimSpace(frame.Content) == "" {
		return models.Message{}, frame, errEmptyContent
	}

	member, err := h.chatRepo.IsParticipant(ctx, frame.ChatID, frame.SenderID)
	if err != nil {
		return models.Message{}, frame, err
	}
	if !member {
		return models.Message{}, frame, errNoAccess
	}

	msg, err := h.messageRepo.CreateMessage(ctx, frame.ChatID, frame.SenderID, frame.Content)
	if err != nil {
		return models.Message{}, frame, err
	}
	return msg, frame, nil
}

func (h *RelayHandler) writeError(cl *client, reason string) {
	if err := cl.writeJSON(models.NewErrorFrame(reason)); err != nil {
		log.Printf("websocket error-frame write failed: %v", err)
	}
}

func publishLifecycleEvent(ctx context.Context, name string, info ConnInfo, reason string) {
	_ = observability.PublishEvent(ctx, wsEventsRoutingKey, observability.EventEnvelope{
		EventType: "ws_events",
		EventName: name,
		Payload: map[string]interface{}{
			"ws": map[string]interface{}{
				"event":       name,
				"conn_id":     info.ConnID,
				"duration_ms": time.Since(info.ConnectedAt).Milliseconds(),
				"reason":      reason,
			},
			"identity": map[string]interface{}{
				"user_id": info.UserID,
				"ip":      info.IP,
			},
		},
	}, observability.BuildHeaders(info.RequestID, info.TraceID))
}

func chatLink(chatID int) *string {
	link := "/chat/" + strconv.Itoa(chatID)
	return &link
}
