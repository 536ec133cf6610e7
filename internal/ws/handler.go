package ws

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"skillswap/server/internal/auth"
	"skillswap/server/internal/services"
	"skillswap/server/internal/utils"
)

// Client-originated event names.
const (
	eventJoin       = "join"
	eventChatSend   = "chat:send"
	eventTyping     = "chat:typing"
	eventStopTyping = "chat:stop-typing"
)

// Server-originated event names (lifecycle notifications are the
// services.Event* constants).
const (
	EventChatReceive    = "chat:receive"
	EventChatSent       = "chat:sent"
	EventChatError      = "chat:error"
	EventUnreadMessages = "unread:messages"
)

const handlerTimeout = 10 * time.Second

// Handler upgrades authenticated websocket connections and routes their
// events: presence registration on join (including the unread-message
// snapshot), chat send/typing relay, and presence removal on disconnect.
type Handler struct {
	upgrader   websocket.Upgrader
	registry   *Registry
	dispatcher *Dispatcher
	chat       services.IChatService
	jwtSecret  string
}

// NewHandler creates a websocket Handler.
func NewHandler(registry *Registry, dispatcher *Dispatcher, chat services.IChatService, jwtSecret string) *Handler {
	return &Handler{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// Browsers cannot set Authorization headers on websocket dials,
			// so origin checking is left to the CORS layer in front.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		registry:   registry,
		dispatcher: dispatcher,
		chat:       chat,
		jwtSecret:  jwtSecret,
	}
}

// ServeWS handles GET /v1/ws. The token query parameter carries the JWT,
// since websocket dials cannot set headers from browsers.
func (h *Handler) ServeWS(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "token query parameter required"})
		return
	}
	claims, err := auth.ValidateJWT(token, h.jwtSecret)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already written the HTTP error
		log.Printf("Websocket upgrade failed for user %s: %v", claims.UserID, err)
		return
	}

	client := newClient(claims.UserID, conn, h)
	log.Printf("Websocket connection %s opened for user %s", client.ID, client.userID)

	go client.writePump()
	go client.readPump()
}

// handleEvent routes one inbound frame from a client.
func (h *Handler) handleEvent(c *Client, env Envelope) {
	switch env.Event {
	case eventJoin:
		h.handleJoin(c, env.Data)
	case eventChatSend:
		h.handleChatSend(c, env.Data)
	case eventTyping, eventStopTyping:
		h.handleTyping(c, env.Event, env.Data)
	default:
		log.Printf("Client %s (user %s): unhandled event %q", c.ID, c.userID, env.Event)
	}
}

// handleJoin registers presence and pushes the unread-message snapshot to
// the joining connection. This is pull-based reconciliation: nothing that
// was dispatched while the user was offline is replayed, the user just
// learns what persisted chat they have not read.
func (h *Handler) handleJoin(c *Client, data json.RawMessage) {
	var payload struct {
		UserID string `json:"userId"`
	}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &payload); err != nil {
			log.Printf("Client %s: malformed join payload: %v", c.ID, err)
		}
	}
	// Identity comes from the handshake token; a mismatched join payload is
	// logged and ignored rather than trusted.
	if payload.UserID != "" && payload.UserID != c.userID {
		log.Printf("Client %s: join payload user %s does not match authenticated user %s", c.ID, payload.UserID, c.userID)
	}

	h.registry.Add(c.userID, c)
	c.joined = true
	log.Printf("User %s joined (%d online)", c.userID, h.registry.Count())

	userID, err := utils.ParseSixID(c.userID)
	if err != nil {
		log.Printf("Client %s: invalid user id %q: %v", c.ID, c.userID, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	conversations, err := h.chat.UnreadBySender(ctx, userID)
	if err != nil {
		log.Printf("User %s: failed to build unread snapshot: %v", c.userID, err)
		return
	}
	total, err := h.chat.UnreadCount(ctx, userID)
	if err != nil {
		log.Printf("User %s: failed to count unread messages: %v", c.userID, err)
		return
	}

	snapshot := gin.H{"totalCount": total, "conversations": conversations}
	if err := c.Emit(EventUnreadMessages, snapshot); err != nil {
		log.Printf("User %s: failed to push unread snapshot: %v", c.userID, err)
	}
}

// handleChatSend persists the message, then attempts live delivery to the
// receiver and always echoes a sent-confirmation to the sender.
func (h *Handler) handleChatSend(c *Client, data json.RawMessage) {
	var payload struct {
		ReceiverID string `json:"receiverId"`
		TradeID    string `json:"tradeId"`
		Message    string `json:"message"`
		Attachment string `json:"attachment"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		c.Emit(EventChatError, gin.H{"message": "malformed chat payload"})
		return
	}

	senderID, err := utils.ParseSixID(c.userID)
	if err != nil {
		c.Emit(EventChatError, gin.H{"message": "invalid sender id"})
		return
	}
	receiverID, err := utils.ParseSixID(payload.ReceiverID)
	if err != nil {
		c.Emit(EventChatError, gin.H{"message": "invalid receiver id"})
		return
	}
	tradeID, err := utils.ParseSixID(payload.TradeID)
	if err != nil {
		c.Emit(EventChatError, gin.H{"message": "invalid trade id"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	msg, err := h.chat.SaveMessage(ctx, senderID, receiverID, tradeID, payload.Message, payload.Attachment)
	if err != nil {
		c.Emit(EventChatError, gin.H{"message": err.Error()})
		return
	}

	// Delivery is best effort; persistence above already succeeded
	h.dispatcher.Dispatch(payload.ReceiverID, EventChatReceive, msg)

	if err := c.Emit(EventChatSent, msg); err != nil {
		log.Printf("User %s: failed to echo chat:sent: %v", c.userID, err)
	}
}

// handleTyping relays a transient typing indicator. Nothing is persisted;
// if the receiver is offline the event is silently dropped.
func (h *Handler) handleTyping(c *Client, event string, data json.RawMessage) {
	var payload struct {
		ReceiverID string `json:"receiverId"`
		TradeID    string `json:"tradeId"`
	}
	if err := json.Unmarshal(data, &payload); err != nil || payload.ReceiverID == "" {
		return
	}
	if conn, ok := h.registry.Get(payload.ReceiverID); ok {
		conn.Emit(event, gin.H{"userId": c.userID, "tradeId": payload.TradeID})
	}
}

// disconnect removes presence for a departing connection. A connection that
// never joined holds no registry entry.
func (h *Handler) disconnect(c *Client) {
	if c.joined {
		h.registry.Remove(c.userID, c)
	}
	c.shutdown()
	log.Printf("Websocket connection %s closed for user %s (%d online)", c.ID, c.userID, h.registry.Count())
}
