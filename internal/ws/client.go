package ws

import (
	"encoding/json"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	// Time allowed to read the next pong from the client
	pongWait = 60 * time.Second

	// Ping interval; must be shorter than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Deadline for a single write
	writeWait = 10 * time.Second

	// Maximum inbound message size
	maxMessageSize = 64 * 1024

	// Outbound buffer; frames beyond this are dropped rather than queued
	sendBufferSize = 64
)

// Envelope is the wire frame for every event in both directions.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// ErrSendBufferFull is returned by Emit when the client's outbound buffer is
// saturated. The frame is dropped; the connection itself stays up and
// recovers once the client drains its backlog.
var ErrSendBufferFull = errors.New("client send buffer full")

// ErrClientClosed is returned by Emit after the connection has shut down.
var ErrClientClosed = errors.New("client connection closed")

// Client is one live websocket connection for an authenticated user.
type Client struct {
	ID      uuid.UUID
	userID  string
	conn    *websocket.Conn
	send    chan []byte
	handler *Handler
	joined  bool

	mu     sync.Mutex
	closed bool
}

func newClient(userID string, conn *websocket.Conn, handler *Handler) *Client {
	return &Client{
		ID:      uuid.New(),
		userID:  userID,
		conn:    conn,
		send:    make(chan []byte, sendBufferSize),
		handler: handler,
	}
}

// UserID returns the authenticated user behind this connection.
func (c *Client) UserID() string {
	return c.userID
}

// Emit queues an event frame for delivery. It never blocks: a saturated
// buffer means the client is too slow and the frame is dropped with an error.
// Emitting to a connection that has shut down reports ErrClientClosed; a
// dispatch racing a disconnect may see either outcome.
func (c *Client) Emit(event string, data interface{}) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	frame, err := json.Marshal(Envelope{Event: event, Data: raw})
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClientClosed
	}
	select {
	case c.send <- frame:
		return nil
	default:
		return ErrSendBufferFull
	}
}

// shutdown closes the send channel exactly once, releasing writePump.
func (c *Client) shutdown() {
	c.mu.Lock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
	c.mu.Unlock()
}

// readPump consumes inbound frames until the connection dies, then runs the
// disconnect hook. One goroutine per connection.
func (c *Client) readPump() {
	defer func() {
		c.handler.disconnect(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				log.Printf("Client %s (user %s): unexpected close: %v", c.ID, c.userID, err)
			}
			return
		}

		var env Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			log.Printf("Client %s (user %s): malformed frame: %v", c.ID, c.userID, err)
			continue
		}
		c.handler.handleEvent(c, env)
	}
}

// writePump drains the send buffer and keeps the connection alive with
// pings. One goroutine per connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
