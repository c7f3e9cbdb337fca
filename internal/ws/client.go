// Package ws drives one live connection: registration against the
// connection registry, pure-relay message delivery, typing indicators,
// and disconnect cleanup.
package ws

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rgoyal/huddle/internal/events"
	"github.com/rgoyal/huddle/internal/registry"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8192
	sendBufferSize = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// inbound is the client→server frame. Kind selects which fields matter.
type inbound struct {
	Kind    string          `json:"kind"`
	ChatID  int             `json:"chat_id,omitempty"`
	Members []int           `json:"members,omitempty"`
	Message json.RawMessage `json:"message,omitempty"`
}

// Register is the only inbound kind that is not also an outbound event.
const Register = "REGISTER"

// Client is one live transport session. It starts unregistered, becomes
// addressable through the registry after a REGISTER frame, and cleans up
// its own registry entry (and only its own) on disconnect.
type Client struct {
	registry *registry.Registry
	router   *events.Router
	conn     *websocket.Conn

	// authID is the authenticated identity supplied at upgrade time.
	authID int

	send chan []byte
	done chan struct{}

	// mu guards userID: the read pump writes it on REGISTER, while close
	// may run from either pump's teardown path.
	mu sync.Mutex
	// userID is the id currently registered, 0 while unregistered.
	userID int

	closeOnce sync.Once
}

// Deliver enqueues a payload without blocking. A closed or backed-up
// session reports false and the event is dropped for this recipient.
func (c *Client) Deliver(payload []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}

// ServeWs upgrades the request and runs the session. userID is the
// authenticated identity from the auth middleware; the connection stays
// unregistered until the client sends a REGISTER frame.
func ServeWs(reg *registry.Registry, router *events.Router, w http.ResponseWriter, r *http.Request, userID int) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Error upgrading connection: %v", err)
		return
	}

	client := &Client{
		registry: reg,
		router:   router,
		conn:     conn,
		authID:   userID,
		send:     make(chan []byte, sendBufferSize),
		done:     make(chan struct{}),
	}

	go client.writePump()
	go client.readPump()
}

func (c *Client) readPump() {
	defer c.close()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("Unexpected close: %v", err)
			}
			return
		}

		var frame inbound
		if err := json.Unmarshal(data, &frame); err != nil {
			log.Printf("Dropping malformed frame: %v", err)
			continue
		}
		c.handle(frame)
	}
}

func (c *Client) handle(frame inbound) {
	if frame.Kind == Register {
		// The registered identity is always the authenticated one; a
		// client cannot name another user.
		c.register(c.authID)
		return
	}

	// Everything else requires a registered session.
	if c.registeredID() == 0 {
		return
	}

	switch frame.Kind {
	case events.NewMessage:
		// Pure relay: no persistence. The durable path is the
		// send-message operation on the HTTP boundary.
		c.router.Emit(frame.Members, events.NewMessage, events.MessagePayload{
			ChatID:  frame.ChatID,
			Message: frame.Message,
		})
	case events.StartTyping:
		c.router.Emit(frame.Members, events.StartTyping, events.ChatPayload{ChatID: frame.ChatID})
	case events.StopTyping:
		c.router.Emit(frame.Members, events.StopTyping, events.ChatPayload{ChatID: frame.ChatID})
	}
}

// register installs this connection for id, superseding any earlier
// connection for the same user. Re-registering under a new id releases
// the previous id only if it still points here. A session that already
// started closing never re-enters the registry.
func (c *Client) register(id int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	select {
	case <-c.done:
		return
	default:
	}

	if c.userID != 0 && c.userID != id {
		c.registry.UnregisterIfCurrent(c.userID, c)
	}
	c.registry.Register(id, c)
	c.userID = id
}

func (c *Client) registeredID() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.userID
}

func (c *Client) close() {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		if c.userID != 0 {
			c.registry.UnregisterIfCurrent(c.userID, c)
		}
		close(c.done)
		c.mu.Unlock()
		c.conn.Close()
	})
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case <-c.done:
			return
		case payload := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
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
