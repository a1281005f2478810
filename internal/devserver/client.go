package devserver

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/midhunpallampetty/upskillr-forum-engine/internal/pkg/channel"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 512 * 1024 // 512KB
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The dev server accepts any origin
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// client is a middleman between one websocket connection and the hub
type client struct {
	hub  *Hub
	conn *websocket.Conn

	// Buffered channel of outbound messages
	send chan []byte

	// Thread this client joined, guarded by mu
	mu       sync.Mutex
	threadID string

	logger zerolog.Logger
}

func (c *client) thread() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.threadID
}

func (c *client) setThread(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.threadID = id
}

// readPump pumps events from the websocket connection to the hub
func (c *client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error { c.conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.logger.Warn().Err(err).Msg("Unexpected websocket close")
			}
			break
		}

		ev, err := channel.Decode(message)
		if err != nil {
			c.logger.Error().Err(err).Str("message", string(message)).Msg("Failed to decode client event")
			continue
		}

		c.hub.handleClientEvent(c, ev)
	}
}

// writePump pumps queued messages to the websocket connection and keeps
// it alive with pings
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
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
