package channel

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/midhunpallampetty/upskillr-forum-engine/internal/pkg/apperrors"
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

	// Buffer sizes for the inbound and outbound queues
	eventBuffer = 64
)

// EventChannel is the persistent bidirectional push connection to the
// backend. One connection per session: Connect once, consume Events
// until it closes, Emit local events, Close on teardown.
type EventChannel interface {
	// Connect establishes the connection. A Connected event is delivered
	// on success; a failure is returned and nothing is delivered.
	Connect(ctx context.Context) error

	// Emit sends a local event to the server
	Emit(ev Event) error

	// Events returns the inbound delivery stream. The channel is closed
	// when the connection terminates; a ConnectError event precedes the
	// close when the termination was not requested locally.
	Events() <-chan Event

	// Close tears the connection down
	Close() error
}

// Socket is the gorilla/websocket implementation of EventChannel
type Socket struct {
	url    string
	logger zerolog.Logger

	conn   *websocket.Conn
	events chan Event
	send   chan []byte
	done   chan struct{}

	closeOnce sync.Once
}

// NewSocket creates a Socket that will dial the given websocket URL
func NewSocket(url string, logger zerolog.Logger) *Socket {
	return &Socket{
		url:    url,
		logger: logger,
		events: make(chan Event, eventBuffer),
		send:   make(chan []byte, eventBuffer),
		done:   make(chan struct{}),
	}
}

// Connect dials the server and starts the read and write pumps
func (s *Socket) Connect(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, s.url, nil)
	if err != nil {
		s.logger.Error().Err(err).Str("url", s.url).Msg("Failed to connect push channel")
		return apperrors.NewChannelError("failed to connect push channel", err)
	}
	s.conn = conn
	s.events <- Connected{}

	go s.writePump()
	go s.readPump()

	s.logger.Info().Str("url", s.url).Msg("Push channel connected")
	return nil
}

// Emit serializes an event and queues it for delivery to the server
func (s *Socket) Emit(ev Event) error {
	data, err := Encode(ev)
	if err != nil {
		return err
	}

	select {
	case s.send <- data:
		return nil
	case <-s.done:
		return apperrors.ErrChannelClosed
	}
}

// Events returns the inbound delivery stream
func (s *Socket) Events() <-chan Event {
	return s.events
}

// Close tears down the connection and the pumps
func (s *Socket) Close() error {
	s.shutdown()
	return nil
}

func (s *Socket) shutdown() {
	s.closeOnce.Do(func() {
		close(s.done)
		if s.conn != nil {
			s.conn.Close()
		}
	})
}

// readPump pumps messages from the websocket connection to the events
// channel. It owns the events channel and closes it on exit.
func (s *Socket) readPump() {
	defer func() {
		s.shutdown()
		close(s.events)
	}()

	s.conn.SetReadLimit(maxMessageSize)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error { s.conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })

	for {
		_, message, err := s.conn.ReadMessage()
		if err != nil {
			select {
			case <-s.done:
				// Locally requested close, not an error
				s.logger.Info().Msg("Push channel closed")
			default:
				if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					s.logger.Info().Msg("Push channel closed by server")
				} else {
					s.logger.Warn().Err(err).Msg("Push channel dropped")
				}
				s.events <- ConnectError{Message: err.Error()}
			}
			return
		}

		ev, err := Decode(message)
		if err != nil {
			s.logger.Error().Err(err).Str("message", string(message)).Msg("Failed to decode push event")
			continue
		}

		s.events <- ev
	}
}

// writePump pumps queued outbound messages to the websocket connection
// and keeps the connection alive with pings.
func (s *Socket) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.shutdown()
	}()

	for {
		select {
		case data := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				s.logger.Warn().Err(err).Msg("Push channel write failed")
				return
			}

		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-s.done:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			s.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}
