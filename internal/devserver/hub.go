// Package devserver is an in-memory reference implementation of the
// forum backend contracts: the REST API the gateway talks to and the
// push channel the engine subscribes to. It exists so the engine can be
// run and integration-tested without the production backend; it is not
// a persistence design.
package devserver

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/midhunpallampetty/upskillr-forum-engine/internal/pkg/channel"
)

// outbound is one message queued for delivery, optionally scoped to a
// thread and excluding its originator
type outbound struct {
	data     []byte
	threadID string  // deliver only to clients in this thread when set
	exclude  *client // never echo typing back to its sender
}

// Hub maintains the set of connected clients and fans push events out
// to them
type Hub struct {
	clients    map[*client]bool
	broadcast  chan outbound
	register   chan *client
	unregister chan *client
	store      *memoryStore
	logger     zerolog.Logger
}

// NewHub creates a new Hub over the given store
func NewHub(store *memoryStore, logger zerolog.Logger) *Hub {
	return &Hub{
		clients:    make(map[*client]bool),
		broadcast:  make(chan outbound, 64),
		register:   make(chan *client),
		unregister: make(chan *client),
		store:      store,
		logger:     logger,
	}
}

// Run handles client registrations and broadcasts until the context is
// cancelled
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
			h.logger.Info().Str("addr", client.conn.RemoteAddr().String()).Msg("Client registered")

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				h.logger.Info().Str("addr", client.conn.RemoteAddr().String()).Msg("Client unregistered")
			}

		case msg := <-h.broadcast:
			h.deliver(msg)

		case <-ctx.Done():
			for client := range h.clients {
				delete(h.clients, client)
				close(client.send)
			}
			return
		}
	}
}

// Broadcast queues an event for every connected client
func (h *Hub) Broadcast(ev channel.Event) {
	h.send(ev, "", nil)
}

func (h *Hub) send(ev channel.Event, threadID string, exclude *client) {
	data, err := channel.Encode(ev)
	if err != nil {
		h.logger.Error().Err(err).Str("event", ev.EventName()).Msg("Failed to encode event for broadcast")
		return
	}
	h.broadcast <- outbound{data: data, threadID: threadID, exclude: exclude}
}

func (h *Hub) deliver(msg outbound) {
	for client := range h.clients {
		if client == msg.exclude {
			continue
		}
		if msg.threadID != "" && client.thread() != msg.threadID {
			continue
		}
		select {
		case client.send <- msg.data:
		default:
			// Slow client, drop it
			delete(h.clients, client)
			close(client.send)
		}
	}
}

// handleClientEvent applies one event received from a connected client.
// Deletions mutate the store idempotently (the REST call usually got
// there first) and are confirmed to every client, the sender included,
// so all peers converge through the same path.
func (h *Hub) handleClientEvent(c *client, ev channel.Event) {
	switch e := ev.(type) {
	case channel.JoinThread:
		c.setThread(e.ThreadID)
		h.logger.Debug().Str("threadID", e.ThreadID).Msg("Client joined thread")

	case channel.DeleteQuestion:
		h.store.DeleteQuestion(e.ID)
		h.send(channel.QuestionDeleted{ID: e.ID}, "", nil)

	case channel.DeleteAnswer:
		h.store.DeleteAnswer(e.ID)
		h.send(channel.AnswerDeleted{ID: e.ID, QuestionID: e.QuestionID}, "", nil)

	case channel.DeleteReply:
		h.store.DeleteReply(e.ID)
		h.send(channel.ReplyDeleted{ID: e.ID, QuestionID: e.QuestionID, AnswerID: e.AnswerID}, "", nil)

	case channel.Typing:
		h.send(e, e.ThreadID, c)

	case channel.StopTyping:
		h.send(e, e.ThreadID, c)

	default:
		h.logger.Debug().Str("event", ev.EventName()).Msg("Ignoring client event")
	}
}
