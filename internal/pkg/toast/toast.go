// Package toast holds the ephemeral, process-local notification queue.
// Toasts expire on their own after a fixed interval; sticky toasts stay
// until the queue is cleared.
package toast

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// DefaultTTL is how long a toast stays visible
const DefaultTTL = 5 * time.Second

// Kind classifies a toast for presentation
type Kind string

const (
	KindInfo    Kind = "info"
	KindSuccess Kind = "success"
	KindError   Kind = "error"
)

// Toast is a single transient notification
type Toast struct {
	ID        string    `json:"id"`
	Message   string    `json:"message"`
	Kind      Kind      `json:"kind"`
	CreatedAt time.Time `json:"createdAt"`
}

// Queue is a time-expiring list of toasts. Safe for concurrent use.
type Queue struct {
	mu     sync.Mutex
	ttl    time.Duration
	toasts []Toast
	timers map[string]*time.Timer
	logger zerolog.Logger
}

// NewQueue creates a queue whose toasts expire after ttl. A
// non-positive ttl falls back to DefaultTTL.
func NewQueue(ttl time.Duration, logger zerolog.Logger) *Queue {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Queue{
		ttl:    ttl,
		timers: make(map[string]*time.Timer),
		logger: logger,
	}
}

// Push appends a toast and schedules its removal
func (q *Queue) Push(kind Kind, message string) Toast {
	return q.push(kind, message, true)
}

// PushSticky appends a toast that never expires on its own. Used for
// conditions the user has to act on, like a dropped push connection.
func (q *Queue) PushSticky(kind Kind, message string) Toast {
	return q.push(kind, message, false)
}

// push appends the toast and, when it expires, registers its timer in
// the same critical section so removal can never observe the toast
// without its timer entry
func (q *Queue) push(kind Kind, message string, expires bool) Toast {
	t := Toast{
		ID:        uuid.NewString(),
		Message:   message,
		Kind:      kind,
		CreatedAt: time.Now(),
	}

	q.mu.Lock()
	q.toasts = append(q.toasts, t)
	if expires {
		q.timers[t.ID] = time.AfterFunc(q.ttl, func() { q.remove(t.ID) })
	}
	q.mu.Unlock()

	q.logger.Debug().Str("kind", string(kind)).Str("message", message).Msg("Toast queued")
	return t
}

// Dismiss removes a toast before its timer fires
func (q *Queue) Dismiss(id string) {
	q.remove(id)
}

func (q *Queue) remove(id string) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if timer, ok := q.timers[id]; ok {
		timer.Stop()
		delete(q.timers, id)
	}
	for i, t := range q.toasts {
		if t.ID == id {
			q.toasts = append(q.toasts[:i:i], q.toasts[i+1:]...)
			return
		}
	}
}

// Toasts returns a snapshot of the current toasts, oldest first
func (q *Queue) Toasts() []Toast {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]Toast, len(q.toasts))
	copy(out, q.toasts)
	return out
}

// Clear drops every toast and stops the pending timers
func (q *Queue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()

	for id, timer := range q.timers {
		timer.Stop()
		delete(q.timers, id)
	}
	q.toasts = nil
}
