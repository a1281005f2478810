package services

import (
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/midhunpallampetty/upskillr-forum-engine/internal/pkg/channel"
)

// DefaultTypingIdle is how long after the last keystroke stop_typing
// is emitted
const DefaultTypingIdle = 2 * time.Second

// Emitter is the outbound half of the push channel, the only part
// presence needs
type Emitter interface {
	Emit(ev channel.Event) error
}

// PresenceService tracks who is composing a message in the open
// thread. The typing set is scoped to that thread only and is torn
// down whenever the thread changes.
type PresenceService interface {
	// SetThread switches the open thread: the typing set resets, a
	// pending local stop_typing fires for the old thread, and join_thread
	// is emitted for the new one. An empty id closes the thread.
	SetThread(threadID string)

	// OnLocalTyping registers a local keystroke: typing is emitted on the
	// first keystroke after an idle period, stop_typing after the idle
	// timeout with no further keystrokes.
	OnLocalTyping()

	// HandleRemoteTyping records a remote peer composing in the thread
	HandleRemoteTyping(threadID, userName string)

	// HandleRemoteStopTyping removes a remote peer from the typing set
	HandleRemoteStopTyping(threadID, userName string)

	// TypingUsers returns the display names currently composing, sorted
	TypingUsers() []string

	// Close cancels the idle timer and closes out an in-flight typing
	// state. Must be called on unmount so no stop_typing leaks later.
	Close()
}

// presenceServiceImpl implements PresenceService
type presenceServiceImpl struct {
	emitter   Emitter
	localName string
	idle      time.Duration
	logger    zerolog.Logger

	mu       sync.Mutex
	threadID string
	typing   map[string]struct{}
	timer    *time.Timer
	active   bool // local typing emitted, stop not yet sent
}

// NewPresenceService creates a new PresenceService. A non-positive idle
// falls back to DefaultTypingIdle.
func NewPresenceService(emitter Emitter, localName string, idle time.Duration, logger zerolog.Logger) PresenceService {
	if idle <= 0 {
		idle = DefaultTypingIdle
	}
	return &presenceServiceImpl{
		emitter:   emitter,
		localName: localName,
		idle:      idle,
		logger:    logger,
		typing:    make(map[string]struct{}),
	}
}

// SetThread switches the open thread
func (s *presenceServiceImpl) SetThread(threadID string) {
	s.mu.Lock()
	if threadID == s.threadID {
		s.mu.Unlock()
		return
	}

	old := s.threadID
	wasActive := s.active
	s.stopTimerLocked()
	s.active = false
	s.threadID = threadID
	s.typing = make(map[string]struct{})
	s.mu.Unlock()

	if wasActive {
		s.emit(channel.StopTyping{ThreadID: old, UserName: s.localName})
	}
	if threadID != "" {
		s.emit(channel.JoinThread{ThreadID: threadID})
	}
}

// OnLocalTyping registers a local keystroke, debouncing stop_typing
func (s *presenceServiceImpl) OnLocalTyping() {
	s.mu.Lock()
	if s.threadID == "" {
		s.mu.Unlock()
		return
	}

	thread := s.threadID
	first := !s.active
	s.active = true
	s.stopTimerLocked()
	s.timer = time.AfterFunc(s.idle, func() { s.idleExpired(thread) })
	s.mu.Unlock()

	if first {
		s.emit(channel.Typing{ThreadID: thread, UserName: s.localName})
	}
}

// idleExpired fires when no keystroke arrived within the idle window
func (s *presenceServiceImpl) idleExpired(thread string) {
	s.mu.Lock()
	if s.threadID != thread || !s.active {
		s.mu.Unlock()
		return
	}
	s.active = false
	s.timer = nil
	s.mu.Unlock()

	s.emit(channel.StopTyping{ThreadID: thread, UserName: s.localName})
}

// HandleRemoteTyping records a remote peer composing in the open thread
func (s *presenceServiceImpl) HandleRemoteTyping(threadID, userName string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if threadID != s.threadID || s.threadID == "" || userName == s.localName {
		return
	}
	s.typing[userName] = struct{}{}
}

// HandleRemoteStopTyping removes a remote peer from the typing set
func (s *presenceServiceImpl) HandleRemoteStopTyping(threadID, userName string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if threadID != s.threadID {
		return
	}
	delete(s.typing, userName)
}

// TypingUsers returns the display names currently composing, sorted
func (s *presenceServiceImpl) TypingUsers() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]string, 0, len(s.typing))
	for name := range s.typing {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Close cancels the idle timer and closes out an in-flight typing state
func (s *presenceServiceImpl) Close() {
	s.mu.Lock()
	thread := s.threadID
	wasActive := s.active
	s.stopTimerLocked()
	s.active = false
	s.mu.Unlock()

	if wasActive {
		s.emit(channel.StopTyping{ThreadID: thread, UserName: s.localName})
	}
}

// stopTimerLocked cancels the pending idle timer. Callers hold the lock.
func (s *presenceServiceImpl) stopTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *presenceServiceImpl) emit(ev channel.Event) {
	if err := s.emitter.Emit(ev); err != nil {
		s.logger.Warn().Err(err).Str("event", ev.EventName()).Msg("Failed to emit presence event")
	}
}
