package hub

import (
	"sync"

	"pmchat/internal/models"
)

const sessionBuffer = 64

// Session ties one live connection to its principal and to at most one
// current room. The currentRoom field is only touched by the connection's
// own handler goroutine; outbound delivery is the only cross-goroutine
// surface and is guarded separately.
type Session struct {
	principal   models.Principal
	currentRoom string

	mu     sync.Mutex
	send   chan models.ServerEvent
	closed bool
}

func NewSession(principal models.Principal) *Session {
	return &Session{
		principal: principal,
		send:      make(chan models.ServerEvent, sessionBuffer),
	}
}

func (s *Session) Principal() models.Principal {
	return s.principal
}

// CurrentRoom returns the room the session currently occupies, or "".
func (s *Session) CurrentRoom() string {
	return s.currentRoom
}

// Events is the stream the transport layer drains to the client. It is
// closed when the session disconnects.
func (s *Session) Events() <-chan models.ServerEvent {
	return s.send
}

// Send delivers an event without blocking. A slow consumer loses
// events rather than stalling the whole room; reports whether the event
// was accepted.
func (s *Session) Send(ev models.ServerEvent) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false
	}
	select {
	case s.send <- ev:
		return true
	default:
		return false
	}
}

// Close closes the outbound stream. It is safe to call more than once.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.closed {
		s.closed = true
		close(s.send)
	}
}
