package events

import "sync"

// Stream is the ordered event sequence for one bulk job. Producers
// (pipeline workers, the job coordinator, the heartbeat ticker) publish
// concurrently; a single consumer drains C. The engine sizes the buffer
// for the whole job and closes the stream only after every producer has
// returned, so Publish never blocks a worker against a slow consumer.
type Stream struct {
	C chan Event

	mu     sync.RWMutex
	closed bool
}

func NewStream(buffer int) *Stream {
	if buffer <= 0 {
		buffer = 64
	}
	return &Stream{C: make(chan Event, buffer)}
}

// Publish enqueues an event. Returns false if the stream is closed.
func (s *Stream) Publish(e Event) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return false
	}
	s.C <- e
	return true
}

// Close ends the stream. Safe to call more than once; events already
// buffered remain readable until C is drained.
func (s *Stream) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.C)
}
