package engine

import "sync"

// Subscription receives updates touching the streams it was created for.
type Subscription struct {
	id      uint64
	filter  map[Stream]bool
	ch      chan Update
	engine  *Engine
	once    sync.Once
	dropped int
}

// Updates is closed when the subscription or the engine is closed.
func (s *Subscription) Updates() <-chan Update {
	return s.ch
}

// Close unsubscribes. Safe to call more than once.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.engine.subsMu.Lock()
		defer s.engine.subsMu.Unlock()
		if _, ok := s.engine.subs[s.id]; ok {
			delete(s.engine.subs, s.id)
			close(s.ch)
		}
	})
}

// deliver never blocks the engine loop: when the buffer is full the oldest
// queued update is discarded. Every update carries the full state, so the
// newest one is always enough. Callers hold engine.subsMu.
func (s *Subscription) deliver(u Update) bool {
	if !u.Touches(s.filter) {
		return true
	}
	select {
	case s.ch <- u:
		return true
	default:
	}
	select {
	case <-s.ch:
	default:
	}
	s.dropped++
	select {
	case s.ch <- u:
	default:
	}
	return false
}
