package timewindow

import "sync"

// Store holds the one active Window for the whole dashboard. Replace swaps
// the value atomically, so two readers between the same pair of updates
// always agree on the active window.
type Store struct {
	mu          sync.RWMutex
	current     Window
	subscribers map[chan Window]struct{}
	dropped     int
}

func NewStore(initial Window) *Store {
	return &Store{
		current:     initial,
		subscribers: make(map[chan Window]struct{}),
	}
}

func (s *Store) Current() Window {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Replace installs w as the active window and notifies every subscriber.
// Sends never block; a subscriber with a full channel misses the update and
// is counted in Dropped.
func (s *Store) Replace(w Window) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = w
	for ch := range s.subscribers {
		select {
		case ch <- w:
		default:
			s.dropped++
		}
	}
}

func (s *Store) Subscribe() chan Window {
	ch := make(chan Window, 8)
	s.mu.Lock()
	s.subscribers[ch] = struct{}{}
	s.mu.Unlock()
	return ch
}

func (s *Store) Unsubscribe(ch chan Window) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.subscribers[ch]; !ok {
		return
	}
	delete(s.subscribers, ch)
	close(ch)
}

// Dropped reports how many updates were skipped for slow subscribers.
func (s *Store) Dropped() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dropped
}
