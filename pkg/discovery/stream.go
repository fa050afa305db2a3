package discovery

import "sync"

// Stream is the one-way bridge between a background producer (scanner or
// remote fetch) and the interactive consumer. The consumer polls Drain on
// a short interval and merges new entries into its live set; Done tells it
// no more entries are coming. Cancellation is cooperative: Cancel asks the
// producer to stop spawning new work, it does not abort in-flight calls.
//
// Entries are delivered exactly once through Drain. Ordering across
// producer tasks is unspecified.
type Stream struct {
	mu      sync.Mutex
	pending []Entry
	all     []Entry

	done       chan struct{}
	finishOnce sync.Once
	err        error

	cancelled  chan struct{}
	cancelOnce sync.Once
}

// NewStream creates an open stream.
func NewStream() *Stream {
	return &Stream{
		done:      make(chan struct{}),
		cancelled: make(chan struct{}),
	}
}

// Publish delivers one entry to the consumer. Entries published after
// cancellation are dropped, so a slow producer cannot leak late results
// into a newly selected mode.
func (s *Stream) Publish(entry Entry) {
	select {
	case <-s.cancelled:
		return
	default:
	}

	s.mu.Lock()
	s.pending = append(s.pending, entry)
	s.all = append(s.all, entry)
	s.mu.Unlock()
}

// PublishAll delivers a batch of entries.
func (s *Stream) PublishAll(entries []Entry) {
	for _, entry := range entries {
		s.Publish(entry)
	}
}

// Drain returns the entries published since the previous Drain. It never
// blocks and never returns an entry twice.
func (s *Stream) Drain() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	drained := s.pending
	s.pending = nil
	return drained
}

// All returns every entry published so far, drained or not.
func (s *Stream) All() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	all := make([]Entry, len(s.all))
	copy(all, s.all)
	return all
}

// Finish marks the stream complete. err records why the producer stopped;
// nil means a normal finish. Only the first call takes effect.
func (s *Stream) Finish(err error) {
	s.finishOnce.Do(func() {
		s.mu.Lock()
		s.err = err
		s.mu.Unlock()
		close(s.done)
	})
}

// Done is closed once the producer has finished.
func (s *Stream) Done() <-chan struct{} {
	return s.done
}

// Err reports why the stream finished. Meaningful only after Done.
func (s *Stream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Cancel asks the producer to stop. Safe to call multiple times and from
// any goroutine.
func (s *Stream) Cancel() {
	s.cancelOnce.Do(func() { close(s.cancelled) })
}

// Cancelled is closed once cancellation has been requested.
func (s *Stream) Cancelled() <-chan struct{} {
	return s.cancelled
}
