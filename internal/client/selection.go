package client

import "sync"

// SelectionSink receives the id of a newly selected item. Persisting it is
// the sink's business. Implementations should be lightweight and must not
// block.
type SelectionSink interface {
	SelectionChanged(id string)
}

// SelectionFunc adapts a function to SelectionSink.
type SelectionFunc func(id string)

func (f SelectionFunc) SelectionChanged(id string) { f(id) }

// noopSink is the default; it drops selections.
type noopSink struct{}

func (noopSink) SelectionChanged(string) {}

// MemorySink records selections in memory for tests and the viewer.
type MemorySink struct {
	mu  sync.Mutex
	ids []string
}

func NewMemorySink() *MemorySink { return &MemorySink{} }

func (s *MemorySink) SelectionChanged(id string) {
	s.mu.Lock()
	s.ids = append(s.ids, id)
	s.mu.Unlock()
}

// Selections returns a copy of every id received, oldest first.
func (s *MemorySink) Selections() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.ids))
	copy(out, s.ids)
	return out
}

// Last returns the most recent selection, or "".
func (s *MemorySink) Last() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.ids) == 0 {
		return ""
	}
	return s.ids[len(s.ids)-1]
}
