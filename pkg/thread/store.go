package thread

import (
	"cmp"
	"errors"
	"log/slog"
	"slices"
	"sync"

	"github.com/papercomputeco/spool/pkg/event"
)

var (
	// ErrNotFound is returned for unknown thread ids.
	ErrNotFound = errors.New("thread not found")

	// ErrEmptyThreadID is returned when creating a thread without an id.
	ErrEmptyThreadID = errors.New("thread id is required")
)

// Store owns the canonical thread map. Readers always receive copies.
type Store struct {
	mu      sync.RWMutex
	threads map[string]Thread
	logger  *slog.Logger
}

// NewStore creates an empty store.
func NewStore(logger *slog.Logger) *Store {
	return &Store{
		threads: make(map[string]Thread),
		logger:  logger,
	}
}

// Create registers a local thread. Creating an existing thread returns the
// current value unchanged.
func (s *Store) Create(threadID string) (Thread, error) {
	if threadID == "" {
		return Thread{}, ErrEmptyThreadID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.threads[threadID]; ok {
		return t.Clone(), nil
	}
	t := New(threadID)
	s.threads[threadID] = t
	return t.Clone(), nil
}

// Apply folds e into its thread and reports whether a thread changed. An
// event for an unknown thread starts it from an empty local record.
func (s *Store) Apply(e event.Event) bool {
	if e.ThreadID == "" {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.threads[e.ThreadID]
	if !ok {
		t = New(e.ThreadID)
		s.logger.Debug("creating thread from event", "thread_id", e.ThreadID)
	}
	s.threads[e.ThreadID] = Reduce(t, e)
	return true
}

// Get returns a copy of the thread.
func (s *Store) Get(threadID string) (Thread, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.threads[threadID]
	if !ok {
		return Thread{}, false
	}
	return t.Clone(), true
}

// List returns copies of all threads ordered by id.
func (s *Store) List() []Thread {
	s.mu.RLock()
	list := make([]Thread, 0, len(s.threads))
	for _, t := range s.threads {
		list = append(list, t.Clone())
	}
	s.mu.RUnlock()

	slices.SortFunc(list, func(a, b Thread) int {
		return cmp.Compare(a.ThreadID, b.ThreadID)
	})
	return list
}

// Speculate folds events into a copy of the thread without committing it.
func (s *Store) Speculate(threadID string, events ...event.Event) (Thread, error) {
	t, ok := s.Get(threadID)
	if !ok {
		return Thread{}, ErrNotFound
	}
	return ReduceAll(t, events...), nil
}

// Commit replaces the canonical thread with t. A committed thread can never
// become local again once the store has seen it confirmed.
func (s *Store) Commit(t Thread) error {
	if t.ThreadID == "" {
		return ErrEmptyThreadID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if cur, ok := s.threads[t.ThreadID]; ok && !cur.IsFromLocal {
		t.IsFromLocal = false
	}
	s.threads[t.ThreadID] = t.Clone()
	return nil
}

// Len returns the number of threads.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.threads)
}

// Clear removes every thread.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.threads = make(map[string]Thread)
}
