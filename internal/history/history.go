// Package history keeps the in-process conversation log shared by every
// caller. Nothing is persisted; the log lives as long as the process.
package history

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Role attributes a turn to one side of the conversation.
type Role string

const (
	RoleUser Role = "user"
	RoleBot  Role = "bot"
)

// Turn is one logged message.
type Turn struct {
	ID   string    `json:"id"`
	Role Role      `json:"role"`
	Text string    `json:"text"`
	At   time.Time `json:"at"`
}

// String renders the turn as "role: text".
func (t Turn) String() string {
	return string(t.Role) + ": " + t.Text
}

// Store is an append-only, ordered log of turns. It is safe for concurrent
// use: appends are serialized and reads see a consistent snapshot.
type Store struct {
	maxTurns int
	now      func() time.Time

	mu    sync.RWMutex
	turns []Turn
}

// New returns an empty Store. When maxTurns > 0 the oldest turns are
// dropped once the log grows past maxTurns; 0 keeps every turn.
func New(maxTurns int) *Store {
	return &Store{
		maxTurns: max(maxTurns, 0),
		now:      time.Now,
	}
}

// Append adds a turn at the end of the log and returns it.
func (s *Store) Append(role Role, text string) Turn {
	t := Turn{
		ID:   uuid.NewString(),
		Role: role,
		Text: text,
		At:   s.now().UTC(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns = append(s.turns, t)
	if s.maxTurns > 0 && len(s.turns) > s.maxTurns {
		drop := len(s.turns) - s.maxTurns
		s.turns = append(s.turns[:0:0], s.turns[drop:]...)
	}
	return t
}

// Len returns the number of turns currently held.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.turns)
}

// Recent returns a copy of the last limit turns in chronological order.
// A negative limit is treated as zero.
func (s *Store) Recent(limit int) []Turn {
	if limit <= 0 {
		return []Turn{}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	start := max(len(s.turns)-limit, 0)
	out := make([]Turn, len(s.turns)-start)
	copy(out, s.turns[start:])
	return out
}

// RecentContext renders the last limit turns as newline-joined
// "role: text" lines, oldest first. It returns "" for an empty log or a
// non-positive limit.
func (s *Store) RecentContext(limit int) string {
	turns := s.Recent(limit)
	lines := make([]string, len(turns))
	for i, t := range turns {
		lines[i] = t.String()
	}
	return strings.Join(lines, "\n")
}
