// Package session holds per-user conversation state for multi-turn flows.
// State is working memory for an in-progress workflow, not persisted task
// data: it is created when a flow cannot finish in one turn, mutated by later
// turns, and cleared on completion or cancellation.
package session

import (
	"sync"
	"time"
)

// Kind names the flow a user is currently in.
type Kind int

const (
	KindNone Kind = iota
	KindCreatingTask
	KindCreatingCategory
)

func (k Kind) String() string {
	switch k {
	case KindCreatingTask:
		return "creating_task"
	case KindCreatingCategory:
		return "creating_category"
	default:
		return "none"
	}
}

// TaskDraft is the not-yet-persisted payload of a paused task creation.
type TaskDraft struct {
	Title      string
	DueAt      *time.Time
	CategoryID *uint
}

// State is a user's active flow. For KindCreatingCategory entered from a
// paused task creation, Draft keeps the pending task so it survives the hop.
type State struct {
	Kind  Kind
	Draft *TaskDraft
}

// Store maps user ids to their single active State. All operations are
// atomic per key; different users never contend beyond the map access
// itself.
type Store struct {
	mu     sync.Mutex
	states map[uint]State
}

func NewStore() *Store {
	return &Store{states: make(map[uint]State)}
}

// Get returns the user's state and whether one exists.
func (s *Store) Get(userID uint) (State, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, ok := s.states[userID]
	return state, ok
}

// Set replaces the user's state. At most one state per user exists.
func (s *Store) Set(userID uint, state State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[userID] = state
}

// Clear drops the user's state. Clearing an absent state is fine: the
// cancellation keyword must succeed unconditionally.
func (s *Store) Clear(userID uint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, userID)
}
