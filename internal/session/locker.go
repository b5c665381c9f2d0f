package session

import "sync"

// Locker serializes turn handling per user. Webhook deliveries have no
// ordering guarantee, so two turns for the same user can race; holding the
// user's lock for the whole turn makes get-check-set sequences on state and
// on idempotency checks safe. Locks are independent per user, so one user's
// slow external call never blocks another user.
type Locker struct {
	mu    sync.Mutex
	locks map[uint]*userLock
}

type userLock struct {
	mu   sync.Mutex
	refs int
}

func NewLocker() *Locker {
	return &Locker{locks: make(map[uint]*userLock)}
}

// Lock acquires the user's turn lock and returns the unlock function.
// Entries are refcounted and removed once the last holder releases, so the
// map does not grow with every user ever seen.
func (l *Locker) Lock(userID uint) func() {
	l.mu.Lock()
	entry, ok := l.locks[userID]
	if !ok {
		entry = &userLock{}
		l.locks[userID] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()

	return func() {
		entry.mu.Unlock()
		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.locks, userID)
		}
		l.mu.Unlock()
	}
}
