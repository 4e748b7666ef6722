package orchestrator

import "sync"

// userLocks serializes turns per user: a single writer per session at a
// time while different users proceed independently. Entries are never
// evicted; the map grows with the distinct-user population, the same bound
// the session store already carries.
type userLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newUserLocks() *userLocks {
	return &userLocks{locks: make(map[string]*sync.Mutex)}
}

// acquire blocks until the user's lock is held and returns the release
// function.
func (l *userLocks) acquire(userID string) func() {
	l.mu.Lock()
	lock, ok := l.locks[userID]
	if !ok {
		lock = &sync.Mutex{}
		l.locks[userID] = lock
	}
	l.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}
