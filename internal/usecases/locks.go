package usecases

import "sync"

// tradeLocks hands out one mutex per trade id so that at most one
// mutation per trade is in flight at a time. Entries are reference
// counted and dropped once the last holder releases, keeping the map
// bounded by the number of trades currently being mutated.
type tradeLocks struct {
	mu    sync.Mutex
	locks map[string]*tradeLock
}

type tradeLock struct {
	mu   sync.Mutex
	refs int
}

func newTradeLocks() *tradeLocks {
	return &tradeLocks{locks: make(map[string]*tradeLock)}
}

// Acquire blocks until the per-trade lock is held and returns the
// release function.
func (tl *tradeLocks) Acquire(tradeID string) func() {
	tl.mu.Lock()
	lock, ok := tl.locks[tradeID]
	if !ok {
		lock = &tradeLock{}
		tl.locks[tradeID] = lock
	}
	lock.refs++
	tl.mu.Unlock()

	lock.mu.Lock()

	return func() {
		lock.mu.Unlock()

		tl.mu.Lock()
		lock.refs--
		if lock.refs == 0 {
			delete(tl.locks, tradeID)
		}
		tl.mu.Unlock()
	}
}
