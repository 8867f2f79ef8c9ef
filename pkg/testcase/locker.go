package testcase

import (
	"sort"
	"sync"
)

// keyedLocker serializes work per key. Locks for several keys are always
// taken in sorted order so two callers can never wait on each other.
type keyedLocker struct {
	mu    sync.Mutex
	locks map[string]*keyedLock
}

type keyedLock struct {
	mu   sync.Mutex
	refs int
}

func newKeyedLocker() *keyedLocker {
	return &keyedLocker{locks: make(map[string]*keyedLock, 16)}
}

// Lock acquires the locks of all keys and returns the function releasing
// them. Duplicate and empty keys are ignored.
func (l *keyedLocker) Lock(keys ...string) func() {
	unique := make([]string, 0, len(keys))
	seen := make(map[string]struct{}, len(keys))

	for _, k := range keys {
		if k == "" {
			continue
		}

		if _, ok := seen[k]; ok {
			continue
		}

		seen[k] = struct{}{}
		unique = append(unique, k)
	}

	sort.Strings(unique)

	held := make([]*keyedLock, 0, len(unique))
	for _, k := range unique {
		lock := l.acquire(k)
		lock.mu.Lock()
		held = append(held, lock)
	}

	return func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].mu.Unlock()
			l.release(unique[i])
		}
	}
}

func (l *keyedLocker) acquire(key string) *keyedLock {
	l.mu.Lock()
	defer l.mu.Unlock()

	lock, ok := l.locks[key]
	if !ok {
		lock = &keyedLock{}
		l.locks[key] = lock
	}

	lock.refs++

	return lock
}

func (l *keyedLocker) release(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	lock, ok := l.locks[key]
	if !ok {
		return
	}

	lock.refs--
	if lock.refs == 0 {
		delete(l.locks, key)
	}
}

// size returns the number of keys currently tracked.
func (l *keyedLocker) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return len(l.locks)
}
