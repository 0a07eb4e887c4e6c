package utils

import (
	"sync"
	"time"
)

// KeyedLock admits one holder per key. A hold older than ttl counts as released, so a
// holder that never calls Unlock cannot block its key forever.
type KeyedLock struct {
	mu   sync.Mutex
	held map[string]time.Time
	ttl  time.Duration
	now  func() time.Time
}

func NewKeyedLock(ttl time.Duration) *KeyedLock {
	return &KeyedLock{held: make(map[string]time.Time), ttl: ttl, now: time.Now}
}

// TryLock takes the key and returns true, or returns false if someone else holds it.
func (l *KeyedLock) TryLock(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if since, ok := l.held[key]; ok && now.Sub(since) < l.ttl {
		return false
	}
	l.held[key] = now
	return true
}

func (l *KeyedLock) Unlock(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.held, key)
}
