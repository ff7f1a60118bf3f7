package chat

import (
	"sync"
	"time"
)

type sessionEntry struct {
	session      *ChatSession
	lastAccessed time.Time
}

// SessionCache holds the in-memory sessions. When full, the least recently
// used session is evicted and its history is lost.
type SessionCache struct {
	lock     sync.Mutex
	sessions map[string]*sessionEntry
	maxSize  int
	limit    int
	recorder Recorder
	now      func() time.Time
}

func NewSessionCache(maxSize, historyLimit int, recorder Recorder) *SessionCache {
	return &SessionCache{
		sessions: make(map[string]*sessionEntry),
		maxSize:  maxSize,
		limit:    historyLimit,
		recorder: recorder,
		now:      time.Now,
	}
}

func (pool *SessionCache) GetSession(key string) *ChatSession {
	pool.lock.Lock()
	defer pool.lock.Unlock()

	if entry, exists := pool.sessions[key]; exists {
		entry.lastAccessed = pool.now()
		return entry.session
	}

	if pool.maxSize > 0 && len(pool.sessions) >= pool.maxSize {
		pool.evictOldest()
	}

	session := NewChatSession(key, pool.limit, pool.recorder)
	pool.sessions[key] = &sessionEntry{
		session:      session,
		lastAccessed: pool.now(),
	}

	return session
}

// Lookup returns an existing session without creating one.
func (pool *SessionCache) Lookup(key string) (*ChatSession, bool) {
	pool.lock.Lock()
	defer pool.lock.Unlock()

	entry, exists := pool.sessions[key]
	if !exists {
		return nil, false
	}
	entry.lastAccessed = pool.now()
	return entry.session, true
}

func (pool *SessionCache) Len() int {
	pool.lock.Lock()
	defer pool.lock.Unlock()

	return len(pool.sessions)
}

// evictOldest removes the least recently used session that is not in the
// middle of an exchange. When every session is busy nothing is evicted and the
// cache temporarily grows past maxSize.
func (pool *SessionCache) evictOldest() {
	busy := make(map[string]bool)

	for {
		var oldestKey string
		var oldest *sessionEntry
		for key, entry := range pool.sessions {
			if busy[key] {
				continue
			}
			if oldest == nil || entry.lastAccessed.Before(oldest.lastAccessed) {
				oldestKey = key
				oldest = entry
			}
		}

		if oldest == nil {
			return
		}

		if !oldest.session.mu.TryLock() {
			busy[oldestKey] = true
			continue
		}
		delete(pool.sessions, oldestKey)
		oldest.session.mu.Unlock()
		return
	}
}
