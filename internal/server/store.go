package server

import (
	"sync"

	"github.com/ironsheep/keypoint-annotator/internal/session"
)

// entry serializes events for one session.
type entry struct {
	mu   sync.Mutex
	sess *session.Session
}

// store maps login tokens to their annotation session.
type store struct {
	mu      sync.RWMutex
	entries map[string]*entry
}

func newStore() *store {
	return &store{entries: make(map[string]*entry)}
}

// getOrCreate returns the entry for token, creating its session when absent.
func (st *store) getOrCreate(token string, create func() (*session.Session, error)) (*entry, error) {
	st.mu.RLock()
	e, ok := st.entries[token]
	st.mu.RUnlock()
	if ok {
		return e, nil
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	if e, ok := st.entries[token]; ok {
		return e, nil
	}
	sess, err := create()
	if err != nil {
		return nil, err
	}
	e = &entry{sess: sess}
	st.entries[token] = e
	return e, nil
}

// dropIf removes the entry for token if it is still e. A session that was
// replaced in the meantime is left alone.
func (st *store) dropIf(token string, e *entry) {
	st.mu.Lock()
	if st.entries[token] == e {
		delete(st.entries, token)
	}
	st.mu.Unlock()
}

func (st *store) drop(token string) {
	st.mu.Lock()
	delete(st.entries, token)
	st.mu.Unlock()
}

func (st *store) len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.entries)
}
