package stats

import "sync"

// keyedMutex serializes recomputes of the same entity while letting
// recomputes of different entities run in parallel.
type keyedMutex struct {
	mux     sync.Mutex
	holders map[int64]*keyHolder
}

type keyHolder struct {
	mux  sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{holders: map[int64]*keyHolder{}}
}

// Lock blocks until the key is free and returns its unlock func.
func (m *keyedMutex) Lock(key int64) func() {
	m.mux.Lock()
	h := m.holders[key]
	if h == nil {
		h = &keyHolder{}
		m.holders[key] = h
	}
	h.refs++
	m.mux.Unlock()

	h.mux.Lock()
	return func() {
		h.mux.Unlock()
		m.mux.Lock()
		h.refs--
		if h.refs == 0 {
			delete(m.holders, key)
		}
		m.mux.Unlock()
	}
}
