package listener

import (
	"sync"

	"launch-sniper-go/internal/platform"
)

// State is the connection state of one transport
type State string

const (
	Disconnected State = "disconnected"
	Connecting   State = "connecting"
	Subscribed   State = "subscribed"
	Processing   State = "processing"
	Reconnecting State = "reconnecting"
	Closed       State = "closed"
)

type stateTable struct {
	mu     sync.RWMutex
	states map[platform.Source]State
}

func newStateTable() *stateTable {
	return &stateTable{states: make(map[platform.Source]State)}
}

func (t *stateTable) set(src platform.Source, s State) {
	t.mu.Lock()
	t.states[src] = s
	t.mu.Unlock()
}

func (t *stateTable) get(src platform.Source) State {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if s, ok := t.states[src]; ok {
		return s
	}
	return Disconnected
}

func (t *stateTable) snapshot() map[platform.Source]State {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make(map[platform.Source]State, len(t.states))
	for k, v := range t.states {
		out[k] = v
	}
	return out
}
