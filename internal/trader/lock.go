package trader

import (
	"context"
	"sync"

	"launch-sniper-go/internal/engine"

	"github.com/gagliardetto/solana-go"
)

type tradeKey struct {
	mint      solana.PublicKey
	direction engine.Direction
}

type lockEntry struct {
	sem  chan struct{}
	refs int
}

// keyedLock allows one holder per key. Entries are dropped when unused.
type keyedLock struct {
	mu   sync.Mutex
	keys map[tradeKey]*lockEntry
}

func newKeyedLock() *keyedLock {
	return &keyedLock{keys: make(map[tradeKey]*lockEntry)}
}

// lock blocks until k is free or ctx is done. The returned func releases k.
func (l *keyedLock) lock(ctx context.Context, k tradeKey) (func(), error) {
	l.mu.Lock()
	e, ok := l.keys[k]
	if !ok {
		e = &lockEntry{sem: make(chan struct{}, 1)}
		l.keys[k] = e
	}
	e.refs++
	l.mu.Unlock()

	select {
	case e.sem <- struct{}{}:
		return func() {
			<-e.sem
			l.release(k, e)
		}, nil
	case <-ctx.Done():
		l.release(k, e)
		return nil, ctx.Err()
	}
}

func (l *keyedLock) release(k tradeKey, e *lockEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(l.keys, k)
	}
}

func (l *keyedLock) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.keys)
}
