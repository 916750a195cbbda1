package platform

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/gagliardetto/solana-go"
)

// Registry holds one adapter per platform tag.
type Registry struct {
	mu       sync.RWMutex
	adapters map[Platform]*Adapter
	order    []Platform
	reader   AccountReader
}

// NewRegistry creates a registry. reader is used by Resolve and may be nil.
func NewRegistry(reader AccountReader, adapters ...*Adapter) *Registry {
	r := &Registry{
		adapters: make(map[Platform]*Adapter),
		reader:   reader,
	}
	for _, a := range adapters {
		r.Register(a)
	}
	return r
}

// Register adds or replaces the adapter for a.Platform
func (r *Registry) Register(a *Adapter) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.adapters[a.Platform]; !exists {
		r.order = append(r.order, a.Platform)
	}
	r.adapters[a.Platform] = a
}

// Get returns the adapter for a platform tag
func (r *Registry) Get(p Platform) (*Adapter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.adapters[p]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPlatform, p)
	}
	return a, nil
}

// ForProgram returns the adapter owning programID
func (r *Registry) ForProgram(programID solana.PublicKey) (*Adapter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.order {
		if a := r.adapters[p]; a.ProgramID.Equals(programID) {
			return a, true
		}
	}
	return nil, false
}

// Platforms returns registered tags in registration order
func (r *Registry) Platforms() []Platform {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]Platform(nil), r.order...)
}

// Adapters returns registered adapters in registration order
func (r *Registry) Adapters() []*Adapter {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Adapter, 0, len(r.order))
	for _, p := range r.order {
		out = append(out, r.adapters[p])
	}
	return out
}

// Resolve finds the platform whose curve account for mint exists and is owned
// by that platform's program.
func (r *Registry) Resolve(ctx context.Context, mint solana.PublicKey) (*Adapter, error) {
	if r.reader == nil {
		return nil, errors.New("registry has no account reader")
	}

	for _, a := range r.Adapters() {
		curve, err := a.Addresses.Curve(mint)
		if err != nil {
			continue
		}
		acc, err := r.reader.GetAccount(ctx, curve)
		if errors.Is(err, ErrAccountNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s curve %s: %w", a.Platform, curve, err)
		}
		if acc.Owner.Equals(a.ProgramID) {
			return a, nil
		}
	}
	return nil, fmt.Errorf("%w: no curve found for mint %s", ErrUnknownPlatform, mint)
}
