package flatfile

import (
	"context"
	"errors"
	"sync"
)

// ErrGateUpgrade is returned by Write when the context only holds the gate
// for reading.
var ErrGateUpgrade = errors.New("cannot enter gate for writing while holding it for reading")

// Gate is the single-writer section for one or more stores. Write holds it
// exclusively for a whole read-modify-write cycle; Read shares it.
//
// The context passed to fn is marked as holding the gate, and nested calls
// on the same gate with that context run without locking again. Contexts
// are how ownership travels, so a goroutine must not hand a marked context
// to another goroutine.
type Gate struct {
	mu sync.RWMutex
}

// NewGate returns an unlocked gate.
func NewGate() *Gate {
	return &Gate{}
}

type gateKey struct{ g *Gate }

type holding int

const (
	notHeld holding = iota
	heldShared
	heldExclusive
)

func (g *Gate) holding(ctx context.Context) holding {
	h, _ := ctx.Value(gateKey{g}).(holding)
	return h
}

func (g *Gate) held(ctx context.Context) bool {
	return g.holding(ctx) == heldExclusive
}

// Write runs fn with the gate held exclusively.
func (g *Gate) Write(ctx context.Context, fn func(ctx context.Context) error) error {
	switch g.holding(ctx) {
	case heldExclusive:
		return fn(ctx)
	case heldShared:
		return ErrGateUpgrade
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return fn(context.WithValue(ctx, gateKey{g}, heldExclusive))
}

// Read runs fn with the gate held shared, or directly when ctx already
// holds it.
func (g *Gate) Read(ctx context.Context, fn func(ctx context.Context) error) error {
	if g.holding(ctx) != notHeld {
		return fn(ctx)
	}
	g.mu.RLock()
	defer g.mu.RUnlock()
	return fn(context.WithValue(ctx, gateKey{g}, heldShared))
}
