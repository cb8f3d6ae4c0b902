package service

import "github.com/pkordes/fare-ledger/internal/notify"

// Generation counts dataset mutations. Every successful trip, ticket or
// import write bumps it; live cursors watch it to know when to restart.
// A nil *Generation is valid and ignores bumps.
type Generation struct {
	b *notify.Broadcaster[uint64]
}

// NewGeneration returns a Generation starting at zero.
func NewGeneration() *Generation {
	return &Generation{b: notify.New[uint64](0)}
}

// Bump records one dataset change.
func (g *Generation) Bump() {
	if g == nil {
		return
	}
	g.b.Update(func(n uint64) uint64 { return n + 1 })
}

// Current returns the number of changes recorded so far.
func (g *Generation) Current() uint64 {
	if g == nil {
		return 0
	}
	return g.b.Current()
}

// Subscribe returns the current count, a channel that receives the latest
// count after each change, and a cancel func.
func (g *Generation) Subscribe() (uint64, <-chan uint64, func()) {
	if g == nil {
		return 0, nil, func() {}
	}
	return g.b.Subscribe()
}
