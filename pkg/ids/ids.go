// Package ids implements the monotonically increasing id generators shared
// by the translator (block ids) and the runtime (dataflow and coroutine ids).
package ids

import "sync/atomic"

// Generator hands out a strictly increasing sequence of uint64 ids starting
// at zero. The zero value is ready to use.
type Generator struct {
	counter atomic.Uint64
}

// NewGenerator returns a fresh generator whose first Next() is 0.
func NewGenerator() *Generator {
	return &Generator{}
}

// Next returns the next id in the sequence. Safe for concurrent use.
func (g *Generator) Next() uint64 {
	return g.counter.Add(1) - 1
}
