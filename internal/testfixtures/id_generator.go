package testfixtures

import (
	"fmt"
	"sync"
)

// IDGenerator hands out "prefix-1", "prefix-2", ... so tests can predict the
// identifiers a service will assign.
type IDGenerator struct {
	mu       sync.Mutex
	prefix   string
	sequence uint64
}

// NewIDGenerator builds a generator for the given prefix, defaulting to "id"
// when the prefix is empty.
func NewIDGenerator(prefix string) *IDGenerator {
	if prefix == "" {
		prefix = "id"
	}
	return &IDGenerator{prefix: prefix}
}

// Next returns the next identifier in the sequence.
func (g *IDGenerator) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sequence++
	return fmt.Sprintf("%s-%d", g.prefix, g.sequence)
}

// NextFunc adapts the generator to the `idGenerator func() string` dependency
// the services take. A nil generator yields empty identifiers.
func (g *IDGenerator) NextFunc() func() string {
	if g == nil {
		return func() string { return "" }
	}
	return g.Next
}

// SetCounter rewinds or fast-forwards the sequence; the next identifier uses
// counter+1.
func (g *IDGenerator) SetCounter(counter uint64) {
	g.mu.Lock()
	g.sequence = counter
	g.mu.Unlock()
}
