package testutil

import (
	"fmt"
	"sync"
)

// SequenceGenerator produces "tx-000001", "tx-000002", ... without
// ever running out. Unlike engine.FixedGenerator it never panics,
// which suits harness runs where the number of transactions depends on
// the scenario rather than the test author.
//
// Thread-safe via internal mutex.
type SequenceGenerator struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewSequenceGenerator creates a generator with the given token prefix.
// An empty prefix defaults to "tx".
func NewSequenceGenerator(prefix string) *SequenceGenerator {
	if prefix == "" {
		prefix = "tx"
	}
	return &SequenceGenerator{prefix: prefix}
}

// Generate returns the next token in the sequence.
func (g *SequenceGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%06d", g.prefix, g.n)
}
