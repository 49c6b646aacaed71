package imap

import (
	"fmt"
	"sync/atomic"
)

// tagGenerator produces the monotonically increasing per-connection command
// tags RFC 3501 requires ("a0001", "a0002", ...). Tags are never reused
// within the lifetime of a connection (§3 Invariants).
type tagGenerator struct {
	prefix string
	n      atomic.Uint32
}

func newTagGenerator(prefix string) *tagGenerator {
	if prefix == "" {
		prefix = "a"
	}
	return &tagGenerator{prefix: prefix}
}

// Next returns the next tag, e.g. "a0001".
func (g *tagGenerator) Next() string {
	n := g.n.Add(1)
	return fmt.Sprintf("%s%04d", g.prefix, n)
}
