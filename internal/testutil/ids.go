package testutil

import (
	"fmt"
	"sync"
)

// SequentialUUIDs generates predictable UUID strings:
// 00000000-0000-0000-0000-000000000001, ...02, and so on.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type SequentialUUIDs struct {
	mu  sync.Mutex
	seq uint64
}

// NewSequentialUUIDs creates a generator whose first UUID ends in 1.
func NewSequentialUUIDs() *SequentialUUIDs {
	return &SequentialUUIDs{}
}

// Next returns the next UUID string.
func (g *SequentialUUIDs) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq++
	return fmt.Sprintf("00000000-0000-0000-0000-%012x", g.seq)
}

// DefaultFunc adapts the generator to field.DefaultFunc.
func (g *SequentialUUIDs) DefaultFunc() func() any {
	return func() any { return g.Next() }
}
