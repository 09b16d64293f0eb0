package sim

import (
	"sync"

	"timerhal/core"
)

// Registry hands out one TimerBlock per block ID and remembers them, so a
// test or the host shell can reach the registers behind a built board
type Registry struct {
	mu     sync.Mutex
	blocks map[core.BlockID]*TimerBlock
}

func NewRegistry() *Registry {
	return &Registry{blocks: make(map[core.BlockID]*TimerBlock)}
}

// Registers creates (or returns) the block's register set. Its signature
// matches board.RegisterFactory.
func (r *Registry) Registers(block core.BlockID) (core.TimerRegisters, error) {
	return r.Block(block), nil
}

// Block returns the block's register set, creating it on first use
func (r *Registry) Block(block core.BlockID) *TimerBlock {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.blocks[block]
	if !ok {
		b = NewTimerBlock(block)
		r.blocks[block] = b
	}
	return b
}
