package model

import "github.com/jinzhu/copier"

// Blockchain is the node's copy of the ledger, ordered from genesis to head.
// The struct itself is not synchronized; the full node owns one instance and
// serializes every mutation behind its own mutex.
type Blockchain struct {
	Blocks []Block
}

// Head returns the last block of the chain.
func (bc *Blockchain) Head() *Block {
	return &bc.Blocks[len(bc.Blocks)-1]
}

func (bc *Blockchain) Length() int {
	return len(bc.Blocks)
}

// Replace swaps the whole chain for another one. Chains received from peers
// are adopted wholesale, never merged block by block.
func (bc *Blockchain) Replace(blocks []Block) {
	bc.Blocks = blocks
}

// Snapshot returns a deep copy of the chain, safe to serialize or hand to
// another goroutine while the original keeps growing.
func (bc *Blockchain) Snapshot() []Block {
	var out []Block
	copier.Copy(&out, &bc.Blocks)
	return out
}
