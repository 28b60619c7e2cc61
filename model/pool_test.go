package model_test

import (
	"testing"

	"github.com/powledger/powledger/model"
	"github.com/stretchr/testify/assert"
)

func TestPoolPreservesOrder(t *testing.T) {
	p := model.NewPool()
	p.Add(model.Entry{"author": "a", "content": "first"})
	p.Add(model.Entry{"author": "b", "content": "second"})

	snap := p.Snapshot()
	assert.Len(t, snap, 2)
	assert.Equal(t, "first", snap[0]["content"])
	assert.Equal(t, "second", snap[1]["content"])
}

// Entries submitted while a block is being mined must survive the clear of
// the consumed snapshot.
func TestPoolDropFirstKeepsLateEntries(t *testing.T) {
	p := model.NewPool()
	p.Add(model.Entry{"author": "a", "content": "in block"})

	snap := p.Snapshot()

	// Arrives during the proof of work search.
	p.Add(model.Entry{"author": "b", "content": "late"})

	p.DropFirst(len(snap))
	assert.Equal(t, 1, p.Len())
	assert.Equal(t, "late", p.Snapshot()[0]["content"])
}

func TestPoolDropFirstClamps(t *testing.T) {
	p := model.NewPool()
	p.Add(model.Entry{"author": "a", "content": "only"})
	p.DropFirst(5)
	assert.Equal(t, 0, p.Len())
}

func TestPoolSnapshotIsDetached(t *testing.T) {
	p := model.NewPool()
	p.Add(model.Entry{"author": "a", "content": "x"})

	snap := p.Snapshot()
	p.Add(model.Entry{"author": "b", "content": "y"})
	assert.Len(t, snap, 1)
}
