package model

// Pool holds entries waiting to be included in the next mined block, in
// submission order. Like Blockchain it carries no lock of its own, the full
// node guards it.
type Pool struct {
	entries []Entry
}

func NewPool() *Pool {
	return &Pool{}
}

func (p *Pool) Add(e Entry) {
	p.entries = append(p.entries, e)
}

func (p *Pool) Len() int {
	return len(p.entries)
}

// Snapshot returns a copy of the current entries. The miner consumes exactly
// this snapshot; entries submitted afterwards belong to a later block.
func (p *Pool) Snapshot() []Entry {
	out := make([]Entry, len(p.entries))
	copy(out, p.entries)
	return out
}

// DropFirst removes the n oldest entries. Called after a successful append
// with the length of the consumed snapshot, so entries that arrived during
// the proof of work search are never lost.
func (p *Pool) DropFirst(n int) {
	if n > len(p.entries) {
		n = len(p.entries)
	}
	p.entries = p.entries[n:]
}
