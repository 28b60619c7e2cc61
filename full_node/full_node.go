package full_node

import (
	"sync"
	"time"

	"github.com/powledger/powledger/commands"
	"github.com/powledger/powledger/config"
	"github.com/powledger/powledger/logx"
	"github.com/powledger/powledger/model"
	"github.com/powledger/powledger/utils"
	uuid "github.com/satori/go.uuid"
)

// A full node maintains the node's copy of the ledger and the pool of
// entries waiting for inclusion. All shared state mutation goes through
// this struct under one mutex; the proof of work search itself runs
// outside the lock so the node stays responsive while mining.
type FullNode struct {
	// The blockchain it needs to maintain.
	blockchain *model.Blockchain
	// Entries submitted but not yet included in a block.
	pool *model.Pool
	// Blockchain config.
	config config.AppConfig
	// A single mutex for changing internal state.
	m sync.RWMutex
	// A unique identifier of this full node. Doesn't impact consensus, only
	// used for naming rendered output and logs.
	uuid string
}

// Create a brand new full node, which contains a genesis block in the chain.
func NewFullNode(c config.AppConfig) *FullNode {
	myuuid := uuid.NewV4()
	return &FullNode{
		blockchain: utils.NewBlockchain(),
		pool:       model.NewPool(),
		config:     c,
		uuid:       myuuid.String(),
	}
}

func (f *FullNode) UUID() string {
	return f.uuid
}

func (f *FullNode) Config() config.AppConfig {
	return f.config
}

// AddData queues one entry for the next mined block.
func (f *FullNode) AddData(e model.Entry) {
	f.m.Lock()
	defer f.m.Unlock()
	f.pool.Add(e)
}

// PendingSnapshot returns the entries currently waiting in the pool.
func (f *FullNode) PendingSnapshot() []model.Entry {
	f.m.RLock()
	defer f.m.RUnlock()
	return f.pool.Snapshot()
}

// ChainSnapshot returns a deep copy of the current chain.
func (f *FullNode) ChainSnapshot() []model.Block {
	f.m.RLock()
	defer f.m.RUnlock()
	return f.blockchain.Snapshot()
}

func (f *FullNode) Length() int {
	f.m.RLock()
	defer f.m.RUnlock()
	return f.blockchain.Length()
}

func (f *FullNode) Head() model.Block {
	f.m.RLock()
	defer f.m.RUnlock()
	return *f.blockchain.Head()
}

// Mine drains a snapshot of the pending pool into a new block. Returns a nil
// block when there is nothing to mine, which is a normal no-op. The search
// runs without holding the lock; the append step re-checks linkage, so if a
// foreign block moved the head mid-search the stale candidate is rejected
// and the pool is left untouched.
func (f *FullNode) Mine(ctl chan commands.Command) (*model.Block, commands.Command, error) {
	f.m.RLock()
	if f.pool.Len() == 0 {
		f.m.RUnlock()
		return nil, commands.NewDefaultCommand(), nil
	}
	snapshot := f.pool.Snapshot()
	head := f.blockchain.Head()
	candidate := model.Block{
		Index:     head.Index + 1,
		Data:      snapshot,
		Timestamp: float64(time.Now().UnixNano()) / float64(time.Second),
		PrevHash:  head.Hash,
		Nonce:     0,
	}
	f.m.RUnlock()

	// Mining is a really heavy task, keep the node readable meanwhile.
	logx.Debug("mine", "searching nonce for block #", candidate.Index, " with ", len(snapshot), " entries")
	proof, c, err := utils.Mine(&candidate, f.config.DIFFICULTY, ctl)
	if err != nil {
		return nil, c, err
	}

	f.m.Lock()
	defer f.m.Unlock()
	if err := utils.AddBlock(f.blockchain, &candidate, proof, f.config.DIFFICULTY); err != nil {
		return nil, c, err
	}
	// Drop exactly the snapshot this block consumed. Entries that arrived
	// during the search stay queued for the next block.
	f.pool.DropFirst(len(snapshot))
	return &candidate, c, nil
}

// HandleForeignBlock verifies a block mined by someone else against the
// current head and appends it. The error reports why a block was discarded.
func (f *FullNode) HandleForeignBlock(b *model.Block) error {
	f.m.Lock()
	defer f.m.Unlock()
	return utils.AddBlock(f.blockchain, b, b.Hash, f.config.DIFFICULTY)
}

// ReplaceChain swaps the local chain for an already validated one.
func (f *FullNode) ReplaceChain(blocks []model.Block) {
	f.m.Lock()
	defer f.m.Unlock()
	f.blockchain.Replace(blocks)
}
