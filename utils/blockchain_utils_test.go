package utils

import (
	"fmt"
	"strings"
	"testing"

	"github.com/powledger/powledger/commands"
	"github.com/powledger/powledger/model"
	"github.com/stretchr/testify/assert"
)

// growChain mines n blocks of one entry each on top of the chain.
func growChain(t *testing.T, bc *model.Blockchain, n int, difficulty int) {
	for i := 0; i < n; i++ {
		head := bc.Head()
		b := model.Block{
			Index:     head.Index + 1,
			Data:      []model.Entry{{"author": "a", "content": fmt.Sprintf("entry-%d", head.Index)}},
			Timestamp: float64(head.Index) + 0.5,
			PrevHash:  head.Hash,
		}
		proof, _, err := Mine(&b, difficulty, nil)
		assert.Nil(t, err)
		assert.Nil(t, AddBlock(bc, &b, proof, difficulty))
	}
}

func TestNewBlockchainGenesis(t *testing.T) {
	bc := NewBlockchain()
	assert.Equal(t, 1, bc.Length())

	genesis := bc.Head()
	assert.Equal(t, int64(0), genesis.Index)
	assert.Equal(t, "0", genesis.PrevHash)
	assert.Empty(t, genesis.Data)
	digest, _ := BlockDigest(genesis)
	assert.Equal(t, digest, genesis.Hash)

	// Deterministic across nodes.
	assert.Equal(t, bc.Head().Hash, NewBlockchain().Head().Hash)
}

func TestMineMeetsDifficulty(t *testing.T) {
	testDifficulty := 2
	b := createTestBlock()

	proof, c, err := Mine(&b, testDifficulty, nil)
	assert.Nil(t, err)
	assert.True(t, c.IsDefault())
	assert.True(t, strings.HasPrefix(proof, "00"))

	// The winning nonce is left on the block, so the proof verifies against
	// the block as-is.
	digest, _ := BlockDigest(&b)
	assert.Equal(t, proof, digest)
	assert.True(t, IsValidProof(&b, proof, testDifficulty))
}

func TestMineInterruption(t *testing.T) {
	// Make a really difficult hash difficulty that's impossible to solve.
	testDifficulty := 64
	b := createTestBlock()
	ctl := make(chan commands.Command)

	go func() {
		ctl <- commands.Command{
			Op: commands.STOP,
		}
	}()

	_, c, err := Mine(&b, testDifficulty, ctl)
	assert.NotNil(t, err)
	assert.Equal(t, commands.Command{
		Op: commands.STOP,
	}, c)
}

func TestAddBlockRejectsWrongPrevHash(t *testing.T) {
	testDifficulty := 1
	bc := NewBlockchain()

	b := model.Block{
		Index:    1,
		Data:     []model.Entry{{"author": "a", "content": "hi"}},
		PrevHash: "deadbeef",
	}
	proof, _, err := Mine(&b, testDifficulty, nil)
	assert.Nil(t, err)

	assert.Equal(t, model.ErrInvalidLinkage, AddBlock(bc, &b, proof, testDifficulty))
	assert.Equal(t, 1, bc.Length())
}

func TestAddBlockRejectsBadProof(t *testing.T) {
	testDifficulty := 1
	bc := NewBlockchain()

	b := model.Block{
		Index:    1,
		Data:     []model.Entry{{"author": "a", "content": "hi"}},
		PrevHash: bc.Head().Hash,
	}

	// Fails the difficulty predicate.
	assert.Equal(t, model.ErrInvalidProof, AddBlock(bc, &b, "f00d", testDifficulty))
	assert.Equal(t, 1, bc.Length())

	// Meets the difficulty but doesn't match the block content.
	proof, _, err := Mine(&b, testDifficulty, nil)
	assert.Nil(t, err)
	b.Data[0]["content"] = "tampered"
	assert.Equal(t, model.ErrInvalidProof, AddBlock(bc, &b, proof, testDifficulty))
	assert.Equal(t, 1, bc.Length())
}

func TestTamperingInvalidatesAppendedBlock(t *testing.T) {
	testDifficulty := 1
	bc := NewBlockchain()
	growChain(t, bc, 1, testDifficulty)

	b := bc.Blocks[1]
	assert.True(t, IsValidProof(&b, b.Hash, testDifficulty))

	b.Data[0]["content"] = "rewritten history"
	assert.False(t, IsValidProof(&b, b.Hash, testDifficulty))
}

func TestIsChainValidPrefixes(t *testing.T) {
	testDifficulty := 1
	bc := NewBlockchain()
	growChain(t, bc, 3, testDifficulty)

	// Every prefix starting at genesis is itself a valid chain.
	for i := 1; i <= bc.Length(); i++ {
		assert.True(t, IsChainValid(bc.Blocks[:i], testDifficulty))
	}
	assert.False(t, IsChainValid(nil, testDifficulty))
}

func TestIsChainValidDetectsTamper(t *testing.T) {
	testDifficulty := 1
	bc := NewBlockchain()
	growChain(t, bc, 3, testDifficulty)

	tampered := bc.Snapshot()
	tampered[2].Data[0]["content"] = "evil"
	assert.False(t, IsChainValid(tampered, testDifficulty))

	broken := bc.Snapshot()
	broken[2].PrevHash = broken[1].PrevHash
	assert.False(t, IsChainValid(broken, testDifficulty))
}

// The genesis block is never mined, so it is exempt from the difficulty
// predicate but not from the content check.
func TestIsChainValidGenesisPolicy(t *testing.T) {
	bc := NewBlockchain()
	assert.True(t, IsChainValid(bc.Blocks, 4))

	forged := bc.Snapshot()
	forged[0].Timestamp = 1
	assert.False(t, IsChainValid(forged, 4))
}

func TestChainFromDump(t *testing.T) {
	testDifficulty := 1
	bc := NewBlockchain()
	growChain(t, bc, 2, testDifficulty)

	rebuilt, err := ChainFromDump(bc.Snapshot(), testDifficulty)
	assert.Nil(t, err)
	assert.Equal(t, bc.Length(), rebuilt.Length())
	assert.Equal(t, bc.Head().Hash, rebuilt.Head().Hash)
}

func TestChainFromDumpRejectsTamperedDump(t *testing.T) {
	testDifficulty := 1
	bc := NewBlockchain()
	growChain(t, bc, 3, testDifficulty)

	// An interior block's data was altered without recomputing hash/nonce.
	dump := bc.Snapshot()
	dump[1].Data[0]["content"] = "evil"

	rebuilt, err := ChainFromDump(dump, testDifficulty)
	assert.Nil(t, rebuilt)
	assert.Equal(t, model.ErrTamperedChainDump, err)
}
