package utils

import (
	"errors"
	"strings"

	"github.com/powledger/powledger/commands"
	"github.com/powledger/powledger/model"
)

// NewBlockchain creates a chain holding only the genesis block. The genesis
// block is fixed (index 0, no data, timestamp 0, previous hash "0", nonce 0)
// and therefore hashes identically on every node; its digest is stored
// without any difficulty requirement since it is never mined.
func NewBlockchain() *model.Blockchain {
	genesis := model.Block{
		Index:     0,
		Data:      []model.Entry{},
		Timestamp: 0,
		PrevHash:  "0",
		Nonce:     0,
	}
	digest, _ := BlockDigest(&genesis)
	genesis.Hash = digest
	return &model.Blockchain{Blocks: []model.Block{genesis}}
}

// HasLeadingZeros reports whether digest starts with at least difficulty hex
// '0' characters.
func HasLeadingZeros(digest string, difficulty int) bool {
	if difficulty <= 0 {
		return true
	}
	if difficulty > len(digest) {
		return false
	}
	return digest[:difficulty] == strings.Repeat("0", difficulty)
}

// Mine tries nonce values from 0 upward until the block's digest satisfies
// the difficulty. The winning nonce is left on the block and the satisfying
// digest returned; the block's hash field is not touched, assigning it is
// the chain's job on append. The search polls ctl every iteration so a
// competing block or an operator can interrupt it; the received command is
// handed back to the caller.
func Mine(b *model.Block, difficulty int, ctl chan commands.Command) (string, commands.Command, error) {
	for i := int64(0); i >= 0; i++ {
		select {
		case c := <-ctl:
			return "", c, errors.New("mining interrupted")
		default:
		}
		b.Nonce = i
		digest, err := BlockDigest(b)
		if err != nil {
			return "", commands.NewDefaultCommand(), err
		}
		if HasLeadingZeros(digest, difficulty) {
			return digest, commands.NewDefaultCommand(), nil
		}
	}
	return "", commands.NewDefaultCommand(), errors.New("nonce space exhausted")
}

// IsValidProof checks that claimed satisfies the difficulty and equals the
// digest recomputed from the block's current fields. The recomputation is
// what catches any post-hoc tampering with block content.
func IsValidProof(b *model.Block, claimed string, difficulty int) bool {
	if !HasLeadingZeros(claimed, difficulty) {
		return false
	}
	digest, err := BlockDigest(b)
	return err == nil && digest == claimed
}

// IsChainValid walks the chain from genesis and verifies linkage and proof
// for every block, stopping at the first failure. The genesis block (index 0)
// is exempt from the difficulty predicate because it is constructed rather
// than mined, but its stored hash must still match recomputation and its
// previous hash must be the "0" sentinel.
func IsChainValid(blocks []model.Block, difficulty int) bool {
	if len(blocks) == 0 {
		return false
	}
	prevHash := "0"
	for i := range blocks {
		b := &blocks[i]
		if b.PrevHash != prevHash {
			return false
		}
		d := difficulty
		if i == 0 {
			d = 0
		}
		if !IsValidProof(b, b.Hash, d) {
			return false
		}
		prevHash = b.Hash
	}
	return true
}

// AddBlock verifies that the block extends the current head and that proof
// is valid for it, then assigns the hash and appends. Rejection is a normal
// outcome reported through the sentinel errors, the chain is left unchanged.
func AddBlock(bc *model.Blockchain, b *model.Block, proof string, difficulty int) error {
	if bc.Head().Hash != b.PrevHash {
		return model.ErrInvalidLinkage
	}
	if !IsValidProof(b, proof, difficulty) {
		return model.ErrInvalidProof
	}
	b.Hash = proof
	bc.Blocks = append(bc.Blocks, *b)
	return nil
}

// ChainFromDump rebuilds a chain received from a peer by re-appending every
// block into a fresh chain, applying the exact same checks as local mining.
// The dump's own genesis entry is skipped, the local genesis is canonical.
// A single failed append rejects the whole dump, there is no partial
// adoption.
func ChainFromDump(dump []model.Block, difficulty int) (*model.Blockchain, error) {
	bc := NewBlockchain()
	for i := range dump {
		if i == 0 {
			continue
		}
		b := model.Block{
			Index:     dump[i].Index,
			Data:      dump[i].Data,
			Timestamp: dump[i].Timestamp,
			PrevHash:  dump[i].PrevHash,
			Nonce:     dump[i].Nonce,
		}
		if err := AddBlock(bc, &b, dump[i].Hash, difficulty); err != nil {
			return nil, model.ErrTamperedChainDump
		}
	}
	return bc, nil
}
