package model

// Entry is one opaque piece of data submitted to the ledger. The node never
// interprets the fields beyond requiring a couple of them at the submission
// boundary; entries travel through blocks exactly as received.
type Entry map[string]interface{}

type Block struct {
	// Position in the chain, the genesis block is 0.
	Index int64 `json:"index"`
	// All entries confirmed by this block, in submission order.
	Data []Entry `json:"data"`
	// Seconds since epoch at block construction time.
	Timestamp float64 `json:"timestamp"`
	// Hash of the previous block in hex, "0" for the genesis block.
	PrevHash string `json:"previous_hash"`
	// The proof of work challenge answer.
	Nonce int64 `json:"nonce"`
	// Hash of this entire block in the hex string format. Empty on a fresh
	// candidate, assigned only when the block is appended to a chain.
	Hash string `json:"hash,omitempty"`
}
