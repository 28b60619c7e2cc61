package model

import "errors"

// Rejection outcomes. All of them are ordinary results surfaced to the
// caller; none of them is ever fatal to the node.
var (
	// The block does not extend the current head.
	ErrInvalidLinkage = errors.New("previous hash does not match the chain head")
	// The claimed hash fails the difficulty predicate or does not match the
	// digest recomputed from the block's fields.
	ErrInvalidProof = errors.New("proof does not satisfy difficulty or block content")
	// A block inside a peer-supplied chain dump failed validation; the whole
	// dump is discarded.
	ErrTamperedChainDump = errors.New("the chain dump is tampered")
)
