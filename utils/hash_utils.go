package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/powledger/powledger/model"
)

// blockContent is the canonical serialization of a block for hashing. Field
// order is the lexicographic order of the wire keys (data, index, nonce,
// previous_hash, timestamp) and entry maps are marshaled with sorted keys,
// so any two conforming nodes produce byte identical input for identical
// field values. The hash field does not exist here at all, which makes its
// exclusion from the digest structural.
type blockContent struct {
	Data      []model.Entry `json:"data"`
	Index     int64         `json:"index"`
	Nonce     int64         `json:"nonce"`
	PrevHash  string        `json:"previous_hash"`
	Timestamp float64       `json:"timestamp"`
}

// BlockDigest returns the sha256 of the block's canonical serialization as a
// lowercase hex string. Pure function of the non-hash fields.
func BlockDigest(b *model.Block) (string, error) {
	raw, err := json.Marshal(blockContent{
		Data:      b.Data,
		Index:     b.Index,
		Nonce:     b.Nonce,
		PrevHash:  b.PrevHash,
		Timestamp: b.Timestamp,
	})
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}
