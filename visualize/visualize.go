package visualize

import (
	"bytes"
	"fmt"
	"io/ioutil"
	"os/exec"

	"github.com/bradleyjkemp/memviz"
	"github.com/powledger/powledger/model"
)

// We re-define a rendering model here because the wire block carries full
// hashes and opaque entry maps that make the graph unreadable.
type entry struct {
	author  string
	content string
}

type block struct {
	index    int64
	hash     string
	prevHash string
	nonce    int64
	entries  []entry
	child    *block
}

// The hex strings are just too long to render, instead we take only first 3
// and last 3 characters and replace the middle part with '...'. E.g.
// "abcdefghi" will be rendered as "abc...ghi".
func shortenString(s string) string {
	if len(s) < 9 {
		return s
	}
	return fmt.Sprintf("%s...%s", s[0:3], s[len(s)-3:])
}

func stringField(e model.Entry, key string) string {
	if s, ok := e[key].(string); ok {
		return s
	}
	return ""
}

func blockToBlock(b *model.Block) *block {
	n := &block{
		index:    b.Index,
		hash:     shortenString(b.Hash),
		prevHash: shortenString(b.PrevHash),
		nonce:    b.Nonce,
	}
	for _, e := range b.Data {
		n.entries = append(n.entries, entry{
			author:  stringField(e, "author"),
			content: stringField(e, "content"),
		})
	}
	return n
}

// constructData links the last d blocks of the chain into a list rooted at
// the oldest of them. A depth below 1 renders just the head.
func constructData(blocks []model.Block, d int) *block {
	if d < 1 {
		d = 1
	}
	start := len(blocks) - d
	if start < 0 {
		start = 0
	}
	root := blockToBlock(&blocks[start])
	cur := root
	for i := start + 1; i < len(blocks); i++ {
		cur.child = blockToBlock(&blocks[i])
		cur = cur.child
	}
	return root
}

// Render draws the last d blocks of the chain, where id is the unique id of
// the full node used to name the output files.
func Render(blocks []model.Block, d int, id string) error {
	if len(blocks) == 0 {
		return fmt.Errorf("nothing to render")
	}
	if d < 1 {
		return fmt.Errorf("depth must be at least 1, got %d", d)
	}
	buf := &bytes.Buffer{}

	chain := constructData(blocks, d)
	memviz.Map(buf, chain)

	// Write the parsed data to disk, then render with graphviz.
	fileName := "/tmp/chaindata-" + id
	outputName := "/tmp/rendered-chain-" + id + ".png"
	if err := ioutil.WriteFile(fileName, buf.Bytes(), 0644); err != nil {
		return err
	}

	cmd := exec.Command("dot", "-Tpng", fileName, "-o", outputName)
	if err := cmd.Run(); err != nil {
		return err
	}

	opCmd := exec.Command("open", outputName)
	opCmd.Run()
	return nil
}
