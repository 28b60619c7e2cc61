package client

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/powledger/powledger/model"
	"github.com/stretchr/testify/assert"
)

func peerStub() (*httptest.Server, *model.Block) {
	var lastBlock model.Block
	mux := http.NewServeMux()
	mux.HandleFunc("/chain", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(ChainDump{
			Length: 1,
			Chain:  []model.Block{{Index: 0, PrevHash: "0", Hash: "abcd"}},
			Peers:  []string{"http://127.0.0.1:8001"},
		})
	})
	mux.HandleFunc("/add_block", func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&lastBlock)
		if lastBlock.Index == 0 {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusCreated)
	})
	mux.HandleFunc("/register_node", func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		json.NewDecoder(r.Body).Decode(&req)
		if req["node_address"] == "" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		json.NewEncoder(w).Encode(ChainDump{Length: 1, Peers: []string{req["node_address"]}})
	})
	return httptest.NewServer(mux), &lastBlock
}

func TestGetChain(t *testing.T) {
	ts, _ := peerStub()
	defer ts.Close()

	c := NewClient(2 * time.Second)
	dump, err := c.GetChain(ts.URL)
	assert.Nil(t, err)
	assert.Equal(t, 1, dump.Length)
	assert.Equal(t, "abcd", dump.Chain[0].Hash)
	assert.Equal(t, []string{"http://127.0.0.1:8001"}, dump.Peers)
}

func TestGetChainUnreachablePeer(t *testing.T) {
	c := NewClient(500 * time.Millisecond)
	_, err := c.GetChain("http://127.0.0.1:1")
	assert.NotNil(t, err)
}

func TestPostBlock(t *testing.T) {
	ts, last := peerStub()
	defer ts.Close()

	c := NewClient(2 * time.Second)
	b := &model.Block{Index: 5, PrevHash: "00aa", Hash: "00bb"}
	assert.Nil(t, c.PostBlock(ts.URL, b))
	assert.Equal(t, int64(5), last.Index)

	// The peer rejecting the block surfaces as an error.
	rejected := &model.Block{Index: 0}
	assert.NotNil(t, c.PostBlock(ts.URL, rejected))
}

func TestRegisterNode(t *testing.T) {
	ts, _ := peerStub()
	defer ts.Close()

	c := NewClient(2 * time.Second)
	dump, err := c.RegisterNode(ts.URL, "http://127.0.0.1:9000")
	assert.Nil(t, err)
	assert.Equal(t, []string{"http://127.0.0.1:9000"}, dump.Peers)
}
