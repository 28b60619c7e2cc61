package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/powledger/powledger/model"
)

// ChainDump is a full node's answer to a chain query: its whole chain, the
// chain length and every peer it knows about.
type ChainDump struct {
	Length int           `json:"length"`
	Chain  []model.Block `json:"chain"`
	Peers  []string      `json:"peers"`
}

// Client talks to peer full nodes over their HTTP surface.
type Client struct {
	http *http.Client
}

func NewClient(timeout time.Duration) *Client {
	return &Client{
		http: &http.Client{Timeout: timeout},
	}
}

// GetChain fetches the peer's current chain dump.
func (c *Client) GetChain(addr string) (ChainDump, error) {
	var dump ChainDump
	resp, err := c.http.Get(addr + "/chain")
	if err != nil {
		return dump, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return dump, fmt.Errorf("peer %s answered chain query with status %d", addr, resp.StatusCode)
	}
	err = json.NewDecoder(resp.Body).Decode(&dump)
	return dump, err
}

// PostBlock announces a freshly mined block to a peer. The peer verifies the
// block itself, a rejection over there is its business.
func (c *Client) PostBlock(addr string, b *model.Block) error {
	raw, err := json.Marshal(b)
	if err != nil {
		return err
	}
	resp, err := c.http.Post(addr+"/add_block", "application/json", bytes.NewReader(raw))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("peer %s discarded block %d (status %d)", addr, b.Index, resp.StatusCode)
	}
	return nil
}

// RegisterNode introduces self to a remote node and returns the remote's
// chain dump so the caller can sync from it.
func (c *Client) RegisterNode(addr string, self string) (ChainDump, error) {
	var dump ChainDump
	raw, err := json.Marshal(map[string]string{"node_address": self})
	if err != nil {
		return dump, err
	}
	resp, err := c.http.Post(addr+"/register_node", "application/json", bytes.NewReader(raw))
	if err != nil {
		return dump, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return dump, fmt.Errorf("registration with %s failed (status %d)", addr, resp.StatusCode)
	}
	err = json.NewDecoder(resp.Body).Decode(&dump)
	return dump, err
}
