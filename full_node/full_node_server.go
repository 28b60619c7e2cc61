package full_node

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/powledger/powledger/client"
	"github.com/powledger/powledger/commands"
	"github.com/powledger/powledger/config"
	"github.com/powledger/powledger/logx"
	"github.com/powledger/powledger/model"
	"github.com/powledger/powledger/network"
	"github.com/powledger/powledger/utils"
)

// FullNodeServer exposes the node over HTTP and keeps the peer set. Peer
// addition and deletion is protected by its own mutex, separate from the
// node state lock.
type FullNodeServer struct {
	// Peer base URLs we broadcast to and poll for consensus.
	peers map[string]bool
	pm    sync.RWMutex

	fullNode *FullNode
	client   *client.Client
	// Address peers should reach us at, handed out during registration.
	selfAddr string
	// A command channel to notify the console loop, for now only used to
	// interrupt the mining process on head change.
	cmd chan commands.Command
}

// Create a new full node server. cmd may be nil when no console loop is
// attached (tests, headless runs).
func NewFullNodeServer(c config.AppConfig, selfAddr string, cmd chan commands.Command) *FullNodeServer {
	timeout := time.Duration(c.PEER_TIMEOUT_SECONDS) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &FullNodeServer{
		peers:    make(map[string]bool),
		fullNode: NewFullNode(c),
		client:   client.NewClient(timeout),
		selfAddr: selfAddr,
		cmd:      cmd,
	}
}

func (sev *FullNodeServer) Node() *FullNode {
	return sev.fullNode
}

// AddPeer records a peer address in canonical form. Adding a known peer or
// ourselves is a no-op.
func (sev *FullNodeServer) AddPeer(addr string) error {
	normalized, err := network.NormalizePeerAddress(addr)
	if err != nil {
		return err
	}
	if normalized == sev.selfAddr {
		return nil
	}
	sev.pm.Lock()
	defer sev.pm.Unlock()
	sev.peers[normalized] = true
	return nil
}

func (sev *FullNodeServer) RemovePeer(addr string) {
	sev.pm.Lock()
	defer sev.pm.Unlock()
	delete(sev.peers, addr)
}

// GetAllPeers returns the peer addresses in deterministic order.
func (sev *FullNodeServer) GetAllPeers() []string {
	sev.pm.RLock()
	defer sev.pm.RUnlock()
	out := make([]string, 0, len(sev.peers))
	for p := range sev.peers {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// ChainDump assembles the full snapshot served to peers and applications.
func (sev *FullNodeServer) ChainDump() client.ChainDump {
	chain := sev.fullNode.ChainSnapshot()
	return client.ChainDump{
		Length: len(chain),
		Chain:  chain,
		Peers:  sev.GetAllPeers(),
	}
}

// AnnounceBlock pushes a freshly mined block to every peer. Unreachable
// peers are skipped, they will catch up through consensus.
func (sev *FullNodeServer) AnnounceBlock(b *model.Block) {
	for _, peer := range sev.GetAllPeers() {
		if err := sev.client.PostBlock(peer, b); err != nil {
			logx.Warn("announce", err.Error())
		}
	}
}

// MineAndAnnounce mines one block from the pool, then makes sure we hold
// the longest chain before announcing it to the network. Returns a nil
// block when the pool was empty.
func (sev *FullNodeServer) MineAndAnnounce(ctl chan commands.Command) (*model.Block, commands.Command, error) {
	b, c, err := sev.fullNode.Mine(ctl)
	if err != nil || b == nil {
		return nil, c, err
	}
	replaced := sev.Consensus()
	if !replaced {
		sev.AnnounceBlock(b)
	}
	return b, c, nil
}

// RegisterWith introduces this node to a remote one, then adopts the
// remote's chain and peer set.
func (sev *FullNodeServer) RegisterWith(remote string) error {
	normalized, err := network.NormalizePeerAddress(remote)
	if err != nil {
		return err
	}
	dump, err := sev.client.RegisterNode(normalized, sev.selfAddr)
	if err != nil {
		return logx.Errorf("register_with %s: %v", normalized, err)
	}
	bc, err := utils.ChainFromDump(dump.Chain, sev.fullNode.config.DIFFICULTY)
	if err != nil {
		return logx.Errorf("register_with %s: %v", normalized, err)
	}
	sev.fullNode.ReplaceChain(bc.Blocks)
	sev.AddPeer(normalized)
	for _, p := range dump.Peers {
		if err := sev.AddPeer(p); err != nil {
			logx.Warn("register", "skipping bad peer address ", p)
		}
	}
	logx.Info("register", "registered with ", normalized, ", chain length ", bc.Length())
	return nil
}

// Router wires up the HTTP surface of the node.
func (sev *FullNodeServer) Router() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/new_data", sev.handleNewData)
	mux.HandleFunc("/chain", sev.handleGetChain)
	mux.HandleFunc("/mine", sev.handleMine)
	mux.HandleFunc("/register_node", sev.handleRegisterNode)
	mux.HandleFunc("/register_with", sev.handleRegisterWith)
	mux.HandleFunc("/add_block", sev.handleAddBlock)
	mux.HandleFunc("/pending_data", sev.handlePendingData)
	return mux
}

// Submissions must carry a non-empty author and content; everything else in
// the entry is opaque. The node stamps the submission time.
func (sev *FullNodeServer) handleNewData(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var entry model.Entry
	if err := json.NewDecoder(r.Body).Decode(&entry); err != nil {
		http.Error(w, "invalid data", http.StatusBadRequest)
		return
	}
	for _, field := range []string{"author", "content"} {
		if s, ok := entry[field].(string); !ok || s == "" {
			http.Error(w, "invalid data", http.StatusBadRequest)
			return
		}
	}
	entry["timestamp"] = float64(time.Now().UnixNano()) / float64(time.Second)
	sev.fullNode.AddData(entry)
	w.WriteHeader(http.StatusCreated)
	fmt.Fprint(w, "Success")
}

func (sev *FullNodeServer) handleGetChain(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(sev.ChainDump())
}

func (sev *FullNodeServer) handleMine(w http.ResponseWriter, r *http.Request) {
	b, _, err := sev.MineAndAnnounce(nil)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if b == nil {
		fmt.Fprint(w, "No data to mine")
		return
	}
	fmt.Fprintf(w, "Block #%d is mined.", sev.fullNode.Head().Index)
}

func (sev *FullNodeServer) handleRegisterNode(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		NodeAddress string `json:"node_address"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.NodeAddress == "" {
		http.Error(w, "invalid data", http.StatusBadRequest)
		return
	}
	if err := sev.AddPeer(req.NodeAddress); err != nil {
		http.Error(w, "invalid data", http.StatusBadRequest)
		return
	}
	// Return our chain so the newly registered node can sync from it.
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(sev.ChainDump())
}

func (sev *FullNodeServer) handleRegisterWith(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		NodeAddress string `json:"node_address"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.NodeAddress == "" {
		http.Error(w, "invalid data", http.StatusBadRequest)
		return
	}
	if err := sev.RegisterWith(req.NodeAddress); err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	fmt.Fprint(w, "Registration successful")
}

// A block mined by someone else. Verified through the same append checks as
// local mining, then possibly interrupts an in-flight search since the
// candidate it works on is now stale.
func (sev *FullNodeServer) handleAddBlock(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var b model.Block
	if err := json.NewDecoder(r.Body).Decode(&b); err != nil {
		http.Error(w, "invalid data", http.StatusBadRequest)
		return
	}
	if err := sev.fullNode.HandleForeignBlock(&b); err != nil {
		logx.Info("server", "discarded foreign block #", b.Index, ": ", err.Error())
		http.Error(w, "The block was discarded by the node", http.StatusBadRequest)
		return
	}
	logx.Info("server", "accepted foreign block #", b.Index)
	if sev.fullNode.config.REMINE_ON_TAIL_CHANGE && sev.cmd != nil {
		select {
		case sev.cmd <- commands.Command{Op: commands.RESTART}:
		default:
		}
	}
	w.WriteHeader(http.StatusCreated)
	fmt.Fprint(w, "Block added to the chain")
}

func (sev *FullNodeServer) handlePendingData(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(sev.fullNode.PendingSnapshot())
}
