package full_node

import (
	"sort"
	"sync"

	"github.com/powledger/powledger/logx"
	"github.com/powledger/powledger/model"
	"github.com/powledger/powledger/utils"
)

// One peer's answer during consensus polling.
type peerChain struct {
	addr   string
	blocks []model.Block
}

// Consensus polls every peer for its chain and adopts the longest one that
// is strictly longer than ours and fully revalidates. Peers are polled
// concurrently; unreachable or tampered peers are skipped. Among several
// longest candidates the one from the lexicographically smallest peer
// address wins, so the outcome never depends on response arrival order.
// Returns whether the local chain was replaced.
func (sev *FullNodeServer) Consensus() bool {
	peers := sev.GetAllPeers()
	if len(peers) == 0 {
		return false
	}
	localLen := sev.fullNode.Length()
	difficulty := sev.fullNode.config.DIFFICULTY

	results := make([]*peerChain, len(peers))
	var wg sync.WaitGroup
	for i, addr := range peers {
		wg.Add(1)
		go func(i int, addr string) {
			defer wg.Done()
			dump, err := sev.client.GetChain(addr)
			if err != nil {
				logx.Warn("consensus", "peer unreachable, skipping: ", addr, " (", err.Error(), ")")
				return
			}
			if dump.Length <= localLen || len(dump.Chain) <= localLen {
				return
			}
			rebuilt, err := utils.ChainFromDump(dump.Chain, difficulty)
			if err != nil {
				logx.Warn("consensus", "rejecting chain from ", addr, ": ", err.Error())
				return
			}
			results[i] = &peerChain{addr: addr, blocks: rebuilt.Blocks}
		}(i, addr)
	}
	wg.Wait()

	candidates := make([]*peerChain, 0, len(results))
	for _, r := range results {
		if r != nil {
			candidates = append(candidates, r)
		}
	}
	if len(candidates) == 0 {
		return false
	}
	// Longest chain first, ties broken by peer address.
	sort.Slice(candidates, func(a, b int) bool {
		if len(candidates[a].blocks) != len(candidates[b].blocks) {
			return len(candidates[a].blocks) > len(candidates[b].blocks)
		}
		return candidates[a].addr < candidates[b].addr
	})
	winner := candidates[0]

	// The chain may have grown while we were polling; adopt only if the
	// winner still exceeds our current length.
	if len(winner.blocks) <= sev.fullNode.Length() {
		return false
	}
	sev.fullNode.ReplaceChain(winner.blocks)
	logx.Info("consensus", "adopted chain of length ", len(winner.blocks), " from ", winner.addr)
	return true
}
