package main

import (
	"context"
	"encoding/json"

	"github.com/klingnet-chain/monetary-node/internal/p2p"
	"github.com/klingnet-chain/monetary-node/internal/txproc"
	"github.com/klingnet-chain/monetary-node/pkg/currency"
)

// peerSource implements workers.PeerSource: pick a random connected peer,
// pull its unconfirmed set, and fold it through process_peer_batch with
// send_to_peers=false. A NotValid verdict reports the peer for blacklisting.
type peerSource struct {
	node *p2p.Node
	proc *txproc.Processor
}

func (s *peerSource) PullFromRandomPeer(ctx context.Context) (ok bool, blacklistReason string) {
	peerID, found := s.node.RandomConnectedPeer()
	if !found {
		return false, ""
	}

	entries, err := s.node.RequestUnconfirmed(peerID)
	if err != nil {
		// Transport failure, not a validation failure: nothing to blacklist.
		return false, ""
	}
	if len(entries) == 0 {
		return true, ""
	}

	raw := make([]json.RawMessage, len(entries))
	for i, e := range entries {
		raw[i] = json.RawMessage(e)
	}
	payload, err := json.Marshal(raw)
	if err != nil {
		return true, ""
	}

	if _, err := s.proc.ProcessPeerBatch(payload, false); err != nil {
		if currency.IsNotValid(err) {
			reason := err.Error()
			if s.node.BanManager != nil {
				s.node.BanManager.RecordOffense(peerID, p2p.PenaltyInvalidTx, reason)
			}
			return true, reason
		}
		return true, ""
	}

	return true, ""
}
