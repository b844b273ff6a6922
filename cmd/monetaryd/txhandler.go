package main

import (
	"encoding/json"

	"github.com/klingnet-chain/monetary-node/internal/log"
	"github.com/klingnet-chain/monetary-node/internal/p2p"
	"github.com/klingnet-chain/monetary-node/internal/txproc"
	"github.com/klingnet-chain/monetary-node/pkg/currency"
	"github.com/libp2p/go-libp2p/core/peer"
)

// newGossipTxHandler adapts a single gossiped transaction message into the
// one-element batch process_peer_batch expects, blacklisting the sender on
// a NotValid verdict.
func newGossipTxHandler(node *p2p.Node, proc *txproc.Processor) func(peer.ID, []byte) {
	return func(from peer.ID, data []byte) {
		payload, err := json.Marshal([]json.RawMessage{data})
		if err != nil {
			return
		}

		if _, err := proc.ProcessPeerBatch(payload, true); err != nil {
			if currency.IsNotValid(err) {
				if node.BanManager != nil {
					node.BanManager.RecordOffense(from, p2p.PenaltyInvalidTx, err.Error())
				}
				log.TxProc.Warn().Str("peer", from.String()[:16]).Err(err).Msg("gossiped transaction rejected")
			}
			return
		}
	}
}
