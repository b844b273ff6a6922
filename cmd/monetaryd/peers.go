package main

import (
	"github.com/klingnet-chain/monetary-node/internal/p2p"
	"github.com/klingnet-chain/monetary-node/pkg/tx"
)

// nodePeers adapts p2p.Node's single-transaction gossip publish to
// txproc.Peers' batch-forwarding contract.
type nodePeers struct {
	node *p2p.Node
}

func (n *nodePeers) SendToSome(batch []*tx.Transaction) error {
	for _, t := range batch {
		if err := n.node.BroadcastUnconfirmedTx(t.Bytes); err != nil {
			return err
		}
	}
	return nil
}
