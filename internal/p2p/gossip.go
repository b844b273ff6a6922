package p2p

import (
	"fmt"
)

// BroadcastUnconfirmedTx publishes a serialized unconfirmed transaction to
// the gossip network. The caller is responsible for encoding (see
// pkg/tx.Transaction.Encode).
func (n *Node) BroadcastUnconfirmedTx(data []byte) error {
	if n.topicTx == nil {
		return fmt.Errorf("p2p node not started")
	}
	return n.topicTx.Publish(n.ctx, data)
}
