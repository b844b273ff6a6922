package p2p

import (
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"time"

	klog "github.com/klingnet-chain/monetary-node/internal/log"
	"github.com/libp2p/go-libp2p/core/network"
	"github.com/libp2p/go-libp2p/core/peer"
)

const (
	// getUnconfirmedTimeout bounds a single pull exchange.
	getUnconfirmedTimeout = 10 * time.Second

	// maxUnconfirmedReplyBytes bounds a peer's reply to the getunconfirmed request.
	maxUnconfirmedReplyBytes = 8 * 1024 * 1024
)

// unconfirmedReply is the wire shape of a getUnconfirmedTransactions reply:
// a JSON array of opaque, already-encoded transactions (pkg/tx.Transaction.Encode).
type unconfirmedReply struct {
	UnconfirmedTransactions []json.RawMessage `json:"unconfirmed_transactions"`
}

// registerGetUnconfirmedHandler answers incoming getUnconfirmedTransactions
// requests using the provider registered via SetUnconfirmedProvider. If no
// provider is registered the node responds with an empty set.
func (n *Node) registerGetUnconfirmedHandler() {
	logger := klog.WithComponent("p2p")
	n.host.SetStreamHandler(GetUnconfirmedProtocol, func(stream network.Stream) {
		defer stream.Close()
		_ = stream.SetDeadline(time.Now().Add(getUnconfirmedTimeout))

		var entries [][]byte
		if n.unconfirmedProvider != nil {
			entries = n.unconfirmedProvider()
		}

		reply := unconfirmedReply{UnconfirmedTransactions: make([]json.RawMessage, len(entries))}
		for i, e := range entries {
			reply.UnconfirmedTransactions[i] = json.RawMessage(e)
		}

		if err := json.NewEncoder(stream).Encode(&reply); err != nil {
			logger.Debug().Err(err).Str("peer", stream.Conn().RemotePeer().String()[:16]).
				Msg("getunconfirmed reply failed")
		}
	})
}

// RequestUnconfirmed opens a getUnconfirmedTransactions stream to peerID and
// returns the peer's raw transaction entries, still encoded.
func (n *Node) RequestUnconfirmed(peerID peer.ID) ([][]byte, error) {
	stream, err := n.host.NewStream(n.ctx, peerID, GetUnconfirmedProtocol)
	if err != nil {
		return nil, fmt.Errorf("open getunconfirmed stream: %w", err)
	}
	defer stream.Close()

	_ = stream.SetDeadline(time.Now().Add(getUnconfirmedTimeout))
	stream.CloseWrite()

	var reply unconfirmedReply
	if err := json.NewDecoder(io.LimitReader(stream, maxUnconfirmedReplyBytes)).Decode(&reply); err != nil {
		return nil, fmt.Errorf("decode getunconfirmed reply: %w", err)
	}

	out := make([][]byte, len(reply.UnconfirmedTransactions))
	for i, e := range reply.UnconfirmedTransactions {
		out[i] = []byte(e)
	}
	return out, nil
}

// RandomConnectedPeer returns a uniformly random peer from the current peer
// set, or false if there are none.
func (n *Node) RandomConnectedPeer() (peer.ID, bool) {
	peers := n.PeerList()
	if len(peers) == 0 {
		return "", false
	}
	return peers[rand.Intn(len(peers))].ID, true
}
