package p2p

import (
	"context"
	"testing"
	"time"

	"github.com/libp2p/go-libp2p/core/peer"
)

// startTestNode creates and starts a Node suitable for tests, with discovery
// disabled and automatic cleanup registered.
func startTestNode(t *testing.T) *Node {
	t.Helper()

	n := New(Config{ListenAddr: "127.0.0.1", Port: 0, NoDiscover: true})
	if err := n.Start(); err != nil {
		t.Fatalf("start node: %v", err)
	}
	t.Cleanup(func() { n.Stop() })

	return n
}

// connectNodes dials nodeB to nodeA.
func connectNodes(t *testing.T, nodeA, nodeB *Node) {
	t.Helper()

	aInfo := peer.AddrInfo{
		ID:    nodeA.host.ID(),
		Addrs: nodeA.host.Addrs(),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := nodeB.host.Connect(ctx, aInfo); err != nil {
		t.Fatalf("connect: %v", err)
	}
}
