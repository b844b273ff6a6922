package p2p

import (
	"github.com/libp2p/go-libp2p/core/protocol"
)

// GossipSub topic names.
const (
	TopicUnconfirmedTransactions = "/klingnet/monetary/tx/1.0.0"
)

// Handshake protocol constants.
const (
	// HandshakeProtocol is the stream protocol ID for peer compatibility checking.
	HandshakeProtocol = protocol.ID("/klingnet/handshake/1.0.0")

	// GetUnconfirmedProtocol is the stream protocol ID for pulling the full
	// unconfirmed transaction set from a peer.
	GetUnconfirmedProtocol = protocol.ID("/klingnet/monetary/getunconfirmed/1.0.0")

	// ProtocolVersion is the current protocol version advertised during handshake.
	ProtocolVersion uint32 = 1

	// MinProtocolVersion is the minimum protocol version we accept from peers.
	MinProtocolVersion uint32 = 1
)

// MessageType identifies the type of P2P message.
type MessageType uint8

const (
	MsgUnconfirmedTx MessageType = iota + 1 // Unconfirmed transaction broadcast.
)

// Message is a P2P protocol message.
type Message struct {
	Type    MessageType `json:"type"`
	Payload []byte      `json:"payload"`
}
