// Package workers runs the three periodic background tasks that keep the
// mempool consistent with the confirmed chain and the peer network: expiry
// sweeping, local-origin rebroadcast, and peer-initiated pulls. Each is an
// independent ticker loop observing ctx.Done() between ticks; a missed tick
// is skipped, never coalesced.
package workers

import (
	"context"
	"time"

	"github.com/klingnet-chain/monetary-node/internal/log"
	"github.com/klingnet-chain/monetary-node/pkg/tx"
)

// ExpirySweeperInterval is how often the mempool is swept for expired entries.
const ExpirySweeperInterval = 1 * time.Second

// RebroadcasterInterval is how often local-origin transactions are
// reconsidered for rebroadcast.
const RebroadcasterInterval = 60 * time.Second

// RebroadcastAfter is how long a local-origin transaction must sit
// unconfirmed before it is rebroadcast.
const RebroadcastAfter = 30 * time.Second

// PeerPullInterval is how often a random peer is asked for its unconfirmed set.
const PeerPullInterval = 5 * time.Second

// Sweeper is the mempool surface the ExpirySweeper worker drives.
type Sweeper interface {
	SweepExpired() error
}

// RunExpirySweeper sweeps expired mempool entries once per
// ExpirySweeperInterval until ctx is cancelled. Any error is logged; the
// loop itself never exits on an error (only a fatal process-level failure
// would), matching the spec's "exceptions are caught and logged" contract.
func RunExpirySweeper(ctx context.Context, s Sweeper) {
	ticker := time.NewTicker(ExpirySweeperInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.SweepExpired(); err != nil {
				log.Workers.Error().Err(err).Msg("expiry sweep failed")
			}
		}
	}
}

// Rebroadcastable is the mempool/processor surface the Rebroadcaster worker
// drives: a snapshot of locally-originated transactions, a way to check
// whether one has since confirmed, a way to drop it from tracking, and a
// way to forward a batch to peers.
type Rebroadcastable interface {
	LocalOriginSnapshot() []*tx.Transaction
	RemoveLocalOrigin(id uint64)
	LedgerContains(id uint64) bool
	SendToPeers(batch []*tx.Transaction) error
	Now() int64
}

// RunRebroadcaster re-considers every locally-originated transaction once
// per RebroadcasterInterval: entries that have since confirmed or expired
// are dropped from tracking; entries still pending after RebroadcastAfter
// are forwarded to peers again. No lock is held during the peer I/O.
func RunRebroadcaster(ctx context.Context, r Rebroadcastable) {
	ticker := time.NewTicker(RebroadcasterInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			runRebroadcastTick(r)
		}
	}
}

func runRebroadcastTick(r Rebroadcastable) {
	now := r.Now()
	snapshot := r.LocalOriginSnapshot()

	var forward []*tx.Transaction
	for _, t := range snapshot {
		switch {
		case r.LedgerContains(t.ID), t.Expiration() < now:
			r.RemoveLocalOrigin(t.ID)
		case t.Timestamp < now-int64(RebroadcastAfter.Seconds()):
			forward = append(forward, t)
		}
	}

	if len(forward) == 0 {
		return
	}
	if err := r.SendToPeers(forward); err != nil {
		log.Workers.Warn().Err(err).Msg("rebroadcast failed")
	}
}

// PeerSource picks a random connected peer and requests its unconfirmed
// transaction set, feeding the reply through process_peer_batch with
// send_to_peers=false. On a NotValid verdict it reports the offending peer
// so the caller can blacklist it.
type PeerSource interface {
	// PullFromRandomPeer requests and processes one peer's unconfirmed set.
	// ok is false if there was no peer to pull from (not an error: simply
	// skip this tick). blacklistReason is non-empty when the peer should be
	// banned for sending a NotValid batch.
	PullFromRandomPeer(ctx context.Context) (ok bool, blacklistReason string)
}

// RunPeerPuller asks a random peer for its unconfirmed transactions once
// per PeerPullInterval.
func RunPeerPuller(ctx context.Context, s PeerSource) {
	ticker := time.NewTicker(PeerPullInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, reason := s.PullFromRandomPeer(ctx); reason != "" {
				log.Workers.Warn().Str("reason", reason).Msg("peer pull rejected, blacklisting")
			}
		}
	}
}
