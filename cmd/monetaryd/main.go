// Monetary System node daemon.
//
// Usage:
//
//	monetaryd [--network=testnet] [--identity --mnemonic-file=...]  Run node
//	monetaryd --help                                                Show help
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/klingnet-chain/monetary-node/config"
	"github.com/klingnet-chain/monetary-node/internal/clock"
	"github.com/klingnet-chain/monetary-node/internal/eventbus"
	"github.com/klingnet-chain/monetary-node/internal/identity"
	"github.com/klingnet-chain/monetary-node/internal/log"
	"github.com/klingnet-chain/monetary-node/internal/mempool"
	"github.com/klingnet-chain/monetary-node/internal/p2p"
	"github.com/klingnet-chain/monetary-node/internal/storage"
	"github.com/klingnet-chain/monetary-node/internal/txproc"
	"github.com/klingnet-chain/monetary-node/internal/txproc/memledger"
	"github.com/klingnet-chain/monetary-node/internal/workers"
	"github.com/klingnet-chain/monetary-node/pkg/crypto"
	"github.com/klingnet-chain/monetary-node/pkg/currency"
	"github.com/klingnet-chain/monetary-node/pkg/tx"
)

func main() {
	cfg, _, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := log.Init(cfg.Log.Level, cfg.Log.JSON, cfg.Log.File); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	genesis := config.GenesisFor(cfg.Network)

	db, err := storage.NewBadger(cfg.MempoolDir())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	store := mempool.NewStore(db)
	local := mempool.NewLocalOriginTracker()
	bus := eventbus.New()

	// Standalone reference ledger: the confirmed chain/block engine is an
	// external collaborator this module does not implement (see
	// internal/txproc.Ledger); this keeps the daemon runnable end to end.
	ledger := memledger.New(nil)

	naming := currency.NamingRules{
		MinNameLength:        genesis.Protocol.Currency.MinNameLength,
		MaxNameLength:        genesis.Protocol.Currency.MaxNameLength,
		CodeLength:           genesis.Protocol.Currency.CodeLength,
		MaxDescriptionLength: genesis.Protocol.Currency.MaxDescriptionLength,
		Alphabet:             config.CurrencyAlphabet,
		CodeLetters:          config.AllowedCurrencyCodeLetters,
	}
	capabilityValidator := currency.NewValidator(0, ledger.Height)

	var signer *identity.Identity
	if cfg.Identity.Enabled {
		signer, err = identity.LoadFromMnemonicFile(cfg.Identity.MnemonicFile, cfg.Identity.DerivationID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		log.TxProc.Info().Uint64("account", signer.AccountID).Msg("local broadcast identity loaded")
	}

	node := p2p.New(p2p.Config{
		ListenAddr: cfg.P2P.ListenAddr,
		Port:       cfg.P2P.Port,
		Seeds:      cfg.P2P.Seeds,
		MaxPeers:   cfg.P2P.MaxPeers,
		NoDiscover: cfg.P2P.NoDiscover,
		DB:         db,
		DHTServer:  cfg.P2P.DHTServer,
		NetworkID:  genesis.ChainID,
		DataDir:    cfg.DataDir,
	})

	genesisHash, err := genesis.Hash()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	node.SetGenesisHash(genesisHash)
	node.SetHeightFn(ledger.Height)
	node.SetUnconfirmedProvider(func() [][]byte {
		var out [][]byte
		_ = store.IterAll(func(t *tx.Transaction) error {
			out = append(out, t.Bytes)
			return nil
		})
		return out
	})

	proc := txproc.New(txproc.Config{
		DB:         db,
		Store:      store,
		Local:      local,
		Bus:        bus,
		Ledger:     ledger,
		Peers:      &nodePeers{node: node},
		Clock:      clock.System{},
		Verifier:   crypto.SchnorrVerifier{},
		Capability: capabilityValidator,
		Registry:   ledger,
		Naming:     naming,
	})

	node.SetTxHandler(newGossipTxHandler(node, proc))

	if err := node.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	go workers.RunExpirySweeper(ctx, proc)
	go workers.RunRebroadcaster(ctx, proc)
	go workers.RunPeerPuller(ctx, &peerSource{node: node, proc: proc})

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	cancel()
	node.Stop()
}
