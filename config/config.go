// Package config handles application configuration.
//
// Configuration is split into two categories:
//   - Protocol rules: Defined in genesis, immutable, must match across all nodes
//   - Node settings: Runtime configuration, can vary per node
package config

import (
	"os"
	"path/filepath"
	"runtime"
)

// NetworkType identifies mainnet or testnet.
type NetworkType string

const (
	Mainnet NetworkType = "mainnet"
	Testnet NetworkType = "testnet"
)

// =============================================================================
// Node Configuration (runtime, per-node settings)
// =============================================================================

// Config holds node-specific runtime configuration.
// These settings can vary between nodes without breaking consensus.
type Config struct {
	// Core
	Network NetworkType `conf:"network"`
	DataDir string      `conf:"datadir"`

	// P2P networking
	P2P P2PConfig

	// Local broadcast identity (BIP-39/BIP-32 derived account key).
	Identity IdentityConfig

	// Mempool operational settings (sweep/rebroadcast/pull cadence, size caps).
	Mempool MempoolConfig

	// Logging
	Log LogConfig
}

// P2PConfig holds peer-to-peer network settings.
type P2PConfig struct {
	Enabled    bool     `conf:"p2p.enabled"`
	ListenAddr string   `conf:"p2p.listen"`
	Port       int      `conf:"p2p.port"`
	Seeds      []string `conf:"p2p.seeds"`
	MaxPeers   int      `conf:"p2p.maxpeers"`
	NoDiscover bool     `conf:"p2p.nodiscover"`
	DHTServer  bool     `conf:"p2p.dhtserver"` // Run DHT in server mode (for seeds/validators)
	ClearBans  bool     // Not set from flags or the config file, and not read by monetaryd.
}

// IdentityConfig holds the local account identity (BIP-39 mnemonic plus
// BIP-32 account index). cmd/monetaryd loads it and logs its account id; no
// code path signs or tags transactions with it.
type IdentityConfig struct {
	Enabled      bool   `conf:"identity.enabled"`
	MnemonicFile string `conf:"identity.mnemonic_file"` // BIP-39 mnemonic, one line
	DerivationID uint32 `conf:"identity.derivation_id"` // BIP-32 account index
}

// MempoolConfig holds operational (non-consensus) mempool worker settings.
// The values are parsed and validated, but no component reads them: the
// workers run on the fixed intervals in internal/workers, the processor uses
// its own MaxTimestampDriftSeconds, and the store has no size cap.
type MempoolConfig struct {
	MaxSize             int `conf:"mempool.maxsize"`              // Pool size limit (0 = unlimited); not enforced
	SweepIntervalMillis int `conf:"mempool.sweep_interval_ms"`    // Expiry sweep period; not read
	RebroadcastSeconds  int `conf:"mempool.rebroadcast_seconds"`  // Rebroadcast period; not read
	PullSeconds         int `conf:"mempool.pull_seconds"`         // Peer pull period; not read
	MaxFutureSeconds    int `conf:"mempool.max_future_seconds"`   // Future-timestamp bound; not read
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `conf:"log.level"`
	File  string `conf:"log.file"`
	JSON  bool   `conf:"log.json"`
}

// =============================================================================
// Directory helpers
// =============================================================================

// DefaultDataDir returns the platform-specific default data directory.
//
//	Linux:   ~/.klingnet-monetary
//	macOS:   ~/Library/Application Support/KlingnetMonetary
//	Windows: %APPDATA%\KlingnetMonetary
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".klingnet-monetary"
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "KlingnetMonetary")
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData != "" {
			return filepath.Join(appData, "KlingnetMonetary")
		}
		return filepath.Join(home, "AppData", "Roaming", "KlingnetMonetary")
	default:
		return filepath.Join(home, ".klingnet-monetary")
	}
}

// ChainDataDir returns the chain-specific data directory.
func (c *Config) ChainDataDir() string {
	return filepath.Join(c.DataDir, string(c.Network))
}

// MempoolDir returns the mempool storage directory.
func (c *Config) MempoolDir() string {
	return filepath.Join(c.ChainDataDir(), "mempool")
}

// LogsDir returns the logs directory.
func (c *Config) LogsDir() string {
	return filepath.Join(c.DataDir, "logs")
}

// ConfigFile returns the config file path.
func (c *Config) ConfigFile() string {
	return filepath.Join(c.DataDir, "monetaryd.conf")
}
