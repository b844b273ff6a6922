package config

import (
	"fmt"
)

// Validate checks runtime node config for obvious operator mistakes.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	if cfg.Network != Mainnet && cfg.Network != Testnet {
		return fmt.Errorf("network must be %q or %q", Mainnet, Testnet)
	}
	if cfg.P2P.Port < 0 || cfg.P2P.Port > 65535 {
		return fmt.Errorf("p2p.port must be in range [0, 65535]")
	}
	if cfg.Mempool.MaxSize < 0 {
		return fmt.Errorf("mempool.maxsize must be non-negative")
	}
	if cfg.Mempool.SweepIntervalMillis <= 0 {
		return fmt.Errorf("mempool.sweep_interval_ms must be positive")
	}
	if cfg.Mempool.RebroadcastSeconds <= 0 {
		return fmt.Errorf("mempool.rebroadcast_seconds must be positive")
	}
	if cfg.Mempool.PullSeconds <= 0 {
		return fmt.Errorf("mempool.pull_seconds must be positive")
	}
	return nil
}
