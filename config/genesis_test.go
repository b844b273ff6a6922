package config

import "testing"

func TestValidCurrencyCode(t *testing.T) {
	cases := []struct {
		code string
		want bool
	}{
		{"ABC", true},
		{"KGX", true},
		{"AB", false},        // too short
		{"ABCDEF", false},    // too long
		{"abc", false},       // lowercase not allowed
		{"AB1", false},       // digits not allowed
		{"", false},
	}
	for _, c := range cases {
		if got := ValidCurrencyCode(c.code); got != c.want {
			t.Errorf("ValidCurrencyCode(%q) = %v, want %v", c.code, got, c.want)
		}
	}
}

func TestGenesis_Validate_MainnetValid(t *testing.T) {
	g := MainnetGenesis()
	if err := g.Validate(); err != nil {
		t.Errorf("mainnet genesis should be valid: %v", err)
	}
}

func TestGenesis_Validate_TestnetValid(t *testing.T) {
	g := TestnetGenesis()
	if err := g.Validate(); err != nil {
		t.Errorf("testnet genesis should be valid: %v", err)
	}
}

func TestGenesis_Validate_RejectsEmptyChainID(t *testing.T) {
	g := MainnetGenesis()
	g.ChainID = ""
	if err := g.Validate(); err == nil {
		t.Error("expected error for empty chain_id")
	}
}

func TestGenesis_Validate_RejectsBadNameBounds(t *testing.T) {
	g := MainnetGenesis()
	g.Protocol.Currency.MaxNameLength = 0
	if err := g.Validate(); err == nil {
		t.Error("expected error for invalid name length bounds")
	}
}

func TestGenesisFor_ReturnsDistinctChainIDs(t *testing.T) {
	main := GenesisFor(Mainnet)
	test := GenesisFor(Testnet)
	if main.ChainID == test.ChainID {
		t.Error("mainnet and testnet genesis must have distinct chain IDs")
	}
}

func TestGenesis_Hash_Deterministic(t *testing.T) {
	g := MainnetGenesis()
	h1, err := g.Hash()
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	h2, err := g.Hash()
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if h1 != h2 {
		t.Error("genesis hash should be deterministic")
	}
}

func TestGenesis_Hash_DiffersAcrossNetworks(t *testing.T) {
	mainHash, _ := MainnetGenesis().Hash()
	testHash, _ := TestnetGenesis().Hash()
	if mainHash == testHash {
		t.Error("mainnet and testnet genesis hashes must differ")
	}
}
