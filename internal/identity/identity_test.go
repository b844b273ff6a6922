package identity

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFromMnemonic_DerivesStableAccount(t *testing.T) {
	mnemonic, err := GenerateMnemonic()
	if err != nil {
		t.Fatalf("GenerateMnemonic: %v", err)
	}

	id1, err := FromMnemonic(mnemonic, 0)
	if err != nil {
		t.Fatalf("FromMnemonic: %v", err)
	}
	id2, err := FromMnemonic(mnemonic, 0)
	if err != nil {
		t.Fatalf("FromMnemonic: %v", err)
	}

	if id1.AccountID != id2.AccountID {
		t.Errorf("AccountID not stable across derivations: %d != %d", id1.AccountID, id2.AccountID)
	}
	if id1.AccountID == 0 {
		t.Error("AccountID should not be zero")
	}
}

func TestFromMnemonic_DifferentDerivationIDsDiffer(t *testing.T) {
	mnemonic, err := GenerateMnemonic()
	if err != nil {
		t.Fatalf("GenerateMnemonic: %v", err)
	}

	a, err := FromMnemonic(mnemonic, 0)
	if err != nil {
		t.Fatalf("FromMnemonic: %v", err)
	}
	b, err := FromMnemonic(mnemonic, 1)
	if err != nil {
		t.Fatalf("FromMnemonic: %v", err)
	}

	if a.AccountID == b.AccountID {
		t.Error("different derivation ids should derive different accounts")
	}
}

func TestFromMnemonic_RejectsInvalidMnemonic(t *testing.T) {
	if _, err := FromMnemonic("not a real mnemonic phrase at all", 0); err == nil {
		t.Fatal("expected an error for an invalid mnemonic")
	}
}

func TestLoadFromMnemonicFile_ReadsAndTrims(t *testing.T) {
	mnemonic, err := GenerateMnemonic()
	if err != nil {
		t.Fatalf("GenerateMnemonic: %v", err)
	}

	path := filepath.Join(t.TempDir(), "mnemonic.txt")
	if err := os.WriteFile(path, []byte(mnemonic+"\n"), 0600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	id, err := LoadFromMnemonicFile(path, 0)
	if err != nil {
		t.Fatalf("LoadFromMnemonicFile: %v", err)
	}
	if id.AccountID == 0 {
		t.Error("AccountID should not be zero")
	}
}
