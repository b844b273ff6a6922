package tx

import (
	"testing"

	"github.com/klingnet-chain/monetary-node/pkg/crypto"
)

func TestTransaction_Expiration(t *testing.T) {
	tx := &Transaction{Timestamp: 1000, Deadline: 10}
	if got, want := tx.Expiration(), int64(1000+10*60); got != want {
		t.Errorf("Expiration() = %d, want %d", got, want)
	}
}

func TestTransaction_DeriveID_Stable(t *testing.T) {
	tx := &Transaction{SenderID: 1, RecipientID: 2, Amount: 0, Fee: 100, Timestamp: 123, Deadline: 5, Version: 1}
	id1 := tx.DeriveID()
	id2 := tx.DeriveID()
	if id1 != id2 {
		t.Errorf("DeriveID() not stable: %d != %d", id1, id2)
	}
	if id1 == 0 {
		t.Error("DeriveID() should not be zero for a populated transaction")
	}
}

func TestTransaction_DeriveID_ChangesWithContent(t *testing.T) {
	a := &Transaction{SenderID: 1, Fee: 100, Timestamp: 123, Deadline: 5, Version: 1}
	b := &Transaction{SenderID: 2, Fee: 100, Timestamp: 123, Deadline: 5, Version: 1}
	if a.DeriveID() == b.DeriveID() {
		t.Error("transactions with different content should not derive the same id")
	}
}

func TestTransaction_SigningBytes_ExcludesSignature(t *testing.T) {
	a := &Transaction{SenderID: 1, Timestamp: 1, Deadline: 1}
	b := &Transaction{SenderID: 1, Timestamp: 1, Deadline: 1, Signature: []byte{1, 2, 3}, SenderPublicKey: []byte{4, 5, 6}}
	if string(a.SigningBytes()) != string(b.SigningBytes()) {
		t.Error("SigningBytes() must not be affected by signature or public key")
	}
}

func TestEncodeDecode_Roundtrip(t *testing.T) {
	orig := &Transaction{
		SenderID:    1,
		RecipientID: 2,
		Amount:      0,
		Fee:         500,
		Timestamp:   1000,
		Deadline:    60,
		Version:     1,
		Attachment: Attachment{
			Type: AttachmentIssuance,
			Name: "testcoin",
			Code: "TST",
		},
		Signature: []byte{0xAA, 0xBB},
	}
	orig.DeriveID()
	encoded := orig.Encode()

	decoded, err := Decode(encoded)
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}
	if decoded.ID != orig.ID {
		t.Errorf("decoded ID = %d, want %d", decoded.ID, orig.ID)
	}
	if decoded.Attachment.Type != AttachmentIssuance {
		t.Errorf("decoded attachment type = %v, want %v", decoded.Attachment.Type, AttachmentIssuance)
	}
}

func TestAttachmentType_String(t *testing.T) {
	if AttachmentIssuance.String() != "issuance" {
		t.Errorf("String() = %q, want %q", AttachmentIssuance.String(), "issuance")
	}
}

func TestAccountIDFromPublicKey_StableAndDistinct(t *testing.T) {
	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	other, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}

	id1 := AccountIDFromPublicKey(key.PublicKey())
	id2 := AccountIDFromPublicKey(key.PublicKey())
	if id1 != id2 {
		t.Errorf("AccountIDFromPublicKey not stable: %d != %d", id1, id2)
	}
	if id1 == 0 {
		t.Error("AccountIDFromPublicKey should not be zero for a real key")
	}
	if id1 == AccountIDFromPublicKey(other.PublicKey()) {
		t.Error("distinct keys should derive distinct account ids")
	}
}

func TestAttachmentType_IsExchange(t *testing.T) {
	if !AttachmentExchangeBuy.IsExchange() {
		t.Error("AttachmentExchangeBuy should be IsExchange()")
	}
	if !AttachmentExchangeSell.IsExchange() {
		t.Error("AttachmentExchangeSell should be IsExchange()")
	}
	if AttachmentTransfer.IsExchange() {
		t.Error("AttachmentTransfer should not be IsExchange()")
	}
}
