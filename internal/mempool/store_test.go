package mempool

import (
	"testing"

	"github.com/klingnet-chain/monetary-node/internal/storage"
	"github.com/klingnet-chain/monetary-node/pkg/tx"
)

func testTx(id uint64, timestamp int64, deadline uint16) *tx.Transaction {
	t := &tx.Transaction{
		ID:        id,
		SenderID:  1,
		Timestamp: timestamp,
		Deadline:  deadline,
		Attachment: tx.Attachment{
			Type: tx.AttachmentTransfer,
		},
	}
	t.Encode()
	return t
}

func TestStore_InsertAndGet(t *testing.T) {
	db := storage.NewMemory()
	s := NewStore(db)
	txn := testTx(1, 1000, 60)

	if err := db.WithTransaction(func(stx storage.Tx) error {
		return s.Insert(stx, txn)
	}); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	got, ok, err := s.Get(1)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok {
		t.Fatal("expected entry to be present")
	}
	if got.ID != 1 || got.SenderID != 1 {
		t.Errorf("got %+v", got)
	}
}

func TestStore_Delete(t *testing.T) {
	db := storage.NewMemory()
	s := NewStore(db)
	txn := testTx(1, 1000, 60)

	db.WithTransaction(func(stx storage.Tx) error { return s.Insert(stx, txn) })
	db.WithTransaction(func(stx storage.Tx) error { return s.Delete(stx, 1) })

	if ok, _ := s.Contains(1); ok {
		t.Fatal("expected entry to be gone after Delete")
	}
}

func TestStore_Contains(t *testing.T) {
	db := storage.NewMemory()
	s := NewStore(db)

	if ok, _ := s.Contains(1); ok {
		t.Fatal("expected false for missing entry")
	}
	db.WithTransaction(func(stx storage.Tx) error { return s.Insert(stx, testTx(1, 1000, 60)) })
	if ok, _ := s.Contains(1); !ok {
		t.Fatal("expected true after insert")
	}
}

func TestStore_IterAll(t *testing.T) {
	db := storage.NewMemory()
	s := NewStore(db)
	db.WithTransaction(func(stx storage.Tx) error {
		s.Insert(stx, testTx(1, 1000, 60))
		s.Insert(stx, testTx(2, 1000, 60))
		return nil
	})

	seen := map[uint64]bool{}
	err := s.IterAll(func(t *tx.Transaction) error {
		seen[t.ID] = true
		return nil
	})
	if err != nil {
		t.Fatalf("IterAll: %v", err)
	}
	if len(seen) != 2 || !seen[1] || !seen[2] {
		t.Errorf("seen = %v", seen)
	}
}

func TestStore_SweepExpired(t *testing.T) {
	db := storage.NewMemory()
	s := NewStore(db)

	// expires at 1000+60=1060 (still valid at now=1100? no: expired)
	expired := testTx(1, 1000, 1) // expiration = 1060
	fresh := testTx(2, 1000, 120) // expiration = 8200... large deadline minutes

	db.WithTransaction(func(stx storage.Tx) error {
		s.Insert(stx, expired)
		s.Insert(stx, fresh)
		return nil
	})

	var removed []*tx.Transaction
	err := db.WithTransaction(func(stx storage.Tx) error {
		r, err := s.SweepExpired(stx, 1100)
		removed = r
		return err
	})
	if err != nil {
		t.Fatalf("SweepExpired: %v", err)
	}
	if len(removed) != 1 || removed[0].ID != 1 {
		t.Fatalf("removed = %+v, want just id 1", removed)
	}
	if ok, _ := s.Contains(1); ok {
		t.Error("expired entry should be deleted")
	}
	if ok, _ := s.Contains(2); !ok {
		t.Error("fresh entry should remain")
	}
}

func TestStore_RollbackIsNoop(t *testing.T) {
	db := storage.NewMemory()
	s := NewStore(db)
	db.WithTransaction(func(stx storage.Tx) error { return s.Insert(stx, testTx(1, 1000, 60)) })

	if err := s.Rollback(42); err != nil {
		t.Fatalf("Rollback should be a no-op, got %v", err)
	}
	if ok, _ := s.Contains(1); !ok {
		t.Error("Rollback must not mutate the store")
	}
}
