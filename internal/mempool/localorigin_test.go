package mempool

import "testing"

func TestLocalOriginTracker_PutContainsRemove(t *testing.T) {
	l := NewLocalOriginTracker()
	txn := testTx(1, 1000, 60)

	if l.Contains(1) {
		t.Fatal("expected false before Put")
	}
	l.Put(txn)
	if !l.Contains(1) {
		t.Fatal("expected true after Put")
	}
	l.Remove(1)
	if l.Contains(1) {
		t.Fatal("expected false after Remove")
	}
}

func TestLocalOriginTracker_Snapshot(t *testing.T) {
	l := NewLocalOriginTracker()
	l.Put(testTx(1, 1000, 60))
	l.Put(testTx(2, 1000, 60))

	snap := l.Snapshot()
	if len(snap) != 2 {
		t.Fatalf("snapshot len = %d, want 2", len(snap))
	}
}
