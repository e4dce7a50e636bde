package paper

import (
	"testing"

	"marketmaker-go/internal/market"
)

func TestLedgerAppendSnapshot(t *testing.T) {
	ledger := NewLedger(2)
	trade := market.ExecutedTrade{ID: "t1", Side: market.Buy, Qty: 1}
	ledger.Append(trade)

	snapshot := ledger.Snapshot()
	if len(snapshot) != 1 {
		t.Fatalf("expected 1 trade, got %d", len(snapshot))
	}
	if snapshot[0].ID != trade.ID {
		t.Fatalf("unexpected trade id")
	}

	snapshot[0].ID = "mutated"
	if ledger.Snapshot()[0].ID != "t1" {
		t.Fatalf("snapshot must be a copy")
	}
}

func TestLedgerLast(t *testing.T) {
	ledger := NewLedger(-1)
	for _, id := range []string{"a", "b", "c"} {
		ledger.Append(market.ExecutedTrade{ID: id})
	}
	last := ledger.Last(2)
	if len(last) != 2 || last[0].ID != "b" || last[1].ID != "c" {
		t.Fatalf("unexpected last trades: %+v", last)
	}
	if len(ledger.Last(10)) != 3 {
		t.Fatalf("expected all trades when n exceeds length")
	}
	if ledger.Last(0) != nil {
		t.Fatalf("expected nil for n=0")
	}
	if ledger.Len() != 3 {
		t.Fatalf("expected len 3, got %d", ledger.Len())
	}
}
