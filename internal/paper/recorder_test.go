package paper

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"marketmaker-go/internal/market"
)

func TestJSONLRecorder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal", "trades.jsonl")

	recorder, err := NewJSONLRecorder(path)
	if err != nil {
		t.Fatalf("NewJSONLRecorder error: %v", err)
	}
	trade := market.ExecutedTrade{ID: "abc", Side: market.Sell, Price: 2500, Qty: 40, PnL: 12.5}
	if err := recorder.Record(trade); err != nil {
		t.Fatalf("Record error: %v", err)
	}
	if err := recorder.Close(); err != nil {
		t.Fatalf("Close error: %v", err)
	}
	if err := recorder.Record(trade); err == nil {
		t.Fatalf("expected error recording after close")
	}

	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("open recorded file: %v", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	if !scanner.Scan() {
		t.Fatalf("expected one line in recorder output")
	}
	var decoded market.ExecutedTrade
	if err := json.Unmarshal(scanner.Bytes(), &decoded); err != nil {
		t.Fatalf("json decode: %v", err)
	}
	if decoded.ID != trade.ID || decoded.Side != trade.Side || decoded.PnL != trade.PnL {
		t.Fatalf("unexpected decoded trade %+v", decoded)
	}
}
