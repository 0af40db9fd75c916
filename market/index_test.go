package market

import (
	"testing"
	"time"

	"github.com/lemconn/exbridge/model"
)

func TestBuildIndex_Conflicts(t *testing.T) {
	markets := []model.Market{
		{InternalID: "BTCUSDT", NativeSymbol: "BTCUSDT"},
		{InternalID: "ETHUSDT", NativeSymbol: "ETHUSDT"},
		{InternalID: "BTCUSDT", NativeSymbol: "BTCUSDT_PERP"},
	}
	idx := BuildIndex("binancefutures", markets, time.Now())
	if err := idx.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if len(idx.ByID) != 2 || len(idx.Conflicts) != 1 || idx.Conflicts[0] != "BTCUSDT_PERP" {
		t.Fatalf("unexpected index: ids=%v conflicts=%v", idx.IDs(), idx.Conflicts)
	}
	if got := idx.Markets(); got[0].InternalID != "BTCUSDT" || got[1].InternalID != "ETHUSDT" {
		t.Fatalf("Markets() not sorted: %v", got)
	}
	kept := idx.Indexed(markets)
	if len(kept) != 2 || kept[0].NativeSymbol != "BTCUSDT" || kept[1].NativeSymbol != "ETHUSDT" {
		t.Fatalf("Indexed() = %v, want conflict dropped", kept)
	}
}

func TestIndex_ValidateDetectsBrokenMapping(t *testing.T) {
	idx := &Index{
		Exchange: "bitmex",
		ByID:     map[string]model.Market{"BTCUSD": {InternalID: "BTCUSD", NativeSymbol: "XBTUSD"}},
		ByNative: map[string]string{"XBTUSD": "ETHUSD"},
	}
	if err := idx.Validate(); err == nil {
		t.Fatalf("Validate() should reject a mapping that does not round-trip")
	}
}
