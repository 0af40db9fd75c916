package contract

import (
	"testing"

	"github.com/lemconn/exbridge/model"
	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

var (
	linearMarket = model.Market{
		InternalID: "BTCUSDT", NativeSymbol: "BTCUSDT", Base: "BTC", Quote: "USDT",
		Limits: model.Limits{Amount: model.MinMax{Min: d("0.001"), Max: d("1000")}},
	}
	inverseMarket = model.Market{
		InternalID: "BTCUSD", NativeSymbol: "XBTUSD", Base: "BTC", Quote: "USD",
		IsInverse: true, Multiplier: d("1"),
		Limits: model.Limits{
			Amount: model.MinMax{Min: d("0.0001"), Max: d("100")},
			Cost:   model.MinMax{Min: d("1"), Max: d("10000000")},
		},
	}
	quantoMarket = model.Market{
		InternalID: "ETHUSD", NativeSymbol: "ETHUSD", Base: "ETH", Quote: "USD",
		IsQuanto: true, Multiplier: d("0.000001"),
	}
)

func TestForExchange(t *testing.T) {
	if h := ForExchange(model.DefaultCapabilities("bitmex")); h.Name() != "inverse" {
		t.Fatalf("bitmex handler = %s, want inverse", h.Name())
	}
	for _, ex := range []string{"binance", "binancefutures", "okx", "unknown"} {
		if h := ForExchange(model.DefaultCapabilities(ex)); h.Name() != "linear" {
			t.Fatalf("%s handler = %s, want linear", ex, h.Name())
		}
	}
}

func TestInverse_PositionSize(t *testing.T) {
	h := NewInverse()
	if got := h.PositionSize(inverseMarket, d("100"), d("10000")); !got.Equal(d("0.01")) {
		t.Fatalf("PositionSize(100, 10000) = %s, want 0.01", got)
	}
	if got := h.PositionSize(inverseMarket, d("5"), decimal.Zero); !got.IsZero() {
		t.Fatalf("PositionSize(5, 0) = %s, want 0", got)
	}
	if got := h.PositionSize(quantoMarket, d("10"), d("2000")); !got.Equal(d("0.02")) {
		t.Fatalf("quanto PositionSize(10, 2000) = %s, want 0.02", got)
	}
}

func TestHandlers_AmountRoundTrip(t *testing.T) {
	amount, price := d("3.5"), d("27000")
	tolerance := d("0.000000001")
	cases := []struct {
		name string
		h    Handler
		m    model.Market
	}{
		{"linear", NewLinear(), linearMarket},
		{"inverse", NewInverse(), inverseMarket},
		{"quanto", NewInverse(), quantoMarket},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			size := tc.h.PositionSize(tc.m, amount, price)
			back := tc.h.AmountFromPositionSize(tc.m, size, price)
			if back.Sub(amount).Abs().GreaterThan(tolerance) {
				t.Fatalf("AmountFromPositionSize(PositionSize(3.5)) = %s", back)
			}
		})
	}
}

func TestHandlers_PriceFromCostAmount(t *testing.T) {
	if got := NewLinear().PriceFromCostAmount(linearMarket, d("2700"), d("0.1")); !got.Equal(d("27000")) {
		t.Fatalf("linear price = %s, want 27000", got)
	}
	inv := NewInverse()
	if got := inv.PriceFromCostAmount(inverseMarket, d("0.01"), d("100")); !got.Equal(d("10000")) {
		t.Fatalf("inverse price = %s, want 10000", got)
	}
	if got := inv.PriceFromCostAmount(quantoMarket, d("0.02"), d("10")); !got.Equal(d("2000")) {
		t.Fatalf("quanto price = %s, want 2000", got)
	}
	if got := inv.PriceFromCostAmount(inverseMarket, decimal.Zero, d("100")); !got.IsZero() {
		t.Fatalf("inverse price with zero cost = %s, want 0", got)
	}
}

func TestLinear_GrossProfit(t *testing.T) {
	h := NewLinear()
	short := h.GrossProfit(linearMarket, true, d("100"), d("90"), d("10"), d("10"))
	if !short.Equal(d("100")) {
		t.Fatalf("short profit = %s, want 100", short)
	}
	long := h.GrossProfit(linearMarket, false, d("100"), d("90"), d("10"), d("10"))
	if !long.Equal(d("-100")) {
		t.Fatalf("long profit = %s, want -100", long)
	}
	if cur := h.CurrentGrossProfit(linearMarket, false, d("100"), d("110"), d("2")); !cur.Equal(d("20")) {
		t.Fatalf("current profit = %s, want 20", cur)
	}
}

func TestInverse_GrossProfit(t *testing.T) {
	h := NewInverse()
	long := h.GrossProfit(inverseMarket, false, d("10000"), d("20000"), d("100"), d("100"))
	if !long.Equal(d("0.005")) {
		t.Fatalf("inverse long profit = %s, want 0.005", long)
	}
	short := h.GrossProfit(inverseMarket, true, d("10000"), d("20000"), d("100"), d("100"))
	if !short.Equal(d("-0.005")) {
		t.Fatalf("inverse short profit = %s, want -0.005", short)
	}
	quanto := h.GrossProfit(quantoMarket, false, d("2000"), d("2100"), d("10"), d("10"))
	if !quanto.Equal(d("0.001")) {
		t.Fatalf("quanto long profit = %s, want 0.001", quanto)
	}
	// a zero exit price contributes nothing instead of an infinite value
	degenerate := h.GrossProfit(inverseMarket, false, d("10000"), decimal.Zero, d("100"), d("100"))
	if !degenerate.Equal(d("0.01")) {
		t.Fatalf("profit with zero exit price = %s, want 0.01", degenerate)
	}
}

func TestHandlers_UnrealizedProfitPercent(t *testing.T) {
	h := NewLinear()
	pct := h.UnrealizedProfitPercent(linearMarket, false, d("100"), d("110"), d("1"), d("10"))
	if !pct.Equal(d("100")) {
		t.Fatalf("profit percent = %s, want 100", pct)
	}
	if got := h.Margin(d("1000"), decimal.Zero); !got.Equal(d("1000")) {
		t.Fatalf("margin without leverage = %s", got)
	}
}

func TestTradeCommission(t *testing.T) {
	h := NewLinear()
	if got := h.TradeCommission("USDT", d("0.5"), d("27000"), "usdt"); !got.Equal(d("0.5")) {
		t.Fatalf("quote commission = %s, want 0.5", got)
	}
	if got := h.TradeCommission("BNB", d("0.001"), d("300"), "USDT"); !got.Equal(d("0.3")) {
		t.Fatalf("converted commission = %s, want 0.3", got)
	}
}

func TestMaxAmountsForMarketOrder(t *testing.T) {
	h := NewLinear(WithMaxMarketOrderAmount(d("100")))
	chunks := h.MaxAmountsForMarketOrder(linearMarket, d("250"))
	want := []string{"100", "100", "50"}
	if len(chunks) != len(want) {
		t.Fatalf("chunks = %v, want %v", chunks, want)
	}
	sum := decimal.Zero
	for i, c := range chunks {
		if !c.Equal(d(want[i])) {
			t.Fatalf("chunk %d = %s, want %s", i, c, want[i])
		}
		sum = sum.Add(c)
	}
	if !sum.Equal(d("250")) {
		t.Fatalf("chunks sum to %s", sum)
	}

	if chunks := h.MaxAmountsForMarketOrder(linearMarket, d("200")); len(chunks) != 2 {
		t.Fatalf("exact multiple split = %v, want two chunks", chunks)
	}

	// falls back to the market's own amount limit
	if chunks := NewLinear().MaxAmountsForMarketOrder(linearMarket, d("2500.5")); len(chunks) != 3 || !chunks[2].Equal(d("500.5")) {
		t.Fatalf("market-limit split = %v", chunks)
	}
	unlimited := model.Market{InternalID: "X", NativeSymbol: "X"}
	if chunks := NewLinear().MaxAmountsForMarketOrder(unlimited, d("250")); len(chunks) != 1 {
		t.Fatalf("unlimited split = %v, want a single chunk", chunks)
	}
}

// BitMEX reports contract-count limits as cost; only inverse markets there swap.
func TestInverse_MarketLimitsSwapOnBitmexInverse(t *testing.T) {
	h := NewInverse()
	limits := h.MarketLimits(inverseMarket)
	if !limits.Amount.Max.Equal(d("10000000")) || !limits.Cost.Max.Equal(d("100")) {
		t.Fatalf("inverse limits not swapped: %+v", limits)
	}
	if got := h.MarketLimits(quantoMarket); !got.Amount.Max.Equal(quantoMarket.Limits.Amount.Max) {
		t.Fatalf("quanto limits should not swap: %+v", got)
	}
	if got := NewLinear().MarketLimits(inverseMarket); !got.Amount.Max.Equal(d("100")) {
		t.Fatalf("linear handler should not swap: %+v", got)
	}
}
