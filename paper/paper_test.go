package paper

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lemconn/exbridge/errs"
	"github.com/lemconn/exbridge/exchange"
	"github.com/lemconn/exbridge/model"
	"github.com/shopspring/decimal"
)

type bookClient struct {
	exchange.Unsupported
	closed bool
}

func (c *bookClient) FetchMarkets(context.Context) ([]model.RawMarket, error) {
	return []model.RawMarket{{
		ID:        "BTCUSDT",
		Base:      "BTC",
		Quote:     "USDT",
		Settle:    "USDT",
		Type:      model.MarketTypeSwap,
		Active:    true,
		Precision: model.Precision{Amount: 3, Price: 1},
		Info:      map[string]any{"contractType": "PERPETUAL"},
	}}, nil
}

func (c *bookClient) FetchOrderBook(_ context.Context, symbol string, _ int) (*model.OrderBook, error) {
	return &model.OrderBook{
		Symbol: symbol,
		Bids:   []model.OrderBookEntry{{Price: decimal.NewFromInt(26990), Amount: decimal.NewFromInt(2)}},
		Asks:   []model.OrderBookEntry{{Price: decimal.NewFromInt(27010), Amount: decimal.NewFromInt(2)}},
	}, nil
}

func (c *bookClient) Close() error {
	c.closed = true
	return nil
}

func newPaper(t *testing.T, usdt int64, opts ...Option) (*Adapter, *bookClient) {
	t.Helper()
	client := &bookClient{Unsupported: exchange.Unsupported{Exchange: "binancefutures"}}
	live, err := exchange.NewAdapter(client, nil, nil)
	if err != nil {
		t.Fatalf("NewAdapter() error = %v", err)
	}
	orders := NewMemoryOrderManager(map[string]decimal.Decimal{"USDT": decimal.NewFromInt(usdt)})
	return New(live, orders, opts...), client
}

func TestAdapter_MarketOrderFillsAtTopOfBook(t *testing.T) {
	ex, _ := newPaper(t, 1000)
	ctx := context.Background()

	orders, err := ex.CreateOrder(ctx, model.OrderRequest{
		Symbol: "BTC/USDT",
		Type:   model.OrderTypeMarket,
		Side:   model.OrderSideBuy,
		Amount: decimal.RequireFromString("0.0105"),
	})
	if err != nil {
		t.Fatalf("CreateOrder() error = %v", err)
	}
	o := orders[0]
	if o.Status != model.OrderStatusClosed || !o.Average.Equal(decimal.NewFromInt(27010)) || !o.Filled.Equal(decimal.RequireFromString("0.01")) {
		t.Fatalf("unexpected fill %+v", o)
	}
	if o.Symbol != "BTCUSDT" {
		t.Fatalf("symbol = %s, want internal id", o.Symbol)
	}
	if !o.Cost.Equal(decimal.RequireFromString("270.1")) {
		t.Fatalf("cost = %s, want 270.1", o.Cost)
	}

	balances, err := ex.FetchBalance(ctx)
	if err != nil {
		t.Fatalf("FetchBalance() error = %v", err)
	}
	usdt := balances.GetBalance("USDT")
	if !usdt.Used.Equal(decimal.RequireFromString("270.1")) || !usdt.Free.Equal(decimal.RequireFromString("729.9")) {
		t.Fatalf("unexpected balance %+v", usdt)
	}

	closed, err := ex.FetchClosedOrders(ctx, model.HistoryQuery{Symbol: "BTCUSDT"})
	if err != nil || len(closed) != 1 {
		t.Fatalf("FetchClosedOrders() = %d, %v", len(closed), err)
	}
}

func TestAdapter_LimitOrderCancelReleasesMargin(t *testing.T) {
	ex, _ := newPaper(t, 1000, WithDefaultLeverage(decimal.NewFromInt(10)))
	ctx := context.Background()

	orders, err := ex.CreateOrder(ctx, model.OrderRequest{
		Symbol: "BTCUSDT",
		Type:   model.OrderTypeLimit,
		Side:   model.OrderSideSell,
		Amount: decimal.RequireFromString("0.1"),
		Price:  decimal.NewFromInt(30000),
		Params: model.NewExtraOrderParams().WithClientOrderID("mine"),
	})
	if err != nil {
		t.Fatalf("CreateOrder() error = %v", err)
	}
	if orders[0].Status != model.OrderStatusOpen {
		t.Fatalf("limit order should rest, got %s", orders[0].Status)
	}
	if b, _ := ex.FetchBalance(ctx); !b.GetBalance("USDT").Used.Equal(decimal.NewFromInt(300)) {
		t.Fatalf("margin not reserved: %+v", b.GetBalance("USDT"))
	}

	open, err := ex.FetchOpenOrders(ctx, "BTC/USDT")
	if err != nil || len(open) != 1 {
		t.Fatalf("FetchOpenOrders() = %d, %v", len(open), err)
	}

	canceled, err := ex.CancelOrder(ctx, "BTCUSDT", "mine")
	if err != nil {
		t.Fatalf("CancelOrder() error = %v", err)
	}
	if canceled.Status != model.OrderStatusCanceled {
		t.Fatalf("status = %s", canceled.Status)
	}
	if b, _ := ex.FetchBalance(ctx); !b.GetBalance("USDT").Free.Equal(decimal.NewFromInt(1000)) {
		t.Fatalf("margin not released: %+v", b.GetBalance("USDT"))
	}
	if _, err := ex.CancelOrder(ctx, "BTCUSDT", "mine"); err == nil {
		t.Fatalf("second cancel should fail")
	}
}

func TestAdapter_InsufficientBalance(t *testing.T) {
	ex, _ := newPaper(t, 10)
	_, err := ex.CreateOrder(context.Background(), model.OrderRequest{
		Symbol: "BTCUSDT",
		Type:   model.OrderTypeMarket,
		Side:   model.OrderSideBuy,
		Amount: decimal.NewFromInt(1),
	})
	if !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("CreateOrder() error = %v, want ErrInsufficientBalance", err)
	}
}

func TestAdapter_Leverage(t *testing.T) {
	ex, _ := newPaper(t, 1000)
	ctx := context.Background()

	lev, err := ex.FetchLeverage(ctx, "BTCUSDT")
	if err != nil || !lev.Equal(decimal.NewFromInt(1)) {
		t.Fatalf("FetchLeverage() = %s, %v; want default 1", lev, err)
	}
	if err := ex.SetLeverage(ctx, "BTCUSDT", decimal.NewFromInt(20)); err != nil {
		t.Fatalf("SetLeverage() error = %v", err)
	}
	if lev, _ := ex.FetchLeverage(ctx, "BTC/USDT"); !lev.Equal(decimal.NewFromInt(20)) {
		t.Fatalf("FetchLeverage() = %s, want 20", lev)
	}
	if err := ex.SetMarginMode(ctx, "BTCUSDT", model.MarginModeIsolated); err != nil {
		t.Fatalf("SetMarginMode() error = %v", err)
	}
	if mode, _ := ex.FetchMarginMode(ctx, "BTCUSDT"); mode != model.MarginModeIsolated {
		t.Fatalf("FetchMarginMode() = %s", mode)
	}
	if _, err := ex.FetchLeverage(ctx, "DOGEUSDT"); !errors.Is(err, errs.ErrMarketNotFound) {
		t.Fatalf("unknown market error = %v", err)
	}
}

func TestAdapter_NotImplemented(t *testing.T) {
	ex, _ := newPaper(t, 1000)
	ctx := context.Background()
	calls := map[string]func() error{
		"FetchPositions": func() error { _, err := ex.FetchPositions(ctx, ""); return err },
		"FetchDeposits":  func() error { _, err := ex.FetchDeposits(ctx, model.HistoryQuery{}); return err },
		"FetchWithdrawals": func() error {
			_, err := ex.FetchWithdrawals(ctx, model.HistoryQuery{})
			return err
		},
		"Withdraw": func() error { _, err := ex.Withdraw(ctx, model.WithdrawRequest{}); return err },
		"Transfer": func() error {
			_, err := ex.Transfer(ctx, "USDT", decimal.NewFromInt(1), model.WalletSpot, model.WalletFutures)
			return err
		},
		"FetchIncome":       func() error { _, err := ex.FetchIncome(ctx, model.HistoryQuery{}); return err },
		"FetchForcedOrders": func() error { _, err := ex.FetchForcedOrders(ctx, model.HistoryQuery{}); return err },
	}
	for name, call := range calls {
		if err := call(); !errors.Is(err, errs.ErrNotImplemented) {
			t.Errorf("%s error = %v, want ErrNotImplemented", name, err)
		}
	}
}

func TestAdapter_CloseReleasesRealExchange(t *testing.T) {
	ex, client := newPaper(t, 1000)
	if err := ex.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if !client.closed {
		t.Fatalf("protocol client was not closed")
	}
}

type inverseBookClient struct {
	exchange.Unsupported
}

func (c *inverseBookClient) FetchMarkets(context.Context) ([]model.RawMarket, error) {
	return []model.RawMarket{{
		ID:        "XBTUSD",
		Base:      "XBT",
		Quote:     "USD",
		Settle:    "XBT",
		Type:      model.MarketTypeSwap,
		Active:    true,
		Precision: model.Precision{Amount: 0, Price: 1},
		Info: map[string]any{
			"typ":           "FFWCSX",
			"settlCurrency": "XBt",
			"isInverse":     true,
			"multiplier":    float64(-100000000),
		},
	}}, nil
}

func (c *inverseBookClient) FetchOrderBook(_ context.Context, symbol string, _ int) (*model.OrderBook, error) {
	return &model.OrderBook{
		Symbol: symbol,
		Bids:   []model.OrderBookEntry{{Price: decimal.NewFromInt(24990), Amount: decimal.NewFromInt(1000)}},
		Asks:   []model.OrderBookEntry{{Price: decimal.NewFromInt(25000), Amount: decimal.NewFromInt(1000)}},
	}, nil
}

func TestAdapter_InverseMarketOrderCostInSettleCurrency(t *testing.T) {
	client := &inverseBookClient{Unsupported: exchange.Unsupported{Exchange: "bitmex"}}
	live, err := exchange.NewAdapter(client, nil, nil)
	if err != nil {
		t.Fatalf("NewAdapter() error = %v", err)
	}
	ex := New(live, NewMemoryOrderManager(map[string]decimal.Decimal{"BTC": decimal.NewFromInt(1)}))
	ctx := context.Background()

	orders, err := ex.CreateOrder(ctx, model.OrderRequest{
		Symbol: "BTCUSD",
		Type:   model.OrderTypeMarket,
		Side:   model.OrderSideBuy,
		Amount: decimal.NewFromInt(100),
	})
	if err != nil {
		t.Fatalf("CreateOrder() error = %v", err)
	}
	// 100 张 / 25000 = 0.004 BTC
	want := decimal.RequireFromString("0.004")
	if !orders[0].Cost.Equal(want) {
		t.Fatalf("cost = %s, want %s", orders[0].Cost, want)
	}
	balances, err := ex.FetchBalance(ctx)
	if err != nil {
		t.Fatalf("FetchBalance() error = %v", err)
	}
	if btc := balances.GetBalance("BTC"); !btc.Used.Equal(want) || !btc.Free.Equal(decimal.RequireFromString("0.996")) {
		t.Fatalf("unexpected balance %+v", btc)
	}
}

func TestMemoryOrderManager_ClosedOrdersNewestFirst(t *testing.T) {
	m := NewMemoryOrderManager(nil)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	m.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := m.Place(ctx, Placement{
			Request:   model.OrderRequest{Symbol: "BTCUSDT", Type: model.OrderTypeMarket, Side: model.OrderSideBuy, Amount: decimal.NewFromInt(1)},
			FillPrice: decimal.NewFromInt(int64(100 + i)),
		})
		if err != nil {
			t.Fatalf("Place() error = %v", err)
		}
	}
	orders, err := m.ClosedOrders(ctx, model.HistoryQuery{Limit: 2, Since: base.Add(2 * time.Minute)})
	if err != nil {
		t.Fatalf("ClosedOrders() error = %v", err)
	}
	if len(orders) != 2 || !orders[0].Average.Equal(decimal.NewFromInt(102)) || !orders[1].Average.Equal(decimal.NewFromInt(101)) {
		t.Fatalf("unexpected order sequence %+v", orders)
	}
}
