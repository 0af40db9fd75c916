package paper

import (
	"context"
	"fmt"
	"sync"

	"github.com/lemconn/exbridge/contract"
	"github.com/lemconn/exbridge/errs"
	"github.com/lemconn/exbridge/exchange"
	"github.com/lemconn/exbridge/logger"
	"github.com/lemconn/exbridge/market"
	"github.com/lemconn/exbridge/model"
	"github.com/shopspring/decimal"
)

const paperName = "paper"

// DefaultLeverage 未设置时的模拟杠杆
var DefaultLeverage = decimal.NewFromInt(1)

// Adapter 模拟盘：行情与市场元数据来自真实交易所，订单与余额由 OrderManager 模拟
type Adapter struct {
	real   exchange.Exchange
	orders OrderManager
	log    *logger.Entry

	defaultLeverage decimal.Decimal

	mu       sync.RWMutex
	leverage map[string]decimal.Decimal
	margin   map[string]model.MarginMode
}

var _ exchange.Exchange = (*Adapter)(nil)

// Option 模拟盘选项
type Option func(*Adapter)

// WithDefaultLeverage 设置默认杠杆
func WithDefaultLeverage(leverage decimal.Decimal) Option {
	return func(a *Adapter) {
		if leverage.IsPositive() {
			a.defaultLeverage = leverage
		}
	}
}

// New 包装真实交易所
func New(ex exchange.Exchange, orders OrderManager, opts ...Option) *Adapter {
	a := &Adapter{
		real:            ex,
		orders:          orders,
		defaultLeverage: DefaultLeverage,
		leverage:        make(map[string]decimal.Decimal),
		margin:          make(map[string]model.MarginMode),
		log:             logger.GetLogger().WithComponent("paper").WithFields(logger.Fields{"exchange": ex.Name()}),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Adapter) Name() string { return a.real.Name() }

func (a *Adapter) LoadMarkets(ctx context.Context, force bool) ([]model.Market, error) {
	return a.real.LoadMarkets(ctx, force)
}

func (a *Adapter) LoadIndex(ctx context.Context, force bool) (*market.Index, error) {
	return a.real.LoadIndex(ctx, force)
}

func (a *Adapter) ToNative(ctx context.Context, symbol string) (string, error) {
	return a.real.ToNative(ctx, symbol)
}

func (a *Adapter) FromNative(ctx context.Context, nativeSymbol string) (string, error) {
	return a.real.FromNative(ctx, nativeSymbol)
}

func (a *Adapter) Market(ctx context.Context, symbol string) (model.Market, error) {
	return a.real.Market(ctx, symbol)
}

func (a *Adapter) Handler() contract.Handler { return a.real.Handler() }

func (a *Adapter) AmountToPrecision(ctx context.Context, symbol string, amount decimal.Decimal) (decimal.Decimal, error) {
	return a.real.AmountToPrecision(ctx, symbol, amount)
}

func (a *Adapter) PriceToPrecision(ctx context.Context, symbol string, price decimal.Decimal) (decimal.Decimal, error) {
	return a.real.PriceToPrecision(ctx, symbol, price)
}

func (a *Adapter) FetchOrderBook(ctx context.Context, symbol string, limit int) (*model.OrderBook, error) {
	return a.real.FetchOrderBook(ctx, symbol, limit)
}

// CreateOrder 模拟下单：市价单按盘口最优价立即成交，其余挂单
func (a *Adapter) CreateOrder(ctx context.Context, req model.OrderRequest) (model.Orders, error) {
	m, err := a.real.Market(ctx, req.Symbol)
	if err != nil {
		return nil, err
	}
	amount := req.Amount.Truncate(m.Precision.Amount)
	if !amount.IsPositive() {
		return nil, fmt.Errorf("order amount %s rounds to zero for %s", req.Amount, m.InternalID)
	}

	placement := Placement{Request: req}
	placement.Request.Symbol = m.InternalID
	placement.Request.Amount = amount

	price := req.Price.Round(m.Precision.Price)
	if req.Type.IsMarket() {
		if price, err = a.bestPrice(ctx, m.InternalID, req.Side); err != nil {
			return nil, err
		}
		placement.FillPrice = price
		placement.Request.Price = decimal.Zero
	} else {
		if !price.IsPositive() {
			return nil, fmt.Errorf("limit order requires price")
		}
		placement.Request.Price = price
	}

	handler := a.real.Handler()
	leverage, err := a.FetchLeverage(ctx, m.InternalID)
	if err != nil {
		return nil, err
	}
	placement.Cost = handler.OrderCost(m, amount, price)
	placement.Margin = handler.Margin(placement.Cost, leverage)
	placement.Currency = marginCurrency(m)

	order, err := a.orders.Place(ctx, placement)
	if err != nil {
		return nil, err
	}
	a.log.WithFields(logger.Fields{
		"symbol": m.InternalID,
		"side":   string(req.Side),
		"amount": amount.String(),
		"status": string(order.Status),
	}).Debug("paper order placed")
	return model.Orders{order}, nil
}

func (a *Adapter) bestPrice(ctx context.Context, symbol string, side model.OrderSide) (decimal.Decimal, error) {
	book, err := a.real.FetchOrderBook(ctx, symbol, 5)
	if err != nil {
		return decimal.Zero, err
	}
	best, ok := book.Best(side)
	if !ok {
		return decimal.Zero, fmt.Errorf("no liquidity to fill %s %s", side, symbol)
	}
	return best.Price, nil
}

// marginCurrency 保证金币种：结算币，未知时线性用计价币、反向用基础币
func marginCurrency(m model.Market) string {
	if m.Settle != "" {
		return m.Settle
	}
	if m.IsInverse {
		return m.Base
	}
	return m.Quote
}

// internal 统一为内部交易对，空表示全部
func (a *Adapter) internal(ctx context.Context, symbol string) (string, error) {
	if symbol == "" {
		return "", nil
	}
	m, err := a.real.Market(ctx, symbol)
	if err != nil {
		return "", err
	}
	return m.InternalID, nil
}

func (a *Adapter) CancelOrder(ctx context.Context, symbol, orderID string) (*model.Order, error) {
	id, err := a.internal(ctx, symbol)
	if err != nil {
		return nil, err
	}
	return a.orders.Cancel(ctx, id, orderID)
}

func (a *Adapter) FetchOrder(ctx context.Context, symbol, orderID string) (*model.Order, error) {
	id, err := a.internal(ctx, symbol)
	if err != nil {
		return nil, err
	}
	return a.orders.Order(ctx, id, orderID)
}

func (a *Adapter) FetchOpenOrders(ctx context.Context, symbol string) (model.Orders, error) {
	id, err := a.internal(ctx, symbol)
	if err != nil {
		return nil, err
	}
	return a.orders.OpenOrders(ctx, id)
}

func (a *Adapter) FetchClosedOrders(ctx context.Context, q model.HistoryQuery) (model.Orders, error) {
	id, err := a.internal(ctx, q.Symbol)
	if err != nil {
		return nil, err
	}
	q.Symbol = id
	return a.orders.ClosedOrders(ctx, q)
}

func (a *Adapter) FetchBalance(ctx context.Context) (model.Balances, error) {
	return a.orders.Balances(ctx)
}

func (a *Adapter) FetchPositions(context.Context, string) (model.Positions, error) {
	return nil, errs.NotImplemented(paperName, "FetchPositions")
}

func (a *Adapter) FetchDeposits(context.Context, model.HistoryQuery) ([]model.Deposit, error) {
	return nil, errs.NotImplemented(paperName, "FetchDeposits")
}

func (a *Adapter) FetchWithdrawals(context.Context, model.HistoryQuery) ([]model.Withdrawal, error) {
	return nil, errs.NotImplemented(paperName, "FetchWithdrawals")
}

func (a *Adapter) Withdraw(context.Context, model.WithdrawRequest) (*model.Withdrawal, error) {
	return nil, errs.NotImplemented(paperName, "Withdraw")
}

func (a *Adapter) Transfer(context.Context, string, decimal.Decimal, model.WalletType, model.WalletType) (*model.Transfer, error) {
	return nil, errs.NotImplemented(paperName, "Transfer")
}

func (a *Adapter) FetchIncome(context.Context, model.HistoryQuery) ([]model.Income, error) {
	return nil, errs.NotImplemented(paperName, "FetchIncome")
}

func (a *Adapter) FetchForcedOrders(context.Context, model.HistoryQuery) ([]model.ForcedOrder, error) {
	return nil, errs.NotImplemented(paperName, "FetchForcedOrders")
}

// FetchLeverage 返回记录的杠杆，未设置时为默认值
func (a *Adapter) FetchLeverage(ctx context.Context, symbol string) (decimal.Decimal, error) {
	m, err := a.real.Market(ctx, symbol)
	if err != nil {
		return a.defaultLeverage, err
	}
	a.mu.RLock()
	defer a.mu.RUnlock()
	if lev, ok := a.leverage[m.InternalID]; ok {
		return lev, nil
	}
	return a.defaultLeverage, nil
}

// SetLeverage 只在内存中记录，超过市场最大杠杆时拒绝
func (a *Adapter) SetLeverage(ctx context.Context, symbol string, leverage decimal.Decimal) error {
	m, err := a.real.Market(ctx, symbol)
	if err != nil {
		return err
	}
	if !leverage.IsPositive() {
		return fmt.Errorf("leverage must be positive, got %s", leverage)
	}
	if m.MaxLeverage.IsPositive() && leverage.GreaterThan(m.MaxLeverage) {
		return fmt.Errorf("leverage %s exceeds max %s for %s", leverage, m.MaxLeverage, m.InternalID)
	}
	a.mu.Lock()
	a.leverage[m.InternalID] = leverage
	a.mu.Unlock()
	return nil
}

// FetchMarginMode 默认全仓
func (a *Adapter) FetchMarginMode(ctx context.Context, symbol string) (model.MarginMode, error) {
	m, err := a.real.Market(ctx, symbol)
	if err != nil {
		return "", err
	}
	a.mu.RLock()
	defer a.mu.RUnlock()
	if mode, ok := a.margin[m.InternalID]; ok {
		return mode, nil
	}
	return model.MarginModeCross, nil
}

// SetMarginMode 只在内存中记录
func (a *Adapter) SetMarginMode(ctx context.Context, symbol string, mode model.MarginMode) error {
	m, err := a.real.Market(ctx, symbol)
	if err != nil {
		return err
	}
	if mode != model.MarginModeIsolated && mode != model.MarginModeCross {
		return fmt.Errorf("unknown margin mode %q", mode)
	}
	a.mu.Lock()
	a.margin[m.InternalID] = mode
	a.mu.Unlock()
	return nil
}

// Close 释放真实交易所
func (a *Adapter) Close() error {
	return a.real.Close()
}
