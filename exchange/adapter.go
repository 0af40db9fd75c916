package exchange

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/lemconn/exbridge/common"
	"github.com/lemconn/exbridge/contract"
	"github.com/lemconn/exbridge/errs"
	"github.com/lemconn/exbridge/logger"
	"github.com/lemconn/exbridge/market"
	"github.com/lemconn/exbridge/model"
	"github.com/shopspring/decimal"
)

// Adapter 在协议客户端之上实现 Exchange：交易对翻译、市价单拆分、错误分类
//
// 会改变账户状态的调用失败后不自动重试。
type Adapter struct {
	client  ProtocolClient
	encoder *market.Encoder
	handler contract.Handler
	log     *logger.Entry
	closed  atomic.Bool
}

var _ Exchange = (*Adapter)(nil)

// NewAdapter 创建适配器；encoder 为 nil 时按交易所规则使用客户端作为市场数据来源
func NewAdapter(client ProtocolClient, encoder *market.Encoder, handler contract.Handler) (*Adapter, error) {
	if encoder == nil {
		profile, err := market.ProfileFor(client.Name())
		if err != nil {
			return nil, err
		}
		encoder = market.NewEncoder(profile, client)
	}
	if handler == nil {
		handler = contract.ForExchange(model.DefaultCapabilities(client.Name()))
	}
	return &Adapter{
		client:  client,
		encoder: encoder,
		handler: handler,
		log:     logger.GetLogger().WithComponent("exchange").WithFields(logger.Fields{"exchange": client.Name()}),
	}, nil
}

func (a *Adapter) Name() string { return a.client.Name() }

// Encoder 交易对编码器
func (a *Adapter) Encoder() *market.Encoder { return a.encoder }

// Client 协议客户端
func (a *Adapter) Client() ProtocolClient { return a.client }

func (a *Adapter) wrap(op string, mutating bool, err error) error {
	return errs.WrapExchange(a.Name(), op, mutating, err)
}

func (a *Adapter) LoadMarkets(ctx context.Context, force bool) ([]model.Market, error) {
	return a.encoder.LoadMarkets(ctx, force)
}

func (a *Adapter) LoadIndex(ctx context.Context, force bool) (*market.Index, error) {
	return a.encoder.LoadIndex(ctx, force)
}

func (a *Adapter) ToNative(ctx context.Context, symbol string) (string, error) {
	return a.encoder.ToNative(ctx, symbol)
}

func (a *Adapter) FromNative(ctx context.Context, nativeSymbol string) (string, error) {
	return a.encoder.FromNative(ctx, nativeSymbol, nil)
}

// resolve 内部 id -> 市场（未知交易对返回 SymbolNotFound）
func (a *Adapter) resolve(ctx context.Context, symbol string) (model.Market, error) {
	native, err := a.encoder.ToNative(ctx, symbol)
	if err != nil {
		return model.Market{}, err
	}
	return a.encoder.MarketByNative(ctx, native)
}

// nativeOrEmpty 空交易对表示全部
func (a *Adapter) nativeOrEmpty(ctx context.Context, symbol string) (string, error) {
	if symbol == "" {
		return "", nil
	}
	return a.encoder.ToNative(ctx, symbol)
}

func (a *Adapter) Market(ctx context.Context, symbol string) (model.Market, error) {
	return a.encoder.Market(ctx, symbol)
}

func (a *Adapter) Handler() contract.Handler { return a.handler }

func (a *Adapter) AmountToPrecision(ctx context.Context, symbol string, amount decimal.Decimal) (decimal.Decimal, error) {
	m, err := a.Market(ctx, symbol)
	if err != nil {
		return decimal.Zero, err
	}
	return amount.Truncate(m.Precision.Amount), nil
}

func (a *Adapter) PriceToPrecision(ctx context.Context, symbol string, price decimal.Decimal) (decimal.Decimal, error) {
	m, err := a.Market(ctx, symbol)
	if err != nil {
		return decimal.Zero, err
	}
	return price.Round(m.Precision.Price), nil
}

func (a *Adapter) FetchOrderBook(ctx context.Context, symbol string, limit int) (*model.OrderBook, error) {
	m, err := a.resolve(ctx, symbol)
	if err != nil {
		return nil, err
	}
	book, err := a.client.FetchOrderBook(ctx, m.NativeSymbol, limit)
	if err != nil {
		return nil, a.wrap("FetchOrderBook", false, err)
	}
	book.Symbol = m.InternalID
	return book, nil
}

// CreateOrder 下单
//
// 市价单按计算器给出的单笔上限拆分，逐笔提交；某一笔失败时返回已提交的订单和错误，不重试。
func (a *Adapter) CreateOrder(ctx context.Context, req model.OrderRequest) (model.Orders, error) {
	m, err := a.resolve(ctx, req.Symbol)
	if err != nil {
		return nil, err
	}
	amount := req.Amount.Truncate(m.Precision.Amount)
	if !amount.IsPositive() && req.Params.QuoteOrderQuantity == nil {
		return nil, fmt.Errorf("order amount %s rounds to zero for %s", req.Amount, m.InternalID)
	}

	chunks := []decimal.Decimal{amount}
	if req.Type.IsMarket() && req.Params.QuoteOrderQuantity == nil {
		chunks = a.handler.MaxAmountsForMarketOrder(m, amount)
	}
	clientID, hasClientID := req.Params.ClientID()

	placed := make(model.Orders, 0, len(chunks))
	for i, chunk := range chunks {
		native := req
		native.Symbol = m.NativeSymbol
		native.Amount = chunk
		if !req.Price.IsZero() {
			native.Price = req.Price.Round(m.Precision.Price)
		}
		switch {
		case hasClientID && len(chunks) == 1:
			native.Params = req.Params.WithClientOrderID(clientID)
		case hasClientID:
			native.Params = req.Params.WithClientOrderID(fmt.Sprintf("%s-%d", clientID, i+1))
		default:
			native.Params = req.Params.WithClientOrderID(common.GenerateClientOrderID(a.Name()))
		}

		order, err := a.client.CreateOrder(ctx, native)
		if err != nil {
			a.log.WithError(err).WithFields(logger.Fields{
				"symbol": m.InternalID,
				"chunk":  i + 1,
				"chunks": len(chunks),
			}).Warn("order rejected")
			return placed, a.wrap("CreateOrder", true, err)
		}
		order.Symbol = m.InternalID
		placed = append(placed, order)
	}
	return placed, nil
}

func (a *Adapter) CancelOrder(ctx context.Context, symbol, orderID string) (*model.Order, error) {
	m, err := a.resolve(ctx, symbol)
	if err != nil {
		return nil, err
	}
	order, err := a.client.CancelOrder(ctx, m.NativeSymbol, orderID)
	if err != nil {
		return nil, a.wrap("CancelOrder", true, err)
	}
	order.Symbol = m.InternalID
	return order, nil
}

func (a *Adapter) FetchOrder(ctx context.Context, symbol, orderID string) (*model.Order, error) {
	m, err := a.resolve(ctx, symbol)
	if err != nil {
		return nil, err
	}
	order, err := a.client.FetchOrder(ctx, m.NativeSymbol, orderID)
	if err != nil {
		return nil, a.wrap("FetchOrder", false, err)
	}
	order.Symbol = m.InternalID
	return order, nil
}

func (a *Adapter) FetchOpenOrders(ctx context.Context, symbol string) (model.Orders, error) {
	native, err := a.nativeOrEmpty(ctx, symbol)
	if err != nil {
		return nil, err
	}
	orders, err := a.client.FetchOpenOrders(ctx, native)
	if err != nil {
		return nil, a.wrap("FetchOpenOrders", false, err)
	}
	return orders, a.translateOrders(ctx, orders)
}

func (a *Adapter) FetchClosedOrders(ctx context.Context, q model.HistoryQuery) (model.Orders, error) {
	native, err := a.nativeOrEmpty(ctx, q.Symbol)
	if err != nil {
		return nil, err
	}
	q.Symbol = native
	orders, err := a.client.FetchClosedOrders(ctx, q)
	if err != nil {
		return nil, a.wrap("FetchClosedOrders", false, err)
	}
	return orders, a.translateOrders(ctx, orders)
}

func (a *Adapter) translateOrders(ctx context.Context, orders model.Orders) error {
	for _, o := range orders {
		id, err := a.encoder.FromNative(ctx, o.Symbol, nil)
		if err != nil {
			return err
		}
		o.Symbol = id
	}
	return nil
}

func (a *Adapter) FetchBalance(ctx context.Context) (model.Balances, error) {
	raw, err := a.client.FetchBalance(ctx)
	if err != nil {
		return nil, a.wrap("FetchBalance", false, err)
	}
	out := make(model.Balances, len(raw))
	for asset, b := range raw {
		currency := a.encoder.TranslateAsset(asset)
		b.Currency = currency
		out[currency] = b
	}
	return out, nil
}

func (a *Adapter) FetchPositions(ctx context.Context, symbol string) (model.Positions, error) {
	native, err := a.nativeOrEmpty(ctx, symbol)
	if err != nil {
		return nil, err
	}
	positions, err := a.client.FetchPositions(ctx, native)
	if err != nil {
		return nil, a.wrap("FetchPositions", false, err)
	}
	for _, p := range positions {
		id, err := a.encoder.FromNative(ctx, p.Symbol, nil)
		if err != nil {
			return nil, err
		}
		p.Symbol = id
	}
	return positions, nil
}

func (a *Adapter) nativeCurrency(q model.HistoryQuery) model.HistoryQuery {
	if q.Currency != "" {
		q.Currency = a.encoder.NativeAsset(q.Currency)
	}
	return q
}

func (a *Adapter) FetchDeposits(ctx context.Context, q model.HistoryQuery) ([]model.Deposit, error) {
	deposits, err := a.client.FetchDeposits(ctx, a.nativeCurrency(q))
	if err != nil {
		return nil, a.wrap("FetchDeposits", false, err)
	}
	for i := range deposits {
		deposits[i].Currency = a.encoder.TranslateAsset(deposits[i].Currency)
	}
	return deposits, nil
}

func (a *Adapter) FetchWithdrawals(ctx context.Context, q model.HistoryQuery) ([]model.Withdrawal, error) {
	withdrawals, err := a.client.FetchWithdrawals(ctx, a.nativeCurrency(q))
	if err != nil {
		return nil, a.wrap("FetchWithdrawals", false, err)
	}
	for i := range withdrawals {
		withdrawals[i].Currency = a.encoder.TranslateAsset(withdrawals[i].Currency)
	}
	return withdrawals, nil
}

func (a *Adapter) Withdraw(ctx context.Context, req model.WithdrawRequest) (*model.Withdrawal, error) {
	internal := req.Currency
	req.Currency = a.encoder.NativeAsset(req.Currency)
	w, err := a.client.Withdraw(ctx, req)
	if err != nil {
		return nil, a.wrap("Withdraw", true, err)
	}
	w.Currency = a.encoder.TranslateAsset(internal)
	return w, nil
}

func (a *Adapter) Transfer(ctx context.Context, currency string, amount decimal.Decimal, from, to model.WalletType) (*model.Transfer, error) {
	t, err := a.client.Transfer(ctx, a.encoder.NativeAsset(currency), amount, from, to)
	if err != nil {
		return nil, a.wrap("Transfer", true, err)
	}
	t.Currency = a.encoder.TranslateAsset(t.Currency)
	return t, nil
}

func (a *Adapter) FetchIncome(ctx context.Context, q model.HistoryQuery) ([]model.Income, error) {
	native, err := a.nativeOrEmpty(ctx, q.Symbol)
	if err != nil {
		return nil, err
	}
	q.Symbol = native
	income, err := a.client.FetchIncome(ctx, q)
	if err != nil {
		return nil, a.wrap("FetchIncome", false, err)
	}
	for i := range income {
		if income[i].Symbol != "" {
			id, err := a.encoder.FromNative(ctx, income[i].Symbol, nil)
			if err != nil {
				return nil, err
			}
			income[i].Symbol = id
		}
		income[i].Asset = a.encoder.TranslateAsset(income[i].Asset)
	}
	return income, nil
}

func (a *Adapter) FetchForcedOrders(ctx context.Context, q model.HistoryQuery) ([]model.ForcedOrder, error) {
	native, err := a.nativeOrEmpty(ctx, q.Symbol)
	if err != nil {
		return nil, err
	}
	q.Symbol = native
	orders, err := a.client.FetchForcedOrders(ctx, q)
	if err != nil {
		return nil, a.wrap("FetchForcedOrders", false, err)
	}
	for i := range orders {
		id, err := a.encoder.FromNative(ctx, orders[i].Symbol, nil)
		if err != nil {
			return nil, err
		}
		orders[i].Symbol = id
	}
	return orders, nil
}

func (a *Adapter) FetchLeverage(ctx context.Context, symbol string) (decimal.Decimal, error) {
	m, err := a.resolve(ctx, symbol)
	if err != nil {
		return decimal.Zero, err
	}
	lev, err := a.client.FetchLeverage(ctx, m.NativeSymbol)
	if err != nil {
		return decimal.Zero, a.wrap("FetchLeverage", false, err)
	}
	return lev, nil
}

// SetLeverage 设置杠杆；超过市场已知最大杠杆时在发送前拒绝
func (a *Adapter) SetLeverage(ctx context.Context, symbol string, leverage decimal.Decimal) error {
	m, err := a.resolve(ctx, symbol)
	if err != nil {
		return err
	}
	if !leverage.IsPositive() {
		return fmt.Errorf("leverage must be positive, got %s", leverage)
	}
	if m.MaxLeverage.IsPositive() && leverage.GreaterThan(m.MaxLeverage) {
		return fmt.Errorf("leverage %s exceeds %s maximum %s", leverage, m.InternalID, m.MaxLeverage)
	}
	return a.wrap("SetLeverage", true, a.client.SetLeverage(ctx, m.NativeSymbol, leverage))
}

func (a *Adapter) FetchMarginMode(ctx context.Context, symbol string) (model.MarginMode, error) {
	m, err := a.resolve(ctx, symbol)
	if err != nil {
		return "", err
	}
	mode, err := a.client.FetchMarginMode(ctx, m.NativeSymbol)
	if err != nil {
		return "", a.wrap("FetchMarginMode", false, err)
	}
	return mode, nil
}

func (a *Adapter) SetMarginMode(ctx context.Context, symbol string, mode model.MarginMode) error {
	m, err := a.resolve(ctx, symbol)
	if err != nil {
		return err
	}
	if mode != model.MarginModeIsolated && mode != model.MarginModeCross {
		return fmt.Errorf("unknown margin mode %q", mode)
	}
	return a.wrap("SetMarginMode", true, a.client.SetMarginMode(ctx, m.NativeSymbol, mode))
}

// Close 释放协议客户端，重复调用无效果；释放失败作为错误返回
func (a *Adapter) Close() error {
	if !a.closed.CompareAndSwap(false, true) {
		return nil
	}
	if err := a.client.Close(); err != nil {
		return a.wrap("Close", false, err)
	}
	return nil
}
