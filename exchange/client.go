package exchange

import (
	"context"

	"github.com/lemconn/exbridge/errs"
	"github.com/lemconn/exbridge/model"
	"github.com/shopspring/decimal"
)

// ProtocolClient 交易所协议客户端，只使用原生交易对与原生资产代码
type ProtocolClient interface {
	Name() string
	FetchMarkets(ctx context.Context) ([]model.RawMarket, error)
	FetchOrderBook(ctx context.Context, nativeSymbol string, limit int) (*model.OrderBook, error)

	CreateOrder(ctx context.Context, req model.OrderRequest) (*model.Order, error)
	CancelOrder(ctx context.Context, nativeSymbol, orderID string) (*model.Order, error)
	FetchOrder(ctx context.Context, nativeSymbol, orderID string) (*model.Order, error)
	FetchOpenOrders(ctx context.Context, nativeSymbol string) (model.Orders, error)
	FetchClosedOrders(ctx context.Context, q model.HistoryQuery) (model.Orders, error)

	FetchBalance(ctx context.Context) (model.Balances, error)
	FetchPositions(ctx context.Context, nativeSymbol string) (model.Positions, error)
	FetchDeposits(ctx context.Context, q model.HistoryQuery) ([]model.Deposit, error)
	FetchWithdrawals(ctx context.Context, q model.HistoryQuery) ([]model.Withdrawal, error)
	Withdraw(ctx context.Context, req model.WithdrawRequest) (*model.Withdrawal, error)
	Transfer(ctx context.Context, currency string, amount decimal.Decimal, from, to model.WalletType) (*model.Transfer, error)
	FetchIncome(ctx context.Context, q model.HistoryQuery) ([]model.Income, error)
	FetchForcedOrders(ctx context.Context, q model.HistoryQuery) ([]model.ForcedOrder, error)

	FetchLeverage(ctx context.Context, nativeSymbol string) (decimal.Decimal, error)
	SetLeverage(ctx context.Context, nativeSymbol string, leverage decimal.Decimal) error
	FetchMarginMode(ctx context.Context, nativeSymbol string) (model.MarginMode, error)
	SetMarginMode(ctx context.Context, nativeSymbol string, mode model.MarginMode) error

	Close() error
}

// Unsupported 协议客户端的默认实现，所有操作返回 ErrNotImplemented
//
// 具体客户端嵌入它，只覆盖交易所支持的方法。
type Unsupported struct {
	Exchange string
}

func (u Unsupported) Name() string { return u.Exchange }

func (u Unsupported) FetchMarkets(context.Context) ([]model.RawMarket, error) {
	return nil, errs.NotImplemented(u.Exchange, "FetchMarkets")
}

func (u Unsupported) FetchOrderBook(context.Context, string, int) (*model.OrderBook, error) {
	return nil, errs.NotImplemented(u.Exchange, "FetchOrderBook")
}

func (u Unsupported) CreateOrder(context.Context, model.OrderRequest) (*model.Order, error) {
	return nil, errs.NotImplemented(u.Exchange, "CreateOrder")
}

func (u Unsupported) CancelOrder(context.Context, string, string) (*model.Order, error) {
	return nil, errs.NotImplemented(u.Exchange, "CancelOrder")
}

func (u Unsupported) FetchOrder(context.Context, string, string) (*model.Order, error) {
	return nil, errs.NotImplemented(u.Exchange, "FetchOrder")
}

func (u Unsupported) FetchOpenOrders(context.Context, string) (model.Orders, error) {
	return nil, errs.NotImplemented(u.Exchange, "FetchOpenOrders")
}

func (u Unsupported) FetchClosedOrders(context.Context, model.HistoryQuery) (model.Orders, error) {
	return nil, errs.NotImplemented(u.Exchange, "FetchClosedOrders")
}

func (u Unsupported) FetchBalance(context.Context) (model.Balances, error) {
	return nil, errs.NotImplemented(u.Exchange, "FetchBalance")
}

func (u Unsupported) FetchPositions(context.Context, string) (model.Positions, error) {
	return nil, errs.NotImplemented(u.Exchange, "FetchPositions")
}

func (u Unsupported) FetchDeposits(context.Context, model.HistoryQuery) ([]model.Deposit, error) {
	return nil, errs.NotImplemented(u.Exchange, "FetchDeposits")
}

func (u Unsupported) FetchWithdrawals(context.Context, model.HistoryQuery) ([]model.Withdrawal, error) {
	return nil, errs.NotImplemented(u.Exchange, "FetchWithdrawals")
}

func (u Unsupported) Withdraw(context.Context, model.WithdrawRequest) (*model.Withdrawal, error) {
	return nil, errs.NotImplemented(u.Exchange, "Withdraw")
}

func (u Unsupported) Transfer(context.Context, string, decimal.Decimal, model.WalletType, model.WalletType) (*model.Transfer, error) {
	return nil, errs.NotImplemented(u.Exchange, "Transfer")
}

func (u Unsupported) FetchIncome(context.Context, model.HistoryQuery) ([]model.Income, error) {
	return nil, errs.NotImplemented(u.Exchange, "FetchIncome")
}

func (u Unsupported) FetchForcedOrders(context.Context, model.HistoryQuery) ([]model.ForcedOrder, error) {
	return nil, errs.NotImplemented(u.Exchange, "FetchForcedOrders")
}

func (u Unsupported) FetchLeverage(context.Context, string) (decimal.Decimal, error) {
	return decimal.Zero, errs.NotImplemented(u.Exchange, "FetchLeverage")
}

func (u Unsupported) SetLeverage(context.Context, string, decimal.Decimal) error {
	return errs.NotImplemented(u.Exchange, "SetLeverage")
}

func (u Unsupported) FetchMarginMode(context.Context, string) (model.MarginMode, error) {
	return "", errs.NotImplemented(u.Exchange, "FetchMarginMode")
}

func (u Unsupported) SetMarginMode(context.Context, string, model.MarginMode) error {
	return errs.NotImplemented(u.Exchange, "SetMarginMode")
}

func (u Unsupported) Close() error { return nil }
