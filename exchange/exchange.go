package exchange

import (
	"context"

	"github.com/lemconn/exbridge/contract"
	"github.com/lemconn/exbridge/market"
	"github.com/lemconn/exbridge/model"
	"github.com/shopspring/decimal"
)

// Exchange 统一的交易所接口，交易对均为平台内部 id
//
// 依赖网络的方法失败时返回 errs.ExchangeError；不支持的操作返回 errs.ErrNotImplemented。
type Exchange interface {
	// Name 交易所 id
	Name() string

	// ========== 市场数据 ==========

	// LoadMarkets 加载市场信息，force 时强制刷新
	LoadMarkets(ctx context.Context, force bool) ([]model.Market, error)
	// LoadIndex 加载交易对索引
	LoadIndex(ctx context.Context, force bool) (*market.Index, error)
	// ToNative 内部 id -> 原生交易对
	ToNative(ctx context.Context, symbol string) (string, error)
	// FromNative 原生交易对 -> 内部 id
	FromNative(ctx context.Context, nativeSymbol string) (string, error)
	// Market 获取单个市场信息
	Market(ctx context.Context, symbol string) (model.Market, error)
	// Handler 合约计算器
	Handler() contract.Handler
	// AmountToPrecision 按市场精度截断数量
	AmountToPrecision(ctx context.Context, symbol string, amount decimal.Decimal) (decimal.Decimal, error)
	// PriceToPrecision 按市场精度舍入价格
	PriceToPrecision(ctx context.Context, symbol string, price decimal.Decimal) (decimal.Decimal, error)
	// FetchOrderBook 获取订单簿
	FetchOrderBook(ctx context.Context, symbol string, limit int) (*model.OrderBook, error)

	// ========== 订单操作 ==========

	// CreateOrder 创建订单；超过单笔上限的市价单拆成多笔，返回已提交的全部订单
	CreateOrder(ctx context.Context, req model.OrderRequest) (model.Orders, error)
	// CancelOrder 取消订单
	CancelOrder(ctx context.Context, symbol, orderID string) (*model.Order, error)
	// FetchOrder 查询订单
	FetchOrder(ctx context.Context, symbol, orderID string) (*model.Order, error)
	// FetchOpenOrders 查询未成交订单，symbol 为空表示全部
	FetchOpenOrders(ctx context.Context, symbol string) (model.Orders, error)
	// FetchClosedOrders 查询历史订单
	FetchClosedOrders(ctx context.Context, q model.HistoryQuery) (model.Orders, error)

	// ========== 账户信息 ==========

	// FetchBalance 获取余额
	FetchBalance(ctx context.Context) (model.Balances, error)
	// FetchPositions 获取持仓，symbol 为空表示全部
	FetchPositions(ctx context.Context, symbol string) (model.Positions, error)
	// FetchDeposits 充值记录
	FetchDeposits(ctx context.Context, q model.HistoryQuery) ([]model.Deposit, error)
	// FetchWithdrawals 提现记录
	FetchWithdrawals(ctx context.Context, q model.HistoryQuery) ([]model.Withdrawal, error)
	// Withdraw 提现
	Withdraw(ctx context.Context, req model.WithdrawRequest) (*model.Withdrawal, error)
	// Transfer 钱包间划转
	Transfer(ctx context.Context, currency string, amount decimal.Decimal, from, to model.WalletType) (*model.Transfer, error)
	// FetchIncome 合约收益流水
	FetchIncome(ctx context.Context, q model.HistoryQuery) ([]model.Income, error)
	// FetchForcedOrders 强平订单
	FetchForcedOrders(ctx context.Context, q model.HistoryQuery) ([]model.ForcedOrder, error)

	// ========== 合约设置 ==========

	// FetchLeverage 查询杠杆
	FetchLeverage(ctx context.Context, symbol string) (decimal.Decimal, error)
	// SetLeverage 设置杠杆
	SetLeverage(ctx context.Context, symbol string, leverage decimal.Decimal) error
	// FetchMarginMode 查询保证金模式
	FetchMarginMode(ctx context.Context, symbol string) (model.MarginMode, error)
	// SetMarginMode 设置保证金模式
	SetMarginMode(ctx context.Context, symbol string, mode model.MarginMode) error

	// Close 释放资源
	Close() error
}
