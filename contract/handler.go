package contract

import (
	"strings"

	"github.com/lemconn/exbridge/model"
	"github.com/shopspring/decimal"
)

// Handler 按合约计价方式计算仓位价值、数量、价格与盈亏
//
// 所有方法都是 (Market, 输入) 的纯函数。
type Handler interface {
	// Name 计算方式名称：linear 或 inverse
	Name() string
	// PositionSize 仓位价值
	PositionSize(m model.Market, amount, price decimal.Decimal) decimal.Decimal
	// AmountFromPositionSize 由仓位价值反推数量
	AmountFromPositionSize(m model.Market, positionSize, price decimal.Decimal) decimal.Decimal
	// PriceFromCostAmount 由成本与数量反推价格
	PriceFromCostAmount(m model.Market, cost, amount decimal.Decimal) decimal.Decimal
	// GrossProfit 已平仓部分的毛利润
	GrossProfit(m model.Market, isShort bool, entryAvgPrice, exitAvgPrice, entryQty, exitQty decimal.Decimal) decimal.Decimal
	// CurrentGrossProfit 按当前价计算剩余仓位的浮动毛利润
	CurrentGrossProfit(m model.Market, isShort bool, entryPrice, currentPrice, remainingQty decimal.Decimal) decimal.Decimal
	// RealInvestment 实际投入（未计杠杆）
	RealInvestment(m model.Market, amount, price decimal.Decimal) decimal.Decimal
	// OrderCost 下单成本，等于仓位价值
	OrderCost(m model.Market, amount, price decimal.Decimal) decimal.Decimal
	// Margin 仓位所需保证金
	Margin(positionSize, leverage decimal.Decimal) decimal.Decimal
	// UnrealizedProfitPercent 浮动盈亏占保证金的百分比
	UnrealizedProfitPercent(m model.Market, isShort bool, entryPrice, currentPrice, qty, leverage decimal.Decimal) decimal.Decimal
	// TradeCommission 手续费换算为计价资产
	TradeCommission(commissionAsset string, commission, price decimal.Decimal, quoteAsset string) decimal.Decimal
	// MaxAmountsForMarketOrder 按交易所单笔上限拆分市价单数量
	MaxAmountsForMarketOrder(m model.Market, totalAmount decimal.Decimal) []decimal.Decimal
	// MarketLimits 下单限制
	MarketLimits(m model.Market) model.Limits
}

// Option 计算器选项
type Option func(*base)

// WithMaxMarketOrderAmount 设置市价单单笔上限，优先于市场自身的数量上限
func WithMaxMarketOrderAmount(max decimal.Decimal) Option {
	return func(b *base) {
		b.maxMarketOrder = max
	}
}

// ForExchange 按交易所能力选择计算器：存在反向合约时使用 inverse，否则 linear
func ForExchange(caps model.Capabilities, opts ...Option) Handler {
	if caps.HasInverseContracts {
		return NewInverse(opts...)
	}
	return NewLinear(opts...)
}

var one = decimal.NewFromInt(1)

// base 两种计算方式共有的部分
type base struct {
	maxMarketOrder decimal.Decimal
}

func newBase(opts []Option) base {
	var b base
	for _, opt := range opts {
		opt(&b)
	}
	return b
}

func (b base) Margin(positionSize, leverage decimal.Decimal) decimal.Decimal {
	if !leverage.IsPositive() {
		return positionSize
	}
	return positionSize.Div(leverage)
}

func (b base) TradeCommission(commissionAsset string, commission, price decimal.Decimal, quoteAsset string) decimal.Decimal {
	if strings.EqualFold(commissionAsset, quoteAsset) {
		return commission
	}
	return commission.Mul(price)
}

func (b base) MaxAmountsForMarketOrder(m model.Market, totalAmount decimal.Decimal) []decimal.Decimal {
	max := b.maxMarketOrder
	if !max.IsPositive() {
		max = m.Limits.Amount.Max
	}
	if !max.IsPositive() || totalAmount.LessThanOrEqual(max) {
		return []decimal.Decimal{totalAmount}
	}
	chunks := make([]decimal.Decimal, 0, totalAmount.Div(max).Ceil().IntPart())
	remaining := totalAmount
	for remaining.GreaterThan(max) {
		chunks = append(chunks, max)
		remaining = remaining.Sub(max)
	}
	if remaining.IsPositive() {
		chunks = append(chunks, remaining)
	}
	return chunks
}

func percentOf(profit, investment decimal.Decimal) decimal.Decimal {
	if investment.IsZero() {
		return decimal.Zero
	}
	return profit.Div(investment).Mul(decimal.NewFromInt(100))
}
