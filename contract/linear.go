package contract

import (
	"github.com/lemconn/exbridge/model"
	"github.com/shopspring/decimal"
)

// Linear 线性合约与现货：价值 = 数量 × 价格
type Linear struct {
	base
}

// NewLinear 创建线性计算器
func NewLinear(opts ...Option) *Linear {
	return &Linear{base: newBase(opts)}
}

func (l *Linear) Name() string { return "linear" }

func (l *Linear) PositionSize(_ model.Market, amount, price decimal.Decimal) decimal.Decimal {
	return amount.Mul(price)
}

func (l *Linear) AmountFromPositionSize(_ model.Market, positionSize, price decimal.Decimal) decimal.Decimal {
	if price.IsZero() {
		return decimal.Zero
	}
	return positionSize.Div(price)
}

func (l *Linear) PriceFromCostAmount(_ model.Market, cost, amount decimal.Decimal) decimal.Decimal {
	if amount.IsZero() {
		return decimal.Zero
	}
	return cost.Div(amount)
}

func (l *Linear) GrossProfit(m model.Market, isShort bool, entryAvgPrice, exitAvgPrice, entryQty, exitQty decimal.Decimal) decimal.Decimal {
	profit := exitAvgPrice.Mul(exitQty).Sub(entryAvgPrice.Mul(entryQty))
	if isShort {
		return profit.Neg()
	}
	return profit
}

func (l *Linear) CurrentGrossProfit(m model.Market, isShort bool, entryPrice, currentPrice, remainingQty decimal.Decimal) decimal.Decimal {
	return l.GrossProfit(m, isShort, entryPrice, currentPrice, remainingQty, remainingQty)
}

func (l *Linear) RealInvestment(m model.Market, amount, price decimal.Decimal) decimal.Decimal {
	return l.PositionSize(m, amount, price)
}

func (l *Linear) OrderCost(m model.Market, amount, price decimal.Decimal) decimal.Decimal {
	return l.PositionSize(m, amount, price)
}

func (l *Linear) UnrealizedProfitPercent(m model.Market, isShort bool, entryPrice, currentPrice, qty, leverage decimal.Decimal) decimal.Decimal {
	profit := l.CurrentGrossProfit(m, isShort, entryPrice, currentPrice, qty)
	return percentOf(profit, l.Margin(l.PositionSize(m, qty, entryPrice), leverage))
}

func (l *Linear) MarketLimits(m model.Market) model.Limits {
	return m.Limits
}
