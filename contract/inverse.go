package contract

import (
	"github.com/lemconn/exbridge/model"
	"github.com/shopspring/decimal"
)

// Inverse 反向/双币种合约：价值 = 价格^k × 数量 × 乘数
//
// 反向合约 k = -1，双币种与该交易所的线性合约 k = +1。
type Inverse struct {
	base
}

// NewInverse 创建反向合约计算器
func NewInverse(opts ...Option) *Inverse {
	return &Inverse{base: newBase(opts)}
}

func (h *Inverse) Name() string { return "inverse" }

// pow 计算 price^k；k = -1 且价格非正时结果为无穷大，按 0 处理
func pow(price decimal.Decimal, k int32) decimal.Decimal {
	if k >= 0 {
		return price
	}
	if !price.IsPositive() {
		return decimal.Zero
	}
	return one.Div(price)
}

func (h *Inverse) PositionSize(m model.Market, amount, price decimal.Decimal) decimal.Decimal {
	if m.Kind().Exponent() < 0 {
		if !price.IsPositive() {
			return decimal.Zero
		}
		return amount.Mul(m.ContractMultiplier()).Div(price)
	}
	return price.Mul(amount).Mul(m.ContractMultiplier())
}

func (h *Inverse) AmountFromPositionSize(m model.Market, positionSize, price decimal.Decimal) decimal.Decimal {
	mult := m.ContractMultiplier()
	if m.Kind().Exponent() < 0 {
		return positionSize.Mul(price).Div(mult)
	}
	denom := price.Mul(mult)
	if denom.IsZero() {
		return decimal.Zero
	}
	return positionSize.Div(denom)
}

func (h *Inverse) PriceFromCostAmount(m model.Market, cost, amount decimal.Decimal) decimal.Decimal {
	contracts := amount.Mul(m.ContractMultiplier())
	if m.Kind().Exponent() < 0 {
		if !cost.IsPositive() {
			return decimal.Zero
		}
		return contracts.Div(cost)
	}
	if contracts.IsZero() {
		return decimal.Zero
	}
	return cost.Div(contracts)
}

func (h *Inverse) GrossProfit(m model.Market, isShort bool, entryAvgPrice, exitAvgPrice, entryQty, exitQty decimal.Decimal) decimal.Decimal {
	k := m.Kind().Exponent()
	mult := m.ContractMultiplier()
	exitValue := pow(exitAvgPrice, k).Mul(exitQty).Mul(mult)
	entryValue := pow(entryAvgPrice, k).Mul(entryQty).Mul(mult)
	profit := exitValue.Sub(entryValue)
	if k < 0 {
		profit = profit.Neg()
	}
	if isShort {
		profit = profit.Neg()
	}
	return profit
}

func (h *Inverse) CurrentGrossProfit(m model.Market, isShort bool, entryPrice, currentPrice, remainingQty decimal.Decimal) decimal.Decimal {
	return h.GrossProfit(m, isShort, entryPrice, currentPrice, remainingQty, remainingQty)
}

func (h *Inverse) RealInvestment(m model.Market, amount, price decimal.Decimal) decimal.Decimal {
	return h.PositionSize(m, amount, price)
}

func (h *Inverse) OrderCost(m model.Market, amount, price decimal.Decimal) decimal.Decimal {
	return h.PositionSize(m, amount, price)
}

func (h *Inverse) UnrealizedProfitPercent(m model.Market, isShort bool, entryPrice, currentPrice, qty, leverage decimal.Decimal) decimal.Decimal {
	profit := h.CurrentGrossProfit(m, isShort, entryPrice, currentPrice, qty)
	return percentOf(profit, h.Margin(h.PositionSize(m, qty, entryPrice), leverage))
}

// MarketLimits 反向合约的数量与成本限制互换：BitMEX 按合约张数（即计价金额）报告成本上下限，其他交易所未验证
func (h *Inverse) MarketLimits(m model.Market) model.Limits {
	limits := m.Limits
	if m.IsInverse {
		limits.Amount, limits.Cost = limits.Cost, limits.Amount
	}
	return limits
}
