package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Position 持仓信息（用于合约）
type Position struct {
	// Symbol 平台内部交易对
	Symbol string `json:"symbol"`
	// Side 持仓方向
	Side PositionSide `json:"side"`
	// Amount 持仓数量（合约张数或币数，取决于交易所）
	Amount decimal.Decimal `json:"amount"`
	// EntryPrice 开仓均价
	EntryPrice decimal.Decimal `json:"entry_price"`
	// MarkPrice 标记价格
	MarkPrice decimal.Decimal `json:"mark_price"`
	// LiquidationPrice 强平价格
	LiquidationPrice decimal.Decimal `json:"liquidation_price"`
	// UnrealizedPnl 未实现盈亏
	UnrealizedPnl decimal.Decimal `json:"unrealized_pnl"`
	// Leverage 杠杆倍数
	Leverage decimal.Decimal `json:"leverage"`
	// Margin 保证金
	Margin decimal.Decimal `json:"margin"`
	// MarginMode 保证金模式
	MarginMode MarginMode `json:"margin_mode"`
	// Timestamp 时间戳
	Timestamp time.Time `json:"timestamp"`
}

// Positions 持仓列表
type Positions []*Position

// Leverage 杠杆设置
type Leverage struct {
	Symbol   string          `json:"symbol"`
	Leverage decimal.Decimal `json:"leverage"`
}
