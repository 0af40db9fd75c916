package model

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// MarketType 市场类型
type MarketType string

const (
	// MarketTypeSpot 现货市场
	MarketTypeSpot MarketType = "spot"
	// MarketTypeFuture 交割合约市场
	MarketTypeFuture MarketType = "future"
	// MarketTypeSwap 永续合约市场
	MarketTypeSwap MarketType = "swap"
)

// ContractKind 合约计价方式
type ContractKind string

const (
	// ContractLinear 线性合约：成本 = 数量 × 价格
	ContractLinear ContractKind = "linear"
	// ContractInverse 反向合约：成本 = 价格^-1 × 数量 × 乘数
	ContractInverse ContractKind = "inverse"
	// ContractQuanto 双币种合约：成本 = 价格 × 数量 × 乘数
	ContractQuanto ContractKind = "quanto"
)

// Exponent 价格在仓位价值计算中的幂次：反向合约为 -1，其余为 1
func (k ContractKind) Exponent() int32 {
	if k == ContractInverse {
		return -1
	}
	return 1
}

// MinMax 区间限制，零值表示不限制
type MinMax struct {
	Min decimal.Decimal `json:"min"`
	Max decimal.Decimal `json:"max"`
}

// Limits 市场下单限制
type Limits struct {
	Amount MinMax `json:"amount"`
	Price  MinMax `json:"price"`
	Cost   MinMax `json:"cost"`
}

// Precision 精度（小数位数）
type Precision struct {
	Amount int32 `json:"amount"`
	Price  int32 `json:"price"`
}

// Market 市场信息，一个 (交易所, 原生交易对) 对应一个
//
// 构建后不再修改；刷新时整体替换。
type Market struct {
	// InternalID 平台内部统一交易对，如 "BTCUSDT"
	InternalID string `json:"internal_id"`
	// NativeSymbol 交易所原生交易对，如 "BTCUSDT"、"XBTUSD"
	NativeSymbol string `json:"native_symbol"`
	// Base 基础货币（平台统一命名）
	Base string `json:"base"`
	// Quote 计价货币（平台统一命名）
	Quote string `json:"quote"`
	// BaseID 交易所原始基础货币代码
	BaseID string `json:"base_id"`
	// QuoteID 交易所原始计价货币代码
	QuoteID string `json:"quote_id"`
	// Settle 结算货币
	Settle string `json:"settle,omitempty"`
	// Type 市场类型
	Type MarketType `json:"type"`
	// Precision 精度信息
	Precision Precision `json:"precision"`
	// Limits 限制信息
	Limits Limits `json:"limits"`
	// Multiplier 合约乘数（每单位价格的合约价值），默认 1
	Multiplier decimal.Decimal `json:"multiplier"`
	// IsInverse 是否为反向合约
	IsInverse bool `json:"is_inverse"`
	// IsQuanto 是否为双币种合约
	IsQuanto bool `json:"is_quanto"`
	// MaxLeverage 最大杠杆，0 表示未知
	MaxLeverage decimal.Decimal `json:"max_leverage"`
	// Active 是否可交易
	Active bool `json:"active"`
	// Info 交易所原始信息
	Info map[string]any `json:"info,omitempty"`
}

// Kind 返回合约计价方式
func (m Market) Kind() ContractKind {
	switch {
	case m.IsInverse:
		return ContractInverse
	case m.IsQuanto:
		return ContractQuanto
	default:
		return ContractLinear
	}
}

// ContractMultiplier 返回乘数，未设置时为 1
func (m Market) ContractMultiplier() decimal.Decimal {
	if m.Multiplier.IsZero() {
		return decimal.NewFromInt(1)
	}
	return m.Multiplier
}

// Validate 检查市场元数据的内部一致性
func (m Market) Validate() error {
	if m.InternalID == "" || m.NativeSymbol == "" {
		return fmt.Errorf("market requires both internal id and native symbol: %q/%q", m.InternalID, m.NativeSymbol)
	}
	if m.IsInverse && m.IsQuanto {
		return fmt.Errorf("market %s cannot be both inverse and quanto", m.NativeSymbol)
	}
	if m.Multiplier.IsNegative() {
		return fmt.Errorf("market %s has negative multiplier %s", m.NativeSymbol, m.Multiplier)
	}
	return nil
}

// RawMarket 协议客户端返回的原始市场记录
type RawMarket struct {
	ID        string         `json:"id"`
	Symbol    string         `json:"symbol"`
	Base      string         `json:"base"`
	Quote     string         `json:"quote"`
	BaseID    string         `json:"base_id"`
	QuoteID   string         `json:"quote_id"`
	Settle    string         `json:"settle,omitempty"`
	Type      MarketType     `json:"type"`
	Precision Precision      `json:"precision"`
	Limits    Limits         `json:"limits"`
	Active    bool           `json:"active"`
	Info      map[string]any `json:"info,omitempty"`
}

// Markets 市场列表
type Markets []Market
