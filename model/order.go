package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// OrderSide 订单方向
type OrderSide string

const (
	// OrderSideBuy 买入
	OrderSideBuy OrderSide = "buy"
	// OrderSideSell 卖出
	OrderSideSell OrderSide = "sell"
)

// Upper 返回大写字符串
func (s OrderSide) Upper() string {
	return strings.ToUpper(string(s))
}

// OrderType 订单类型
type OrderType string

const (
	// OrderTypeMarket 市价单
	OrderTypeMarket OrderType = "market"
	// OrderTypeLimit 限价单
	OrderTypeLimit OrderType = "limit"
	// OrderTypeStopMarket 止损市价单
	OrderTypeStopMarket OrderType = "stop_market"
	// OrderTypeStopLimit 止损限价单
	OrderTypeStopLimit OrderType = "stop_limit"
)

// IsMarket 判断是否为市价单（含止损市价）
func (t OrderType) IsMarket() bool {
	return t == OrderTypeMarket || t == OrderTypeStopMarket
}

// OrderStatus 订单状态
type OrderStatus string

const (
	// OrderStatusOpen 未成交订单
	OrderStatusOpen OrderStatus = "open"
	// OrderStatusClosed 已成交订单
	OrderStatusClosed OrderStatus = "closed"
	// OrderStatusCanceled 已取消订单
	OrderStatusCanceled OrderStatus = "canceled"
	// OrderStatusExpired 已过期订单
	OrderStatusExpired OrderStatus = "expired"
	// OrderStatusRejected 已拒绝订单
	OrderStatusRejected OrderStatus = "rejected"
)

// TimeInForce 订单有效期
type TimeInForce string

const (
	// TimeInForceGTC 订单有效直到取消（Good Till Cancel）
	TimeInForceGTC TimeInForce = "GTC"
	// TimeInForceIOC 立即成交或取消（Immediate Or Cancel）
	TimeInForceIOC TimeInForce = "IOC"
	// TimeInForceFOK 全部成交或取消（Fill Or Kill）
	TimeInForceFOK TimeInForce = "FOK"
	// TimeInForceGTX 只做 Maker（Post Only）
	TimeInForceGTX TimeInForce = "GTX"
)

// PositionSide 持仓方向（用于合约）
type PositionSide string

const (
	// PositionSideLong 多头
	PositionSideLong PositionSide = "long"
	// PositionSideShort 空头
	PositionSideShort PositionSide = "short"
	// PositionSideBoth 单向持仓
	PositionSideBoth PositionSide = "both"
)

// MarginMode 保证金模式
type MarginMode string

const (
	// MarginModeIsolated 逐仓
	MarginModeIsolated MarginMode = "isolated"
	// MarginModeCross 全仓
	MarginModeCross MarginMode = "cross"
)

// Fee 手续费信息
type Fee struct {
	// Currency 手续费币种
	Currency string `json:"currency"`
	// Cost 手续费金额
	Cost decimal.Decimal `json:"cost"`
}

// Order 订单信息（Symbol 为平台内部交易对）
type Order struct {
	ID            string          `json:"id"`
	ClientOrderID string          `json:"client_order_id,omitempty"`
	Symbol        string          `json:"symbol"`
	Type          OrderType       `json:"type"`
	Side          OrderSide       `json:"side"`
	Amount        decimal.Decimal `json:"amount"`
	Price         decimal.Decimal `json:"price"`
	StopPrice     decimal.Decimal `json:"stop_price"`
	Filled        decimal.Decimal `json:"filled"`
	Remaining     decimal.Decimal `json:"remaining"`
	// Cost 成交金额
	Cost decimal.Decimal `json:"cost"`
	// Average 平均成交价格
	Average    decimal.Decimal `json:"average"`
	Status     OrderStatus     `json:"status"`
	ReduceOnly bool            `json:"reduce_only,omitempty"`
	Fee        *Fee            `json:"fee,omitempty"`
	Timestamp  time.Time       `json:"timestamp"`
	// Info 交易所原始信息
	Info map[string]any `json:"info,omitempty"`
}

// Orders 订单列表
type Orders []*Order

// OrderRequest 下单请求（协议客户端使用原生交易对）
type OrderRequest struct {
	Symbol string
	Type   OrderType
	Side   OrderSide
	Amount decimal.Decimal
	// Price 限价单价格，市价单为零
	Price  decimal.Decimal
	Params ExtraOrderParams
}
