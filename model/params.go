package model

import "github.com/shopspring/decimal"

// ExtraOrderParams 可选下单参数
//
// 所有字段独立可空；With* 方法返回修改后的副本，原值不变。
type ExtraOrderParams struct {
	StopPrice          *decimal.Decimal
	StopLossPrice      *decimal.Decimal
	QuoteOrderQuantity *decimal.Decimal
	ReduceOnly         *bool
	TimeInForce        *TimeInForce
	PostOnly           *bool
	PositionSide       *PositionSide
	ClientOrderID      *string
}

// NewExtraOrderParams 创建空参数
func NewExtraOrderParams() ExtraOrderParams {
	return ExtraOrderParams{}
}

// WithStopPrice 设置触发价
func (p ExtraOrderParams) WithStopPrice(price decimal.Decimal) ExtraOrderParams {
	p.StopPrice = &price
	return p
}

// WithStopLossPrice 设置止损价
func (p ExtraOrderParams) WithStopLossPrice(price decimal.Decimal) ExtraOrderParams {
	p.StopLossPrice = &price
	return p
}

// WithQuoteOrderQuantity 以计价货币金额下单
func (p ExtraOrderParams) WithQuoteOrderQuantity(qty decimal.Decimal) ExtraOrderParams {
	p.QuoteOrderQuantity = &qty
	return p
}

// WithReduceOnly 设置只减仓
func (p ExtraOrderParams) WithReduceOnly(reduceOnly bool) ExtraOrderParams {
	p.ReduceOnly = &reduceOnly
	return p
}

// WithTimeInForce 设置订单有效期
func (p ExtraOrderParams) WithTimeInForce(tif TimeInForce) ExtraOrderParams {
	p.TimeInForce = &tif
	return p
}

// WithPostOnly 设置只做 Maker
func (p ExtraOrderParams) WithPostOnly(postOnly bool) ExtraOrderParams {
	p.PostOnly = &postOnly
	return p
}

// WithPositionSide 设置持仓方向（双向持仓模式）
func (p ExtraOrderParams) WithPositionSide(side PositionSide) ExtraOrderParams {
	p.PositionSide = &side
	return p
}

// WithClientOrderID 设置调用方关联 ID，交易所据此去重
func (p ExtraOrderParams) WithClientOrderID(id string) ExtraOrderParams {
	p.ClientOrderID = &id
	return p
}

// IsReduceOnly 只减仓标志，未设置时为 false
func (p ExtraOrderParams) IsReduceOnly() bool {
	return p.ReduceOnly != nil && *p.ReduceOnly
}

// IsPostOnly 只做 Maker 标志，未设置时为 false
func (p ExtraOrderParams) IsPostOnly() bool {
	return p.PostOnly != nil && *p.PostOnly
}

// ClientID 返回关联 ID 及是否设置
func (p ExtraOrderParams) ClientID() (string, bool) {
	if p.ClientOrderID == nil || *p.ClientOrderID == "" {
		return "", false
	}
	return *p.ClientOrderID, true
}
