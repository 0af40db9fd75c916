package bitmex

import (
	"github.com/lemconn/exbridge/types"
)

// bitmexInstrument /instrument/active 条目（只解析用到的字段，其余保留在 Info 中）
type bitmexInstrument struct {
	Symbol        string          `json:"symbol"`
	RootSymbol    string          `json:"rootSymbol"`
	Typ           string          `json:"typ"`
	State         string          `json:"state"`
	Underlying    string          `json:"underlying"`
	QuoteCurrency string          `json:"quoteCurrency"`
	SettlCurrency string          `json:"settlCurrency"`
	TickSize      types.ExDecimal `json:"tickSize"`
	LotSize       types.ExDecimal `json:"lotSize"`
	MaxOrderQty   types.ExDecimal `json:"maxOrderQty"`
	MaxPrice      types.ExDecimal `json:"maxPrice"`
}

// bitmexOrder 订单
type bitmexOrder struct {
	OrderID      string            `json:"orderID"`
	ClOrdID      string            `json:"clOrdID"`
	Symbol       string            `json:"symbol"`
	Side         string            `json:"side"`
	OrderQty     types.ExDecimal   `json:"orderQty"`
	Price        types.ExDecimal   `json:"price"`
	StopPx       types.ExDecimal   `json:"stopPx"`
	OrdType      string            `json:"ordType"`
	OrdStatus    string            `json:"ordStatus"`
	ExecInst     string            `json:"execInst"`
	CumQty       types.ExDecimal   `json:"cumQty"`
	LeavesQty    types.ExDecimal   `json:"leavesQty"`
	AvgPx        types.ExDecimal   `json:"avgPx"`
	Text         string            `json:"text"`
	Error        string            `json:"error"`
	Timestamp    types.ExTimestamp `json:"timestamp"`
	TransactTime types.ExTimestamp `json:"transactTime"`
}

// bitmexPosition 持仓，金额字段以结算币最小单位计
type bitmexPosition struct {
	Symbol           string            `json:"symbol"`
	Currency         string            `json:"currency"`
	CurrentQty       types.ExDecimal   `json:"currentQty"`
	AvgEntryPrice    types.ExDecimal   `json:"avgEntryPrice"`
	MarkPrice        types.ExDecimal   `json:"markPrice"`
	LiquidationPrice types.ExDecimal   `json:"liquidationPrice"`
	UnrealisedPnl    types.ExDecimal   `json:"unrealisedPnl"`
	Leverage         types.ExDecimal   `json:"leverage"`
	CrossMargin      bool              `json:"crossMargin"`
	PosMargin        types.ExDecimal   `json:"posMargin"`
	IsOpen           bool              `json:"isOpen"`
	Timestamp        types.ExTimestamp `json:"timestamp"`
}

// bitmexMargin /user/margin 条目
type bitmexMargin struct {
	Currency        string          `json:"currency"`
	WalletBalance   types.ExDecimal `json:"walletBalance"`
	MarginBalance   types.ExDecimal `json:"marginBalance"`
	AvailableMargin types.ExDecimal `json:"availableMargin"`
}

// bitmexLevel /orderBook/L2 条目
type bitmexLevel struct {
	Symbol    string            `json:"symbol"`
	Side      string            `json:"side"`
	Size      types.ExDecimal   `json:"size"`
	Price     types.ExDecimal   `json:"price"`
	Timestamp types.ExTimestamp `json:"timestamp"`
}
