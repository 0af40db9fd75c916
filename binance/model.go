package binance

import (
	"encoding/json"

	"github.com/lemconn/exbridge/types"
)

// binanceFilter Binance 过滤器
type binanceFilter struct {
	FilterType  string          `json:"filterType"`
	MinQty      types.ExDecimal `json:"minQty,omitempty"`
	MaxQty      types.ExDecimal `json:"maxQty,omitempty"`
	StepSize    types.ExDecimal `json:"stepSize,omitempty"`
	MinPrice    types.ExDecimal `json:"minPrice,omitempty"`
	MaxPrice    types.ExDecimal `json:"maxPrice,omitempty"`
	TickSize    types.ExDecimal `json:"tickSize,omitempty"`
	Notional    types.ExDecimal `json:"notional,omitempty"`
	MinNotional types.ExDecimal `json:"minNotional,omitempty"`
}

// binanceExchangeInfo /fapi/v1/exchangeInfo 响应，symbols 保留原始字节用于 Info
type binanceExchangeInfo struct {
	Symbols []json.RawMessage `json:"symbols"`
}

// binancePerpSymbol 合约交易对信息
type binancePerpSymbol struct {
	Symbol            string          `json:"symbol"`
	Pair              string          `json:"pair"`
	ContractType      string          `json:"contractType"`
	BaseAsset         string          `json:"baseAsset"`
	QuoteAsset        string          `json:"quoteAsset"`
	MarginAsset       string          `json:"marginAsset"`
	Status            string          `json:"status"`
	PricePrecision    int32           `json:"pricePrecision"`
	QuantityPrecision int32           `json:"quantityPrecision"`
	Filters           []binanceFilter `json:"filters"`
}

// binanceOrder 订单响应（下单、撤单、查询共用）
type binanceOrder struct {
	OrderID       int64             `json:"orderId"`
	ClientOrderID string            `json:"clientOrderId"`
	Symbol        string            `json:"symbol"`
	Price         types.ExDecimal   `json:"price"`
	AvgPrice      types.ExDecimal   `json:"avgPrice"`
	OrigQty       types.ExDecimal   `json:"origQty"`
	ExecutedQty   types.ExDecimal   `json:"executedQty"`
	CumQuote      types.ExDecimal   `json:"cumQuote"`
	StopPrice     types.ExDecimal   `json:"stopPrice"`
	Status        string            `json:"status"`
	TimeInForce   string            `json:"timeInForce"`
	ReduceOnly    bool              `json:"reduceOnly"`
	Type          string            `json:"type"`
	Side          string            `json:"side"`
	PositionSide  string            `json:"positionSide"`
	Time          types.ExTimestamp `json:"time"`
	UpdateTime    types.ExTimestamp `json:"updateTime"`
}

// binanceBalance /fapi/v2/balance 条目
type binanceBalance struct {
	Asset              string          `json:"asset"`
	Balance            types.ExDecimal `json:"balance"`
	CrossWalletBalance types.ExDecimal `json:"crossWalletBalance"`
	AvailableBalance   types.ExDecimal `json:"availableBalance"`
}

// binancePosition /fapi/v2/positionRisk 条目
type binancePosition struct {
	Symbol           string            `json:"symbol"`
	PositionAmt      types.ExDecimal   `json:"positionAmt"`
	EntryPrice       types.ExDecimal   `json:"entryPrice"`
	MarkPrice        types.ExDecimal   `json:"markPrice"`
	UnRealizedProfit types.ExDecimal   `json:"unRealizedProfit"`
	LiquidationPrice types.ExDecimal   `json:"liquidationPrice"`
	Leverage         types.ExDecimal   `json:"leverage"`
	MarginType       string            `json:"marginType"`
	IsolatedMargin   types.ExDecimal   `json:"isolatedMargin"`
	PositionSide     string            `json:"positionSide"`
	UpdateTime       types.ExTimestamp `json:"updateTime"`
}

// binanceIncome /fapi/v1/income 条目
type binanceIncome struct {
	Symbol     string            `json:"symbol"`
	IncomeType string            `json:"incomeType"`
	Income     types.ExDecimal   `json:"income"`
	Asset      string            `json:"asset"`
	TradeID    string            `json:"tradeId"`
	Time       types.ExTimestamp `json:"time"`
}

// binanceDepth /fapi/v1/depth 响应，价格档位为 ["price","qty"]
type binanceDepth struct {
	LastUpdateID int64               `json:"lastUpdateId"`
	Time         types.ExTimestamp   `json:"T"`
	Bids         [][]types.ExDecimal `json:"bids"`
	Asks         [][]types.ExDecimal `json:"asks"`
}
