package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderBookEntry 一档价格与数量
type OrderBookEntry struct {
	Price  decimal.Decimal `json:"price"`
	Amount decimal.Decimal `json:"amount"`
}

// OrderBook 订单簿快照，Symbol 为平台内部交易对
//
// Bids 价格从高到低，Asks 价格从低到高。
type OrderBook struct {
	Symbol    string           `json:"symbol"`
	Bids      []OrderBookEntry `json:"bids"`
	Asks      []OrderBookEntry `json:"asks"`
	Timestamp time.Time        `json:"timestamp"`
}

// Best 吃单方向的最优价：买单取卖一，卖单取买一
func (b *OrderBook) Best(side OrderSide) (OrderBookEntry, bool) {
	levels := b.Asks
	if side == OrderSideSell {
		levels = b.Bids
	}
	if len(levels) == 0 {
		return OrderBookEntry{}, false
	}
	return levels[0], true
}
