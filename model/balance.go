package model

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Balance 单个币种余额，Currency 为平台统一资产代码（BitMEX 的 XBT 记为 BTC）
type Balance struct {
	Currency string          `json:"currency"`
	Free     decimal.Decimal `json:"free"`
	Used     decimal.Decimal `json:"used"`
	Total    decimal.Decimal `json:"total"`
}

// Balances 币种 -> 余额
type Balances map[string]*Balance

// GetBalance 按币种查找（不区分大小写），不存在时返回零余额
func (b Balances) GetBalance(currency string) *Balance {
	if balance, ok := b[currency]; ok {
		return balance
	}
	if balance, ok := b[strings.ToUpper(currency)]; ok {
		return balance
	}
	return &Balance{Currency: strings.ToUpper(currency)}
}
