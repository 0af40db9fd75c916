package common

import (
	"strings"
)

// InternalSymbol 将用户输入的交易对统一为内部格式
//
// BTC/USDT、BTC-USDT、btc_usdt、BTC/USDT:USDT -> BTCUSDT
func InternalSymbol(symbol string) string {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	if i := strings.Index(s, ":"); i >= 0 {
		s = s[:i]
	}
	return strings.NewReplacer("/", "", "-", "", "_", "").Replace(s)
}

// JoinSymbol 按交易所分隔符拼接交易对 (BTC, USDT, "_" -> BTC_USDT)
func JoinSymbol(base, quote, sep string) string {
	return strings.ToUpper(base) + sep + strings.ToUpper(quote)
}
