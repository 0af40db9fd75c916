package types

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ExDecimal 支持空字符串的 decimal.Decimal 类型
// 用于 JSON 反序列化时处理空字符串、null 值以及数字/字符串两种写法
type ExDecimal struct {
	decimal.Decimal
}

// NewExDecimal 从 decimal.Decimal 构造
func NewExDecimal(d decimal.Decimal) ExDecimal {
	return ExDecimal{Decimal: d}
}

// UnmarshalJSON 自定义 JSON 反序列化，支持空字符串
func (d *ExDecimal) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(strings.Trim(string(data), `"`))
	if s == "" || s == "null" {
		d.Decimal = decimal.Zero
		return nil
	}
	return d.Decimal.UnmarshalJSON(data)
}

// PositiveOr 值大于 0 时返回自身，否则返回 fallback
func (d ExDecimal) PositiveOr(fallback decimal.Decimal) decimal.Decimal {
	if d.Decimal.IsPositive() {
		return d.Decimal
	}
	return fallback
}
