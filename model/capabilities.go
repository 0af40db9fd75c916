package model

import "strings"

// Capabilities 交易所能力，决定使用哪种合约计算、是否需要时钟偏差重试和合作方签名
type Capabilities struct {
	// HasInverseContracts 存在反向/双币种合约
	HasInverseContracts bool `mapstructure:"has_inverse_contracts" json:"has_inverse_contracts"`
	// NeedsClockSkewRetry 请求签名带时间窗口，需要准备时钟偏差的备用请求
	NeedsClockSkewRetry bool `mapstructure:"needs_clock_skew_retry" json:"needs_clock_skew_retry"`
	// PartnerSignature 需要附加合作方签名头
	PartnerSignature bool `mapstructure:"partner_signature" json:"partner_signature"`
}

var defaultCapabilities = map[string]Capabilities{
	"binance":        {NeedsClockSkewRetry: true},
	"binancefutures": {NeedsClockSkewRetry: true},
	"bitmex":         {HasInverseContracts: true},
	"bybit":          {NeedsClockSkewRetry: true},
	"okx":            {},
	"gate":           {},
}

// DefaultCapabilities 返回已知交易所的默认能力，未知交易所返回零值
func DefaultCapabilities(exchange string) Capabilities {
	return defaultCapabilities[strings.ToLower(exchange)]
}
