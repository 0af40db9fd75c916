package bitmex

import (
	"fmt"
	"strings"

	"github.com/lemconn/exbridge/model"
	"github.com/shopspring/decimal"
)

// 结算币最小单位：XBt 为聪，USDt 为百万分之一
var currencyScales = map[string]struct {
	asset string
	scale int64
}{
	"XBT":  {asset: "XBT", scale: 100000000},
	"USDT": {asset: "USDT", scale: 1000000},
	"GWEI": {asset: "ETH", scale: 1000000000},
}

// currencyScale 原生币种代码 -> (资产代码, 换算倍数)
func currencyScale(currency string) (string, decimal.Decimal) {
	upper := strings.ToUpper(currency)
	if s, ok := currencyScales[upper]; ok {
		return s.asset, decimal.NewFromInt(s.scale)
	}
	return upper, decimal.NewFromInt(1)
}

// stepPrecision 100 -> 0, 0.5 -> 1, 0.01 -> 2
func stepPrecision(step decimal.Decimal) int32 {
	if !step.IsPositive() {
		return 0
	}
	_, frac, ok := strings.Cut(step.String(), ".")
	if !ok {
		return 0
	}
	return int32(len(strings.TrimRight(frac, "0")))
}

func toSide(side model.OrderSide) string {
	if side == model.OrderSideSell {
		return "Sell"
	}
	return "Buy"
}

func toOrdType(t model.OrderType) (string, error) {
	switch t {
	case model.OrderTypeMarket:
		return "Market", nil
	case model.OrderTypeLimit:
		return "Limit", nil
	case model.OrderTypeStopMarket:
		return "Stop", nil
	case model.OrderTypeStopLimit:
		return "StopLimit", nil
	default:
		return "", fmt.Errorf("invalid order type: %s", t)
	}
}

func fromOrdType(t string) model.OrderType {
	switch t {
	case "Market":
		return model.OrderTypeMarket
	case "Stop", "MarketIfTouched":
		return model.OrderTypeStopMarket
	case "StopLimit", "LimitIfTouched":
		return model.OrderTypeStopLimit
	default:
		return model.OrderTypeLimit
	}
}

func toTimeInForce(tif model.TimeInForce) (string, error) {
	switch tif {
	case model.TimeInForceGTC:
		return "GoodTillCancel", nil
	case model.TimeInForceIOC:
		return "ImmediateOrCancel", nil
	case model.TimeInForceFOK:
		return "FillOrKill", nil
	default:
		return "", fmt.Errorf("unsupported time in force %q", tif)
	}
}

func toOrderStatus(s string) model.OrderStatus {
	switch s {
	case "New", "PartiallyFilled", "Untriggered", "Triggered":
		return model.OrderStatusOpen
	case "Filled":
		return model.OrderStatusClosed
	case "Canceled":
		return model.OrderStatusCanceled
	case "Expired":
		return model.OrderStatusExpired
	case "Rejected":
		return model.OrderStatusRejected
	default:
		return model.OrderStatus(strings.ToLower(s))
	}
}

func toMarginMode(cross bool) model.MarginMode {
	if cross {
		return model.MarginModeCross
	}
	return model.MarginModeIsolated
}
