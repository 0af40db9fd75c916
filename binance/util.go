package binance

import (
	"fmt"
	"strings"

	"github.com/lemconn/exbridge/model"
)

// toBinanceOrderType 订单类型映射
func toBinanceOrderType(t model.OrderType) (string, error) {
	switch t {
	case model.OrderTypeMarket:
		return "MARKET", nil
	case model.OrderTypeLimit:
		return "LIMIT", nil
	case model.OrderTypeStopMarket:
		return "STOP_MARKET", nil
	case model.OrderTypeStopLimit:
		return "STOP", nil
	default:
		return "", fmt.Errorf("invalid order type: %s", t)
	}
}

func fromBinanceOrderType(t string) model.OrderType {
	switch t {
	case "MARKET":
		return model.OrderTypeMarket
	case "STOP_MARKET", "TAKE_PROFIT_MARKET", "TRAILING_STOP_MARKET":
		return model.OrderTypeStopMarket
	case "STOP", "TAKE_PROFIT":
		return model.OrderTypeStopLimit
	default:
		return model.OrderTypeLimit
	}
}

// toOrderStatus NEW/PARTIALLY_FILLED 视为未完成
func toOrderStatus(s string) model.OrderStatus {
	switch s {
	case "NEW", "PARTIALLY_FILLED":
		return model.OrderStatusOpen
	case "FILLED":
		return model.OrderStatusClosed
	case "CANCELED":
		return model.OrderStatusCanceled
	case "EXPIRED", "EXPIRED_IN_MATCH":
		return model.OrderStatusExpired
	case "REJECTED":
		return model.OrderStatusRejected
	default:
		return model.OrderStatus(strings.ToLower(s))
	}
}

func toMarginMode(s string) model.MarginMode {
	if strings.EqualFold(s, "isolated") {
		return model.MarginModeIsolated
	}
	return model.MarginModeCross
}

func toIncomeType(s string) model.IncomeType {
	switch s {
	case "REALIZED_PNL":
		return model.IncomeRealizedPnl
	case "FUNDING_FEE":
		return model.IncomeFunding
	case "COMMISSION":
		return model.IncomeCommission
	case "TRANSFER":
		return model.IncomeTransfer
	default:
		return model.IncomeOther
	}
}
