package market

import (
	"strings"

	"github.com/lemconn/exbridge/errs"
	"github.com/lemconn/exbridge/model"
	"github.com/shopspring/decimal"
)

func init() {
	RegisterProfile(NewBinanceProfile())
	RegisterProfile(NewBinanceFuturesProfile())
	RegisterProfile(NewBitmexProfile())
	RegisterProfile(NewBybitProfile())
	RegisterProfile(NewOKXProfile())
	RegisterProfile(NewGateProfile())
}

// NewBinanceProfile Binance 现货：BTCUSDT
func NewBinanceProfile() Profile {
	return &basicProfile{
		name:  "binance",
		types: []model.MarketType{model.MarketTypeSpot},
		aliases: map[string]string{
			"BCHABCUSDT": "BCHUSDT",
			"BCHABCBTC":  "BCHBTC",
			"BCCUSDT":    "BCHUSDT",
		},
	}
}

// NewBinanceFuturesProfile Binance U 本位合约，只导入永续（contractType == PERPETUAL）
func NewBinanceFuturesProfile() Profile {
	return &basicProfile{
		name:  "binancefutures",
		types: []model.MarketType{model.MarketTypeSwap},
		filter: func(raw model.RawMarket) bool {
			return infoString(raw.Info, "contractType") == "PERPETUAL"
		},
	}
}

// NewBybitProfile Bybit USDT 永续：BTCUSDT
func NewBybitProfile() Profile {
	return &basicProfile{
		name:  "bybit",
		types: []model.MarketType{model.MarketTypeSwap},
		filter: func(raw model.RawMarket) bool {
			return infoString(raw.Info, "contractType") == "LinearPerpetual"
		},
	}
}

// NewOKXProfile OKX 线性永续：BTC-USDT-SWAP，面值取 ctVal
func NewOKXProfile() Profile {
	return &basicProfile{
		name:  "okx",
		types: []model.MarketType{model.MarketTypeSwap},
		filter: func(raw model.RawMarket) bool {
			return infoString(raw.Info, "ctType") == "linear" && strings.HasSuffix(raw.ID, "-SWAP")
		},
		multiplierKey: "ctVal",
	}
}

// NewGateProfile Gate USDT 永续：BTC_USDT，面值取 quanto_multiplier
func NewGateProfile() Profile {
	return &basicProfile{
		name:          "gate",
		types:         []model.MarketType{model.MarketTypeSwap},
		multiplierKey: "quanto_multiplier",
	}
}

// bitmexProfile BitMEX：XBT 记为 BTC，仅导入永续，区分反向/双币种/线性合约
type bitmexProfile struct {
	basicProfile
}

// bitmex 永续合约的 instrument 类型
const bitmexPerpetual = "FFWCSX"

// NewBitmexProfile BitMEX：XBTUSD <-> BTCUSD
func NewBitmexProfile() Profile {
	return &bitmexProfile{basicProfile: basicProfile{
		name:  "bitmex",
		types: []model.MarketType{model.MarketTypeSwap},
		filter: func(raw model.RawMarket) bool {
			return infoString(raw.Info, "typ") == bitmexPerpetual
		},
		assets: map[string]string{"XBT": "BTC"},
		aliases: map[string]string{
			"XBTUSD":  "BTCUSD",
			"XBTUSDT": "BTCUSDT",
		},
	}}
}

// settlement currency -> smallest units per coin
var bitmexSettleScale = map[string]int64{
	"XBT":  100000000,
	"USDT": 1000000,
}

func (p *bitmexProfile) BuildMarket(raw model.RawMarket) (model.Market, error) {
	m, err := p.basicProfile.BuildMarket(raw)
	if err != nil {
		return m, err
	}
	m.IsInverse = infoBool(raw.Info, "isInverse")
	m.IsQuanto = infoBool(raw.Info, "isQuanto")

	mult, _ := infoDecimal(raw.Info, "multiplier")
	mult = mult.Abs()
	if mult.IsZero() {
		mult = decimal.NewFromInt(1)
	}
	if pos, ok := infoDecimal(raw.Info, "underlyingToPositionMultiplier"); ok && pos.IsPositive() {
		m.Multiplier = mult.Div(pos)
	} else if scale, ok := bitmexSettleScale[strings.ToUpper(infoString(raw.Info, "settlCurrency"))]; ok {
		m.Multiplier = mult.Div(decimal.NewFromInt(scale))
	} else {
		m.Multiplier = mult
	}

	if initMargin, ok := infoDecimal(raw.Info, "initMargin"); ok && initMargin.IsPositive() {
		m.MaxLeverage = decimal.NewFromInt(1).Div(initMargin).Round(2)
	}
	if err := m.Validate(); err != nil {
		return model.Market{}, errs.InvalidMarket(err)
	}
	return m, nil
}

// PositionQuoteAsset BitMEX 所有仓位以 XBT 计价
func (p *bitmexProfile) PositionQuoteAsset(model.Market) string {
	return "XBT"
}
