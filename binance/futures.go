package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/lemconn/exbridge/common"
	"github.com/lemconn/exbridge/model"
	"github.com/lemconn/exbridge/types"
	"github.com/shopspring/decimal"
)

// public 发送无需签名的请求
func (c *Client) public(ctx context.Context, op, path string, values *types.ExValues) ([]byte, error) {
	return c.http.Do(ctx, common.Request{
		Method: http.MethodGet,
		Path:   path,
		Query:  values.EncodeQuery(),
		Op:     op,
	})
}

// signAndRequest 统一处理签名和发送请求
// values 为已设置好的业务参数（不包含 timestamp 和 signature）
func (c *Client) signAndRequest(ctx context.Context, method, op, path string, values *types.ExValues) ([]byte, error) {
	query, headers, err := c.signer.SignRequest(values, c.apiKey, c.now())
	if err != nil {
		return nil, err
	}
	return c.http.Do(ctx, common.Request{
		Method:   method,
		Path:     path,
		Query:    query,
		Headers:  headers,
		Op:       op,
		Mutating: method != http.MethodGet,
	})
}

func (c *Client) now() time.Time {
	if c.clock != nil {
		return c.clock()
	}
	return time.Now()
}

// FetchMarkets 获取全部合约市场（含交割合约，是否导入由市场规则决定）
func (c *Client) FetchMarkets(ctx context.Context) ([]model.RawMarket, error) {
	resp, err := c.public(ctx, "FetchMarkets", "/fapi/v1/exchangeInfo", types.NewExValues())
	if err != nil {
		return nil, err
	}

	var info binanceExchangeInfo
	if err := json.Unmarshal(resp, &info); err != nil {
		return nil, fmt.Errorf("unmarshal fapi exchange info: %w", err)
	}

	markets := make([]model.RawMarket, 0, len(info.Symbols))
	for _, rawSymbol := range info.Symbols {
		var s binancePerpSymbol
		if err := json.Unmarshal(rawSymbol, &s); err != nil {
			return nil, fmt.Errorf("unmarshal fapi symbol: %w", err)
		}
		var blob map[string]any
		if err := json.Unmarshal(rawSymbol, &blob); err != nil {
			return nil, fmt.Errorf("unmarshal fapi symbol info: %w", err)
		}
		markets = append(markets, toRawMarket(s, blob))
	}
	return markets, nil
}

func toRawMarket(s binancePerpSymbol, blob map[string]any) model.RawMarket {
	settle := s.MarginAsset
	if settle == "" {
		settle = s.QuoteAsset
	}
	typ := model.MarketTypeSwap
	if s.ContractType != "PERPETUAL" {
		typ = model.MarketTypeFuture
	}

	raw := model.RawMarket{
		ID:      s.Symbol,
		Symbol:  common.JoinSymbol(s.BaseAsset, s.QuoteAsset, "/") + ":" + settle,
		Base:    s.BaseAsset,
		Quote:   s.QuoteAsset,
		BaseID:  s.BaseAsset,
		QuoteID: s.QuoteAsset,
		Settle:  settle,
		Type:    typ,
		Precision: model.Precision{
			Amount: s.QuantityPrecision,
			Price:  s.PricePrecision,
		},
		Active: s.Status == "TRADING",
		Info:   blob,
	}

	for _, filter := range s.Filters {
		switch filter.FilterType {
		case "LOT_SIZE":
			raw.Limits.Amount.Min = filter.MinQty.Decimal
			raw.Limits.Amount.Max = filter.MaxQty.Decimal
		case "MARKET_LOT_SIZE":
			// 市价单上限通常小于限价单
			if filter.MaxQty.IsPositive() && (raw.Limits.Amount.Max.IsZero() || filter.MaxQty.LessThan(raw.Limits.Amount.Max)) {
				raw.Limits.Amount.Max = filter.MaxQty.Decimal
			}
		case "PRICE_FILTER":
			raw.Limits.Price.Min = filter.MinPrice.Decimal
			raw.Limits.Price.Max = filter.MaxPrice.Decimal
			if filter.TickSize.IsPositive() {
				raw.Precision.Price = tickPrecision(filter.TickSize.Decimal)
			}
		case "MIN_NOTIONAL":
			raw.Limits.Cost.Min = filter.Notional.PositiveOr(filter.MinNotional.Decimal)
		}
	}
	return raw
}

// tickPrecision 0.10 -> 1, 0.001 -> 3, 1 -> 0
func tickPrecision(tick decimal.Decimal) int32 {
	s := tick.String()
	_, frac, ok := strings.Cut(s, ".")
	if !ok {
		return 0
	}
	return int32(len(strings.TrimRight(frac, "0")))
}

// FetchOrderBook 获取深度
func (c *Client) FetchOrderBook(ctx context.Context, symbol string, limit int) (*model.OrderBook, error) {
	values := types.NewExValues()
	values.SetQuery("symbol", symbol)
	if limit > 0 {
		values.SetQuery("limit", limit)
	}
	resp, err := c.public(ctx, "FetchOrderBook", "/fapi/v1/depth", values)
	if err != nil {
		return nil, err
	}
	var depth binanceDepth
	if err := json.Unmarshal(resp, &depth); err != nil {
		return nil, fmt.Errorf("unmarshal depth: %w", err)
	}
	return &model.OrderBook{
		Symbol:    symbol,
		Bids:      toBookEntries(depth.Bids),
		Asks:      toBookEntries(depth.Asks),
		Timestamp: depth.Time.Time,
	}, nil
}

func toBookEntries(levels [][]types.ExDecimal) []model.OrderBookEntry {
	entries := make([]model.OrderBookEntry, 0, len(levels))
	for _, level := range levels {
		if len(level) < 2 {
			continue
		}
		entries = append(entries, model.OrderBookEntry{Price: level[0].Decimal, Amount: level[1].Decimal})
	}
	return entries
}

// CreateOrder 创建订单
func (c *Client) CreateOrder(ctx context.Context, req model.OrderRequest) (*model.Order, error) {
	values, err := c.orderValues(req)
	if err != nil {
		return nil, err
	}
	resp, err := c.signAndRequest(ctx, http.MethodPost, "CreateOrder", "/fapi/v1/order", values)
	if err != nil {
		return nil, err
	}
	return decodeOrder(resp)
}

func (c *Client) orderValues(req model.OrderRequest) (*types.ExValues, error) {
	if !req.Amount.IsPositive() {
		return nil, fmt.Errorf("amount must be positive, got %s", req.Amount)
	}
	if req.Params.QuoteOrderQuantity != nil {
		return nil, fmt.Errorf("quote order quantity is not supported on %s", binanceFuturesName)
	}
	orderType, err := toBinanceOrderType(req.Type)
	if err != nil {
		return nil, err
	}

	values := types.NewExValues()
	values.SetQuery("symbol", req.Symbol)
	values.SetQuery("side", req.Side.Upper())
	values.SetQuery("type", orderType)
	values.SetQuery("quantity", req.Amount.String())

	if !req.Type.IsMarket() {
		if !req.Price.IsPositive() {
			return nil, fmt.Errorf("limit order requires price")
		}
		values.SetQuery("price", req.Price.String())
		tif := model.TimeInForceGTC
		if req.Params.TimeInForce != nil {
			tif = *req.Params.TimeInForce
		}
		if req.Params.IsPostOnly() {
			tif = model.TimeInForceGTX
		}
		values.SetQuery("timeInForce", string(tif))
	}

	stop := req.Params.StopPrice
	if stop == nil {
		stop = req.Params.StopLossPrice
	}
	if stop != nil {
		values.SetQuery("stopPrice", stop.String())
	} else if req.Type == model.OrderTypeStopMarket || req.Type == model.OrderTypeStopLimit {
		return nil, fmt.Errorf("%s order requires stop price", req.Type)
	}

	if req.Params.PositionSide != nil && *req.Params.PositionSide != model.PositionSideBoth {
		// 双向持仓模式下不能携带 reduceOnly
		values.SetQuery("positionSide", strings.ToUpper(string(*req.Params.PositionSide)))
	} else {
		values.SetQuery("positionSide", "BOTH")
		if req.Params.IsReduceOnly() {
			values.SetQuery("reduceOnly", "true")
		}
	}

	if id, ok := req.Params.ClientID(); ok {
		values.SetQuery("newClientOrderId", id)
	} else {
		values.SetQuery("newClientOrderId", common.GenerateClientOrderID(binanceFuturesName))
	}
	return values, nil
}

// CancelOrder 取消订单
func (c *Client) CancelOrder(ctx context.Context, symbol, orderID string) (*model.Order, error) {
	values, err := orderLookup(symbol, orderID)
	if err != nil {
		return nil, err
	}
	resp, err := c.signAndRequest(ctx, http.MethodDelete, "CancelOrder", "/fapi/v1/order", values)
	if err != nil {
		return nil, err
	}
	return decodeOrder(resp)
}

// FetchOrder 查询订单，orderID 非数字时按 clientOrderId 查询
func (c *Client) FetchOrder(ctx context.Context, symbol, orderID string) (*model.Order, error) {
	values, err := orderLookup(symbol, orderID)
	if err != nil {
		return nil, err
	}
	resp, err := c.signAndRequest(ctx, http.MethodGet, "FetchOrder", "/fapi/v1/order", values)
	if err != nil {
		return nil, err
	}
	return decodeOrder(resp)
}

func orderLookup(symbol, orderID string) (*types.ExValues, error) {
	if orderID == "" {
		return nil, fmt.Errorf("order id is required")
	}
	values := types.NewExValues()
	values.SetQuery("symbol", symbol)
	if _, err := strconv.ParseInt(orderID, 10, 64); err == nil {
		values.SetQuery("orderId", orderID)
	} else {
		values.SetQuery("origClientOrderId", orderID)
	}
	return values, nil
}

// FetchOpenOrders 查询当前挂单，symbol 为空时查询全部
func (c *Client) FetchOpenOrders(ctx context.Context, symbol string) (model.Orders, error) {
	values := types.NewExValues()
	if symbol != "" {
		values.SetQuery("symbol", symbol)
	}
	resp, err := c.signAndRequest(ctx, http.MethodGet, "FetchOpenOrders", "/fapi/v1/openOrders", values)
	if err != nil {
		return nil, err
	}
	return decodeOrders(resp)
}

// FetchClosedOrders 查询历史订单中已结束的部分（allOrders 要求 symbol）
func (c *Client) FetchClosedOrders(ctx context.Context, q model.HistoryQuery) (model.Orders, error) {
	if q.Symbol == "" {
		return nil, fmt.Errorf("symbol is required for closed orders")
	}
	values := historyValues(q)
	resp, err := c.signAndRequest(ctx, http.MethodGet, "FetchClosedOrders", "/fapi/v1/allOrders", values)
	if err != nil {
		return nil, err
	}
	orders, err := decodeOrders(resp)
	if err != nil {
		return nil, err
	}
	closed := orders[:0]
	for _, order := range orders {
		if order.Status != model.OrderStatusOpen {
			closed = append(closed, order)
		}
	}
	return closed, nil
}

func historyValues(q model.HistoryQuery) *types.ExValues {
	values := types.NewExValues()
	if q.Symbol != "" {
		values.SetQuery("symbol", q.Symbol)
	}
	if !q.Since.IsZero() {
		values.SetQuery("startTime", q.Since.UnixMilli())
	}
	if q.Limit > 0 {
		values.SetQuery("limit", q.Limit)
	}
	return values
}

// FetchBalance 获取合约账户余额
func (c *Client) FetchBalance(ctx context.Context) (model.Balances, error) {
	resp, err := c.signAndRequest(ctx, http.MethodGet, "FetchBalance", "/fapi/v2/balance", types.NewExValues())
	if err != nil {
		return nil, err
	}
	var items []binanceBalance
	if err := json.Unmarshal(resp, &items); err != nil {
		return nil, fmt.Errorf("unmarshal balance: %w", err)
	}
	balances := make(model.Balances, len(items))
	for _, item := range items {
		total := item.Balance.Decimal
		free := item.AvailableBalance.Decimal
		balances[item.Asset] = &model.Balance{
			Currency: item.Asset,
			Free:     free,
			Used:     total.Sub(free),
			Total:    total,
		}
	}
	return balances, nil
}

// FetchPositions 获取持仓，跳过空仓
func (c *Client) FetchPositions(ctx context.Context, symbol string) (model.Positions, error) {
	items, err := c.positionRisk(ctx, "FetchPositions", symbol)
	if err != nil {
		return nil, err
	}
	positions := make(model.Positions, 0, len(items))
	for _, item := range items {
		if item.PositionAmt.IsZero() {
			continue
		}
		side := model.PositionSideLong
		switch {
		case item.PositionSide == "SHORT":
			side = model.PositionSideShort
		case item.PositionSide == "BOTH" && item.PositionAmt.IsNegative():
			side = model.PositionSideShort
		}
		positions = append(positions, &model.Position{
			Symbol:           item.Symbol,
			Side:             side,
			Amount:           item.PositionAmt.Abs(),
			EntryPrice:       item.EntryPrice.Decimal,
			MarkPrice:        item.MarkPrice.Decimal,
			LiquidationPrice: item.LiquidationPrice.Decimal,
			UnrealizedPnl:    item.UnRealizedProfit.Decimal,
			Leverage:         item.Leverage.Decimal,
			Margin:           item.IsolatedMargin.Decimal,
			MarginMode:       toMarginMode(item.MarginType),
			Timestamp:        item.UpdateTime.Time,
		})
	}
	return positions, nil
}

func (c *Client) positionRisk(ctx context.Context, op, symbol string) ([]binancePosition, error) {
	values := types.NewExValues()
	if symbol != "" {
		values.SetQuery("symbol", symbol)
	}
	resp, err := c.signAndRequest(ctx, http.MethodGet, op, "/fapi/v2/positionRisk", values)
	if err != nil {
		return nil, err
	}
	var items []binancePosition
	if err := json.Unmarshal(resp, &items); err != nil {
		return nil, fmt.Errorf("unmarshal positions: %w", err)
	}
	return items, nil
}

// FetchLeverage 当前杠杆，取自 positionRisk
func (c *Client) FetchLeverage(ctx context.Context, symbol string) (decimal.Decimal, error) {
	items, err := c.positionRisk(ctx, "FetchLeverage", symbol)
	if err != nil {
		return decimal.Zero, err
	}
	for _, item := range items {
		if item.Symbol == symbol {
			return item.Leverage.Decimal, nil
		}
	}
	return decimal.Zero, fmt.Errorf("no position risk entry for %s", symbol)
}

// SetLeverage 设置杠杆（Binance 只接受整数）
func (c *Client) SetLeverage(ctx context.Context, symbol string, leverage decimal.Decimal) error {
	if !leverage.IsInteger() || leverage.LessThan(decimal.NewFromInt(1)) || leverage.GreaterThan(decimal.NewFromInt(125)) {
		return fmt.Errorf("leverage must be an integer between 1 and 125, got %s", leverage)
	}
	values := types.NewExValues()
	values.SetQuery("symbol", symbol)
	values.SetQuery("leverage", leverage.IntPart())
	_, err := c.signAndRequest(ctx, http.MethodPost, "SetLeverage", "/fapi/v1/leverage", values)
	return err
}

// FetchMarginMode 当前保证金模式，取自 positionRisk
func (c *Client) FetchMarginMode(ctx context.Context, symbol string) (model.MarginMode, error) {
	items, err := c.positionRisk(ctx, "FetchMarginMode", symbol)
	if err != nil {
		return "", err
	}
	for _, item := range items {
		if item.Symbol == symbol {
			return toMarginMode(item.MarginType), nil
		}
	}
	return "", fmt.Errorf("no position risk entry for %s", symbol)
}

// SetMarginMode 设置保证金类型
func (c *Client) SetMarginMode(ctx context.Context, symbol string, mode model.MarginMode) error {
	values := types.NewExValues()
	values.SetQuery("symbol", symbol)
	switch mode {
	case model.MarginModeIsolated:
		values.SetQuery("marginType", "ISOLATED")
	case model.MarginModeCross:
		values.SetQuery("marginType", "CROSSED")
	default:
		return fmt.Errorf("unsupported margin mode %q", mode)
	}
	_, err := c.signAndRequest(ctx, http.MethodPost, "SetMarginMode", "/fapi/v1/marginType", values)
	return err
}

// FetchIncome 获取收益流水
func (c *Client) FetchIncome(ctx context.Context, q model.HistoryQuery) ([]model.Income, error) {
	resp, err := c.signAndRequest(ctx, http.MethodGet, "FetchIncome", "/fapi/v1/income", historyValues(q))
	if err != nil {
		return nil, err
	}
	var items []binanceIncome
	if err := json.Unmarshal(resp, &items); err != nil {
		return nil, fmt.Errorf("unmarshal income: %w", err)
	}
	incomes := make([]model.Income, 0, len(items))
	for _, item := range items {
		incomes = append(incomes, model.Income{
			Symbol:    item.Symbol,
			Type:      toIncomeType(item.IncomeType),
			Amount:    item.Income.Decimal,
			Asset:     item.Asset,
			TradeID:   item.TradeID,
			Timestamp: item.Time.Time,
		})
	}
	return incomes, nil
}

// FetchForcedOrders 获取强平与 ADL 订单
func (c *Client) FetchForcedOrders(ctx context.Context, q model.HistoryQuery) ([]model.ForcedOrder, error) {
	resp, err := c.signAndRequest(ctx, http.MethodGet, "FetchForcedOrders", "/fapi/v1/forceOrders", historyValues(q))
	if err != nil {
		return nil, err
	}
	var items []binanceOrder
	if err := json.Unmarshal(resp, &items); err != nil {
		return nil, fmt.Errorf("unmarshal forced orders: %w", err)
	}
	forced := make([]model.ForcedOrder, 0, len(items))
	for _, item := range items {
		reason := "liquidation"
		if strings.HasPrefix(item.ClientOrderID, "adl_autoclose") {
			reason = "adl"
		}
		forced = append(forced, model.ForcedOrder{Order: *toOrder(item), Reason: reason})
	}
	return forced, nil
}

func decodeOrder(resp []byte) (*model.Order, error) {
	var item binanceOrder
	if err := json.Unmarshal(resp, &item); err != nil {
		return nil, fmt.Errorf("unmarshal order: %w", err)
	}
	if item.OrderID == 0 {
		return nil, fmt.Errorf("order response has no order id")
	}
	return toOrder(item), nil
}

func decodeOrders(resp []byte) (model.Orders, error) {
	var items []binanceOrder
	if err := json.Unmarshal(resp, &items); err != nil {
		return nil, fmt.Errorf("unmarshal orders: %w", err)
	}
	orders := make(model.Orders, 0, len(items))
	for _, item := range items {
		orders = append(orders, toOrder(item))
	}
	return orders, nil
}

func toOrder(item binanceOrder) *model.Order {
	ts := item.Time.Time
	if ts.IsZero() {
		ts = item.UpdateTime.Time
	}
	return &model.Order{
		ID:            strconv.FormatInt(item.OrderID, 10),
		ClientOrderID: item.ClientOrderID,
		Symbol:        item.Symbol,
		Type:          fromBinanceOrderType(item.Type),
		Side:          model.OrderSide(strings.ToLower(item.Side)),
		Amount:        item.OrigQty.Decimal,
		Price:         item.Price.Decimal,
		StopPrice:     item.StopPrice.Decimal,
		Filled:        item.ExecutedQty.Decimal,
		Remaining:     item.OrigQty.Sub(item.ExecutedQty.Decimal),
		Cost:          item.CumQuote.Decimal,
		Average:       item.AvgPrice.Decimal,
		Status:        toOrderStatus(item.Status),
		ReduceOnly:    item.ReduceOnly,
		Timestamp:     ts,
	}
}
