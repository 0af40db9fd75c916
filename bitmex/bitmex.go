package bitmex

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lemconn/exbridge/common"
	"github.com/lemconn/exbridge/model"
	"github.com/lemconn/exbridge/types"
	"github.com/shopspring/decimal"
)

// 永续合约的 instrument 类型
const perpetualType = "FFWCSX"

// request 发送请求；signed 为 true 时附加 api-expires/api-key/api-signature
func (c *Client) request(ctx context.Context, method, op, path string, query *types.ExValues, body any, signed bool) ([]byte, error) {
	fullPath := apiPrefix + path
	encoded := ""
	if query != nil {
		encoded = query.EncodeQuery()
	}

	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return nil, fmt.Errorf("marshal %s body: %w", op, err)
		}
	}

	var headers map[string]string
	if signed {
		signPath := fullPath
		if encoded != "" {
			signPath += "?" + encoded
		}
		var err error
		if headers, err = c.signer.Headers(method, signPath, string(payload), c.now()); err != nil {
			return nil, err
		}
	}
	return c.http.Do(ctx, common.Request{
		Method:   method,
		Path:     fullPath,
		Query:    encoded,
		Body:     payload,
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

// FetchMarkets 获取活跃合约
func (c *Client) FetchMarkets(ctx context.Context) ([]model.RawMarket, error) {
	resp, err := c.request(ctx, http.MethodGet, "FetchMarkets", "/instrument/active", nil, nil, false)
	if err != nil {
		return nil, err
	}
	var items []json.RawMessage
	if err := json.Unmarshal(resp, &items); err != nil {
		return nil, fmt.Errorf("unmarshal instruments: %w", err)
	}

	markets := make([]model.RawMarket, 0, len(items))
	for _, item := range items {
		var inst bitmexInstrument
		if err := json.Unmarshal(item, &inst); err != nil {
			return nil, fmt.Errorf("unmarshal instrument: %w", err)
		}
		var blob map[string]any
		if err := json.Unmarshal(item, &blob); err != nil {
			return nil, fmt.Errorf("unmarshal instrument info: %w", err)
		}
		markets = append(markets, toRawMarket(inst, blob))
	}
	return markets, nil
}

func toRawMarket(inst bitmexInstrument, blob map[string]any) model.RawMarket {
	typ := model.MarketTypeFuture
	if inst.Typ == perpetualType {
		typ = model.MarketTypeSwap
	}
	base := inst.Underlying
	if base == "" {
		base = inst.RootSymbol
	}
	settle := strings.ToUpper(inst.SettlCurrency)
	return model.RawMarket{
		ID:      inst.Symbol,
		Symbol:  common.JoinSymbol(base, inst.QuoteCurrency, "/") + ":" + settle,
		Base:    base,
		Quote:   inst.QuoteCurrency,
		BaseID:  base,
		QuoteID: inst.QuoteCurrency,
		Settle:  settle,
		Type:    typ,
		Precision: model.Precision{
			Amount: stepPrecision(inst.LotSize.Decimal),
			Price:  stepPrecision(inst.TickSize.Decimal),
		},
		Limits: model.Limits{
			Amount: model.MinMax{Min: inst.LotSize.Decimal, Max: inst.MaxOrderQty.Decimal},
			Price:  model.MinMax{Min: inst.TickSize.Decimal, Max: inst.MaxPrice.Decimal},
		},
		Active: inst.State == "Open",
		Info:   blob,
	}
}

// FetchOrderBook 获取 L2 深度
func (c *Client) FetchOrderBook(ctx context.Context, symbol string, limit int) (*model.OrderBook, error) {
	query := types.NewExValues()
	query.SetQuery("symbol", symbol)
	if limit > 0 {
		query.SetQuery("depth", limit)
	}
	resp, err := c.request(ctx, http.MethodGet, "FetchOrderBook", "/orderBook/L2", query, nil, false)
	if err != nil {
		return nil, err
	}
	var levels []bitmexLevel
	if err := json.Unmarshal(resp, &levels); err != nil {
		return nil, fmt.Errorf("unmarshal order book: %w", err)
	}

	book := &model.OrderBook{Symbol: symbol}
	for _, level := range levels {
		entry := model.OrderBookEntry{Price: level.Price.Decimal, Amount: level.Size.Decimal}
		if level.Side == "Sell" {
			book.Asks = append(book.Asks, entry)
		} else {
			book.Bids = append(book.Bids, entry)
		}
		if level.Timestamp.After(book.Timestamp) {
			book.Timestamp = level.Timestamp.Time
		}
	}
	sort.Slice(book.Bids, func(i, j int) bool { return book.Bids[i].Price.GreaterThan(book.Bids[j].Price) })
	sort.Slice(book.Asks, func(i, j int) bool { return book.Asks[i].Price.LessThan(book.Asks[j].Price) })
	return book, nil
}

// CreateOrder 创建订单，数量为合约张数
func (c *Client) CreateOrder(ctx context.Context, req model.OrderRequest) (*model.Order, error) {
	body, err := orderBody(req)
	if err != nil {
		return nil, err
	}
	resp, err := c.request(ctx, http.MethodPost, "CreateOrder", "/order", nil, body, true)
	if err != nil {
		return nil, err
	}
	var item bitmexOrder
	if err := json.Unmarshal(resp, &item); err != nil {
		return nil, fmt.Errorf("unmarshal order: %w", err)
	}
	return toOrder(item), nil
}

func orderBody(req model.OrderRequest) (map[string]any, error) {
	if !req.Amount.IsPositive() {
		return nil, fmt.Errorf("amount must be positive, got %s", req.Amount)
	}
	if req.Params.QuoteOrderQuantity != nil {
		return nil, fmt.Errorf("quote order quantity is not supported on %s", bitmexName)
	}
	ordType, err := toOrdType(req.Type)
	if err != nil {
		return nil, err
	}

	body := map[string]any{
		"symbol":   req.Symbol,
		"side":     toSide(req.Side),
		"orderQty": json.Number(req.Amount.String()),
		"ordType":  ordType,
	}
	if !req.Type.IsMarket() {
		if !req.Price.IsPositive() {
			return nil, fmt.Errorf("limit order requires price")
		}
		body["price"] = json.Number(req.Price.String())
	}

	stop := req.Params.StopPrice
	if stop == nil {
		stop = req.Params.StopLossPrice
	}
	if stop != nil {
		body["stopPx"] = json.Number(stop.String())
	} else if req.Type == model.OrderTypeStopMarket || req.Type == model.OrderTypeStopLimit {
		return nil, fmt.Errorf("%s order requires stop price", req.Type)
	}

	var execInst []string
	if req.Params.IsReduceOnly() {
		execInst = append(execInst, "ReduceOnly")
	}
	if req.Params.IsPostOnly() || (req.Params.TimeInForce != nil && *req.Params.TimeInForce == model.TimeInForceGTX) {
		execInst = append(execInst, "ParticipateDoNotInitiate")
	} else if req.Params.TimeInForce != nil {
		tif, err := toTimeInForce(*req.Params.TimeInForce)
		if err != nil {
			return nil, err
		}
		body["timeInForce"] = tif
	}
	if len(execInst) > 0 {
		body["execInst"] = strings.Join(execInst, ",")
	}

	if id, ok := req.Params.ClientID(); ok {
		body["clOrdID"] = id
	} else {
		body["clOrdID"] = common.GenerateClientOrderID(bitmexName)
	}
	return body, nil
}

// orderKey BitMEX 订单号为 UUID，其余视为 clOrdID
func orderKey(orderID string) string {
	if _, err := uuid.Parse(orderID); err == nil {
		return "orderID"
	}
	return "clOrdID"
}

// CancelOrder 撤销订单
func (c *Client) CancelOrder(ctx context.Context, symbol, orderID string) (*model.Order, error) {
	if orderID == "" {
		return nil, fmt.Errorf("order id is required")
	}
	resp, err := c.request(ctx, http.MethodDelete, "CancelOrder", "/order", nil, map[string]any{orderKey(orderID): orderID}, true)
	if err != nil {
		return nil, err
	}
	var items []bitmexOrder
	if err := json.Unmarshal(resp, &items); err != nil {
		return nil, fmt.Errorf("unmarshal canceled orders: %w", err)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("cancel %s on %s returned no order", orderID, symbol)
	}
	if items[0].Error != "" {
		return nil, fmt.Errorf("cancel %s: %s", orderID, items[0].Error)
	}
	return toOrder(items[0]), nil
}

// FetchOrder 查询单个订单
func (c *Client) FetchOrder(ctx context.Context, symbol, orderID string) (*model.Order, error) {
	if orderID == "" {
		return nil, fmt.Errorf("order id is required")
	}
	filter, err := json.Marshal(map[string]string{orderKey(orderID): orderID})
	if err != nil {
		return nil, err
	}
	query := types.NewExValues()
	query.SetQuery("symbol", symbol)
	query.SetQuery("filter", string(filter))
	orders, err := c.fetchOrders(ctx, "FetchOrder", query)
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, fmt.Errorf("order %s not found on %s", orderID, symbol)
	}
	return orders[0], nil
}

// FetchOpenOrders 查询未完成订单
func (c *Client) FetchOpenOrders(ctx context.Context, symbol string) (model.Orders, error) {
	query := types.NewExValues()
	if symbol != "" {
		query.SetQuery("symbol", symbol)
	}
	query.SetQuery("filter", `{"open":true}`)
	return c.fetchOrders(ctx, "FetchOpenOrders", query)
}

// FetchClosedOrders 查询已结束订单（按时间倒序）
func (c *Client) FetchClosedOrders(ctx context.Context, q model.HistoryQuery) (model.Orders, error) {
	query := types.NewExValues()
	if q.Symbol != "" {
		query.SetQuery("symbol", q.Symbol)
	}
	if !q.Since.IsZero() {
		query.SetQuery("startTime", q.Since.UTC().Format(time.RFC3339))
	}
	if q.Limit > 0 {
		query.SetQuery("count", q.Limit)
	}
	query.SetQuery("reverse", "true")
	orders, err := c.fetchOrders(ctx, "FetchClosedOrders", query)
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

func (c *Client) fetchOrders(ctx context.Context, op string, query *types.ExValues) (model.Orders, error) {
	resp, err := c.request(ctx, http.MethodGet, op, "/order", query, nil, true)
	if err != nil {
		return nil, err
	}
	var items []bitmexOrder
	if err := json.Unmarshal(resp, &items); err != nil {
		return nil, fmt.Errorf("unmarshal orders: %w", err)
	}
	orders := make(model.Orders, 0, len(items))
	for _, item := range items {
		orders = append(orders, toOrder(item))
	}
	return orders, nil
}

// FetchBalance 获取保证金账户余额，金额换算为整币
func (c *Client) FetchBalance(ctx context.Context) (model.Balances, error) {
	query := types.NewExValues()
	query.SetQuery("currency", "all")
	resp, err := c.request(ctx, http.MethodGet, "FetchBalance", "/user/margin", query, nil, true)
	if err != nil {
		return nil, err
	}
	var items []bitmexMargin
	if err := json.Unmarshal(resp, &items); err != nil {
		return nil, fmt.Errorf("unmarshal margin: %w", err)
	}
	balances := make(model.Balances, len(items))
	for _, item := range items {
		currency, scale := currencyScale(item.Currency)
		total := item.MarginBalance.Decimal
		if total.IsZero() {
			total = item.WalletBalance.Decimal
		}
		total = total.Div(scale)
		free := item.AvailableMargin.Div(scale)
		balances[currency] = &model.Balance{
			Currency: currency,
			Free:     free,
			Used:     total.Sub(free),
			Total:    total,
		}
	}
	return balances, nil
}

// FetchPositions 获取持仓，跳过空仓
func (c *Client) FetchPositions(ctx context.Context, symbol string) (model.Positions, error) {
	items, err := c.positions(ctx, "FetchPositions", symbol)
	if err != nil {
		return nil, err
	}
	positions := make(model.Positions, 0, len(items))
	for _, item := range items {
		if item.CurrentQty.IsZero() {
			continue
		}
		side := model.PositionSideLong
		if item.CurrentQty.IsNegative() {
			side = model.PositionSideShort
		}
		_, scale := currencyScale(item.Currency)
		positions = append(positions, &model.Position{
			Symbol:           item.Symbol,
			Side:             side,
			Amount:           item.CurrentQty.Abs(),
			EntryPrice:       item.AvgEntryPrice.Decimal,
			MarkPrice:        item.MarkPrice.Decimal,
			LiquidationPrice: item.LiquidationPrice.Decimal,
			UnrealizedPnl:    item.UnrealisedPnl.Div(scale),
			Leverage:         item.Leverage.Decimal,
			Margin:           item.PosMargin.Div(scale),
			MarginMode:       toMarginMode(item.CrossMargin),
			Timestamp:        item.Timestamp.Time,
		})
	}
	return positions, nil
}

func (c *Client) positions(ctx context.Context, op, symbol string) ([]bitmexPosition, error) {
	query := types.NewExValues()
	if symbol != "" {
		filter, err := json.Marshal(map[string]string{"symbol": symbol})
		if err != nil {
			return nil, err
		}
		query.SetQuery("filter", string(filter))
	}
	resp, err := c.request(ctx, http.MethodGet, op, "/position", query, nil, true)
	if err != nil {
		return nil, err
	}
	var items []bitmexPosition
	if err := json.Unmarshal(resp, &items); err != nil {
		return nil, fmt.Errorf("unmarshal positions: %w", err)
	}
	return items, nil
}

func (c *Client) position(ctx context.Context, op, symbol string) (bitmexPosition, error) {
	items, err := c.positions(ctx, op, symbol)
	if err != nil {
		return bitmexPosition{}, err
	}
	for _, item := range items {
		if item.Symbol == symbol {
			return item, nil
		}
	}
	return bitmexPosition{}, fmt.Errorf("no position record for %s", symbol)
}

// FetchLeverage 当前杠杆
func (c *Client) FetchLeverage(ctx context.Context, symbol string) (decimal.Decimal, error) {
	pos, err := c.position(ctx, "FetchLeverage", symbol)
	if err != nil {
		return decimal.Zero, err
	}
	return pos.Leverage.Decimal, nil
}

// SetLeverage 设置逐仓杠杆
func (c *Client) SetLeverage(ctx context.Context, symbol string, leverage decimal.Decimal) error {
	if !leverage.IsPositive() {
		return fmt.Errorf("leverage must be positive, got %s", leverage)
	}
	_, err := c.request(ctx, http.MethodPost, "SetLeverage", "/position/leverage", nil, map[string]any{
		"symbol":   symbol,
		"leverage": json.Number(leverage.String()),
	}, true)
	return err
}

// FetchMarginMode 当前保证金模式
func (c *Client) FetchMarginMode(ctx context.Context, symbol string) (model.MarginMode, error) {
	pos, err := c.position(ctx, "FetchMarginMode", symbol)
	if err != nil {
		return "", err
	}
	return toMarginMode(pos.CrossMargin), nil
}

// SetMarginMode 切换逐仓/全仓
func (c *Client) SetMarginMode(ctx context.Context, symbol string, mode model.MarginMode) error {
	var enabled bool
	switch mode {
	case model.MarginModeIsolated:
		enabled = true
	case model.MarginModeCross:
		enabled = false
	default:
		return fmt.Errorf("unsupported margin mode %q", mode)
	}
	_, err := c.request(ctx, http.MethodPost, "SetMarginMode", "/position/isolate", nil, map[string]any{
		"symbol":  symbol,
		"enabled": enabled,
	}, true)
	return err
}

func toOrder(item bitmexOrder) *model.Order {
	ts := item.Timestamp.Time
	if ts.IsZero() {
		ts = item.TransactTime.Time
	}
	avg := item.AvgPx.Decimal
	return &model.Order{
		ID:            item.OrderID,
		ClientOrderID: item.ClOrdID,
		Symbol:        item.Symbol,
		Type:          fromOrdType(item.OrdType),
		Side:          model.OrderSide(strings.ToLower(item.Side)),
		Amount:        item.OrderQty.Decimal,
		Price:         item.Price.Decimal,
		StopPrice:     item.StopPx.Decimal,
		Filled:        item.CumQty.Decimal,
		Remaining:     item.LeavesQty.Decimal,
		Cost:          item.CumQty.Mul(avg),
		Average:       avg,
		Status:        toOrderStatus(item.OrdStatus),
		ReduceOnly:    strings.Contains(item.ExecInst, "ReduceOnly"),
		Timestamp:     ts,
	}
}
