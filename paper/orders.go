package paper

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lemconn/exbridge/model"
	"github.com/shopspring/decimal"
)

// Placement 一笔模拟下单
type Placement struct {
	// Request 下单请求，Symbol 为平台内部交易对
	Request model.OrderRequest
	// FillPrice 立即成交价格，零表示挂单
	FillPrice decimal.Decimal
	// Cost 按合约计算器得出的订单价值，反向合约以结算币计
	Cost decimal.Decimal
	// Margin 占用的保证金
	Margin decimal.Decimal
	// Currency 保证金币种
	Currency string
}

// OrderManager 模拟订单与余额
type OrderManager interface {
	Place(ctx context.Context, p Placement) (*model.Order, error)
	Cancel(ctx context.Context, symbol, orderID string) (*model.Order, error)
	Order(ctx context.Context, symbol, orderID string) (*model.Order, error)
	OpenOrders(ctx context.Context, symbol string) (model.Orders, error)
	ClosedOrders(ctx context.Context, q model.HistoryQuery) (model.Orders, error)
	Balances(ctx context.Context) (model.Balances, error)
}

// ErrInsufficientBalance 可用余额不足以支付保证金
var ErrInsufficientBalance = fmt.Errorf("insufficient paper balance")

type entry struct {
	order    model.Order
	margin   decimal.Decimal
	currency string
}

// MemoryOrderManager 内存订单管理：市价单立即成交，限价单挂起直到撤销
//
// 成交与挂单都按 Placement.Margin 从可用余额转入冻结余额。
type MemoryOrderManager struct {
	mu       sync.RWMutex
	orders   map[string]*entry
	seq      []string
	balances map[string]*model.Balance
	now      func() time.Time
}

var _ OrderManager = (*MemoryOrderManager)(nil)

// NewMemoryOrderManager 按初始余额创建
func NewMemoryOrderManager(initial map[string]decimal.Decimal) *MemoryOrderManager {
	balances := make(map[string]*model.Balance, len(initial))
	for currency, amount := range initial {
		balances[currency] = &model.Balance{Currency: currency, Free: amount, Used: decimal.Zero, Total: amount}
	}
	return &MemoryOrderManager{
		orders:   make(map[string]*entry),
		balances: balances,
		now:      time.Now,
	}
}

func (m *MemoryOrderManager) Place(_ context.Context, p Placement) (*model.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if p.Margin.IsPositive() {
		b, ok := m.balances[p.Currency]
		if !ok || b.Free.LessThan(p.Margin) {
			return nil, fmt.Errorf("%w: need %s %s", ErrInsufficientBalance, p.Margin, p.Currency)
		}
		b.Free = b.Free.Sub(p.Margin)
		b.Used = b.Used.Add(p.Margin)
	}

	req := p.Request
	order := model.Order{
		ID:         uuid.NewString(),
		Symbol:     req.Symbol,
		Type:       req.Type,
		Side:       req.Side,
		Amount:     req.Amount,
		Price:      req.Price,
		Remaining:  req.Amount,
		Status:     model.OrderStatusOpen,
		ReduceOnly: req.Params.IsReduceOnly(),
		Timestamp:  m.now(),
	}
	if id, ok := req.Params.ClientID(); ok {
		order.ClientOrderID = id
	}
	if req.Params.StopPrice != nil {
		order.StopPrice = *req.Params.StopPrice
	}
	if p.FillPrice.IsPositive() {
		order.Status = model.OrderStatusClosed
		order.Filled = req.Amount
		order.Remaining = decimal.Zero
		order.Average = p.FillPrice
		order.Cost = p.Cost
	}

	m.orders[order.ID] = &entry{order: order, margin: p.Margin, currency: p.Currency}
	m.seq = append(m.seq, order.ID)
	out := order
	return &out, nil
}

func (m *MemoryOrderManager) lookup(symbol, orderID string) (*entry, error) {
	e, ok := m.orders[orderID]
	if !ok {
		for _, candidate := range m.orders {
			if candidate.order.ClientOrderID == orderID {
				e, ok = candidate, true
				break
			}
		}
	}
	if !ok || (symbol != "" && e.order.Symbol != symbol) {
		return nil, fmt.Errorf("paper order %s not found", orderID)
	}
	return e, nil
}

func (m *MemoryOrderManager) Cancel(_ context.Context, symbol, orderID string) (*model.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, err := m.lookup(symbol, orderID)
	if err != nil {
		return nil, err
	}
	if e.order.Status != model.OrderStatusOpen {
		return nil, fmt.Errorf("paper order %s is %s", orderID, e.order.Status)
	}
	e.order.Status = model.OrderStatusCanceled
	if b, ok := m.balances[e.currency]; ok && e.margin.IsPositive() {
		b.Used = b.Used.Sub(e.margin)
		b.Free = b.Free.Add(e.margin)
	}
	out := e.order
	return &out, nil
}

func (m *MemoryOrderManager) Order(_ context.Context, symbol, orderID string) (*model.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, err := m.lookup(symbol, orderID)
	if err != nil {
		return nil, err
	}
	out := e.order
	return &out, nil
}

func (m *MemoryOrderManager) OpenOrders(_ context.Context, symbol string) (model.Orders, error) {
	return m.filter(func(o model.Order) bool {
		return o.Status == model.OrderStatusOpen && (symbol == "" || o.Symbol == symbol)
	}), nil
}

// ClosedOrders 按下单时间倒序
func (m *MemoryOrderManager) ClosedOrders(_ context.Context, q model.HistoryQuery) (model.Orders, error) {
	orders := m.filter(func(o model.Order) bool {
		if o.Status == model.OrderStatusOpen {
			return false
		}
		if q.Symbol != "" && o.Symbol != q.Symbol {
			return false
		}
		return q.Since.IsZero() || !o.Timestamp.Before(q.Since)
	})
	sort.SliceStable(orders, func(i, j int) bool { return orders[i].Timestamp.After(orders[j].Timestamp) })
	if q.Limit > 0 && len(orders) > q.Limit {
		orders = orders[:q.Limit]
	}
	return orders, nil
}

func (m *MemoryOrderManager) filter(keep func(model.Order) bool) model.Orders {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(model.Orders, 0)
	for _, id := range m.seq {
		e := m.orders[id]
		if !keep(e.order) {
			continue
		}
		o := e.order
		out = append(out, &o)
	}
	return out
}

func (m *MemoryOrderManager) Balances(context.Context) (model.Balances, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(model.Balances, len(m.balances))
	for currency, b := range m.balances {
		copied := *b
		copied.Total = b.Free.Add(b.Used)
		out[currency] = &copied
	}
	return out, nil
}
