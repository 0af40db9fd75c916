package market

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lemconn/exbridge/model"
	"github.com/shopspring/decimal"
)

type fakeSource struct {
	mu      sync.Mutex
	markets []model.RawMarket
	err     error
	calls   atomic.Int32
	release chan struct{}
}

func (s *fakeSource) FetchMarkets(ctx context.Context) ([]model.RawMarket, error) {
	s.calls.Add(1)
	if s.release != nil {
		select {
		case <-s.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	out := make([]model.RawMarket, len(s.markets))
	copy(out, s.markets)
	return out, nil
}

func (s *fakeSource) add(raw model.RawMarket) {
	s.mu.Lock()
	s.markets = append(s.markets, raw)
	s.mu.Unlock()
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type recordingStore struct {
	*MemoryStore
	mu      sync.Mutex
	deleted []string
}

func (s *recordingStore) Delete(ctx context.Context, keys ...string) error {
	s.mu.Lock()
	s.deleted = append(s.deleted, keys...)
	s.mu.Unlock()
	return s.MemoryStore.Delete(ctx, keys...)
}

func binancePerp(symbol, base, quote, contractType string) model.RawMarket {
	return model.RawMarket{
		ID:        symbol,
		Symbol:    symbol,
		Base:      base,
		Quote:     quote,
		Settle:    quote,
		Type:      model.MarketTypeSwap,
		Active:    true,
		Precision: model.Precision{Amount: 3, Price: 2},
		Limits: model.Limits{
			Amount: model.MinMax{Min: decimal.RequireFromString("0.001"), Max: decimal.NewFromInt(1000)},
		},
		Info: map[string]any{"contractType": contractType},
	}
}

func bitmexInstrument(symbol, base, quote, settle, typ string, info map[string]any) model.RawMarket {
	merged := map[string]any{"typ": typ, "settlCurrency": settle}
	for k, v := range info {
		merged[k] = v
	}
	return model.RawMarket{
		ID:     symbol,
		Symbol: symbol,
		Base:   base,
		Quote:  quote,
		Settle: settle,
		Type:   model.MarketTypeSwap,
		Active: true,
		Info:   merged,
	}
}
