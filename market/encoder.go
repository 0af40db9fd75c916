package market

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/lemconn/exbridge/errs"
	"github.com/lemconn/exbridge/logger"
	"github.com/lemconn/exbridge/model"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"
)

const (
	// DefaultTTL 市场快照的默认有效期
	DefaultTTL = time.Hour
	// DefaultMinForceInterval 交易对未命中时强制重建索引的最小间隔
	DefaultMinForceInterval = time.Minute
)

// MarketSource 原始市场数据来源，通常是交易所协议客户端
type MarketSource interface {
	FetchMarkets(ctx context.Context) ([]model.RawMarket, error)
}

// MarketSourceFunc 函数适配 MarketSource
type MarketSourceFunc func(ctx context.Context) ([]model.RawMarket, error)

func (f MarketSourceFunc) FetchMarkets(ctx context.Context) ([]model.RawMarket, error) {
	return f(ctx)
}

// snapshot 一次加载的不可变结果
type snapshot struct {
	markets  []model.Market
	index    *Index
	loadedAt time.Time
}

// Encoder 单个交易所的交易对编码器
//
// 读取走原子指针上的快照，刷新整体替换快照；并发的刷新请求合并为一次拉取。
type Encoder struct {
	profile          Profile
	source           MarketSource
	store            Store
	ttl              time.Duration
	minForceInterval time.Duration
	now              func() time.Time
	log              *logger.Entry

	snap  atomic.Pointer[snapshot]
	group singleflight.Group
}

// EncoderOption 编码器选项
type EncoderOption func(*Encoder)

// WithStore 设置缓存层，默认进程内缓存
func WithStore(store Store) EncoderOption {
	return func(e *Encoder) {
		if store != nil {
			e.store = store
		}
	}
}

// WithTTL 设置快照有效期
func WithTTL(ttl time.Duration) EncoderOption {
	return func(e *Encoder) {
		if ttl > 0 {
			e.ttl = ttl
		}
	}
}

// WithMinForceInterval 设置强制重建的最小间隔，0 表示每次未命中都重建
func WithMinForceInterval(d time.Duration) EncoderOption {
	return func(e *Encoder) {
		if d >= 0 {
			e.minForceInterval = d
		}
	}
}

// WithClock 替换时钟，测试中使用
func WithClock(now func() time.Time) EncoderOption {
	return func(e *Encoder) {
		if now != nil {
			e.now = now
		}
	}
}

// WithLogger 设置日志
func WithLogger(l *logger.Log) EncoderOption {
	return func(e *Encoder) {
		if l != nil {
			e.log = l.WithComponent("market").WithFields(logger.Fields{"exchange": e.profile.Name()})
		}
	}
}

// NewEncoder 创建编码器
func NewEncoder(profile Profile, source MarketSource, opts ...EncoderOption) *Encoder {
	e := &Encoder{
		profile:          profile,
		source:           source,
		store:            NewMemoryStore(),
		ttl:              DefaultTTL,
		minForceInterval: DefaultMinForceInterval,
		now:              time.Now,
	}
	e.log = logger.GetLogger().WithComponent("market").WithFields(logger.Fields{"exchange": profile.Name()})
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name 交易所 id
func (e *Encoder) Name() string {
	return e.profile.Name()
}

// Profile 返回交易对规则
func (e *Encoder) Profile() Profile {
	return e.profile
}

func (e *Encoder) fresh(s *snapshot) bool {
	return s != nil && e.now().Sub(s.loadedAt) < e.ttl
}

// LoadMarkets 返回市场列表；force 时忽略快照和缓存重新拉取
func (e *Encoder) LoadMarkets(ctx context.Context, force bool) ([]model.Market, error) {
	s, err := e.load(ctx, force)
	if err != nil {
		return nil, err
	}
	out := make([]model.Market, len(s.markets))
	copy(out, s.markets)
	return out, nil
}

// LoadIndex 返回与市场列表同一快照的索引
func (e *Encoder) LoadIndex(ctx context.Context, force bool) (*Index, error) {
	s, err := e.load(ctx, force)
	if err != nil {
		return nil, err
	}
	return s.index, nil
}

func (e *Encoder) load(ctx context.Context, force bool) (*snapshot, error) {
	if !force {
		if s := e.snap.Load(); e.fresh(s) {
			return s, nil
		}
	}
	key := "cached"
	if force {
		key = "force"
	}
	v, err, _ := e.group.Do(key, func() (interface{}, error) {
		return e.refresh(ctx, force)
	})
	if err != nil {
		return nil, err
	}
	return v.(*snapshot), nil
}

func (e *Encoder) refresh(ctx context.Context, force bool) (*snapshot, error) {
	name := e.profile.Name()
	if !force {
		if s := e.snap.Load(); e.fresh(s) {
			return s, nil
		}
		s, err := e.readStore(ctx)
		if err != nil {
			e.log.WithError(err).Warn("market cache read failed")
		}
		if s != nil {
			e.snap.Store(s)
			return s, nil
		}
	}

	started := e.now()
	raws, err := e.source.FetchMarkets(ctx)
	if err != nil {
		return nil, errs.WrapExchange(name, "LoadMarkets", false, err)
	}
	markets := make([]model.Market, 0, len(raws))
	for _, raw := range raws {
		if !e.profile.Importable(raw) {
			continue
		}
		m, err := e.profile.BuildMarket(raw)
		if err != nil {
			e.log.WithError(err).WithFields(logger.Fields{"symbol": raw.ID}).Warn("market skipped")
			continue
		}
		markets = append(markets, m)
	}

	if err := e.store.Delete(ctx, IndexKey(name)); err != nil {
		e.log.WithError(err).Warn("market index invalidation failed")
	}
	s := &snapshot{loadedAt: e.now()}
	s.index = BuildIndex(name, markets, s.loadedAt)
	if err := s.index.Validate(); err != nil {
		return nil, fmt.Errorf("%s market index: %w", name, err)
	}
	s.markets = s.index.Indexed(markets)
	e.writeStore(ctx, s)
	e.snap.Store(s)

	e.log.LogDuration("load_markets", started, logger.Fields{
		"markets":   len(markets),
		"fetched":   len(raws),
		"conflicts": len(s.index.Conflicts),
		"forced":    force,
	})
	return s, nil
}

func (e *Encoder) readStore(ctx context.Context) (*snapshot, error) {
	name := e.profile.Name()
	data, ok, err := e.store.Get(ctx, name)
	if err != nil || !ok {
		return nil, err
	}
	var markets []model.Market
	if err := json.Unmarshal(data, &markets); err != nil {
		return nil, fmt.Errorf("decode cached markets: %w", err)
	}

	var idx *Index
	if data, ok, err := e.store.Get(ctx, IndexKey(name)); err == nil && ok {
		var cached Index
		if json.Unmarshal(data, &cached) == nil && cached.Validate() == nil {
			idx = &cached
		}
	}
	s := &snapshot{markets: markets, loadedAt: e.now()}
	if idx == nil {
		idx = BuildIndex(name, markets, s.loadedAt)
		if data, err := json.Marshal(idx); err == nil {
			if err := e.store.Set(ctx, IndexKey(name), data, e.ttl); err != nil {
				e.log.WithError(err).Warn("market index write failed")
			}
		}
	} else {
		idx.BuiltAt = s.loadedAt
	}
	s.index = idx
	s.markets = idx.Indexed(markets)
	return s, nil
}

func (e *Encoder) writeStore(ctx context.Context, s *snapshot) {
	name := e.profile.Name()
	data, err := json.Marshal(s.markets)
	if err == nil {
		err = e.store.Set(ctx, name, data, e.ttl)
	}
	if err != nil {
		e.log.WithError(err).Warn("market cache write failed")
		return
	}
	data, err = json.Marshal(s.index)
	if err == nil {
		err = e.store.Set(ctx, IndexKey(name), data, e.ttl)
	}
	if err != nil {
		e.log.WithError(err).Warn("market index write failed")
	}
}

// retryIndex 在索引足够旧时强制重建一次
func (e *Encoder) retryIndex(ctx context.Context, idx *Index) (*Index, bool, error) {
	if e.now().Sub(idx.BuiltAt) < e.minForceInterval {
		return idx, false, nil
	}
	e.log.Debug("symbol miss, rebuilding market index")
	fresh, err := e.LoadIndex(ctx, true)
	if err != nil {
		return nil, false, err
	}
	return fresh, true, nil
}

// ToNative 内部 id -> 原生交易对
func (e *Encoder) ToNative(ctx context.Context, internalID string) (string, error) {
	id := e.profile.Alias(internalID)
	idx, err := e.LoadIndex(ctx, false)
	if err != nil {
		return "", err
	}
	if m, ok := idx.ByID[id]; ok {
		return m.NativeSymbol, nil
	}
	idx, retried, err := e.retryIndex(ctx, idx)
	if err != nil {
		return "", err
	}
	if retried {
		if m, ok := idx.ByID[id]; ok {
			return m.NativeSymbol, nil
		}
	}
	return "", errs.SymbolNotFound(e.profile.Name(), internalID)
}

// FromNative 原生交易对 -> 内部 id；提供原始市场时直接由规则推导，不访问索引
func (e *Encoder) FromNative(ctx context.Context, nativeSymbol string, raw *model.RawMarket) (string, error) {
	if raw != nil {
		return e.profile.InternalID(*raw), nil
	}
	idx, err := e.LoadIndex(ctx, false)
	if err != nil {
		return "", err
	}
	if id, ok := idx.ByNative[nativeSymbol]; ok {
		return id, nil
	}
	idx, retried, err := e.retryIndex(ctx, idx)
	if err != nil {
		return "", err
	}
	if retried {
		if id, ok := idx.ByNative[nativeSymbol]; ok {
			return id, nil
		}
	}
	return "", errs.SymbolNotFound(e.profile.Name(), nativeSymbol)
}

// Market 按内部 id 返回市场元数据
func (e *Encoder) Market(ctx context.Context, internalID string) (model.Market, error) {
	idx, err := e.LoadIndex(ctx, false)
	if err != nil {
		return model.Market{}, err
	}
	m, ok := idx.ByID[e.profile.Alias(internalID)]
	if !ok {
		return model.Market{}, errs.MarketNotFound(e.profile.Name(), internalID)
	}
	return m, nil
}

// MarketByNative 按原生交易对返回市场元数据
func (e *Encoder) MarketByNative(ctx context.Context, nativeSymbol string) (model.Market, error) {
	idx, err := e.LoadIndex(ctx, false)
	if err != nil {
		return model.Market{}, err
	}
	id, ok := idx.ByNative[nativeSymbol]
	if !ok {
		return model.Market{}, errs.MarketNotFound(e.profile.Name(), nativeSymbol)
	}
	return idx.ByID[id], nil
}

// Multiplier 合约乘数
func (e *Encoder) Multiplier(ctx context.Context, internalID string) (decimal.Decimal, error) {
	m, err := e.Market(ctx, internalID)
	if err != nil {
		return decimal.Zero, err
	}
	return m.ContractMultiplier(), nil
}

// IsInverse 是否反向合约
func (e *Encoder) IsInverse(ctx context.Context, internalID string) (bool, error) {
	m, err := e.Market(ctx, internalID)
	return m.IsInverse, err
}

// IsQuanto 是否双币种合约
func (e *Encoder) IsQuanto(ctx context.Context, internalID string) (bool, error) {
	m, err := e.Market(ctx, internalID)
	return m.IsQuanto, err
}

// ContractKind 合约计价方式
func (e *Encoder) ContractKind(ctx context.Context, internalID string) (model.ContractKind, error) {
	m, err := e.Market(ctx, internalID)
	if err != nil {
		return "", err
	}
	return m.Kind(), nil
}

// MaxLeverage 最大杠杆，未知时为 0
func (e *Encoder) MaxLeverage(ctx context.Context, internalID string) (decimal.Decimal, error) {
	m, err := e.Market(ctx, internalID)
	if err != nil {
		return decimal.Zero, err
	}
	return m.MaxLeverage, nil
}

// PositionQuoteAsset 仓位计价资产
func (e *Encoder) PositionQuoteAsset(ctx context.Context, internalID string) (string, error) {
	m, err := e.Market(ctx, internalID)
	if err != nil {
		return "", err
	}
	return e.profile.PositionQuoteAsset(m), nil
}

// TranslateAsset 原生资产代码 -> 平台资产代码
func (e *Encoder) TranslateAsset(asset string) string {
	return e.profile.TranslateAsset(strings.TrimSpace(asset))
}

// NativeAsset 平台资产代码 -> 原生资产代码
func (e *Encoder) NativeAsset(asset string) string {
	return e.profile.NativeAsset(strings.TrimSpace(asset))
}
