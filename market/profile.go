package market

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/lemconn/exbridge/common"
	"github.com/lemconn/exbridge/errs"
	"github.com/lemconn/exbridge/model"
	"github.com/shopspring/decimal"
)

// Profile 交易所的交易对规则
//
// 决定哪些原始市场可以导入、如何生成内部 id、资产命名差异以及旧交易对别名。
type Profile interface {
	// Name 交易所 id
	Name() string
	// Importable 原始市场是否导入
	Importable(raw model.RawMarket) bool
	// BuildMarket 由原始市场构建市场元数据
	BuildMarket(raw model.RawMarket) (model.Market, error)
	// InternalID 由原始市场生成内部 id，不访问索引
	InternalID(raw model.RawMarket) string
	// Alias 将旧的内部 id 改写为当前 id，不存在别名时原样返回
	Alias(internalID string) string
	// TranslateAsset 原生资产代码 -> 平台资产代码
	TranslateAsset(asset string) string
	// NativeAsset 平台资产代码 -> 原生资产代码
	NativeAsset(asset string) string
	// PositionQuoteAsset 计算仓位价值所用的计价资产（原生代码）
	PositionQuoteAsset(m model.Market) string
}

// basicProfile 由配置驱动的通用规则，大多数交易所只在命名和过滤条件上有差异
type basicProfile struct {
	name  string
	types []model.MarketType
	// filter 额外的导入条件
	filter func(raw model.RawMarket) bool
	// assets 原生资产 -> 平台资产
	assets  map[string]string
	aliases map[string]string
	// multiplierKey Info 中合约面值字段
	multiplierKey string
}

func (p *basicProfile) Name() string { return p.name }

func (p *basicProfile) Importable(raw model.RawMarket) bool {
	if raw.ID == "" || raw.Base == "" || raw.Quote == "" {
		return false
	}
	matched := len(p.types) == 0
	for _, t := range p.types {
		if raw.Type == t {
			matched = true
			break
		}
	}
	if !matched {
		return false
	}
	return p.filter == nil || p.filter(raw)
}

func (p *basicProfile) InternalID(raw model.RawMarket) string {
	return p.TranslateAsset(raw.Base) + p.TranslateAsset(raw.Quote)
}

func (p *basicProfile) Alias(internalID string) string {
	id := common.InternalSymbol(internalID)
	if alias, ok := p.aliases[id]; ok {
		return alias
	}
	return id
}

func (p *basicProfile) TranslateAsset(asset string) string {
	a := strings.ToUpper(asset)
	if t, ok := p.assets[a]; ok {
		return t
	}
	return a
}

func (p *basicProfile) NativeAsset(asset string) string {
	a := strings.ToUpper(asset)
	for native, internal := range p.assets {
		if internal == a {
			return native
		}
	}
	return a
}

func (p *basicProfile) PositionQuoteAsset(m model.Market) string {
	if m.IsInverse {
		return p.NativeAsset(m.Base)
	}
	return p.NativeAsset(m.Quote)
}

func (p *basicProfile) BuildMarket(raw model.RawMarket) (model.Market, error) {
	m := model.Market{
		InternalID:   p.InternalID(raw),
		NativeSymbol: raw.ID,
		Base:         p.TranslateAsset(raw.Base),
		Quote:        p.TranslateAsset(raw.Quote),
		BaseID:       raw.BaseID,
		QuoteID:      raw.QuoteID,
		Type:         raw.Type,
		Precision:    raw.Precision,
		Limits:       raw.Limits,
		Multiplier:   decimal.NewFromInt(1),
		Active:       raw.Active,
		Info:         raw.Info,
	}
	if raw.Settle != "" {
		m.Settle = p.TranslateAsset(raw.Settle)
	}
	if m.BaseID == "" {
		m.BaseID = raw.Base
	}
	if m.QuoteID == "" {
		m.QuoteID = raw.Quote
	}
	if p.multiplierKey != "" {
		if v, ok := infoDecimal(raw.Info, p.multiplierKey); ok && v.IsPositive() {
			m.Multiplier = v
		}
	}
	if err := m.Validate(); err != nil {
		return model.Market{}, errs.InvalidMarket(err)
	}
	return m, nil
}

var (
	profilesMu sync.RWMutex
	profiles   = make(map[string]Profile)
)

// RegisterProfile 注册交易所规则，同名覆盖
func RegisterProfile(p Profile) {
	profilesMu.Lock()
	defer profilesMu.Unlock()
	profiles[strings.ToLower(p.Name())] = p
}

// ProfileFor 按交易所 id 获取规则
func ProfileFor(exchange string) (Profile, error) {
	profilesMu.RLock()
	defer profilesMu.RUnlock()
	p, ok := profiles[strings.ToLower(exchange)]
	if !ok {
		return nil, fmt.Errorf("%w: no market profile for %q", errs.ErrExchangeNotSupported, exchange)
	}
	return p, nil
}

// ProfileNames 返回已注册的交易所 id
func ProfileNames() []string {
	profilesMu.RLock()
	defer profilesMu.RUnlock()
	names := make([]string, 0, len(profiles))
	for name := range profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func infoString(info map[string]any, key string) string {
	v, ok := info[key]
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}

func infoBool(info map[string]any, key string) bool {
	switch t := info[key].(type) {
	case bool:
		return t
	case string:
		b, _ := strconv.ParseBool(t)
		return b
	default:
		return false
	}
}

func infoDecimal(info map[string]any, key string) (decimal.Decimal, bool) {
	switch t := info[key].(type) {
	case float64:
		return decimal.NewFromFloat(t), true
	case int:
		return decimal.NewFromInt(int64(t)), true
	case int64:
		return decimal.NewFromInt(t), true
	case json.Number:
		d, err := decimal.NewFromString(t.String())
		return d, err == nil
	case string:
		if t == "" {
			return decimal.Zero, false
		}
		d, err := decimal.NewFromString(t)
		return d, err == nil
	case decimal.Decimal:
		return t, true
	default:
		return decimal.Zero, false
	}
}
