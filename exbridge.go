package exbridge

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/lemconn/exbridge/binance"
	"github.com/lemconn/exbridge/bitmex"
	"github.com/lemconn/exbridge/contract"
	"github.com/lemconn/exbridge/dispatch"
	"github.com/lemconn/exbridge/errs"
	"github.com/lemconn/exbridge/exchange"
	"github.com/lemconn/exbridge/logger"
	"github.com/lemconn/exbridge/market"
	"github.com/lemconn/exbridge/option"
	"github.com/lemconn/exbridge/paper"
)

// 交易所名称常量
const (
	ExchangeBinanceFutures = "binancefutures" // Binance U 本位合约
	ExchangeBitmex         = "bitmex"         // BitMEX
)

// aliases 常见写法到规范 id
var aliases = map[string]string{
	"binanceusdm":    ExchangeBinanceFutures,
	"binancefuture":  ExchangeBinanceFutures,
	"binanceperp":    ExchangeBinanceFutures,
	"binanceswap":    ExchangeBinanceFutures,
	"bitmexfutures":  ExchangeBitmex,
	"bitmexcontract": ExchangeBitmex,
}

// NormalizeID 统一交易所 id：小写，去掉空白与分隔符，再解析别名
func NormalizeID(name string) string {
	id := strings.ToLower(strings.TrimSpace(name))
	id = strings.NewReplacer("-", "", "_", "", " ", "", ".", "").Replace(id)
	if canonical, ok := aliases[id]; ok {
		return canonical
	}
	return id
}

// ExchangeFactory 按选项创建协议客户端，router 已按选项配置好中继与限速
type ExchangeFactory func(opts *option.ExchangeOptions, router *dispatch.Router) (exchange.ProtocolClient, error)

// Registry 交易所注册表
type Registry struct {
	mu        sync.RWMutex
	factories map[string]ExchangeFactory
}

// NewRegistry 创建空注册表
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]ExchangeFactory)}
}

var defaultRegistry = sync.OnceValue(func() *Registry {
	r := NewRegistry()
	r.Register(ExchangeBinanceFutures, newBinanceFutures)
	r.Register(ExchangeBitmex, newBitmex)
	return r
})

// DefaultRegistry 内置 binancefutures 与 bitmex 的注册表
func DefaultRegistry() *Registry {
	return defaultRegistry()
}

// Register 注册交易所，同名覆盖
func (r *Registry) Register(name string, factory ExchangeFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[NormalizeID(name)] = factory
}

// Supported 已注册的交易所，按名称排序
func (r *Registry) Supported() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsSupported 检查交易所是否已注册
func (r *Registry) IsSupported(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[NormalizeID(name)]
	return ok
}

// NewExchange 创建交易所实例
//
// 依次构建路由、协议客户端、市场编码器与合约计算器，WithPaper 时再包一层模拟盘。
// 市场数据在第一次使用时加载。
func (r *Registry) NewExchange(name string, opts ...option.Option) (exchange.Exchange, error) {
	id := NormalizeID(name)
	r.mu.RLock()
	factory, ok := r.factories[id]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", errs.ErrExchangeNotSupported, name)
	}

	o := option.Apply(opts...)
	router, err := newRouter(id, o)
	if err != nil {
		return nil, err
	}
	client, err := factory(o, router)
	if err != nil {
		return nil, err
	}

	profile, err := market.ProfileFor(id)
	if err != nil {
		return nil, err
	}
	encoderOpts := []market.EncoderOption{market.WithStore(o.MarketStore), market.WithTTL(o.MarketTTL)}
	if o.MinForceInterval > 0 {
		encoderOpts = append(encoderOpts, market.WithMinForceInterval(o.MinForceInterval))
	}
	encoder := market.NewEncoder(profile, client, encoderOpts...)

	var handlerOpts []contract.Option
	if o.MaxMarketOrderAmount.IsPositive() {
		handlerOpts = append(handlerOpts, contract.WithMaxMarketOrderAmount(o.MaxMarketOrderAmount))
	}
	handler := contract.ForExchange(o.CapabilitiesFor(id), handlerOpts...)

	adapter, err := exchange.NewAdapter(client, encoder, handler)
	if err != nil {
		return nil, err
	}

	logger.GetLogger().WithComponent("registry").WithFields(logger.Fields{
		"exchange": id,
		"paper":    o.Paper,
		"relay":    len(o.RelayFunctions) > 0,
		"proxies":  len(o.ProxyPool) > 0,
	}).Info("exchange created")

	if o.Paper {
		var paperOpts []paper.Option
		if o.PaperLeverage.IsPositive() {
			paperOpts = append(paperOpts, paper.WithDefaultLeverage(o.PaperLeverage))
		}
		return paper.New(adapter, paper.NewMemoryOrderManager(o.PaperBalances), paperOpts...), nil
	}
	return adapter, nil
}

// newRouter 函数中继优先于地址池；两者都没有时直连
func newRouter(id string, o *option.ExchangeOptions) (*dispatch.Router, error) {
	routerOpts := []dispatch.RouterOption{dispatch.WithRateLimit(o.RateLimitRPS, o.RateLimitBurst)}

	if len(o.RelayFunctions) > 0 {
		if o.Invoker == nil {
			return nil, fmt.Errorf("%w: %s relay functions configured without an invoker", errs.ErrInvalidConfig, id)
		}
		functions, err := dispatch.NewPool(o.RelayFunctions)
		if err != nil {
			return nil, err
		}
		routerOpts = append(routerOpts, dispatch.WithRelay(dispatch.NewRelay(functions, o.Invoker)))
	}
	if len(o.ProxyPool) > 0 {
		proxies, err := dispatch.NewPool(o.ProxyPool)
		if err != nil {
			return nil, err
		}
		routerOpts = append(routerOpts, dispatch.WithProxyPool(proxies))
	}
	return dispatch.NewRouter(id, routerOpts...), nil
}

func newBinanceFutures(o *option.ExchangeOptions, router *dispatch.Router) (exchange.ProtocolClient, error) {
	client, err := binance.NewClient(binance.Options{
		APIKey:       o.APIKey,
		SecretKey:    o.SecretKey,
		BaseURL:      o.BaseURL,
		Sandbox:      o.Sandbox,
		Proxy:        o.Proxy,
		Timeout:      o.Timeout,
		Router:       router,
		Capabilities: o.Capabilities,
		ClockSkew:    o.ClockSkew,
		Partner: dispatch.PartnerSigner{
			Exchange:   ExchangeBinanceFutures,
			PartnerID:  o.PartnerID,
			PartnerKey: o.PartnerKey,
		},
	})
	if err != nil {
		return nil, err
	}
	return client, nil
}

func newBitmex(o *option.ExchangeOptions, router *dispatch.Router) (exchange.ProtocolClient, error) {
	client, err := bitmex.NewClient(bitmex.Options{
		APIKey:    o.APIKey,
		SecretKey: o.SecretKey,
		BaseURL:   o.BaseURL,
		Sandbox:   o.Sandbox,
		Proxy:     o.Proxy,
		Timeout:   o.Timeout,
		Router:    router,
	})
	if err != nil {
		return nil, err
	}
	return client, nil
}

// Register 向默认注册表注册交易所
func Register(name string, factory ExchangeFactory) {
	DefaultRegistry().Register(name, factory)
}

// NewExchange 用默认注册表创建交易所实例
func NewExchange(name string, opts ...option.Option) (exchange.Exchange, error) {
	return DefaultRegistry().NewExchange(name, opts...)
}

// GetSupportedExchanges 默认注册表支持的交易所
func GetSupportedExchanges() []string {
	return DefaultRegistry().Supported()
}

// IsExchangeSupported 检查默认注册表是否支持
func IsExchangeSupported(name string) bool {
	return DefaultRegistry().IsSupported(name)
}
