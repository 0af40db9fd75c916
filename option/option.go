package option

import (
	"strings"
	"time"

	"github.com/lemconn/exbridge/config"
	"github.com/lemconn/exbridge/dispatch"
	"github.com/lemconn/exbridge/market"
	"github.com/lemconn/exbridge/model"
	"github.com/shopspring/decimal"
)

// ExchangeOptions 交易所初始化选项
type ExchangeOptions struct {
	APIKey     string
	SecretKey  string
	PartnerID  string
	PartnerKey string
	Sandbox    bool
	Proxy      string
	BaseURL    string
	Timeout    time.Duration

	// Capabilities 为 nil 时使用交易所默认能力
	Capabilities *model.Capabilities
	ClockSkew    dispatch.ClockSkew

	ProxyPool      []dispatch.ProxyRange
	RelayFunctions []dispatch.ProxyRange
	Invoker        dispatch.FunctionInvoker
	RateLimitRPS   float64
	RateLimitBurst int

	MaxMarketOrderAmount decimal.Decimal

	MarketStore      market.Store
	MarketTTL        time.Duration
	MinForceInterval time.Duration

	Paper         bool
	PaperBalances map[string]decimal.Decimal
	PaperLeverage decimal.Decimal
}

// Option 初始化选项函数
type Option func(*ExchangeOptions)

// Apply 依次应用选项
func Apply(opts ...Option) *ExchangeOptions {
	o := &ExchangeOptions{}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	return o
}

// CapabilitiesFor 显式设置的能力优先
func (o *ExchangeOptions) CapabilitiesFor(exchange string) model.Capabilities {
	if o.Capabilities != nil {
		return *o.Capabilities
	}
	return model.DefaultCapabilities(exchange)
}

// WithAPIKey 设置 API Key
func WithAPIKey(apiKey string) Option {
	return func(o *ExchangeOptions) { o.APIKey = apiKey }
}

// WithSecretKey 设置 Secret Key
func WithSecretKey(secretKey string) Option {
	return func(o *ExchangeOptions) { o.SecretKey = secretKey }
}

// WithPartner 合作方 id 与密钥，能力中 PartnerSignature 为 true 时使用
func WithPartner(id, key string) Option {
	return func(o *ExchangeOptions) {
		o.PartnerID = id
		o.PartnerKey = key
	}
}

// WithSandbox 使用交易所测试网
func WithSandbox(sandbox bool) Option {
	return func(o *ExchangeOptions) { o.Sandbox = sandbox }
}

// WithProxy 固定代理
func WithProxy(proxy string) Option {
	return func(o *ExchangeOptions) { o.Proxy = proxy }
}

// WithBaseURL 覆盖基础地址
func WithBaseURL(baseURL string) Option {
	return func(o *ExchangeOptions) { o.BaseURL = baseURL }
}

// WithTimeout 请求超时
func WithTimeout(timeout time.Duration) Option {
	return func(o *ExchangeOptions) { o.Timeout = timeout }
}

// WithCapabilities 覆盖交易所能力
func WithCapabilities(caps model.Capabilities) Option {
	return func(o *ExchangeOptions) { o.Capabilities = &caps }
}

// WithClockSkew 时钟偏差备用签名窗口
func WithClockSkew(skew dispatch.ClockSkew) Option {
	return func(o *ExchangeOptions) { o.ClockSkew = skew }
}

// WithProxyPool 按请求轮换的中继地址
func WithProxyPool(ranges ...dispatch.ProxyRange) Option {
	return func(o *ExchangeOptions) { o.ProxyPool = ranges }
}

// WithRelay 函数中继；invoker 为 nil 时由调用方稍后补充
func WithRelay(invoker dispatch.FunctionInvoker, functions ...dispatch.ProxyRange) Option {
	return func(o *ExchangeOptions) {
		if invoker != nil {
			o.Invoker = invoker
		}
		if len(functions) > 0 {
			o.RelayFunctions = functions
		}
	}
}

// WithRateLimit 直连限速
func WithRateLimit(rps float64, burst int) Option {
	return func(o *ExchangeOptions) {
		o.RateLimitRPS = rps
		o.RateLimitBurst = burst
	}
}

// WithMaxMarketOrderAmount 市价单单笔上限
func WithMaxMarketOrderAmount(amount decimal.Decimal) Option {
	return func(o *ExchangeOptions) { o.MaxMarketOrderAmount = amount }
}

// WithMarketStore 市场缓存层，多个交易所可共用
func WithMarketStore(store market.Store) Option {
	return func(o *ExchangeOptions) { o.MarketStore = store }
}

// WithMarketTTL 市场快照有效期
func WithMarketTTL(ttl time.Duration) Option {
	return func(o *ExchangeOptions) { o.MarketTTL = ttl }
}

// WithMinForceInterval 未命中时强制重建的最小间隔
func WithMinForceInterval(d time.Duration) Option {
	return func(o *ExchangeOptions) { o.MinForceInterval = d }
}

// WithPaper 用模拟盘包装，balances 为初始余额
func WithPaper(balances map[string]decimal.Decimal) Option {
	return func(o *ExchangeOptions) {
		o.Paper = true
		o.PaperBalances = make(map[string]decimal.Decimal, len(balances))
		for currency, amount := range balances {
			o.PaperBalances[strings.ToUpper(currency)] = amount
		}
	}
}

// WithPaperLeverage 模拟盘默认杠杆
func WithPaperLeverage(leverage decimal.Decimal) Option {
	return func(o *ExchangeOptions) { o.PaperLeverage = leverage }
}

// FromConfig 把配置文件中的交易所段落转换为选项
func FromConfig(c config.ExchangeConfig) Option {
	return func(o *ExchangeOptions) {
		o.APIKey = c.APIKey
		o.SecretKey = c.SecretKey
		o.PartnerID = c.PartnerID
		o.PartnerKey = c.PartnerKey
		o.Sandbox = c.Sandbox
		o.Proxy = c.Proxy
		o.BaseURL = c.BaseURL
		o.Timeout = c.Timeout
		o.Capabilities = c.Capabilities
		o.ClockSkew = c.SkewOrDefault()
		o.ProxyPool = c.ProxyPool
		o.RelayFunctions = c.Relay.Functions
		o.RateLimitRPS = c.RateLimit.RPS
		o.RateLimitBurst = c.RateLimit.Burst
		o.MaxMarketOrderAmount = c.MaxMarketOrderAmount
		if c.MarketTTL > 0 {
			o.MarketTTL = c.MarketTTL
		}
		if c.Paper {
			WithPaper(c.PaperBalances)(o)
		}
	}
}
