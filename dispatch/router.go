package dispatch

import (
	"context"

	"github.com/lemconn/exbridge/logger"
	"golang.org/x/time/rate"
)

// Mode 请求的发送方式
type Mode string

const (
	// ModeDirect 直连交易所，受本地限速
	ModeDirect Mode = "direct"
	// ModeProxy 经由中继地址
	ModeProxy Mode = "proxy"
	// ModeRelay 经由函数中继
	ModeRelay Mode = "relay"
)

// RequestContext 单次调用的中继选择结果，随调用传递，不在调用之间共享
type RequestContext struct {
	Mode       Mode
	ProxyURL   string
	Function   string
	Credential string
	Index      int
}

// Relayed 是否经由中继发送
func (rc RequestContext) Relayed() bool {
	return rc.Mode == ModeProxy || rc.Mode == ModeRelay
}

// Router 单个交易所的发送路由
type Router struct {
	exchange string
	proxies  *Pool
	relay    *Relay
	limiter  *rate.Limiter
	rng      Rand
	log      *logger.Entry
}

// RouterOption 路由选项
type RouterOption func(*Router)

// WithProxyPool 启用中继地址池
func WithProxyPool(pool *Pool) RouterOption {
	return func(r *Router) { r.proxies = pool }
}

// WithRelay 启用函数中继，优先于地址池
func WithRelay(relay *Relay) RouterOption {
	return func(r *Router) { r.relay = relay }
}

// WithRateLimit 直连时的本地限速，rps <= 0 表示不限速
func WithRateLimit(rps float64, burst int) RouterOption {
	return func(r *Router) {
		if rps <= 0 {
			r.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		r.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithRand 替换随机数来源
func WithRand(rng Rand) RouterOption {
	return func(r *Router) {
		if rng != nil {
			r.rng = rng
		}
	}
}

// NewRouter 创建路由；不带选项时为直连且不限速
func NewRouter(exchange string, opts ...RouterOption) *Router {
	r := &Router{
		exchange: exchange,
		rng:      globalRand{},
		log:      logger.GetLogger().WithComponent("dispatch").WithFields(logger.Fields{"exchange": exchange}),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Relay 返回函数中继，未启用时为 nil
func (r *Router) Relay() *Relay {
	return r.relay
}

// Next 为一次调用选择发送方式
func (r *Router) Next() (RequestContext, error) {
	switch {
	case r.relay != nil:
		sel, err := r.relay.SelectFunction()
		if err != nil {
			return RequestContext{}, err
		}
		r.log.WithFields(logger.Fields{"function": sel.URL, "index": sel.Index}).Debug("relay function selected")
		return RequestContext{Mode: ModeRelay, Function: sel.URL, Credential: sel.Credential, Index: sel.Index}, nil
	case r.proxies != nil:
		sel, err := r.proxies.Select(r.rng)
		if err != nil {
			return RequestContext{}, err
		}
		r.log.WithFields(logger.Fields{"index": sel.Index}).Debug("proxy selected")
		return RequestContext{Mode: ModeProxy, ProxyURL: sel.URL, Credential: sel.Credential, Index: sel.Index}, nil
	default:
		return RequestContext{Mode: ModeDirect}, nil
	}
}

// Throttle 直连时等待本地限速；经由中继时跳过，由中继轮换承担限速
func (r *Router) Throttle(ctx context.Context, rc RequestContext) error {
	if rc.Relayed() || r.limiter == nil {
		return nil
	}
	return r.limiter.Wait(ctx)
}
