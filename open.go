package exbridge

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/lemconn/exbridge/config"
	"github.com/lemconn/exbridge/dispatch"
	"github.com/lemconn/exbridge/exchange"
	"github.com/lemconn/exbridge/logger"
	"github.com/lemconn/exbridge/market"
	"github.com/lemconn/exbridge/option"
	"github.com/redis/go-redis/v9"
)

// Exchanges 按配置创建的一组交易所，共用市场缓存与函数中继
type Exchanges struct {
	byName map[string]exchange.Exchange
	redis  *redis.Client
}

// Get 按 id 获取交易所
func (e *Exchanges) Get(name string) (exchange.Exchange, bool) {
	ex, ok := e.byName[NormalizeID(name)]
	return ex, ok
}

// Names 已创建的交易所 id
func (e *Exchanges) Names() []string {
	names := make([]string, 0, len(e.byName))
	for name := range e.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Close 关闭全部交易所与 redis 连接
func (e *Exchanges) Close() error {
	var first error
	for _, ex := range e.byName {
		if err := ex.Close(); err != nil && first == nil {
			first = err
		}
	}
	if e.redis != nil {
		if err := e.redis.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Open 按配置创建全部交易所
//
// 配置了 redis 时市场数据写入 redis 供多个进程共用；任一交易所配置了函数中继时创建 Lambda 调用器。
func (r *Registry) Open(ctx context.Context, cfg *config.Config) (*Exchanges, error) {
	if err := logger.GetLogger().Configure(cfg.Log.Level, cfg.Log.Format, cfg.Log.Output, cfg.Log.MaxAge); err != nil {
		return nil, err
	}
	log := logger.GetLogger().WithComponent("registry")

	out := &Exchanges{byName: make(map[string]exchange.Exchange, len(cfg.Exchanges))}

	var store market.Store = market.NewMemoryStore()
	if cfg.Redis.Addr != "" {
		out.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := out.redis.Ping(ctx).Err(); err != nil {
			out.redis.Close()
			return nil, fmt.Errorf("failed to connect redis %s: %w", cfg.Redis.Addr, err)
		}
		store = market.NewRedisStore(out.redis, cfg.Markets.Prefix)
	}

	var invoker dispatch.FunctionInvoker
	for _, ex := range cfg.Exchanges {
		if !ex.Relay.Enabled() {
			continue
		}
		lambdaInvoker, err := dispatch.NewLambdaInvokerFromConfig(ctx, cfg.AWS)
		if err != nil {
			out.Close()
			return nil, err
		}
		invoker = lambdaInvoker
		break
	}

	names := make([]string, 0, len(cfg.Exchanges))
	for name := range cfg.Exchanges {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		exCfg := cfg.Exchanges[name]
		ex, err := r.NewExchange(name,
			option.FromConfig(exCfg),
			option.WithMarketStore(store),
			option.WithMarketTTL(marketTTL(exCfg, cfg.Markets)),
			option.WithMinForceInterval(cfg.Markets.MinForceInterval),
			option.WithRelay(invoker),
		)
		if err != nil {
			out.Close()
			return nil, fmt.Errorf("exchange %s: %w", name, err)
		}
		out.byName[NormalizeID(name)] = ex
	}
	log.WithFields(logger.Fields{"exchanges": out.Names()}).Info("exchanges opened")
	return out, nil
}

// Open 用默认注册表按配置创建交易所
func Open(ctx context.Context, cfg *config.Config) (*Exchanges, error) {
	return DefaultRegistry().Open(ctx, cfg)
}

func marketTTL(ex config.ExchangeConfig, markets config.MarketsConfig) time.Duration {
	if ex.MarketTTL > 0 {
		return ex.MarketTTL
	}
	return markets.TTL
}
