package errs

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrSymbolNotFound 内部/原生交易对没有映射
	ErrSymbolNotFound = errors.New("symbol not found")
	// ErrMarketNotFound 市场元数据不在当前缓存中
	ErrMarketNotFound = errors.New("market not found")
	// ErrExchange 交易所拒绝或传输失败
	ErrExchange = errors.New("exchange error")
	// ErrUpstream 中继/函数调用基础设施失败
	ErrUpstream = errors.New("upstream error")
	// ErrNotImplemented 当前交易所或模式不支持该操作
	ErrNotImplemented = errors.New("not implemented")
	// ErrAuthConfig 认证配置缺失
	ErrAuthConfig = errors.New("auth config error")
	// ErrInvalidMarket 市场元数据不合法（例如同时为反向和双币种合约）
	ErrInvalidMarket = errors.New("invalid market")
	// ErrExchangeNotSupported 不支持的交易所
	ErrExchangeNotSupported = errors.New("exchange not supported")
	// ErrInvalidConfig 配置不合法
	ErrInvalidConfig = errors.New("invalid config")
)

// SymbolNotFound 构造带交易所与交易对信息的 ErrSymbolNotFound
func SymbolNotFound(exchange, symbol string) error {
	return fmt.Errorf("%w: %s %s", ErrSymbolNotFound, exchange, symbol)
}

// MarketNotFound 构造带交易所与交易对信息的 ErrMarketNotFound
func MarketNotFound(exchange, symbol string) error {
	return fmt.Errorf("%w: %s %s", ErrMarketNotFound, exchange, symbol)
}

// NotImplemented 构造带操作名的 ErrNotImplemented
func NotImplemented(exchange, op string) error {
	return fmt.Errorf("%w: %s does not support %s", ErrNotImplemented, exchange, op)
}

// ExchangeError 交易所返回的错误，包装上游原因
type ExchangeError struct {
	Exchange string
	Op       string
	// Code 交易所错误码（如果有）
	Code string
	// Mutating 是否为会改变账户状态的调用（下单/撤单等），这类调用不应自动重试
	Mutating bool
	Err      error
}

func (e *ExchangeError) Error() string {
	var b strings.Builder
	b.WriteString("exchange error: ")
	b.WriteString(e.Exchange)
	if e.Op != "" {
		b.WriteString(" ")
		b.WriteString(e.Op)
	}
	if e.Code != "" {
		b.WriteString(" [")
		b.WriteString(e.Code)
		b.WriteString("]")
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *ExchangeError) Unwrap() error { return e.Err }

// Is 使 errors.Is(err, ErrExchange) 成立
func (e *ExchangeError) Is(target error) bool { return target == ErrExchange }

// UpstreamError 中继调用本身失败或返回的信封不合规
type UpstreamError struct {
	// Target 中继地址或函数名
	Target string
	Reason string
	// Op 与 Mutating 由 WrapExchange 填入，失败的下单可能已被中继发出
	Op       string
	Mutating bool
	Err      error
}

func (e *UpstreamError) Error() string {
	msg := "upstream error: " + e.Target
	if e.Op != "" {
		msg += " " + e.Op
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *UpstreamError) Unwrap() error { return e.Err }

func (e *UpstreamError) Is(target error) bool { return target == ErrUpstream }

// AuthConfigError 合作方签名等认证参数缺失
type AuthConfigError struct {
	Exchange string
	Missing  []string
}

func (e *AuthConfigError) Error() string {
	return fmt.Sprintf("auth config error: %s missing %s", e.Exchange, strings.Join(e.Missing, ", "))
}

func (e *AuthConfigError) Is(target error) bool { return target == ErrAuthConfig }

// WrapExchange 将上游错误包装为 ExchangeError；已分类的错误原样返回，UpstreamError 补上操作名与是否改变状态
func WrapExchange(exchange, op string, mutating bool, err error) error {
	if err == nil {
		return nil
	}
	var upErr *UpstreamError
	if errors.As(err, &upErr) {
		if upErr.Op == "" {
			upErr.Op = op
		}
		upErr.Mutating = upErr.Mutating || mutating
		return err
	}
	if Classified(err) {
		return err
	}
	return &ExchangeError{Exchange: exchange, Op: op, Mutating: mutating, Err: err}
}

// Classified 判断错误是否已经属于本包的某个分类
func Classified(err error) bool {
	for _, target := range []error{
		ErrSymbolNotFound, ErrMarketNotFound, ErrExchange, ErrUpstream,
		ErrNotImplemented, ErrAuthConfig, ErrInvalidMarket,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// Retryable 调用方是否可以安全地重试：只读调用的交易所错误与基础设施失败可以，下单撤单一律不可以
func Retryable(err error) bool {
	var exErr *ExchangeError
	if errors.As(err, &exErr) {
		return !exErr.Mutating
	}
	var upErr *UpstreamError
	if errors.As(err, &upErr) {
		return !upErr.Mutating
	}
	return false
}

// InvalidMarket 将市场校验失败包装为 ErrInvalidMarket
func InvalidMarket(err error) error {
	return fmt.Errorf("%w: %v", ErrInvalidMarket, err)
}
