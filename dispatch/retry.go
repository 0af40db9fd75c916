package dispatch

import (
	"fmt"
	"strconv"
	"time"

	"github.com/lemconn/exbridge/sign"
	"github.com/lemconn/exbridge/types"
)

// RetryPayloadHeader 备用签名请求所在的请求头
const RetryPayloadHeader = "X-Retry-Payload"

// ClockSkew 时钟偏差重试的时间窗口
type ClockSkew struct {
	// FirstWindow 主请求的 recvWindow
	FirstWindow time.Duration `mapstructure:"first_window" json:"first_window"`
	// SecondDelay 备用请求的时间戳偏移
	SecondDelay time.Duration `mapstructure:"second_delay" json:"second_delay"`
	// SecondWindow 备用请求的 recvWindow
	SecondWindow time.Duration `mapstructure:"second_window" json:"second_window"`
}

// DefaultClockSkew 默认窗口：5s / +1s / 60s
var DefaultClockSkew = ClockSkew{
	FirstWindow:  5 * time.Second,
	SecondDelay:  time.Second,
	SecondWindow: 60 * time.Second,
}

// Validate 检查窗口配置
func (c ClockSkew) Validate() error {
	if c.FirstWindow <= 0 || c.SecondWindow <= 0 {
		return fmt.Errorf("clock skew windows must be positive: %s/%s", c.FirstWindow, c.SecondWindow)
	}
	if c.SecondDelay < 0 {
		return fmt.Errorf("clock skew delay must not be negative: %s", c.SecondDelay)
	}
	return nil
}

// SignedPayload 签好名的查询串
type SignedPayload struct {
	Payload   string
	Signature string
	Timestamp int64
	// RecvWindow 毫秒
	RecvWindow int64
}

// SignedRequestPair 主请求与备用请求
type SignedRequestPair struct {
	Primary   SignedPayload
	Secondary SignedPayload
}

// Header 备用请求的请求头
func (p SignedRequestPair) Header() map[string]string {
	return map[string]string{RetryPayloadHeader: p.Secondary.Payload}
}

// PrepareRetryPair 去掉原签名后生成两份独立有效的签名
//
// 主请求沿用原时间戳，recvWindow = FirstWindow；备用请求时间戳加 SecondDelay，recvWindow = SecondWindow。
func PrepareRetryPair(payload, secret string, skew ClockSkew) (SignedRequestPair, error) {
	if err := skew.Validate(); err != nil {
		return SignedRequestPair{}, err
	}
	values, err := types.ParseExValues(payload)
	if err != nil {
		return SignedRequestPair{}, fmt.Errorf("parse signed payload: %w", err)
	}
	values.DelQuery("signature")

	raw := values.GetQuery("timestamp")
	timestamp, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return SignedRequestPair{}, fmt.Errorf("signed payload has no usable timestamp %q", raw)
	}

	primary := signValues(values.Clone(), secret, timestamp, skew.FirstWindow.Milliseconds())
	secondary := signValues(values.Clone(), secret, timestamp+skew.SecondDelay.Milliseconds(), skew.SecondWindow.Milliseconds())
	return SignedRequestPair{Primary: primary, Secondary: secondary}, nil
}

func signValues(values *types.ExValues, secret string, timestamp, recvWindow int64) SignedPayload {
	values.SetQuery("timestamp", timestamp)
	values.SetQuery("recvWindow", recvWindow)
	signature := sign.HMAC256Hex(values.EncodeQuery(), secret)
	values.SetQuery("signature", signature)
	return SignedPayload{
		Payload:    values.EncodeQuery(),
		Signature:  signature,
		Timestamp:  timestamp,
		RecvWindow: recvWindow,
	}
}

// VerifyPayload 校验查询串中的 signature 是否与其余字段匹配
func VerifyPayload(payload, secret string) (bool, error) {
	values, err := types.ParseExValues(payload)
	if err != nil {
		return false, err
	}
	signature := values.GetQuery("signature")
	if signature == "" {
		return false, nil
	}
	values.DelQuery("signature")
	return sign.VerifyHMAC256Hex(values.EncodeQuery(), secret, signature), nil
}
