package binance

import (
	"time"

	"github.com/lemconn/exbridge/sign"
	"github.com/lemconn/exbridge/dispatch"
	"github.com/lemconn/exbridge/errs"
	"github.com/lemconn/exbridge/types"
)

// Signer Binance 签名工具
type Signer struct {
	secretKey string
	skew      dispatch.ClockSkew
	// pair 是否生成时钟偏差备用请求
	pair       bool
	partner    dispatch.PartnerSigner
	usePartner bool
}

// NewSigner 创建签名工具（不生成备用请求）
func NewSigner(secretKey string) *Signer {
	return &Signer{secretKey: secretKey, skew: dispatch.DefaultClockSkew}
}

// Sign 对查询字符串进行签名
func (s *Signer) Sign(queryString string) string {
	return sign.HMAC256Hex(queryString, s.secretKey)
}

// SignRequest 追加 timestamp 与 signature，返回最终查询串和需要附加的请求头
//
// 开启时钟偏差重试时，查询串为主请求，备用请求放在 X-Retry-Payload 头中。
func (s *Signer) SignRequest(values *types.ExValues, apiKey string, now time.Time) (string, map[string]string, error) {
	var missing []string
	if apiKey == "" {
		missing = append(missing, "api key")
	}
	if s.secretKey == "" {
		missing = append(missing, "secret key")
	}
	if len(missing) > 0 {
		return "", nil, &errs.AuthConfigError{Exchange: binanceFuturesName, Missing: missing}
	}

	timestamp := now.UnixMilli()
	values.DelQuery("signature")
	values.SetQuery("timestamp", timestamp)
	values.SetQuery("signature", s.Sign(values.EncodeQuery()))
	query := values.EncodeQuery()

	headers := make(map[string]string)
	if s.pair {
		pair, err := dispatch.PrepareRetryPair(query, s.secretKey, s.skew)
		if err != nil {
			return "", nil, err
		}
		query = pair.Primary.Payload
		for k, v := range pair.Header() {
			headers[k] = v
		}
	}
	if s.usePartner {
		partnerHeaders, err := s.partner.Headers(apiKey, timestamp)
		if err != nil {
			return "", nil, err
		}
		for k, v := range partnerHeaders {
			headers[k] = v
		}
	}
	return query, headers, nil
}
