package bitmex

import (
	"strconv"
	"time"

	"github.com/lemconn/exbridge/sign"
	"github.com/lemconn/exbridge/errs"
)

const (
	headerExpires   = "api-expires"
	headerKey       = "api-key"
	headerSignature = "api-signature"
)

// Signer BitMEX 签名：hex(HMAC-SHA256(verb + path + expires + body))
type Signer struct {
	apiKey    string
	secretKey string
	expiry    time.Duration
}

// NewSigner 创建签名工具
func NewSigner(apiKey, secretKey string, expiry time.Duration) *Signer {
	return &Signer{apiKey: apiKey, secretKey: secretKey, expiry: expiry}
}

// Sign 计算签名，path 含查询串
func (s *Signer) Sign(verb, path string, expires int64, body string) string {
	return sign.HMAC256Hex(verb+path+strconv.FormatInt(expires, 10)+body, s.secretKey)
}

// Headers 生成鉴权请求头
func (s *Signer) Headers(verb, path, body string, now time.Time) (map[string]string, error) {
	var missing []string
	if s.apiKey == "" {
		missing = append(missing, "api key")
	}
	if s.secretKey == "" {
		missing = append(missing, "secret key")
	}
	if len(missing) > 0 {
		return nil, &errs.AuthConfigError{Exchange: bitmexName, Missing: missing}
	}
	expires := now.Add(s.expiry).Unix()
	return map[string]string{
		headerExpires:   strconv.FormatInt(expires, 10),
		headerKey:       s.apiKey,
		headerSignature: s.Sign(verb, path, expires, body),
	}, nil
}
