package dispatch

import (
	"strconv"

	"github.com/lemconn/exbridge/errs"
	"github.com/lemconn/exbridge/sign"
)

const (
	// PartnerIDHeader 合作方 id 请求头
	PartnerIDHeader = "X-Partner-Id"
	// PartnerSignHeader 合作方签名请求头
	PartnerSignHeader = "X-Partner-Sign"
	// PartnerTimestampHeader 合作方签名时间戳请求头
	PartnerTimestampHeader = "X-Partner-Timestamp"
)

// PartnerSigner 合作方签名：base64(HMAC-SHA256(timestamp + partnerID + apiKey, partnerKey))
type PartnerSigner struct {
	Exchange   string
	PartnerID  string
	PartnerKey string
}

// Headers 生成合作方请求头；缺少 id、key 或 apiKey 时在发送前返回 AuthConfigError
func (s PartnerSigner) Headers(apiKey string, timestamp int64) (map[string]string, error) {
	var missing []string
	if s.PartnerID == "" {
		missing = append(missing, "partner id")
	}
	if s.PartnerKey == "" {
		missing = append(missing, "partner key")
	}
	if apiKey == "" {
		missing = append(missing, "api key")
	}
	if len(missing) > 0 {
		return nil, &errs.AuthConfigError{Exchange: s.Exchange, Missing: missing}
	}
	ts := strconv.FormatInt(timestamp, 10)
	return map[string]string{
		PartnerIDHeader:        s.PartnerID,
		PartnerTimestampHeader: ts,
		PartnerSignHeader:      sign.HMAC256Base64(ts+s.PartnerID+apiKey, s.PartnerKey),
	}, nil
}
