// Package sign 交易所请求签名共用的 HMAC-SHA256 工具
package sign

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
)

func sum(message, secret string) []byte {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(message))
	return mac.Sum(nil)
}

// HMAC256Hex hex(HMAC-SHA256(message, secret))，Binance 查询串与 BitMEX 请求头共用
func HMAC256Hex(message, secret string) string {
	return hex.EncodeToString(sum(message, secret))
}

// HMAC256Base64 base64(HMAC-SHA256(message, secret))，用于合作方签名
func HMAC256Base64(message, secret string) string {
	return base64.StdEncoding.EncodeToString(sum(message, secret))
}

// VerifyHMAC256Hex 常量时间比较 hex 签名
func VerifyHMAC256Hex(message, secret, signature string) bool {
	return hmac.Equal([]byte(HMAC256Hex(message, secret)), []byte(signature))
}
