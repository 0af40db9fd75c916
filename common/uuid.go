package common

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// UUID16 16 位十六进制随机串
func UUID16() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:16]
}

// GenerateClientOrderID 生成客户端订单号
// 格式: exb-{exchange}-{UUID16}，例如 exb-binancefutures-caa54b21bbabadd4
func GenerateClientOrderID(exchange string) string {
	return fmt.Sprintf("exb-%s-%s", strings.ToLower(exchange), UUID16())
}
