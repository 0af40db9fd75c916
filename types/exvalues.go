package types

import (
	"encoding/json"
	"fmt"
	"net/url"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ExValues 保持插入顺序的查询参数
//
// 签名计算在 EncodeQuery 的结果上进行，发送的字节与签名的字节一致；
// 时钟偏差重试据此在解析后的查询串上重新签名。
type ExValues struct {
	order  []string
	values map[string][]string
}

// NewExValues 创建空参数
func NewExValues() *ExValues {
	return &ExValues{values: make(map[string][]string)}
}

// ParseExValues 解析查询串或表单体，保留原始键顺序并反转义
func ParseExValues(raw string) (*ExValues, error) {
	v := NewExValues()
	raw = strings.TrimPrefix(raw, "?")
	for _, part := range strings.Split(raw, "&") {
		if part == "" {
			continue
		}
		key, value, _ := strings.Cut(part, "=")
		k, err := url.QueryUnescape(key)
		if err != nil {
			return nil, fmt.Errorf("invalid query key %q: %w", key, err)
		}
		val, err := url.QueryUnescape(value)
		if err != nil {
			return nil, fmt.Errorf("invalid query value for %q: %w", k, err)
		}
		v.append(k, val)
	}
	return v, nil
}

func (v *ExValues) append(key string, vs ...string) {
	if _, ok := v.values[key]; !ok {
		v.order = append(v.order, key)
	}
	v.values[key] = append(v.values[key], vs...)
}

// SetQuery 设置参数并替换旧值，切片展开为多个值；首次出现的键追加到末尾
func (v *ExValues) SetQuery(key string, value any) {
	if _, ok := v.values[key]; !ok {
		v.order = append(v.order, key)
	}
	v.values[key] = toStrings(value)
}

// DelQuery 删除参数
func (v *ExValues) DelQuery(key string) {
	if _, ok := v.values[key]; !ok {
		return
	}
	delete(v.values, key)
	for i, k := range v.order {
		if k == key {
			v.order = append(v.order[:i], v.order[i+1:]...)
			return
		}
	}
}

// GetQuery 第一个值，不存在时为空
func (v *ExValues) GetQuery(key string) string {
	if vs := v.values[key]; len(vs) > 0 {
		return vs[0]
	}
	return ""
}

// Len 参数个数
func (v *ExValues) Len() int { return len(v.order) }

// EncodeQuery 按插入顺序编码
func (v *ExValues) EncodeQuery() string {
	var buf strings.Builder
	for _, key := range v.order {
		k := url.QueryEscape(key)
		for _, value := range v.values[key] {
			if buf.Len() > 0 {
				buf.WriteByte('&')
			}
			buf.WriteString(k)
			buf.WriteByte('=')
			buf.WriteString(url.QueryEscape(value))
		}
	}
	return buf.String()
}

// Clone 深拷贝
func (v *ExValues) Clone() *ExValues {
	c := &ExValues{order: append([]string(nil), v.order...), values: make(map[string][]string, len(v.values))}
	for k, vs := range v.values {
		c.values[k] = append([]string(nil), vs...)
	}
	return c
}

func toStrings(value any) []string {
	switch val := value.(type) {
	case nil:
		return []string{""}
	case string:
		return []string{val}
	case []string:
		return append([]string(nil), val...)
	case json.RawMessage:
		return []string{string(val)}
	case bool:
		return []string{strconv.FormatBool(val)}
	case int:
		return []string{strconv.Itoa(val)}
	case int64:
		return []string{strconv.FormatInt(val, 10)}
	case float64:
		return []string{strconv.FormatFloat(val, 'f', -1, 64)}
	case decimal.Decimal:
		return []string{val.String()}
	case ExDecimal:
		return []string{val.String()}
	case time.Time:
		return []string{strconv.FormatInt(val.UnixMilli(), 10)}
	case fmt.Stringer:
		return []string{val.String()}
	}

	rv := reflect.ValueOf(value)
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		out := make([]string, 0, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			out = append(out, toStrings(rv.Index(i).Interface())...)
		}
		return out
	}
	return []string{fmt.Sprintf("%v", value)}
}
