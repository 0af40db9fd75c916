package types

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ExTimestamp 交易所返回的时间：整数秒/毫秒/微秒/纳秒，或 RFC3339 字符串（BitMEX）
type ExTimestamp struct {
	time.Time
}

// epochUnits 按数字位数判断单位
var epochUnits = map[int]func(int64) time.Time{
	10: func(v int64) time.Time { return time.Unix(v, 0) },
	13: time.UnixMilli,
	16: time.UnixMicro,
	19: func(v int64) time.Time { return time.Unix(0, v) },
}

func (t *ExTimestamp) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(strings.Trim(string(b), `"`))
	if s == "" || s == "null" || s == "0" {
		t.Time = time.Time{}
		return nil
	}
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		toTime, ok := epochUnits[len(s)]
		if !ok {
			return fmt.Errorf("unsupported timestamp length: %d (%s)", len(s), s)
		}
		t.Time = toTime(v)
		return nil
	}
	parsed, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return fmt.Errorf("invalid timestamp %s: %w", s, err)
	}
	t.Time = parsed
	return nil
}

// MarshalJSON 统一输出毫秒
func (t ExTimestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("0"), nil
	}
	return []byte(strconv.FormatInt(t.UnixMilli(), 10)), nil
}
