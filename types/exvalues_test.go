package types

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestExValues_SetQueryKeepsOrder(t *testing.T) {
	v := NewExValues()
	v.SetQuery("symbol", "BTCUSDT")
	v.SetQuery("side", "BUY")
	v.SetQuery("quantity", decimal.RequireFromString("0.010"))
	v.SetQuery("reduceOnly", true)
	v.SetQuery("timestamp", int64(1700000000000))
	v.SetQuery("side", "SELL")

	want := "symbol=BTCUSDT&side=SELL&quantity=0.01&reduceOnly=true&timestamp=1700000000000"
	if got := v.EncodeQuery(); got != want {
		t.Fatalf("EncodeQuery() = %s, want %s", got, want)
	}
	if v.Len() != 5 {
		t.Fatalf("Len() = %d", v.Len())
	}
}

func TestExValues_SliceAndTime(t *testing.T) {
	v := NewExValues()
	v.SetQuery("ids", []int{1, 2})
	v.SetQuery("since", time.UnixMilli(1700000000123))
	v.SetQuery("ids", []string{"3"})

	if got := v.EncodeQuery(); got != "ids=3&since=1700000000123" {
		t.Fatalf("EncodeQuery() = %s", got)
	}
}

func TestExValues_DelQueryAndGet(t *testing.T) {
	v := NewExValues()
	v.SetQuery("a", 1)
	v.SetQuery("signature", "old")
	v.SetQuery("b", 2)
	v.DelQuery("signature")
	v.DelQuery("missing")

	if got := v.EncodeQuery(); got != "a=1&b=2" {
		t.Fatalf("EncodeQuery() = %s", got)
	}
	if v.GetQuery("signature") != "" || v.GetQuery("b") != "2" {
		t.Fatalf("GetQuery mismatch")
	}
}

func TestExValues_CloneIsIndependent(t *testing.T) {
	v := NewExValues()
	v.SetQuery("timestamp", 1000)
	c := v.Clone()
	c.SetQuery("timestamp", 2000)
	c.SetQuery("recvWindow", 5000)

	if v.EncodeQuery() != "timestamp=1000" {
		t.Fatalf("original mutated: %s", v.EncodeQuery())
	}
	if c.EncodeQuery() != "timestamp=2000&recvWindow=5000" {
		t.Fatalf("clone = %s", c.EncodeQuery())
	}
}

func TestParseExValues(t *testing.T) {
	v, err := ParseExValues("?timestamp=1000&recvWindow=5000&note=a%20b&signature=OLD&")
	if err != nil {
		t.Fatalf("ParseExValues() error = %v", err)
	}
	if v.GetQuery("note") != "a b" {
		t.Fatalf("note = %q", v.GetQuery("note"))
	}
	v.DelQuery("signature")
	if got := v.EncodeQuery(); got != "timestamp=1000&recvWindow=5000&note=a+b" {
		t.Fatalf("round trip = %s", got)
	}

	if _, err := ParseExValues("bad=%zz"); err == nil {
		t.Fatalf("expected unescape error")
	}
	empty, err := ParseExValues("")
	if err != nil || empty.Len() != 0 {
		t.Fatalf("empty parse = %d, %v", empty.Len(), err)
	}
}
