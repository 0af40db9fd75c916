package model

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestExtraOrderParams_BuilderDoesNotMutate(t *testing.T) {
	base := NewExtraOrderParams().WithReduceOnly(true)
	withStop := base.WithStopPrice(decimal.NewFromInt(90))

	if base.StopPrice != nil {
		t.Fatalf("WithStopPrice mutated the receiver")
	}
	if withStop.StopPrice == nil || !withStop.StopPrice.Equal(decimal.NewFromInt(90)) {
		t.Fatalf("StopPrice not set on the copy")
	}
	if !withStop.IsReduceOnly() {
		t.Fatalf("copy lost ReduceOnly")
	}
}

func TestExtraOrderParams_Defaults(t *testing.T) {
	p := NewExtraOrderParams()
	if p.IsReduceOnly() || p.IsPostOnly() {
		t.Fatalf("unset flags must read as false")
	}
	if _, ok := p.ClientID(); ok {
		t.Fatalf("unset client id must report ok=false")
	}
	if _, ok := p.WithClientOrderID("").ClientID(); ok {
		t.Fatalf("empty client id must report ok=false")
	}
	id, ok := p.WithClientOrderID("abc").ClientID()
	if !ok || id != "abc" {
		t.Fatalf("ClientID()=(%q,%v), want (abc,true)", id, ok)
	}
	tif := p.WithTimeInForce(TimeInForceIOC).WithPostOnly(true).WithPositionSide(PositionSideShort)
	if *tif.TimeInForce != TimeInForceIOC || !tif.IsPostOnly() || *tif.PositionSide != PositionSideShort {
		t.Fatalf("builder chain lost a field: %+v", tif)
	}
}
