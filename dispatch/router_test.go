package dispatch

import (
	"context"
	"math/rand/v2"
	"testing"
	"time"
)

func TestRouter_Modes(t *testing.T) {
	direct := NewRouter("binance")
	rc, err := direct.Next()
	if err != nil || rc.Mode != ModeDirect || rc.Relayed() {
		t.Fatalf("direct Next() = %+v, %v", rc, err)
	}

	pool, _ := NewPool([]ProxyRange{{URLTemplate: "http://p{index}", CredentialTemplate: "c{index}", Min: 7, Max: 7}})
	proxied := NewRouter("binance", WithProxyPool(pool), WithRand(rand.New(rand.NewPCG(1, 2))))
	rc, err = proxied.Next()
	if err != nil || rc.Mode != ModeProxy || rc.ProxyURL != "http://p7" || rc.Credential != "c7" || rc.Index != 7 {
		t.Fatalf("proxy Next() = %+v, %v", rc, err)
	}

	functions, _ := NewPool([]ProxyRange{{URLTemplate: "fn-{index}", Min: 1, Max: 1}})
	relayed := NewRouter("binance", WithProxyPool(pool), WithRelay(NewRelay(functions, NewLambdaInvoker(&fakeLambda{}))))
	rc, err = relayed.Next()
	if err != nil || rc.Mode != ModeRelay || rc.Function != "fn-1" {
		t.Fatalf("relay Next() = %+v, %v", rc, err)
	}
	if relayed.Relay() == nil {
		t.Fatalf("Relay() should be set")
	}
}

func TestRouter_ThrottleSkippedWhenRelayed(t *testing.T) {
	r := NewRouter("binance", WithRateLimit(1, 1))
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	// the first token is available immediately, the second would wait ~1s
	if err := r.Throttle(ctx, RequestContext{Mode: ModeDirect}); err != nil {
		t.Fatalf("first Throttle() error = %v", err)
	}
	for i := 0; i < 5; i++ {
		if err := r.Throttle(ctx, RequestContext{Mode: ModeProxy}); err != nil {
			t.Fatalf("relayed Throttle() error = %v", err)
		}
	}
	if err := r.Throttle(ctx, RequestContext{Mode: ModeDirect}); err == nil {
		t.Fatalf("second direct Throttle() should exceed the deadline")
	}
}
