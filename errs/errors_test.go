package errs

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestExchangeError_IsAndUnwrap(t *testing.T) {
	cause := errors.New("http error 400: {\"code\":-2010}")
	err := WrapExchange("binancefutures", "CreateOrder", true, cause)

	if !errors.Is(err, ErrExchange) {
		t.Fatalf("errors.Is(err, ErrExchange)=false, want true")
	}
	if !errors.Is(err, cause) {
		t.Fatalf("cause is not reachable through Unwrap")
	}
	if Retryable(err) {
		t.Fatalf("mutating exchange error must not be retryable")
	}
	if errors.Is(err, ErrUpstream) {
		t.Fatalf("exchange error must not match ErrUpstream")
	}
}

func TestWrapExchange_KeepsClassifiedErrors(t *testing.T) {
	tests := []error{
		SymbolNotFound("bitmex", "NOPE"),
		NotImplemented("paper", "Withdraw"),
		&UpstreamError{Target: "relay-1", Reason: "missing statusCode"},
		&AuthConfigError{Exchange: "kucoin", Missing: []string{"partner id"}},
	}
	for _, in := range tests {
		out := WrapExchange("x", "op", false, in)
		if out != in {
			t.Errorf("WrapExchange(%v) rewrapped a classified error", in)
		}
	}
	if WrapExchange("x", "op", false, nil) != nil {
		t.Errorf("WrapExchange(nil) must be nil")
	}
}

func TestRetryable(t *testing.T) {
	read := WrapExchange("bitmex", "FetchBalance", false, errors.New("503"))
	if !Retryable(read) {
		t.Errorf("read-only exchange error should be retryable")
	}
	if !Retryable(fmt.Errorf("dispatch: %w", &UpstreamError{Target: "fn"})) {
		t.Errorf("upstream error on a read should be retryable")
	}
	if Retryable(&UpstreamError{Target: "fn", Mutating: true}) {
		t.Errorf("mutating upstream error must not be retryable")
	}
	if Retryable(SymbolNotFound("bitmex", "NOPE")) {
		t.Errorf("symbol not found is terminal")
	}
}

func TestWrapExchange_MarksMutatingUpstream(t *testing.T) {
	up := &UpstreamError{Target: "relay-3", Reason: "invoke failed", Err: errors.New("timeout")}
	err := WrapExchange("bitmex", "CreateOrder", true, fmt.Errorf("dispatch: %w", up))

	if !errors.Is(err, ErrUpstream) {
		t.Fatalf("errors.Is(err, ErrUpstream)=false, want true")
	}
	if errors.Is(err, ErrExchange) {
		t.Fatalf("relay failure must stay distinct from ErrExchange")
	}
	if Retryable(err) {
		t.Fatalf("failed CreateOrder through a relay must not be retryable")
	}
	if up.Op != "CreateOrder" || !up.Mutating {
		t.Fatalf("UpstreamError op=%q mutating=%v", up.Op, up.Mutating)
	}
	if !strings.Contains(err.Error(), "CreateOrder") {
		t.Fatalf("Error()=%q should name the operation", err.Error())
	}

	read := WrapExchange("bitmex", "FetchBalance", false, &UpstreamError{Target: "relay-3"})
	if !Retryable(read) {
		t.Fatalf("failed FetchBalance through a relay should be retryable")
	}
}

func TestAuthConfigError_Message(t *testing.T) {
	err := &AuthConfigError{Exchange: "kucoin", Missing: []string{"partner id", "partner key"}}
	if !errors.Is(err, ErrAuthConfig) {
		t.Fatalf("errors.Is(err, ErrAuthConfig)=false")
	}
	want := "auth config error: kucoin missing partner id, partner key"
	if err.Error() != want {
		t.Fatalf("Error()=%q, want %q", err.Error(), want)
	}
}
