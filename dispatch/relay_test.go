package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/lemconn/exbridge/errs"
)

type fakeLambda struct {
	function string
	payload  []byte
	out      *lambda.InvokeOutput
	err      error
}

func (f *fakeLambda) Invoke(_ context.Context, in *lambda.InvokeInput, _ ...func(*lambda.Options)) (*lambda.InvokeOutput, error) {
	f.function = aws.ToString(in.FunctionName)
	f.payload = in.Payload
	return f.out, f.err
}

func newTestRelay(t *testing.T, api LambdaAPI) *Relay {
	t.Helper()
	pool, err := NewPool([]ProxyRange{{URLTemplate: "exbridge-relay-{index}", Min: 0, Max: 3}})
	if err != nil {
		t.Fatalf("NewPool() error = %v", err)
	}
	return NewRelay(pool, NewLambdaInvoker(api))
}

func TestRelay_DispatchEnvelope(t *testing.T) {
	api := &fakeLambda{out: &lambda.InvokeOutput{
		StatusCode: 200,
		Payload:    []byte(`{"statusCode":200,"headers":{"Content-Type":"application/json","X-Count":3},"body":"{\"ok\":true}"}`),
	}}
	relay := newTestRelay(t, api)

	resp, err := relay.Dispatch(context.Background(), RelayRequest{
		Method:  "post",
		URL:     "https://fapi.binance.com/fapi/v1/order",
		Headers: map[string]string{"X-MBX-APIKEY": "key"},
		Query:   map[string]string{"symbol": "BTCUSDT"},
		Body:    "a=b",
	})
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if resp.StatusCode != 200 || string(resp.Body) != `{"ok":true}` || resp.Headers["X-Count"] != "3" {
		t.Fatalf("unexpected response %+v", resp)
	}

	var sent map[string]any
	if err := json.Unmarshal(api.payload, &sent); err != nil {
		t.Fatalf("payload is not JSON: %v", err)
	}
	for _, key := range []string{"httpMethod", "headers", "queryStringParameters", "url", "body", "isBase64Encoded"} {
		if _, ok := sent[key]; !ok {
			t.Errorf("envelope missing %s: %v", key, sent)
		}
	}
	if sent["httpMethod"] != "POST" {
		t.Errorf("httpMethod = %v, want POST", sent["httpMethod"])
	}
	qs := sent["queryStringParameters"].(map[string]any)
	if qs["url"] != "https://fapi.binance.com/fapi/v1/order" || qs["symbol"] != "BTCUSDT" {
		t.Errorf("queryStringParameters = %v", qs)
	}
	if len(api.function) == 0 || api.function[:len("exbridge-relay-")] != "exbridge-relay-" {
		t.Errorf("function = %q", api.function)
	}
}

func TestRelay_Base64Body(t *testing.T) {
	api := &fakeLambda{out: &lambda.InvokeOutput{
		Payload: []byte(`{"statusCode":"201","headers":{},"body":"aGVsbG8=","isBase64Encoded":true}`),
	}}
	resp, err := newTestRelay(t, api).DispatchTo(context.Background(), "fn", RelayRequest{URL: "https://x"})
	if err != nil {
		t.Fatalf("DispatchTo() error = %v", err)
	}
	if resp.StatusCode != 201 || string(resp.Body) != "hello" {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestRelay_UpstreamErrors(t *testing.T) {
	tests := []struct {
		name string
		api  *fakeLambda
	}{
		{"invoke failure", &fakeLambda{err: errors.New("throttled")}},
		{"function error", &fakeLambda{out: &lambda.InvokeOutput{FunctionError: aws.String("Unhandled"), Payload: []byte(`{"errorMessage":"boom"}`)}}},
		{"missing statusCode", &fakeLambda{out: &lambda.InvokeOutput{Payload: []byte(`{"headers":{},"body":""}`)}}},
		{"missing headers", &fakeLambda{out: &lambda.InvokeOutput{Payload: []byte(`{"statusCode":200,"body":""}`)}}},
		{"missing body", &fakeLambda{out: &lambda.InvokeOutput{Payload: []byte(`{"statusCode":200,"headers":{}}`)}}},
		{"not json", &fakeLambda{out: &lambda.InvokeOutput{Payload: []byte(`gateway timeout`)}}},
		{"string isBase64Encoded", &fakeLambda{out: &lambda.InvokeOutput{Payload: []byte(`{"statusCode":200,"headers":{},"body":"aGVsbG8=","isBase64Encoded":"true"}`)}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newTestRelay(t, tt.api).Dispatch(context.Background(), RelayRequest{URL: "https://x"})
			if !errors.Is(err, errs.ErrUpstream) {
				t.Fatalf("Dispatch() error = %v, want ErrUpstream", err)
			}
			if errors.Is(err, errs.ErrExchange) {
				t.Fatalf("relay failures must not look like exchange rejections")
			}
		})
	}
}
