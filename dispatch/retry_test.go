package dispatch

import (
	"strings"
	"testing"
	"time"

	"github.com/lemconn/exbridge/types"
)

func TestPrepareRetryPair(t *testing.T) {
	const secret = "s3cr3t"
	skew := ClockSkew{FirstWindow: 5 * time.Second, SecondDelay: 1500 * time.Millisecond, SecondWindow: 60 * time.Second}

	pair, err := PrepareRetryPair("symbol=BTCUSDT&side=BUY&timestamp=1000&recvWindow=5000&signature=OLD", secret, skew)
	if err != nil {
		t.Fatalf("PrepareRetryPair() error = %v", err)
	}

	checks := []struct {
		name      string
		payload   SignedPayload
		timestamp string
		window    string
	}{
		{"primary", pair.Primary, "1000", "5000"},
		{"secondary", pair.Secondary, "2500", "60000"},
	}
	for _, c := range checks {
		t.Run(c.name, func(t *testing.T) {
			ok, err := VerifyPayload(c.payload.Payload, secret)
			if err != nil || !ok {
				t.Fatalf("signature does not verify: %v (%s)", err, c.payload.Payload)
			}
			if c.payload.Signature == "OLD" || strings.Contains(c.payload.Payload, "OLD") {
				t.Fatalf("old signature leaked: %s", c.payload.Payload)
			}
			values, err := types.ParseExValues(c.payload.Payload)
			if err != nil {
				t.Fatalf("ParseExValues() error = %v", err)
			}
			if got := values.GetQuery("timestamp"); got != c.timestamp {
				t.Errorf("timestamp = %s, want %s", got, c.timestamp)
			}
			if got := values.GetQuery("recvWindow"); got != c.window {
				t.Errorf("recvWindow = %s, want %s", got, c.window)
			}
			if got := values.GetQuery("symbol"); got != "BTCUSDT" {
				t.Errorf("symbol = %s, other fields must survive", got)
			}
		})
	}

	if pair.Primary.Signature == pair.Secondary.Signature {
		t.Fatalf("primary and secondary must be signed independently")
	}
	if got := pair.Header()[RetryPayloadHeader]; got != pair.Secondary.Payload {
		t.Fatalf("retry header = %q", got)
	}
	if ok, _ := VerifyPayload(pair.Primary.Payload, "other"); ok {
		t.Fatalf("signature verified with the wrong secret")
	}
}

func TestPrepareRetryPair_Errors(t *testing.T) {
	if _, err := PrepareRetryPair("symbol=BTCUSDT", "s", DefaultClockSkew); err == nil {
		t.Fatalf("payload without timestamp should fail")
	}
	if _, err := PrepareRetryPair("timestamp=1", "s", ClockSkew{}); err == nil {
		t.Fatalf("zero windows should fail validation")
	}
	if _, err := PrepareRetryPair("timestamp=1&bad=%zz", "s", DefaultClockSkew); err == nil {
		t.Fatalf("malformed payload should fail")
	}
}
