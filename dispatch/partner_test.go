package dispatch

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"testing"

	"github.com/lemconn/exbridge/errs"
)

func TestPartnerSigner_Headers(t *testing.T) {
	s := PartnerSigner{Exchange: "bybit", PartnerID: "zig", PartnerKey: "pk"}
	headers, err := s.Headers("api-key", 1700000000000)
	if err != nil {
		t.Fatalf("Headers() error = %v", err)
	}
	mac := hmac.New(sha256.New, []byte("pk"))
	mac.Write([]byte("1700000000000zigapi-key"))
	want := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	if headers[PartnerSignHeader] != want {
		t.Fatalf("sign = %s, want %s", headers[PartnerSignHeader], want)
	}
	if headers[PartnerIDHeader] != "zig" || headers[PartnerTimestampHeader] != "1700000000000" {
		t.Fatalf("unexpected headers %v", headers)
	}
}

func TestPartnerSigner_MissingCredentials(t *testing.T) {
	_, err := PartnerSigner{Exchange: "bybit", PartnerID: "zig"}.Headers("", 1)
	if !errors.Is(err, errs.ErrAuthConfig) {
		t.Fatalf("Headers() error = %v, want ErrAuthConfig", err)
	}
	var authErr *errs.AuthConfigError
	if !errors.As(err, &authErr) || len(authErr.Missing) != 2 {
		t.Fatalf("missing fields = %+v", authErr)
	}
}
