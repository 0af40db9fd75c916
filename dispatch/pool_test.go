package dispatch

import (
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/lemconn/exbridge/errs"
)

func TestPool_SelectCoverage(t *testing.T) {
	pool, err := NewPool([]ProxyRange{
		{URLTemplate: "http://relay-{index}.internal:8080", CredentialTemplate: "user{index}:pass", Min: 1, Max: 3},
		{URLTemplate: "http://relay-{index}.internal:8080", CredentialTemplate: "user{index}:pass", Min: 10, Max: 12},
	})
	if err != nil {
		t.Fatalf("NewPool() error = %v", err)
	}
	if pool.Size() != 6 {
		t.Fatalf("Size() = %d, want 6", pool.Size())
	}

	rng := rand.New(rand.NewPCG(42, 7))
	const draws = 10000
	counts := make(map[int]int)
	for i := 0; i < draws; i++ {
		sel, err := pool.Select(rng)
		if err != nil {
			t.Fatalf("Select() error = %v", err)
		}
		counts[sel.Index]++
	}

	allowed := map[int]bool{1: true, 2: true, 3: true, 10: true, 11: true, 12: true}
	for idx := range counts {
		if !allowed[idx] {
			t.Fatalf("drew index %d outside the configured ranges", idx)
		}
	}
	expected := draws / 6
	for idx := range allowed {
		got := counts[idx]
		if got < expected*85/100 || got > expected*115/100 {
			t.Errorf("index %d drawn %d times, expected about %d", idx, got, expected)
		}
	}
}

func TestPool_ResolveFormatsTemplates(t *testing.T) {
	pool, err := NewPool([]ProxyRange{
		{URLTemplate: "http://p{index}:3128", CredentialTemplate: "key-{index}", Min: 5, Max: 6},
		{URLTemplate: "http://static:3128", Min: 20, Max: 20},
	})
	if err != nil {
		t.Fatalf("NewPool() error = %v", err)
	}
	tests := []struct {
		slot       int
		url        string
		credential string
		index      int
	}{
		{0, "http://p5:3128", "key-5", 5},
		{1, "http://p6:3128", "key-6", 6},
		{2, "http://static:3128", "", 20},
	}
	for _, tt := range tests {
		sel, err := pool.Resolve(tt.slot)
		if err != nil {
			t.Fatalf("Resolve(%d) error = %v", tt.slot, err)
		}
		if sel.URL != tt.url || sel.Credential != tt.credential || sel.Index != tt.index {
			t.Errorf("Resolve(%d) = %+v", tt.slot, sel)
		}
	}
	if _, err := pool.Resolve(3); err == nil {
		t.Fatalf("Resolve(3) should be out of range")
	}
}

func TestNewPool_Validation(t *testing.T) {
	tests := []struct {
		name   string
		ranges []ProxyRange
	}{
		{"empty", nil},
		{"inverted", []ProxyRange{{URLTemplate: "u", Min: 5, Max: 1}}},
		{"negative", []ProxyRange{{URLTemplate: "u", Min: -1, Max: 1}}},
		{"overlap", []ProxyRange{{URLTemplate: "u", Min: 1, Max: 5}, {URLTemplate: "u", Min: 5, Max: 8}}},
		{"no template", []ProxyRange{{Min: 1, Max: 2}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewPool(tt.ranges); !errors.Is(err, errs.ErrInvalidConfig) {
				t.Fatalf("NewPool() error = %v, want ErrInvalidConfig", err)
			}
		})
	}
}
