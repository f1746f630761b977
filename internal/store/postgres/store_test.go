package postgres

import (
	"testing"

	"github.com/faceguard/faceguard/internal/identity"
)

func TestVectorConversionRoundTrip(t *testing.T) {
	in := identity.Embedding{0.25, -0.5, 1, 0}
	out := fromVector(toVector(in))

	if len(out) != len(in) {
		t.Fatalf("length changed: %d != %d", len(out), len(in))
	}
	for i := range in {
		if out[i] != in[i] {
			t.Errorf("component %d changed: %v != %v", i, out[i], in[i])
		}
	}
}
