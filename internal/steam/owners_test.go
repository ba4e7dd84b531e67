package steam

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOwners(t *testing.T) {
	tests := []struct {
		in   string
		want *float64
	}{
		{"1,000,000 - 2,000,000", ptr(1500000)},
		{"1,000,000 .. 2,000,000", ptr(1500000)},
		{"1,000,000 – 2,000,000", ptr(1500000)},
		{"500,000", ptr(500000)},
		{"  20000  ", ptr(20000)},
		{"", nil},
		{"unknown", nil},
		{"1 - 2 - 3", nil},
		{"1,000 - lots", nil},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := ParseOwners(tt.in)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.InDelta(t, *tt.want, *got, 1e-9)
		})
	}
}

func ptr(v float64) *float64 { return &v }

func FuzzParseOwners(f *testing.F) {
	for _, seed := range []string{"1,000 - 2,000", "5", "a..b", "–"} {
		f.Add(seed)
	}
	f.Fuzz(func(t *testing.T, in string) {
		if got := ParseOwners(in); got != nil {
			assert.GreaterOrEqual(t, *got, 0.0)
		}
	})
}
