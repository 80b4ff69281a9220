package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatchesSKU(t *testing.T) {
	tests := []struct {
		listing string
		sku     string
		want    bool
	}{
		{"JAL00247", "JAL00247", true},
		{"JAL00247", "JAL00248", false},
		{"JAL00246, JAL00250", "JAL00250", true},
		{"JAL00246-JAL00248", "JAL00247", true},
		{"JAL00246-JAL00248", "JAL00246", true},
		{"JAL00246-JAL00248", "JAL00248", true},
		{"JAL00246-JAL00248", "JAL00249", false},
		{"JAL00246-JAL00248", "KAL00247", false},
		{"JAL00246-KAL00248", "JAL00247", false},
		{"JAL00248-JAL00246", "JAL00247", false},
		{"JAL00246-JAL00248,XY1", "XY1", true},
		{"JAL-ABC", "JAL00247", false},
		{"JAL00247", "jal00247", false},
		{"JAL00246, JAL00250", "jal00250", false},
		{"JAL00246-JAL00248", "jal00247", false},
		{"", "JAL00247", false},
	}

	for _, tt := range tests {
		t.Run(tt.listing+"/"+tt.sku, func(t *testing.T) {
			assert.Equal(t, tt.want, MatchesSKU(tt.listing, tt.sku))
		})
	}
}

func TestExpandSKUs(t *testing.T) {
	assert.Equal(t, []string{"JAL00246", "JAL00247", "JAL00248"}, ExpandSKUs("JAL00246-JAL00248"))
	assert.Equal(t, []string{"A1", "B2", "C0009", "C0010"}, ExpandSKUs("A1, B2,C0009-C0010, A1"))
	assert.Len(t, ExpandSKUs("X1-X100000"), MaxRangeExpansion)
}

func TestExpandSKUs_HugeRangeIsCapped(t *testing.T) {
	out := ExpandSKUs("A0-A9223372036854775807")
	assert.Len(t, out, MaxRangeExpansion)
	assert.Equal(t, "A0", out[0])

	out = ExpandSKUs("A9223372036854775806-A9223372036854775807")
	assert.Equal(t, []string{"A9223372036854775806", "A9223372036854775807"}, out)
}
