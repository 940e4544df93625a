// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package numeric

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseEngineeringNumber(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   float64
		wantOK bool
	}{
		{"plain integer", "100", 100, true},
		{"dot decimal", "1.6", 1.6, true},
		{"comma decimal", "1,6", 1.6, true},
		{"surrounding whitespace", "  42.5 \t", 42.5, true},
		{"negative", "-3,25", -3.25, true},
		{"exponent", "1.2e3", 1200, true},
		{"empty", "", 0, false},
		{"whitespace only", "   ", 0, false},
		{"text", "n/a", 0, false},
		{"thousands and decimal", "1,600.5", 0, false},
		{"nan literal", "NaN", 0, false},
		{"infinity literal", "Inf", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseEngineeringNumber(tt.input)
			assert.Equal(t, tt.wantOK, ok)
			assert.InDelta(t, tt.want, got, 1e-12)
		})
	}
}

func TestIsFinite(t *testing.T) {
	assert.True(t, IsFinite(0))
	assert.False(t, IsFinite(math.NaN()))
	assert.False(t, IsFinite(math.Inf(-1)))
}

func TestFormat(t *testing.T) {
	assert.Equal(t, Placeholder, Format(nil, 2))
	assert.Equal(t, "22.00", Format(Ptr(22), 2))
	assert.Equal(t, "-2.0", Format(Ptr(-2), 1))
}
