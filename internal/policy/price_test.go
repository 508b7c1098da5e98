// internal/policy/price_test.go
package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDerivePercentageOff(t *testing.T) {
	tests := []struct {
		name     string
		original float64
		discount float64
		want     string
		ok       bool
	}{
		{"no discount", 100, 0, "0%", true},
		{"discount equals original", 100, 100, "0%", true},
		{"discount above original", 100, 150, "0%", true},
		{"quarter off", 200, 150, "25%", true},
		{"rounds half up", 3, 2, "33%", true},
		{"rounds up from half", 200, 149, "26%", true},
		{"zero original is a no-op", 0, 50, "", false},
		{"negative original is a no-op", -10, 5, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := DerivePercentageOff(tt.original, tt.discount)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
