// internal/utils/slug_test.go
package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"50% Off Acme Widgets!", "50-off-acme-widgets"},
		{"  trimmed   spaces  ", "trimmed-spaces"},
		{"Déjà--vu___deal", "d-j-vu-deal"},
		{"already-a-slug", "already-a-slug"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Slugify(tt.in))
	}
}
