package htmlutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToText(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"<strong>Priya N.</strong> checked in from Seattle", "Priya N. checked in from Seattle"},
		{"<strong>Safety note:</strong> New update for Austin, TX", "Safety note: New update for Austin, TX"},
		{"plain", "plain"},
		{"Tom &amp; Jerry", "Tom & Jerry"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, ToText(tt.in))
		})
	}
}
