package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseOrDefault(t *testing.T) {
	def := 5 * time.Second
	tests := map[string]time.Duration{
		"":      def,
		"  ":    def,
		"bogus": def,
		"-1s":   def,
		"0":     0,
		"30s":   30 * time.Second,
		" 2m ":  2 * time.Minute,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseOrDefault(in, def), "input %q", in)
	}
}

func TestOrDefault(t *testing.T) {
	assert.Equal(t, time.Second, OrDefault(0, time.Second))
	assert.Equal(t, time.Second, OrDefault(-time.Minute, time.Second))
	assert.Equal(t, time.Minute, OrDefault(time.Minute, time.Second))
}
