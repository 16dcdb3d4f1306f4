package common

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatBalance(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   int64
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{1234567, "1,234,567"},
		{-25000, "-25,000"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatBalance(tt.in))
	}
}

func TestFormatSigned(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "+1,500", FormatSigned(1500))
	assert.Equal(t, "-20", FormatSigned(-20))
	assert.Equal(t, "0", FormatSigned(0))
}

func TestFormatWait(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   time.Duration
		want string
	}{
		{42 * time.Second, "42s"},
		{14*time.Minute + 10*time.Second, "14m"},
		{23*time.Hour + 5*time.Minute, "23h 5m"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatWait(tt.in))
	}
}
