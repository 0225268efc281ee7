package format

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNumber(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{in: 0, want: "0"},
		{in: 950, want: "950"},
		{in: 1500, want: "1,500"},
		{in: 1250000, want: "1,250,000"},
		{in: 12.5, want: "12.50"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Number(tt.in))
	}
	assert.Equal(t, "$1,500", Money(1500))
	assert.Equal(t, "USD 1,500", Currency("USD", 1500))
	assert.Equal(t, "$20", Currency("", 20))
}

func TestDate(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{in: "2024-03-05T10:00:00.000Z", want: "Mar 05, 2024"},
		{in: "2024-12-25", want: "Dec 25, 2024"},
		{in: "next week", want: "next week"},
		{in: nil, want: ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Date(tt.in))
	}
}

func TestLabels(t *testing.T) {
	assert.Equal(t, "Pending", Status("pending"))
	assert.Equal(t, "Active", Active(true))
	assert.Equal(t, "Inactive", Active(nil))
	assert.Equal(t, "N/A", OrDefault("", "N/A"))
	assert.Equal(t, "x", OrDefault("x", "N/A"))
	assert.Equal(t, "2 applications", Count([]any{1, 2}, "applications"))
	assert.Equal(t, "0 applications", Count(nil, "applications"))
	assert.Equal(t, "abcdefg...", Truncate("abcdefghijklmnop", 10))
	assert.Equal(t, "short", Truncate("short", 10))
}
