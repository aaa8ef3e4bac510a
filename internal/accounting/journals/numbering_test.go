package journals

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatNumber(t *testing.T) {
	assert.Equal(t, "000001", FormatNumber(1))
	assert.Equal(t, "000042", FormatNumber(42))
	assert.Equal(t, "999999", FormatNumber(999999))
	assert.Equal(t, "1000000", FormatNumber(1000000))
}

func TestNextNumber(t *testing.T) {
	tests := []struct {
		name  string
		last  string
		want  string
		reset bool
	}{
		{"first entry", "", "000001", false},
		{"increment", "000001", "000002", false},
		{"carries digits", "000099", "000100", false},
		{"keeps width past padding", "999999", "1000000", false},
		{"garbage resets", "A-17", "000001", true},
		{"whitespace resets", "  ", "000001", true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, reset := NextNumber(tc.last)
			assert.Equal(t, tc.want, got)
			assert.Equal(t, tc.reset, reset)
		})
	}
}
