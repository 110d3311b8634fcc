package hexfmt

import (
	"testing"

	"github.com/retroenv/retrogolib/assert"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		name     string
		got      string
		expected string
	}{
		{"nibble", Nibble(0xA), "A"},
		{"nibble high bits ignored", Nibble(0x3C), "C"},
		{"byte", Byte(0x0F), "0F"},
		{"addr", Addr(0x200), "200"},
		{"addr leading zero", Addr(0x050), "050"},
		{"addr wide", Addr(0x1234), "1234"},
		{"word", Word(0x00E0), "00E0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.got)
		})
	}
}
