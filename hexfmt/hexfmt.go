// Package hexfmt renders machine words as fixed width upper case hex.
package hexfmt

const digits = "0123456789ABCDEF"

// Nibble renders the low 4 bits of v as a single digit.
func Nibble(v uint8) string {
	return digits[v&0xF : v&0xF+1]
}

// Byte renders v as two digits.
func Byte(v uint8) string {
	return format(uint16(v), 2)
}

// Addr renders a 12-bit address as three digits. Values that do not fit
// in 12 bits are rendered with four.
func Addr(v uint16) string {
	if v > 0xFFF {
		return format(v, 4)
	}
	return format(v, 3)
}

// Word renders v as four digits.
func Word(v uint16) string {
	return format(v, 4)
}

func format(v uint16, n int) string {
	var dst [4]byte
	for i := 3; i >= 0; i-- {
		dst[i] = digits[v&0xF]
		v >>= 4
	}
	return string(dst[4-n:])
}
