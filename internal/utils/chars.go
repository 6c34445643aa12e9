package utils

// IsLower reports whether c is an ASCII lowercase letter.
func IsLower(c byte) bool {
	return c >= 'a' && c <= 'z'
}

// IsAlnum reports whether c is an ASCII letter or digit.
func IsAlnum(c byte) bool {
	return IsLower(c|0x20) || IsDigit(c)
}

// IsDigit reports whether c is an ASCII decimal digit.
func IsDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// IsHex reports whether c is an ASCII hex digit of either case.
func IsHex(c byte) bool {
	return IsDigit(c) || (c|0x20 >= 'a' && c|0x20 <= 'f')
}

// PercentEncodedAt reports whether s[i:] starts with a %XX escape.
func PercentEncodedAt(s string, i int) bool {
	return i+2 < len(s) && s[i] == '%' && IsHex(s[i+1]) && IsHex(s[i+2])
}

// HasPrefixFold is strings.HasPrefix with ASCII case folding on s.
func HasPrefixFold(s, prefix string) bool {
	if len(s) < len(prefix) {
		return false
	}
	for i := 0; i < len(prefix); i++ {
		c := s[i]
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		if c != prefix[i] {
			return false
		}
	}
	return true
}
