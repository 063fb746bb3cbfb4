package styles

import (
	"fmt"
	"strings"
)

// NormalizeColor converts "#RRGGBB", "RRGGBB", "#AARRGGBB" or "AARRGGBB" to
// upper-case ARGB. The empty string means "no color" and is returned as-is.
func NormalizeColor(c string) (string, error) {
	if c == "" {
		return "", nil
	}
	s := strings.TrimPrefix(strings.TrimSpace(c), "#")
	switch len(s) {
	case 6:
		s = "FF" + s
	case 8:
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidColor, c)
	}
	for i := 0; i < len(s); i++ {
		if !isHex(s[i]) {
			return "", fmt.Errorf("%w: %q", ErrInvalidColor, c)
		}
	}
	return strings.ToUpper(s), nil
}

func isHex(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}
