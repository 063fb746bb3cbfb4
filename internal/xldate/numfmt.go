package xldate

import "strings"

// IsBuiltinDateFormat reports whether a built-in number format id renders
// its value as a date or time.
func IsBuiltinDateFormat(id int) bool {
	return (id >= 14 && id <= 22) || (id >= 45 && id <= 47)
}

// IsDateFormat classifies a number format as a date/time format. Built-in
// ids decide on their own; custom codes are scanned for date letters with no
// digit placeholders outside quoted literals and bracketed sections.
func IsDateFormat(id int, code string) bool {
	if IsBuiltinDateFormat(id) {
		return true
	}
	if code == "" {
		return false
	}
	return isDateCode(code)
}

func isDateCode(code string) bool {
	// Only the first section (positive numbers) matters.
	section := code
	if i := sectionEnd(code); i >= 0 {
		section = code[:i]
	}

	hasDate := false
	for i := 0; i < len(section); i++ {
		c := section[i]
		switch c {
		case '"':
			end := strings.IndexByte(section[i+1:], '"')
			if end < 0 {
				return hasDate
			}
			i += end + 1
		case '\\', '_', '*':
			i++ // the next character is a literal or a fill/pad
		case '[':
			end := strings.IndexByte(section[i+1:], ']')
			if end < 0 {
				return hasDate
			}
			inner := strings.ToLower(section[i+1 : i+1+end])
			if isElapsed(inner) {
				hasDate = true
			}
			i += end + 1
		case '0', '#', '?':
			return false
		default:
			switch c | 0x20 {
			case 'y', 'm', 'd', 'h', 's':
				hasDate = true
			}
		}
	}
	return hasDate
}

// sectionEnd returns the index of the first unquoted ';', or -1.
func sectionEnd(code string) int {
	inQuote := false
	for i := 0; i < len(code); i++ {
		switch code[i] {
		case '"':
			inQuote = !inQuote
		case '\\':
			i++
		case ';':
			if !inQuote {
				return i
			}
		}
	}
	return -1
}

func isElapsed(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] != s[0] {
			return false
		}
	}
	return s[0] == 'h' || s[0] == 'm' || s[0] == 's'
}
