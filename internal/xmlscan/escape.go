package xmlscan

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

// Attrs parses name="value" and name='value' pairs in one pass. Values are
// entity-unescaped. Malformed trailing input is ignored.
func Attrs(s string) map[string]string {
	attrs := make(map[string]string)
	i := 0
	for i < len(s) {
		for i < len(s) && isSpace(s[i]) {
			i++
		}
		nameStart := i
		for i < len(s) && s[i] != '=' && !isSpace(s[i]) && s[i] != '/' && s[i] != '>' {
			i++
		}
		name := s[nameStart:i]
		for i < len(s) && isSpace(s[i]) {
			i++
		}
		if i >= len(s) || s[i] != '=' {
			if i == nameStart {
				i++
			}
			continue
		}
		i++
		for i < len(s) && isSpace(s[i]) {
			i++
		}
		if i >= len(s) {
			break
		}
		quote := s[i]
		if quote != '"' && quote != '\'' {
			continue
		}
		i++
		end := strings.IndexByte(s[i:], quote)
		if end < 0 {
			break
		}
		if name != "" {
			attrs[name] = Unescape(s[i : i+end])
		}
		i += end + 1
	}
	return attrs
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

var entities = map[string]string{
	"lt":   "<",
	"gt":   ">",
	"amp":  "&",
	"quot": "\"",
	"apos": "'",
}

// Unescape decodes the five predefined entities and numeric character
// references in a single left-to-right pass; decoded text is never rescanned,
// so "&amp;lt;" yields "&lt;" and "&#38;amp;" yields "&amp;". Unknown or
// malformed references are kept verbatim.
func Unescape(s string) string {
	if !strings.Contains(s, "&") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for {
		i := strings.IndexByte(s, '&')
		if i < 0 {
			b.WriteString(s)
			return b.String()
		}
		b.WriteString(s[:i])
		s = s[i:]
		semi := strings.IndexByte(s, ';')
		if semi < 0 {
			b.WriteString(s)
			return b.String()
		}
		if r, ok := decodeRef(s[1:semi]); ok {
			b.WriteString(r)
			s = s[semi+1:]
			continue
		}
		b.WriteByte('&')
		s = s[1:]
	}
}

func decodeRef(ref string) (string, bool) {
	if v, ok := entities[ref]; ok {
		return v, true
	}
	if len(ref) < 2 || ref[0] != '#' {
		return "", false
	}
	var n int64
	var err error
	if ref[1] == 'x' || ref[1] == 'X' {
		n, err = strconv.ParseInt(ref[2:], 16, 32)
	} else {
		n, err = strconv.ParseInt(ref[1:], 10, 32)
	}
	if err != nil || !utf8.ValidRune(rune(n)) {
		return "", false
	}
	return string(rune(n)), true
}

// EscapeText escapes character data. Characters XML 1.0 cannot carry are
// dropped.
func EscapeText(s string) string {
	return escape(s, false)
}

// EscapeAttr escapes an attribute value for use inside double quotes.
func EscapeAttr(s string) string {
	return escape(s, true)
}

func escape(s string, attr bool) string {
	clean := true
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '&' || c == '<' || c == '>' || (attr && (c == '"' || c == '\n' || c == '\r' || c == '\t')) || (c < 0x20 && c != '\n' && c != '\r' && c != '\t') {
			clean = false
			break
		}
	}
	if clean {
		return s
	}

	var b strings.Builder
	b.Grow(len(s) + 16)
	for _, r := range s {
		switch {
		case r == '&':
			b.WriteString("&amp;")
		case r == '<':
			b.WriteString("&lt;")
		case r == '>':
			b.WriteString("&gt;")
		case attr && r == '"':
			b.WriteString("&quot;")
		case attr && r == '\n':
			b.WriteString("&#10;")
		case attr && r == '\r':
			b.WriteString("&#13;")
		case attr && r == '\t':
			b.WriteString("&#9;")
		case r < 0x20 && r != '\n' && r != '\r' && r != '\t':
			// not representable in XML 1.0
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
