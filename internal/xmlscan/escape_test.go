package xmlscan

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUnescape(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "hello", "hello"},
		{"predefined", "&lt;a&gt; &quot;b&quot; &apos;c&apos; &amp;", `<a> "b" 'c' &`},
		{"no double decode", "&amp;lt;", "&lt;"},
		{"decimal ref", "a&#10;b", "a\nb"},
		{"hex ref", "&#x41;&#X42;", "AB"},
		{"bad ref kept", "&#zz;", "&#zz;"},
		{"escaped ref stays literal", "&amp;#65;", "&#65;"},
		{"char ref output not rescanned", "&#38;amp;", "&amp;"},
		{"hex amp then entity text", "&#x26;lt;", "&lt;"},
		{"unknown entity kept", "&nbsp; &", "&nbsp; &"},
		{"bare ampersand before ref", "&&lt;", "&<"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Unescape(tt.in))
		})
	}
}

func TestAttrs(t *testing.T) {
	attrs := Attrs(` r="A1" s='3' t = "s" x:y="&amp;z" broken`)

	assert.Equal(t, map[string]string{
		"r":   "A1",
		"s":   "3",
		"t":   "s",
		"x:y": "&z",
	}, attrs)
}

func TestEscapeRoundTrip(t *testing.T) {
	inputs := []string{
		"plain",
		`<tag attr="v">&amp;</tag>`,
		"line1\nline2\ttab",
		"'single'",
	}
	for _, in := range inputs {
		assert.Equal(t, in, Unescape(EscapeText(in)))
		assert.Equal(t, in, Unescape(EscapeAttr(in)))
	}
}

func TestEscapeDropsControlCharacters(t *testing.T) {
	assert.Equal(t, "ab", EscapeText("a\x01b"))
	assert.Equal(t, "a&#10;b", EscapeAttr("a\nb"))
	assert.Equal(t, "a\nb", EscapeText("a\nb"))
}
