// Package sst implements the shared-string table built during an export.
package sst

import (
	"strconv"
	"strings"

	"github.com/fuabioo/xlcodec/internal/xmlscan"
	"github.com/valyala/bytebufferpool"
)

// Table interns strings and hands out stable indices in first-seen order.
// It is not safe for concurrent use; one export owns one table.
type Table struct {
	index  map[string]int
	order  []string
	total  int
	frozen bool
}

// New creates an empty table.
func New() *Table {
	return &Table{index: make(map[string]int)}
}

// Intern returns the index for text, appending it on first sight. Every call
// counts toward Total. Interning into a frozen table panics: emission must
// only read indices the collection pass already assigned.
func (t *Table) Intern(text string) int {
	if t.frozen {
		panic("sst: Intern on frozen table")
	}
	t.total++
	if i, ok := t.index[text]; ok {
		return i
	}
	i := len(t.order)
	t.index[text] = i
	t.order = append(t.order, text)
	return i
}

// Lookup returns the index assigned to text without modifying the table.
func (t *Table) Lookup(text string) (int, bool) {
	i, ok := t.index[text]
	return i, ok
}

// Freeze makes the table read-only.
func (t *Table) Freeze() {
	t.frozen = true
}

// Total is the number of Intern calls.
func (t *Table) Total() int {
	return t.total
}

// Distinct is the number of unique entries.
func (t *Table) Distinct() int {
	return len(t.order)
}

// Entries returns the strings in index order. The slice must not be modified.
func (t *Table) Entries() []string {
	return t.order
}

// NeedsPreserve reports whether text would lose whitespace without
// xml:space="preserve".
func NeedsPreserve(text string) bool {
	if text == "" {
		return false
	}
	if strings.ContainsAny(text, "\n\r\t") {
		return true
	}
	return isSpace(text[0]) || isSpace(text[len(text)-1])
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

// XML renders the sharedStrings part body, including the XML declaration.
func (t *Table) XML(header string) string {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	buf.WriteString(header)
	buf.WriteString(`<sst xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main" count="`)
	buf.WriteString(strconv.Itoa(t.total))
	buf.WriteString(`" uniqueCount="`)
	buf.WriteString(strconv.Itoa(len(t.order)))
	buf.WriteString(`">`)
	for _, s := range t.order {
		buf.WriteString("<si>")
		WriteText(buf, s)
		buf.WriteString("</si>")
	}
	buf.WriteString("</sst>")
	return buf.String()
}

// WriteText writes a <t> element, marking it whitespace-preserving when
// needed.
func WriteText(buf *bytebufferpool.ByteBuffer, s string) {
	if NeedsPreserve(s) {
		buf.WriteString(`<t xml:space="preserve">`)
	} else {
		buf.WriteString("<t>")
	}
	buf.WriteString(xmlscan.EscapeText(s))
	buf.WriteString("</t>")
}
