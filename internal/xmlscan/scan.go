// Package xmlscan locates elements in well-formed XML text without building
// a document tree. It is deliberately structural: it knows about tags,
// attributes and entity escapes, nothing about schemas.
package xmlscan

import (
	"sort"
	"strings"
)

// Element is a single matched element. Offsets index into the scanned text
// and are only meaningful for the document passed to Find/FindAll.
type Element struct {
	Tag         string // tag as written, including any prefix
	Attrs       map[string]string
	Inner       string
	Outer       string
	Start       int // offset of '<'
	End         int // offset just past the closing '>'
	InnerStart  int
	InnerEnd    int
	SelfClosing bool
}

// Attr returns the attribute value for name. A bare name also matches a
// prefixed attribute with the same local part (id matches r:id).
func (e Element) Attr(name string) (string, bool) {
	return Lookup(e.Attrs, name)
}

// AttrOr returns the attribute value or def when absent.
func (e Element) AttrOr(name, def string) string {
	if v, ok := e.Attr(name); ok {
		return v
	}
	return def
}

// Lookup finds name in attrs, falling back to any prefixed key whose local
// part equals name.
func Lookup(attrs map[string]string, name string) (string, bool) {
	if v, ok := attrs[name]; ok {
		return v, true
	}
	if strings.Contains(name, ":") {
		return "", false
	}
	for k, v := range attrs {
		if i := strings.IndexByte(k, ':'); i >= 0 && k[i+1:] == name {
			return v, true
		}
	}
	return "", false
}

type tagKind int

const (
	tagOpen tagKind = iota
	tagClose
	tagSelfClose
)

type tagPos struct {
	kind      tagKind
	start     int // '<'
	end       int // past '>'
	name      string
	attrStart int
	attrEnd   int
}

// Find returns the first element named tag.
func Find(doc, tag string) (Element, bool) {
	all := scan(doc, tag, true)
	if len(all) == 0 {
		return Element{}, false
	}
	return all[0], true
}

// FindAll returns every element named tag, ordered by start offset. Nested
// elements with the same name are all reported; an outer element's inner
// text contains the full markup of the inner ones.
func FindAll(doc, tag string) []Element {
	return scan(doc, tag, false)
}

// Text returns the unescaped inner text of the first element named tag.
func Text(doc, tag string) (string, bool) {
	el, ok := Find(doc, tag)
	if !ok {
		return "", false
	}
	return Unescape(el.Inner), true
}

func scan(doc, tag string, firstOnly bool) []Element {
	positions := tagPositions(doc, tag)
	if len(positions) == 0 {
		return nil
	}

	var out []Element
	var stack []tagPos
	for _, p := range positions {
		switch p.kind {
		case tagSelfClose:
			if firstOnly && len(stack) == 0 {
				return []Element{build(doc, p, p)}
			}
			out = append(out, build(doc, p, p))
		case tagOpen:
			stack = append(stack, p)
		case tagClose:
			if len(stack) == 0 {
				continue
			}
			open := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			out = append(out, build(doc, open, p))
			if firstOnly && len(stack) == 0 {
				// the outermost element closed; anything collected so far is nested
				// inside it and starts later
				sortElements(out)
				return out[:1]
			}
		}
	}
	sortElements(out)
	if firstOnly && len(out) > 0 {
		return out[:1]
	}
	return out
}

func sortElements(els []Element) {
	sort.SliceStable(els, func(i, j int) bool { return els[i].Start < els[j].Start })
}

func build(doc string, open, closeTag tagPos) Element {
	el := Element{
		Tag:   open.name,
		Attrs: Attrs(doc[open.attrStart:open.attrEnd]),
		Start: open.start,
	}
	if open.kind == tagSelfClose {
		el.SelfClosing = true
		el.End = open.end
		el.InnerStart = open.end
		el.InnerEnd = open.end
	} else {
		el.End = closeTag.end
		el.InnerStart = open.end
		el.InnerEnd = closeTag.start
		el.Inner = doc[open.end:closeTag.start]
	}
	el.Outer = doc[el.Start:el.End]
	return el
}

// tagPositions collects open, close and self-closing tags matching tag, in
// document order. A tag given without a prefix matches any prefix.
func tagPositions(doc, tag string) []tagPos {
	var out []tagPos
	i := 0
	for {
		lt := strings.IndexByte(doc[i:], '<')
		if lt < 0 {
			return out
		}
		lt += i
		rest := doc[lt:]
		switch {
		case strings.HasPrefix(rest, "<!--"):
			end := strings.Index(rest, "-->")
			if end < 0 {
				return out
			}
			i = lt + end + 3
			continue
		case strings.HasPrefix(rest, "<![CDATA["):
			end := strings.Index(rest, "]]>")
			if end < 0 {
				return out
			}
			i = lt + end + 3
			continue
		case strings.HasPrefix(rest, "<?"), strings.HasPrefix(rest, "<!"):
			end := strings.IndexByte(rest, '>')
			if end < 0 {
				return out
			}
			i = lt + end + 1
			continue
		}

		closing := len(rest) > 1 && rest[1] == '/'
		nameStart := lt + 1
		if closing {
			nameStart++
		}
		nameEnd := nameStart
		for nameEnd < len(doc) && !isNameEnd(doc[nameEnd]) {
			nameEnd++
		}
		gt := findTagEnd(doc, nameEnd)
		if gt < 0 {
			return out
		}
		name := doc[nameStart:nameEnd]
		if nameMatches(name, tag) {
			p := tagPos{start: lt, end: gt + 1, name: name, attrStart: nameEnd, attrEnd: gt}
			switch {
			case closing:
				p.kind = tagClose
			case gt > 0 && doc[gt-1] == '/':
				p.kind = tagSelfClose
				p.attrEnd = gt - 1
			default:
				p.kind = tagOpen
			}
			out = append(out, p)
		}
		i = gt + 1
	}
}

// findTagEnd returns the index of the '>' closing the tag, skipping quoted
// attribute values that may contain '>'.
func findTagEnd(doc string, from int) int {
	var quote byte
	for j := from; j < len(doc); j++ {
		c := doc[j]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == '>':
			return j
		}
	}
	return -1
}

func isNameEnd(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '>' || c == '/'
}

func nameMatches(name, tag string) bool {
	if name == tag {
		return true
	}
	if strings.Contains(tag, ":") {
		return false
	}
	i := strings.IndexByte(name, ':')
	return i >= 0 && name[i+1:] == tag
}
