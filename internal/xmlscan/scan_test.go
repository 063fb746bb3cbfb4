package xmlscan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindAllNested(t *testing.T) {
	doc := `<outer><div><div>inner</div></div></outer>`

	els := FindAll(doc, "div")
	require.Len(t, els, 2)

	assert.Equal(t, "<div>inner</div>", els[0].Inner)
	assert.Equal(t, "inner", els[1].Inner)
	assert.True(t, els[0].Start < els[1].Start)
	assert.Equal(t, `<div><div>inner</div></div>`, els[0].Outer)
}

func TestFindFirstReturnsOutermost(t *testing.T) {
	doc := `<a><b><b>x</b></b><b>y</b></a>`

	el, ok := Find(doc, "b")
	require.True(t, ok)
	assert.Equal(t, "<b>x</b>", el.Inner)
}

func TestFindPrefixedAndSelfClosing(t *testing.T) {
	doc := `<x:root xmlns:x="urn:x"><x:item id="1"/><item id='2'>two</item></x:root>`

	els := FindAll(doc, "item")
	require.Len(t, els, 2)

	assert.True(t, els[0].SelfClosing)
	assert.Equal(t, "x:item", els[0].Tag)
	assert.Equal(t, "1", els[0].Attrs["id"])
	assert.Equal(t, "", els[0].Inner)

	assert.False(t, els[1].SelfClosing)
	assert.Equal(t, "2", els[1].Attrs["id"])
	assert.Equal(t, "two", els[1].Inner)
}

func TestFindDoesNotMatchLongerNames(t *testing.T) {
	doc := `<cols><col min="1"/></cols><c r="A1"/>`

	els := FindAll(doc, "c")
	require.Len(t, els, 1)
	assert.Equal(t, "A1", els[0].Attrs["r"])
}

func TestFindAbsent(t *testing.T) {
	_, ok := Find(`<a/>`, "b")
	assert.False(t, ok)
	assert.Empty(t, FindAll(`<a/>`, "b"))
	assert.Empty(t, FindAll(``, "b"))
}

func TestFindSkipsCommentsAndCDATA(t *testing.T) {
	doc := `<r><!-- <v>no</v> --><![CDATA[<v>no</v>]]><v>yes</v></r>`

	els := FindAll(doc, "v")
	require.Len(t, els, 1)
	assert.Equal(t, "yes", els[0].Inner)
}

func TestUnclosedElementNotReported(t *testing.T) {
	assert.Empty(t, FindAll(`<a><b>open`, "b"))
}

func TestAttrLookupByLocalName(t *testing.T) {
	el, ok := Find(`<sheet name="S" r:id="rId3"/>`, "sheet")
	require.True(t, ok)

	v, ok := el.Attr("id")
	assert.True(t, ok)
	assert.Equal(t, "rId3", v)
	assert.Equal(t, "fallback", el.AttrOr("missing", "fallback"))
}

func TestAttrValueContainingAngleBracket(t *testing.T) {
	el, ok := Find(`<f t="x>y">1</f>`, "f")
	require.True(t, ok)
	assert.Equal(t, "x>y", el.Attrs["t"])
	assert.Equal(t, "1", el.Inner)
}

func TestText(t *testing.T) {
	v, ok := Text(`<si><t>a &amp;lt; b</t></si>`, "t")
	require.True(t, ok)
	assert.Equal(t, "a &lt; b", v)
}
