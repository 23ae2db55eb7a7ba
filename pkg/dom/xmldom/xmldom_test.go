package xmldom

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benjaminschreck/go-tempo/pkg/dom"
	"github.com/benjaminschreck/go-tempo/pkg/dom/htmldom"
)

const sample = `<root><list id="items"><item kind="a">one</item><item>two<sub/></item></list><other id="it's"/></root>`

func mustParse(t *testing.T, s string) *Document {
	t.Helper()
	doc, err := ParseString(s)
	require.NoError(t, err)
	return doc
}

func TestElementByID(t *testing.T) {
	doc := mustParse(t, sample)

	list, ok := doc.ElementByID("items")
	require.True(t, ok)
	assert.Equal(t, "list", list.TagName())

	quoted, ok := doc.ElementByID("it's")
	require.True(t, ok)
	assert.Equal(t, "other", quoted.TagName())

	_, ok = doc.ElementByID("missing")
	assert.False(t, ok)

	root, ok := doc.Root()
	require.True(t, ok)
	assert.Nil(t, root.Parent())
	assert.True(t, list.Parent().IsSameNode(root))
}

func TestAttributes(t *testing.T) {
	doc := mustParse(t, sample)
	list, _ := doc.ElementByID("items")
	item := list.Children()[0]

	v, ok := item.Attr("kind")
	assert.True(t, ok)
	assert.Equal(t, "a", v)

	item.SetAttr("kind", "b")
	item.SetAttr("data-template", "")
	assert.Equal(t, []dom.Attribute{{Name: "kind", Value: "b"}, {Name: "data-template", Value: ""}}, item.Attrs())

	item.RemoveAttr("kind")
	_, ok = item.Attr("kind")
	assert.False(t, ok)
}

func TestTreeWalk(t *testing.T) {
	doc := mustParse(t, sample)
	list, _ := doc.ElementByID("items")

	assert.Len(t, list.Children(), 2)

	var tags []string
	for _, d := range list.Descendants() {
		tags = append(tags, d.TagName())
	}
	assert.Equal(t, []string{"item", "item", "sub"}, tags)
}

func TestInnerMarkup(t *testing.T) {
	doc := mustParse(t, sample)
	list, _ := doc.ElementByID("items")

	inner, err := list.InnerMarkup()
	require.NoError(t, err)
	assert.Equal(t, `<item kind="a">one</item><item>two<sub/></item>`, inner)

	require.NoError(t, list.SetInnerMarkup(`<item>x</item>tail`))
	inner, err = list.InnerMarkup()
	require.NoError(t, err)
	assert.Equal(t, `<item>x</item>tail`, inner)

	assert.Error(t, list.SetInnerMarkup(`<unclosed>`))
	inner, _ = list.InnerMarkup()
	assert.Equal(t, `<item>x</item>tail`, inner, "content is untouched after a parse error")
}

func TestCloneAndInsert(t *testing.T) {
	doc := mustParse(t, `<root><list id="l"><item>b</item></list></root>`)
	list, _ := doc.ElementByID("l")
	orig := list.Children()[0]

	clone := orig.Clone()
	assert.Nil(t, clone.Parent())
	assert.False(t, clone.IsSameNode(orig))
	clone.SetAttr("copy", "1")
	_, ok := orig.Attr("copy")
	assert.False(t, ok)

	first := doc.CreateElement("item")
	require.NoError(t, first.SetInnerMarkup("a"))
	require.NoError(t, list.PrependChild(first))
	require.NoError(t, list.AppendChild(clone))

	inner, err := list.InnerMarkup()
	require.NoError(t, err)
	assert.Equal(t, `<item>a</item><item>b</item><item copy="1">b</item>`, inner)

	require.NoError(t, list.RemoveChild(first))
	assert.Error(t, list.RemoveChild(first))
	assert.Len(t, list.Children(), 2)
}

func TestForeignNodes(t *testing.T) {
	doc := mustParse(t, `<root id="r"/>`)
	root, _ := doc.ElementByID("r")
	foreign := htmldom.NewDocument().CreateElement("p")

	assert.ErrorIs(t, root.AppendChild(foreign), ErrForeignNode)
	assert.ErrorIs(t, root.PrependChild(foreign), ErrForeignNode)
	assert.ErrorIs(t, root.RemoveChild(foreign), ErrForeignNode)
	assert.False(t, root.IsSameNode(foreign))
}

func TestSetHidden(t *testing.T) {
	doc := mustParse(t, `<root><p id="p" style="color: red"/></root>`)
	p, _ := doc.ElementByID("p")

	p.SetHidden(true)
	style, _ := p.Attr("style")
	assert.Equal(t, "color: red; display: none", style)

	p.SetHidden(false)
	style, _ = p.Attr("style")
	assert.Equal(t, "color: red", style)
	assert.NotNil(t, p.Document())
}
