package dom_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benjaminschreck/go-tempo/pkg/dom"
	"github.com/benjaminschreck/go-tempo/pkg/dom/htmldom"
)

func TestSetDisplayNone(t *testing.T) {
	tests := []struct {
		name   string
		style  string
		hidden bool
		want   string
	}{
		{name: "empty hide", style: "", hidden: true, want: "display: none"},
		{name: "empty show", style: "", hidden: false, want: ""},
		{name: "replace display", style: "display:block", hidden: true, want: "display: none"},
		{name: "remove display", style: "display:none", hidden: false, want: ""},
		{name: "keep others", style: "color: red; DISPLAY : none;", hidden: false, want: "color: red"},
		{name: "append after others", style: "color: red;margin:0", hidden: true, want: "color: red; margin:0; display: none"},
		{name: "stray semicolons", style: ";;", hidden: false, want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, dom.SetDisplayNone(tt.style, tt.hidden))
		})
	}
}

func TestApplyHidden(t *testing.T) {
	doc := htmldom.NewDocument()
	el := doc.CreateElement("p")

	dom.ApplyHidden(el, true)
	style, ok := el.Attr("style")
	require.True(t, ok)
	assert.Equal(t, "display: none", style)

	dom.ApplyHidden(el, false)
	assert.False(t, dom.HasAttr(el, "style"))
}

func TestFragment(t *testing.T) {
	doc, err := htmldom.ParseString(`<html><body><ul id="list"><li>mid</li></ul></body></html>`)
	require.NoError(t, err)
	list, ok := doc.ElementByID("list")
	require.True(t, ok)

	build := func(labels ...string) *dom.Fragment {
		f := dom.NewFragment()
		for _, l := range labels {
			li := doc.CreateElement("li")
			require.NoError(t, li.SetInnerMarkup(l))
			f.Append(li)
		}
		return f
	}

	tail := build("c", "d")
	assert.Equal(t, 2, tail.Len())
	require.NoError(t, tail.AppendTo(list))

	head := build("a", "b")
	require.NoError(t, head.PrependTo(list))
	assert.Len(t, head.Nodes(), 2)

	inner, err := list.InnerMarkup()
	require.NoError(t, err)
	assert.Equal(t, `<li>a</li><li>b</li><li>mid</li><li>c</li><li>d</li>`, inner)

	assert.NoError(t, dom.NewFragment().AppendTo(list))
}

func TestHasAttr(t *testing.T) {
	doc, err := htmldom.ParseString(`<html><body><p id="p" data-template>x</p></body></html>`)
	require.NoError(t, err)
	p, ok := doc.ElementByID("p")
	require.True(t, ok)

	assert.True(t, dom.HasAttr(p, "data-template"))
	assert.False(t, dom.HasAttr(p, "data-if-x"))
}
