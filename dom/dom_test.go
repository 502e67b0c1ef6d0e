package dom

import (
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/psilva261/sparkleq/dom/sel"
	"github.com/psilva261/sparkleq/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func init() {
	log.Debug = true
}

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const htm = `
<!DOCTYPE html>
<html>
  <head>
  <title>Demo</title>
  </head>
<body>

<h2>Finding HTML Elements Using document.title</h2>

<p id="demo" class="bar" style="font-weight: bold;">the paragraph.</p>

<div id="box">text<span id="inner"></span>
  <b>x</b>
</div>

</body>
</html>
`

func parseDoc(t *testing.T, s string, opts ...Option) *Document {
	t.Helper()
	d, err := Parse(strings.NewReader(s), opts...)
	require.NoError(t, err)
	return d
}

func TestParse(t *testing.T) {
	d := parseDoc(t, htm)
	assert.Equal(t, "BODY", d.Body().TagName())
	assert.Equal(t, "HTML", d.Element().TagName())
	assert.False(t, d.Element().IsElement())
	assert.True(t, d.Body().IsElement())
	assert.Nil(t, d.Body().Parent().Parent())

	p := d.GetElementById("demo")
	require.NotNil(t, p)
	assert.Equal(t, "P", p.TagName())
	assert.Equal(t, "bar", p.ClassName())
	assert.Equal(t, "the paragraph.", p.TextContent())
	assert.Equal(t, "<p id=demo>", p.String())
	assert.Nil(t, d.GetElementById("nope"))
	assert.Nil(t, d.GetElementById(""))
}

func TestIdentity(t *testing.T) {
	d := parseDoc(t, htm)
	a := d.GetElementById("demo")
	b, err := d.QuerySelector("p")
	require.NoError(t, err)
	assert.Same(t, a, b)
	assert.Same(t, d.Body(), a.Parent())
}

func TestPath(t *testing.T) {
	d := parseDoc(t, htm)
	for id, exp := range map[string]string{
		"demo":  "/0/1",
		"box":   "/0/2",
		"inner": "/0/2/1",
	} {
		p, ok := d.GetElementById(id).Path()
		require.True(t, ok, id)
		assert.Equal(t, exp, p, id)
	}
	p, ok := d.Body().Path()
	assert.True(t, ok)
	assert.Equal(t, "/0", p)

	b, err := d.QuerySelector("#box b")
	require.NoError(t, err)
	p, _ = b.Path()
	assert.Equal(t, "/0/2/2", p)

	title, err := d.QuerySelector("title")
	require.NoError(t, err)
	_, ok = title.Path()
	assert.False(t, ok)
	_, ok = d.Element().Path()
	assert.False(t, ok)
}

func TestAttributes(t *testing.T) {
	d := parseDoc(t, htm)
	p := d.GetElementById("demo")

	v, ok := p.GetAttribute("class")
	assert.True(t, ok)
	assert.Equal(t, "bar", v)
	_, ok = p.GetAttribute("title")
	assert.False(t, ok)

	p.SetAttribute("title", "")
	v, ok = p.GetAttribute("title")
	assert.True(t, ok)
	assert.Empty(t, v)

	p.SetAttribute("title", "t")
	assert.Contains(t, p.OuterHTML(), `title="t"`)

	p.RemoveAttribute("title")
	assert.False(t, p.HasAttribute("title"))
	p.RemoveAttribute("title")
}

func TestQuerySelectorAll(t *testing.T) {
	d := parseDoc(t, htm)
	els, err := d.QuerySelectorAll("#box > *")
	require.NoError(t, err)
	require.Len(t, els, 2)
	assert.Equal(t, "SPAN", els[0].TagName())
	assert.Equal(t, "B", els[1].TagName())

	box := d.GetElementById("box")
	els, err = box.QuerySelectorAll("div, span")
	require.NoError(t, err)
	require.Len(t, els, 1)
	assert.Equal(t, "inner", els[0].Id())

	el, err := box.QuerySelector("em")
	assert.NoError(t, err)
	assert.Nil(t, el)

	_, err = d.QuerySelectorAll("p >")
	require.Error(t, err)
	assert.Equal(t, sel.ErrSyntax, errors.Cause(err))
}

func TestMatches(t *testing.T) {
	d := parseDoc(t, htm)
	p := d.GetElementById("demo")
	ok, err := p.Matches("body > p.bar")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = p.Matches("div p")
	require.NoError(t, err)
	assert.False(t, ok)
	_, err = p.Matches("[")
	assert.Error(t, err)
}

func TestInnerHTML(t *testing.T) {
	d := parseDoc(t, htm)
	box := d.GetElementById("box")
	assert.True(t, strings.HasPrefix(box.InnerHTML(), `text<span id="inner"></span>`))
	assert.True(t, strings.HasPrefix(box.OuterHTML(), `<div id="box">text`))
	assert.Contains(t, d.OuterHTML(), "<!DOCTYPE html>")
}

func TestMutations(t *testing.T) {
	d := parseDoc(t, htm)
	p := d.GetElementById("demo")

	p.SetAttribute("class", "bar")
	p.SetAttribute("class", "foo")
	p.RemoveAttribute("style")
	p.RemoveAttribute("style")

	var ms []Mutation
	for len(d.Mutations()) > 0 {
		ms = append(ms, <-d.Mutations())
	}
	require.Len(t, ms, 2)

	assert.Equal(t, ChAttr, ms[0].Type)
	assert.Equal(t, "/0/1", ms[0].Path)
	assert.Equal(t, "p", ms[0].Tag)
	assert.Equal(t, "foo", ms[0].Node["class"])
	assert.Equal(t, "bold;", strings.Fields(ms[0].Node["style"])[1])

	assert.Equal(t, RmAttr, ms[1].Type)
	_, ok := ms[1].Node["style"]
	assert.False(t, ok)
	assert.Equal(t, "RmAttr", ms[1].Type.String())
}

func TestScroll(t *testing.T) {
	d := parseDoc(t, htm, WithScroll(1, 2))
	x, y := d.Scroll()
	assert.Equal(t, 1.0, x)
	assert.Equal(t, 2.0, y)
	d.ScrollTo(3, 4)
	x, y = d.Scroll()
	assert.Equal(t, 3.0, x)
	assert.Equal(t, 4.0, y)
}
