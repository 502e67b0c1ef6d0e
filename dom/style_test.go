package dom

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKebab(t *testing.T) {
	for in, exp := range map[string]string{
		"backgroundColor":  "background-color",
		"background-color": "background-color",
		"Font-Size":        "font-size",
		"zIndex":           "z-index",
		"color":            "color",
		"--mainColor":      "--mainColor",
		"borderTopWidth":   "border-top-width",
		"cssFloat":         "float",
		"WebkitTransform":  "-webkit-transform",
		"webkitTransform":  "-webkit-transform",
		"MozUserSelect":    "-moz-user-select",
		"-ms-transform":    "-ms-transform",
		"order":            "order",
		"opacity":          "opacity",
	} {
		assert.Equal(t, exp, kebab(in), in)
	}
}

func TestElementStyle(t *testing.T) {
	d := parseDoc(t, htm)
	p := d.GetElementById("demo")
	s := p.Style()
	assert.Equal(t, "bold", s.GetPropertyValue("font-weight"))
	assert.Equal(t, "bold", s.GetPropertyValue("fontWeight"))
	assert.Equal(t, 1, s.Len())

	s.SetProperty("display", "none")
	assert.Equal(t, "none", s.GetPropertyValue("display"))
	assert.Equal(t, "font-weight: bold; display: none;", p.Style().CSSText())

	s.SetProperty("fontWeight", "normal")
	assert.Equal(t, "font-weight: normal; display: none;", s.CSSText())
}

func TestSetPropertyRemove(t *testing.T) {
	d := parseDoc(t, htm)
	p := d.GetElementById("demo")
	s := p.Style()

	s.SetProperty("font-weight", "")
	assert.Equal(t, 0, s.Len())
	assert.False(t, p.HasAttribute("style"))

	s.SetProperty("color", "red")
	assert.Equal(t, "red", s.RemoveProperty("color"))
	assert.Equal(t, "", s.RemoveProperty("color"))
	assert.False(t, p.HasAttribute("style"))
}

func TestSetPropertyUnknown(t *testing.T) {
	d := parseDoc(t, htm)
	p := d.GetElementById("demo")
	p.Style().SetProperty("colour", "red")
	p.Style().SetProperty("fooBar", "1")
	p.Style().SetProperty("-webkit-fooBar", "1")
	assert.Equal(t, "font-weight: bold;", p.Style().CSSText())

	p.Style().SetProperty("cssFloat", "left")
	p.Style().SetProperty("WebkitTransform", "none")
	assert.Equal(t, "font-weight: bold; float: left; -webkit-transform: none;", p.Style().CSSText())
	assert.Equal(t, "left", p.Style().GetPropertyValue("cssFloat"))
}

func TestSetPropertyImportant(t *testing.T) {
	d := parseDoc(t, htm)
	s := d.GetElementById("demo").Style()
	s.SetProperty("color", "red !important")
	assert.Equal(t, "red", s.GetPropertyValue("color"))
	assert.Equal(t, "font-weight: bold; color: red !important;", s.CSSText())

	ds := s.decls()
	require.Len(t, ds, 2)
	assert.True(t, ds[1].important)
}

func TestCustomProperty(t *testing.T) {
	d := parseDoc(t, htm)
	s := d.GetElementById("demo").Style()
	s.SetProperty("--main-color", "#abc")
	assert.Equal(t, "#abc", s.GetPropertyValue("--main-color"))
	assert.Equal(t, 2, s.Len())
}

func TestParseStyle(t *testing.T) {
	ds := parseStyle("COLOR: red; margin:  0  auto ; color: blue; width: ; font-size: 12px !important")
	require.Len(t, ds, 3)
	assert.Equal(t, decl{k: "color", v: "blue"}, ds[0])
	assert.Equal(t, decl{k: "margin", v: "0 auto"}, ds[1])
	assert.Equal(t, decl{k: "font-size", v: "12px", important: true}, ds[2])

	assert.Empty(t, parseStyle(""))
	assert.Empty(t, parseStyle("   "))
}

func TestSetCSSText(t *testing.T) {
	d := parseDoc(t, htm)
	p := d.GetElementById("demo")
	s := p.Style()
	s.SetCSSText("width: 10px;height:2px")
	assert.Equal(t, "width: 10px; height: 2px;", s.CSSText())
	s.SetCSSText("")
	assert.False(t, p.HasAttribute("style"))
}
