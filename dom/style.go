package dom

import (
	"strings"
	"unicode"

	"github.com/psilva261/sparkleq/logger"
	"github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
)

// CSS properties the inline style accepts; unknown names are ignored
// like a browser ignores them on CSSStyleDeclaration.
const knownProperties = `
align-content align-items align-self all animation animation-delay animation-direction
animation-duration animation-fill-mode animation-iteration-count animation-name
animation-play-state animation-timing-function appearance aspect-ratio backface-visibility
background background-attachment background-blend-mode background-clip background-color
background-image background-origin background-position background-repeat background-size
block-size border border-block border-bottom border-bottom-color border-bottom-left-radius
border-bottom-right-radius border-bottom-style border-bottom-width border-collapse
border-color border-image border-inline border-left border-left-color border-left-style
border-left-width border-radius border-right border-right-color border-right-style
border-right-width border-spacing border-style border-top border-top-color
border-top-left-radius border-top-right-radius border-top-style border-top-width
border-width bottom box-shadow box-sizing break-after break-before break-inside
caption-side caret-color clear clip clip-path color column-count column-gap column-rule
column-span column-width columns content counter-increment counter-reset cursor
direction display empty-cells filter flex flex-basis flex-direction flex-flow flex-grow
flex-shrink flex-wrap float font font-family font-feature-settings font-kerning font-size
font-size-adjust font-stretch font-style font-variant font-weight gap grid grid-area
grid-auto-columns grid-auto-flow grid-auto-rows grid-column grid-column-end
grid-column-start grid-row grid-row-end grid-row-start grid-template
grid-template-areas grid-template-columns grid-template-rows height hyphens
image-rendering inline-size inset isolation justify-content justify-items justify-self
left letter-spacing line-break line-height list-style list-style-image
list-style-position list-style-type margin margin-block margin-bottom margin-inline
margin-left margin-right margin-top mask max-height max-width min-height min-width
mix-blend-mode object-fit object-position opacity order orphans outline outline-color
outline-offset outline-style outline-width overflow overflow-wrap overflow-x overflow-y
padding padding-block padding-bottom padding-inline padding-left padding-right
padding-top page-break-after page-break-before page-break-inside perspective
perspective-origin place-content place-items place-self pointer-events position quotes
resize right rotate row-gap scale scroll-behavior tab-size table-layout text-align
text-align-last text-decoration text-decoration-color text-decoration-line
text-decoration-style text-indent text-justify text-overflow text-shadow
text-transform top transform transform-origin transform-style transition
transition-delay transition-duration transition-property transition-timing-function
translate unicode-bidi user-select vertical-align visibility white-space widows width
will-change word-break word-spacing word-wrap writing-mode z-index zoom
`

var allProperties = make(map[string]bool)

func init() {
	for _, p := range strings.Fields(knownProperties) {
		allProperties[p] = true
	}
}

var vendorPrefixes = []string{"-webkit-", "-moz-", "-ms-", "-o-"}

func knownProperty(k string) bool {
	if strings.HasPrefix(k, "--") {
		return true
	}
	for _, v := range vendorPrefixes {
		if strings.HasPrefix(k, v) {
			k = k[len(v):]
			break
		}
	}
	return allProperties[k]
}

// Style is the inline style (the style attribute) of an element.
type Style struct {
	el *Element
}

func (el *Element) Style() *Style {
	return &Style{el: el}
}

type decl struct {
	k, v      string
	important bool
}

func (s *Style) decls() []decl {
	return parseStyle(attr(*s.el.n, "style"))
}

// GetPropertyValue accepts kebab-case or camelCase names.
func (s *Style) GetPropertyValue(p string) string {
	p = kebab(p)
	for _, d := range s.decls() {
		if d.k == p {
			return d.v
		}
	}
	return ""
}

func (s *Style) Len() int {
	return len(s.decls())
}

func (s *Style) CSSText() string {
	return attr(*s.el.n, "style")
}

func (s *Style) SetCSSText(t string) {
	s.write(parseStyle(t))
}

// SetProperty writes p. An empty value removes the declaration and
// unknown property names are ignored.
func (s *Style) SetProperty(p, v string) {
	p = kebab(p)
	if !knownProperty(p) {
		log.Printf("style: ignore unknown property %v", p)
		return
	}
	v = strings.TrimSpace(v)
	if v == "" {
		s.RemoveProperty(p)
		return
	}
	important := false
	if i := importantSuffix(v); i >= 0 {
		v, important = strings.TrimSpace(v[:i]), true
	}
	ds := s.decls()
	for i, d := range ds {
		if d.k == p {
			ds[i].v, ds[i].important = v, important
			s.write(ds)
			return
		}
	}
	s.write(append(ds, decl{k: p, v: v, important: important}))
}

// RemoveProperty returns the previous value.
func (s *Style) RemoveProperty(p string) (old string) {
	p = kebab(p)
	ds := s.decls()
	res := ds[:0:0]
	for _, d := range ds {
		if d.k == p {
			old = d.v
			continue
		}
		res = append(res, d)
	}
	if len(res) != len(ds) {
		s.write(res)
	}
	return
}

func (s *Style) write(ds []decl) {
	if len(ds) == 0 {
		s.el.RemoveAttribute("style")
		return
	}
	l := make([]string, 0, len(ds))
	for _, d := range ds {
		v := d.v
		if d.important {
			v += " !important"
		}
		l = append(l, d.k+": "+v+";")
	}
	s.el.SetAttribute("style", strings.Join(l, " "))
}

func kebab(k string) (res string) {
	if strings.HasPrefix(k, "--") {
		return k
	}
	if strings.Contains(k, "-") {
		return strings.ToLower(k)
	}
	if k == "cssFloat" {
		return "float"
	}
	var b strings.Builder
	for _, r := range k {
		if unicode.IsUpper(r) {
			b.WriteByte('-')
			b.WriteRune(unicode.ToLower(r))
		} else {
			b.WriteRune(r)
		}
	}
	res = b.String()
	// webkitTransform is an alias of WebkitTransform
	for _, v := range vendorPrefixes {
		if strings.HasPrefix(res, v[1:]) {
			return "-" + res
		}
	}
	return res
}

// importantSuffix returns the index of a trailing !important or -1.
func importantSuffix(v string) int {
	i := strings.LastIndex(v, "!")
	if i < 0 || !strings.EqualFold(strings.TrimSpace(v[i+1:]), "important") {
		return -1
	}
	return i
}

// parseStyle reads a declaration list like the content of a style
// attribute. Later duplicates replace earlier ones in place.
func parseStyle(st string) (ds []decl) {
	p := css.NewParser(parse.NewInputString(st), true)
	for {
		gt, _, data := p.Next()
		if gt == css.ErrorGrammar {
			break
		}
		if gt != css.DeclarationGrammar && gt != css.CustomPropertyGrammar {
			continue
		}
		d := declaration(string(data), p.Values())
		replaced := false
		for i := range ds {
			if ds[i].k == d.k {
				ds[i] = d
				replaced = true
			}
		}
		if !replaced && d.v != "" {
			ds = append(ds, d)
		}
	}
	return
}

func declaration(k string, vals []css.Token) (d decl) {
	var b strings.Builder
	for _, val := range vals {
		b.Write(val.Data)
	}
	v := strings.TrimSpace(b.String())
	if i := importantSuffix(v); i >= 0 {
		v, d.important = strings.TrimSpace(v[:i]), true
	}
	d.k = k
	if !strings.HasPrefix(k, "--") {
		d.k = strings.ToLower(k)
	}
	d.v = strings.Join(strings.Fields(v), " ")
	return
}
