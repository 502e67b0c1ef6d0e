package dom

import (
	"io"
	"strings"

	"github.com/psilva261/sparkleq/dom/sel"
	"github.com/psilva261/sparkleq/logger"
	"github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
	"golang.org/x/net/html"
)

var inherited = map[string]bool{
	"color":               true,
	"cursor":              true,
	"direction":           true,
	"font":                true,
	"font-family":         true,
	"font-size":           true,
	"font-style":          true,
	"font-variant":        true,
	"font-weight":         true,
	"letter-spacing":      true,
	"line-height":         true,
	"list-style":          true,
	"list-style-position": true,
	"list-style-type":     true,
	"quotes":              true,
	"text-align":          true,
	"text-indent":         true,
	"text-transform":      true,
	"visibility":          true,
	"white-space":         true,
	"word-spacing":        true,
}

var initial = map[string]string{
	"color":          "rgb(0, 0, 0)",
	"float":          "none",
	"font-size":      "16px",
	"font-style":     "normal",
	"font-weight":    "400",
	"height":         "auto",
	"margin-bottom":  "0px",
	"margin-left":    "0px",
	"margin-right":   "0px",
	"margin-top":     "0px",
	"opacity":        "1",
	"overflow":       "visible",
	"padding-bottom": "0px",
	"padding-left":   "0px",
	"padding-right":  "0px",
	"padding-top":    "0px",
	"position":       "static",
	"text-align":     "start",
	"visibility":     "visible",
	"white-space":    "normal",
	"width":          "auto",
	"z-index":        "auto",
}

var uaDisplay = map[string]string{
	"address": "block", "article": "block", "aside": "block", "blockquote": "block",
	"body": "block", "dd": "block", "details": "block", "div": "block", "dl": "block",
	"dt": "block", "fieldset": "block", "figcaption": "block", "figure": "block",
	"footer": "block", "form": "block", "h1": "block", "h2": "block", "h3": "block",
	"h4": "block", "h5": "block", "h6": "block", "header": "block", "hr": "block",
	"html": "block", "main": "block", "nav": "block", "ol": "block", "p": "block",
	"pre": "block", "section": "block", "summary": "block", "ul": "block",
	"li":       "list-item",
	"table":    "table",
	"caption":  "table-caption",
	"thead":    "table-header-group",
	"tbody":    "table-row-group",
	"tfoot":    "table-footer-group",
	"tr":       "table-row",
	"td":       "table-cell",
	"th":       "table-cell",
	"button":   "inline-block",
	"input":    "inline-block",
	"select":   "inline-block",
	"textarea": "inline-block",
	"base":     "none", "head": "none", "link": "none", "meta": "none", "noscript": "none",
	"script": "none", "style": "none", "template": "none", "title": "none",
}

func initialValue(n *html.Node, prop string) string {
	if prop == "display" {
		if hasAttr(*n, "hidden") {
			return "none"
		}
		if v, ok := uaDisplay[n.Data]; ok {
			return v
		}
		return "inline"
	}
	return initial[prop]
}

type rule struct {
	sel   sel.Selector
	decls []decl
	order int
}

type sheet struct {
	src   string
	rules []rule
}

// styleSheet returns the author rules of all <style> elements. The
// parsed result is kept until their text changes.
func (d *Document) styleSheet() *sheet {
	var b strings.Builder
	for _, n := range grepAll(d.doc, "style") {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.TextNode {
				b.WriteString(c.Data)
			}
		}
		b.WriteString("\n")
	}
	if src := b.String(); d.sheet == nil || d.sheet.src != src {
		d.sheet = parseSheet(src)
	}
	return d.sheet
}

func parseSheet(src string) (sh *sheet) {
	sh = &sheet{src: src}
	p := css.NewParser(parse.NewInputString(src), false)
	var sels []string
	var cur *rule
	atDepth := 0
	for {
		gt, _, data := p.Next()
		switch gt {
		case css.ErrorGrammar:
			if err := p.Err(); err != nil && err != io.EOF {
				log.Printf("stylesheet: %v", err)
			}
			return
		case css.BeginAtRuleGrammar:
			atDepth++
		case css.EndAtRuleGrammar:
			if atDepth > 0 {
				atDepth--
			}
		case css.QualifiedRuleGrammar:
			if atDepth == 0 {
				sels = append(sels, tokens(p.Values()))
			}
		case css.BeginRulesetGrammar:
			if atDepth > 0 {
				continue
			}
			sels = append(sels, tokens(p.Values()))
			s, err := sel.Compile(strings.Join(sels, ","))
			sels = nil
			if err != nil {
				log.Printf("stylesheet: skip rule: %v", err)
				continue
			}
			cur = &rule{sel: s, order: len(sh.rules)}
		case css.DeclarationGrammar, css.CustomPropertyGrammar:
			if cur != nil {
				cur.decls = append(cur.decls, declaration(string(data), p.Values()))
			}
		case css.EndRulesetGrammar:
			if cur != nil {
				sh.rules = append(sh.rules, *cur)
				cur = nil
			}
		}
	}
}

func tokens(vals []css.Token) string {
	var b strings.Builder
	for _, v := range vals {
		b.Write(v.Data)
	}
	return b.String()
}

// ComputedStyle resolves prop for el. Inline declarations and
// !important author rules win; otherwise a value known to the attached
// layout does, and the rest comes from the cascade of <style> rules,
// inheritance and user agent defaults.
func (el *Element) ComputedStyle(prop string) string {
	prop = kebab(prop)
	if c, ok := el.winner(prop); ok && (c.inline || c.important) {
		return el.cascade(prop)
	}
	if l := el.d.layout; l != nil {
		if p, ok := path(el); ok {
			el.d.syncLayout()
			v, ok, err := l.Query(p, prop)
			if err != nil {
				log.Errorf("computed style %v %v: %v", p, prop, err)
			} else if ok {
				return v
			}
		}
	}
	return el.cascade(prop)
}

func (el *Element) cascade(prop string) string {
	v, ok := el.declared(prop)
	if v == "unset" {
		ok = false
	}
	if !ok && inherited[prop] || v == "inherit" {
		if p := el.Parent(); p != nil {
			return p.cascade(prop)
		}
	}
	if !ok || v == "initial" || v == "inherit" {
		return initialValue(el.n, prop)
	}
	return v
}

type candidate struct {
	v         string
	important bool
	inline    bool
	sp        sel.Specificity
	order     int
}

func (c candidate) less(o candidate) bool {
	if c.important != o.important {
		return o.important
	}
	if c.inline != o.inline {
		return o.inline
	}
	if c.sp != o.sp {
		return c.sp.Less(o.sp)
	}
	return c.order < o.order
}

// declared returns the winning declared value of prop.
func (el *Element) declared(prop string) (v string, ok bool) {
	best, ok := el.winner(prop)
	return best.v, ok
}

func (el *Element) winner(prop string) (best candidate, ok bool) {
	consider := func(c candidate) {
		if !ok || best.less(c) {
			best = c
			ok = true
		}
	}
	for _, r := range el.d.styleSheet().rules {
		sp, matches := r.sel.MatchSpecificity(el.n)
		if !matches {
			continue
		}
		for i, d := range r.decls {
			if d.k == prop {
				consider(candidate{v: d.v, important: d.important, sp: sp, order: r.order<<16 | i})
			}
		}
	}
	for _, d := range el.Style().decls() {
		if d.k == prop {
			consider(candidate{v: d.v, important: d.important, inline: true})
		}
	}
	return
}
