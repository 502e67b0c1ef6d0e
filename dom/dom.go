package dom

import (
	"bytes"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/psilva261/sparkleq/dom/sel"
	"github.com/psilva261/sparkleq/logger"
	"golang.org/x/net/html"
)

// Option configures a Document.
type Option func(d *Document)

// WithLayout attaches the renderer that answers geometry and computed
// style queries.
func WithLayout(l Layout) Option {
	return func(d *Document) {
		d.layout = l
	}
}

// WithScroll sets the initial page scroll offset.
func WithScroll(x, y float64) Option {
	return func(d *Document) {
		d.scrollX, d.scrollY = x, y
	}
}

// Document wraps a parsed html tree. Elements are handed out as one
// *Element per node so that identity comparisons work.
type Document struct {
	doc    *html.Node
	elRefs map[*html.Node]*Element
	layout Layout

	scrollX, scrollY float64

	listeners map[*html.Node]map[string][]*Listener
	mutations chan Mutation
	sheet     *sheet
	// dirty is set by mutations the layout has not seen yet
	dirty bool
}

// Parse reads html from r.
func Parse(r io.Reader, opts ...Option) (d *Document, err error) {
	n, err := html.Parse(r)
	if err != nil {
		return nil, errors.Wrap(err, "parse html")
	}
	return NewDocument(n, opts...), nil
}

func NewDocument(doc *html.Node, opts ...Option) (d *Document) {
	d = &Document{
		doc:       doc,
		elRefs:    make(map[*html.Node]*Element),
		listeners: make(map[*html.Node]map[string][]*Listener),
		mutations: make(chan Mutation, 10000),
	}
	for _, o := range opts {
		o(d)
	}
	return
}

// Element returns the wrapper of the document node itself.
func (d *Document) Element() *Element {
	return d.getEl(d.doc)
}

func (d *Document) SetLayout(l Layout) {
	d.layout = l
}

// Scroll returns the page scroll offset.
func (d *Document) Scroll() (x, y float64) {
	return d.scrollX, d.scrollY
}

func (d *Document) ScrollTo(x, y float64) {
	d.scrollX, d.scrollY = x, y
}

func (d *Document) Body() *Element {
	return d.getEl(grep(d.doc, "body"))
}

func (d *Document) GetElementById(id string) *Element {
	return d.getEl(grepById(d.doc, id))
}

// QuerySelectorAll returns the matches of s in document order. Syntax
// errors have sel.ErrSyntax as their cause.
func (d *Document) QuerySelectorAll(s string) ([]*Element, error) {
	return d.Element().QuerySelectorAll(s)
}

func (d *Document) QuerySelector(s string) (*Element, error) {
	return d.Element().QuerySelector(s)
}

func (d *Document) OuterHTML() string {
	return render(d.doc)
}

func (d *Document) getEl(n *html.Node) (el *Element) {
	if n == nil {
		return nil
	}
	el, ok := d.elRefs[n]
	if ok {
		return
	}
	el = &Element{d: d, n: n}
	d.elRefs[n] = el
	return
}

type Element struct {
	d *Document
	n *html.Node
}

func (el *Element) Node() *html.Node {
	return el.n
}

func (el *Element) Document() *Document {
	return el.d
}

func (el *Element) IsElement() bool {
	return el != nil && el.n != nil && el.n.Type == html.ElementNode
}

func (el *Element) TagName() string {
	if el.n.Type == html.DocumentNode {
		return "HTML"
	}
	return strings.ToUpper(el.n.Data)
}

func (el *Element) Id() string {
	return attr(*el.n, "id")
}

func (el *Element) ClassName() string {
	return attr(*el.n, "class")
}

func (el *Element) GetAttribute(k string) (v string, ok bool) {
	if !hasAttr(*el.n, k) {
		return "", false
	}
	return attr(*el.n, k), true
}

func (el *Element) HasAttribute(k string) bool {
	return hasAttr(*el.n, k)
}

func (el *Element) SetAttribute(k, v string) {
	el.d.setAttr(el.n, k, v)
}

func (el *Element) RemoveAttribute(k string) {
	el.d.rmAttr(el.n, k)
}

func (el *Element) Parent() *Element {
	if p := el.n.Parent; p != nil && p.Type == html.ElementNode {
		return el.d.getEl(p)
	}
	return nil
}

func (el *Element) Matches(s string) (bool, error) {
	q, err := sel.Compile(s)
	if err != nil {
		return false, err
	}
	return q.Match(el.n), nil
}

func (el *Element) QuerySelector(s string) (*Element, error) {
	es, err := el.QuerySelectorAll(s)
	if err != nil || len(es) == 0 {
		return nil, err
	}
	return es[0], nil
}

func (el *Element) QuerySelectorAll(s string) (els []*Element, err error) {
	res, err := sel.Select(s, el.n, true)
	if err != nil {
		return nil, errors.Wrapf(err, "query selector")
	}
	els = make([]*Element, 0, len(res))
	for _, n := range res {
		els = append(els, el.d.getEl(n))
	}
	return
}

func (el *Element) TextContent() string {
	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(el.n)
	return b.String()
}

func (el *Element) InnerHTML() string {
	return renderInner(el.n)
}

func (el *Element) OuterHTML() string {
	return render(el.n)
}

func (el *Element) String() string {
	s := "<" + strings.ToLower(el.TagName())
	if id := el.Id(); id != "" {
		s += " id=" + id
	}
	return s + ">"
}

// Path locates the element the way the renderer addresses it: /0 is
// <body>, every further segment is the index among element and
// non-blank text children.
func (el *Element) Path() (string, bool) {
	return path(el)
}

func path(el *Element) (pth string, ok bool) {
	if el == nil || el.n.Type != html.ElementNode {
		return
	}
	if el.n.Data == "body" {
		return "/0", true
	}
	p := el.n.Parent
	if p == nil {
		return
	}
	i := 0
	for n := p.FirstChild; n != nil; n = n.NextSibling {
		if n == el.n {
			pre, ok := path(el.d.getEl(p))
			if !ok {
				return "", false
			}
			return pre + "/" + strconv.Itoa(i), true
		}
		if n.Type == html.ElementNode || (n.Type == html.TextNode && strings.TrimSpace(n.Data) != "") {
			i++
		}
	}
	return
}

func grep(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if res := grep(c, tag); res != nil {
			return res
		}
	}
	return nil
}

func grepAll(n *html.Node, tag string) (all []*html.Node) {
	tag = strings.ToLower(tag)
	if n.Type == html.ElementNode && (strings.ToLower(n.Data) == tag || tag == "*") {
		all = append(all, n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		all = append(all, grepAll(c, tag)...)
	}
	return all
}

func grepById(n *html.Node, id string) *html.Node {
	if id == "" {
		return nil
	}
	if n.Type == html.ElementNode && attr(*n, "id") == id {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if res := grepById(c, id); res != nil {
			return res
		}
	}
	return nil
}

func attr(n html.Node, key string) (val string) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return
}

func hasAttr(n html.Node, key string) bool {
	for _, a := range n.Attr {
		if a.Key == key {
			return true
		}
	}
	return false
}

func (d *Document) setAttr(n *html.Node, key, val string) {
	newAttr := html.Attribute{
		Key: key,
		Val: val,
	}
	for i, a := range n.Attr {
		if a.Key == key {
			if a.Val == val {
				return
			}
			n.Attr[i] = newAttr
			d.addMutation(ChAttr, n)
			return
		}
	}
	n.Attr = append(n.Attr, newAttr)
	d.addMutation(ChAttr, n)
}

func (d *Document) rmAttr(n *html.Node, key string) {
	for i, a := range n.Attr {
		if a.Key == key {
			n.Attr = append(n.Attr[:i], n.Attr[i+1:]...)
			d.addMutation(RmAttr, n)
			return
		}
	}
}

func render(n *html.Node) string {
	buf := bytes.NewBufferString("")
	if err := html.Render(buf, n); err != nil {
		log.Errorf("render: %v", err)
		return ""
	}
	return buf.String()
}

func renderInner(n *html.Node) string {
	buf := bytes.NewBufferString("")
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(buf, c); err != nil {
			log.Errorf("render inner: %v", err)
			return ""
		}
	}
	return buf.String()
}
