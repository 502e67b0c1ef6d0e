// Package query is a small jQuery-like helper over a dom.Document: a
// selector is resolved once into an ElementSet and every mutator applies
// to all matched elements.
package query

import (
	"reflect"
	"sort"

	"github.com/pkg/errors"
	"github.com/psilva261/sparkleq/dom"
	"golang.org/x/net/html"
)

// Document is the document context an ElementSet is resolved against.
// *dom.Document implements it.
type Document interface {
	QuerySelectorAll(selector string) ([]*dom.Element, error)
	Scroll() (x, y float64)
}

// StyleMap holds property/value pairs for SetCSSMap.
type StyleMap map[string]string

// BoundingBox is a box in page coordinates.
type BoundingBox struct {
	Top, Left, Width, Height float64
}

// ElementSet is the snapshot of the elements that matched a selector at
// construction time. Later document changes do not alter the set.
type ElementSet struct {
	doc Document
	els []*dom.Element
}

// New resolves selector against doc. A selector matching nothing gives
// an empty set; invalid syntax is returned as the document's error.
func New(doc Document, selector string) (*ElementSet, error) {
	els, err := doc.QuerySelectorAll(selector)
	if err != nil {
		return nil, errors.Wrapf(err, "$(%q)", selector)
	}
	return &ElementSet{doc: doc, els: els}, nil
}

// Of wraps elements that are already at hand.
func Of(doc Document, els ...*dom.Element) *ElementSet {
	return &ElementSet{doc: doc, els: append([]*dom.Element(nil), els...)}
}

func (s *ElementSet) Len() int {
	return len(s.els)
}

// Elements returns a copy of the matched elements in document order.
func (s *ElementSet) Elements() []*dom.Element {
	return append([]*dom.Element(nil), s.els...)
}

func (s *ElementSet) Each(f func(i int, el *dom.Element)) *ElementSet {
	for i, el := range s.els {
		f(i, el)
	}
	return s
}

// CSS returns the computed value of prop on the first element. ok is
// false for an empty set.
func (s *ElementSet) CSS(prop string) (val string, ok bool) {
	if len(s.els) == 0 {
		return "", false
	}
	return s.els[0].ComputedStyle(prop), true
}

// SetCSS writes prop on the inline style of every element.
func (s *ElementSet) SetCSS(prop, val string) *ElementSet {
	for _, el := range s.els {
		el.Style().SetProperty(prop, val)
	}
	return s
}

// SetCSSMap writes all properties of m, in key order, on every element.
func (s *ElementSet) SetCSSMap(m StyleMap) *ElementSet {
	ks := make([]string, 0, len(m))
	for k := range m {
		ks = append(ks, k)
	}
	sort.Strings(ks)
	for _, el := range s.els {
		st := el.Style()
		for _, k := range ks {
			st.SetProperty(k, m[k])
		}
	}
	return s
}

// Position returns the first element's box in page coordinates: the
// viewport box shifted by the current scroll offset. The result is nil
// for an empty set. It is not cached and goes stale with any layout
// change.
func (s *ElementSet) Position() (*BoundingBox, error) {
	if len(s.els) == 0 {
		return nil, nil
	}
	r, err := s.els[0].GetBoundingClientRect()
	if err != nil {
		return nil, err
	}
	x, y := s.doc.Scroll()
	return &BoundingBox{
		Top:    r.Top() + y,
		Left:   r.Left() + x,
		Width:  abs(r.Width),
		Height: abs(r.Height),
	}, nil
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}

// On adds l as a listener for t on every element.
func (s *ElementSet) On(t string, l *dom.Listener) *ElementSet {
	for _, el := range s.els {
		el.AddEventListener(t, l)
	}
	return s
}

// Off removes a listener added with On.
func (s *ElementSet) Off(t string, l *dom.Listener) *ElementSet {
	for _, el := range s.els {
		el.RemoveEventListener(t, l)
	}
	return s
}

// Trigger dispatches a new generic event of type t on every element.
func (s *ElementSet) Trigger(t string) *ElementSet {
	for _, el := range s.els {
		el.DispatchEvent(dom.NewEvent(t))
	}
	return s
}

// AddClass and RemoveClass take a single class token. An invalid token
// fails on the first element with dom.ErrInvalidToken as cause and
// leaves all elements untouched.
func (s *ElementSet) AddClass(c string) error {
	for _, el := range s.els {
		if err := el.ClassList().Add(c); err != nil {
			return err
		}
	}
	return nil
}

func (s *ElementSet) RemoveClass(c string) error {
	for _, el := range s.els {
		if err := el.ClassList().Remove(c); err != nil {
			return err
		}
	}
	return nil
}

// HasClass reports whether any element carries class c.
func (s *ElementSet) HasClass(c string) bool {
	for _, el := range s.els {
		if el.ClassList().Contains(c) {
			return true
		}
	}
	return false
}

func (s *ElementSet) Hide() *ElementSet {
	return s.SetCSS("display", "none")
}

// Show drops the inline display override. A display value set inline
// before Hide is not restored.
func (s *ElementSet) Show() *ElementSet {
	return s.SetCSS("display", "")
}

// Extend copies the entries of every source into target, left to right,
// later sources overwriting earlier values. Values are not cloned. A nil
// target is allocated.
func Extend[K comparable, V any](target map[K]V, sources ...map[K]V) map[K]V {
	if target == nil {
		target = make(map[K]V)
	}
	for _, src := range sources {
		for k, v := range src {
			target[k] = v
		}
	}
	return target
}

func IsFunction(v any) bool {
	if v == nil {
		return false
	}
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Func && !rv.IsNil()
}

// IsElement reports whether v is an element node, either wrapped or as
// a bare *html.Node.
func IsElement(v any) bool {
	switch x := v.(type) {
	case *dom.Element:
		return x.IsElement()
	case *html.Node:
		return x != nil && x.Type == html.ElementNode
	}
	return false
}
