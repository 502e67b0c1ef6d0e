package dom

import (
	"github.com/pkg/errors"
	"github.com/psilva261/sparkleq/logger"
)

// ErrNoLayout is returned by geometry queries on a document without a
// layout.
var ErrNoLayout = errors.New("no layout")

// Rect is a viewport relative box like DOMRect.
type Rect struct {
	X, Y, Width, Height float64
}

func (r Rect) Top() float64 {
	if r.Height < 0 {
		return r.Y + r.Height
	}
	return r.Y
}

func (r Rect) Left() float64 {
	if r.Width < 0 {
		return r.X + r.Width
	}
	return r.X
}

// Layout is what the renderer knows about the document. Elements are
// addressed by Element.Path.
type Layout interface {
	// Geom returns the viewport relative border box.
	Geom(path string) (Rect, error)
	// Query returns the computed value of prop; ok is false when the
	// layout has no opinion and the cascade should decide.
	Query(path, prop string) (val string, ok bool, err error)
}

// ContentSetter is implemented by layouts that render their own copy of
// the document. They get the current html before answering once the
// document has changed.
type ContentSetter interface {
	SetContent(htm string) error
}

// syncLayout pushes pending changes to the layout.
func (d *Document) syncLayout() {
	cs, ok := d.layout.(ContentSetter)
	if !ok || !d.dirty {
		return
	}
	if err := cs.SetContent(d.OuterHTML()); err != nil {
		log.Errorf("sync layout: %v", err)
		return
	}
	d.dirty = false
}

// StaticLayout answers from fixed tables.
type StaticLayout struct {
	Rects  map[string]Rect
	Styles map[string]map[string]string
}

func (sl *StaticLayout) Geom(path string) (Rect, error) {
	r, ok := sl.Rects[path]
	if !ok {
		return Rect{}, errors.Errorf("no geometry for %v", path)
	}
	return r, nil
}

func (sl *StaticLayout) Query(path, prop string) (string, bool, error) {
	v, ok := sl.Styles[path][prop]
	return v, ok, nil
}

// GetBoundingClientRect asks the layout for the element's box.
func (el *Element) GetBoundingClientRect() (r Rect, err error) {
	if el.d.layout == nil {
		return Rect{}, ErrNoLayout
	}
	p, ok := path(el)
	if !ok {
		return Rect{}, errors.Errorf("%v is not rendered", el)
	}
	el.d.syncLayout()
	r, err = el.d.layout.Geom(p)
	if err != nil {
		return Rect{}, errors.Wrapf(err, "geom %v", p)
	}
	return
}
