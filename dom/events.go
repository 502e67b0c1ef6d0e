package dom

import (
	"strings"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

type Phase int

const (
	PhaseNone Phase = iota
	PhaseAtTarget
	PhaseBubbling
)

type Event struct {
	Type             string
	Bubbles          bool
	Cancelable       bool
	DefaultPrevented bool
	Phase            Phase
	TimeStamp        time.Time
	Target           *Element
	CurrentTarget    *Element

	propagationStopped bool
	immediateStopped   bool
}

type EventOption func(e *Event)

func Bubbles() EventOption {
	return func(e *Event) {
		e.Bubbles = true
	}
}

func Cancelable() EventOption {
	return func(e *Event) {
		e.Cancelable = true
	}
}

// NewEvent creates a generic event. Without options it neither bubbles
// nor can be canceled, like new Event(type).
func NewEvent(t string, opts ...EventOption) *Event {
	e := &Event{
		Type:      t,
		TimeStamp: time.Now(),
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

func (e *Event) PreventDefault() {
	if e.Cancelable {
		e.DefaultPrevented = true
	}
}

func (e *Event) StopPropagation() {
	e.propagationStopped = true
}

func (e *Event) StopImmediatePropagation() {
	e.propagationStopped = true
	e.immediateStopped = true
}

// Listener is an event handler with identity, so that the same
// registration can be removed again.
type Listener struct {
	fn func(e *Event)
}

func Listen(fn func(e *Event)) *Listener {
	return &Listener{fn: fn}
}

func (l *Listener) HandleEvent(e *Event) {
	if l != nil && l.fn != nil {
		l.fn(e)
	}
}

// addListener registers l for t on n. Registering the same listener
// twice for the same type has no effect.
func (d *Document) addListener(n *html.Node, t string, l *Listener) {
	if l == nil {
		return
	}
	if _, ok := d.listeners[n]; !ok {
		d.listeners[n] = make(map[string][]*Listener)
	}
	for _, x := range d.listeners[n][t] {
		if x == l {
			return
		}
	}
	d.listeners[n][t] = append(d.listeners[n][t], l)
}

func (d *Document) removeListener(n *html.Node, t string, l *Listener) {
	ls := d.listeners[n][t]
	for i, x := range ls {
		if x == l {
			d.listeners[n][t] = append(ls[:i:i], ls[i+1:]...)
			return
		}
	}
}

// invoke runs the listeners of n registered when invoke started.
func (d *Document) invoke(n *html.Node, e *Event) {
	ls := append([]*Listener(nil), d.listeners[n][e.Type]...)
	for _, l := range ls {
		if e.immediateStopped {
			return
		}
		if !d.registered(n, e.Type, l) {
			continue
		}
		l.HandleEvent(e)
	}
}

func (d *Document) registered(n *html.Node, t string, l *Listener) bool {
	for _, x := range d.listeners[n][t] {
		if x == l {
			return true
		}
	}
	return false
}

func (d *Document) AddEventListener(t string, l *Listener) {
	d.addListener(d.doc, t, l)
}

func (d *Document) RemoveEventListener(t string, l *Listener) {
	d.removeListener(d.doc, t, l)
}

// DispatchEvent runs the document's own listeners and reports whether
// the event was not canceled.
func (d *Document) DispatchEvent(e *Event) bool {
	e.Target = d.Element()
	e.CurrentTarget = d.Element()
	e.Phase = PhaseAtTarget
	d.invoke(d.doc, e)
	e.Phase = PhaseNone
	e.CurrentTarget = nil
	return !e.DefaultPrevented
}

func (el *Element) AddEventListener(t string, l *Listener) {
	el.d.addListener(el.n, t, l)
}

func (el *Element) RemoveEventListener(t string, l *Listener) {
	el.d.removeListener(el.n, t, l)
}

// DispatchEvent delivers e to el and, when e bubbles, to its ancestors
// and the document. It reports whether the event was not canceled.
func (el *Element) DispatchEvent(e *Event) bool {
	e.Target = el
	e.propagationStopped = false
	e.immediateStopped = false
	e.Phase = PhaseAtTarget
	e.CurrentTarget = el
	el.d.invoke(el.n, e)
	if e.Bubbles {
		e.Phase = PhaseBubbling
		for p := el.n.Parent; p != nil && !e.propagationStopped; p = p.Parent {
			e.CurrentTarget = el.d.getEl(p)
			el.d.invoke(p, e)
		}
	}
	e.Phase = PhaseNone
	e.CurrentTarget = nil
	return !e.DefaultPrevented
}

// Click dispatches a bubbling, cancelable click. Checkboxes and radio
// buttons toggle unless a listener prevents the default.
func (el *Element) Click() bool {
	if el.HasAttribute("disabled") {
		return false
	}
	e := NewEvent("click", Bubbles(), Cancelable())
	ok := el.DispatchEvent(e)
	if ok && el.n.DataAtom == atom.Input {
		switch strings.ToLower(attr(*el.n, "type")) {
		case "checkbox":
			if el.HasAttribute("checked") {
				el.RemoveAttribute("checked")
			} else {
				el.SetAttribute("checked", "")
			}
		case "radio":
			el.SetAttribute("checked", "")
		}
	}
	return ok
}
