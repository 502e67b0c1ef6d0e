package runner

import (
	"strconv"

	"github.com/psilva261/sparkle/js"
	"github.com/psilva261/sparkleq/dom"
	"github.com/psilva261/sparkleq/logger"
	"github.com/psilva261/sparkleq/query"
)

// bind installs the global $ and its static helpers.
func (r *Runner) bind(vm *js.Runtime) error {
	dollar := vm.ToValue(func(call js.FunctionCall) js.Value {
		record("$", "()", true)
		var s *query.ElementSet
		switch v := call.Argument(0).Export().(type) {
		case string:
			var err error
			if s, err = query.New(r.doc, v); err != nil {
				panic(vm.NewGoError(err))
			}
		case *element:
			s = query.Of(r.doc, v.el)
		case *set:
			return call.Argument(0)
		default:
			s = query.Of(r.doc)
		}
		return r.wrapSet(vm, s)
	}).(*js.Object)

	if err := dollar.Set("extend", func(call js.FunctionCall) js.Value {
		record("$", "extend", true)
		return extend(vm, call)
	}); err != nil {
		return err
	}
	if err := dollar.Set("isFunction", func(call js.FunctionCall) js.Value {
		record("$", "isFunction", true)
		return vm.ToValue(query.IsFunction(call.Argument(0).Export()))
	}); err != nil {
		return err
	}
	if err := dollar.Set("isElement", func(call js.FunctionCall) js.Value {
		record("$", "isElement", true)
		v := call.Argument(0).Export()
		if e, ok := v.(*element); ok {
			v = e.el
		}
		return vm.ToValue(query.IsElement(v))
	}); err != nil {
		return err
	}
	return vm.Set("$", dollar)
}

// extend merges the own enumerable properties of the sources into the
// target object, left to right. Sources that are not objects are
// skipped. Copying onto a target that is not an object is a TypeError.
func extend(vm *js.Runtime, call js.FunctionCall) js.Value {
	if len(call.Arguments) < 2 {
		return call.Argument(0)
	}
	tm := make(map[string]js.Value)
	var keys []string
	var srcs []map[string]js.Value
	for _, a := range call.Arguments[1:] {
		o, ok := a.(*js.Object)
		if !ok {
			continue
		}
		m := make(map[string]js.Value)
		for _, k := range o.Keys() {
			m[k] = o.Get(k)
			keys = append(keys, k)
		}
		srcs = append(srcs, m)
	}
	target, ok := call.Argument(0).(*js.Object)
	if !ok {
		if len(keys) == 0 {
			return call.Argument(0)
		}
		panic(vm.NewTypeError("Cannot set property '%v' of %v", keys[0], call.Argument(0)))
	}
	tm = query.Extend(tm, srcs...)
	for _, k := range keys {
		if err := target.Set(k, tm[k]); err != nil {
			log.Errorf("extend: set %v: %v", k, err)
		}
	}
	return target
}

// set is the js view of an ElementSet.
type set struct {
	r   *Runner
	vm  *js.Runtime
	s   *query.ElementSet
	obj *js.Object
}

func (r *Runner) wrapSet(vm *js.Runtime, s *query.ElementSet) *js.Object {
	w := &set{r: r, vm: vm, s: s}
	w.obj = vm.NewDynamicObject(w)
	return w.obj
}

func (st *set) Get(key string) js.Value {
	vm := st.vm
	if i, err := strconv.Atoi(key); err == nil {
		record("set", "#num", true)
		return st.index(i)
	}
	f := st.method(key)
	record("set", key, f != nil || key == "length")
	if key == "length" {
		return vm.ToValue(st.s.Len())
	}
	if f == nil {
		return js.Undefined()
	}
	return vm.ToValue(f)
}

func (st *set) index(i int) js.Value {
	els := st.s.Elements()
	if i < 0 || i >= len(els) {
		return js.Undefined()
	}
	return wrapEl(st.vm, els[i])
}

func (st *set) method(key string) func(call js.FunctionCall) js.Value {
	vm := st.vm
	switch key {
	case "css":
		return func(call js.FunctionCall) js.Value {
			if m, ok := call.Argument(0).(*js.Object); ok {
				sm := make(query.StyleMap)
				for _, k := range m.Keys() {
					if v := m.Get(k); !js.IsUndefined(v) {
						sm[k] = cssValue(v)
					}
				}
				st.s.SetCSSMap(sm)
				return st.obj
			}
			prop := call.Argument(0).String()
			if v := call.Argument(1); !js.IsUndefined(v) {
				st.s.SetCSS(prop, cssValue(v))
				return st.obj
			}
			v, ok := st.s.CSS(prop)
			if !ok {
				return js.Null()
			}
			return vm.ToValue(v)
		}
	case "position":
		return func(call js.FunctionCall) js.Value {
			bb, err := st.s.Position()
			if err != nil {
				panic(vm.NewGoError(err))
			}
			if bb == nil {
				return js.Null()
			}
			o := vm.NewObject()
			o.Set("top", bb.Top)
			o.Set("left", bb.Left)
			o.Set("width", bb.Width)
			o.Set("height", bb.Height)
			return o
		}
	case "on", "off":
		return func(call js.FunctionCall) js.Value {
			t := call.Argument(0).String()
			fn, ok := call.Argument(1).(*js.Object)
			if !ok {
				return st.obj
			}
			if key == "on" {
				st.s.On(t, st.r.listener(vm, fn))
			} else if l, ok := st.r.listeners[fn]; ok {
				st.s.Off(t, l)
			}
			return st.obj
		}
	case "trigger":
		return func(call js.FunctionCall) js.Value {
			st.s.Trigger(call.Argument(0).String())
			return st.obj
		}
	case "addClass":
		return func(call js.FunctionCall) js.Value {
			if err := st.s.AddClass(call.Argument(0).String()); err != nil {
				panic(vm.NewGoError(err))
			}
			return st.obj
		}
	case "removeClass":
		return func(call js.FunctionCall) js.Value {
			if err := st.s.RemoveClass(call.Argument(0).String()); err != nil {
				panic(vm.NewGoError(err))
			}
			return st.obj
		}
	case "hasClass":
		return func(call js.FunctionCall) js.Value {
			return vm.ToValue(st.s.HasClass(call.Argument(0).String()))
		}
	case "hide":
		return func(call js.FunctionCall) js.Value {
			st.s.Hide()
			return st.obj
		}
	case "show":
		return func(call js.FunctionCall) js.Value {
			st.s.Show()
			return st.obj
		}
	case "get":
		return func(call js.FunctionCall) js.Value {
			return st.index(int(call.Argument(0).ToInteger()))
		}
	case "each":
		return func(call js.FunctionCall) js.Value {
			f, ok := js.AssertFunction(call.Argument(0))
			if !ok {
				return st.obj
			}
			st.s.Each(func(i int, el *dom.Element) {
				this := wrapEl(vm, el)
				if _, err := f(this, vm.ToValue(i), this); err != nil {
					log.Errorf("each: %v", err)
				}
			})
			return st.obj
		}
	}
	return nil
}

// cssValue maps null to the empty value, which removes the property.
func cssValue(v js.Value) string {
	if js.IsNull(v) {
		return ""
	}
	return v.String()
}

func (st *set) Set(key string, desc js.PropertyDescriptor) bool {
	return false
}

func (st *set) Has(key string) bool {
	if key == "length" || st.method(key) != nil {
		return true
	}
	i, err := strconv.Atoi(key)
	return err == nil && i >= 0 && i < st.s.Len()
}

func (st *set) Delete(key string) bool {
	return false
}

func (st *set) Keys() (ks []string) {
	for i := 0; i < st.s.Len(); i++ {
		ks = append(ks, strconv.Itoa(i))
	}
	return
}

// listener returns the dom registration of fn, creating it on first use.
func (r *Runner) listener(vm *js.Runtime, fn *js.Object) *dom.Listener {
	if l, ok := r.listeners[fn]; ok {
		return l
	}
	f, ok := js.AssertFunction(fn)
	if !ok {
		return nil
	}
	l := dom.Listen(func(e *dom.Event) {
		ev := vm.NewObject()
		ev.Set("type", e.Type)
		ev.Set("target", wrapEl(vm, e.Target))
		ev.Set("preventDefault", func(js.FunctionCall) js.Value {
			e.PreventDefault()
			return js.Undefined()
		})
		ev.Set("stopPropagation", func(js.FunctionCall) js.Value {
			e.StopPropagation()
			return js.Undefined()
		})
		this := wrapEl(vm, e.CurrentTarget)
		if _, err := f(this, ev); err != nil {
			log.Errorf("listener %v: %v", e.Type, err)
		}
	})
	r.listeners[fn] = l
	return l
}

// element is the js view of a single element.
type element struct {
	vm *js.Runtime
	el *dom.Element
}

func wrapEl(vm *js.Runtime, el *dom.Element) js.Value {
	if el == nil {
		return js.Null()
	}
	return vm.NewDynamicObject(&element{vm: vm, el: el})
}

var elementKeys = []string{"nodeType", "tagName", "nodeName", "id", "className", "textContent", "outerHTML"}

func (e *element) Get(key string) js.Value {
	var v any
	switch key {
	case "nodeType":
		v = 1
	case "tagName", "nodeName":
		v = e.el.TagName()
	case "id":
		v = e.el.Id()
	case "className":
		v = e.el.ClassName()
	case "textContent":
		v = e.el.TextContent()
	case "outerHTML":
		v = e.el.OuterHTML()
	default:
		record("element", key, false)
		return js.Undefined()
	}
	record("element", key, true)
	return e.vm.ToValue(v)
}

func (e *element) Set(key string, desc js.PropertyDescriptor) bool {
	return false
}

func (e *element) Has(key string) bool {
	for _, k := range elementKeys {
		if k == key {
			return true
		}
	}
	return false
}

func (e *element) Delete(key string) bool {
	return false
}

func (e *element) Keys() []string {
	return elementKeys
}
