package runner

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/psilva261/sparkle/console"
	"github.com/psilva261/sparkle/eventloop"
	"github.com/psilva261/sparkle/js"
	"github.com/psilva261/sparkle/js/parser"
	"github.com/psilva261/sparkleq/dom"
	"github.com/psilva261/sparkleq/logger"
	"github.com/psilva261/sparkleq/query"
)

// Option configures a Runner.
type Option func(r *Runner)

// WithTimeout bounds the time a script may run on the loop.
func WithTimeout(d time.Duration) Option {
	return func(r *Runner) {
		r.timeout = d
	}
}

// WithSettle sets how long TrackChanges waits for further mutations.
func WithSettle(d time.Duration) Option {
	return func(r *Runner) {
		r.settle = d
	}
}

// WithScroll sets the initial page scroll offset of the document.
func WithScroll(x, y float64) Option {
	return func(r *Runner) {
		r.scrollX, r.scrollY = x, y
	}
}

type Runner struct {
	loop   *eventloop.EventLoop
	html   string
	doc    *dom.Document
	layout dom.Layout

	scrollX, scrollY float64
	timeout          time.Duration
	settle           time.Duration

	// listeners maps js functions to their dom registration, so that
	// off(type, fn) finds what on(type, fn) added.
	listeners map[*js.Object]*dom.Listener
}

func New(htm string, l dom.Layout, opts ...Option) (r *Runner) {
	r = &Runner{
		html:      htm,
		layout:    l,
		timeout:   10 * time.Second,
		settle:    time.Second,
		listeners: make(map[*js.Object]*dom.Listener),
	}
	for _, o := range opts {
		o(r)
	}
	return
}

func (r *Runner) Start() {
	ResetCalls()
	log.Printf("Start event loop")
	r.loop = eventloop.NewEventLoop()
	r.loop.Start()
	log.Printf("event loop started")
}

func (r *Runner) Stop() {
	if r.loop == nil {
		return
	}
	r.loop.Stop()
	r.loop = nil
	if r.doc != nil {
		for len(r.doc.Mutations()) > 0 {
			<-r.doc.Mutations()
		}
	}
}

// Document returns the document created by the initial Exec.
func (r *Runner) Document() *dom.Document {
	return r.doc
}

func (r *Runner) initVM(vm *js.Runtime) (err error) {
	vm.SetParserOptions(parser.WithDisableSourceMaps)
	console.Enable(vm)

	r.doc, err = dom.Parse(strings.NewReader(r.html), dom.WithLayout(r.layout), dom.WithScroll(r.scrollX, r.scrollY))
	if err != nil {
		return errors.Wrap(err, "init dom")
	}
	r.listeners = make(map[*js.Object]*dom.Listener)
	return r.bind(vm)
}

var (
	reCompatCommentOpen  = regexp.MustCompile(`^\s*<!--`)
	reCompatCommentClose = regexp.MustCompile(`-->\s*$`)
)

// Exec runs script on the loop and returns the completion value. The
// initial call parses the document and binds $.
func (r *Runner) Exec(script string, initial bool) (res string, err error) {
	if r.loop == nil {
		return "", errors.New("runner not started")
	}
	script = reCompatCommentOpen.ReplaceAllString(script, "//")
	script = reCompatCommentClose.ReplaceAllString(script, "//")

	resCh := make(chan string, 1)
	errCh := make(chan error, 1)

	r.loop.RunOnLoop(func(vm *js.Runtime) {
		if initial {
			log.Printf("exec: init vm")
			if err := r.initVM(vm); err != nil {
				errCh <- err
				return
			}
		}
		if r.doc == nil {
			errCh <- errors.New("document not initialized")
			return
		}
		vv, err := vm.RunString(script)
		if err != nil {
			IntrospectError(err, script)
			errCh <- errors.Wrap(err, "run program")
			return
		}
		resCh <- vv.String()
	})

	select {
	case err := <-errCh:
		return "", err
	case res := <-resCh:
		return res, nil
	case <-time.After(r.timeout):
		return "", errors.Errorf("timeout after %v", r.timeout)
	}
}

// IntrospectError logs the lines around the position a js error
// reports.
func IntrospectError(err error, script string) {
	prefix := "Line "
	i := strings.Index(err.Error(), prefix)
	if i < 0 {
		return
	}
	s := err.Error()[i+len(prefix):]
	yx := strings.Split(strings.Split(s, " ")[0], ":")
	y, err := strconv.Atoi(yx[0])
	if err != nil || y < 1 {
		return
	}
	lines := strings.Split(script, "\n")
	if y > len(lines) {
		y = len(lines)
	}
	for j := y - 2; j <= y; j++ {
		if j >= 0 && j < len(lines) && len(lines[j]) < 120 {
			log.Printf("%v: %v", j+1, lines[j])
		}
	}
}

type result struct {
	val string
	err error
}

// run executes f on the loop and waits for its result. Values leave
// the loop only through the channel.
func (r *Runner) run(f func(vm *js.Runtime) (string, error)) (string, error) {
	if r.loop == nil {
		return "", errors.New("runner not started")
	}
	resCh := make(chan result, 1)
	r.loop.RunOnLoop(func(vm *js.Runtime) {
		if r.doc == nil {
			resCh <- result{err: errors.New("document not initialized")}
			return
		}
		v, err := f(vm)
		resCh <- result{v, err}
	})
	select {
	case res := <-resCh:
		return res.val, res.err
	case <-time.After(r.timeout):
		return "", errors.Errorf("timeout after %v", r.timeout)
	}
}

// TriggerClick clicks the first element matching selector and returns
// the resulting html when the document changed.
func (r *Runner) TriggerClick(selector string) (newHTML string, changed bool, err error) {
	_, err = r.run(func(*js.Runtime) (string, error) {
		s, err := query.New(r.doc, selector)
		if err != nil {
			return "", err
		}
		if s.Len() == 0 {
			return "", errors.Errorf("could not find '%v'", selector)
		}
		el := s.Elements()[0]
		if !el.Click() {
			log.Printf("click on %v: default prevented", el)
		}
		return "", nil
	})
	if err != nil {
		return "", false, err
	}
	return r.TrackChanges()
}

// CSS returns the computed value of prop on the first element matching
// selector.
func (r *Runner) CSS(selector, prop string) (string, error) {
	return r.run(func(*js.Runtime) (string, error) {
		s, err := query.New(r.doc, selector)
		if err != nil {
			return "", err
		}
		v, ok := s.CSS(prop)
		if !ok {
			return "", errors.Errorf("could not find '%v'", selector)
		}
		return v, nil
	})
}

// TrackChanges drains the mutation queue until it stayed empty for the
// settle duration. html is only set when something changed.
func (r *Runner) TrackChanges() (html string, changed bool, err error) {
	if r.doc == nil {
		return "", false, errors.New("document not initialized")
	}
outer:
	for {
		select {
		case m := <-r.doc.Mutations():
			log.Printf("mutation %v %v %v", m.Type, m.Tag, m.Path)
			changed = true
		case <-time.After(r.settle):
			break outer
		}
	}
	if !changed {
		return
	}
	html, err = r.run(func(*js.Runtime) (string, error) {
		return r.doc.OuterHTML(), nil
	})
	return
}
