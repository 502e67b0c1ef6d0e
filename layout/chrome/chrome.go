// Package chrome answers geometry and computed style queries with a
// headless Chrome that renders the same html.
package chrome

import (
	"context"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/pkg/errors"
	"github.com/psilva261/sparkleq/dom"
	"github.com/psilva261/sparkleq/logger"
)

type Config struct {
	// RemoteURL is the websocket of a running Chrome. Empty launches a
	// local one.
	RemoteURL string
	Headless  bool
	// Timeout per query, 10s when zero.
	Timeout time.Duration
}

var (
	_ dom.Layout        = (*Layout)(nil)
	_ dom.ContentSetter = (*Layout)(nil)
)

// Layout implements dom.Layout with a Chrome tab.
type Layout struct {
	cfg  Config
	b    *rod.Browser
	lnch *launcher.Launcher
	page *rod.Page
}

// resolve maps an element path to the node the same way dom.Element.Path
// numbers children: /0 is body and every further segment counts
// element and non-blank text children.
const resolve = `function resolve(p) {
	let n = document.body;
	for (const s of p.split('/').slice(2)) {
		if (s === '') continue;
		const i = parseInt(s, 10);
		let k = 0, found = null;
		for (const c of n.childNodes) {
			if (c.nodeType === 1 || (c.nodeType === 3 && c.data.trim() !== '')) {
				if (k === i) {
					found = c;
					break;
				}
				k++;
			}
		}
		if (!found || found.nodeType !== 1) return null;
		n = found;
	}
	return n;
}`

// New starts or connects to Chrome and loads htm into a fresh tab.
func New(cfg Config, htm string) (l *Layout, err error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	l = &Layout{cfg: cfg}

	wsURL := cfg.RemoteURL
	if wsURL == "" {
		l.lnch = launcher.New().Headless(cfg.Headless)
		if wsURL, err = l.lnch.Launch(); err != nil {
			return nil, errors.Wrap(err, "launch chrome")
		}
		log.Printf("launched local chrome %v", wsURL)
	} else {
		log.Printf("connecting to chrome %v", wsURL)
	}

	l.b = rod.New().ControlURL(wsURL)
	if err = l.b.Connect(); err != nil {
		l.Close()
		return nil, errors.Wrap(err, "connect")
	}
	if l.page, err = l.b.Page(proto.TargetCreateTarget{URL: ""}); err != nil {
		l.Close()
		return nil, errors.Wrap(err, "create tab")
	}
	if err = l.SetContent(htm); err != nil {
		l.Close()
		return nil, err
	}
	return
}

// SetContent replaces the document of the tab.
func (l *Layout) SetContent(htm string) error {
	if err := l.page.SetDocumentContent(htm); err != nil {
		return errors.Wrap(err, "set document content")
	}
	return nil
}

func (l *Layout) eval(fn string, args ...interface{}) (*proto.RuntimeRemoteObject, error) {
	ctx, cancel := context.WithTimeout(context.Background(), l.cfg.Timeout)
	defer cancel()
	return l.page.Context(ctx).Eval(fn, args...)
}

func (l *Layout) Geom(path string) (r dom.Rect, err error) {
	res, err := l.eval(`(p) => {
		`+resolve+`
		const n = resolve(p);
		if (!n) return null;
		const r = n.getBoundingClientRect();
		return [r.x, r.y, r.width, r.height];
	}`, path)
	if err != nil {
		return r, errors.Wrapf(err, "geom %v", path)
	}
	if res.Value.Nil() {
		return r, errors.Errorf("no element at %v", path)
	}
	a := res.Value.Arr()
	if len(a) != 4 {
		return r, errors.Errorf("geom %v: unexpected result %v", path, res.Value)
	}
	return dom.Rect{X: a[0].Num(), Y: a[1].Num(), Width: a[2].Num(), Height: a[3].Num()}, nil
}

// Query returns getComputedStyle(el)[prop]. An empty value lets the
// cascade decide.
func (l *Layout) Query(path, prop string) (val string, ok bool, err error) {
	res, err := l.eval(`(p, prop) => {
		`+resolve+`
		const n = resolve(p);
		if (!n) return null;
		return getComputedStyle(n).getPropertyValue(prop);
	}`, path, prop)
	if err != nil {
		return "", false, errors.Wrapf(err, "query %v %v", path, prop)
	}
	if res.Value.Nil() {
		return "", false, errors.Errorf("no element at %v", path)
	}
	val = res.Value.Str()
	return val, val != "", nil
}

// Close closes the tab and the browser if it was launched by New.
func (l *Layout) Close() (err error) {
	if l.page != nil {
		if e := l.page.Close(); e != nil {
			log.Errorf("close tab: %v", e)
		}
		l.page = nil
	}
	if l.lnch != nil {
		if l.b != nil {
			err = l.b.Close()
		}
		l.lnch.Kill()
		l.lnch = nil
	}
	return
}
