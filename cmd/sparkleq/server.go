package main

import (
	"bufio"
	"io"
	"net"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/psilva261/sparkleq/dom"
	"github.com/psilva261/sparkleq/logger"
	"github.com/psilva261/sparkleq/runner"
)

// newLayoutFunc creates the layout for a document. The returned func
// releases it.
type newLayoutFunc func(htm string) (dom.Layout, func(), error)

// server handles the ctl file. Commands are one per connection:
//
//	start
//	stop
//	click\n<selector>
//	css\n<selector>\n<prop>
type server struct {
	mu sync.Mutex

	htm    string
	js     []string
	layout newLayoutFunc
	opts   []runner.Option

	r           *runner.Runner
	closeLayout func()
}

type acceptor interface {
	Accept() (net.Conn, error)
}

func (s *server) Serve(l acceptor) {
	for {
		conn, err := l.Accept()
		if err != nil {
			log.Errorf("accept: %v", err)
			continue
		}
		go s.handle(conn)
	}
}

func (s *server) handle(conn io.ReadWriteCloser) {
	r := bufio.NewReader(conn)
	w := bufio.NewWriter(conn)
	defer conn.Close()

	cmd, err := readLine(r)
	if err != nil {
		log.Errorf("read cmd: %v", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var res string
	switch cmd {
	case "start":
		res, err = s.start()
	case "stop":
		s.stop()
	case "click":
		var sel string
		if sel, err = readLine(r); err == nil {
			res, err = s.click(sel)
		}
	case "css":
		var sel, prop string
		if sel, err = readLine(r); err == nil {
			if prop, err = readLine(r); err == nil {
				res, err = s.css(sel, prop)
			}
		}
	default:
		err = errors.Errorf("unknown cmd %q", cmd)
	}
	if err != nil {
		log.Errorf("%v: %v", cmd, err)
		return
	}
	if res != "" {
		w.WriteString(res)
		if err := w.Flush(); err != nil {
			log.Errorf("%v: write: %v", cmd, err)
		}
	}
}

// readLine reads one line. The last line may lack the newline.
func readLine(r *bufio.Reader) (string, error) {
	l, err := r.ReadString('\n')
	if err != nil && !(err == io.EOF && l != "") {
		return "", errors.Wrap(err, "read line")
	}
	return strings.TrimSpace(l), nil
}

// start runs the scripts on a fresh document and returns the html if
// they changed it.
func (s *server) start() (html string, err error) {
	s.stop()
	runner.ResetCalls()

	l, closeLayout, err := s.layout(s.htm)
	if err != nil {
		return "", errors.Wrap(err, "layout")
	}
	s.closeLayout = closeLayout
	s.r = runner.New(s.htm, l, s.opts...)
	s.r.Start()

	if _, err := s.r.Exec("", true); err != nil {
		return "", errors.Wrap(err, "init")
	}
	for i, src := range s.js {
		if _, err := s.r.Exec(src, false); err != nil {
			log.Errorf("exec <script> %d: %v", i, err)
		}
	}
	html, changed, err := s.r.TrackChanges()
	if err != nil {
		return "", errors.Wrap(err, "track changes")
	}
	s.printCalls()
	log.Printf("start: changed = %v", changed)
	return html, nil
}

func (s *server) stop() {
	if s.r != nil {
		s.r.Stop()
		s.r = nil
	}
	if s.closeLayout != nil {
		s.closeLayout()
		s.closeLayout = nil
	}
}

func (s *server) click(sel string) (html string, err error) {
	if s.r == nil {
		return "", errors.New("not started")
	}
	runner.ResetCalls()
	html, changed, err := s.r.TriggerClick(sel)
	if err != nil {
		return "", err
	}
	s.printCalls()
	log.Printf("click %v: changed = %v", sel, changed)
	return html, nil
}

func (s *server) css(sel, prop string) (val string, err error) {
	if s.r == nil {
		return "", errors.New("not started")
	}
	return s.r.CSS(sel, prop)
}

func (s *server) printCalls() {
	if log.Debug {
		runner.PrintCalls()
	}
}
