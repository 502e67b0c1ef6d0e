//go:build !plan9

package main

import (
	"fmt"
	"io"
	"os/user"

	"9fans.net/go/plan9"
	"9fans.net/go/plan9/client"
	"github.com/knusbaum/go9p"
	"github.com/pkg/errors"
	"github.com/psilva261/sparkleq/config"
	"github.com/psilva261/sparkleq/logger"
)

const browserService = "opossum"

var fsys *client.Fsys

// Init attaches to the browser when its layout or page is needed.
func Init(cfg *config.Config, s *server) (err error) {
	if s.htm != "" && cfg.Layout.Kind != config.LayoutOpossum {
		log.Printf("not attaching to %v", browserService)
		return
	}
	conn, err := client.DialService(browserService)
	if err != nil {
		return errors.Wrap(err, "dial")
	}
	u, err := user.Current()
	if err != nil {
		return errors.Wrap(err, "get user")
	}
	if fsys, err = conn.Attach(nil, u.Username, ""); err != nil {
		return errors.Wrap(err, "attach")
	}
	if s.htm != "" || len(s.js) > 0 {
		log.Printf("not loading htm/js from service")
		return
	}
	if s.htm, err = readFile("html"); err != nil {
		return
	}
	dfid, err := fsys.Open("js", plan9.OREAD)
	if err != nil {
		return errors.Wrap(err, "open js")
	}
	defer dfid.Close()
	ds, err := dfid.Dirreadall()
	if err != nil {
		return errors.Wrap(err, "read js")
	}
	for i := 0; i < len(ds); i++ {
		src, err := readFile(fmt.Sprintf("js/%v.js", i))
		if err != nil {
			return err
		}
		s.js = append(s.js, src)
	}
	return
}

func readFile(fn string) (string, error) {
	fid, err := fsys.Open(fn, plan9.OREAD)
	if err != nil {
		return "", errors.Wrapf(err, "open %v", fn)
	}
	defer fid.Close()
	bs, err := io.ReadAll(fid)
	if err != nil {
		return "", errors.Wrapf(err, "read %v", fn)
	}
	return string(bs), nil
}

func open(fn string) (rwc io.ReadWriteCloser, err error) {
	if fsys == nil {
		return nil, errors.Errorf("not attached to %v", browserService)
	}
	return fsys.Open(fn, plan9.ORDWR)
}

// stat is true while the browser still serves its page. Without a
// browser there is no parent to watch.
func stat() (ok bool) {
	if fsys == nil {
		return true
	}
	_, err := fsys.Stat("html")
	return err == nil
}

func post(cfg *config.Config, srv go9p.Srv) (err error) {
	if cfg.Service == "" {
		return errors.New("no service specified")
	}
	return go9p.PostSrv(cfg.Service, srv)
}
