package main

import (
	"fmt"
	"io"
	"os"
	"syscall"

	"github.com/knusbaum/go9p"
	"github.com/pkg/errors"
	"github.com/psilva261/sparkleq/config"
	"github.com/psilva261/sparkleq/logger"
)

const browserMtpt = "/mnt/mycel"

func Init(cfg *config.Config, s *server) (err error) {
	if s.htm != "" || len(s.js) > 0 {
		log.Printf("not loading htm/js from %v", browserMtpt)
		return
	}
	bs, err := os.ReadFile(browserMtpt + "/html")
	if err != nil {
		return errors.Wrap(err, "read html")
	}
	s.htm = string(bs)
	ds, err := os.ReadDir(browserMtpt + "/js")
	if err != nil {
		return errors.Wrap(err, "read js")
	}
	for i := 0; i < len(ds); i++ {
		bs, err := os.ReadFile(fmt.Sprintf(browserMtpt+"/js/%v.js", i))
		if err != nil {
			return errors.Wrap(err, "read js")
		}
		s.js = append(s.js, string(bs))
	}
	return
}

func open(fn string) (rwc io.ReadWriteCloser, err error) {
	return os.OpenFile(browserMtpt+"/"+fn, os.O_RDWR, 0600)
}

func stat() (ok bool) {
	_, err := os.Stat(browserMtpt)
	return err == nil
}

func post(cfg *config.Config, srv go9p.Srv) (err error) {
	f1, f2, err := os.Pipe()
	if err != nil {
		return errors.Wrap(err, "pipe")
	}

	go func() {
		if err := go9p.ServeReadWriter(f1, f1, srv); err != nil {
			log.Errorf("serve rw: %v", err)
		}
	}()

	if err = syscall.Mount(int(f2.Fd()), -1, cfg.Mountpoint, syscall.MCREATE, ""); err != nil {
		return errors.Wrap(err, "mount")
	}
	return
}
