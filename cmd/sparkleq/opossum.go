package main

import (
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/psilva261/sparkleq/dom"
	"github.com/psilva261/sparkleq/logger"
)

// opossum reads layout results from the file tree the browser serves
// per element path: <path>/geom and <path>/style/<prop>.
type opossum struct {
	open func(fn string) (io.ReadWriteCloser, error)
}

func (o *opossum) read(fn string) (val string, err error) {
	rwc, err := o.open(fn)
	if err != nil {
		return "", errors.Wrapf(err, "open %v", fn)
	}
	defer rwc.Close()
	bs, err := io.ReadAll(rwc)
	if err != nil {
		return "", errors.Wrapf(err, "read %v", fn)
	}
	return string(bs), nil
}

func (o *opossum) Geom(path string) (r dom.Rect, err error) {
	val, err := o.read(path + "/geom")
	if err != nil {
		return
	}
	log.Printf("geom(%v) = %v", path, val)
	return parseGeom(val)
}

func (o *opossum) Query(path, prop string) (val string, ok bool, err error) {
	val, err = o.read(path + "/style/" + prop)
	if err != nil {
		return "", false, err
	}
	val = strings.TrimSpace(val)
	log.Printf("query(%v, %v) = %v", path, prop, val)
	return val, val != "", nil
}

// parseGeom parses the corners "x1,y1,x2,y2".
func parseGeom(s string) (r dom.Rect, err error) {
	items := strings.Split(strings.TrimSpace(s), ",")
	if len(items) != 4 {
		return r, errors.Errorf("malformed geom %q", s)
	}
	var c [4]float64
	for i, it := range items {
		if c[i], err = strconv.ParseFloat(strings.TrimSpace(it), 64); err != nil {
			return r, errors.Wrapf(err, "geom %q", s)
		}
	}
	return dom.Rect{X: c[0], Y: c[1], Width: c[2] - c[0], Height: c[3] - c[1]}, nil
}
