package log

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Debug enables Printf output. It is read on every call so it can be
// flipped by flags after init.
var Debug bool

var l = logrus.New()

func init() {
	l.SetOutput(os.Stderr)
	l.SetLevel(logrus.DebugLevel)
	l.SetFormatter(&logrus.TextFormatter{
		DisableTimestamp: false,
		FullTimestamp:    true,
	})
}

// SetOutput redirects all log output, e.g. into a test buffer.
func SetOutput(w io.Writer) {
	l.SetOutput(w)
}

func Printf(format string, v ...interface{}) {
	if Debug {
		l.Debugf(format, v...)
	}
}

func Infof(format string, v ...interface{}) {
	l.Infof(format, v...)
}

func Errorf(format string, v ...interface{}) {
	l.Errorf(format, v...)
}

func Fatalf(format string, v ...interface{}) {
	l.Fatalf(format, v...)
}
