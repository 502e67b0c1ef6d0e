package log

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrintf(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stderr)
	defer func(d bool) { Debug = d }(Debug)

	Debug = false
	Printf("hidden %v", 1)
	assert.Empty(t, buf.String())

	Debug = true
	Printf("shown %v", 2)
	assert.Contains(t, buf.String(), "level=debug")
	assert.Contains(t, buf.String(), `msg="shown 2"`)

	buf.Reset()
	Debug = false
	Errorf("failed: %v", "x")
	assert.Contains(t, buf.String(), "level=error")
	assert.Contains(t, buf.String(), `msg="failed: x"`)

	buf.Reset()
	Infof("done")
	assert.Contains(t, buf.String(), "msg=done")
}
