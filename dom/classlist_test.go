package dom

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassList(t *testing.T) {
	d := parseDoc(t, `<html><body><p id="p" class=" a  b a "></p></body></html>`)
	p := d.GetElementById("p")
	cl := p.ClassList()

	assert.Equal(t, []string{"a", "b"}, cl.Values())
	assert.Equal(t, 2, cl.Len())
	assert.True(t, cl.Contains("a"))
	assert.False(t, cl.Contains("c"))
	assert.Equal(t, "a b", cl.String())

	require.NoError(t, cl.Add("a"))
	assert.Equal(t, " a  b a ", p.ClassName())

	require.NoError(t, cl.Add("c", "d", "c"))
	assert.Equal(t, "a b c d", p.ClassName())

	require.NoError(t, cl.Remove("x"))
	assert.Equal(t, "a b c d", p.ClassName())

	require.NoError(t, cl.Remove("a", "d"))
	assert.Equal(t, "b c", p.ClassName())
}

func TestClassListToggle(t *testing.T) {
	d := parseDoc(t, `<html><body><p id="p"></p></body></html>`)
	cl := d.GetElementById("p").ClassList()

	on, err := cl.Toggle("x")
	require.NoError(t, err)
	assert.True(t, on)
	assert.True(t, cl.Contains("x"))

	on, err = cl.Toggle("x")
	require.NoError(t, err)
	assert.False(t, on)
	assert.Equal(t, 0, cl.Len())
}

func TestClassListInvalidToken(t *testing.T) {
	d := parseDoc(t, `<html><body><p id="p" class="a"></p></body></html>`)
	p := d.GetElementById("p")
	cl := p.ClassList()

	for _, tok := range []string{"", "a b", "x\ty"} {
		err := cl.Add(tok)
		assert.Equal(t, ErrInvalidToken, errors.Cause(err), "%q", tok)
		err = cl.Remove(tok)
		assert.Equal(t, ErrInvalidToken, errors.Cause(err), "%q", tok)
	}
	assert.Error(t, cl.Add("ok", ""))
	assert.Equal(t, "a", p.ClassName())
	_, err := cl.Toggle(" ")
	assert.Error(t, err)
}

func TestClassListMissingAttr(t *testing.T) {
	d := parseDoc(t, `<html><body><p id="p"></p></body></html>`)
	p := d.GetElementById("p")
	require.NoError(t, p.ClassList().Remove("a"))
	assert.False(t, p.HasAttribute("class"))
	assert.Empty(t, p.ClassList().Values())
}
