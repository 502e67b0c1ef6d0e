package runner

import (
	"strings"
	"testing"
	"time"

	"github.com/psilva261/sparkleq/dom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const simpleHTML = `
<html>
<head><style>.big { font-size: 20px }</style></head>
<body>
<h1 id="title">Hello</h1>
<p class="x" id="p1">one</p>
<p class="x" id="p2">two</p>
<input type="checkbox" id="cb">
</body>
</html>
`

func start(t *testing.T, l dom.Layout) *Runner {
	t.Helper()
	r := New(simpleHTML, l, WithSettle(50*time.Millisecond), WithTimeout(5*time.Second))
	r.Start()
	t.Cleanup(r.Stop)
	_, err := r.Exec(``, true)
	require.NoError(t, err)
	return r
}

func exec(t *testing.T, r *Runner, s string) string {
	t.Helper()
	res, err := r.Exec(s, false)
	require.NoError(t, err, s)
	return res
}

func TestSimple(t *testing.T) {
	r := start(t, nil)
	exec(t, r, `
	var state = 'empty';
	var a = 1;
	b = 2;
	`)
	res := exec(t, r, `
	(function() {
		if (state !== 'empty') throw new Error(state);
		state = a + b;
	})();
	state;
	`)
	assert.Equal(t, "3", res)
}

func TestExecErrors(t *testing.T) {
	r := New(simpleHTML, nil)
	_, err := r.Exec(`1`, true)
	assert.Error(t, err)

	r = start(t, nil)
	_, err = r.Exec(`throw new Error('boom')`, false)
	assert.Error(t, err)
	_, err = r.Exec(`$('p >')`, false)
	assert.Error(t, err)
}

func TestCompatComments(t *testing.T) {
	r := start(t, nil)
	assert.Equal(t, "2", exec(t, r, "<!--\n1 + 1\n-->"))
}

func TestDollar(t *testing.T) {
	r := start(t, nil)
	assert.Equal(t, "2", exec(t, r, `$('p.x').length`))
	assert.Equal(t, "0", exec(t, r, `$('.none').length`))
	assert.Equal(t, "0", exec(t, r, `$().length`))
	assert.Equal(t, "P", exec(t, r, `$('p')[0].tagName`))
	assert.Equal(t, "p2", exec(t, r, `$('p').get(1).id`))
	assert.Equal(t, "undefined", exec(t, r, `$('p')[5]`))
	assert.Equal(t, "1", exec(t, r, `$($('#p1')[0]).length`))
	assert.Equal(t, "one,two", exec(t, r, `
		var ts = [];
		$('p').each(function(i, el) { ts.push(el.textContent); });
		ts.join(',');
	`))
}

func TestCSS(t *testing.T) {
	r := start(t, nil)
	assert.Equal(t, "block", exec(t, r, `$('#p1').css('display')`))
	assert.Equal(t, "null", exec(t, r, `$('.none').css('display')`))
	assert.Equal(t, "true", exec(t, r, `$('.none').css('display') === null`))

	exec(t, r, `$('p').css('color', 'red').css({width: '10px', backgroundColor: 'blue'})`)
	p2 := r.Document().GetElementById("p2")
	assert.Equal(t, "color: red; background-color: blue; width: 10px;", p2.Style().CSSText())

	assert.Equal(t, "red", exec(t, r, `$('#p2').css('color', undefined)`))
	exec(t, r, `$('#p2').css('width', null).css({color: null, height: undefined})`)
	assert.Equal(t, "background-color: blue;", p2.Style().CSSText())

	exec(t, r, `$('p').hide()`)
	assert.Equal(t, "none", exec(t, r, `$('#p2').css('display')`))
	exec(t, r, `$('p').show()`)
	assert.Equal(t, "block", exec(t, r, `$('#p2').css('display')`))

	v, err := r.CSS("#title", "display")
	require.NoError(t, err)
	assert.Equal(t, "block", v)
	_, err = r.CSS("#none", "display")
	assert.Error(t, err)
}

func TestClasses(t *testing.T) {
	r := start(t, nil)
	assert.Equal(t, "16px", exec(t, r, `$('#p1').css('font-size')`))
	exec(t, r, `$('p').addClass('big').addClass('big').removeClass('x')`)
	assert.Equal(t, "big", r.Document().GetElementById("p1").ClassName())
	assert.Equal(t, "20px", exec(t, r, `$('#p1').css('font-size')`))
	assert.Equal(t, "true", exec(t, r, `$('p').hasClass('big')`))
	assert.Equal(t, "false", exec(t, r, `$('p').hasClass('x')`))

	for _, c := range []string{"bad token", ""} {
		_, err := r.Exec(`$('p').addClass('`+c+`')`, false)
		assert.Error(t, err, c)
		_, err = r.Exec(`$('p').removeClass('`+c+`')`, false)
		assert.Error(t, err, c)
	}
	assert.Equal(t, "big", r.Document().GetElementById("p2").ClassName())
	assert.Equal(t, "caught", exec(t, r, `
		var res = 'none';
		try { $('p').addClass('a b'); } catch (e) { res = 'caught'; }
		res;
	`))
	assert.Equal(t, "0", exec(t, r, `$('.none').addClass('a b').length`))
}

func TestEvents(t *testing.T) {
	r := start(t, nil)
	res := exec(t, r, `
		var n = 0;
		var ids = [];
		function f(e) { n++; ids.push(this.id + ':' + e.type + ':' + e.target.id); }
		$('p').on('ping', f);
		$('p').on('ping', f);
		$('#p1').trigger('ping');
		$('p').trigger('ping');
		$('p').off('ping', f);
		$('p').trigger('ping');
		n + ' ' + ids.join(',');
	`)
	assert.Equal(t, "3 p1:ping:p1,p1:ping:p1,p2:ping:p2", res)
}

func TestPosition(t *testing.T) {
	l := &dom.StaticLayout{
		Rects: map[string]dom.Rect{
			"/0/1": {X: 8, Y: 50, Width: 200, Height: 20},
		},
	}
	r := start(t, l)
	assert.Equal(t, "8 50 200 20", exec(t, r, `
		var p = $('#p1').position();
		[p.left, p.top, p.width, p.height].join(' ');
	`))
	assert.Equal(t, "null", exec(t, r, `$('.none').position()`))
	_, err := r.Exec(`$('#p2').position()`, false)
	assert.Error(t, err)
}

func TestStatics(t *testing.T) {
	r := start(t, nil)
	assert.Equal(t, `{"a":2,"b":3}`, exec(t, r, `
		var o = {a: 1};
		var res = $.extend(o, {a: 2, b: 3});
		JSON.stringify(o) === JSON.stringify(res) ? JSON.stringify(o) : 'copy';
	`))
	assert.Equal(t, `{"a":1,"b":3}`, exec(t, r, `JSON.stringify($.extend({a: 1}, null, {b: 3}))`))
	assert.Equal(t, "undefined", exec(t, r, `$.extend(undefined)`))
	assert.Equal(t, "undefined", exec(t, r, `$.extend(undefined, null, {})`))
	assert.Equal(t, "TypeError", exec(t, r, `
		var name = 'none';
		try { $.extend(undefined, {z: 1}); } catch (e) { name = e.name; }
		name;
	`))
	assert.Equal(t, "true", exec(t, r, `$.isFunction(function() {})`))
	assert.Equal(t, "false", exec(t, r, `$.isFunction({})`))
	assert.Equal(t, "false", exec(t, r, `$.isFunction(null)`))
	assert.Equal(t, "true", exec(t, r, `$.isElement($('p')[0])`))
	assert.Equal(t, "false", exec(t, r, `$.isElement({nodeType: 1})`))
	assert.Equal(t, "false", exec(t, r, `$.isElement('p')`))
}

func TestTrackChanges(t *testing.T) {
	r := start(t, nil)
	_, changed, err := r.TrackChanges()
	require.NoError(t, err)
	assert.False(t, changed)

	exec(t, r, `$('h1').addClass('a')`)
	html, changed, err := r.TrackChanges()
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Contains(t, html, `<h1 id="title" class="a">`)

	_, changed, err = r.TrackChanges()
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestTriggerClick(t *testing.T) {
	r := start(t, nil)
	html, changed, err := r.TriggerClick("#cb")
	require.NoError(t, err)
	assert.True(t, changed)
	assert.True(t, strings.Contains(html, `checked=""`))

	exec(t, r, `$('h1').on('click', function() { $('h1').addClass('clicked'); })`)
	html, changed, err = r.TriggerClick("h1")
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Contains(t, html, `class="clicked"`)

	_, _, err = r.TriggerClick("#none")
	assert.Error(t, err)
}

func TestCalls(t *testing.T) {
	r := start(t, nil)
	ResetCalls()
	exec(t, r, `$('p').length; $('p').length; $('p').nope`)
	var found bool
	for _, c := range Calls() {
		if c.recv == "set" && c.k == "length" {
			found = true
			assert.Equal(t, 2, c.n)
			assert.True(t, c.found)
		}
		if c.recv == "set" && c.k == "nope" {
			assert.False(t, c.found)
		}
	}
	assert.True(t, found)
}
