package sel

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/net/html"
)

// ErrSyntax is the cause of every error returned by Compile.
var ErrSyntax = errors.New("syntax error")

// Selector is a compiled comma separated selector group.
type Selector []*complexSel

type complexSel struct {
	parts []*compound
	// combs[i] joins parts[i] and parts[i+1]: ' ', '>', '+' or '~'
	combs []byte
}

type compound struct {
	tag     string
	id      string
	classes []string
	attrs   []attrSel
	pseudos []pseudo
}

type attrSel struct {
	key, op, val string
}

type pseudo struct {
	name string
	nth  nth
	arg  Selector
}

type nth struct {
	a, b int
}

// Specificity is the (ids, classes, types) triple of a complex selector.
type Specificity [3]int

func (s Specificity) Less(o Specificity) bool {
	for i := range s {
		if s[i] != o[i] {
			return s[i] < o[i]
		}
	}
	return false
}

// Select returns the elements under el matching sel in document order.
// When ignoreRoot is set el itself is never part of the result.
func Select(sel string, el *html.Node, ignoreRoot bool) (es []*html.Node, err error) {
	s, err := Compile(sel)
	if err != nil {
		return nil, err
	}
	return s.Select(el, ignoreRoot), nil
}

// Compile parses sel. Errors have ErrSyntax as their cause.
func Compile(sel string) (s Selector, err error) {
	return compile(sel, false)
}

func compile(sel string, relative bool) (s Selector, err error) {
	groups, err := splitGroups(sel)
	if err != nil {
		return nil, err
	}
	for _, g := range groups {
		cs, err := parseComplex(g, relative)
		if err != nil {
			return nil, errors.Wrapf(err, "selector %q", strings.TrimSpace(g))
		}
		s = append(s, cs)
	}
	return
}

func (s Selector) Select(el *html.Node, ignoreRoot bool) (es []*html.Node) {
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && (n != el || !ignoreRoot) && s.match(n, el) {
			es = append(es, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(el)
	return
}

// Match reports whether n matches any selector of the group.
func (s Selector) Match(n *html.Node) bool {
	return s.match(n, nil)
}

// MatchSpecificity returns the highest specificity among the selectors
// of the group that match n.
func (s Selector) MatchSpecificity(n *html.Node) (sp Specificity, ok bool) {
	for _, cs := range s {
		if !cs.match(n, nil) {
			continue
		}
		if x := cs.specificity(); !ok || sp.Less(x) {
			sp = x
		}
		ok = true
	}
	return
}

func (s Selector) match(n, scope *html.Node) bool {
	if n == nil || n.Type != html.ElementNode {
		return false
	}
	for _, cs := range s {
		if cs.match(n, scope) {
			return true
		}
	}
	return false
}

func (cs *complexSel) match(n, scope *html.Node) bool {
	return cs.matchAt(len(cs.parts)-1, n, scope)
}

func (cs *complexSel) matchAt(k int, n, scope *html.Node) bool {
	if !cs.parts[k].match(n, scope) {
		return false
	}
	if k == 0 {
		return true
	}
	switch cs.combs[k-1] {
	case '>':
		return cs.matchAt(k-1, parentElement(n), scope)
	case '+':
		return cs.matchAt(k-1, prevElement(n), scope)
	case '~':
		for p := prevElement(n); p != nil; p = prevElement(p) {
			if cs.matchAt(k-1, p, scope) {
				return true
			}
		}
	default:
		for p := parentElement(n); p != nil; p = parentElement(p) {
			if cs.matchAt(k-1, p, scope) {
				return true
			}
		}
	}
	return false
}

func (cs *complexSel) specificity() (sp Specificity) {
	for _, c := range cs.parts {
		x := c.specificity()
		for i := range sp {
			sp[i] += x[i]
		}
	}
	return
}

func (c *compound) match(n, scope *html.Node) bool {
	if n == nil || n.Type != html.ElementNode {
		return false
	}
	if c.tag != "" && c.tag != "*" && !strings.EqualFold(n.Data, c.tag) {
		return false
	}
	if c.id != "" && attr(*n, "id") != c.id {
		return false
	}
	if len(c.classes) > 0 && !matchesClasses(n, c.classes) {
		return false
	}
	for _, a := range c.attrs {
		if !a.match(n) {
			return false
		}
	}
	for _, p := range c.pseudos {
		if !p.match(n, scope) {
			return false
		}
	}
	return true
}

func (c *compound) specificity() (sp Specificity) {
	if c.id != "" {
		sp[0]++
	}
	sp[1] += len(c.classes) + len(c.attrs)
	if c.tag != "" && c.tag != "*" {
		sp[2]++
	}
	for _, p := range c.pseudos {
		switch p.name {
		case "not", "has":
			var max Specificity
			for _, cs := range p.arg {
				if x := cs.specificity(); max.Less(x) {
					max = x
				}
			}
			for i := range sp {
				sp[i] += max[i]
			}
		case "scope":
		default:
			sp[1]++
		}
	}
	return
}

func (a attrSel) match(n *html.Node) bool {
	if !hasAttr(*n, a.key) {
		return false
	}
	v := attr(*n, a.key)
	switch a.op {
	case "":
		return true
	case "=":
		return v == a.val
	case "~=":
		for _, cl := range classes(v) {
			if cl == a.val {
				return true
			}
		}
		return false
	case "^=":
		return a.val != "" && strings.HasPrefix(v, a.val)
	case "$=":
		return a.val != "" && strings.HasSuffix(v, a.val)
	case "*=":
		return a.val != "" && strings.Contains(v, a.val)
	case "|=":
		return v == a.val || strings.HasPrefix(v, a.val+"-")
	}
	return false
}

func (p pseudo) match(n, scope *html.Node) bool {
	switch p.name {
	case "first-child":
		return prevElement(n) == nil
	case "last-child":
		return nextElement(n) == nil
	case "only-child":
		return prevElement(n) == nil && nextElement(n) == nil
	case "nth-child":
		i := 1
		for s := prevElement(n); s != nil; s = prevElement(s) {
			i++
		}
		return p.nth.matches(i)
	case "root":
		return n.Parent != nil && n.Parent.Type == html.DocumentNode
	case "empty":
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode || c.Type == html.TextNode {
				return false
			}
		}
		return true
	case "scope":
		if scope == nil || scope.Type != html.ElementNode {
			return n.Parent != nil && n.Parent.Type == html.DocumentNode
		}
		return n == scope
	case "not":
		return !p.arg.match(n, scope)
	case "has":
		root := n
		if n.Parent != nil {
			root = n.Parent
		}
		return p.hasMatch(n, root)
	}
	return false
}

func (p pseudo) hasMatch(n, root *html.Node) bool {
	found := false
	var walk func(c *html.Node)
	walk = func(c *html.Node) {
		for ; c != nil && !found; c = c.NextSibling {
			if p.arg.match(c, n) {
				found = true
				return
			}
			walk(c.FirstChild)
		}
	}
	walk(root.FirstChild)
	return found
}

func (x nth) matches(i int) bool {
	if x.a == 0 {
		return i == x.b
	}
	d := i - x.b
	return d%x.a == 0 && d/x.a >= 0
}

func parentElement(n *html.Node) *html.Node {
	if p := n.Parent; p != nil && p.Type == html.ElementNode {
		return p
	}
	return nil
}

func prevElement(n *html.Node) *html.Node {
	for s := n.PrevSibling; s != nil; s = s.PrevSibling {
		if s.Type == html.ElementNode {
			return s
		}
	}
	return nil
}

func nextElement(n *html.Node) *html.Node {
	for s := n.NextSibling; s != nil; s = s.NextSibling {
		if s.Type == html.ElementNode {
			return s
		}
	}
	return nil
}

// splitGroups splits at top level commas.
func splitGroups(sel string) (gs []string, err error) {
	depth := 0
	var quote rune
	start := 0
	for i, ch := range sel {
		switch {
		case quote != 0:
			if ch == quote {
				quote = 0
			}
		case ch == '"' || ch == '\'':
			quote = ch
		case ch == '(' || ch == '[':
			depth++
		case ch == ')' || ch == ']':
			depth--
			if depth < 0 {
				return nil, errors.Wrapf(ErrSyntax, "unbalanced %q at %d", ch, i)
			}
		case ch == ',' && depth == 0:
			gs = append(gs, sel[start:i])
			start = i + 1
		}
	}
	if quote != 0 {
		return nil, errors.Wrap(ErrSyntax, "unterminated string")
	}
	if depth != 0 {
		return nil, errors.Wrap(ErrSyntax, "unbalanced brackets")
	}
	gs = append(gs, sel[start:])
	return
}

func isSpace(ch byte) bool {
	return ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r' || ch == '\f'
}

func isCombinator(ch byte) bool {
	return ch == '>' || ch == '+' || ch == '~'
}

type parser struct {
	s string
	i int
}

func (p *parser) eof() bool {
	return p.i >= len(p.s)
}

func (p *parser) skipSpace() (skipped bool) {
	for !p.eof() && isSpace(p.s[p.i]) {
		p.i++
		skipped = true
	}
	return
}

// ident reads a name, resolving backslash escapes.
func (p *parser) ident() string {
	var b strings.Builder
	for !p.eof() {
		ch := p.s[p.i]
		if ch == '\\' && p.i+1 < len(p.s) {
			b.WriteByte(p.s[p.i+1])
			p.i += 2
			continue
		}
		if ch == '-' || ch == '_' || ch >= 0x80 ||
			('a' <= ch && ch <= 'z') || ('A' <= ch && ch <= 'Z') || ('0' <= ch && ch <= '9') {
			b.WriteByte(ch)
			p.i++
			continue
		}
		break
	}
	return b.String()
}

func parseComplex(s string, relative bool) (cs *complexSel, err error) {
	p := &parser{s: strings.TrimSpace(s)}
	if p.eof() {
		return nil, errors.Wrap(ErrSyntax, "empty selector")
	}
	cs = &complexSel{}
	var comb byte
	for {
		ws := p.skipSpace()
		if p.eof() {
			break
		}
		if ch := p.s[p.i]; isCombinator(ch) {
			if comb != 0 && comb != ' ' {
				return nil, errors.Wrapf(ErrSyntax, "double combinator at %d", p.i)
			}
			if len(cs.parts) == 0 && !relative {
				return nil, errors.Wrapf(ErrSyntax, "leading combinator %q", ch)
			}
			comb = ch
			p.i++
			continue
		} else if ws && len(cs.parts) > 0 && comb == 0 {
			comb = ' '
		}
		c, err := p.compound()
		if err != nil {
			return nil, err
		}
		if len(cs.parts) == 0 {
			if relative {
				if comb == 0 {
					comb = ' '
				}
				cs.parts = append(cs.parts, &compound{pseudos: []pseudo{{name: "scope"}}})
				cs.combs = append(cs.combs, comb)
			}
		} else {
			cs.combs = append(cs.combs, comb)
		}
		cs.parts = append(cs.parts, c)
		comb = 0
	}
	if comb != 0 && comb != ' ' {
		return nil, errors.Wrapf(ErrSyntax, "dangling combinator %q", comb)
	}
	return
}

func (p *parser) compound() (c *compound, err error) {
	c = &compound{}
	start := p.i
	if p.s[p.i] == '*' {
		c.tag = "*"
		p.i++
	} else if tag := p.ident(); tag != "" {
		c.tag = strings.ToLower(tag)
	}
	for !p.eof() {
		ch := p.s[p.i]
		if isSpace(ch) || isCombinator(ch) {
			break
		}
		p.i++
		switch ch {
		case '#':
			id := p.ident()
			if id == "" {
				return nil, errors.Wrapf(ErrSyntax, "empty id at %d", p.i)
			}
			c.id = id
		case '.':
			cl := p.ident()
			if cl == "" {
				return nil, errors.Wrapf(ErrSyntax, "empty class at %d", p.i)
			}
			c.classes = append(c.classes, cl)
		case '[':
			a, err := p.attr()
			if err != nil {
				return nil, err
			}
			c.attrs = append(c.attrs, a)
		case ':':
			ps, err := p.pseudo()
			if err != nil {
				return nil, err
			}
			c.pseudos = append(c.pseudos, ps)
		default:
			return nil, errors.Wrapf(ErrSyntax, "unexpected %q at %d", ch, p.i-1)
		}
	}
	if p.i == start {
		return nil, errors.Wrapf(ErrSyntax, "empty compound at %d", p.i)
	}
	return
}

func (p *parser) attr() (a attrSel, err error) {
	p.skipSpace()
	a.key = strings.ToLower(p.ident())
	if a.key == "" {
		return a, errors.Wrapf(ErrSyntax, "empty attribute name at %d", p.i)
	}
	p.skipSpace()
	if p.eof() {
		return a, errors.Wrap(ErrSyntax, "unterminated attribute selector")
	}
	if p.s[p.i] == ']' {
		p.i++
		return
	}
	for _, op := range []string{"=", "~=", "^=", "$=", "*=", "|="} {
		if strings.HasPrefix(p.s[p.i:], op) {
			a.op = op
			p.i += len(op)
			break
		}
	}
	if a.op == "" {
		return a, errors.Wrapf(ErrSyntax, "bad attribute operator at %d", p.i)
	}
	p.skipSpace()
	if p.eof() {
		return a, errors.Wrap(ErrSyntax, "unterminated attribute selector")
	}
	if q := p.s[p.i]; q == '"' || q == '\'' {
		end := strings.IndexByte(p.s[p.i+1:], q)
		if end < 0 {
			return a, errors.Wrap(ErrSyntax, "unterminated string")
		}
		a.val = p.s[p.i+1 : p.i+1+end]
		p.i += end + 2
	} else if a.val = p.ident(); a.val == "" {
		return a, errors.Wrapf(ErrSyntax, "empty attribute value at %d", p.i)
	}
	p.skipSpace()
	if p.eof() || p.s[p.i] != ']' {
		return a, errors.Wrap(ErrSyntax, "unterminated attribute selector")
	}
	p.i++
	return
}

// arg returns the text inside the parentheses at the cursor.
func (p *parser) arg() (string, error) {
	if p.eof() || p.s[p.i] != '(' {
		return "", errors.Wrapf(ErrSyntax, "missing argument at %d", p.i)
	}
	depth := 0
	for j := p.i; j < len(p.s); j++ {
		switch p.s[j] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				a := p.s[p.i+1 : j]
				p.i = j + 1
				return a, nil
			}
		}
	}
	return "", errors.Wrap(ErrSyntax, "unbalanced parentheses")
}

func (p *parser) pseudo() (ps pseudo, err error) {
	if !p.eof() && p.s[p.i] == ':' {
		return ps, errors.Wrap(ErrSyntax, "pseudo-elements are not supported")
	}
	ps.name = strings.ToLower(p.ident())
	switch ps.name {
	case "first-child", "last-child", "only-child", "root", "empty", "scope":
	case "nth-child":
		a, err := p.arg()
		if err != nil {
			return ps, err
		}
		if ps.nth, err = parseNth(a); err != nil {
			return ps, err
		}
	case "not", "has":
		a, err := p.arg()
		if err != nil {
			return ps, err
		}
		if ps.arg, err = compile(a, ps.name == "has"); err != nil {
			return ps, err
		}
	case "":
		return ps, errors.Wrapf(ErrSyntax, "empty pseudo-class at %d", p.i)
	default:
		return ps, errors.Wrapf(ErrSyntax, "unknown pseudo-class :%v", ps.name)
	}
	return
}

func parseNth(s string) (x nth, err error) {
	s = strings.ToLower(strings.ReplaceAll(s, " ", ""))
	switch s {
	case "odd":
		return nth{2, 1}, nil
	case "even":
		return nth{2, 0}, nil
	}
	i := strings.IndexByte(s, 'n')
	if i < 0 {
		x.b, err = strconv.Atoi(s)
		if err != nil {
			return x, errors.Wrapf(ErrSyntax, "nth argument %q", s)
		}
		return
	}
	switch a := s[:i]; a {
	case "", "+":
		x.a = 1
	case "-":
		x.a = -1
	default:
		if x.a, err = strconv.Atoi(a); err != nil {
			return x, errors.Wrapf(ErrSyntax, "nth argument %q", s)
		}
	}
	if b := s[i+1:]; b != "" {
		if x.b, err = strconv.Atoi(b); err != nil {
			return x, errors.Wrapf(ErrSyntax, "nth argument %q", s)
		}
	}
	return
}

func attr(n html.Node, key string) (val string) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return
}

func hasAttr(n html.Node, key string) bool {
	for _, a := range n.Attr {
		if a.Key == key {
			return true
		}
	}
	return false
}

func matchesClasses(n *html.Node, qs []string) bool {
	cls := classes(attr(*n, "class"))
	for _, q := range qs {
		found := false
		for _, cl := range cls {
			if cl == q {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func classes(cls string) (res []string) {
	return strings.FieldsFunc(cls, func(r rune) bool {
		return r < 0x80 && isSpace(byte(r))
	})
}
