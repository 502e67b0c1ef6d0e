package dom

import (
	"strings"

	"github.com/pkg/errors"
)

// ErrInvalidToken is returned for empty tokens or tokens with whitespace.
var ErrInvalidToken = errors.New("invalid token")

// TokenList is the live view of a space separated attribute like class.
type TokenList struct {
	el   *Element
	attr string
}

func (el *Element) ClassList() *TokenList {
	return &TokenList{el: el, attr: "class"}
}

func validateToken(t string) error {
	if t == "" {
		return errors.Wrap(ErrInvalidToken, "empty token")
	}
	if strings.ContainsAny(t, " \t\n\r\f") {
		return errors.Wrapf(ErrInvalidToken, "token %q contains whitespace", t)
	}
	return nil
}

// Values returns the tokens without duplicates in attribute order.
func (tl *TokenList) Values() (res []string) {
	seen := make(map[string]bool)
	for _, t := range classes(attr(*tl.el.n, tl.attr)) {
		if !seen[t] {
			seen[t] = true
			res = append(res, t)
		}
	}
	return
}

func (tl *TokenList) Len() int {
	return len(tl.Values())
}

func (tl *TokenList) Contains(t string) bool {
	for _, v := range tl.Values() {
		if v == t {
			return true
		}
	}
	return false
}

func (tl *TokenList) String() string {
	return strings.Join(tl.Values(), " ")
}

// Add appends missing tokens. The attribute is only rewritten when the
// set of tokens changes.
func (tl *TokenList) Add(ts ...string) error {
	vs := tl.Values()
	changed := false
	for _, t := range ts {
		if err := validateToken(t); err != nil {
			return err
		}
		if !contains(vs, t) {
			vs = append(vs, t)
			changed = true
		}
	}
	if changed {
		tl.el.SetAttribute(tl.attr, strings.Join(vs, " "))
	}
	return nil
}

func (tl *TokenList) Remove(ts ...string) error {
	for _, t := range ts {
		if err := validateToken(t); err != nil {
			return err
		}
	}
	vs := tl.Values()
	res := vs[:0:0]
	for _, v := range vs {
		if !contains(ts, v) {
			res = append(res, v)
		}
	}
	if len(res) != len(vs) {
		tl.el.SetAttribute(tl.attr, strings.Join(res, " "))
	}
	return nil
}

// Toggle removes t if present and adds it otherwise. It reports whether
// t is present afterwards.
func (tl *TokenList) Toggle(t string) (bool, error) {
	if tl.Contains(t) {
		return false, tl.Remove(t)
	}
	return true, tl.Add(t)
}

func contains(l []string, s string) bool {
	for _, x := range l {
		if x == s {
			return true
		}
	}
	return false
}

func classes(cls string) []string {
	return strings.FieldsFunc(cls, func(r rune) bool {
		return r == ' ' || r == '\t' || r == '\n' || r == '\f' || r == '\r'
	})
}
