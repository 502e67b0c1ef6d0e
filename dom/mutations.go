package dom

import (
	"time"

	"golang.org/x/net/html"
)

type MutationType int

const (
	ChAttr MutationType = 2
	RmAttr MutationType = 3
)

func (t MutationType) String() string {
	switch t {
	case ChAttr:
		return "Attr"
	case RmAttr:
		return "RmAttr"
	}
	return ""
}

type Mutation struct {
	Time time.Time
	Type MutationType
	Path string
	Tag  string
	Node map[string]string
}

// Mutations delivers attribute changes made through the document. The
// queue is bounded; changes beyond its capacity are dropped.
func (d *Document) Mutations() <-chan Mutation {
	return d.mutations
}

// addMutation can be called after changing the node tree
func (d *Document) addMutation(t MutationType, n *html.Node) {
	m := Mutation{
		Time: time.Now(),
		Type: t,
		Node: map[string]string{},
	}
	if n != nil {
		if n.Type == html.ElementNode {
			m.Tag = n.Data
			m.Path, _ = path(d.getEl(n))
		}
		for _, a := range n.Attr {
			m.Node[a.Key] = a.Val
		}
	}
	d.dirty = true
	select {
	case d.mutations <- m:
	default:
	}
}
