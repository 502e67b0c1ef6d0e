package runner

import (
	"fmt"
	"sort"
	"sync"

	"github.com/psilva261/sparkleq/logger"
)

var (
	mu    sync.Mutex
	calls []*Call
)

// Call is one access from js to the $ api, aggregated by recv and k.
type Call struct {
	recv  string
	k     string
	found bool

	n int
}

// ResetCalls starts recording accesses.
func ResetCalls() {
	mu.Lock()
	defer mu.Unlock()
	calls = make([]*Call, 0, 1000)
}

func record(recv, k string, found bool) {
	log.Printf("%v.%v", recv, k)
	mu.Lock()
	defer mu.Unlock()
	if calls != nil {
		calls = append(calls, &Call{recv: recv, k: k, found: found})
	}
}

// Calls returns the recorded accesses aggregated and sorted by recv
// and k.
func Calls() (cs []Call) {
	mu.Lock()
	defer mu.Unlock()
	byRecvK := make(map[[2]string]*Call)
	for _, c := range calls {
		key := [2]string{c.recv, c.k}
		if cc, ok := byRecvK[key]; ok {
			cc.n++
			cc.found = cc.found || c.found
		} else {
			cc := *c
			cc.n = 1
			byRecvK[key] = &cc
		}
	}
	for _, c := range byRecvK {
		cs = append(cs, *c)
	}
	sort.Slice(cs, func(i, j int) bool {
		if cs[i].recv != cs[j].recv {
			return cs[i].recv < cs[j].recv
		}
		return cs[i].k < cs[j].k
	})
	return
}

func (c Call) String() string {
	return fmt.Sprintf("found=%v\tn=%v\t%v\t%v", c.found, c.n, c.recv, c.k)
}

func PrintCalls() {
	for _, c := range Calls() {
		log.Infof("%v", c)
	}
}
