// Package network provides an in-memory road network answering path queries
// with Dijkstra shortest paths over free-flow link travel times.
package network

import (
	"fmt"
	"math"
	"sort"
	"sync"

	"gonum.org/v1/gonum/graph/path"
	"gonum.org/v1/gonum/graph/simple"

	"github.com/kilianp07/drt/core/model"
	"github.com/kilianp07/drt/core/routing"
)

// Link is a directed road segment between two nodes.
type Link struct {
	ID        model.LinkID `json:"id" yaml:"id"`
	From      string       `json:"from" yaml:"from"`
	To        string       `json:"to" yaml:"to"`
	Length    float64      `json:"length" yaml:"length"`           // meters
	FreeSpeed float64      `json:"freespeed" yaml:"freespeed"`     // meters per second
	Time      float64      `json:"travel_time" yaml:"travel_time"` // seconds, overrides Length/FreeSpeed
}

// TravelTime returns the free-flow time needed to traverse the link.
func (l Link) TravelTime() float64 {
	if l.Time > 0 {
		return l.Time
	}
	if l.FreeSpeed <= 0 {
		return 0
	}
	return l.Length / l.FreeSpeed
}

func (l Link) validate() error {
	if l.ID == "" || l.From == "" || l.To == "" {
		return fmt.Errorf("link %q: id, from and to are required", l.ID)
	}
	if l.Time < 0 || l.Length < 0 || l.FreeSpeed < 0 {
		return fmt.Errorf("link %s: negative attributes", l.ID)
	}
	if l.Time == 0 && l.Length > 0 && l.FreeSpeed == 0 {
		return fmt.Errorf("link %s: freespeed or travel_time is required", l.ID)
	}
	return nil
}

type edge struct{ from, to int64 }

// Network answers path queries between links. A path from link A to link B
// starts at the end of A and includes the traversal of B. It is safe for
// concurrent use.
type Network struct {
	g     *simple.WeightedDirectedGraph
	nodes map[string]int64
	links map[model.LinkID]Link
	edges map[edge]model.LinkID

	mu    sync.Mutex
	trees map[int64]path.Shortest
}

// New builds a network from its links.
func New(links []Link) (*Network, error) {
	n := &Network{
		g:     simple.NewWeightedDirectedGraph(0, math.Inf(1)),
		nodes: make(map[string]int64),
		links: make(map[model.LinkID]Link, len(links)),
		edges: make(map[edge]model.LinkID),
		trees: make(map[int64]path.Shortest),
	}
	var names []string
	for _, l := range links {
		if err := l.validate(); err != nil {
			return nil, err
		}
		if _, dup := n.links[l.ID]; dup {
			return nil, fmt.Errorf("duplicate link %s", l.ID)
		}
		n.links[l.ID] = l
		names = append(names, l.From, l.To)
	}
	sort.Strings(names)
	for _, name := range names {
		if _, ok := n.nodes[name]; !ok {
			n.nodes[name] = int64(len(n.nodes))
			n.g.AddNode(simple.Node(n.nodes[name]))
		}
	}
	ids := make([]model.LinkID, 0, len(links))
	for id := range n.links {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		l := n.links[id]
		e := edge{n.nodes[l.From], n.nodes[l.To]}
		if e.from == e.to {
			continue
		}
		// parallel links: keep the fastest
		if cur, ok := n.edges[e]; ok && n.links[cur].TravelTime() <= l.TravelTime() {
			continue
		}
		n.edges[e] = id
		n.g.SetWeightedEdge(simple.WeightedEdge{F: simple.Node(e.from), T: simple.Node(e.to), W: l.TravelTime()})
	}
	return n, nil
}

// Links returns the number of links.
func (n *Network) Links() int { return len(n.links) }

// HasLink reports whether the link exists.
func (n *Network) HasLink(id model.LinkID) bool {
	_, ok := n.links[id]
	return ok
}

func (n *Network) tree(src int64) path.Shortest {
	n.mu.Lock()
	sh, ok := n.trees[src]
	n.mu.Unlock()
	if ok {
		return sh
	}
	sh = path.DijkstraFrom(simple.Node(src), n.g)
	n.mu.Lock()
	n.trees[src] = sh
	n.mu.Unlock()
	return sh
}

// Query implements routing.PathQuery. Travel times are time independent.
func (n *Network) Query(from, to model.LinkID, departure float64) (routing.PathData, error) {
	if from == to {
		return routing.PathData{ArrivalTime: departure}, nil
	}
	fl, ok := n.links[from]
	if !ok {
		return routing.PathData{}, fmt.Errorf("%w: unknown link %s", routing.ErrNoPath, from)
	}
	tl, ok := n.links[to]
	if !ok {
		return routing.PathData{}, fmt.Errorf("%w: unknown link %s", routing.ErrNoPath, to)
	}
	nodes, w := n.tree(n.nodes[fl.To]).To(n.nodes[tl.From])
	if len(nodes) == 0 || math.IsInf(w, 1) {
		return routing.PathData{}, fmt.Errorf("%w: %s -> %s", routing.ErrNoPath, from, to)
	}
	links := make([]model.LinkID, 0, len(nodes))
	for i := 1; i < len(nodes); i++ {
		links = append(links, n.edges[edge{nodes[i-1].ID(), nodes[i].ID()}])
	}
	links = append(links, to)
	tt := w + tl.TravelTime()
	return routing.PathData{TravelTime: tt, ArrivalTime: departure + tt, Links: links}, nil
}
