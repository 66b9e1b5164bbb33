package domain

import (
	"container/heap"
	"sync"
)

// EdgeFilter decides, edge by edge, whether a hop may extend the path
// being walked. predecessor is nil for the first hop.
type EdgeFilter interface {
	ShouldVisit(edge Edge, predecessor Edge) bool
}

// EdgeFilterFunc adapts a function to the EdgeFilter interface.
type EdgeFilterFunc func(edge Edge, predecessor Edge) bool

func (f EdgeFilterFunc) ShouldVisit(edge Edge, predecessor Edge) bool {
	return f(edge, predecessor)
}

// GraphConfig tunes path search.
type GraphConfig struct {
	// WeightEqualityDiv collapses near-duplicate edge weights: edges whose
	// weights land in the same div-sized bucket rank equal during search,
	// so venue-order noise does not produce false ties. Values < 1 disable
	// the collapse.
	WeightEqualityDiv int64
	// MaxHops bounds the length of any returned path.
	MaxHops int
}

// DefaultMaxHops bounds path search when no explicit limit is configured.
const DefaultMaxHops = 4

func (c GraphConfig) withDefaults() GraphConfig {
	if c.WeightEqualityDiv < 1 {
		c.WeightEqualityDiv = 1
	}
	if c.MaxHops < 1 {
		c.MaxHops = DefaultMaxHops
	}
	return c
}

// Graph is an immutable weighted directed graph over asset nodes.
// It is built fresh on every provider update and safely shared by
// reference; the reachability snapshot is computed lazily once per
// instance.
type Graph struct {
	connections map[AssetNode][]Edge
	filter      EdgeFilter
	cfg         GraphConfig

	reachOnce sync.Once
	reach     map[AssetNode][]AssetNode
}

// NewGraph builds a graph from the merged edge set of all venues.
// Parallel edges between the same pair stay distinct.
func NewGraph(edges []Edge, filter EdgeFilter, cfg GraphConfig) *Graph {
	connections := make(map[AssetNode][]Edge)
	for _, e := range edges {
		connections[e.Origin()] = append(connections[e.Origin()], e)
		// Destination-only nodes still appear as vertices.
		if _, ok := connections[e.Destination()]; !ok {
			connections[e.Destination()] = nil
		}
	}

	return &Graph{
		connections: connections,
		filter:      filter,
		cfg:         cfg.withDefaults(),
	}
}

// NodeCount returns the number of vertices.
func (g *Graph) NodeCount() int {
	return len(g.connections)
}

// EdgeCount returns the number of directed edges.
func (g *Graph) EdgeCount() int {
	var n int
	for _, edges := range g.connections {
		n += len(edges)
	}
	return n
}

// Nodes returns every vertex of the graph.
func (g *Graph) Nodes() []AssetNode {
	nodes := make([]AssetNode, 0, len(g.connections))
	for node := range g.connections {
		nodes = append(nodes, node)
	}
	return nodes
}

// collapsedWeight buckets an edge weight so near-duplicates rank equal.
func (g *Graph) collapsedWeight(e Edge) int64 {
	return e.Weight() / g.cfg.WeightEqualityDiv
}

// searchState is one partial path on the frontier.
type searchState struct {
	edges  []Edge
	weight int64
	// seq breaks weight ties in insertion order so results are stable.
	seq int
}

func (s *searchState) tail() Edge {
	return s.edges[len(s.edges)-1]
}

type stateHeap []*searchState

func (h stateHeap) Len() int { return len(h) }

func (h stateHeap) Less(i, j int) bool {
	if h[i].weight != h[j].weight {
		return h[i].weight < h[j].weight
	}
	if len(h[i].edges) != len(h[j].edges) {
		return len(h[i].edges) < len(h[j].edges)
	}
	return h[i].seq < h[j].seq
}

func (h stateHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *stateHeap) Push(x any) { *h = append(*h, x.(*searchState)) }

func (h *stateHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return item
}

// FetchPaths returns up to maxTopPaths distinct shortest paths from
// origin to destination, ordered by cumulative collapsed weight. Every
// hop of every returned path passed the filter given its predecessor.
// Returns an empty slice when no admissible path exists.
func (g *Graph) FetchPaths(origin, destination AssetNode, maxTopPaths int) []Path {
	if maxTopPaths < 1 || origin == destination {
		return nil
	}
	if _, ok := g.connections[origin]; !ok {
		return nil
	}

	var (
		frontier stateHeap
		results  []Path
		seq      int
	)

	for _, e := range g.connections[origin] {
		if !g.shouldVisit(e, nil) {
			continue
		}
		seq++
		heap.Push(&frontier, &searchState{
			edges:  []Edge{e},
			weight: g.collapsedWeight(e),
			seq:    seq,
		})
	}

	for frontier.Len() > 0 && len(results) < maxTopPaths {
		state := heap.Pop(&frontier).(*searchState)
		tail := state.tail()

		if tail.Destination() == destination {
			results = append(results, Path(state.edges))
			continue
		}

		if len(state.edges) >= g.cfg.MaxHops {
			continue
		}

		for _, next := range g.connections[tail.Destination()] {
			if state.visits(next.Destination()) || next.Destination() == origin {
				continue
			}
			if !g.shouldVisit(next, tail) {
				continue
			}

			extended := make([]Edge, len(state.edges), len(state.edges)+1)
			copy(extended, state.edges)
			extended = append(extended, next)

			seq++
			heap.Push(&frontier, &searchState{
				edges:  extended,
				weight: state.weight + g.collapsedWeight(next),
				seq:    seq,
			})
		}
	}

	return results
}

// visits reports whether the partial path already touches node.
func (s *searchState) visits(node AssetNode) bool {
	for _, e := range s.edges {
		if e.Origin() == node || e.Destination() == node {
			return true
		}
	}
	return false
}

func (g *Graph) shouldVisit(edge Edge, predecessor Edge) bool {
	if g.filter == nil {
		return true
	}
	return g.filter.ShouldVisit(edge, predecessor)
}

// FetchReachability returns, for every node, the set of nodes reachable
// from it under the filter. The snapshot is computed once per graph
// instance; constructing a new graph invalidates it implicitly.
func (g *Graph) FetchReachability() map[AssetNode][]AssetNode {
	g.reachOnce.Do(func() {
		reach := make(map[AssetNode][]AssetNode, len(g.connections))
		for node := range g.connections {
			reach[node] = g.reachableFrom(node)
		}
		g.reach = reach
	})
	return g.reach
}

// reachableFrom walks breadth-first from origin, carrying the edge used
// to arrive at each frontier node as the filter's predecessor.
func (g *Graph) reachableFrom(origin AssetNode) []AssetNode {
	type frontierItem struct {
		node AssetNode
		via  Edge
		hops int
	}

	seen := map[AssetNode]struct{}{origin: {}}
	var reached []AssetNode

	queue := []frontierItem{{node: origin}}
	for len(queue) > 0 {
		item := queue[0]
		queue = queue[1:]

		if item.hops >= g.cfg.MaxHops {
			continue
		}

		for _, e := range g.connections[item.node] {
			if _, ok := seen[e.Destination()]; ok {
				continue
			}
			if !g.shouldVisit(e, item.via) {
				continue
			}

			seen[e.Destination()] = struct{}{}
			reached = append(reached, e.Destination())
			queue = append(queue, frontierItem{node: e.Destination(), via: e, hops: item.hops + 1})
		}
	}

	return reached
}
