package domain

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

// stubEdge is a minimal edge for graph tests: fixed endpoints, fixed
// weight, linear quoting.
type stubEdge struct {
	origin      AssetNode
	destination AssetNode
	weight      int64
}

func edge(originChain, originAsset, destChain, destAsset string, weight int64) *stubEdge {
	return &stubEdge{
		origin:      AssetNode{ChainID: originChain, AssetID: originAsset},
		destination: AssetNode{ChainID: destChain, AssetID: destAsset},
		weight:      weight,
	}
}

func (e *stubEdge) Origin() AssetNode { return e.origin }

func (e *stubEdge) Destination() AssetNode { return e.destination }

func (e *stubEdge) Weight() int64 { return e.weight }

func (e *stubEdge) Quote(_ context.Context, amount *big.Int, _ Direction) (*big.Int, error) {
	return new(big.Int).Set(amount), nil
}

func (e *stubEdge) BeginOperation(_ AtomicOperationArgs) (AtomicOperation, error) {
	return nil, nil
}

func (e *stubEdge) AppendToOperation(_ AtomicOperation, _ AtomicOperationArgs) AtomicOperation {
	return nil
}

func (e *stubEdge) BeginMetaOperation(amountIn, amountOut *big.Int) (*MetaOperation, error) {
	return &MetaOperation{AssetIn: e.origin, AssetOut: e.destination, AmountIn: amountIn, AmountOut: amountOut}, nil
}

func (e *stubEdge) AppendToMetaOperation(_ *MetaOperation, _, _ *big.Int) (*MetaOperation, error) {
	return nil, nil
}

func (e *stubEdge) OperationPrototype() (OperationPrototype, error) {
	return stubPrototype{}, nil
}

func (e *stubEdge) ShouldIgnoreFeeRequirement(_ Edge) bool          { return false }
func (e *stubEdge) CanPayNonNativeFeesInIntermediatePosition() bool { return true }
func (e *stubEdge) RequiresOriginKeepAlive() bool                   { return false }

type stubPrototype struct{}

func (stubPrototype) EstimatedCostInUSD(_ context.Context, _ PriceStore) (decimal.Decimal, error) {
	return decimal.Zero, nil
}

func (stubPrototype) EstimatedExecutionTime() time.Duration { return time.Second }

func node(chain, assetID string) AssetNode {
	return AssetNode{ChainID: chain, AssetID: assetID}
}

func assertContiguous(t *testing.T, p Path) {
	t.Helper()
	for i := 1; i < len(p); i++ {
		if p[i-1].Destination() != p[i].Origin() {
			t.Fatalf("path breaks at hop %d: %s -> %s", i, p[i-1].Destination(), p[i].Origin())
		}
	}
}

func TestGraph_FetchPaths_Direct(t *testing.T) {
	g := NewGraph([]Edge{
		edge("polkadot", "native", "kusama", "native", 1),
	}, nil, GraphConfig{})

	paths := g.FetchPaths(node("polkadot", "native"), node("kusama", "native"), 4)
	if len(paths) != 1 {
		t.Fatalf("expected 1 path, got %d", len(paths))
	}
	if len(paths[0]) != 1 {
		t.Fatalf("expected direct path, got %d hops", len(paths[0]))
	}
}

func TestGraph_FetchPaths_OrderedByWeight(t *testing.T) {
	// Two routes A->C: direct but heavy, and via B but light.
	direct := edge("a", "x", "c", "x", 10)
	hop1 := edge("a", "x", "b", "x", 1)
	hop2 := edge("b", "x", "c", "x", 1)

	g := NewGraph([]Edge{direct, hop1, hop2}, nil, GraphConfig{WeightEqualityDiv: 1})

	paths := g.FetchPaths(node("a", "x"), node("c", "x"), 4)
	if len(paths) != 2 {
		t.Fatalf("expected 2 paths, got %d", len(paths))
	}
	for _, p := range paths {
		assertContiguous(t, p)
	}
	if len(paths[0]) != 2 {
		t.Errorf("expected the lighter two-hop path first, got %d hops", len(paths[0]))
	}
	if len(paths[1]) != 1 {
		t.Errorf("expected the heavy direct path second, got %d hops", len(paths[1]))
	}
}

func TestGraph_FetchPaths_WeightCollapsePrefersShorter(t *testing.T) {
	// With the collapse divisor the 10-vs-12 difference disappears and
	// the direct path wins on hop count.
	direct := edge("a", "x", "c", "x", 12)
	hop1 := edge("a", "x", "b", "x", 5)
	hop2 := edge("b", "x", "c", "x", 5)

	g := NewGraph([]Edge{direct, hop1, hop2}, nil, GraphConfig{WeightEqualityDiv: 100})

	paths := g.FetchPaths(node("a", "x"), node("c", "x"), 4)
	if len(paths) != 2 {
		t.Fatalf("expected 2 paths, got %d", len(paths))
	}
	if len(paths[0]) != 1 {
		t.Errorf("expected the direct path to rank first under collapsed weights")
	}
}

func TestGraph_FetchPaths_ParallelEdges(t *testing.T) {
	cheap := edge("a", "x", "b", "x", 1)
	pricey := edge("a", "x", "b", "x", 5)

	g := NewGraph([]Edge{pricey, cheap}, nil, GraphConfig{WeightEqualityDiv: 1})

	paths := g.FetchPaths(node("a", "x"), node("b", "x"), 4)
	if len(paths) != 2 {
		t.Fatalf("expected both parallel edges as distinct paths, got %d", len(paths))
	}
	if paths[0][0] != Edge(cheap) {
		t.Errorf("expected the cheaper parallel edge first")
	}
}

func TestGraph_FetchPaths_MaxHops(t *testing.T) {
	edges := []Edge{
		edge("a", "x", "b", "x", 1),
		edge("b", "x", "c", "x", 1),
		edge("c", "x", "d", "x", 1),
	}

	g := NewGraph(edges, nil, GraphConfig{MaxHops: 2})
	if paths := g.FetchPaths(node("a", "x"), node("d", "x"), 4); len(paths) != 0 {
		t.Errorf("expected no path within 2 hops, got %d", len(paths))
	}

	g = NewGraph(edges, nil, GraphConfig{MaxHops: 3})
	if paths := g.FetchPaths(node("a", "x"), node("d", "x"), 4); len(paths) != 1 {
		t.Errorf("expected the 3-hop path, got %d paths", len(paths))
	}
}

func TestGraph_FetchPaths_SameOriginAndDestination(t *testing.T) {
	g := NewGraph([]Edge{edge("a", "x", "b", "x", 1)}, nil, GraphConfig{})

	if paths := g.FetchPaths(node("a", "x"), node("a", "x"), 4); paths != nil {
		t.Errorf("expected nil for identical endpoints, got %d paths", len(paths))
	}
}

func TestGraph_FetchPaths_UnknownOrigin(t *testing.T) {
	g := NewGraph([]Edge{edge("a", "x", "b", "x", 1)}, nil, GraphConfig{})

	if paths := g.FetchPaths(node("z", "x"), node("b", "x"), 4); paths != nil {
		t.Errorf("expected nil for unknown origin, got %d paths", len(paths))
	}
}

func TestGraph_FetchPaths_FilterBlocksExtension(t *testing.T) {
	hop1 := edge("a", "x", "b", "x", 1)
	hop2 := edge("b", "x", "c", "x", 1)

	// Admit anything as a first hop, refuse every extension.
	filter := EdgeFilterFunc(func(_ Edge, predecessor Edge) bool {
		return predecessor == nil
	})

	g := NewGraph([]Edge{hop1, hop2}, filter, GraphConfig{})

	if paths := g.FetchPaths(node("a", "x"), node("c", "x"), 4); len(paths) != 0 {
		t.Errorf("expected the filter to block the two-hop path")
	}
	if paths := g.FetchPaths(node("a", "x"), node("b", "x"), 4); len(paths) != 1 {
		t.Errorf("expected the single-hop path to survive the filter")
	}
}

func TestGraph_FetchPaths_NoRevisits(t *testing.T) {
	g := NewGraph([]Edge{
		edge("a", "x", "b", "x", 1),
		edge("b", "x", "a", "x", 1),
		edge("b", "x", "c", "x", 1),
	}, nil, GraphConfig{MaxHops: 4})

	paths := g.FetchPaths(node("a", "x"), node("c", "x"), 8)
	if len(paths) != 1 {
		t.Fatalf("expected exactly one cycle-free path, got %d", len(paths))
	}
	assertContiguous(t, paths[0])
}

func TestGraph_FetchReachability(t *testing.T) {
	g := NewGraph([]Edge{
		edge("a", "x", "b", "x", 1),
		edge("b", "x", "c", "x", 1),
	}, nil, GraphConfig{})

	reach := g.FetchReachability()

	if got := len(reach[node("a", "x")]); got != 2 {
		t.Errorf("expected a to reach 2 nodes, got %d", got)
	}
	if got := len(reach[node("b", "x")]); got != 1 {
		t.Errorf("expected b to reach 1 node, got %d", got)
	}
	// Destination-only vertices still appear in the snapshot.
	if _, ok := reach[node("c", "x")]; !ok {
		t.Errorf("expected c to be present as a vertex")
	}
	if got := len(reach[node("c", "x")]); got != 0 {
		t.Errorf("expected c to reach nothing, got %d", got)
	}
}

func TestGraph_FetchReachability_FilterAware(t *testing.T) {
	hop1 := edge("a", "x", "b", "x", 1)
	hop2 := edge("b", "x", "c", "x", 1)

	filter := EdgeFilterFunc(func(_ Edge, predecessor Edge) bool {
		return predecessor == nil
	})

	g := NewGraph([]Edge{hop1, hop2}, filter, GraphConfig{})

	reach := g.FetchReachability()
	if got := len(reach[node("a", "x")]); got != 1 {
		t.Errorf("expected a to reach only b under the filter, got %d nodes", got)
	}
}

func TestGraph_FetchReachability_Memoized(t *testing.T) {
	g := NewGraph([]Edge{edge("a", "x", "b", "x", 1)}, nil, GraphConfig{})

	first := g.FetchReachability()
	first[node("a", "x")] = nil

	// The second call must return the same snapshot, not recompute it.
	second := g.FetchReachability()
	if len(second[node("a", "x")]) != 0 {
		t.Errorf("expected the snapshot to be computed once and shared")
	}
}
