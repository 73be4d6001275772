package cluster

import (
	"math"
	"sort"
)

// mstEdge is one edge of the minimum spanning tree over the mutual
// reachability graph.
type mstEdge struct {
	a, b   int
	weight float64
}

// primMST builds the minimum spanning tree of the complete graph
// weighted by mutual reachability distance. Prim's algorithm over the
// dense matrix runs in O(n^2), which beats sorting all n^2 edges for a
// complete graph. Returned edges are sorted by ascending weight with
// deterministic tie-breaking on endpoint order.
func primMST(dist [][]float64, core []float64) []mstEdge {
	n := len(dist)
	if n < 2 {
		return nil
	}

	inTree := make([]bool, n)
	best := make([]float64, n)
	from := make([]int, n)
	for i := range best {
		best[i] = math.Inf(1)
	}

	inTree[0] = true
	for j := 1; j < n; j++ {
		best[j] = mutualReachability(dist, core, 0, j)
		from[j] = 0
	}

	edges := make([]mstEdge, 0, n-1)
	for len(edges) < n-1 {
		next, w := -1, math.Inf(1)
		for j := 0; j < n; j++ {
			if !inTree[j] && best[j] < w {
				next, w = j, best[j]
			}
		}
		inTree[next] = true
		edges = append(edges, mstEdge{a: from[next], b: next, weight: w})

		for j := 0; j < n; j++ {
			if inTree[j] {
				continue
			}
			if mr := mutualReachability(dist, core, next, j); mr < best[j] {
				best[j] = mr
				from[j] = next
			}
		}
	}

	sort.SliceStable(edges, func(i, j int) bool {
		return edges[i].weight < edges[j].weight
	})
	return edges
}

// mergeNode is one internal node of the single-linkage dendrogram.
// Children are point ids (< n) or earlier merge node ids (>= n, where
// merge t has id n+t).
type mergeNode struct {
	left, right int
	dist        float64
	size        int
}

// singleLinkage merges components in increasing edge-weight order,
// producing the dendrogram as a sequence of n-1 merge nodes. Edges must
// already be sorted ascending.
func singleLinkage(n int, edges []mstEdge) []mergeNode {
	// parent maps every point and merge node to the node that absorbed
	// it; entries pointing at themselves are current roots.
	parent := make([]int, 2*n-1)
	for i := range parent {
		parent[i] = i
	}
	find := func(x int) int {
		root := x
		for parent[root] != root {
			root = parent[root]
		}
		for parent[x] != root {
			parent[x], x = root, parent[x]
		}
		return root
	}
	size := func(nodes []mergeNode, id int) int {
		if id < n {
			return 1
		}
		return nodes[id-n].size
	}

	nodes := make([]mergeNode, 0, n-1)
	for _, e := range edges {
		ra, rb := find(e.a), find(e.b)
		if ra == rb {
			continue
		}
		id := n + len(nodes)
		nodes = append(nodes, mergeNode{
			left:  ra,
			right: rb,
			dist:  e.weight,
			size:  size(nodes, ra) + size(nodes, rb),
		})
		parent[ra] = id
		parent[rb] = id
	}
	return nodes
}
