package cluster

import "sort"

// condensedEdge connects a condensed cluster to either a child cluster
// (child >= n) or a point (child < n) that separated from it at the
// given density level.
type condensedEdge struct {
	parent, child int
	lambda        float64
	size          int
}

// condensedTree is the dendrogram reduced to branches that retain at
// least minClusterSize points. Cluster ids occupy n..n+numClusters-1
// with the root at n.
type condensedTree struct {
	n           int
	root        int
	numClusters int
	edges       []condensedEdge
}

// condense walks the single-linkage dendrogram top-down. At each split,
// a side keeping at least m points either becomes a new candidate
// cluster (when its sibling also keeps m) or continues the parent
// cluster; points on a side below m fall away at the split's density
// level.
func condense(n int, merges []mergeNode, m int) *condensedTree {
	t := &condensedTree{n: n, root: n}
	if len(merges) == 0 {
		return t
	}

	rootLink := n + len(merges) - 1
	relabel := map[int]int{rootLink: t.root}
	next := t.root + 1

	linkSize := func(id int) int {
		if id < n {
			return 1
		}
		return merges[id-n].size
	}

	queue := []int{rootLink}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]

		node := merges[id-n]
		clabel := relabel[id]
		lambda := toLambda(node.dist)
		left, right := node.left, node.right
		ls, rs := linkSize(left), linkSize(right)

		switch {
		case ls >= m && rs >= m:
			relabel[left] = next
			t.edges = append(t.edges, condensedEdge{clabel, next, lambda, ls})
			next++
			relabel[right] = next
			t.edges = append(t.edges, condensedEdge{clabel, next, lambda, rs})
			next++
			queue = append(queue, left, right)

		case ls < m && rs < m:
			for _, p := range leafPoints(n, merges, left) {
				t.edges = append(t.edges, condensedEdge{clabel, p, lambda, 1})
			}
			for _, p := range leafPoints(n, merges, right) {
				t.edges = append(t.edges, condensedEdge{clabel, p, lambda, 1})
			}

		case ls < m:
			for _, p := range leafPoints(n, merges, left) {
				t.edges = append(t.edges, condensedEdge{clabel, p, lambda, 1})
			}
			relabel[right] = clabel
			queue = append(queue, right)

		default:
			for _, p := range leafPoints(n, merges, right) {
				t.edges = append(t.edges, condensedEdge{clabel, p, lambda, 1})
			}
			relabel[left] = clabel
			queue = append(queue, left)
		}
	}

	t.numClusters = next - t.root
	return t
}

// leafPoints collects the point ids under a dendrogram node.
func leafPoints(n int, merges []mergeNode, id int) []int {
	if id < n {
		return []int{id}
	}
	var points []int
	stack := []int{id}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if cur < n {
			points = append(points, cur)
			continue
		}
		stack = append(stack, merges[cur-n].left, merges[cur-n].right)
	}
	return points
}

// stabilities computes each condensed cluster's stability: the sum over
// its children of member count times how far past the cluster's birth
// density each child persisted.
func (t *condensedTree) stabilities() map[int]float64 {
	birth := make(map[int]float64, t.numClusters)
	birth[t.root] = 0
	for _, e := range t.edges {
		if e.child >= t.n {
			birth[e.child] = e.lambda
		}
	}

	stab := make(map[int]float64, t.numClusters)
	for c := t.root; c < t.root+t.numClusters; c++ {
		stab[c] = 0
	}
	for _, e := range t.edges {
		stab[e.parent] += (e.lambda - birth[e.parent]) * float64(e.size)
	}
	return stab
}

// childClusters maps each condensed cluster to its direct child
// clusters.
func (t *condensedTree) childClusters() map[int][]int {
	children := make(map[int][]int)
	for _, e := range t.edges {
		if e.child >= t.n {
			children[e.parent] = append(children[e.parent], e.child)
		}
	}
	return children
}

// selectClusters performs excess-of-mass selection over the condensed
// tree: leaf clusters are preferred unless an ancestor's own stability
// strictly exceeds the summed stability of its selected descendants.
// The root is never a candidate unless allowSingle is set.
func (t *condensedTree) selectClusters(allowSingle bool) map[int]bool {
	stability := t.stabilities()
	children := t.childClusters()

	isCluster := make(map[int]bool, t.numClusters)
	for c := t.root; c < t.root+t.numClusters; c++ {
		isCluster[c] = true
	}
	if !allowSingle {
		isCluster[t.root] = false
	}

	// Cluster ids were assigned top-down, so descending order visits
	// every descendant before its ancestor.
	for c := t.root + t.numClusters - 1; c >= t.root; c-- {
		if c == t.root && !allowSingle {
			continue
		}
		kids := children[c]
		if len(kids) == 0 {
			continue
		}
		var subtree float64
		for _, k := range kids {
			subtree += stability[k]
		}
		if stability[c] > subtree {
			for _, d := range t.descendants(children, c) {
				isCluster[d] = false
			}
		} else {
			stability[c] = subtree
			isCluster[c] = false
		}
	}

	selected := make(map[int]bool)
	for c, ok := range isCluster {
		if ok {
			selected[c] = true
		}
	}
	return selected
}

// descendants returns every cluster below c in the condensed tree.
func (t *condensedTree) descendants(children map[int][]int, c int) []int {
	var out []int
	stack := append([]int(nil), children[c]...)
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		out = append(out, cur)
		stack = append(stack, children[cur]...)
	}
	return out
}

// label assigns contiguous cluster labels and membership probabilities.
// A point belongs to the nearest selected ancestor of the cluster it
// fell from; points whose chain reaches the root unselected are noise.
// A member's probability reflects how deep into the cluster's density
// range it remained attached: 1 at the core, approaching 0 at the
// boundary.
func (t *condensedTree) label(selected map[int]bool, r *Result) {
	n := t.n

	parentOf := make(map[int]int, t.numClusters)
	pointParent := make([]int, n)
	pointLambda := make([]float64, n)
	for i := range pointParent {
		pointParent[i] = -1
	}
	for _, e := range t.edges {
		if e.child < n {
			pointParent[e.child] = e.parent
			pointLambda[e.child] = e.lambda
		} else {
			parentOf[e.child] = e.parent
		}
	}

	ids := make([]int, 0, len(selected))
	for c := range selected {
		ids = append(ids, c)
	}
	sort.Ints(ids)
	labelOf := make(map[int]int, len(ids))
	for i, id := range ids {
		labelOf[id] = i
	}

	for p := 0; p < n; p++ {
		cur := pointParent[p]
		if cur < 0 {
			r.Labels[p] = Noise
			continue
		}
		for cur != t.root && !selected[cur] {
			cur = parentOf[cur]
		}
		if selected[cur] {
			r.Labels[p] = labelOf[cur]
		} else {
			r.Labels[p] = Noise
		}
	}

	// Per-cluster density ceiling, ignoring the duplicate-point cap so
	// a handful of identical records cannot flatten everyone else's
	// probability.
	maxLambda := make([]float64, len(ids))
	for p := 0; p < n; p++ {
		if l := r.Labels[p]; l >= 0 {
			if lam := pointLambda[p]; lam < lambdaCap && lam > maxLambda[l] {
				maxLambda[l] = lam
			}
		}
	}
	for p := 0; p < n; p++ {
		l := r.Labels[p]
		if l < 0 {
			r.Probabilities[p] = 0
			continue
		}
		ceiling := maxLambda[l]
		if ceiling <= 0 {
			r.Probabilities[p] = 1
			continue
		}
		lam := pointLambda[p]
		if lam > ceiling {
			lam = ceiling
		}
		r.Probabilities[p] = lam / ceiling
	}
}
