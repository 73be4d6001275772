// Package cluster implements hierarchical density-based clustering over
// a precomputed dissimilarity matrix.
//
// The algorithm follows the HDBSCAN construction: per-point core
// distances, a mutual reachability transform, a minimum spanning tree
// over the mutual reachability graph, single-linkage merging into a
// dendrogram, condensation by minimum cluster size, and an
// excess-of-mass selection of the flat clustering that maximizes total
// cluster stability. Points not captured by a selected cluster are
// labeled noise (-1); clustered points additionally receive a
// membership probability in [0,1].
package cluster

import (
	"fmt"
	"sort"
)

// Noise is the label assigned to points outside every selected cluster.
const Noise = -1

// lambdaCap substitutes for an infinite density level when a merge
// happens at zero distance (exact duplicate points). Keeping the value
// finite keeps stability sums and probability ratios well defined.
const lambdaCap = 1e9

// Options configures a clustering run.
type Options struct {
	// MinClusterSize is the smallest point count a condensed branch
	// must retain to survive as a candidate cluster.
	MinClusterSize int

	// MinSamples is the k used for core distances: the distance to a
	// point's k-th nearest neighbor, the point itself excluded.
	MinSamples int

	// AllowSingleCluster permits a selection covering the entire point
	// set. The analysis pipeline keeps this false: a single
	// all-encompassing cluster is rejected and everything is noise.
	AllowSingleCluster bool
}

// Result holds per-point labels and membership probabilities.
// Labels are Noise or contiguous cluster indexes starting at 0; the
// index order carries no meaning.
type Result struct {
	Labels        []int
	Probabilities []float64
}

// NumClusters returns the number of distinct non-noise labels.
func (r *Result) NumClusters() int {
	max := -1
	for _, l := range r.Labels {
		if l > max {
			max = l
		}
	}
	return max + 1
}

// Run partitions the points described by the dissimilarity matrix into
// clusters or noise. The matrix must be square and symmetric with a
// zero diagonal.
func Run(dist [][]float64, opts Options) (*Result, error) {
	n := len(dist)
	if n == 0 {
		return nil, fmt.Errorf("cluster: empty dissimilarity matrix")
	}
	for i := range dist {
		if len(dist[i]) != n {
			return nil, fmt.Errorf("cluster: matrix row %d has length %d, want %d", i, len(dist[i]), n)
		}
	}
	if opts.MinClusterSize < 2 {
		return nil, fmt.Errorf("cluster: min cluster size %d, want >= 2", opts.MinClusterSize)
	}
	if opts.MinSamples < 1 {
		return nil, fmt.Errorf("cluster: min samples %d, want >= 1", opts.MinSamples)
	}

	result := &Result{
		Labels:        make([]int, n),
		Probabilities: make([]float64, n),
	}

	// Too few points to form any cluster.
	if n < opts.MinClusterSize {
		for i := range result.Labels {
			result.Labels[i] = Noise
		}
		return result, nil
	}

	core := coreDistances(dist, opts.MinSamples)
	edges := primMST(dist, core)
	merges := singleLinkage(n, edges)
	tree := condense(n, merges, opts.MinClusterSize)
	selected := tree.selectClusters(opts.AllowSingleCluster)
	tree.label(selected, result)

	if !opts.AllowSingleCluster {
		rejectAllEncompassing(result, n)
	}
	return result, nil
}

// coreDistances returns, for each point, the distance to its k-th
// nearest neighbor (self excluded).
func coreDistances(dist [][]float64, k int) []float64 {
	n := len(dist)
	core := make([]float64, n)
	row := make([]float64, n)
	for i := range dist {
		copy(row, dist[i])
		sort.Float64s(row)
		// row[0] is the zero self-distance.
		idx := k
		if idx > n-1 {
			idx = n - 1
		}
		core[i] = row[idx]
	}
	return core
}

// mutualReachability is the density-aware edge weight between two
// points: max(core(a), core(b), d(a,b)).
func mutualReachability(dist [][]float64, core []float64, a, b int) float64 {
	w := dist[a][b]
	if core[a] > w {
		w = core[a]
	}
	if core[b] > w {
		w = core[b]
	}
	return w
}

// toLambda converts a merge distance to a density level.
func toLambda(d float64) float64 {
	if d <= 0 {
		return lambdaCap
	}
	l := 1 / d
	if l > lambdaCap {
		return lambdaCap
	}
	return l
}

// rejectAllEncompassing relabels everything as noise when a single
// cluster swallowed the entire point set.
func rejectAllEncompassing(r *Result, n int) {
	if n == 0 {
		return
	}
	first := r.Labels[0]
	if first == Noise {
		return
	}
	for _, l := range r.Labels[1:] {
		if l != first {
			return
		}
	}
	for i := range r.Labels {
		r.Labels[i] = Noise
		r.Probabilities[i] = 0
	}
}
