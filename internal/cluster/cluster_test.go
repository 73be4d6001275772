package cluster

import (
	"testing"
)

// symmetric builds a dissimilarity matrix from a fill function.
func symmetric(n int, fill func(i, j int) float64) [][]float64 {
	dist := make([][]float64, n)
	for i := range dist {
		dist[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d := fill(i, j)
			dist[i][j] = d
			dist[j][i] = d
		}
	}
	return dist
}

func defaultOpts() Options {
	return Options{MinClusterSize: 5, MinSamples: 3}
}

func TestRun_EmptyMatrix(t *testing.T) {
	if _, err := Run(nil, defaultOpts()); err == nil {
		t.Fatal("expected error for empty matrix")
	}
}

func TestRun_RaggedMatrix(t *testing.T) {
	dist := [][]float64{{0, 1}, {1}}
	if _, err := Run(dist, defaultOpts()); err == nil {
		t.Fatal("expected error for ragged matrix")
	}
}

func TestRun_InvalidOptions(t *testing.T) {
	dist := symmetric(6, func(i, j int) float64 { return 0.5 })

	if _, err := Run(dist, Options{MinClusterSize: 1, MinSamples: 3}); err == nil {
		t.Error("expected error for min cluster size < 2")
	}
	if _, err := Run(dist, Options{MinClusterSize: 5, MinSamples: 0}); err == nil {
		t.Error("expected error for min samples < 1")
	}
}

func TestRun_TooFewPointsAllNoise(t *testing.T) {
	dist := symmetric(3, func(i, j int) float64 { return 0.1 })

	res, err := Run(dist, defaultOpts())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	for i, l := range res.Labels {
		if l != Noise {
			t.Errorf("point %d labeled %d, want noise", i, l)
		}
	}
	if res.NumClusters() != 0 {
		t.Errorf("expected 0 clusters, got %d", res.NumClusters())
	}
}

func TestRun_TwoSeparatedClusters(t *testing.T) {
	// Two tight groups of six, far apart.
	group := func(i int) int {
		if i < 6 {
			return 0
		}
		return 1
	}
	dist := symmetric(12, func(i, j int) float64 {
		if group(i) == group(j) {
			return 0.05
		}
		return 0.9
	})

	res, err := Run(dist, defaultOpts())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if res.NumClusters() != 2 {
		t.Fatalf("expected 2 clusters, got %d (labels %v)", res.NumClusters(), res.Labels)
	}

	for i := 1; i < 6; i++ {
		if res.Labels[i] != res.Labels[0] {
			t.Errorf("point %d split from its group: %v", i, res.Labels)
		}
	}
	for i := 7; i < 12; i++ {
		if res.Labels[i] != res.Labels[6] {
			t.Errorf("point %d split from its group: %v", i, res.Labels)
		}
	}
	if res.Labels[0] == res.Labels[6] {
		t.Error("the two groups should have distinct labels")
	}

	for i, p := range res.Probabilities {
		if p <= 0 || p > 1 {
			t.Errorf("point %d probability %v outside (0,1]", i, p)
		}
	}
}

func TestRun_DuplicatePointsStayTogether(t *testing.T) {
	// Five exact duplicates plus scattered distant points. Zero merge
	// distances must not split the duplicate group or break
	// probability computation.
	dist := symmetric(12, func(i, j int) float64 {
		if i < 5 && j < 5 {
			return 0
		}
		if i >= 5 && j >= 5 {
			return 0.6
		}
		return 0.9
	})

	res, err := Run(dist, defaultOpts())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	first := res.Labels[0]
	if first == Noise {
		t.Fatalf("duplicate group labeled noise: %v", res.Labels)
	}
	for i := 1; i < 5; i++ {
		if res.Labels[i] != first {
			t.Errorf("duplicate %d labeled %d, want %d", i, res.Labels[i], first)
		}
	}
	for i := 0; i < 5; i++ {
		p := res.Probabilities[i]
		if p <= 0 || p > 1 {
			t.Errorf("duplicate %d probability %v outside (0,1]", i, p)
		}
	}
}

func TestRun_UniformPointsAllNoise(t *testing.T) {
	// Equidistant points form one all-encompassing merge. Without
	// AllowSingleCluster the whole-set cluster is rejected and every
	// point is noise.
	dist := symmetric(10, func(i, j int) float64 { return 0.5 })

	res, err := Run(dist, defaultOpts())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	for i, l := range res.Labels {
		if l != Noise {
			t.Errorf("point %d labeled %d, want noise", i, l)
		}
		if res.Probabilities[i] != 0 {
			t.Errorf("noise point %d has probability %v", i, res.Probabilities[i])
		}
	}
}

func TestRun_AllowSingleClusterKeepsWholeSet(t *testing.T) {
	dist := symmetric(10, func(i, j int) float64 { return 0.5 })

	res, err := Run(dist, Options{MinClusterSize: 5, MinSamples: 3, AllowSingleCluster: true})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if res.NumClusters() != 1 {
		t.Fatalf("expected one cluster, got %d (labels %v)", res.NumClusters(), res.Labels)
	}
	for i, l := range res.Labels {
		if l != 0 {
			t.Errorf("point %d labeled %d, want 0", i, l)
		}
	}
}

func TestRun_SmallGroupBecomesNoise(t *testing.T) {
	// A tight pair below MinClusterSize next to two real clusters. The
	// pair cannot survive condensation and must fall out as noise.
	group := func(i int) int {
		switch {
		case i < 6:
			return 0
		case i < 12:
			return 1
		default:
			return 2
		}
	}
	dist := symmetric(14, func(i, j int) float64 {
		if group(i) == group(j) {
			return 0.05
		}
		return 0.9
	})

	res, err := Run(dist, defaultOpts())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if res.NumClusters() != 2 {
		t.Fatalf("expected 2 clusters, got %d (labels %v)", res.NumClusters(), res.Labels)
	}
	for i := 12; i < 14; i++ {
		if res.Labels[i] != Noise {
			t.Errorf("small-group point %d labeled %d, want noise", i, res.Labels[i])
		}
	}
	for i := 0; i < 12; i++ {
		if res.Labels[i] == Noise {
			t.Errorf("cluster point %d labeled noise", i)
		}
	}
}

func TestNumClusters(t *testing.T) {
	r := &Result{Labels: []int{Noise, 0, 1, 1, Noise, 2}}
	if got := r.NumClusters(); got != 3 {
		t.Errorf("NumClusters = %d, want 3", got)
	}

	empty := &Result{Labels: []int{Noise, Noise}}
	if got := empty.NumClusters(); got != 0 {
		t.Errorf("NumClusters = %d, want 0", got)
	}
}
