package habits

// GowerMatrix computes the pairwise dissimilarity matrix over a fitted
// feature table using a Gower-style metric for mixed numeric and
// categorical data.
//
// Per-attribute distance is |a-b| scaled by the attribute's observed
// range across the run for numeric columns (0 when the column is
// constant), and a 0/1 mismatch indicator for categorical columns. The
// overall dissimilarity is the unweighted mean across all configured
// attributes, giving a symmetric matrix with zero diagonal and values
// in [0,1]. The matrix is recomputed fresh per run and never persisted.
func GowerMatrix(t *FeatureTable) [][]float64 {
	n := t.N
	dist := make([][]float64, n)
	for i := range dist {
		dist[i] = make([]float64, n)
	}
	if n == 0 {
		return dist
	}

	attrs := float64(t.schema.AttributeCount())

	// Numeric contributions, range-scaled.
	for _, col := range t.schema.Numeric {
		values := t.Numeric[col]
		lo, hi := values[0], values[0]
		for _, v := range values[1:] {
			if v < lo {
				lo = v
			}
			if v > hi {
				hi = v
			}
		}
		span := hi - lo
		if span == 0 {
			continue
		}
		for i := 0; i < n; i++ {
			for j := i + 1; j < n; j++ {
				d := values[i] - values[j]
				if d < 0 {
					d = -d
				}
				dist[i][j] += d / span
			}
		}
	}

	// Categorical contributions, 0/1 mismatch.
	for _, col := range t.schema.Categorical {
		values := t.Categorical[col]
		for i := 0; i < n; i++ {
			for j := i + 1; j < n; j++ {
				if values[i] != values[j] {
					dist[i][j]++
				}
			}
		}
	}

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d := dist[i][j] / attrs
			dist[i][j] = d
			dist[j][i] = d
		}
	}
	return dist
}
