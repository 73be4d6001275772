package habits

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
)

// TriggerTrainer fits a one-vs-rest sparse discriminative model for a
// single cluster and extracts the one-hot features positively
// associated with membership.
//
// The negative class is every other record in the run, noise included.
// Contrasting against noise conflates "definitely not this habit" with
// "unclustered", which can bias selection toward features that merely
// separate any clear pattern from no pattern; the behavior is kept
// deliberately to match how the habit archetypes were defined.
type TriggerTrainer struct {
	schema    FeatureSchema
	inverseC  float64
	threshold float64
	seed      int64
	maxSweeps int
	tol       float64
}

// NewTriggerTrainer creates a trainer with the fixed modeling policy:
// L1 penalty equivalent to inverse-regularization C = 1.0,
// class-balanced reweighting, and a fixed seed for reproducible
// coordinate ordering.
func NewTriggerTrainer(schema FeatureSchema) *TriggerTrainer {
	return &TriggerTrainer{
		schema:    schema,
		inverseC:  DefaultInverseRegularization,
		threshold: TriggerCoefficientThreshold,
		seed:      DefaultSeed,
		maxSweeps: 200,
		tol:       1e-6,
	}
}

// FindTriggers trains the one-vs-rest model for the cluster with the
// given label over the full record population and returns the retained
// triggers ordered by descending coefficient (ties lexicographic by
// feature name).
//
// Returns ErrEmptyControlSet when no negative examples exist and
// ErrNoTriggers when no coefficient strictly clears the threshold; both
// are per-cluster skip outcomes, not run aborts.
func (t *TriggerTrainer) FindTriggers(enc *OneHotEncoder, records []MistakeRecord, labels []int, target int) (TriggerSet, error) {
	if len(records) != len(labels) {
		return nil, fmt.Errorf("find triggers: %d records but %d labels", len(records), len(labels))
	}

	y := make([]int, len(records))
	var positives int
	for i, l := range labels {
		if l == target {
			y[i] = 1
			positives++
		}
	}
	negatives := len(records) - positives
	if positives == 0 {
		return nil, fmt.Errorf("find triggers: cluster %d has no members", target)
	}
	if negatives == 0 {
		return nil, ErrEmptyControlSet
	}

	rows, err := enc.Transform(records)
	if err != nil {
		return nil, fmt.Errorf("find triggers: %w", err)
	}

	// Balanced reweighting counters the severe imbalance between one
	// cluster and everything else.
	n := float64(len(records))
	wPos := n / (2 * float64(positives))
	wNeg := n / (2 * float64(negatives))
	weights := make([]float64, len(records))
	for i, yi := range y {
		if yi == 1 {
			weights[i] = wPos
		} else {
			weights[i] = wNeg
		}
	}

	coef, _ := t.fit(rows, y, weights)

	names := enc.FeatureNames()
	var triggers TriggerSet
	for j, c := range coef {
		if c > t.threshold {
			triggers = append(triggers, Trigger{Feature: names[j], Coefficient: c})
		}
	}
	if len(triggers) == 0 {
		return nil, ErrNoTriggers
	}

	sort.Slice(triggers, func(i, j int) bool {
		if triggers[i].Coefficient != triggers[j].Coefficient {
			return triggers[i].Coefficient > triggers[j].Coefficient
		}
		return triggers[i].Feature < triggers[j].Feature
	})
	return triggers, nil
}

// fit minimizes the weighted logistic loss plus an L1 penalty of
// strength 1/C using coordinate descent with proximal Newton updates.
// The quadratic term is majorized by the 1/4 bound on the logistic
// curvature, so every coordinate step decreases the objective. The
// intercept is unpenalized. Coordinate order is a seeded permutation
// per sweep, making runs reproducible.
func (t *TriggerTrainer) fit(rows [][]float64, y []int, sampleWeight []float64) ([]float64, float64) {
	nSamples := len(rows)
	if nSamples == 0 {
		return nil, 0
	}
	nFeatures := len(rows[0])
	alpha := 1 / t.inverseC

	w := make([]float64, nFeatures)
	var intercept float64
	margins := make([]float64, nSamples)

	rng := rand.New(rand.NewSource(t.seed))

	for sweep := 0; sweep < t.maxSweeps; sweep++ {
		var maxStep float64

		for _, j := range rng.Perm(nFeatures) {
			var grad, curv float64
			for i, row := range rows {
				x := row[j]
				if x == 0 {
					continue
				}
				p := sigmoid(margins[i])
				grad += sampleWeight[i] * (p - float64(y[i])) * x
				curv += sampleWeight[i] * x * x * 0.25
			}
			if curv < 1e-12 {
				continue
			}

			updated := softThreshold(curv*w[j]-grad, alpha) / curv
			if delta := updated - w[j]; delta != 0 {
				for i, row := range rows {
					if row[j] != 0 {
						margins[i] += delta * row[j]
					}
				}
				w[j] = updated
				if s := math.Abs(delta); s > maxStep {
					maxStep = s
				}
			}
		}

		var grad, curv float64
		for i := range margins {
			grad += sampleWeight[i] * (sigmoid(margins[i]) - float64(y[i]))
			curv += sampleWeight[i] * 0.25
		}
		if curv > 0 {
			delta := -grad / curv
			intercept += delta
			for i := range margins {
				margins[i] += delta
			}
			if s := math.Abs(delta); s > maxStep {
				maxStep = s
			}
		}

		if maxStep < t.tol {
			break
		}
	}

	return w, intercept
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}

func softThreshold(v, threshold float64) float64 {
	switch {
	case v > threshold:
		return v - threshold
	case v < -threshold:
		return v + threshold
	}
	return 0
}
