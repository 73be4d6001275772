package habits

import (
	"fmt"
	"math"
	"sort"
)

// FeatureTable is the uniform tabular representation produced by the
// Preprocessor: standardized numeric columns and canonicalized
// categorical columns, all computed from the current run's data only.
type FeatureTable struct {
	N           int
	Numeric     map[string][]float64
	Categorical map[string][]string

	schema FeatureSchema
}

// Preprocessor normalizes mistake records for distance computation and
// derives one-hot encodings for trigger modeling. It keeps no state
// across runs.
type Preprocessor struct {
	schema FeatureSchema
}

// NewPreprocessor creates a preprocessor over the given feature schema.
func NewPreprocessor(schema FeatureSchema) *Preprocessor {
	return &Preprocessor{schema: schema}
}

// Fit builds a FeatureTable from the run's records: numeric columns are
// standardized to zero mean and unit variance (constant columns become
// all zeros), categorical columns are coerced to non-empty string
// tokens with MissingToken substituted for missing values.
func (p *Preprocessor) Fit(records []MistakeRecord) *FeatureTable {
	n := len(records)
	t := &FeatureTable{
		N:           n,
		Numeric:     make(map[string][]float64, len(p.schema.Numeric)),
		Categorical: make(map[string][]string, len(p.schema.Categorical)),
		schema:      p.schema,
	}

	for _, col := range p.schema.Numeric {
		values := make([]float64, n)
		for i := range records {
			values[i] = records[i].Numeric(col)
		}
		standardize(values)
		t.Numeric[col] = values
	}

	for _, col := range p.schema.Categorical {
		values := make([]string, n)
		for i := range records {
			values[i] = canonicalToken(records[i].Categorical(col))
		}
		t.Categorical[col] = values
	}

	return t
}

// FitEncoder builds a one-hot encoding scheme over the records'
// categorical columns. The vocabulary is discovered at run time: each
// column's distinct canonical tokens, sorted, produce features named
// "<column>_<value>" in column order.
//
// The encoder is re-derived independently of the FeatureTable since
// clustering consumes raw categorical tokens while trigger modeling
// consumes one-hot vectors.
func (p *Preprocessor) FitEncoder(records []MistakeRecord) (*OneHotEncoder, error) {
	if len(records) == 0 {
		return nil, ErrNoRecords
	}

	enc := &OneHotEncoder{
		schema: p.schema,
		vocab:  make(map[string][]string, len(p.schema.Categorical)),
	}

	for _, col := range p.schema.Categorical {
		seen := make(map[string]bool)
		for i := range records {
			seen[canonicalToken(records[i].Categorical(col))] = true
		}
		values := make([]string, 0, len(seen))
		for v := range seen {
			values = append(values, v)
		}
		sort.Strings(values)
		enc.vocab[col] = values
		for _, v := range values {
			enc.features = append(enc.features, col+"_"+v)
		}
	}

	if len(enc.features) == 0 {
		return nil, fmt.Errorf("fit encoder: no categorical features discovered")
	}
	return enc, nil
}

// OneHotEncoder maps categorical columns onto binary feature vectors
// using a vocabulary fixed at fit time. Values unseen during fitting
// encode as all zeros for that column.
type OneHotEncoder struct {
	schema   FeatureSchema
	vocab    map[string][]string
	features []string
}

// FeatureNames returns the generated one-hot feature names in their
// deterministic encoding order.
func (e *OneHotEncoder) FeatureNames() []string {
	out := make([]string, len(e.features))
	copy(out, e.features)
	return out
}

// Width returns the number of one-hot features.
func (e *OneHotEncoder) Width() int { return len(e.features) }

// Transform encodes records into dense one-hot rows.
func (e *OneHotEncoder) Transform(records []MistakeRecord) ([][]float64, error) {
	if len(e.features) == 0 {
		return nil, fmt.Errorf("transform: encoder not fitted")
	}

	rows := make([][]float64, len(records))
	for i := range records {
		row := make([]float64, len(e.features))
		offset := 0
		for _, col := range e.schema.Categorical {
			values := e.vocab[col]
			token := canonicalToken(records[i].Categorical(col))
			for j, v := range values {
				if v == token {
					row[offset+j] = 1
					break
				}
			}
			offset += len(values)
		}
		rows[i] = row
	}
	return rows, nil
}

// canonicalToken coerces a raw categorical value to its non-empty
// string form.
func canonicalToken(v string) string {
	if v == "" {
		return MissingToken
	}
	return v
}

// standardize rescales values in place to zero mean and unit variance.
// A constant column becomes all zeros rather than dividing by zero.
func standardize(values []float64) {
	n := float64(len(values))
	if n == 0 {
		return
	}

	var mean float64
	for _, v := range values {
		mean += v
	}
	mean /= n

	var variance float64
	for _, v := range values {
		d := v - mean
		variance += d * d
	}
	variance /= n

	std := math.Sqrt(variance)
	if std == 0 {
		for i := range values {
			values[i] = 0
		}
		return
	}
	for i := range values {
		values[i] = (values[i] - mean) / std
	}
}
