package habits

import (
	"context"
	"fmt"
	"sort"

	"github.com/fianchetto-labs/habits/internal/cluster"
)

// AnalysisTx is the transactional store contract the pipeline drives.
// Every write within one run goes through the same transaction: if any
// persistence step fails the caller rolls the whole run back, clearing
// step included, leaving the prior analysis intact.
type AnalysisTx interface {
	// FetchAllMistakes returns every mistake belonging to any game
	// owned by the user, unfiltered by prior habit assignment.
	FetchAllMistakes(ctx context.Context, userID int64) ([]MistakeRecord, error)

	// ClearPriorAnalysis unlinks all of the user's mistakes from any
	// habit and deletes the user's habits and their feedback.
	ClearPriorAnalysis(ctx context.Context, userID int64) error

	// CreateHabit persists a habit and returns its durable id.
	CreateHabit(ctx context.Context, userID int64, clusterLabel int, name, description string, confidence float64) (string, error)

	// CreateFeedback persists the synthesized feedback for a habit.
	CreateFeedback(ctx context.Context, habitID, text string, triggers TriggerSet, primeExampleMistakeID int64) error

	// LinkMistakes bulk-assigns a habit id to a set of mistake ids.
	LinkMistakes(ctx context.Context, habitID string, mistakeIDs []int64) error
}

// Pipeline runs one full habit analysis for a user: preprocess,
// dissimilarity, density clustering, then per-cluster trigger modeling
// and feedback synthesis. Each run recomputes from scratch and replaces
// the user's prior results wholesale; nothing carries across runs.
//
// A Pipeline is stateless between runs and safe to reuse, but runs for
// the same user must not overlap. The caller enforces single-writer-
// per-user invocation.
type Pipeline struct {
	schema         FeatureSchema
	pre            *Preprocessor
	trainer        *TriggerTrainer
	synth          *Synthesizer
	minRecords     int
	minClusterSize int
	minSamples     int
	debug          *DebugLogger
}

// NewPipeline creates a pipeline with the standard analysis policy.
// debug may be nil.
func NewPipeline(schema FeatureSchema, debug *DebugLogger) *Pipeline {
	return &Pipeline{
		schema:         schema,
		pre:            NewPreprocessor(schema),
		trainer:        NewTriggerTrainer(schema),
		synth:          NewSynthesizer(schema),
		minRecords:     MinRecordsForAnalysis,
		minClusterSize: DefaultMinClusterSize,
		minSamples:     DefaultMinSamples,
		debug:          debug,
	}
}

// Run executes one analysis for the user against the given transaction.
//
// Outcomes follow the pipeline's failure policy: fewer than the minimum
// record count, a preprocessing failure, or an all-noise clustering
// each return a zero-habit summary (the first two without any writes);
// a per-cluster modeling failure skips that cluster and continues; only
// persistence errors propagate, aborting the transaction.
func (p *Pipeline) Run(ctx context.Context, tx AnalysisTx, userID int64) (*Summary, error) {
	records, err := tx.FetchAllMistakes(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("pipeline: fetch mistakes: %w", err)
	}

	summary := &Summary{TotalMistakes: len(records)}

	if len(records) < p.minRecords {
		p.debug.LogStage("gate", "%d mistakes, need %d; skipping analysis", len(records), p.minRecords)
		return summary, nil
	}

	table := p.pre.Fit(records)
	enc, err := p.pre.FitEncoder(records)
	if err != nil {
		// Aborts before any write, so the prior analysis survives.
		p.debug.LogError("preprocess", err)
		return summary, nil
	}

	if err := tx.ClearPriorAnalysis(ctx, userID); err != nil {
		return nil, fmt.Errorf("pipeline: clear prior analysis: %w", err)
	}

	p.debug.LogStage("dissimilarity", "computing %dx%d Gower matrix", len(records), len(records))
	dist := GowerMatrix(table)

	p.debug.LogStage("cluster", "min_cluster_size=%d min_samples=%d", p.minClusterSize, p.minSamples)
	res, err := cluster.Run(dist, cluster.Options{
		MinClusterSize: p.minClusterSize,
		MinSamples:     p.minSamples,
	})
	if err != nil {
		return nil, fmt.Errorf("pipeline: cluster: %w", err)
	}

	clusters := buildClusters(records, res.Labels, res.Probabilities)
	summary.ClustersFound = len(clusters)
	for _, l := range res.Labels {
		if l == cluster.Noise {
			summary.NoiseRecords++
		}
	}
	p.debug.LogStage("cluster", "found %d clusters, %d noise points", summary.ClustersFound, summary.NoiseRecords)

	if len(clusters) == 0 {
		return summary, nil
	}

	for _, hc := range clusters {
		if err := p.processCluster(ctx, tx, userID, hc, enc, records, res.Labels, summary); err != nil {
			return nil, err
		}
	}
	return summary, nil
}

// processCluster runs trigger modeling and feedback synthesis for one
// cluster and persists the result. Modeling failures are local skips;
// persistence failures propagate.
func (p *Pipeline) processCluster(ctx context.Context, tx AnalysisTx, userID int64, hc HabitCluster, enc *OneHotEncoder, records []MistakeRecord, labels []int, summary *Summary) error {
	triggers, err := p.trainer.FindTriggers(enc, records, labels, hc.Label)
	if err != nil {
		p.debug.LogSkip(&ClusterSkipError{Label: hc.Label, Err: err})
		summary.SkippedClusters++
		return nil
	}

	members := make([]MistakeRecord, len(hc.memberIdx))
	for i, idx := range hc.memberIdx {
		members[i] = records[idx]
	}

	fb := p.synth.Compose(triggers, hc.MeanConfidence, members)
	description := fmt.Sprintf("Cluster %d (%d%% confidence)", hc.Label, fb.ConfidencePct)

	habitID, err := tx.CreateHabit(ctx, userID, hc.Label, fb.HabitName, description, hc.MeanConfidence)
	if err != nil {
		return fmt.Errorf("pipeline: create habit for cluster %d: %w", hc.Label, err)
	}
	if err := tx.CreateFeedback(ctx, habitID, fb.Text, triggers, fb.PrimeExampleMistakeID); err != nil {
		return fmt.Errorf("pipeline: create feedback for habit %s: %w", habitID, err)
	}
	if err := tx.LinkMistakes(ctx, habitID, hc.MemberIDs); err != nil {
		return fmt.Errorf("pipeline: link mistakes to habit %s: %w", habitID, err)
	}

	p.debug.LogStage("habit", "cluster %d -> %s (%q, %d members)", hc.Label, habitID, fb.HabitName, len(hc.MemberIDs))
	summary.HabitsCreated++
	return nil
}

// buildClusters groups clustered records by label, in label order, with
// each cluster's mean membership confidence.
func buildClusters(records []MistakeRecord, labels []int, probs []float64) []HabitCluster {
	byLabel := make(map[int]*HabitCluster)
	confidence := make(map[int]float64)
	for i, l := range labels {
		if l == cluster.Noise {
			continue
		}
		hc, ok := byLabel[l]
		if !ok {
			hc = &HabitCluster{Label: l}
			byLabel[l] = hc
		}
		hc.MemberIDs = append(hc.MemberIDs, records[i].ID)
		hc.memberIdx = append(hc.memberIdx, i)
		confidence[l] += probs[i]
	}

	out := make([]HabitCluster, 0, len(byLabel))
	for l, hc := range byLabel {
		hc.MeanConfidence = confidence[l] / float64(len(hc.MemberIDs))
		out = append(out, *hc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Label < out[j].Label })
	return out
}
