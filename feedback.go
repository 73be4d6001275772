package habits

import (
	"fmt"
	"math"
	"strings"
	"unicode"
)

// SynthesizedFeedback is the human-readable output for one accepted
// cluster: a habit name, a feedback sentence, the confidence as a
// rounded percentage, and the cluster's prime example.
type SynthesizedFeedback struct {
	HabitName             string
	Text                  string
	ConfidencePct         int
	PrimeExampleMistakeID int64
}

// Synthesizer converts a cluster's top triggers into a short
// explanation of what sets the habit off.
type Synthesizer struct {
	schema FeatureSchema
}

// NewSynthesizer creates a synthesizer over the given feature schema.
func NewSynthesizer(schema FeatureSchema) *Synthesizer {
	return &Synthesizer{schema: schema}
}

// Compose partitions the triggers into context and action buckets,
// picks the strongest feature in each (the TriggerSet ordering resolves
// ties deterministically), and builds the habit name and feedback text.
// The prime example is the member with maximum centipawn loss.
func (s *Synthesizer) Compose(triggers TriggerSet, meanConfidence float64, members []MistakeRecord) SynthesizedFeedback {
	var topContext, topAction string
	for _, tr := range triggers {
		if topContext == "" && s.schema.IsContext(tr.Feature) {
			topContext = tr.Feature
		}
		if topAction == "" && s.schema.IsAction(tr.Feature) {
			topAction = tr.Feature
		}
		if topContext != "" && topAction != "" {
			break
		}
	}

	pct := int(math.Round(meanConfidence * 100))
	name, text := s.compose(topContext, topAction, pct)

	return SynthesizedFeedback{
		HabitName:             name,
		Text:                  text,
		ConfidencePct:         pct,
		PrimeExampleMistakeID: primeExample(members),
	}
}

func (s *Synthesizer) compose(context, action string, pct int) (name, text string) {
	conf := fmt.Sprintf("(%d%% confidence)", pct)
	ctx := s.phrase(context)
	act := s.phrase(action)

	switch {
	case context != "" && action != "":
		name = fmt.Sprintf("%s: %s", capitalize(ctx), capitalize(act))
		text = fmt.Sprintf("We've found a recurring pattern %s: **%s**, you tend to make mistakes when **%s**.", conf, ctx, act)
	case action != "":
		name = fmt.Sprintf("%s Mistakes", capitalize(act))
		text = fmt.Sprintf("We've found a recurring pattern %s: You have a pattern of making mistakes when **%s**.", conf, act)
	case context != "":
		name = fmt.Sprintf("%s Mistakes", capitalize(ctx))
		text = fmt.Sprintf("We've found a recurring pattern %s: You have a pattern of making mistakes **%s**.", conf, ctx)
	default:
		name = "General Pattern"
		text = fmt.Sprintf("We've found a recurring pattern %s, but we could not isolate a single clear trigger.", conf)
	}
	return name, text
}

// phrase looks up the human phrase for a one-hot feature, falling back
// to the feature name with separators replaced and lowercased.
func (s *Synthesizer) phrase(feature string) string {
	if feature == "" {
		return ""
	}
	if p, ok := s.schema.Translations[feature]; ok {
		return p
	}
	return strings.ToLower(strings.ReplaceAll(feature, "_", " "))
}

// primeExample returns the id of the member with maximum centipawn
// loss; ties keep the earliest member.
func primeExample(members []MistakeRecord) int64 {
	if len(members) == 0 {
		return 0
	}
	best := 0
	for i := 1; i < len(members); i++ {
		if members[i].CPL > members[best].CPL {
			best = i
		}
	}
	return members[best].ID
}

func capitalize(s string) string {
	if s == "" {
		return ""
	}
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}
