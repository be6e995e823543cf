package strategy

import (
	"sort"

	"github.com/jordanhubbard/llm-router/internal/catalogue"
	"github.com/jordanhubbard/llm-router/internal/classifier"
)

// Strategy ranks candidate models for a task category. Implementations must
// return a copy of the input, sorted by descending score, and must never
// mutate the input slice. Ties keep the candidates' original relative order.
type Strategy interface {
	Select(category classifier.TaskCategory, candidates []catalogue.ModelProfile) []catalogue.ModelProfile
}

type weights struct {
	quality, cost, latency float64
}

// costScore maps cost per 1M input tokens to a 0..10 score, decreasing as
// cost rises, clamped at the ends.
func costScore(costPer1MInput float64) float64 {
	score := 10 - costPer1MInput*5
	if score < 0 {
		return 0
	}
	if score > 10 {
		return 10
	}
	return score
}

func score(m catalogue.ModelProfile, category classifier.TaskCategory, w weights) float64 {
	quality := float64(m.QualityScore[category])
	return w.quality*quality + w.cost*costScore(m.CostPer1MInput) + w.latency*m.LatencyTier.Weight()
}

type weighted struct {
	w weights
}

func (s weighted) Select(category classifier.TaskCategory, candidates []catalogue.ModelProfile) []catalogue.ModelProfile {
	out := make([]catalogue.ModelProfile, len(candidates))
	copy(out, candidates)
	sort.SliceStable(out, func(i, j int) bool {
		return score(out[i], category, s.w) > score(out[j], category, s.w)
	})
	return out
}

// CostFirst weights cost most heavily: quality 0.2, cost 0.7, latency 0.1.
func CostFirst() Strategy { return weighted{w: weights{quality: 0.2, cost: 0.7, latency: 0.1}} }

// QualityFirst weights quality most heavily: quality 0.8, cost 0.1, latency 0.1.
func QualityFirst() Strategy { return weighted{w: weights{quality: 0.8, cost: 0.1, latency: 0.1}} }

// Balanced is the default strategy: quality 0.5, cost 0.3, latency 0.2.
func Balanced() Strategy { return weighted{w: weights{quality: 0.5, cost: 0.3, latency: 0.2}} }

// RoutingStrategy names one of the three strategies accepted on the wire.
type RoutingStrategy string

const (
	CostFirstStrategy    RoutingStrategy = "cost_first"
	QualityFirstStrategy RoutingStrategy = "quality_first"
	BalancedStrategy     RoutingStrategy = "balanced"
)

// For returns the Strategy named by name, defaulting to Balanced for any
// unrecognised value.
func For(name RoutingStrategy) Strategy {
	switch name {
	case CostFirstStrategy:
		return CostFirst()
	case QualityFirstStrategy:
		return QualityFirst()
	case BalancedStrategy:
		return Balanced()
	default:
		return Balanced()
	}
}
