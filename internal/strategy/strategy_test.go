package strategy

import (
	"testing"

	"github.com/jordanhubbard/llm-router/internal/catalogue"
	"github.com/jordanhubbard/llm-router/internal/classifier"
	"github.com/stretchr/testify/require"
)

func model(id string, quality int, cost float64, latency catalogue.LatencyTier) catalogue.ModelProfile {
	return catalogue.ModelProfile{
		ID:              id,
		CostPer1MInput:  cost,
		ContextWindow:   10000,
		LatencyTier:     latency,
		QualityScore:    map[classifier.TaskCategory]int{classifier.CategoryCode: quality},
	}
}

func TestCostFirst_PrefersCheaperModel(t *testing.T) {
	candidates := []catalogue.ModelProfile{
		model("expensive", 9, 1.9, catalogue.LatencyFast),
		model("cheap", 6, 0.1, catalogue.LatencyFast),
	}
	ranked := CostFirst().Select(classifier.CategoryCode, candidates)
	require.Equal(t, "cheap", ranked[0].ID)
}

func TestQualityFirst_PrefersHigherQuality(t *testing.T) {
	candidates := []catalogue.ModelProfile{
		model("cheap", 4, 0.1, catalogue.LatencyFast),
		model("premium", 10, 5.0, catalogue.LatencyFast),
	}
	ranked := QualityFirst().Select(classifier.CategoryCode, candidates)
	require.Equal(t, "premium", ranked[0].ID)
}

func TestBalanced_WeighsAllThreeDimensions(t *testing.T) {
	candidates := []catalogue.ModelProfile{
		model("a", 8, 1.0, catalogue.LatencyFast),
		model("b", 5, 0.2, catalogue.LatencySlow),
	}
	ranked := Balanced().Select(classifier.CategoryCode, candidates)
	require.Equal(t, "a", ranked[0].ID)
}

func TestSelect_DoesNotMutateInput(t *testing.T) {
	candidates := []catalogue.ModelProfile{
		model("z", 1, 5.0, catalogue.LatencySlow),
		model("a", 9, 0.1, catalogue.LatencyFast),
	}
	original := append([]catalogue.ModelProfile(nil), candidates...)
	_ = Balanced().Select(classifier.CategoryCode, candidates)
	require.Equal(t, original, candidates)
}

func TestSelect_TiesKeepInputOrder(t *testing.T) {
	candidates := []catalogue.ModelProfile{
		model("first", 5, 1.0, catalogue.LatencyMedium),
		model("second", 5, 1.0, catalogue.LatencyMedium),
	}
	ranked := Balanced().Select(classifier.CategoryCode, candidates)
	require.Equal(t, "first", ranked[0].ID)
	require.Equal(t, "second", ranked[1].ID)
}

func TestSelect_ReturnsCopyOfSameLength(t *testing.T) {
	candidates := []catalogue.ModelProfile{
		model("a", 1, 1.0, catalogue.LatencyFast),
		model("b", 2, 1.0, catalogue.LatencyFast),
	}
	ranked := Balanced().Select(classifier.CategoryCode, candidates)
	require.Len(t, ranked, 2)
	ranked[0].ID = "mutated"
	require.Equal(t, "a", candidates[0].ID)
}

func TestFor_UnknownNameDefaultsToBalanced(t *testing.T) {
	require.Equal(t, Balanced(), For("not-a-real-strategy"))
}

func TestFor_ResolvesAllThreeNames(t *testing.T) {
	require.Equal(t, CostFirst(), For(CostFirstStrategy))
	require.Equal(t, QualityFirst(), For(QualityFirstStrategy))
	require.Equal(t, Balanced(), For(BalancedStrategy))
}

func TestCostScore_ClampsAtZeroAndTen(t *testing.T) {
	require.Equal(t, 10.0, costScore(-1))
	require.Equal(t, 0.0, costScore(100))
	require.Equal(t, 0.0, costScore(2))
}
