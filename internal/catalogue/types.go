package catalogue

import "github.com/jordanhubbard/llm-router/internal/classifier"

// ModelTier is informational metadata about a model's general standing; it
// plays no role in filtering or ranking.
type ModelTier string

const (
	TierGeneral ModelTier = "general"
	TierMedium  ModelTier = "medium"
	TierHard    ModelTier = "hard"
)

// LatencyTier buckets a model's expected response latency and carries the
// ranking weight strategies use.
type LatencyTier string

const (
	LatencyFast   LatencyTier = "fast"
	LatencyMedium LatencyTier = "medium"
	LatencySlow   LatencyTier = "slow"
)

// Weight returns the strategy ranking weight for the latency tier: fast=3,
// medium=2, slow=1. Unrecognised tiers score 0.
func (t LatencyTier) Weight() float64 {
	switch t {
	case LatencyFast:
		return 3
	case LatencyMedium:
		return 2
	case LatencySlow:
		return 1
	default:
		return 0
	}
}

// PrivacySensitivity is the caller-declared sensitivity of a prompt.
type PrivacySensitivity string

const (
	SensitivityPublic    PrivacySensitivity = "public"
	SensitivityInternal  PrivacySensitivity = "internal"
	SensitivitySensitive PrivacySensitivity = "sensitive"
)

// RequiresSensitiveSupport reports whether s demands supportsSensitive on any
// candidate model. Internal and sensitive are treated identically.
func (s PrivacySensitivity) RequiresSensitiveSupport() bool {
	return s == SensitivityInternal || s == SensitivitySensitive
}

// ModelProfile describes one model offered by a provider. Profiles are
// immutable once registered in a catalogue.
type ModelProfile struct {
	ID                string
	DisplayName       string
	Tier              ModelTier
	CostPer1MInput    float64
	CostPer1MOutput   float64
	ContextWindow     int
	Strengths         []classifier.TaskCategory
	SupportsSensitive bool
	LatencyTier       LatencyTier
	QualityScore      map[classifier.TaskCategory]int
}

// Validate checks the invariants every registered ModelProfile must satisfy:
// a quality score for all five categories, non-negative costs, and a
// positive context window.
func (m ModelProfile) Validate() error {
	for _, cat := range classifier.Categories {
		if _, ok := m.QualityScore[cat]; !ok {
			return &InvalidProfileError{ModelID: m.ID, Reason: "missing qualityScore for category " + string(cat)}
		}
	}
	if m.CostPer1MInput < 0 || m.CostPer1MOutput < 0 {
		return &InvalidProfileError{ModelID: m.ID, Reason: "negative cost"}
	}
	if m.ContextWindow <= 0 {
		return &InvalidProfileError{ModelID: m.ID, Reason: "non-positive contextWindow"}
	}
	return nil
}

// InvalidProfileError reports a ModelProfile that fails Validate.
type InvalidProfileError struct {
	ModelID string
	Reason  string
}

func (e *InvalidProfileError) Error() string {
	return "catalogue: invalid model profile " + e.ModelID + ": " + e.Reason
}
