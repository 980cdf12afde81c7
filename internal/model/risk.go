package model

// RiskLevel is the discretized form of a 0-100 risk score.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// Score thresholds for LevelForScore. Inclusive lower bounds.
const (
	CriticalThreshold = 80.0
	HighThreshold     = 60.0
	MediumThreshold   = 30.0
)

// RiskRank maps a level to a comparable integer for monotonic comparison.
var RiskRank = map[RiskLevel]int{
	RiskLow:      0,
	RiskMedium:   1,
	RiskHigh:     2,
	RiskCritical: 3,
}

// Rank returns the level's position in low < medium < high < critical.
// Unknown levels rank as low.
func (l RiskLevel) Rank() int {
	return RiskRank[l]
}

// AtLeast reports whether l is as severe as other or more.
func (l RiskLevel) AtLeast(other RiskLevel) bool {
	return l.Rank() >= other.Rank()
}

// LevelForScore maps a score to its level. Monotonic in score.
func LevelForScore(score float64) RiskLevel {
	switch {
	case score >= CriticalThreshold:
		return RiskCritical
	case score >= HighThreshold:
		return RiskHigh
	case score >= MediumThreshold:
		return RiskMedium
	default:
		return RiskLow
	}
}

// RiskAssessment is the outcome of one scoring pass.
// Build it with NewRiskAssessment; it is not modified after construction.
type RiskAssessment struct {
	Score           float64   `json:"score"`
	Level           RiskLevel `json:"level"`
	TriggeredRules  []string  `json:"triggered_rules"`
	Recommendations []string  `json:"recommendations"`
	Confidence      float64   `json:"confidence"`
}

// NewRiskAssessment clamps score to [0,100], derives the level from it,
// drops duplicate rule names (first occurrence wins) and copies both slices.
func NewRiskAssessment(score float64, rules, recommendations []string, confidence float64) RiskAssessment {
	score = clamp(score, 0, 100)
	return RiskAssessment{
		Score:           score,
		Level:           LevelForScore(score),
		TriggeredRules:  dedupe(rules),
		Recommendations: copyStrings(recommendations),
		Confidence:      clamp(confidence, 0, 1),
	}
}

// WithLevel returns a copy carrying an explicit level. Used by score fusion,
// where the level is attributed to one of the two strategies.
func (r RiskAssessment) WithLevel(level RiskLevel) RiskAssessment {
	out := r.Clone()
	out.Level = level
	return out
}

// Clone returns a deep copy.
func (r RiskAssessment) Clone() RiskAssessment {
	r.TriggeredRules = copyStrings(r.TriggeredRules)
	r.Recommendations = copyStrings(r.Recommendations)
	return r
}

// ZeroRisk is the assessment returned for memoized approvals.
func ZeroRisk(rule string) RiskAssessment {
	return NewRiskAssessment(0, []string{rule}, nil, 1.0)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func dedupe(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, s := range in {
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

func copyStrings(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}
