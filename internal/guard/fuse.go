package guard

import "github.com/ppiankov/actiongate/internal/model"

// Fuse combines the rule-engine and risk-assessor results. The score is the
// larger of the two and the level comes from whichever scored higher, with
// the rule engine winning ties. Triggered names are the rule names followed
// by the assessor's, without duplicates. Recommendations and confidence come
// from the assessor.
func Fuse(rules, assessed model.RiskAssessment) model.RiskAssessment {
	score, level := rules.Score, rules.Level
	if assessed.Score > rules.Score {
		score, level = assessed.Score, assessed.Level
	}

	names := make([]string, 0, len(rules.TriggeredRules)+len(assessed.TriggeredRules))
	names = append(names, rules.TriggeredRules...)
	names = append(names, assessed.TriggeredRules...)

	return model.NewRiskAssessment(score, names, assessed.Recommendations, assessed.Confidence).WithLevel(level)
}
