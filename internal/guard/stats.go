package guard

import (
	"github.com/ppiankov/actiongate/internal/audit"
	"github.com/ppiankov/actiongate/internal/model"
	"github.com/ppiankov/actiongate/internal/policy"
)

// Stats is a point-in-time view of the guard.
type Stats struct {
	SecurityLevel    model.EnforcementLevel `json:"security_level"`
	AuditStats       audit.Stats            `json:"audit_stats"`
	RuleStats        policy.RuleCounts      `json:"rule_stats"`
	HistorySize      int                    `json:"history_size"`
	ConfirmedActions int                    `json:"confirmed_actions"`
	RiskDistribution audit.Distribution     `json:"risk_distribution"`
}

// Stats reports the enforcement level, cumulative audit counters, rule
// counts, history size, number of remembered approvals and the cumulative
// risk distribution.
func (g *Guard) Stats() Stats {
	st := g.store.Stats()

	g.mu.Lock()
	history := len(g.history)
	g.mu.Unlock()

	return Stats{
		SecurityLevel:    g.level,
		AuditStats:       st,
		RuleStats:        g.engine.Count(),
		HistorySize:      history,
		ConfirmedActions: g.gate.Memo().Len(),
		RiskDistribution: audit.Distribution{
			Critical: st.CriticalEvents,
			High:     st.HighEvents,
			Medium:   st.MediumEvents,
			Low:      st.LowEvents,
		},
	}
}
