package scenario

import (
	"encoding/json"
	"fmt"
	"strings"
)

// outcomes counts how the gate treated the cases of one scenario.
type outcomes struct {
	allowed, confirmed, blocked, errored int
}

func tally(cases []CaseResult) outcomes {
	var o outcomes
	for _, c := range cases {
		switch {
		case c.Actual == "error":
			o.errored++
		case c.Actual == ExpectBlock:
			o.blocked++
		case c.Prompted:
			o.confirmed++
		default:
			o.allowed++
		}
	}
	return o
}

func (o outcomes) String() string {
	parts := []string{
		fmt.Sprintf("%d allowed", o.allowed),
		fmt.Sprintf("%d confirmed", o.confirmed),
		fmt.Sprintf("%d blocked", o.blocked),
	}
	if o.errored > 0 {
		parts = append(parts, fmt.Sprintf("%d errors", o.errored))
	}
	return strings.Join(parts, ", ")
}

// FormatText renders run results with the gate outcome of every scenario and
// the fused risk, decision and matched rules of every failed case.
func FormatText(results []*RunResult) string {
	var b strings.Builder
	var cases, passed, failed int

	for _, r := range results {
		cases += r.Total
		passed += r.Passed
		mark := "✓"
		if r.Failed > 0 {
			mark = "✗"
			failed++
		}
		fmt.Fprintf(&b, "%s %s (%d/%d)  %s\n", mark, r.Name, r.Passed, r.Total, tally(r.Cases))

		for _, c := range r.Cases {
			if c.Passed {
				continue
			}
			fmt.Fprintf(&b, "    #%d %s %q: %s\n", c.Index, c.Kind, clip(c.Target, 40), c.Reason)
			if c.Actual == "error" {
				continue
			}
			prompt := "no prompt"
			if c.Prompted {
				prompt = "prompted"
			}
			fmt.Fprintf(&b, "       risk %s %.1f, decision %s, %s\n", c.Risk, c.Score, c.Decision, prompt)
			if len(c.Rules) > 0 {
				fmt.Fprintf(&b, "       rules: %s\n", strings.Join(c.Rules, ", "))
			}
		}
	}

	fmt.Fprintf(&b, "\ncases: %d/%d passed", passed, cases)
	if failed > 0 {
		fmt.Fprintf(&b, ", scenarios: %d/%d failed", failed, len(results))
	}
	b.WriteString("\n")
	return b.String()
}

func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

// FormatJSON renders run results as JSON.
func FormatJSON(results []*RunResult) (string, error) {
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return "", fmt.Errorf("scenario: marshal results: %w", err)
	}
	return string(data), nil
}
