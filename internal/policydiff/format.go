package policydiff

import (
	"encoding/json"
	"fmt"
	"strings"
)

// FormatText renders the diff result as human-readable text.
func FormatText(r *DiffResult) string {
	if !r.HasChanges {
		return fmt.Sprintf("Rules diff: %s → %s\n\nNo changes detected.\n", r.OldPath, r.NewPath)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Rules diff: %s → %s\n", r.OldPath, r.NewPath)

	if len(r.RuleChanges) > 0 {
		b.WriteString("\n  Rules:\n")
		for _, rc := range r.RuleChanges {
			switch rc.Type {
			case Added:
				fmt.Fprintf(&b, "    + %s\n", rc.Rule)
			case Removed:
				fmt.Fprintf(&b, "    - %s\n", rc.Rule)
			case Changed:
				fmt.Fprintf(&b, "    ~ %s\n", rc.Rule)
				for _, c := range rc.Changes {
					writeChange(&b, "        ", c.Field, c)
				}
			}
		}
	}

	kinds := filterChanges(r.Changes, "risk.kinds.")
	if len(kinds) > 0 {
		b.WriteString("\n  Kind Weights:\n")
		for _, c := range kinds {
			writeChange(&b, "    ", strings.TrimPrefix(c.Field, "risk.kinds."), c)
		}
	}

	modifiers := filterChanges(r.Changes, "risk.modifiers.")
	if len(modifiers) > 0 {
		b.WriteString("\n  Context Modifiers:\n")
		for _, c := range modifiers {
			writeChange(&b, "    ", strings.TrimPrefix(c.Field, "risk.modifiers."), c)
		}
	}

	return b.String()
}

func writeChange(b *strings.Builder, indent, name string, c Change) {
	switch c.Comment {
	case Added:
		fmt.Fprintf(b, "%s+ %-22s %s\n", indent, name, c.New)
	case Removed:
		fmt.Fprintf(b, "%s- %-22s %s\n", indent, name, c.Old)
	default:
		fmt.Fprintf(b, "%s%-24s %s → %s", indent, name+":", c.Old, c.New)
		if c.Comment != "" {
			fmt.Fprintf(b, "  (%s)", c.Comment)
		}
		b.WriteString("\n")
	}
}

// FormatJSON renders the diff result as JSON.
func FormatJSON(r *DiffResult) (string, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal diff result: %w", err)
	}
	return string(data), nil
}

func filterChanges(changes []Change, prefix string) []Change {
	var out []Change
	for _, c := range changes {
		if strings.HasPrefix(c.Field, prefix) {
			out = append(out, c)
		}
	}
	return out
}
