package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ppiankov/actiongate/internal/config"
	"github.com/ppiankov/actiongate/internal/policy"
	"github.com/ppiankov/actiongate/internal/policydiff"
	"github.com/ppiankov/actiongate/internal/risk"
)

var (
	rulesPath   string
	rulesFormat string

	diffOldConfig string
	diffNewConfig string
	diffFormat    string
)

func init() {
	rootCmd.AddCommand(rulesCmd)
	rulesCmd.AddCommand(rulesListCmd)
	rulesListCmd.Flags().StringVar(&rulesPath, "rules", "", "Path to rules YAML (default from config)")
	rulesListCmd.Flags().StringVarP(&rulesFormat, "format", "f", "text", "Output format (text|json)")

	rulesCmd.AddCommand(rulesDiffCmd)
	rulesDiffCmd.Flags().StringVar(&diffOldConfig, "old-config", "", "Config whose risk weights apply to the old rules")
	rulesDiffCmd.Flags().StringVar(&diffNewConfig, "new-config", "", "Config whose risk weights apply to the new rules")
	rulesDiffCmd.Flags().StringVarP(&diffFormat, "format", "f", "text", "Output format (text|json)")
}

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Rule set operations",
}

var rulesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List active rules in evaluation order",
	Long:  "Loads and validates the rule file and prints the rules the engine would run.\nA missing file lists the built-in rules.",
	RunE:  runRulesList,
}

func runRulesList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig("", rulesPath, "")
	if err != nil {
		return err
	}
	rules, hash, err := policy.LoadRulesWithHash(cfg.RulesPath)
	if err != nil {
		return err
	}

	if rulesFormat == "json" {
		out, err := json.MarshalIndent(map[string]any{"path": cfg.RulesPath, "hash": hash, "rules": rules}, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	}
	printRules(cmd.OutOrStdout(), rules)
	fmt.Fprintf(cmd.OutOrStdout(), "\n%d rules, %s\n", len(rules), hash)
	return nil
}

var rulesDiffCmd = &cobra.Command{
	Use:   "diff <old> <new>",
	Short: "Compare two rule files",
	Long: "Reports rules added, removed or changed between two rule files, and,\n" +
		"given both configs, the risk weight changes.",
	Args: cobra.ExactArgs(2),
	RunE: runRulesDiff,
}

func runRulesDiff(cmd *cobra.Command, args []string) error {
	oldSet, err := diffSet(args[0], diffOldConfig)
	if err != nil {
		return err
	}
	newSet, err := diffSet(args[1], diffNewConfig)
	if err != nil {
		return err
	}

	result := policydiff.Diff(oldSet, newSet)
	if diffFormat == "json" {
		out, err := policydiff.FormatJSON(result)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), out)
		return nil
	}
	fmt.Fprint(cmd.OutOrStdout(), policydiff.FormatText(result))
	return nil
}

// diffSet loads one side of a rules diff. The rule file must exist; the
// config is optional.
func diffSet(rulesFile, configFile string) (policydiff.Set, error) {
	if _, err := os.Stat(rulesFile); err != nil {
		return policydiff.Set{}, fmt.Errorf("rules file: %w", err)
	}
	rules, err := policy.LoadRules(rulesFile)
	if err != nil {
		return policydiff.Set{}, err
	}
	set := policydiff.Set{Path: rulesFile, Rules: rules}
	if configFile != "" {
		cfg, err := config.Load(configFile)
		if err != nil {
			return policydiff.Set{}, err
		}
		set.Weights = risk.DefaultWeights().Merge(cfg.Risk)
	}
	return set, nil
}

func printRules(w io.Writer, rules []policy.Rule) {
	fmt.Fprintf(w, "%-30s %-20s %-9s %-6s %s\n", "NAME", "KIND", "LEVEL", "WEIGHT", "MATCH")
	for _, r := range rules {
		kind := string(r.Kind)
		if kind == "" {
			kind = "*"
		}
		fmt.Fprintf(w, "%-30s %-20s %-9s %-6.2g %s\n", r.Name, kind, r.Level, r.Weight, ruleMatch(r))
	}
}

func ruleMatch(r policy.Rule) string {
	var m string
	if r.Predicate != "" {
		m = r.Predicate
	}
	if r.Pattern != "" {
		p := fmt.Sprintf("%q", r.Pattern)
		if r.Regex {
			p = "/" + r.Pattern + "/"
		}
		if m != "" {
			m += " && "
		}
		m += truncate(p, 40)
	}
	return m
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
