package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ppiankov/actiongate/internal/domainlist"
	"github.com/ppiankov/actiongate/internal/policy"
	"github.com/ppiankov/actiongate/internal/scenario"
)

var (
	testLevel   string
	testRules   string
	testDomains string
	testFormat  string
)

func init() {
	rootCmd.AddCommand(testCmd)
	testCmd.Flags().StringVar(&testLevel, "level", "", "Default enforcement level for cases without one")
	testCmd.Flags().StringVar(&testRules, "rules", "", "Path to rules YAML (overrides config)")
	testCmd.Flags().StringVar(&testDomains, "domains", "", "Path to domain lists YAML (overrides config)")
	testCmd.Flags().StringVarP(&testFormat, "format", "f", "text", "Output format (text|json)")
}

var testCmd = &cobra.Command{
	Use:   "test <glob>",
	Short: "Run decision assertions from scenario files",
	Long: "Loads scenario YAML files matching a glob pattern, runs each case\n" +
		"through a fresh guard built from the configured rules, domain lists and\n" +
		"risk weights, and reports pass/fail.\n\n" +
		"Exit code 0 if all cases pass, 1 if any fail.",
	Args: cobra.ExactArgs(1),
	RunE: runTest,
}

func runTest(cmd *cobra.Command, args []string) error {
	matches, err := filepath.Glob(args[0])
	if err != nil {
		return fmt.Errorf("invalid glob pattern: %w", err)
	}
	if len(matches) == 0 {
		return fmt.Errorf("no scenario files match pattern: %s", args[0])
	}

	env, err := scenarioEnv(testLevel, testRules, testDomains)
	if err != nil {
		return err
	}

	results, err := runScenarios(matches, env)
	if err != nil {
		return err
	}

	switch testFormat {
	case "json":
		out, err := scenario.FormatJSON(results)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), out)
	default:
		fmt.Fprint(cmd.OutOrStdout(), scenario.FormatText(results))
	}

	for _, r := range results {
		if r.Failed > 0 {
			os.Exit(1)
		}
	}
	return nil
}

// scenarioEnv builds the scenario environment from config plus overrides.
func scenarioEnv(level, rules, domains string) (scenario.Env, error) {
	cfg, err := loadConfig(level, rules, domains)
	if err != nil {
		return scenario.Env{}, err
	}
	ruleSet, err := policy.LoadRules(cfg.RulesPath)
	if err != nil {
		return scenario.Env{}, err
	}
	lists, err := domainlist.Load(cfg.DomainsPath)
	if err != nil {
		return scenario.Env{}, err
	}
	return scenario.Env{
		Rules:   ruleSet,
		Domains: lists,
		Weights: cfg.Risk,
		Level:   cfg.EnforcementLevel,
	}, nil
}

func runScenarios(paths []string, env scenario.Env) ([]*scenario.RunResult, error) {
	var results []*scenario.RunResult
	for _, path := range paths {
		r, err := scenario.LoadAndRun(path, env)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		results = append(results, r)
	}
	return results, nil
}
