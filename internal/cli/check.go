package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ppiankov/actiongate/internal/approval"
	"github.com/ppiankov/actiongate/internal/classify"
	"github.com/ppiankov/actiongate/internal/model"
)

var (
	checkKind    string
	checkTarget  string
	checkTool    string
	checkArgs    map[string]string
	checkContext map[string]string
	checkLevel   string
	checkRules   string
	checkDomains string
	checkFormat  string
)

func init() {
	rootCmd.AddCommand(checkCmd)
	checkCmd.Flags().StringVar(&checkKind, "kind", "", "Action kind (e.g. type_password); omit to classify --tool")
	checkCmd.Flags().StringVar(&checkTarget, "target", "", "Element text, typed value or URL")
	checkCmd.Flags().StringVar(&checkTool, "tool", "", "Planner tool name (click_element, type_text, navigate, ...)")
	checkCmd.Flags().StringToStringVar(&checkArgs, "arg", nil, "Tool argument key=value (repeatable)")
	checkCmd.Flags().StringToStringVar(&checkContext, "context", nil, "Page snapshot key=value, e.g. current_url=https://... (repeatable)")
	checkCmd.Flags().StringVar(&checkLevel, "level", "", "Enforcement level override (low|medium|high)")
	checkCmd.Flags().StringVar(&checkRules, "rules", "", "Path to rules YAML")
	checkCmd.Flags().StringVar(&checkDomains, "domains", "", "Path to domain lists YAML")
	checkCmd.Flags().StringVarP(&checkFormat, "format", "f", "text", "Output format (text|json)")
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check one browser action",
	Long: "Runs a single action through classification, rules, risk scoring and\n" +
		"enforcement. Confirmations are asked on the terminal when stdin is a TTY\n" +
		"and blocked otherwise. The decision is written to the audit journal.\n\n" +
		"Exit code 0 if allowed, 1 if blocked.",
	RunE: runCheck,
}

// checkResult is the printed decision.
type checkResult struct {
	Allowed bool                 `json:"allowed"`
	Kind    model.ActionKind     `json:"kind"`
	Target  string               `json:"target"`
	Risk    model.RiskAssessment `json:"risk_assessment"`
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(checkLevel, checkRules, checkDomains)
	if err != nil {
		return err
	}

	var requester approval.Requester
	if approval.IsInteractive() {
		requester = approval.NewTerminalRequester(os.Stdin, os.Stderr)
	}
	st, err := buildStack(cfg, requester, newLogger())
	if err != nil {
		return err
	}
	defer st.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	res, err := checkOne(ctx, st, checkKind, checkTarget, checkTool, toValues(checkArgs), toValues(checkContext))
	if err != nil {
		return err
	}

	switch checkFormat {
	case "json":
		out, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
	default:
		fmt.Print(formatCheck(res))
	}

	if !res.Allowed {
		st.Close()
		os.Exit(1)
	}
	return nil
}

// checkOne resolves kind and target from the tool call when they are not
// given and runs the guard.
func checkOne(ctx context.Context, st *stack, kind, target, tool string, toolArgs map[string]any, snapshot model.Context) (checkResult, error) {
	k := model.ActionKind(kind)
	if tool != "" {
		if k == "" {
			k = classify.DetectActionKind(tool, toolArgs, snapshot)
		}
		if target == "" {
			target = classify.TargetFor(tool, toolArgs)
		}
	}
	if k == "" {
		return checkResult{}, fmt.Errorf("--kind or --tool is required")
	}

	allowed, ra, err := st.guard.CheckAction(ctx, k, target, snapshot)
	if err != nil {
		return checkResult{}, err
	}
	return checkResult{Allowed: allowed, Kind: k, Target: target, Risk: ra}, nil
}

func formatCheck(r checkResult) string {
	var b strings.Builder
	verdict := "ALLOWED"
	if !r.Allowed {
		verdict = "BLOCKED"
	}
	fmt.Fprintf(&b, "%s  %s  risk %.1f (%s)\n", verdict, r.Kind, r.Risk.Score, r.Risk.Level)
	if len(r.Risk.TriggeredRules) > 0 {
		fmt.Fprintf(&b, "  rules: %s\n", strings.Join(r.Risk.TriggeredRules, ", "))
	}
	for _, rec := range r.Risk.Recommendations {
		fmt.Fprintf(&b, "  - %s\n", rec)
	}
	return b.String()
}

// toValues turns key=value flags into typed values: true/false become
// booleans, numbers become float64, everything else stays a string.
func toValues(kv map[string]string) map[string]any {
	if len(kv) == 0 {
		return nil
	}
	out := make(map[string]any, len(kv))
	for k, v := range kv {
		if v == "true" || v == "false" {
			out[k] = v == "true"
			continue
		}
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			out[k] = f
			continue
		}
		out[k] = v
	}
	return out
}
