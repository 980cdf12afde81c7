package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/actiongate/internal/audit"
	"github.com/ppiankov/actiongate/internal/config"
	"github.com/ppiankov/actiongate/internal/model"
)

var (
	replayKind     string
	replayDecision string
	replayMinLevel string
	replayFrom     string
	replayTo       string
	replayBlocked  bool
	replayFormat   string

	reportLimit  int
	reportFormat string
)

func init() {
	rootCmd.AddCommand(auditCmd)
	auditCmd.AddCommand(auditVerifyCmd)
	auditCmd.AddCommand(auditReplayCmd)
	auditCmd.AddCommand(auditReportCmd)

	auditReplayCmd.Flags().StringVar(&replayKind, "kind", "", "Only this action kind")
	auditReplayCmd.Flags().StringVar(&replayDecision, "decision", "", "Only this decision (auto_blocked, approved, ...)")
	auditReplayCmd.Flags().StringVar(&replayMinLevel, "min-level", "", "Only this risk level and above (low|medium|high|critical)")
	auditReplayCmd.Flags().StringVar(&replayFrom, "from", "", "Start time filter (RFC3339)")
	auditReplayCmd.Flags().StringVar(&replayTo, "to", "", "End time filter (RFC3339)")
	auditReplayCmd.Flags().BoolVar(&replayBlocked, "blocked", false, "Only actions that were not allowed")
	auditReplayCmd.Flags().StringVarP(&replayFormat, "format", "f", "text", "Output format (text|json)")

	auditReportCmd.Flags().IntVarP(&reportLimit, "lines", "n", 20, "Number of recent events to show")
	auditReportCmd.Flags().StringVarP(&reportFormat, "format", "f", "text", "Output format (text|json)")
}

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Audit journal operations",
	Long:  "Commands for verifying, replaying and reporting on recorded decisions.",
}

var auditVerifyCmd = &cobra.Command{
	Use:   "verify [journal]",
	Short: "Verify hash chain integrity of the audit journal",
	Long:  "Walks the JSONL journal and validates that every entry's prev_hash\nmatches the SHA-256 of the previous entry. Exits 0 if valid, 1 if tampered.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runAuditVerify,
}

var auditReplayCmd = &cobra.Command{
	Use:   "replay [journal]",
	Short: "Replay recorded decisions from the audit journal",
	Long:  "Reads the journal, applies the filters and renders a decision timeline with summary.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runAuditReplay,
}

var auditReportCmd = &cobra.Command{
	Use:   "report [database]",
	Short: "Show recent decisions from the SQLite audit database",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runAuditReport,
}

// auditPath returns the explicit argument or the path picked from config.
func auditPath(args []string, pick func(config.Config) string, what string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	cfg, err := loadConfig("", "", "")
	if err != nil {
		return "", err
	}
	path := pick(cfg)
	if path == "" {
		return "", fmt.Errorf("no %s configured; pass a path", what)
	}
	return path, nil
}

func journalPath(c config.Config) string { return c.Audit.JournalPath }

func sqlitePath(c config.Config) string { return c.Audit.SQLitePath }

func runAuditVerify(cmd *cobra.Command, args []string) error {
	path, err := auditPath(args, journalPath, "audit.journal_path")
	if err != nil {
		return err
	}
	result := audit.Verify(path)
	if result.Valid {
		fmt.Printf("OK: %d entries verified, %d blocked, tail %s\n", result.Lines, result.Blocked, result.Tail)
		return nil
	}
	fmt.Fprintf(os.Stderr, "FAILED at line %d: %s\n", result.ErrorLine, result.Error)
	os.Exit(1)
	return nil
}

func runAuditReplay(cmd *cobra.Command, args []string) error {
	path, err := auditPath(args, journalPath, "audit.journal_path")
	if err != nil {
		return err
	}
	filter, err := replayFilter()
	if err != nil {
		return err
	}

	result, err := audit.Replay(path, filter)
	if err != nil {
		return err
	}

	switch replayFormat {
	case "json":
		out, err := audit.FormatJSON(result)
		if err != nil {
			return err
		}
		fmt.Println(out)
	default:
		fmt.Print(audit.FormatTimeline(result))
	}
	return nil
}

func replayFilter() (audit.ReplayFilter, error) {
	f := audit.ReplayFilter{
		Decision:    model.UserDecision(replayDecision),
		BlockedOnly: replayBlocked,
	}
	if replayKind != "" {
		k := model.ActionKind(replayKind)
		if !k.Valid() {
			return f, fmt.Errorf("%w: %q", model.ErrUnknownActionKind, replayKind)
		}
		f.Kind = k
	}
	if replayMinLevel != "" {
		l := model.RiskLevel(replayMinLevel)
		if _, ok := model.RiskRank[l]; !ok {
			return f, fmt.Errorf("invalid --min-level %q", replayMinLevel)
		}
		f.MinLevel = l
	}
	if replayFrom != "" {
		from, err := time.Parse(time.RFC3339, replayFrom)
		if err != nil {
			return f, fmt.Errorf("invalid --from time %q: %w", replayFrom, err)
		}
		f.From = from
	}
	if replayTo != "" {
		to, err := time.Parse(time.RFC3339, replayTo)
		if err != nil {
			return f, fmt.Errorf("invalid --to time %q: %w", replayTo, err)
		}
		f.To = to
	}
	return f, nil
}

func runAuditReport(cmd *cobra.Command, args []string) error {
	path, err := auditPath(args, sqlitePath, "audit.sqlite_path")
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("open audit database: %w", err)
	}
	db, err := audit.OpenSQLite(path)
	if err != nil {
		return err
	}
	defer db.Close()

	total, err := db.Count()
	if err != nil {
		return err
	}
	records, err := db.Recent(reportLimit)
	if err != nil {
		return err
	}

	if reportFormat == "json" {
		out, err := json.MarshalIndent(map[string]any{"total": total, "recent": records}, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	}
	printRecords(cmd.OutOrStdout(), total, records)
	return nil
}

func printRecords(w io.Writer, total int, records []audit.Record) {
	fmt.Fprintf(w, "%d events recorded, showing %d most recent\n\n", total, len(records))
	if len(records) == 0 {
		return
	}
	fmt.Fprintf(w, "%-24s %-20s %-6s %-9s %-20s %s\n", "TIME", "ACTION", "SCORE", "LEVEL", "DECISION", "TARGET")
	for _, r := range records {
		fmt.Fprintf(w, "%-24s %-20s %-6.1f %-9s %-20s %s\n",
			r.Timestamp, r.Action, r.Score, r.Level, r.Decision, truncate(r.Target, 40))
	}
}
