package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ppiankov/actiongate/internal/approval"
	"github.com/ppiankov/actiongate/internal/audit"
	"github.com/ppiankov/actiongate/internal/config"
	"github.com/ppiankov/actiongate/internal/domainlist"
	"github.com/ppiankov/actiongate/internal/integrity"
	"github.com/ppiankov/actiongate/internal/policy"
)

var doctorPin bool

func init() {
	rootCmd.AddCommand(doctorCmd)
	doctorCmd.Flags().BoolVar(&doctorPin, "pin-binary", false, "Write the running binary's checksum to "+integrity.ChecksumPaths[0])
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check configuration, rules, domain lists and audit outputs",
	RunE:  runDoctor,
}

type doctorCheck struct {
	label  string
	ok     bool
	detail string
	fix    string
}

func runDoctor(cmd *cobra.Command, args []string) error {
	if doctorPin {
		path := os.ExpandEnv(integrity.ChecksumPaths[0])
		sum, err := integrity.WriteChecksum(path)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Pinned %s to %s\n\n", short(sum), path)
	}
	checks := diagnose(configPath)
	if !printChecks(cmd.OutOrStdout(), checks) {
		fmt.Println()
		fmt.Println("Some checks failed. Run the suggested commands to fix.")
		return fmt.Errorf("doctor found issues")
	}
	fmt.Println()
	fmt.Println("All checks passed.")
	return nil
}

// diagnose loads every configured input the way serve would and reports
// each one separately.
func diagnose(path string) []doctorCheck {
	if path == "" {
		path = config.DefaultPath()
	}

	cfg, hash, err := config.LoadWithHash(path)
	if err != nil {
		return []doctorCheck{{label: "config", detail: err.Error(), fix: "fix " + path}}
	}
	detail := path
	if _, statErr := os.Stat(path); statErr != nil {
		detail = "defaults (no " + path + ")"
	}
	checks := []doctorCheck{{label: "config", ok: true, detail: fmt.Sprintf("%s, %s", detail, short(hash))}}
	checks = append(checks, doctorCheck{label: "enforcement", ok: true, detail: string(cfg.EnforcementLevel)})

	if rules, rh, err := policy.LoadRulesWithHash(cfg.RulesPath); err != nil {
		checks = append(checks, doctorCheck{label: "rules", detail: err.Error(), fix: "actiongate rules list --rules " + cfg.RulesPath})
	} else {
		checks = append(checks, doctorCheck{label: "rules", ok: true, detail: fmt.Sprintf("%d rules, %s", len(rules), short(rh))})
	}

	if _, err := domainlist.Load(cfg.DomainsPath); err != nil {
		checks = append(checks, doctorCheck{label: "domain lists", detail: err.Error(), fix: "fix " + cfg.DomainsPath})
	} else {
		checks = append(checks, doctorCheck{label: "domain lists", ok: true, detail: cfg.DomainsPath})
	}

	checks = append(checks, integrityCheck())
	checks = append(checks, journalCheck(cfg.Audit.JournalPath))

	if cfg.Audit.SQLitePath != "" {
		if db, err := audit.OpenSQLite(cfg.Audit.SQLitePath); err != nil {
			checks = append(checks, doctorCheck{label: "audit database", detail: err.Error()})
		} else {
			n, _ := db.Count()
			db.Close()
			checks = append(checks, doctorCheck{label: "audit database", ok: true, detail: fmt.Sprintf("%d events", n)})
		}
	}

	checks = append(checks, doctorCheck{label: "alerts", ok: true, detail: fmt.Sprintf("%d webhooks", len(cfg.Alerts))})

	tty := "stdin is not a terminal; local checks block confirmations"
	if approval.IsInteractive() {
		tty = "interactive"
	}
	checks = append(checks, doctorCheck{label: "terminal", ok: true, detail: tty})
	return checks
}

func journalCheck(path string) doctorCheck {
	if path == "" {
		return doctorCheck{label: "audit journal", ok: true, detail: "disabled"}
	}
	if _, err := os.Stat(path); err != nil {
		return doctorCheck{label: "audit journal", ok: true, detail: "not written yet"}
	}
	v := audit.Verify(path)
	if !v.Valid {
		return doctorCheck{
			label:  "audit journal",
			detail: fmt.Sprintf("chain broken at line %d: %s", v.ErrorLine, v.Error),
			fix:    "actiongate audit verify " + path,
		}
	}
	return doctorCheck{label: "audit journal", ok: true, detail: fmt.Sprintf("%d entries, chain intact", v.Lines)}
}

func integrityCheck() doctorCheck {
	r, err := integrity.Check()
	if err != nil {
		return doctorCheck{label: "binary", detail: err.Error()}
	}
	c := doctorCheck{label: "binary", ok: r.Status != integrity.StatusMismatch, detail: r.String()}
	if !c.ok {
		c.fix = "reinstall actiongate, then actiongate doctor --pin-binary"
	}
	return c
}

// printChecks prints one line per check and reports whether all passed.
func printChecks(w io.Writer, checks []doctorCheck) bool {
	allOK := true
	for _, c := range checks {
		mark := "✓"
		if !c.ok {
			mark = "✗"
			allOK = false
		}
		line := fmt.Sprintf("%s %-16s %s", mark, c.label+":", c.detail)
		if !c.ok && c.fix != "" {
			line += fmt.Sprintf("  ->  %s", c.fix)
		}
		fmt.Fprintln(w, line)
	}
	return allOK
}

func short(hash string) string {
	return truncate(hash, 19)
}
