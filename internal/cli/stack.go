package cli

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/ppiankov/actiongate/internal/alert"
	"github.com/ppiankov/actiongate/internal/analyze"
	"github.com/ppiankov/actiongate/internal/approval"
	"github.com/ppiankov/actiongate/internal/audit"
	"github.com/ppiankov/actiongate/internal/config"
	"github.com/ppiankov/actiongate/internal/domainlist"
	"github.com/ppiankov/actiongate/internal/guard"
	"github.com/ppiankov/actiongate/internal/integrity"
	"github.com/ppiankov/actiongate/internal/policy"
	"github.com/ppiankov/actiongate/internal/risk"
)

// stack is a Guard assembled from configuration plus the resources it owns.
type stack struct {
	cfg        config.Config
	guard      *guard.Guard
	journal    *audit.Journal
	dispatcher *alert.Dispatcher
	rulesHash  string
}

// buildStack wires rules, domain lists, risk weights, audit sinks and alert
// webhooks into a Guard. A nil requester blocks every confirmation.
func buildStack(cfg config.Config, requester approval.Requester, logger *slog.Logger) (*stack, error) {
	rules, rulesHash, err := policy.LoadRulesWithHash(cfg.RulesPath)
	if err != nil {
		return nil, err
	}
	domains, err := domainlist.Load(cfg.DomainsPath)
	if err != nil {
		return nil, err
	}

	engine := policy.NewEngine(policy.WithLogger(logger))
	if err := engine.Replace(rules); err != nil {
		return nil, fmt.Errorf("load rules: %w", err)
	}

	st := &stack{cfg: cfg, rulesHash: rulesHash}
	store := audit.NewStore(audit.WithCapacity(cfg.Audit.Capacity), audit.WithLogger(logger))
	if cfg.Audit.JournalPath != "" {
		j, err := audit.OpenJournal(cfg.Audit.JournalPath)
		if err != nil {
			return nil, err
		}
		j.SetPolicyHash(rulesHash)
		store.AddSink(j)
		st.journal = j
	}
	if cfg.Audit.SQLitePath != "" {
		db, err := audit.OpenSQLite(cfg.Audit.SQLitePath)
		if err != nil {
			return nil, errors.Join(err, store.Close())
		}
		store.AddSink(db)
	}

	gate := approval.NewGate(requester,
		approval.WithHashTTL(cfg.Confirmation.HashTTL),
		approval.WithGateLogger(logger),
	)
	st.guard = guard.New(
		guard.WithLevel(cfg.EnforcementLevel),
		guard.WithAnalyzer(analyze.New(nil, domains)),
		guard.WithEngine(engine),
		guard.WithAssessor(risk.New(risk.WithWeights(cfg.Risk))),
		guard.WithGate(gate),
		guard.WithStore(store),
		guard.WithLogger(logger),
	)

	if d := alert.NewDispatcher(cfg.Alerts, logger); d != nil {
		st.guard.RegisterConfirmationCallback(d.Callback())
		st.dispatcher = d
	}
	return st, nil
}

// Close waits for in-flight alerts and closes the audit sinks.
func (s *stack) Close() error {
	if s.dispatcher != nil {
		s.dispatcher.Wait()
	}
	return s.guard.Store().Close()
}

// verifyBinary refuses to run from a binary whose checksum does not match the
// pinned digest. The mismatch is recorded in the journal when one is open.
func (s *stack) verifyBinary(logger *slog.Logger) error {
	r, err := integrity.Verify(s.journal)
	if err != nil {
		logger.Error("binary integrity check failed", "binary", r.Binary, "expected", r.Expected, "actual", r.Actual, "error", err)
		return err
	}
	logger.Debug("binary integrity", "status", r.Status, "source", r.Source)
	return nil
}
