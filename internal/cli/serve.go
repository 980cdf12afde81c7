package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ppiankov/actiongate/internal/approval"
	"github.com/ppiankov/actiongate/internal/server"
)

var (
	serveAddr    string
	serveLevel   string
	serveRules   string
	serveDomains string
)

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "gRPC listen address (default from config, 127.0.0.1:7433)")
	serveCmd.Flags().StringVar(&serveLevel, "level", "", "Enforcement level override (low|medium|high)")
	serveCmd.Flags().StringVar(&serveRules, "rules", "", "Path to rules YAML")
	serveCmd.Flags().StringVar(&serveDomains, "domains", "", "Path to domain lists YAML")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the gRPC action gate",
	Long: "Runs actiongate as a gRPC server. Agents call CheckAction remotely;\n" +
		"confirmations wait in a queue answered with `actiongate pending` and\n" +
		"`actiongate resolve`. Rule and domain files are hot-reloaded.",
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(serveLevel, serveRules, serveDomains)
	if err != nil {
		return err
	}
	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}

	logger := newLogger()
	queue := approval.NewQueue(cfg.Confirmation.Timeout)
	queue.OnPending(func(p approval.Pending) {
		fmt.Fprintf(os.Stderr, "confirmation %s pending: %s %q (risk %.1f %s)\n",
			p.ID, p.Prompt.Kind, p.Prompt.Target, p.Prompt.Score, p.Prompt.Level)
	})

	st, err := buildStack(cfg, queue, logger)
	if err != nil {
		return err
	}
	defer st.Close()
	if err := st.verifyBinary(logger); err != nil {
		return err
	}

	opts := []server.Option{
		server.WithQueue(queue),
		server.WithLogger(logger),
		server.WithPolicyHash(st.rulesHash),
	}
	if st.journal != nil {
		opts = append(opts, server.WithJournal(st.journal))
	}
	srv := server.New(st.guard, server.Config{
		Addr:        cfg.Server.Addr,
		RulesPath:   cfg.RulesPath,
		DomainsPath: cfg.DomainsPath,
		ReportPath:  cfg.Audit.ReportPath,
	}, opts...)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reloader, err := server.NewReloader(srv, []string{cfg.RulesPath, cfg.DomainsPath})
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: hot-reload disabled: %v\n", err)
	} else {
		go reloader.Run(ctx)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\nShutting down action gate...")
		cancel()
		srv.GracefulStop()
	}()

	fmt.Fprintf(os.Stderr, "actiongate listening on %s (enforcement %s)\n", cfg.Server.Addr, cfg.EnforcementLevel)
	fmt.Fprintf(os.Stderr, "Rules: %s\n", cfg.RulesPath)
	fmt.Fprintln(os.Stderr)

	serveErr := srv.Serve()
	saveReport(st)
	return serveErr
}

// saveReport writes the audit report to the configured path, if any.
func saveReport(st *stack) {
	path := st.cfg.Audit.ReportPath
	if path == "" {
		return
	}
	if err := st.guard.SaveLogs(path); err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
		return
	}
	fmt.Fprintf(os.Stderr, "Audit report saved to %s\n", path)
}
