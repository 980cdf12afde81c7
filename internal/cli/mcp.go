package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ppiankov/actiongate/internal/approval"
	agmcp "github.com/ppiankov/actiongate/internal/mcp"
)

var (
	mcpLevel   string
	mcpRules   string
	mcpDomains string
)

func init() {
	rootCmd.AddCommand(mcpCmd)
	mcpCmd.Flags().StringVar(&mcpLevel, "level", "", "Enforcement level override (low|medium|high)")
	mcpCmd.Flags().StringVar(&mcpRules, "rules", "", "Path to rules YAML")
	mcpCmd.Flags().StringVar(&mcpDomains, "domains", "", "Path to domain lists YAML")
}

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP tool server for agent integration",
	Long: "Runs actiongate as an MCP (Model Context Protocol) server over stdio.\n" +
		"Exposes tools: actiongate_check, actiongate_classify, actiongate_stats,\n" +
		"actiongate_pending, actiongate_resolve.",
	RunE: runMCP,
}

func runMCP(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(mcpLevel, mcpRules, mcpDomains)
	if err != nil {
		return err
	}

	logger := newLogger()
	queue := approval.NewQueue(cfg.Confirmation.Timeout)
	st, err := buildStack(cfg, queue, logger)
	if err != nil {
		return err
	}
	defer st.Close()
	if err := st.verifyBinary(logger); err != nil {
		return err
	}

	srv := agmcp.New(st.guard, version, agmcp.WithQueue(queue), agmcp.WithLogger(logger))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	fmt.Fprintf(os.Stderr, "actiongate MCP server running on stdio (enforcement %s)\n\n", cfg.EnforcementLevel)

	err = srv.Run(ctx)
	saveReport(st)
	return err
}
