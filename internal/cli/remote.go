package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/actiongate/internal/client"
)

var remoteAddr string

func init() {
	for _, c := range []*cobra.Command{pendingCmd, resolveCmd, statsCmd} {
		c.Flags().StringVar(&remoteAddr, "addr", "", "actiongate server address (default from config)")
		rootCmd.AddCommand(c)
	}
}

var pendingCmd = &cobra.Command{
	Use:   "pending",
	Short: "List confirmations waiting on a running server",
	RunE:  runPending,
}

var resolveCmd = &cobra.Command{
	Use:   "resolve <id> <y|n|a|q>",
	Short: "Answer a pending confirmation on a running server",
	Long: "Answers a confirmation queued by `actiongate serve`:\n" +
		"  y  allow once\n  a  allow and remember identical actions\n  n  block\n  q  block and abort the task",
	Args: cobra.ExactArgs(2),
	RunE: runResolve,
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show statistics of a running server",
	RunE:  runStats,
}

func dial() (*client.Client, error) {
	addr := remoteAddr
	if addr == "" {
		cfg, err := loadConfig("", "", "")
		if err != nil {
			return nil, err
		}
		addr = cfg.Server.Addr
	}
	return client.New(addr)
}

func runPending(cmd *cobra.Command, args []string) error {
	c, err := dial()
	if err != nil {
		return err
	}
	defer c.Close()

	list, err := c.Pending()
	if err != nil {
		return fmt.Errorf("list pending: %w", err)
	}
	if len(list) == 0 {
		fmt.Println("No pending confirmations.")
		return nil
	}

	fmt.Printf("%-36s %-20s %-14s %-40s %s\n", "ID", "ACTION", "RISK", "TARGET", "EXPIRES")
	for _, p := range list {
		fmt.Printf("%-36s %-20s %-14s %-40s %s\n",
			p.ID,
			p.Prompt.Kind,
			fmt.Sprintf("%.1f %s", p.Prompt.Score, p.Prompt.Level),
			truncate(p.Prompt.Target, 40),
			p.ExpiresAt.Local().Format(time.TimeOnly),
		)
	}
	return nil
}

func runResolve(cmd *cobra.Command, args []string) error {
	c, err := dial()
	if err != nil {
		return err
	}
	defer c.Close()

	d, err := c.Resolve(args[0], args[1])
	if err != nil {
		return fmt.Errorf("resolve %s: %w", args[0], err)
	}
	fmt.Printf("Resolved %s: %s\n", args[0], d)
	return nil
}

func runStats(cmd *cobra.Command, args []string) error {
	c, err := dial()
	if err != nil {
		return err
	}
	defer c.Close()

	st, err := c.Stats()
	if err != nil {
		return fmt.Errorf("stats: %w", err)
	}
	out, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
