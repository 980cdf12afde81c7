package cli

import (
	"encoding/json"
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

const version = "0.3.0"

var versionJSON bool

func init() {
	rootCmd.AddCommand(versionCmd)
	versionCmd.Flags().BoolVar(&versionJSON, "json", false, "Print as JSON")
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !versionJSON {
			fmt.Fprintf(cmd.OutOrStdout(), "actiongate %s (%s)\n", version, runtime.Version())
			return nil
		}
		out, err := json.MarshalIndent(map[string]string{
			"name":    "actiongate",
			"version": version,
			"go":      runtime.Version(),
		}, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	},
}
