package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ppiankov/actiongate/internal/classify"
	"github.com/ppiankov/actiongate/internal/model"
)

var (
	classifyArgs    map[string]string
	classifyContext map[string]string
	classifyFormat  string
)

func init() {
	rootCmd.AddCommand(classifyCmd)
	classifyCmd.Flags().StringToStringVar(&classifyArgs, "arg", nil, "Tool argument key=value (repeatable)")
	classifyCmd.Flags().StringToStringVar(&classifyContext, "context", nil, "Page snapshot key=value (repeatable)")
	classifyCmd.Flags().StringVarP(&classifyFormat, "format", "f", "text", "Output format (text|json)")
}

var classifyCmd = &cobra.Command{
	Use:   "classify <tool>",
	Short: "Show the action kind a tool call maps to",
	Long:  "Classifies a planner tool call without scoring or recording it.",
	Args:  cobra.ExactArgs(1),
	RunE:  runClassify,
}

type classifyResult struct {
	Tool   string           `json:"tool"`
	Kind   model.ActionKind `json:"kind"`
	Target string           `json:"target"`
}

func runClassify(cmd *cobra.Command, args []string) error {
	toolArgs := toValues(classifyArgs)
	res := classifyResult{
		Tool:   args[0],
		Kind:   classify.DetectActionKind(args[0], toolArgs, toValues(classifyContext)),
		Target: classify.TargetFor(args[0], toolArgs),
	}

	if classifyFormat == "json" {
		out, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s", res.Tool, res.Kind)
	if res.Target != "" {
		fmt.Fprintf(cmd.OutOrStdout(), " (%q)", res.Target)
	}
	fmt.Fprintln(cmd.OutOrStdout())
	return nil
}
