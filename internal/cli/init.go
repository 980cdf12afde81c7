package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/actiongate/internal/config"
	"github.com/ppiankov/actiongate/internal/domainlist"
	"github.com/ppiankov/actiongate/internal/policy"
)

var (
	initDir   string
	initForce bool
)

func init() {
	initCmd.Flags().StringVar(&initDir, "dir", "", "Config directory (default ~/.actiongate)")
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite existing config files")
	rootCmd.AddCommand(initCmd)
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Bootstrap actiongate configuration",
	Long: `Creates the config directory with a default config.yaml, the built-in
rules as rules.yaml and the built-in domain lists as domains.yaml.
Existing files are kept unless --force is given.`,
	RunE: runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	dir := initDir
	if dir == "" {
		dir = config.DefaultDir()
	}

	domains, err := defaultDomainsYAML()
	if err != nil {
		return fmt.Errorf("generate default domain lists: %w", err)
	}
	files := []struct {
		name    string
		content string
	}{
		{"config.yaml", config.DefaultConfigYAML()},
		{"rules.yaml", policy.DefaultRulesYAML()},
		{"domains.yaml", domains},
	}

	var created []string
	for _, f := range files {
		path := filepath.Join(dir, f.name)
		wrote, err := writeIfMissing(path, f.content)
		if err != nil {
			return err
		}
		if wrote {
			created = append(created, path)
		}
	}

	fmt.Println("actiongate init complete.")
	fmt.Println()
	if len(created) > 0 {
		fmt.Println("Created:")
		for _, path := range created {
			fmt.Printf("  %s\n", path)
		}
	} else {
		fmt.Println("All files already exist (use --force to overwrite).")
	}
	fmt.Println()
	fmt.Println("Try a check:")
	fmt.Println("  actiongate check --tool click_element --arg description=\"Buy now\" --context is_payment_page=true")
	fmt.Println()
	fmt.Println("Run the gate for remote agents:")
	fmt.Println("  actiongate serve")
	return nil
}

// writeIfMissing writes content to path if it doesn't exist or --force is set.
// Returns true if the file was written.
func writeIfMissing(path, content string) (bool, error) {
	if !initForce {
		if _, err := os.Stat(path); err == nil {
			return false, nil
		}
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return false, fmt.Errorf("create directory %s: %w", dir, err)
	}

	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return false, fmt.Errorf("write %s: %w", path, err)
	}
	return true, nil
}

// defaultDomainsYAML renders the built-in domain lists with a header.
func defaultDomainsYAML() (string, error) {
	data, err := yaml.Marshal(domainlist.DefaultLists)
	if err != nil {
		return "", err
	}
	header := "# actiongate domain lists\n" +
		"# Generated by: actiongate init\n" +
		"#\n" +
		"# categories: registrable domains per category; subdomains match too.\n" +
		"# trusted_categories: categories whose domains count as trusted.\n" +
		"# suspicious_tlds / suspicious_keywords: flag a host as suspicious.\n" +
		"# Sections missing from this file keep their built-in values.\n\n"
	return header + string(data), nil
}
