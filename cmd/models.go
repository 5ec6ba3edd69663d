package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/KaramelBytes/dataloom-cli/internal/ai"
	cfgpkg "github.com/KaramelBytes/dataloom-cli/internal/config"
	"github.com/KaramelBytes/dataloom-cli/internal/utils"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "Inspect the model catalog used for defaults and cost estimates",
	Example: `  dataloom models show
  dataloom models show --json
  dataloom models sync --file ./models.json`,
}

var modelsShowJSON bool

var modelsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current model catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		cat := ai.Catalog()
		if modelsShowJSON {
			b, err := utils.PrettyJSON(cat)
			if err != nil {
				return err
			}
			return writeOutput(cmd.OutOrStdout(), "", b, "catalog")
		}
		tw := table.NewWriter()
		tw.SetOutputMirror(cmd.OutOrStdout())
		tw.AppendHeader(table.Row{"Provider", "Model", "Context", "$/1K in", "$/1K out", "Default"})
		for _, m := range cat {
			def := ""
			if ai.DefaultModel(m.Provider) == m.Name {
				def = "✓"
			}
			tw.AppendRow(table.Row{m.Provider, m.Name, m.ContextTokens, fmt.Sprintf("%.5f", m.InputPerK), fmt.Sprintf("%.5f", m.OutputPerK), def})
		}
		tw.SetStyle(table.StyleLight)
		tw.Render()
		return nil
	},
}

var syncPath string

var modelsSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Merge a JSON catalog file and remember it in the config",
	RunE: func(cmd *cobra.Command, args []string) error {
		if syncPath == "" {
			return fmt.Errorf("--file is required")
		}
		m, err := ai.LoadCatalogFromJSON(syncPath)
		if err != nil {
			return fmt.Errorf("load catalog: %w", err)
		}
		ai.MergeCatalog(m)
		abs, err := filepath.Abs(syncPath)
		if err != nil {
			return err
		}
		if err := cfg.Set("models_catalog", abs); err != nil {
			return err
		}
		if err := cfgpkg.Save(cfg, cfgFile); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Merged %d models from %s\n", len(m), syncPath)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(modelsCmd)
	modelsCmd.AddCommand(modelsShowCmd)
	modelsCmd.AddCommand(modelsSyncCmd)

	modelsShowCmd.Flags().BoolVar(&modelsShowJSON, "json", false, "print the catalog as JSON")
	modelsSyncCmd.Flags().StringVar(&syncPath, "file", "", "path to JSON catalog file (object of name → model info)")
}
