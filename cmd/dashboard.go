package cmd

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/dataloom-cli/internal/analysis"
	"github.com/KaramelBytes/dataloom-cli/internal/charts"
	"github.com/KaramelBytes/dataloom-cli/internal/dashboard"
	"github.com/KaramelBytes/dataloom-cli/internal/insights"
	"github.com/KaramelBytes/dataloom-cli/internal/parser"
	"github.com/KaramelBytes/dataloom-cli/internal/render"
	"github.com/KaramelBytes/dataloom-cli/internal/utils"
)

var (
	dashNoAI        bool
	dashHTMLPath    string
	dashPNGDir      string
	dashPrintPrompt bool
	dashOutputPath  string
	dashProvider    string
	dashModel       string
	dashOllamaHost  string
	dashTimeoutSec  int
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard <file>",
	Short: "Build the full dashboard (charts, AI insights, key metrics) for a CSV",
	Example: `  dataloom dashboard sales.csv --output sales.dashboard.json
  dataloom dashboard sales.csv --no-ai --html sales.html --png-dir charts/
  dataloom dashboard sales.csv --provider ollama --model qwen2.5:7b
  dataloom dashboard sales.csv --print-prompt`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		text, err := parser.ReadFile(path)
		if err != nil {
			return err
		}
		name := filepath.Base(path)

		if dashPrintPrompt {
			return printPrompt(cmd, text, name)
		}

		var src dashboard.InsightSource
		if !dashNoAI {
			g, provider, err := newGenerator(cfg, runtimeOptions{
				ProviderFlag: dashProvider,
				ModelFlag:    dashModel,
				OllamaHost:   dashOllamaHost,
			}, logger)
			if err != nil {
				return err
			}
			src = g
			fmt.Fprintf(os.Stderr, "Generating insights with %s (%s)...\n", g.Model, provider)
		}

		b := newBuilder(cfg, src, logger)
		if dashTimeoutSec > 0 {
			b.Timeout = secs(dashTimeoutSec)
		}
		res, err := b.Build(cmd.Context(), text, name)
		if err != nil {
			return err
		}
		if res.Fallback && !dashNoAI {
			fmt.Fprintln(os.Stderr, "⚠ Warning: AI insights unavailable, using the built-in summary (run with --debug for details)")
		}

		if dashHTMLPath != "" {
			var buf bytes.Buffer
			if err := render.HTML(&buf, res.Payload); err != nil {
				return err
			}
			if err := utils.SafeWriteFile(dashHTMLPath, buf.Bytes()); err != nil {
				return fmt.Errorf("write html: %w", err)
			}
			fmt.Fprintf(os.Stderr, "✓ Wrote HTML dashboard to %s\n", dashHTMLPath)
		}
		if dashPNGDir != "" {
			written, err := render.PNGDir(dashPNGDir, res.Payload.Charts)
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "✓ Wrote %d PNG charts to %s\n", len(written), dashPNGDir)
		}

		out, err := utils.PrettyJSON(res)
		if err != nil {
			return err
		}
		return writeOutput(cmd.OutOrStdout(), dashOutputPath, out, "dashboard")
	},
}

// printPrompt shows the insight prompt and its token count without calling a model.
func printPrompt(cmd *cobra.Command, text, name string) error {
	t := parser.Parse(text)
	if len(t.Headers) == 0 {
		return dashboard.ErrNoData
	}
	profiles := analysis.Classify(t, cfg.ClassifyOptions())
	prompt := insights.BuildPrompt(insights.Request{
		FileName: name,
		CSVText:  text,
		Profiles: profiles,
		Charts:   charts.Generate(t, profiles, cfg.ChartOptions()),
	})
	w := cmd.OutOrStdout()
	fmt.Fprintln(w, prompt)
	fmt.Fprintf(w, "\nTokens: ≈%d\n", utils.CountTokens(prompt))
	return nil
}

func init() {
	rootCmd.AddCommand(dashboardCmd)
	dashboardCmd.Flags().BoolVar(&dashNoAI, "no-ai", false, "skip the LLM call and use the built-in summary")
	dashboardCmd.Flags().StringVar(&dashHTMLPath, "html", "", "also write an interactive HTML dashboard to this path")
	dashboardCmd.Flags().StringVar(&dashPNGDir, "png-dir", "", "also write bar/line/area charts as PNG files into this directory")
	dashboardCmd.Flags().BoolVar(&dashPrintPrompt, "print-prompt", false, "print the insight prompt and token estimate, then exit")
	dashboardCmd.Flags().StringVarP(&dashOutputPath, "output", "o", "", "optional path to write the dashboard JSON")
	dashboardCmd.Flags().StringVar(&dashProvider, "provider", "", "LLM provider: gemini|openrouter|ollama (overrides config)")
	dashboardCmd.Flags().StringVar(&dashModel, "model", "", "model name (overrides config)")
	dashboardCmd.Flags().StringVar(&dashOllamaHost, "ollama-host", "", "Ollama base URL (overrides config)")
	dashboardCmd.Flags().IntVar(&dashTimeoutSec, "timeout-sec", 0, "insight call timeout in seconds (overrides config)")
}
