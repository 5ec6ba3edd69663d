package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/KaramelBytes/dataloom-cli/internal/ai"
	"github.com/KaramelBytes/dataloom-cli/internal/dashboard"
	"github.com/KaramelBytes/dataloom-cli/internal/server"
)

var (
	serveAddr     string
	serveNoAI     bool
	serveProvider string
	serveModel    string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the dashboard, clean and analyze functions over HTTP",
	Example: `  dataloom serve
  dataloom serve --addr 127.0.0.1:9000 --provider ollama`,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr := serveAddr
		if addr == "" {
			addr = cfg.ServerAddr
		}
		if addr == "" {
			addr = ":8080"
		}
		if !debug {
			gin.SetMode(gin.ReleaseMode)
		}

		var src dashboard.InsightSource
		if !serveNoAI {
			g, provider, err := newGenerator(cfg, runtimeOptions{ProviderFlag: serveProvider, ModelFlag: serveModel}, logger)
			if err != nil {
				return err
			}
			if provider != ai.ProviderOllama && apiKeyFor(cfg, provider) == "" {
				fmt.Fprintf(os.Stderr, "⚠ Warning: no API key for %s; dashboards will use the built-in summary\n", provider)
			} else {
				src = g
				logger.Info("insights enabled", zap.String("provider", provider), zap.String("model", g.Model))
			}
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		limit := server.WithMaxBodyBytes(int64(cfg.ServerMaxBodyMB) << 20)
		return server.New(newBuilder(cfg, src, logger), logger, limit).Run(ctx, addr)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides config server_addr)")
	serveCmd.Flags().BoolVar(&serveNoAI, "no-ai", false, "never call an LLM; always use the built-in summary")
	serveCmd.Flags().StringVar(&serveProvider, "provider", "", "LLM provider: gemini|openrouter|ollama (overrides config)")
	serveCmd.Flags().StringVar(&serveModel, "model", "", "model name (overrides config)")
}
