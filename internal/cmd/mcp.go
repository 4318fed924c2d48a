package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/omargawdat/pii-shield/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the detect_pii and anonymize_text tools over MCP stdio",
	Long: `Runs an MCP server on stdin/stdout for agent clients (Claude Desktop,
IDE assistants). Logs go to stderr.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		c, err := loadComponents()
		if err != nil {
			return err
		}
		tools := mcp.NewTools(c.processor,
			mcp.WithValidator(c.validator, c.cfg.LLMThreshold),
			mcp.WithStrategyOptions(c.cfg.Strategy),
		)
		log.Info().Str("llm_model", c.cfg.LLMModel).Msg("mcp_stdio_started")
		return mcp.ServeStdio(ctx, mcp.NewServer(resolvedVersion(), tools))
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
