package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/omargawdat/pii-shield/internal/mcp"
	"github.com/omargawdat/pii-shield/internal/server"
)

var (
	servePort        int
	serveCORSOrigins []string
	serveMCP         bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API (and MCP endpoint at /mcp)",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "HTTP server port (default from config, 8000)")
	serveCmd.Flags().StringSliceVar(&serveCORSOrigins, "cors-origin", nil, "allowed CORS origin (repeatable, * for any)")
	serveCmd.Flags().BoolVar(&serveMCP, "mcp", true, "mount the MCP streamable HTTP endpoint at /mcp")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c, err := loadComponents()
	if err != nil {
		return err
	}
	cfg := c.cfg
	port := cfg.Port
	if servePort > 0 {
		port = servePort
	}

	if !cfg.AuthEnabled() {
		log.Warn().Msg("PIISHIELD_API_KEYS not set, API authentication disabled")
	}

	handler := buildHTTPHandler(c, serveCORSOrigins, serveMCP)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      90 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Info().
		Int("port", port).
		Str("llm_model", cfg.LLMModel).
		Float64("llm_threshold", cfg.LLMThreshold).
		Bool("ner", cfg.NEREnabled()).
		Bool("auth", cfg.AuthEnabled()).
		Bool("mcp", serveMCP).
		Msg("piishield_serve_started")

	errCh := make(chan error, 1)
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown_signal_received")
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Info().Msg("server_stopped")
	return nil
}

// buildHTTPHandler wires the REST API and, optionally, the MCP endpoint.
func buildHTTPHandler(c *components, corsOrigins []string, withMCP bool) http.Handler {
	cfg := c.cfg
	opts := []server.Option{
		server.WithValidator(c.validator, cfg.LLMThreshold),
		server.WithStrategyOptions(cfg.Strategy),
		server.WithAPIKeys(cfg.APIKeys),
		server.WithRateLimiter(server.NewRateLimiter(cfg.RateLimitRPM, cfg.RateLimitRPM)),
		server.WithCORSOrigins(corsOrigins),
		server.WithVersion(resolvedVersion()),
		server.WithMaxBodyBytes(cfg.MaxBodyBytes),
	}
	if withMCP {
		tools := mcp.NewTools(c.processor,
			mcp.WithValidator(c.validator, cfg.LLMThreshold),
			mcp.WithStrategyOptions(cfg.Strategy),
		)
		opts = append(opts, server.WithMCPHandler(mcp.HTTPHandler(mcp.NewServer(resolvedVersion(), tools))))
	}
	return server.NewServer(c.processor, opts...).Routes()
}
