package cmd

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"

	"github.com/omargawdat/pii-shield/internal/pii"
	"github.com/omargawdat/pii-shield/internal/pipeline"
)

var (
	detectText      string
	detectLLM       bool
	detectModel     string
	detectThreshold float64
	detectJSON      bool
)

var detectCmd = &cobra.Command{
	Use:   "detect [file|-]",
	Short: "Detect PII in text without modifying it",
	Long: `Runs every enabled detector over the input and prints the matches.
With --llm, matches below the threshold are re-scored by the configured model;
rejected matches are listed with confidence 0.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDetect,
}

func init() {
	detectCmd.Flags().StringVar(&detectText, "text", "", "text to scan instead of a file or stdin")
	detectCmd.Flags().BoolVar(&detectLLM, "llm", false, "validate low-confidence matches with the LLM")
	detectCmd.Flags().StringVar(&detectModel, "model", "", "LLM model override (haiku, sonnet, gpt-4o-mini, ollama/<model>)")
	detectCmd.Flags().Float64Var(&detectThreshold, "threshold", -1, "LLM review threshold (default from config)")
	detectCmd.Flags().BoolVar(&detectJSON, "json", false, "print JSON")
	rootCmd.AddCommand(detectCmd)
}

type detectOutput struct {
	ID               string           `json:"id"`
	Matches          []pii.Match      `json:"matches"`
	Summary          pipeline.Summary `json:"summary"`
	ProcessingTimeMS float64          `json:"processing_time_ms"`
}

func runDetect(cmd *cobra.Command, args []string) error {
	ctx, span := tracer.Start(cmd.Context(), "detect")
	defer span.End()

	text, err := readInput(cmd.InOrStdin(), detectText, args)
	if err != nil {
		return err
	}
	c, err := loadComponents()
	if err != nil {
		return err
	}

	threshold := c.cfg.LLMThreshold
	if detectThreshold >= 0 {
		if detectThreshold > 1 {
			return fmt.Errorf("--threshold must be between 0.0 and 1.0")
		}
		threshold = detectThreshold
	}

	proc := c.processor
	if detectLLM {
		proc = proc.With(pipeline.WithValidator(c.validator.WithModelOverride(detectModel), threshold))
	}
	report := proc.Process(ctx, text)
	span.SetAttributes(attribute.Int("piishield.matches", len(report.Matches)))

	log.Debug().Str("report_id", report.ID).Int("matches", len(report.Matches)).
		Bool("llm", detectLLM).Msg("detect_completed")

	out := cmd.OutOrStdout()
	if detectJSON {
		return writeJSONOutput(out, detectOutput{
			ID:               report.ID,
			Matches:          charMatches(report),
			Summary:          report.Summary(),
			ProcessingTimeMS: report.ProcessingTimeMS(),
		})
	}
	renderReport(out, report, threshold)
	return nil
}
