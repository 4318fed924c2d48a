package cmd

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/omargawdat/pii-shield/internal/pii"
	"github.com/omargawdat/pii-shield/internal/pipeline"
	"github.com/omargawdat/pii-shield/internal/strategy"
)

var (
	anonymizeText          string
	anonymizeStrategy      string
	anonymizeLLM           bool
	anonymizeMinConfidence float64
	anonymizeJSON          bool
)

var anonymizeCmd = &cobra.Command{
	Use:     "anonymize [file|-]",
	Aliases: []string{"process"},
	Short:   "Detect PII and rewrite it with a strategy",
	Long: `Detects PII in the input and rewrites every accepted match.

Strategies:
  redaction  replace with a type placeholder, e.g. [EMAIL]
  masking    keep the first and last characters, e.g. max***.de
  hashing    salted, truncated digest (PIISHIELD_HASH_SALT)`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAnonymize,
}

func init() {
	anonymizeCmd.Flags().StringVar(&anonymizeText, "text", "", "text to process instead of a file or stdin")
	anonymizeCmd.Flags().StringVarP(&anonymizeStrategy, "strategy", "s", strategy.NameRedaction, "redaction, masking or hashing")
	anonymizeCmd.Flags().BoolVar(&anonymizeLLM, "llm", false, "validate low-confidence matches with the LLM before rewriting")
	anonymizeCmd.Flags().Float64Var(&anonymizeMinConfidence, "min-confidence", 0, "drop matches below this confidence")
	anonymizeCmd.Flags().BoolVar(&anonymizeJSON, "json", false, "print the full report as JSON")
	rootCmd.AddCommand(anonymizeCmd)
}

type anonymizeOutput struct {
	ID               string           `json:"id"`
	OriginalText     string           `json:"original_text"`
	ProcessedText    string           `json:"processed_text"`
	Strategy         string           `json:"strategy"`
	Matches          []pii.Match      `json:"matches"`
	Summary          pipeline.Summary `json:"summary"`
	ProcessingTimeMS float64          `json:"processing_time_ms"`
}

func runAnonymize(cmd *cobra.Command, args []string) error {
	ctx, span := tracer.Start(cmd.Context(), "anonymize")
	defer span.End()

	if anonymizeMinConfidence < 0 || anonymizeMinConfidence > 1 {
		return fmt.Errorf("--min-confidence must be between 0.0 and 1.0")
	}
	text, err := readInput(cmd.InOrStdin(), anonymizeText, args)
	if err != nil {
		return err
	}
	c, err := loadComponents()
	if err != nil {
		return err
	}
	strat, err := strategy.New(anonymizeStrategy, c.cfg.Strategy)
	if err != nil {
		return fmt.Errorf("%w (available: redaction, masking, hashing)", err)
	}

	opts := []pipeline.Option{
		pipeline.WithStrategy(strat),
		pipeline.WithMinConfidence(anonymizeMinConfidence),
	}
	if anonymizeLLM {
		opts = append(opts, pipeline.WithValidator(c.validator, c.cfg.LLMThreshold))
	}
	report := c.processor.With(opts...).Process(ctx, text)

	log.Debug().Str("report_id", report.ID).Str("strategy", strat.Name()).
		Int("pii_count", report.PIICount()).Msg("anonymize_completed")

	out := cmd.OutOrStdout()
	if anonymizeJSON {
		return writeJSONOutput(out, anonymizeOutput{
			ID:               report.ID,
			OriginalText:     report.OriginalText,
			ProcessedText:    report.ProcessedText,
			Strategy:         report.Strategy,
			Matches:          charMatches(report),
			Summary:          report.Summary(),
			ProcessingTimeMS: report.ProcessingTimeMS(),
		})
	}
	fmt.Fprintln(out, report.ProcessedText)
	return nil
}
