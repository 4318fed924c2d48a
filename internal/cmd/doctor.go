package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/omargawdat/pii-shield/internal/config"
	"github.com/omargawdat/pii-shield/internal/doctor"
)

var (
	doctorJSON    bool
	doctorOffline bool
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run preflight checks (detectors, LLM model and key, auth, NER service)",
	Long: `Verifies the configuration loads, the LLM model resolves and has credentials,
API keys and hashing salt are set, and the Presidio analyzer and Ollama are reachable
when configured. Exits non-zero when any check fails.`,
	RunE: runDoctor,
}

func init() {
	doctorCmd.Flags().BoolVar(&doctorJSON, "json", false, "print the report as JSON")
	doctorCmd.Flags().BoolVar(&doctorOffline, "offline", false, "skip upstream connectivity checks")
	rootCmd.AddCommand(doctorCmd)
}

func runDoctor(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
	defer cancel()
	ctx, span := tracer.Start(ctx, "doctor")
	defer span.End()

	out := cmd.OutOrStdout()
	cfg, err := config.Load()
	if err != nil {
		if doctorJSON {
			_ = writeJSONOutput(out, &doctor.Report{
				Status:  doctor.StatusFail,
				Checks:  []doctor.CheckResult{{Name: "config_load", Category: "config", Status: doctor.StatusFail, Message: err.Error()}},
				Summary: doctor.Summary{Fail: 1},
			})
		}
		return fmt.Errorf("loading config: %w", err)
	}

	report := doctor.Run(ctx, cfg, doctor.Options{SkipUpstream: doctorOffline})
	if doctorJSON {
		if err := writeJSONOutput(out, report); err != nil {
			return err
		}
	} else {
		for _, c := range report.Checks {
			fmt.Fprintf(out, "%s %-12s %s\n", checkMark(c.Status), c.Name+":", c.Message)
			if c.Fix != "" && c.Status != doctor.StatusPass {
				fmt.Fprintf(out, "    fix: %s\n", c.Fix)
			}
		}
		fmt.Fprintf(out, "\n%d passed, %d warnings, %d failed\n",
			report.Summary.Pass, report.Summary.Warn, report.Summary.Fail)
	}
	if report.Status == doctor.StatusFail {
		return fmt.Errorf("preflight checks failed")
	}
	return nil
}

func checkMark(status string) string {
	switch status {
	case doctor.StatusPass:
		return "✓"
	case doctor.StatusWarn:
		return "⚠"
	default:
		return "✗"
	}
}
