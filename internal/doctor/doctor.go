// Package doctor provides preflight checks for a PII Shield installation.
// Used by `piishield doctor`.
package doctor

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/omargawdat/pii-shield/internal/config"
	"github.com/omargawdat/pii-shield/internal/detector"
	"github.com/omargawdat/pii-shield/internal/llm"
)

// Check statuses.
const (
	StatusPass = "pass"
	StatusWarn = "warn"
	StatusFail = "fail"
)

// CheckResult is a single doctor check outcome.
type CheckResult struct {
	Name     string `json:"name"`
	Category string `json:"category"`
	Status   string `json:"status"`
	Message  string `json:"message"`
	Fix      string `json:"fix,omitempty"`
}

// Summary tallies pass/warn/fail counts.
type Summary struct {
	Pass int `json:"pass"`
	Warn int `json:"warn"`
	Fail int `json:"fail"`
}

// Report is the complete doctor output.
type Report struct {
	Status  string        `json:"status"` // worst of all checks
	Checks  []CheckResult `json:"checks"`
	Summary Summary       `json:"summary"`
}

// Options controls which checks run.
type Options struct {
	SkipUpstream bool         // skip NER / Ollama connectivity checks (CI, offline)
	HTTPClient   *http.Client // nil uses a client with a 5s timeout
}

// Run executes all checks against cfg and returns a report.
func Run(ctx context.Context, cfg *config.Config, opts Options) *Report {
	report := &Report{}
	report.Checks = append(report.Checks, checkDetectors(cfg))
	report.Checks = append(report.Checks, checkLLM(cfg))
	report.Checks = append(report.Checks, checkAuth(cfg))
	report.Checks = append(report.Checks, checkSalt(cfg))
	if !opts.SkipUpstream {
		client := opts.HTTPClient
		if client == nil {
			client = &http.Client{Timeout: 5 * time.Second}
		}
		report.Checks = append(report.Checks, checkUpstreams(ctx, cfg, client)...)
	}

	for _, c := range report.Checks {
		switch c.Status {
		case StatusPass:
			report.Summary.Pass++
		case StatusWarn:
			report.Summary.Warn++
		case StatusFail:
			report.Summary.Fail++
		}
	}
	report.Status = StatusPass
	if report.Summary.Warn > 0 {
		report.Status = StatusWarn
	}
	if report.Summary.Fail > 0 {
		report.Status = StatusFail
	}
	return report
}

func checkDetectors(cfg *config.Config) CheckResult {
	opts := []detector.Option{
		detector.WithEnabled(cfg.DetectorsEnabled...),
		detector.WithDisabled(cfg.DetectorsDisabled...),
	}
	if cfg.NEREnabled() {
		opts = append(opts, detector.WithRecognizer(detector.NewPresidioClient(cfg.NERURL), cfg.NERLanguage))
	}
	ds, err := detector.Default(opts...)
	if err != nil {
		return CheckResult{
			Name: "detectors", Category: "config", Status: StatusFail,
			Message: err.Error(),
			Fix:     "Valid names: " + strings.Join(detector.Names(), ", "),
		}
	}
	if len(ds) == 0 {
		return CheckResult{
			Name: "detectors", Category: "config", Status: StatusFail,
			Message: "every detector is disabled",
			Fix:     "Remove entries from detectors_disabled",
		}
	}
	names := make([]string, len(ds))
	for i, d := range ds {
		names[i] = d.Name()
	}
	return CheckResult{
		Name: "detectors", Category: "config", Status: StatusPass,
		Message: strings.Join(names, ", "),
	}
}

func checkLLM(cfg *config.Config) CheckResult {
	model, err := llm.ResolveModel(cfg.LLMModel)
	if err != nil {
		return CheckResult{
			Name: "llm_model", Category: "llm", Status: StatusFail,
			Message: err.Error(),
			Fix:     "Use haiku, sonnet, opus, a gpt-* model or ollama/<model>",
		}
	}
	if !llm.ProviderUsesAPIKey(model.Provider) {
		return CheckResult{
			Name: "llm_model", Category: "llm", Status: StatusPass,
			Message: fmt.Sprintf("%s via %s (%s)", model.ID, model.Provider, cfg.Credentials.OllamaBaseURL),
		}
	}
	key := cfg.Credentials.AnthropicAPIKey
	envName := "ANTHROPIC_API_KEY"
	if model.Provider == llm.ProviderOpenAI {
		key = cfg.Credentials.OpenAIAPIKey
		envName = "OPENAI_API_KEY"
	}
	if key == "" {
		return CheckResult{
			Name: "llm_model", Category: "llm", Status: StatusWarn,
			Message: fmt.Sprintf("%s via %s: no API key, low-confidence matches will not be validated", model.ID, model.Provider),
			Fix:     "Set " + envName + " or PIISHIELD_" + envName,
		}
	}
	return CheckResult{
		Name: "llm_model", Category: "llm", Status: StatusPass,
		Message: fmt.Sprintf("%s via %s (key configured)", model.ID, model.Provider),
	}
}

func checkAuth(cfg *config.Config) CheckResult {
	if !cfg.AuthEnabled() {
		return CheckResult{
			Name: "api_keys", Category: "server", Status: StatusWarn,
			Message: "API authentication disabled",
			Fix:     "Set PIISHIELD_API_KEYS for any non-local deployment",
		}
	}
	return CheckResult{
		Name: "api_keys", Category: "server", Status: StatusPass,
		Message: fmt.Sprintf("%d key(s) configured", len(cfg.APIKeys)),
	}
}

func checkSalt(cfg *config.Config) CheckResult {
	if cfg.Strategy.Salt == "" {
		return CheckResult{
			Name: "hash_salt", Category: "strategy", Status: StatusWarn,
			Message: "hashing strategy runs unsalted; short values can be recovered by brute force",
			Fix:     "Set PIISHIELD_HASH_SALT",
		}
	}
	return CheckResult{
		Name: "hash_salt", Category: "strategy", Status: StatusPass,
		Message: fmt.Sprintf("configured (%s, %d chars)", cfg.Strategy.HashAlgorithm, cfg.Strategy.HashLength),
	}
}

func checkUpstreams(ctx context.Context, cfg *config.Config, client *http.Client) []CheckResult {
	var results []CheckResult
	if cfg.NEREnabled() {
		results = append(results, probe(ctx, client, "ner_service", strings.TrimRight(cfg.NERURL, "/")+"/health",
			"Start the Presidio analyzer or unset PIISHIELD_NER_URL"))
	}
	if model, err := llm.ResolveModel(cfg.LLMModel); err == nil && model.Provider == llm.ProviderOllama {
		results = append(results, probe(ctx, client, "ollama", strings.TrimRight(cfg.Credentials.OllamaBaseURL, "/")+"/api/tags",
			"Start Ollama or point PIISHIELD_OLLAMA_BASE_URL at it"))
	}
	return results
}

func probe(ctx context.Context, client *http.Client, name, url, fix string) CheckResult {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return CheckResult{Name: name, Category: "upstream", Status: StatusFail, Message: err.Error(), Fix: fix}
	}
	resp, err := client.Do(req)
	if err != nil {
		return CheckResult{Name: name, Category: "upstream", Status: StatusFail,
			Message: fmt.Sprintf("GET %s failed: %v", url, err), Fix: fix}
	}
	resp.Body.Close()
	if resp.StatusCode >= 400 {
		return CheckResult{Name: name, Category: "upstream", Status: StatusFail,
			Message: fmt.Sprintf("GET %s returned %d", url, resp.StatusCode), Fix: fix}
	}
	return CheckResult{Name: name, Category: "upstream", Status: StatusPass,
		Message: fmt.Sprintf("GET %s: %d", url, resp.StatusCode)}
}
