package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/omargawdat/pii-shield/internal/config"
)

const redacted = "***"

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect PII Shield configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the resolved configuration as YAML (secrets redacted)",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, span := tracer.Start(cmd.Context(), "config.show")
		defer span.End()

		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		out := cmd.OutOrStdout()
		if f := viper.ConfigFileUsed(); f != "" {
			fmt.Fprintf(out, "# config file: %s\n", f)
		}
		data, err := yaml.Marshal(newConfigView(cfg))
		if err != nil {
			return fmt.Errorf("encoding config: %w", err)
		}
		_, err = out.Write(data)
		return err
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	rootCmd.AddCommand(configCmd)
}

// configView mirrors the viper keys so the output can be pasted into
// piishield.config.yaml.
type configView struct {
	Port              int      `yaml:"port"`
	APIKeys           []string `yaml:"api_keys"`
	LLMModel          string   `yaml:"llm_model"`
	LLMThreshold      float64  `yaml:"llm_threshold"`
	LLMBatchSize      int      `yaml:"llm_batch_size"`
	LLMMaxConcurrency int      `yaml:"llm_max_concurrency"`
	AnthropicAPIKey   string   `yaml:"anthropic_api_key,omitempty"`
	AnthropicBaseURL  string   `yaml:"anthropic_base_url,omitempty"`
	OpenAIAPIKey      string   `yaml:"openai_api_key,omitempty"`
	OpenAIBaseURL     string   `yaml:"openai_base_url,omitempty"`
	OllamaBaseURL     string   `yaml:"ollama_base_url"`
	NERURL            string   `yaml:"ner_url,omitempty"`
	NERLanguage       string   `yaml:"ner_language"`
	Placeholder       string   `yaml:"placeholder"`
	MaskChar          string   `yaml:"mask_char"`
	VisibleChars      int      `yaml:"visible_chars"`
	HashSalt          string   `yaml:"hash_salt,omitempty"`
	HashLength        int      `yaml:"hash_length"`
	HashAlgorithm     string   `yaml:"hash_algorithm"`
	Normalize         bool     `yaml:"normalize"`
	DetectorsEnabled  []string `yaml:"detectors_enabled,omitempty"`
	DetectorsDisabled []string `yaml:"detectors_disabled,omitempty"`
	RateLimitRPM      int      `yaml:"rate_limit_rpm"`
	MaxBodyBytes      int64    `yaml:"max_body_bytes"`
}

func newConfigView(cfg *config.Config) configView {
	keys := make([]string, len(cfg.APIKeys))
	for i := range cfg.APIKeys {
		keys[i] = redacted
	}
	return configView{
		Port:              cfg.Port,
		APIKeys:           keys,
		LLMModel:          cfg.LLMModel,
		LLMThreshold:      cfg.LLMThreshold,
		LLMBatchSize:      cfg.LLMBatchSize,
		LLMMaxConcurrency: cfg.LLMMaxConcurrency,
		AnthropicAPIKey:   redact(cfg.Credentials.AnthropicAPIKey),
		AnthropicBaseURL:  cfg.Credentials.AnthropicBaseURL,
		OpenAIAPIKey:      redact(cfg.Credentials.OpenAIAPIKey),
		OpenAIBaseURL:     cfg.Credentials.OpenAIBaseURL,
		OllamaBaseURL:     cfg.Credentials.OllamaBaseURL,
		NERURL:            cfg.NERURL,
		NERLanguage:       cfg.NERLanguage,
		Placeholder:       cfg.Strategy.Placeholder,
		MaskChar:          cfg.Strategy.MaskChar,
		VisibleChars:      cfg.Strategy.VisibleChars,
		HashSalt:          redact(cfg.Strategy.Salt),
		HashLength:        cfg.Strategy.HashLength,
		HashAlgorithm:     cfg.Strategy.HashAlgorithm,
		Normalize:         cfg.Normalize,
		DetectorsEnabled:  cfg.DetectorsEnabled,
		DetectorsDisabled: cfg.DetectorsDisabled,
		RateLimitRPM:      cfg.RateLimitRPM,
		MaxBodyBytes:      cfg.MaxBodyBytes,
	}
}

func redact(secret string) string {
	if secret == "" {
		return ""
	}
	return redacted
}
