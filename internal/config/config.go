// Package config holds process-level configuration for a PII Shield
// installation.
//
// Values come from Viper, which merges PIISHIELD_* environment variables,
// an optional piishield.config.yaml and the defaults registered here.
// Provider API keys fall back to the vendor variables ANTHROPIC_API_KEY and
// OPENAI_API_KEY so existing shells work without renaming.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/omargawdat/pii-shield/internal/detector"
	"github.com/omargawdat/pii-shield/internal/llm"
	"github.com/omargawdat/pii-shield/internal/strategy"
	"github.com/omargawdat/pii-shield/internal/validation"
)

// EnvPrefix is prepended to every key when read from the environment.
const EnvPrefix = "PIISHIELD"

// Viper keys. Each maps to an env var with the PIISHIELD_ prefix
// (e.g. "llm_model" → PIISHIELD_LLM_MODEL) and to a YAML field in
// piishield.config.yaml.
const (
	KeyPort              = "port"
	KeyAPIKeys           = "api_keys"
	KeyLLMModel          = "llm_model"
	KeyLLMThreshold      = "llm_threshold"
	KeyLLMBatchSize      = "llm_batch_size"
	KeyLLMMaxConcurrency = "llm_max_concurrency"
	KeyAnthropicAPIKey   = "anthropic_api_key"
	KeyAnthropicBaseURL  = "anthropic_base_url"
	KeyOpenAIAPIKey      = "openai_api_key"
	KeyOpenAIBaseURL     = "openai_base_url"
	KeyOllamaBaseURL     = "ollama_base_url"
	KeyNERURL            = "ner_url"
	KeyNERLanguage       = "ner_language"
	KeyPlaceholder       = "placeholder"
	KeyHashSalt          = "hash_salt"
	KeyHashLength        = "hash_length"
	KeyHashAlgorithm     = "hash_algorithm"
	KeyMaskChar          = "mask_char"
	KeyVisibleChars      = "visible_chars"
	KeyNormalize         = "normalize"
	KeyDetectorsEnabled  = "detectors_enabled"
	KeyDetectorsDisabled = "detectors_disabled"
	KeyRateLimitRPM      = "rate_limit_rpm"
	KeyMaxBodyBytes      = "max_body_bytes"
)

// Defaults.
const (
	DefaultPort         = 8000
	DefaultRateLimitRPM = 600
	DefaultMaxBodyBytes = 1 << 20
)

// ErrInvalid wraps every validation failure returned by Load.
var ErrInvalid = errors.New("invalid configuration")

// Config is the resolved configuration.
type Config struct {
	Port    int
	APIKeys []string // empty disables API authentication

	LLMModel          string
	LLMThreshold      float64
	LLMBatchSize      int
	LLMMaxConcurrency int
	Credentials       llm.Credentials

	NERURL      string // empty disables the NER detector
	NERLanguage string

	Strategy strategy.Options

	Normalize         bool
	DetectorsEnabled  []string
	DetectorsDisabled []string

	RateLimitRPM int // 0 disables rate limiting
	MaxBodyBytes int64
}

func init() {
	viper.SetEnvPrefix(EnvPrefix)
	viper.AutomaticEnv()
	SetDefaults(viper.GetViper())
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyPort, DefaultPort)
	v.SetDefault(KeyLLMModel, llm.DefaultModel)
	v.SetDefault(KeyLLMThreshold, validation.DefaultThreshold)
	v.SetDefault(KeyLLMBatchSize, validation.DefaultBatchSize)
	v.SetDefault(KeyLLMMaxConcurrency, validation.DefaultMaxConcurrency)
	v.SetDefault(KeyOllamaBaseURL, llm.DefaultOllamaBaseURL)
	v.SetDefault(KeyNERLanguage, detector.DefaultLanguage)
	v.SetDefault(KeyPlaceholder, strategy.DefaultPlaceholder)
	v.SetDefault(KeyHashLength, strategy.DefaultHashLength)
	v.SetDefault(KeyHashAlgorithm, strategy.AlgorithmSHA256)
	v.SetDefault(KeyMaskChar, strategy.DefaultMaskChar)
	v.SetDefault(KeyVisibleChars, strategy.DefaultVisibleChars)
	v.SetDefault(KeyRateLimitRPM, DefaultRateLimitRPM)
	v.SetDefault(KeyMaxBodyBytes, DefaultMaxBodyBytes)
}

// Load reads configuration from the global Viper instance and validates it.
func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom reads configuration from v and validates it.
func LoadFrom(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Port:              v.GetInt(KeyPort),
		APIKeys:           stringList(v.Get(KeyAPIKeys)),
		LLMModel:          strings.TrimSpace(v.GetString(KeyLLMModel)),
		LLMThreshold:      v.GetFloat64(KeyLLMThreshold),
		LLMBatchSize:      v.GetInt(KeyLLMBatchSize),
		LLMMaxConcurrency: v.GetInt(KeyLLMMaxConcurrency),
		Credentials: llm.Credentials{
			AnthropicAPIKey:  firstNonEmpty(v.GetString(KeyAnthropicAPIKey), os.Getenv("ANTHROPIC_API_KEY")),
			AnthropicBaseURL: v.GetString(KeyAnthropicBaseURL),
			OpenAIAPIKey:     firstNonEmpty(v.GetString(KeyOpenAIAPIKey), os.Getenv("OPENAI_API_KEY")),
			OpenAIBaseURL:    v.GetString(KeyOpenAIBaseURL),
			OllamaBaseURL:    v.GetString(KeyOllamaBaseURL),
		},
		NERURL:      strings.TrimSpace(v.GetString(KeyNERURL)),
		NERLanguage: v.GetString(KeyNERLanguage),
		Strategy: strategy.Options{
			Placeholder:   v.GetString(KeyPlaceholder),
			MaskChar:      v.GetString(KeyMaskChar),
			VisibleChars:  v.GetInt(KeyVisibleChars),
			Salt:          v.GetString(KeyHashSalt),
			HashLength:    v.GetInt(KeyHashLength),
			HashAlgorithm: v.GetString(KeyHashAlgorithm),
		},
		Normalize:         v.GetBool(KeyNormalize),
		DetectorsEnabled:  stringList(v.Get(KeyDetectorsEnabled)),
		DetectorsDisabled: stringList(v.Get(KeyDetectorsDisabled)),
		RateLimitRPM:      v.GetInt(KeyRateLimitRPM),
		MaxBodyBytes:      v.GetInt64(KeyMaxBodyBytes),
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return cfg, nil
}

// AuthEnabled reports whether the HTTP API requires an API key.
func (c *Config) AuthEnabled() bool {
	return len(c.APIKeys) > 0
}

// NEREnabled reports whether a Presidio analyzer is configured.
func (c *Config) NEREnabled() bool {
	return c.NERURL != ""
}

func (c *Config) validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535 (got %d)", c.Port)
	}
	if c.LLMThreshold < 0 || c.LLMThreshold > 1 {
		return fmt.Errorf("llm_threshold must be between 0.0 and 1.0 (got %v)", c.LLMThreshold)
	}
	if c.LLMBatchSize <= 0 {
		return fmt.Errorf("llm_batch_size must be positive (got %d)", c.LLMBatchSize)
	}
	if c.LLMMaxConcurrency <= 0 {
		return fmt.Errorf("llm_max_concurrency must be positive (got %d)", c.LLMMaxConcurrency)
	}
	if c.LLMModel != "" {
		if _, err := llm.ResolveModel(c.LLMModel); err != nil {
			return fmt.Errorf("llm_model: %w", err)
		}
	}
	if !strings.Contains(c.Strategy.Placeholder, "{type}") {
		return fmt.Errorf("placeholder must contain {type} (got %q)", c.Strategy.Placeholder)
	}
	if c.Strategy.VisibleChars < 0 {
		return fmt.Errorf("visible_chars must not be negative (got %d)", c.Strategy.VisibleChars)
	}
	if c.Strategy.HashLength < 1 || c.Strategy.HashLength > 64 {
		return fmt.Errorf("hash_length must be between 1 and 64 (got %d)", c.Strategy.HashLength)
	}
	if _, err := strategy.NewHashing("", c.Strategy.HashLength, c.Strategy.HashAlgorithm); err != nil {
		return fmt.Errorf("hash_algorithm: %w", err)
	}
	if _, err := detector.Default(
		detector.WithEnabled(c.DetectorsEnabled...),
		detector.WithDisabled(c.DetectorsDisabled...),
	); err != nil {
		return fmt.Errorf("detectors: %w", err)
	}
	if c.RateLimitRPM < 0 {
		return fmt.Errorf("rate_limit_rpm must not be negative (got %d)", c.RateLimitRPM)
	}
	if c.MaxBodyBytes <= 0 {
		return fmt.Errorf("max_body_bytes must be positive (got %d)", c.MaxBodyBytes)
	}
	return nil
}

// stringList accepts a YAML list or a comma separated env value.
func stringList(raw any) []string {
	var parts []string
	switch v := raw.(type) {
	case nil:
		return nil
	case string:
		parts = strings.Split(v, ",")
	case []string:
		parts = v
	case []any:
		for _, p := range v {
			parts = append(parts, fmt.Sprint(p))
		}
	default:
		parts = []string{fmt.Sprint(v)}
	}
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
