package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newViper(t *testing.T) *viper.Viper {
	t.Helper()
	t.Setenv("ANTHROPIC_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	SetDefaults(v)
	return v
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := LoadFrom(newViper(t))
	require.NoError(t, err)

	assert.Equal(t, DefaultPort, cfg.Port)
	assert.Equal(t, "haiku", cfg.LLMModel)
	assert.InDelta(t, 0.90, cfg.LLMThreshold, 1e-9)
	assert.Equal(t, 10, cfg.LLMBatchSize)
	assert.Equal(t, 4, cfg.LLMMaxConcurrency)
	assert.Equal(t, "http://localhost:11434", cfg.Credentials.OllamaBaseURL)
	assert.Equal(t, "[{type}]", cfg.Strategy.Placeholder)
	assert.Equal(t, "*", cfg.Strategy.MaskChar)
	assert.Equal(t, 3, cfg.Strategy.VisibleChars)
	assert.Equal(t, 16, cfg.Strategy.HashLength)
	assert.Equal(t, "sha256", cfg.Strategy.HashAlgorithm)
	assert.Equal(t, "de", cfg.NERLanguage)
	assert.False(t, cfg.AuthEnabled())
	assert.False(t, cfg.NEREnabled())
	assert.False(t, cfg.Normalize)
	assert.Equal(t, DefaultRateLimitRPM, cfg.RateLimitRPM)
}

func TestLoad_FromEnv(t *testing.T) {
	v := newViper(t)
	t.Setenv("PIISHIELD_PORT", "9090")
	t.Setenv("PIISHIELD_API_KEYS", "key-one, key-two,")
	t.Setenv("PIISHIELD_LLM_MODEL", "sonnet")
	t.Setenv("PIISHIELD_LLM_THRESHOLD", "0.75")
	t.Setenv("PIISHIELD_DETECTORS_DISABLED", "ip_address")
	t.Setenv("PIISHIELD_NORMALIZE", "true")
	t.Setenv("PIISHIELD_NER_URL", "http://presidio:3000")
	t.Setenv("PIISHIELD_HASH_SALT", "pepper")

	cfg, err := LoadFrom(v)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, []string{"key-one", "key-two"}, cfg.APIKeys)
	assert.True(t, cfg.AuthEnabled())
	assert.Equal(t, "sonnet", cfg.LLMModel)
	assert.InDelta(t, 0.75, cfg.LLMThreshold, 1e-9)
	assert.Equal(t, []string{"ip_address"}, cfg.DetectorsDisabled)
	assert.True(t, cfg.Normalize)
	assert.True(t, cfg.NEREnabled())
	assert.Equal(t, "pepper", cfg.Strategy.Salt)
}

func TestLoad_VendorKeyFallback(t *testing.T) {
	v := newViper(t)
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant-vendor")
	t.Setenv("OPENAI_API_KEY", "sk-openai-vendor")

	cfg, err := LoadFrom(v)
	require.NoError(t, err)
	assert.Equal(t, "sk-ant-vendor", cfg.Credentials.AnthropicAPIKey)
	assert.Equal(t, "sk-openai-vendor", cfg.Credentials.OpenAIAPIKey)

	t.Setenv("PIISHIELD_ANTHROPIC_API_KEY", "sk-ant-own")
	cfg, err = LoadFrom(v)
	require.NoError(t, err)
	assert.Equal(t, "sk-ant-own", cfg.Credentials.AnthropicAPIKey)
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "piishield.config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
port: 7000
api_keys: [alpha, beta]
detectors_enabled:
  - email
  - iban
mask_char: "#"
visible_chars: 2
`), 0o600))

	v := newViper(t)
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	cfg, err := LoadFrom(v)
	require.NoError(t, err)
	assert.Equal(t, 7000, cfg.Port)
	assert.Equal(t, []string{"alpha", "beta"}, cfg.APIKeys)
	assert.Equal(t, []string{"email", "iban"}, cfg.DetectorsEnabled)
	assert.Equal(t, "#", cfg.Strategy.MaskChar)
	assert.Equal(t, 2, cfg.Strategy.VisibleChars)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		value   any
		wantMsg string
	}{
		{"threshold above one", KeyLLMThreshold, 1.5, "llm_threshold"},
		{"negative threshold", KeyLLMThreshold, -0.1, "llm_threshold"},
		{"zero batch size", KeyLLMBatchSize, 0, "llm_batch_size"},
		{"zero concurrency", KeyLLMMaxConcurrency, 0, "llm_max_concurrency"},
		{"port out of range", KeyPort, 70000, "port"},
		{"unknown model", KeyLLMModel, "bert-base", "llm_model"},
		{"placeholder without type", KeyPlaceholder, "[REDACTED]", "placeholder"},
		{"hash too long", KeyHashLength, 65, "hash_length"},
		{"unknown hash algorithm", KeyHashAlgorithm, "md5", "hash_algorithm"},
		{"unknown detector", KeyDetectorsDisabled, "passport", "detectors"},
		{"negative rate limit", KeyRateLimitRPM, -1, "rate_limit_rpm"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := newViper(t)
			v.Set(tt.key, tt.value)
			_, err := LoadFrom(v)
			require.ErrorIs(t, err, ErrInvalid)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestStringList(t *testing.T) {
	assert.Nil(t, stringList(nil))
	assert.Nil(t, stringList(""))
	assert.Equal(t, []string{"a", "b"}, stringList(" a ,b"))
	assert.Equal(t, []string{"a", "b"}, stringList([]string{"a", " ", "b"}))
	assert.Equal(t, []string{"a", "1"}, stringList([]any{"a", 1}))
}
