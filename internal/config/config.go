package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"

	"vocmd/pkg/embed"
)

// Config is the daemon and shard configuration.
type Config struct {
	LogLevel  string          `yaml:"log_level"`
	Socket    string          `yaml:"socket"`
	Resolver  ResolverConfig  `yaml:"resolver"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Aliases   AliasesConfig   `yaml:"aliases"`
	Bus       BusConfig       `yaml:"bus"`
	Executor  ExecutorConfig  `yaml:"executor"`
}

// ResolverConfig tunes intent resolution.
type ResolverConfig struct {
	Threshold float64 `yaml:"threshold"`
	// Timeout bounds every embedding backend call.
	Timeout            time.Duration `yaml:"timeout"`
	ConfirmLiteralApps bool          `yaml:"confirm_literal_apps"`
	SecondaryLanguage  string        `yaml:"secondary_language"`
	// TriggersFile extends the built-in trigger phrases.
	TriggersFile string `yaml:"triggers_file"`
}

// EmbeddingConfig selects the embedding backend.
type EmbeddingConfig struct {
	Backend  string `yaml:"backend"`
	Model    string `yaml:"model"`
	APIKey   string `yaml:"api_key"`
	Endpoint string `yaml:"endpoint"`
	// Proxy is a SOCKS5 address; empty dials directly.
	Proxy string `yaml:"proxy"`
}

type AliasesConfig struct {
	File  string `yaml:"file"`
	Watch bool   `yaml:"watch"`
}

type BusConfig struct {
	URL string `yaml:"url"`
	// Reconnect is the delay in seconds before redialing a closed bus.
	Reconnect int `yaml:"reconnect"`
}

type ExecutorConfig struct {
	TTSBinary string `yaml:"tts_binary"`
	Voice     string `yaml:"voice"`
	SearchURL string `yaml:"search_url"`
}

// envVarPattern matches ${VAR_NAME} patterns.
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		LogLevel: "info",
		Socket:   "/tmp/vocmd.sock",
		Resolver: ResolverConfig{
			Threshold:          0.6,
			Timeout:            10 * time.Second,
			ConfirmLiteralApps: true,
			SecondaryLanguage:  "fa",
		},
		Embedding: EmbeddingConfig{
			Backend: embed.ProviderOpenAI,
		},
		Aliases: AliasesConfig{
			File:  "commands.json",
			Watch: true,
		},
		Bus: BusConfig{
			URL:       "ws://localhost:8092/ws",
			Reconnect: 5,
		},
		Executor: ExecutorConfig{
			TTSBinary: "espeak-ng",
			Voice:     "en",
			SearchURL: "https://www.google.com/search?q=",
		},
	}
}

// Load reads the config file at path over the defaults, then applies
// environment overrides. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}

		data = envVarPattern.ReplaceAllFunc(data, func(match []byte) []byte {
			varName := envVarPattern.FindSubmatch(match)[1]
			return []byte(os.Getenv(string(varName)))
		})

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	cfg.ApplyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides backend, model and bus URL from the environment.
// Provider API keys and the Ollama host only fill empty fields.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("VOCMD_EMBED_BACKEND"); v != "" {
		c.Embedding.Backend = v
	}
	if v := os.Getenv("VC_EMBED_MODEL"); v != "" {
		c.Embedding.Model = v
	}
	if v := os.Getenv("BUS_URL"); v != "" {
		c.Bus.URL = v
	}

	switch c.Embedding.Backend {
	case embed.ProviderOpenAI:
		if c.Embedding.APIKey == "" {
			c.Embedding.APIKey = os.Getenv("OPENAI_API_KEY")
		}
	case embed.ProviderGenAI:
		if c.Embedding.APIKey == "" {
			c.Embedding.APIKey = os.Getenv("GEMINI_API_KEY")
		}
	case embed.ProviderOllama:
		if c.Embedding.Endpoint == "" {
			c.Embedding.Endpoint = os.Getenv("OLLAMA_HOST")
		}
	}
}

func (c *Config) Validate() error {
	var errs []error

	if c.Resolver.Threshold < 0 || c.Resolver.Threshold > 1 {
		errs = append(errs, fmt.Errorf("resolver.threshold %v outside [0, 1]", c.Resolver.Threshold))
	}
	if c.Resolver.Timeout < 0 {
		errs = append(errs, fmt.Errorf("resolver.timeout %v is negative", c.Resolver.Timeout))
	}

	switch c.Embedding.Backend {
	case embed.ProviderOpenAI, embed.ProviderGenAI, embed.ProviderOllama, embed.ProviderNone:
	default:
		errs = append(errs, fmt.Errorf("embedding.backend %q unknown (use openai, genai, ollama or none)", c.Embedding.Backend))
	}

	if c.Socket == "" {
		errs = append(errs, errors.New("socket is empty"))
	}
	if c.Bus.Reconnect < 0 {
		errs = append(errs, fmt.Errorf("bus.reconnect %d is negative", c.Bus.Reconnect))
	}

	return errors.Join(errs...)
}

// EmbedConfig converts the embedding section for embed.NewEngine.
func (c *Config) EmbedConfig() embed.Config {
	return embed.Config{
		Provider: c.Embedding.Backend,
		Model:    c.Embedding.Model,
		APIKey:   c.Embedding.APIKey,
		Endpoint: c.Embedding.Endpoint,
	}
}
