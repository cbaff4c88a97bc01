// Package config provides application-wide configuration.
// All fields have safe defaults so the binary runs locally without any setup.
//
// Sources, lowest to highest precedence:
//  1. built-in defaults
//  2. optional YAML file named by CONFIG_FILE
//  3. a .env file in the working directory (never overrides the real environment)
//  4. process environment
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds runtime configuration for boatsearch.
type Config struct {
	LLM     LLM     `yaml:"llm"`
	Dataset Dataset `yaml:"dataset"`
	HTTP    HTTP    `yaml:"http"`
	Auth    Auth    `yaml:"auth"`
	Log     Log     `yaml:"log"`
}

// LLM configures the completion client. Not user-controlled per request.
type LLM struct {
	Provider      string        `yaml:"provider"`        // LLM_PROVIDER: "openai" | "ollama"
	APIKey        string        `yaml:"api_key"`         // OPENAI_API_KEY
	URL           string        `yaml:"url"`             // OPENAI_URL
	OllamaBaseURL string        `yaml:"ollama_base_url"` // OLLAMA_BASE_URL
	Model         string        `yaml:"model"`           // LLM_MODEL
	MaxTokens     int           `yaml:"max_tokens"`      // LLM_MAX_TOKENS
	Temperature   float64       `yaml:"temperature"`     // LLM_TEMPERATURE
	Timeout       time.Duration `yaml:"timeout"`         // LLM_TIMEOUT
}

// Dataset locates the source CSV and the persisted store.
type Dataset struct {
	CSVPath    string `yaml:"csv_path"`    // CSV_PATH
	SQLitePath string `yaml:"sqlite_path"` // SQLITE_PATH
	Backend    string `yaml:"backend"`     // DATASET_BACKEND: "sqlite" | "memory"
}

// HTTP configures the listener.
type HTTP struct {
	Host string `yaml:"host"` // HTTP_HOST
	Port int    `yaml:"port"` // HTTP_PORT
}

// Auth enables bearer-token protection of /api/v1 when JWTSecret is set.
type Auth struct {
	JWTSecret        string `yaml:"jwt_secret"`         // JWT_SECRET
	JWTExpiryHours   int    `yaml:"jwt_expiry_hours"`   // JWT_EXPIRY
	ClientID         string `yaml:"client_id"`          // AUTH_CLIENT_ID
	ClientSecretHash string `yaml:"client_secret_hash"` // AUTH_CLIENT_SECRET_HASH (bcrypt)
}

// Enabled reports whether /api/v1 requires a token.
func (a Auth) Enabled() bool { return a.JWTSecret != "" }

// Log configures the slog handler.
type Log struct {
	Level  string `yaml:"level"`  // LOG_LEVEL: debug | info | warn | error
	Format string `yaml:"format"` // LOG_FORMAT: text | json
}

const (
	envKeyConfigFile     = "CONFIG_FILE"
	envKeyLLMProvider    = "LLM_PROVIDER"
	envKeyOpenAIKey      = "OPENAI_API_KEY"
	envKeyOpenAIURL      = "OPENAI_URL"
	envKeyOllamaBaseURL  = "OLLAMA_BASE_URL"
	envKeyModel          = "LLM_MODEL"
	envKeyMaxTokens      = "LLM_MAX_TOKENS"
	envKeyTemperature    = "LLM_TEMPERATURE"
	envKeyTimeout        = "LLM_TIMEOUT"
	envKeyCSVPath        = "CSV_PATH"
	envKeySQLitePath     = "SQLITE_PATH"
	envKeyBackend        = "DATASET_BACKEND"
	envKeyHTTPHost       = "HTTP_HOST"
	envKeyHTTPPort       = "HTTP_PORT"
	envKeyJWTSecret      = "JWT_SECRET"
	envKeyJWTExpiry      = "JWT_EXPIRY"
	envKeyClientID       = "AUTH_CLIENT_ID"
	envKeyClientSecret   = "AUTH_CLIENT_SECRET_HASH"
	envKeyLogLevel       = "LOG_LEVEL"
	envKeyLogFormat      = "LOG_FORMAT"
	defaultDotEnvPath    = ".env"
	defaultProvider      = "openai"
	defaultOpenAIURL     = "https://api.openai.com/v1/chat/completions"
	defaultOllamaBaseURL = "http://localhost:11434"
)

// Backend names accepted by DATASET_BACKEND.
const (
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// ErrInvalid wraps every validation failure returned by Load.
var ErrInvalid = errors.New("invalid configuration")

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		LLM: LLM{
			Provider:      defaultProvider,
			URL:           defaultOpenAIURL,
			OllamaBaseURL: defaultOllamaBaseURL,
			Model:         "gpt-4o",
			MaxTokens:     1000,
			Temperature:   0.4,
			Timeout:       60 * time.Second,
		},
		Dataset: Dataset{
			CSVPath:    "Data/data.csv",
			SQLitePath: "Data/Data.db",
			Backend:    BackendSQLite,
		},
		HTTP: HTTP{Host: "0.0.0.0", Port: 8080},
		Auth: Auth{JWTExpiryHours: 24},
		Log:  Log{Level: "info", Format: "text"},
	}
}

// Load reads configuration from all sources and validates it.
func Load() (Config, error) {
	// .env is optional; a missing file is the common case.
	if err := godotenv.Load(defaultDotEnvPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("config: load %s: %w", defaultDotEnvPath, err)
	}

	cfg := Defaults()
	if path := os.Getenv(envKeyConfigFile); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// loadFile overlays a YAML file onto cfg. Keys absent from the file keep
// their current values.
func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	cfg.LLM.Provider = envOr(envKeyLLMProvider, cfg.LLM.Provider)
	cfg.LLM.APIKey = envOr(envKeyOpenAIKey, cfg.LLM.APIKey)
	cfg.LLM.URL = envOr(envKeyOpenAIURL, cfg.LLM.URL)
	cfg.LLM.OllamaBaseURL = envOr(envKeyOllamaBaseURL, cfg.LLM.OllamaBaseURL)
	cfg.LLM.Model = envOr(envKeyModel, cfg.LLM.Model)
	cfg.Dataset.CSVPath = envOr(envKeyCSVPath, cfg.Dataset.CSVPath)
	cfg.Dataset.SQLitePath = envOr(envKeySQLitePath, cfg.Dataset.SQLitePath)
	cfg.Dataset.Backend = envOr(envKeyBackend, cfg.Dataset.Backend)
	cfg.HTTP.Host = envOr(envKeyHTTPHost, cfg.HTTP.Host)
	cfg.Auth.JWTSecret = envOr(envKeyJWTSecret, cfg.Auth.JWTSecret)
	cfg.Auth.ClientID = envOr(envKeyClientID, cfg.Auth.ClientID)
	cfg.Auth.ClientSecretHash = envOr(envKeyClientSecret, cfg.Auth.ClientSecretHash)
	cfg.Log.Level = envOr(envKeyLogLevel, cfg.Log.Level)
	cfg.Log.Format = envOr(envKeyLogFormat, cfg.Log.Format)

	var err error
	if cfg.LLM.MaxTokens, err = envInt(envKeyMaxTokens, cfg.LLM.MaxTokens); err != nil {
		return err
	}
	if cfg.LLM.Temperature, err = envFloat(envKeyTemperature, cfg.LLM.Temperature); err != nil {
		return err
	}
	if cfg.LLM.Timeout, err = envDuration(envKeyTimeout, cfg.LLM.Timeout); err != nil {
		return err
	}
	if cfg.HTTP.Port, err = envInt(envKeyHTTPPort, cfg.HTTP.Port); err != nil {
		return err
	}
	if cfg.Auth.JWTExpiryHours, err = envInt(envKeyJWTExpiry, cfg.Auth.JWTExpiryHours); err != nil {
		return err
	}
	return nil
}

// Validate checks value ranges and enumerations.
func (c Config) Validate() error {
	switch {
	case c.LLM.Provider != "openai" && c.LLM.Provider != "ollama":
		return fmt.Errorf("%w: %s=%q (want openai or ollama)", ErrInvalid, envKeyLLMProvider, c.LLM.Provider)
	case c.LLM.MaxTokens <= 0:
		return fmt.Errorf("%w: %s must be positive", ErrInvalid, envKeyMaxTokens)
	case c.LLM.Temperature < 0 || c.LLM.Temperature > 2:
		return fmt.Errorf("%w: %s must be in [0, 2]", ErrInvalid, envKeyTemperature)
	case c.LLM.Timeout < 0:
		return fmt.Errorf("%w: %s must not be negative", ErrInvalid, envKeyTimeout)
	case c.Dataset.Backend != BackendSQLite && c.Dataset.Backend != BackendMemory:
		return fmt.Errorf("%w: %s=%q (want sqlite or memory)", ErrInvalid, envKeyBackend, c.Dataset.Backend)
	case c.HTTP.Port <= 0 || c.HTTP.Port > 65535:
		return fmt.Errorf("%w: %s out of range", ErrInvalid, envKeyHTTPPort)
	case c.Auth.JWTExpiryHours <= 0:
		return fmt.Errorf("%w: %s must be positive", ErrInvalid, envKeyJWTExpiry)
	}
	return nil
}

// envOr returns the value of the environment variable key, or fallback if not set.
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q is not an integer", ErrInvalid, key, v)
	}
	return n, nil
}

func envFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q is not a number", ErrInvalid, key, v)
	}
	return f, nil
}

// envDuration accepts Go durations ("90s") or bare seconds ("90").
func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q is not a duration", ErrInvalid, key, v)
	}
	return d, nil
}
