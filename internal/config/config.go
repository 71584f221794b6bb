package config

import (
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	configPathEnv   = "SEARCHSCORER_CONFIG"
	storageDSNEnv   = "SEARCHSCORER_DSN"
	storageDriveEnv = "SEARCHSCORER_DRIVER"
	serverAddrEnv   = "SEARCHSCORER_ADDR"
	logLevelEnv     = "LOG_LEVEL"
	logFormatEnv    = "LOG_FORMAT"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging   LoggingConfig   `yaml:"logging"`
	Storage   StorageConfig   `yaml:"storage"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Transport TransportConfig `yaml:"transport"`
	Gemini    GeminiConfig    `yaml:"gemini"`
	OpenAI    OpenAIConfig    `yaml:"openai"`
	Cache     CacheConfig     `yaml:"cache"`
	Server    ServerConfig    `yaml:"server"`
}

// LoggingConfig selects verbosity and output style.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// StorageConfig describes the key-value database (sqlite, postgres or redis).
type StorageConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// SchedulerConfig tunes discovery, debouncing and chunk pacing.
type SchedulerConfig struct {
	ScanDelay     time.Duration `yaml:"scanDelay"`
	Debounce      time.Duration `yaml:"debounce"`
	ChunkSize     int           `yaml:"chunkSize"`
	ChunkSpacing  time.Duration `yaml:"chunkSpacing"`
	MinTextLength int           `yaml:"minTextLength"`
	TextLimit     int           `yaml:"textLimit"`
}

// TransportConfig bounds retries and per-attempt time.
type TransportConfig struct {
	MaxRetries int           `yaml:"maxRetries"`
	Timeout    time.Duration `yaml:"timeout"`
}

// GeminiConfig points at the Gemini generateContent API.
type GeminiConfig struct {
	BaseURL string `yaml:"baseUrl"`
	Model   string `yaml:"model"`
}

// OpenAIConfig holds fallbacks for OpenAI-compatible endpoints.
type OpenAIConfig struct {
	BaseURL     string   `yaml:"baseUrl"`
	Model       string   `yaml:"model"`
	Temperature *float64 `yaml:"temperature"`
}

// CacheConfig controls persisted score expiry and key layout.
type CacheConfig struct {
	TTL       time.Duration `yaml:"ttl"`
	KeyLimit  int           `yaml:"keyLimit"`
	Namespace string        `yaml:"namespace"`
}

// ServerConfig is the listen address of the message bridge.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// Load reads YAML configuration (if present) and applies environment overrides.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(storageDriveEnv); v != "" {
		c.Storage.Driver = v
	}

	if v := os.Getenv(storageDSNEnv); v != "" {
		c.Storage.DSN = v
	}

	if v := os.Getenv(serverAddrEnv); v != "" {
		c.Server.Addr = v
	}

	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}

	if v := os.Getenv(logFormatEnv); v != "" {
		c.Logging.Format = v
	}
}

func mergeConfig(base, override Config) Config {
	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}
	if override.Logging.Format != "" {
		base.Logging.Format = override.Logging.Format
	}

	if override.Storage.Driver != "" {
		base.Storage.Driver = override.Storage.Driver
	}
	if override.Storage.DSN != "" {
		base.Storage.DSN = override.Storage.DSN
	}

	if override.Scheduler.ScanDelay > 0 {
		base.Scheduler.ScanDelay = override.Scheduler.ScanDelay
	}
	if override.Scheduler.Debounce > 0 {
		base.Scheduler.Debounce = override.Scheduler.Debounce
	}
	if override.Scheduler.ChunkSize > 0 {
		base.Scheduler.ChunkSize = override.Scheduler.ChunkSize
	}
	if override.Scheduler.ChunkSpacing > 0 {
		base.Scheduler.ChunkSpacing = override.Scheduler.ChunkSpacing
	}
	if override.Scheduler.MinTextLength > 0 {
		base.Scheduler.MinTextLength = override.Scheduler.MinTextLength
	}
	if override.Scheduler.TextLimit > 0 {
		base.Scheduler.TextLimit = override.Scheduler.TextLimit
	}

	if override.Transport.MaxRetries > 0 {
		base.Transport.MaxRetries = override.Transport.MaxRetries
	}
	if override.Transport.Timeout > 0 {
		base.Transport.Timeout = override.Transport.Timeout
	}

	if override.Gemini.BaseURL != "" {
		base.Gemini.BaseURL = override.Gemini.BaseURL
	}
	if override.Gemini.Model != "" {
		base.Gemini.Model = override.Gemini.Model
	}

	if override.OpenAI.BaseURL != "" {
		base.OpenAI.BaseURL = override.OpenAI.BaseURL
	}
	if override.OpenAI.Model != "" {
		base.OpenAI.Model = override.OpenAI.Model
	}
	if override.OpenAI.Temperature != nil {
		base.OpenAI.Temperature = override.OpenAI.Temperature
	}

	if override.Cache.TTL > 0 {
		base.Cache.TTL = override.Cache.TTL
	}
	if override.Cache.KeyLimit > 0 {
		base.Cache.KeyLimit = override.Cache.KeyLimit
	}
	if override.Cache.Namespace != "" {
		base.Cache.Namespace = override.Cache.Namespace
	}

	if override.Server.Addr != "" {
		base.Server.Addr = override.Server.Addr
	}

	return base
}

func defaultConfig() Config {
	return Config{
		Logging: LoggingConfig{Level: "info", Format: "text"},
		Storage: StorageConfig{Driver: "sqlite", DSN: "searchscorer.db"},
		Scheduler: SchedulerConfig{
			ScanDelay:     500 * time.Millisecond,
			Debounce:      200 * time.Millisecond,
			ChunkSize:     5,
			ChunkSpacing:  600 * time.Millisecond,
			MinTextLength: 10,
			TextLimit:     150,
		},
		Transport: TransportConfig{MaxRetries: 3, Timeout: 20 * time.Second},
		Gemini: GeminiConfig{
			BaseURL: "https://generativelanguage.googleapis.com",
			Model:   "gemini-2.5-flash",
		},
		OpenAI: OpenAIConfig{
			BaseURL:     "https://api.openai.com/v1",
			Model:       "gpt-3.5-turbo",
			Temperature: floatPtr(0.3),
		},
		Cache: CacheConfig{
			TTL:       7 * 24 * time.Hour,
			KeyLimit:  128,
			Namespace: "sss_cache_",
		},
		Server: ServerConfig{Addr: "127.0.0.1:8787"},
	}
}

func floatPtr(v float64) *float64 {
	return &v
}
