package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config captures the settings required to boot the correlation engine.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Clients ClientsConfig `yaml:"clients"`
	Scoring ScoringConfig `yaml:"scoring"`
	LLM     LLMConfig     `yaml:"llm"`
	Logging LoggingConfig `yaml:"logging"`
	Cache   CacheConfig   `yaml:"cache"`
}

// ServerConfig controls the HTTP listeners.
type ServerConfig struct {
	Address         string        `yaml:"address"`
	MetricsAddress  string        `yaml:"metricsAddress"`
	GracefulTimeout time.Duration `yaml:"gracefulTimeout"`
}

// ClientsConfig groups the external collaborator endpoints.
type ClientsConfig struct {
	EventStore   EndpointConfig     `yaml:"eventStore"`
	CMDB         CachedEndpoint     `yaml:"cmdb"`
	VectorSearch VectorSearchConfig `yaml:"vectorSearch"`
	Knowledge    CachedEndpoint     `yaml:"knowledge"`
}

// EndpointConfig configures one HTTP collaborator.
type EndpointConfig struct {
	BaseURL string        `yaml:"baseURL"`
	Timeout time.Duration `yaml:"timeout"`
}

// CachedEndpoint configures a collaborator whose lookups are cached.
type CachedEndpoint struct {
	BaseURL  string        `yaml:"baseURL"`
	Timeout  time.Duration `yaml:"timeout"`
	CacheTTL time.Duration `yaml:"cacheTTL"`
}

// VectorSearchConfig configures the similarity search collaborator.
type VectorSearchConfig struct {
	BaseURL string        `yaml:"baseURL"`
	APIKey  string        `yaml:"apiKey"`
	Timeout time.Duration `yaml:"timeout"`
	Limit   int           `yaml:"limit"`
}

// ScoringConfig controls correlation scoring tunables. Channel weights are
// versioned constants in the models package and deliberately not exposed
// here.
type ScoringConfig struct {
	DecayFactor       float64       `yaml:"decayFactor"`
	SemanticThreshold float64       `yaml:"semanticThreshold"`
	DefaultTimeWindow time.Duration `yaml:"defaultTimeWindow"`
	ChannelTimeout    time.Duration `yaml:"channelTimeout"`
}

// LLMConfig controls the reasoning collaborator. The API key is read from
// the ANTHROPIC_API_KEY environment variable.
type LLMConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Model     string `yaml:"model"`
	MaxTokens int64  `yaml:"maxTokens"`
}

// LoggingConfig controls structured logging.
type LoggingConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// CacheConfig controls Redis-backed caching of collaborator lookups.
type CacheConfig struct {
	Enabled      bool          `yaml:"enabled"`
	Addr         string        `yaml:"addr"`
	Username     string        `yaml:"username"`
	Password     string        `yaml:"password"`
	DB           int           `yaml:"db"`
	DialTimeout  time.Duration `yaml:"dialTimeout"`
	ReadTimeout  time.Duration `yaml:"readTimeout"`
	WriteTimeout time.Duration `yaml:"writeTimeout"`
	MaxRetries   int           `yaml:"maxRetries"`
}

// Load initialises Config from a YAML file and optional environment overrides.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("CAUSEGRAPH_CONFIG")
	}

	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("config file %s not found: %w", path, err)
			}
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	return &cfg, nil
}

func defaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Address:         ":8080",
			MetricsAddress:  ":2112",
			GracefulTimeout: 10 * time.Second,
		},
		Clients: ClientsConfig{
			EventStore:   EndpointConfig{Timeout: 5 * time.Second},
			CMDB:         CachedEndpoint{Timeout: 5 * time.Second, CacheTTL: 5 * time.Minute},
			VectorSearch: VectorSearchConfig{Timeout: 5 * time.Second, Limit: 20},
			Knowledge:    CachedEndpoint{Timeout: 5 * time.Second, CacheTTL: 2 * time.Minute},
		},
		Scoring: ScoringConfig{
			DecayFactor:       0.1,
			SemanticThreshold: 0.6,
			DefaultTimeWindow: time.Hour,
			ChannelTimeout:    10 * time.Second,
		},
		LLM: LLMConfig{
			Enabled:   false,
			MaxTokens: 1024,
		},
		Logging: LoggingConfig{Level: "info", JSON: false},
		Cache: CacheConfig{
			Enabled:      false,
			DialTimeout:  2 * time.Second,
			ReadTimeout:  500 * time.Millisecond,
			WriteTimeout: 500 * time.Millisecond,
			MaxRetries:   2,
		},
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("CAUSEGRAPH_SERVER_ADDRESS"); v != "" {
		cfg.Server.Address = v
	}
	if v := os.Getenv("CAUSEGRAPH_METRICS_ADDRESS"); v != "" {
		cfg.Server.MetricsAddress = v
	}
	if v := os.Getenv("CAUSEGRAPH_EVENT_STORE_URL"); v != "" {
		cfg.Clients.EventStore.BaseURL = v
	}
	if v := os.Getenv("CAUSEGRAPH_CMDB_URL"); v != "" {
		cfg.Clients.CMDB.BaseURL = v
	}
	if v := os.Getenv("CAUSEGRAPH_VECTOR_SEARCH_URL"); v != "" {
		cfg.Clients.VectorSearch.BaseURL = v
	}
	if v := os.Getenv("CAUSEGRAPH_VECTOR_SEARCH_API_KEY"); v != "" {
		cfg.Clients.VectorSearch.APIKey = v
	}
	if v := os.Getenv("CAUSEGRAPH_KNOWLEDGE_URL"); v != "" {
		cfg.Clients.Knowledge.BaseURL = v
	}
	if v := os.Getenv("CAUSEGRAPH_LLM_ENABLED"); v != "" {
		cfg.LLM.Enabled = strings.EqualFold(v, "true") || v == "1"
	}
	if v := os.Getenv("CAUSEGRAPH_LLM_MODEL"); v != "" {
		cfg.LLM.Model = v
	}
	if v := os.Getenv("CAUSEGRAPH_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("CAUSEGRAPH_LOG_FORMAT"); v == "json" {
		cfg.Logging.JSON = true
	}
	if v := os.Getenv("CAUSEGRAPH_CHANNEL_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Scoring.ChannelTimeout = d
		}
	}
	if v := os.Getenv("CAUSEGRAPH_CACHE_ENABLED"); v != "" {
		cfg.Cache.Enabled = strings.EqualFold(v, "true") || v == "1"
	}
	if v := os.Getenv("CAUSEGRAPH_CACHE_ADDR"); v != "" {
		cfg.Cache.Addr = v
	}
	if v := os.Getenv("CAUSEGRAPH_CACHE_USERNAME"); v != "" {
		cfg.Cache.Username = v
	}
	if v := os.Getenv("CAUSEGRAPH_CACHE_PASSWORD"); v != "" {
		cfg.Cache.Password = v
	}
	if v := os.Getenv("CAUSEGRAPH_CACHE_DB"); v != "" {
		if db, err := strconv.Atoi(v); err == nil {
			cfg.Cache.DB = db
		}
	}
}
