package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the shoplane API configuration.
type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Database DatabaseConfig `yaml:"database"`
	Vector   VectorConfig   `yaml:"vector"`
	Search   SearchConfig   `yaml:"search"`
	Indexing IndexingConfig `yaml:"indexing"`
	Auth     AuthConfig     `yaml:"auth"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// VectorConfig holds the in-memory vector index settings.
type VectorConfig struct {
	SnapshotPath   string `yaml:"snapshot_path"`
	MinDimensions  int    `yaml:"min_dimensions"`
	MaxDimensions  int    `yaml:"max_dimensions"`
	LoadOnStartup  bool   `yaml:"load_on_startup"`
	SaveOnShutdown bool   `yaml:"save_on_shutdown"`
}

// SearchConfig holds retrieval and result tunables.
type SearchConfig struct {
	VectorLimit     int     `yaml:"vector_limit"`
	VectorThreshold float64 `yaml:"vector_threshold"`
	VectorKeep      float64 `yaml:"vector_keep"`
	LexicalLimit    int     `yaml:"lexical_limit"`
	StructuredLimit int     `yaml:"structured_limit"`
	FallbackLimit   int     `yaml:"fallback_limit"`
	LaneTimeoutMs   int     `yaml:"lane_timeout_ms"`
	MaxCandidates   int     `yaml:"max_candidates"`
	DefaultLimit    int     `yaml:"default_limit"`
	MaxLimit        int     `yaml:"max_limit"`
}

// IndexingConfig holds bulk indexing settings.
type IndexingConfig struct {
	BatchSize    int `yaml:"batch_size"`
	Workers      int `yaml:"workers"`
	MaxBulkItems int `yaml:"max_bulk_items"`
	JobTTLHours  int `yaml:"job_ttl_hours"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 10
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Vector.SnapshotPath == "" {
		c.Vector.SnapshotPath = "data/vector_snapshot.json"
	}
	if c.Vector.MinDimensions <= 0 {
		c.Vector.MinDimensions = 64
	}
	if c.Vector.MaxDimensions <= 0 {
		c.Vector.MaxDimensions = 512
	}
	if c.Search.VectorLimit <= 0 {
		c.Search.VectorLimit = 30
	}
	if c.Search.VectorThreshold <= 0 {
		c.Search.VectorThreshold = 0.1
	}
	if c.Search.VectorKeep <= 0 {
		c.Search.VectorKeep = 0.3
	}
	if c.Search.LexicalLimit <= 0 {
		c.Search.LexicalLimit = 30
	}
	if c.Search.StructuredLimit <= 0 {
		c.Search.StructuredLimit = 30
	}
	if c.Search.FallbackLimit <= 0 {
		c.Search.FallbackLimit = 20
	}
	if c.Search.LaneTimeoutMs <= 0 {
		c.Search.LaneTimeoutMs = 2000
	}
	if c.Search.MaxCandidates <= 0 {
		c.Search.MaxCandidates = 60
	}
	if c.Search.DefaultLimit <= 0 {
		c.Search.DefaultLimit = 20
	}
	if c.Search.MaxLimit <= 0 {
		c.Search.MaxLimit = 60
	}
	if c.Indexing.BatchSize <= 0 {
		c.Indexing.BatchSize = 200
	}
	if c.Indexing.Workers <= 0 {
		c.Indexing.Workers = 4
	}
	if c.Indexing.MaxBulkItems <= 0 {
		c.Indexing.MaxBulkItems = 10000
	}
	if c.Indexing.JobTTLHours <= 0 {
		c.Indexing.JobTTLHours = 24
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if len(c.Database.Addrs) == 0 {
		return fmt.Errorf("database.addrs is required")
	}
	if c.Vector.MinDimensions > c.Vector.MaxDimensions {
		return fmt.Errorf("vector.min_dimensions %d exceeds vector.max_dimensions %d",
			c.Vector.MinDimensions, c.Vector.MaxDimensions)
	}
	if c.Search.VectorThreshold > 1 || c.Search.VectorKeep > 1 {
		return fmt.Errorf("vector similarity cutoffs must not exceed 1")
	}
	if c.Search.DefaultLimit > c.Search.MaxLimit {
		return fmt.Errorf("search.default_limit %d exceeds search.max_limit %d",
			c.Search.DefaultLimit, c.Search.MaxLimit)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
