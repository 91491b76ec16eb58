package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds the polaudit configuration.
type Config struct {
	HTTP         HTTPConfig         `yaml:"http"`
	Discovery    DiscoveryConfig    `yaml:"discovery"`
	Data         DataConfig         `yaml:"data"`
	Feedback     FeedbackConfig     `yaml:"feedback"`
	Coordination CoordinationConfig `yaml:"coordination"`
	Logging      LoggingConfig      `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int    `yaml:"port"`
	ReadTimeoutSec  int    `yaml:"read_timeout_sec"`
	WriteTimeoutSec int    `yaml:"write_timeout_sec"`
	ShutdownSec     int    `yaml:"shutdown_timeout_sec"`
	AllowedOrigin   string `yaml:"allowed_origin"`
	// PublicBaseURL prefixes document links returned in query results.
	PublicBaseURL string `yaml:"public_base_url"`
}

// DiscoveryConfig holds the search service connection.
type DiscoveryConfig struct {
	URL           string `yaml:"url"`
	APIKey        string `yaml:"api_key"`
	EnvironmentID string `yaml:"environment_id"`
	Version       string `yaml:"version"`
	// Collections maps subject to collection id.
	Collections       map[string]string `yaml:"collections"`
	RequestTimeoutSec int               `yaml:"request_timeout_sec"`
	RateLimitRPS      float64           `yaml:"rate_limit_rps"` // 0 = unlimited
	Burst             int               `yaml:"burst"`
	PassagesCount     int               `yaml:"passages_count"`
}

// DataConfig points at the static tables and the document tree.
type DataConfig struct {
	IgnoredTerms     string `yaml:"ignored_terms"`
	ArticleNames     string `yaml:"article_names"`
	ArticleSummaries string `yaml:"article_summaries"`
	DisplayNames     string `yaml:"display_names"`
	DocumentsDir     string `yaml:"documents_dir"`
}

// FeedbackConfig holds training store settings.
type FeedbackConfig struct {
	MaxQueries     int `yaml:"max_queries"`
	LockTTLSec     int `yaml:"lock_ttl_sec"`
	LockWaitSec    int `yaml:"lock_wait_sec"`
	InsertAttempts int `yaml:"insert_attempts"`
}

// CoordinationConfig selects how feedback writers are serialized.
type CoordinationConfig struct {
	Driver           string   `yaml:"driver"` // local, redis (default: local)
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// RequestTimeout returns the per-call bound for the search service.
func (d *DiscoveryConfig) RequestTimeout() time.Duration {
	return time.Duration(d.RequestTimeoutSec) * time.Second
}

// LoadDotEnv loads KEY=VALUE pairs from path into the process environment.
// A missing file is not an error. Existing variables are not overridden.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	return LoadFile(findConfigPath(env))
}

// LoadFile reads configuration from an explicit path.
func LoadFile(configPath string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}
	return Parse(data)
}

// Parse expands environment references, applies defaults and validates.
func Parse(data []byte) (Config, error) {
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

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.Port == 0 {
		c.HTTP.Port = 3000
	}
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 60
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.HTTP.AllowedOrigin == "" {
		c.HTTP.AllowedOrigin = "*"
	}
	if c.HTTP.PublicBaseURL == "" {
		c.HTTP.PublicBaseURL = fmt.Sprintf("http://localhost:%d", c.HTTP.Port)
	}
	if c.Discovery.Version == "" {
		c.Discovery.Version = "2019-04-30"
	}
	if c.Discovery.RequestTimeoutSec <= 0 {
		c.Discovery.RequestTimeoutSec = 15
	}
	if c.Discovery.Burst <= 0 {
		c.Discovery.Burst = 5
	}
	if c.Data.DocumentsDir == "" {
		c.Data.DocumentsDir = "documents"
	}
	if c.Feedback.MaxQueries <= 0 {
		c.Feedback.MaxQueries = 10_000
	}
	if c.Feedback.LockTTLSec <= 0 {
		c.Feedback.LockTTLSec = 30
	}
	if c.Feedback.LockWaitSec <= 0 {
		c.Feedback.LockWaitSec = 10
	}
	if c.Feedback.InsertAttempts <= 0 {
		c.Feedback.InsertAttempts = 3
	}
	if c.Coordination.Driver == "" {
		c.Coordination.Driver = "local"
	}
	if c.Coordination.ReadinessTimeout <= 0 {
		c.Coordination.ReadinessTimeout = 10
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if c.Discovery.URL == "" {
		return fmt.Errorf("discovery.url is required")
	}
	if c.Discovery.EnvironmentID == "" {
		return fmt.Errorf("discovery.environment_id is required")
	}
	if len(c.Discovery.Collections) == 0 {
		return fmt.Errorf("discovery.collections must map at least one subject")
	}
	for subject, id := range c.Discovery.Collections {
		if strings.TrimSpace(subject) == "" || id == "" {
			return fmt.Errorf("discovery.collections: subject %q has empty collection id", subject)
		}
	}
	if c.Discovery.RateLimitRPS < 0 {
		return fmt.Errorf("discovery.rate_limit_rps must not be negative, got %v", c.Discovery.RateLimitRPS)
	}
	switch c.Coordination.Driver {
	case "local":
	case "redis":
		if len(c.Coordination.Addrs) == 0 {
			return fmt.Errorf("coordination.addrs is required for the redis driver")
		}
	default:
		return fmt.Errorf("coordination.driver must be \"local\" or \"redis\", got %q", c.Coordination.Driver)
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
