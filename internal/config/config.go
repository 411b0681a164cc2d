package config

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"slices"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Database drivers.
const (
	DriverElasticsearch = "elasticsearch"
	DriverRedis         = "redis"
	DriverMemory        = "memory"
)

// Config holds the oceandb service configuration.
type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Database DatabaseConfig `yaml:"database"`
	Search   SearchConfig   `yaml:"search"`
	Auth     AuthConfig     `yaml:"auth"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// AuthConfig holds API authentication settings. No keys disables authentication.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds document store connection settings.
type DatabaseConfig struct {
	Driver string `yaml:"driver"` // elasticsearch, redis, memory (default: elasticsearch)
	// Addrs wins over Hostname/Port when both are set.
	Addrs    []string `yaml:"addrs"`
	Hostname string   `yaml:"hostname"`
	Port     int      `yaml:"port"`
	Username string   `yaml:"username"`
	Password string   `yaml:"password"`
	// Index is the collection all documents live in.
	Index          string `yaml:"index"`
	SSL            bool   `yaml:"ssl"`
	VerifyCerts    bool   `yaml:"verify_certs"`
	CACertPath     string `yaml:"ca_cert_path"`
	ClientCertPath string `yaml:"client_cert_path"`
	ClientKeyPath  string `yaml:"client_key_path"`
	// KeyPrefix and DB apply to the redis driver only.
	KeyPrefix        string `yaml:"key_prefix"`
	DB               int    `yaml:"db"`
	ReadinessTimeout int    `yaml:"readiness_timeout_sec"`
}

// SearchConfig holds query and pagination settings.
type SearchConfig struct {
	Registry        string `yaml:"registry"` // current, legacy
	DefaultPageSize int    `yaml:"default_page_size"`
	ListChunkSize   int    `yaml:"list_chunk_size"`
	TextSortField   string `yaml:"text_sort_field"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}
	return Parse(data)
}

// Parse decodes YAML config data, expanding ${VAR} references, then applies defaults and validates.
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
	if c.Database.Driver == "" {
		c.Database.Driver = DriverElasticsearch
	}
	if len(c.Database.Addrs) == 0 && c.Database.Hostname != "" {
		port := c.Database.Port
		if port <= 0 {
			port = defaultPort(c.Database.Driver)
		}
		c.Database.Addrs = []string{net.JoinHostPort(c.Database.Hostname, strconv.Itoa(port))}
	}
	if c.Database.Index == "" {
		c.Database.Index = "oceandb"
	}
	if c.Database.KeyPrefix == "" {
		c.Database.KeyPrefix = "oceandb:"
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 30
	}
	if c.Search.Registry == "" {
		c.Search.Registry = "current"
	}
	if c.Search.DefaultPageSize <= 0 {
		c.Search.DefaultPageSize = 100
	}
	if c.Search.ListChunkSize <= 0 {
		c.Search.ListChunkSize = 25
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	drivers := []string{DriverElasticsearch, DriverRedis, DriverMemory}
	if !slices.Contains(drivers, c.Database.Driver) {
		return fmt.Errorf("database.driver must be one of %s, got %q", strings.Join(drivers, ", "), c.Database.Driver)
	}
	if c.Database.Driver != DriverMemory && len(c.Database.Addrs) == 0 {
		return fmt.Errorf("database.addrs or database.hostname is required")
	}
	if (c.Database.ClientCertPath == "") != (c.Database.ClientKeyPath == "") {
		return fmt.Errorf("database.client_cert_path and database.client_key_path must be set together")
	}
	switch c.Search.Registry {
	case "current", "legacy":
	default:
		return fmt.Errorf("search.registry must be \"current\" or \"legacy\", got %q", c.Search.Registry)
	}
	if c.Search.ListChunkSize > 25 {
		return fmt.Errorf("search.list_chunk_size must be at most 25, got %d", c.Search.ListChunkSize)
	}
	return nil
}

func defaultPort(driver string) int {
	if driver == DriverRedis {
		return 6379
	}
	return 9200
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := env + ".yaml"

	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

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
		expr := string(match[2 : len(match)-1])
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
