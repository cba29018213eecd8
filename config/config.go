package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the stock research backend
type Config struct {
	General   GeneralConfig   `mapstructure:"general"`
	Server    ServerConfig    `mapstructure:"server"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Research  ResearchConfig  `mapstructure:"research"`
	StockData StockDataConfig `mapstructure:"stock_data"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// GeneralConfig contains general application settings
type GeneralConfig struct {
	Debug          bool          `mapstructure:"debug"`
	LogLevel       string        `mapstructure:"log_level"`
	DefaultTimeout time.Duration `mapstructure:"default_timeout"`
}

// ServerConfig contains HTTP server and auth settings
type ServerConfig struct {
	Address    string `mapstructure:"address"`
	JWTSecret  string `mapstructure:"jwt_secret"`
	AdminEmail string `mapstructure:"admin_email"`
	MockAI     bool   `mapstructure:"mock_ai"`
}

// LLMConfig contains the completion provider configuration
type LLMConfig struct {
	Provider   string           `mapstructure:"provider"` // gemini
	APIKey     string           `mapstructure:"api_key"`
	BaseURL    string           `mapstructure:"base_url"`
	Timeout    time.Duration    `mapstructure:"timeout"`
	Routing    LLMRoutingConfig `mapstructure:"routing"`
	Grounding  []string         `mapstructure:"grounding"` // preference order of grounding modes
	MaxRetries int              `mapstructure:"max_retries"`
}

// LLMRoutingConfig defines which model to use for different pipeline stages
type LLMRoutingConfig struct {
	Planning   string `mapstructure:"planning"`   // branch generation
	Analysis   string `mapstructure:"analysis"`   // per-branch research
	Synthesis  string `mapstructure:"synthesis"`  // final report
	Competitor string `mapstructure:"competitor"` // competitor discovery
}

// ResearchConfig holds pipeline tuning knobs.
// The character minimums are empirical; they gate the heuristic branch
// parsers when the model ignores the JSON envelope.
type ResearchConfig struct {
	MaxBranches    int `mapstructure:"max_branches"`
	MinBranchChars int `mapstructure:"min_branch_chars"`
	MinLooseChars  int `mapstructure:"min_loose_chars"`
	MaxCompetitors int `mapstructure:"max_competitors"`
}

// StockDataConfig configures the company data lookup client
type StockDataConfig struct {
	BaseURL  string        `mapstructure:"base_url"`
	Timeout  time.Duration `mapstructure:"timeout"`
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

// StorageConfig contains database configuration
type StorageConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

// PostgresConfig contains Postgres connection settings
type PostgresConfig struct {
	URL      string `mapstructure:"url"`
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

func (p PostgresConfig) Validate() error {
	if strings.TrimSpace(p.URL) != "" {
		return nil
	}
	if strings.TrimSpace(p.Host) == "" {
		return fmt.Errorf("storage.postgres.host required when url is not provided")
	}
	if strings.TrimSpace(p.DBName) == "" {
		return fmt.Errorf("storage.postgres.dbname required when url is not provided")
	}
	return nil
}

// DSN builds a Postgres connection string from the configured fields.
func (p PostgresConfig) DSN() string {
	if p.URL != "" {
		return p.URL
	}
	port := p.Port
	if port == "" {
		port = "5432"
	}
	ssl := p.SSLMode
	if ssl == "" {
		ssl = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", p.User, p.Password, p.Host, port, p.DBName, ssl)
}

// RedisConfig contains Redis connection settings
type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Addr returns host:port, empty when Redis is not configured.
func (r RedisConfig) Addr() string {
	if r.Host == "" {
		return ""
	}
	port := r.Port
	if port == "" {
		port = "6379"
	}
	return r.Host + ":" + port
}

// TelemetryConfig contains metrics settings
type TelemetryConfig struct {
	Enabled     bool `mapstructure:"enabled"`
	MetricsPort int  `mapstructure:"metrics_port"`
}

func (t TelemetryConfig) Validate() error {
	if t.Enabled && t.MetricsPort <= 0 {
		return fmt.Errorf("telemetry.metrics_port must be > 0 when telemetry is enabled")
	}
	return nil
}

// LoadConfig loads config from file, applying defaults and STOCKAN_* env overrides.
func LoadConfig(path string) *Config {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetDefault("general.log_level", "info")
	viper.SetDefault("general.default_timeout", "2m")
	viper.SetDefault("server.address", ":10002")
	viper.SetDefault("llm.provider", "gemini")
	viper.SetDefault("llm.timeout", "90s")
	viper.SetDefault("llm.routing.planning", "gemini-2.5-pro")
	viper.SetDefault("llm.routing.analysis", "gemini-2.5-flash")
	viper.SetDefault("llm.routing.synthesis", "gemini-2.5-pro")
	viper.SetDefault("llm.routing.competitor", "gemini-2.5-flash")
	viper.SetDefault("llm.grounding", []string{"google_search", "google_search_retrieval"})
	viper.SetDefault("research.max_branches", 15)
	viper.SetDefault("research.min_branch_chars", 10)
	viper.SetDefault("research.min_loose_chars", 20)
	viper.SetDefault("research.max_competitors", 3)
	viper.SetDefault("stock_data.timeout", "15s")
	viper.SetDefault("stock_data.cache_ttl", "5m")

	if path == "" {
		viper.AddConfigPath("./config")
		viper.AddConfigPath(".")
		exe, _ := os.Executable()
		exeDir := filepath.Dir(exe)
		viper.AddConfigPath(exeDir)
		viper.AddConfigPath(filepath.Join(exeDir, ".."))
	} else {
		viper.SetConfigFile(path)
	}

	viper.SetEnvPrefix("STOCKAN")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	var cfg Config
	if err := viper.ReadInConfig(); err != nil {
		panic(fmt.Errorf("fatal error config file: %w", err))
	}
	if err := viper.Unmarshal(&cfg); err != nil {
		panic(fmt.Errorf("fatal error config file: %w", err))
	}

	if err := cfg.Telemetry.Validate(); err != nil {
		panic(err)
	}
	if err := cfg.Storage.Postgres.Validate(); err != nil {
		panic(err)
	}
	return &cfg
}
