package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Logger   LoggerConfig   `mapstructure:"logger"`
	OpenAI   OpenAIConfig   `mapstructure:"openai"`
	Lark     LarkConfig     `mapstructure:"lark"`
	Download DownloadConfig `mapstructure:"download"`
	HTTP     HTTPConfig     `mapstructure:"http"`

	// FeatureFlags is a JSON document gating modules and per-operation
	// features; see ParseFlags
	FeatureFlags string `mapstructure:"feature_flags"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
}

// OpenAIConfig holds the Whisper backend configuration. An empty APIKey
// selects the mock transcriber.
type OpenAIConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

// LarkConfig holds Lark messaging credentials. Empty credentials disable
// assignment notifications.
type LarkConfig struct {
	AppID     string `mapstructure:"app_id"`
	AppSecret string `mapstructure:"app_secret"`
}

// DownloadConfig holds audio download retry policy
type DownloadConfig struct {
	MaxAttempts int           `mapstructure:"max_attempts"`
	Backoff     time.Duration `mapstructure:"backoff"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// HTTPConfig holds middleware configuration
type HTTPConfig struct {
	RateLimitPerMinute int      `mapstructure:"rate_limit_per_minute"`
	CORSOrigins        []string `mapstructure:"cors_origins"`
}

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")
	viper.AutomaticEnv()

	setDefaults()
	bindEnvVars()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate checks that required fields are present and sensible
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.Download.MaxAttempts <= 0 {
		return fmt.Errorf("download.max_attempts must be positive, got %d", c.Download.MaxAttempts)
	}
	return nil
}

func setDefaults() {
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 7777)
	viper.SetDefault("server.read_timeout", "30s")
	viper.SetDefault("server.write_timeout", "30s")

	viper.SetDefault("database.path", "data/transcriptions.db")
	viper.SetDefault("database.max_open_conns", 10)
	viper.SetDefault("database.max_idle_conns", 5)
	viper.SetDefault("database.conn_max_lifetime", "1h")

	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.output_path", "stdout")
	viper.SetDefault("logger.format", "console")

	viper.SetDefault("openai.model", "whisper-1")

	viper.SetDefault("download.max_attempts", 3)
	viper.SetDefault("download.backoff", "200ms")
	viper.SetDefault("download.timeout", "5s")

	viper.SetDefault("http.rate_limit_per_minute", 100)
	viper.SetDefault("http.cors_origins", []string{"*"})

	viper.SetDefault("feature_flags", "{}")
}

func bindEnvVars() {
	_ = viper.BindEnv("server.port", "PORT")
	_ = viper.BindEnv("database.path", "DATABASE_PATH")
	_ = viper.BindEnv("logger.level", "LOG_LEVEL")
	_ = viper.BindEnv("openai.api_key", "OPENAI_API_KEY")
	_ = viper.BindEnv("openai.model", "OPENAI_MODEL")
	_ = viper.BindEnv("lark.app_id", "LARK_APP_ID")
	_ = viper.BindEnv("lark.app_secret", "LARK_APP_SECRET")
	_ = viper.BindEnv("feature_flags", "FEATURE_FLAGS")
}
