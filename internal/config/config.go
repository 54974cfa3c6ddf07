package config

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	AI         AIConfig         `yaml:"ai" mapstructure:"ai"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
	Monitoring MonitoringConfig `yaml:"monitoring" mapstructure:"monitoring"`
	Security   SecurityConfig   `yaml:"security" mapstructure:"security"`
}

type ServerConfig struct {
	Host string `yaml:"host" mapstructure:"host"`
	Port int    `yaml:"port" mapstructure:"port"`
}

// StoreConfig locates the JSON document holding the automation collection.
type StoreConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

type AIConfig struct {
	OpenAI OpenAIConfig `yaml:"openai" mapstructure:"openai"`
}

type OpenAIConfig struct {
	APIKey      string        `yaml:"api_key" mapstructure:"api_key"`
	BaseURL     string        `yaml:"base_url" mapstructure:"base_url"`
	Model       string        `yaml:"model" mapstructure:"model"`
	Temperature float64       `yaml:"temperature" mapstructure:"temperature"`
	MaxTokens   int           `yaml:"max_tokens" mapstructure:"max_tokens"`
	Timeout     time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

type LogConfig struct {
	Level      string `yaml:"level" mapstructure:"level"`
	Format     string `yaml:"format" mapstructure:"format"` // json, text
	Output     string `yaml:"output" mapstructure:"output"` // stdout, file, both
	FilePath   string `yaml:"file_path" mapstructure:"file_path"`
	MaxSize    int    `yaml:"max_size" mapstructure:"max_size"`       // MB
	MaxAge     int    `yaml:"max_age" mapstructure:"max_age"`         // days
	MaxBackups int    `yaml:"max_backups" mapstructure:"max_backups"` // number of backup files
	Compress   bool   `yaml:"compress" mapstructure:"compress"`
}

type MonitoringConfig struct {
	Enabled     bool          `yaml:"enabled" mapstructure:"enabled"`
	MetricsPath string        `yaml:"metrics_path" mapstructure:"metrics_path"`
	Tracing     TracingConfig `yaml:"tracing" mapstructure:"tracing"`
}

// TracingConfig configures the OpenTelemetry OTLP exporter.
type TracingConfig struct {
	Enabled     bool    `yaml:"enabled" mapstructure:"enabled"`
	Endpoint    string  `yaml:"endpoint" mapstructure:"endpoint"` // OTLP gRPC endpoint, e.g. http://otel-collector:4317
	Insecure    bool    `yaml:"insecure" mapstructure:"insecure"`
	SampleRatio float64 `yaml:"sample_ratio" mapstructure:"sample_ratio"`
	ServiceName string  `yaml:"service_name" mapstructure:"service_name"`
}

type SecurityConfig struct {
	CORS         CORSConfig         `yaml:"cors" mapstructure:"cors"`
	RateLimiting RateLimitingConfig `yaml:"rate_limiting" mapstructure:"rate_limiting"`
}

type CORSConfig struct {
	Enabled        bool     `yaml:"enabled" mapstructure:"enabled"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods" mapstructure:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers" mapstructure:"allowed_headers"`
}

type RateLimitingConfig struct {
	Enabled           bool `yaml:"enabled" mapstructure:"enabled"`
	RequestsPerMinute int  `yaml:"requests_per_minute" mapstructure:"requests_per_minute"`
	Burst             int  `yaml:"burst" mapstructure:"burst"`
}

// Load unmarshals the current viper state and fills unset fields from the
// defaults, so a partial config file still yields a runnable configuration.
func Load() *Config {
	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		panic(err)
	}
	applyDefaults(&config)
	return &config
}

func applyDefaults(cfg *Config) {
	def := GetDefaultConfig()
	if cfg.Server.Host == "" {
		cfg.Server.Host = def.Server.Host
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = def.Server.Port
	}
	if cfg.Store.Path == "" {
		cfg.Store.Path = def.Store.Path
	}
	if cfg.AI.OpenAI.BaseURL == "" {
		cfg.AI.OpenAI.BaseURL = def.AI.OpenAI.BaseURL
	}
	if cfg.AI.OpenAI.Model == "" {
		cfg.AI.OpenAI.Model = def.AI.OpenAI.Model
	}
	if cfg.AI.OpenAI.MaxTokens == 0 {
		cfg.AI.OpenAI.MaxTokens = def.AI.OpenAI.MaxTokens
	}
	if cfg.AI.OpenAI.Timeout == 0 {
		cfg.AI.OpenAI.Timeout = def.AI.OpenAI.Timeout
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = def.Log.Level
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = def.Log.Format
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = def.Log.Output
	}
	if cfg.Log.FilePath == "" {
		cfg.Log.FilePath = def.Log.FilePath
	}
	if cfg.Monitoring.MetricsPath == "" {
		cfg.Monitoring.MetricsPath = def.Monitoring.MetricsPath
	}
}

// GetDefaultConfig returns the default configuration.
func GetDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Store: StoreConfig{
			Path: "./data/automations.json",
		},
		AI: AIConfig{
			OpenAI: OpenAIConfig{
				BaseURL:     "https://api.openai.com/v1",
				Model:       "gpt-3.5-turbo",
				Temperature: 0.2,
				MaxTokens:   1000,
				Timeout:     30 * time.Second,
			},
		},
		Log: LogConfig{
			Level:      "info",
			Format:     "json",
			Output:     "stdout",
			FilePath:   "./logs/autoflow.log",
			MaxSize:    100,
			MaxAge:     7,
			MaxBackups: 3,
			Compress:   true,
		},
		Monitoring: MonitoringConfig{
			Enabled:     true,
			MetricsPath: "/metrics",
			Tracing: TracingConfig{
				Enabled:     false,
				Endpoint:    "http://localhost:4317",
				Insecure:    true,
				SampleRatio: 0.1,
				ServiceName: "autoflow",
			},
		},
		Security: SecurityConfig{
			CORS: CORSConfig{
				Enabled:        true,
				AllowedOrigins: []string{"*"},
				AllowedMethods: []string{"GET", "POST", "PUT", "DELETE"},
				AllowedHeaders: []string{"*"},
			},
			RateLimiting: RateLimitingConfig{
				Enabled:           true,
				RequestsPerMinute: 60,
				Burst:             10,
			},
		},
	}
}
