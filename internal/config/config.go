package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config holds all configuration for the console backend
type Config struct {
	Server    ServerConfig      `mapstructure:"server"`
	Auth      AuthConfig        `mapstructure:"auth"`
	Database  DatabaseConfig    `mapstructure:"database"`
	Storage   StorageConfig     `mapstructure:"storage"`
	Sharing   SharingConfig     `mapstructure:"sharing"`
	LLM       LLMConfig         `mapstructure:"llm"`
	Pipelines map[string]string `mapstructure:"pipelines"`
	Models    ModelsConfig      `mapstructure:"models"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host    string `mapstructure:"host"`
	Port    int    `mapstructure:"port"`
	BaseURL string `mapstructure:"base_url"`
}

// AuthConfig holds bearer-token verification configuration. Token issuance
// is owned by the external identity provider.
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// StorageConfig holds object storage configuration for uploaded documents
type StorageConfig struct {
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Bucket    string `mapstructure:"bucket"`
	Secure    bool   `mapstructure:"secure"`
}

// SharingConfig holds collection sharing configuration
type SharingConfig struct {
	AllowedEmailDomains []string `mapstructure:"allowed_email_domains"`
	LookupMinPrefix     int      `mapstructure:"lookup_min_prefix"`
}

// LLMConfig holds LLM provider configuration
type LLMConfig struct {
	BaseURL      string `mapstructure:"base_url"`
	DefaultModel string `mapstructure:"default_model"`
}

// ModelsConfig holds the model parameter catalog configuration
type ModelsConfig struct {
	ParamsPath string `mapstructure:"params_path"`
}

// Load loads configuration from file and environment
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Read config file if specified
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// Environment variables
	v.SetEnvPrefix("CONSOLE")
	v.AutomaticEnv()

	// Read config
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found, use defaults
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.base_url", "http://localhost:8080")

	v.SetDefault("auth.jwt_secret", "")

	v.SetDefault("database.path", "./data/console.db")

	v.SetDefault("storage.endpoint", "localhost:9000")
	v.SetDefault("storage.access_key", "")
	v.SetDefault("storage.secret_key", "")
	v.SetDefault("storage.bucket", "doc-collections")
	v.SetDefault("storage.secure", false)

	v.SetDefault("sharing.allowed_email_domains", []string{"*"})
	v.SetDefault("sharing.lookup_min_prefix", 4)

	v.SetDefault("llm.base_url", "http://localhost:11434")
	v.SetDefault("llm.default_model", "qwen2.5:7b")

	v.SetDefault("pipelines", map[string]string{
		"entity_extraction": "Entity Extraction",
	})

	v.SetDefault("models.params_path", "")
}

// Address returns the server address
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
