package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix prefixes every application setting read from the environment.
const EnvPrefix = "ASSETSCHEME"

// AppConfig holds application-wide configuration.
type AppConfig struct {
	Host          string   `envconfig:"HOST" default:"127.0.0.1"`
	Port          string   `envconfig:"PORT" default:"8080"`
	ConfigDir     string   `envconfig:"CONFIG_DIR"`
	ScanRecursive bool     `envconfig:"CONFIG_SCAN_RECURSIVE" default:"false"`
	Watch         bool     `envconfig:"CONFIG_WATCH" default:"false"`
	Scheme        string   `envconfig:"SCHEME" default:"asset"`
	ChunkSize     int      `envconfig:"CHUNK_SIZE" default:"4096"`
	LogLevel      string   `envconfig:"LOG_LEVEL" default:"DEBUG"`
	MimeTypesFile string   `envconfig:"MIME_TYPES_FILE"`
	Mode          string   `envconfig:"MODE" default:"http"`
	CORSOrigins   []string `envconfig:"CORS_ORIGINS"`
	Registry      RegistryConfig
	CDP           CDPConfig
}

// CDPConfig configures the headless browser host.
type CDPConfig struct {
	Origin   string `envconfig:"ORIGIN" default:"http://asset.local"`
	Headless bool   `envconfig:"HEADLESS" default:"true"`
	ExecPath string `envconfig:"EXEC_PATH"`
}

// RegistryConfig selects and configures the browser config registry backend.
type RegistryConfig struct {
	Driver        string `envconfig:"DRIVER" default:"memory"`
	RedisAddr     string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`
	RedisKey      string `envconfig:"REDIS_KEY" default:"assetscheme:browsers"`
	DynamoRegion  string `envconfig:"DYNAMODB_REGION"`
	DynamoTable   string `envconfig:"DYNAMODB_TABLE" default:"assetscheme-browsers"`
}

// LoadAppConfig loads configuration from ASSETSCHEME_* environment variables.
func LoadAppConfig() (*AppConfig, error) {
	var cfg AppConfig
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.ChunkSize <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", cfg.ChunkSize)
	}
	return &cfg, nil
}
