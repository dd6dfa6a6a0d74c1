package config

import (
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the overall application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	LocalStore LocalStoreConfig `yaml:"local_store"`
	Feed       FeedConfig       `yaml:"feed"`
	Photo      PhotoConfig      `yaml:"photo"`
	Push       PushConfig       `yaml:"push"`
	WorkerPool WorkerPoolConfig `yaml:"worker_pool"`
	Expiry     ExpiryConfig     `yaml:"expiry"`
}

// WorkerPoolConfig holds the configuration for the notification worker pool.
type WorkerPoolConfig struct {
	Size int `yaml:"size"`
}

// PushConfig holds the VAPID keys for web push notifications.
type PushConfig struct {
	PublicKey  string `yaml:"vapid_public_key"`
	PrivateKey string `yaml:"vapid_private_key"`
	Subject    string `yaml:"subject"`
	TTL        int    `yaml:"ttl"`
}

// ServerConfig holds the gateway configuration.
type ServerConfig struct {
	Port              int           `yaml:"port"`
	RequestIPHeader   string        `yaml:"request_ip_header"`
	RateLimitPerSec   float64       `yaml:"rate_limit_per_sec"`
	CacheTTLSeconds   int           `yaml:"cache_ttl_seconds"`
	SessionTTLMinutes int           `yaml:"session_ttl_minutes"`
	SessionTTL        time.Duration `yaml:"-"`
	// PublicURL is the site address used in share links.
	PublicURL string `yaml:"public_url"`
	// AdminToken, when set, must be sent as X-Admin-Token on /api/admin routes.
	AdminToken string `yaml:"admin_token"`
}

// DatabaseConfig holds the remote document store connection configuration.
// Driver is postgres, sqlite or memory.
type DatabaseConfig struct {
	Driver                 string `yaml:"driver"`
	DSN                    string `yaml:"dsn"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
}

// LocalStoreConfig describes the device-local key-value store. An empty
// path keeps everything in memory.
type LocalStoreConfig struct {
	Path     string `yaml:"path"`
	Timezone string `yaml:"timezone"`
}

// FeedConfig holds listing sizes.
type FeedConfig struct {
	PageSize    int `yaml:"page_size"`
	RecentLimit int `yaml:"recent_limit"`
}

// PhotoConfig selects and configures the photo host. Host is imghost, s3 or
// empty for none.
type PhotoConfig struct {
	Host                 string        `yaml:"host"`
	UploadTimeoutSeconds int           `yaml:"upload_timeout_seconds"`
	UploadTimeout        time.Duration `yaml:"-"`
	ImgHost              ImgHostConfig `yaml:"imghost"`
	S3                   S3Config      `yaml:"s3"`
}

type ImgHostConfig struct {
	Endpoint  string `yaml:"endpoint"`
	APIKey    string `yaml:"api_key"`
	HTTPProxy string `yaml:"http_proxy"`
}

type S3Config struct {
	Region          string `yaml:"region"`
	Bucket          string `yaml:"bucket"`
	Endpoint        string `yaml:"endpoint"`
	PublicBaseURL   string `yaml:"public_base_url"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	PathStyle       bool   `yaml:"path_style"`
	MaxAttempts     int    `yaml:"max_attempts"`
}

// ExpiryConfig controls the sweeper that retires old alerts.
type ExpiryConfig struct {
	Enabled         bool          `yaml:"enabled"`
	IntervalSeconds int           `yaml:"interval_seconds"`
	Interval        time.Duration `yaml:"-"` // Ignored by YAML parser
}

// Load reads the configuration from the given path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	return &cfg, nil
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	var cfg Config
	cfg.applyDefaults()
	return &cfg
}

func (cfg *Config) applyDefaults() {
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.SessionTTLMinutes <= 0 {
		cfg.Server.SessionTTLMinutes = 30
	}
	cfg.Server.SessionTTL = time.Duration(cfg.Server.SessionTTLMinutes) * time.Minute
	if cfg.Server.RateLimitPerSec <= 0 {
		cfg.Server.RateLimitPerSec = 10
	}
	if cfg.Server.CacheTTLSeconds <= 0 {
		cfg.Server.CacheTTLSeconds = 300
	}

	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "postgres"
		if cfg.Database.DSN == "" {
			cfg.Database.Driver = "memory"
		}
	}

	if cfg.Feed.PageSize <= 0 {
		cfg.Feed.PageSize = 12
	}
	if cfg.Feed.RecentLimit <= 0 {
		cfg.Feed.RecentLimit = 6
	}

	if cfg.Photo.UploadTimeoutSeconds <= 0 {
		cfg.Photo.UploadTimeoutSeconds = 30
	}
	cfg.Photo.UploadTimeout = time.Duration(cfg.Photo.UploadTimeoutSeconds) * time.Second

	if cfg.Push.TTL <= 0 {
		cfg.Push.TTL = 3600
	}

	if cfg.WorkerPool.Size <= 0 {
		log.Printf("worker_pool.size is not set or invalid; defaulting to 1")
		cfg.WorkerPool.Size = 1
	}

	if cfg.Expiry.IntervalSeconds <= 0 {
		cfg.Expiry.IntervalSeconds = 3600
	}
	cfg.Expiry.Interval = time.Duration(cfg.Expiry.IntervalSeconds) * time.Second
}
