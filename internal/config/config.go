package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ConfigPath is the default config file location.
const ConfigPath = "config.yaml"

// Session strategies.
const (
	SessionStrategyDatabase = "database"
	SessionStrategyJWT      = "jwt"
)

// Storage backends.
const (
	StorageBackendMinio = "minio"
	StorageBackendLocal = "local"
)

// FileConfig represents configuration loaded from YAML.
type FileConfig struct {
	Port          string `yaml:"port"`
	LogLevel      string `yaml:"logLevel"`
	BaseURL       string `yaml:"baseURL"`
	DatabaseURL   string `yaml:"databaseURL"`
	RedisAddr     string `yaml:"redisAddr"`
	RedisPassword string `yaml:"redisPassword"`

	SessionStrategy string `yaml:"sessionStrategy"`
	SessionTTL      string `yaml:"sessionTTL"`
	JWTSecret       string `yaml:"jwtSecret"`

	MagicLinkTTL             string `yaml:"magicLinkTTL"`
	SignInRateLimitPerMinute int    `yaml:"signInRateLimitPerMinute"`
	TrustProxyHeaders        bool   `yaml:"trustProxyHeaders"`

	StorageBackend      string `yaml:"storageBackend"`
	MinioEndpoint       string `yaml:"minioEndpoint"`
	MinioAccessKey      string `yaml:"minioAccessKey"`
	MinioSecretKey      string `yaml:"minioSecretKey"`
	MinioBucket         string `yaml:"minioBucket"`
	MinioUseSSL         bool   `yaml:"minioUseSSL"`
	LocalStoragePath    string `yaml:"localStoragePath"`
	LocalStorageBaseURL string `yaml:"localStorageBaseURL"`
	MaxUploadBytes      int64  `yaml:"maxUploadBytes"`

	MailStream      string `yaml:"mailStream"`
	MailGroup       string `yaml:"mailGroup"`
	MailConcurrency int    `yaml:"mailConcurrency"`
	SMTPAddr        string `yaml:"smtpAddr"`
	SMTPFrom        string `yaml:"smtpFrom"`
}

// Load reads config from path (defaults to config.yaml).
func Load(path string) (FileConfig, error) {
	cfg := FileConfig{}
	if path == "" {
		path = ConfigPath
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	// Override with environment variables
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.DatabaseURL = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.RedisAddr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.RedisPassword = v
	}
	if v := os.Getenv("QUOTEDESK_BASE_URL"); v != "" {
		cfg.BaseURL = v
	}
	if v := os.Getenv("QUOTEDESK_SESSION_STRATEGY"); v != "" {
		cfg.SessionStrategy = v
	}
	if v := os.Getenv("QUOTEDESK_SESSION_TTL"); v != "" {
		cfg.SessionTTL = v
	}
	if v := os.Getenv("QUOTEDESK_JWT_SECRET"); v != "" {
		cfg.JWTSecret = v
	}
	if v := os.Getenv("QUOTEDESK_MAGIC_LINK_TTL"); v != "" {
		cfg.MagicLinkTTL = v
	}
	if v := os.Getenv("QUOTEDESK_SIGNIN_RATE_LIMIT_PER_MINUTE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.SignInRateLimitPerMinute = n
		}
	}
	if v := os.Getenv("QUOTEDESK_TRUST_PROXY_HEADERS"); v != "" {
		cfg.TrustProxyHeaders = v == "true" || v == "1"
	}
	if v := os.Getenv("QUOTEDESK_STORAGE_BACKEND"); v != "" {
		cfg.StorageBackend = v
	}
	if v := os.Getenv("MINIO_ENDPOINT"); v != "" {
		cfg.MinioEndpoint = v
	}
	if v := os.Getenv("MINIO_ACCESS_KEY"); v != "" {
		cfg.MinioAccessKey = v
	}
	if v := os.Getenv("MINIO_SECRET_KEY"); v != "" {
		cfg.MinioSecretKey = v
	}
	if v := os.Getenv("MINIO_BUCKET"); v != "" {
		cfg.MinioBucket = v
	}
	if v := os.Getenv("QUOTEDESK_SMTP_ADDR"); v != "" {
		cfg.SMTPAddr = v
	}
	if v := os.Getenv("QUOTEDESK_SMTP_FROM"); v != "" {
		cfg.SMTPFrom = v
	}
	applyDefaults(&cfg)
	if err := validateConfig(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyDefaults(cfg *FileConfig) {
	if cfg.SessionStrategy == "" {
		cfg.SessionStrategy = SessionStrategyDatabase
	}
	if cfg.StorageBackend == "" {
		cfg.StorageBackend = StorageBackendLocal
	}
	if cfg.LocalStoragePath == "" {
		cfg.LocalStoragePath = "data/attachments"
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 10 << 20
	}
	if cfg.MailStream == "" {
		cfg.MailStream = "quotedesk:mail"
	}
	if cfg.MailGroup == "" {
		cfg.MailGroup = "mailer"
	}
	if cfg.MailConcurrency <= 0 {
		cfg.MailConcurrency = 2
	}
	if cfg.SignInRateLimitPerMinute == 0 {
		cfg.SignInRateLimitPerMinute = 5
	}
}

func validateConfig(cfg FileConfig) error {
	if cfg.Port == "" {
		return errors.New("config: port is required (set in config.yaml)")
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return errors.New("config: baseURL is required for sign-in links")
	}
	switch cfg.SessionStrategy {
	case SessionStrategyDatabase:
	case SessionStrategyJWT:
		if strings.TrimSpace(cfg.JWTSecret) == "" {
			return errors.New("config: jwtSecret is required for jwt session strategy")
		}
	default:
		return fmt.Errorf("config: unknown sessionStrategy %q", cfg.SessionStrategy)
	}
	switch cfg.StorageBackend {
	case StorageBackendLocal:
	case StorageBackendMinio:
		if cfg.MinioEndpoint == "" || cfg.MinioBucket == "" {
			return errors.New("config: minioEndpoint and minioBucket are required for minio storage")
		}
	default:
		return fmt.Errorf("config: unknown storageBackend %q", cfg.StorageBackend)
	}
	if cfg.SignInRateLimitPerMinute < 0 {
		return errors.New("config: rate limits must be >= 0")
	}
	return nil
}

// ParseSessionTTL parses optional session TTL duration string.
func ParseSessionTTL(ttlStr string) (time.Duration, error) {
	if ttlStr == "" {
		return 0, nil
	}
	dur, err := time.ParseDuration(ttlStr)
	if err != nil {
		return 0, fmt.Errorf("invalid sessionTTL duration: %w", err)
	}
	return dur, nil
}

// ParseMagicLinkTTL parses optional magic link TTL duration string.
func ParseMagicLinkTTL(ttlStr string) (time.Duration, error) {
	if ttlStr == "" {
		return 0, nil
	}
	dur, err := time.ParseDuration(ttlStr)
	if err != nil {
		return 0, fmt.Errorf("invalid magicLinkTTL duration: %w", err)
	}
	return dur, nil
}
