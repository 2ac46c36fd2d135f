package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load reads configuration from file, environment, and CLI flags.
// Priority (highest to lowest): CLI flags > env vars > config file > defaults.
func Load(configPath string) (*Config, error) {
	// A local .env is picked up when present so deployments can keep using
	// plain environment files.
	_ = godotenv.Load()

	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigType("yaml")

	// Set defaults from struct
	setDefaults(v, cfg)

	// Environment variable support
	v.SetEnvPrefix("PAGESIFT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindLegacyEnv(v)

	// Load config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Search default locations
		v.SetConfigName("pagesift")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(home, ".pagesift"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && configPath != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is okay if not explicitly specified
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	return Load(path)
}

// bindLegacyEnv keeps the unprefixed variable names earlier deployments
// exported working alongside the PAGESIFT_* forms.
func bindLegacyEnv(v *viper.Viper) {
	_ = v.BindEnv("server.port", "PAGESIFT_SERVER_PORT", "SERVER_PORT")
	_ = v.BindEnv("storage.mongo_uri", "PAGESIFT_STORAGE_MONGO_URI", "MONGO_URI")
	_ = v.BindEnv("storage.postgres_url", "PAGESIFT_STORAGE_POSTGRES_URL", "DATABASE_URL")
	_ = v.BindEnv("queue.url", "PAGESIFT_QUEUE_URL", "NATS_URL")
	_ = v.BindEnv("queue.subject", "PAGESIFT_QUEUE_SUBJECT", "NATS_SUBJECT_CRAWL")
	_ = v.BindEnv("social.tikhub_token", "PAGESIFT_SOCIAL_TIKHUB_TOKEN", "TIKHUB_TOKEN")
	_ = v.BindEnv("social.rapidapi_key", "PAGESIFT_SOCIAL_RAPIDAPI_KEY", "RAPIDAPI_KEY")
}

// setDefaults registers default values in viper.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("server.port", cfg.Server.Port)
	v.SetDefault("server.read_header_timeout", cfg.Server.ReadHeaderTimeout)
	v.SetDefault("server.shutdown_timeout", cfg.Server.ShutdownTimeout)

	v.SetDefault("crawler.concurrency", cfg.Crawler.Concurrency)

	v.SetDefault("fetcher.request_timeout", cfg.Fetcher.RequestTimeout)
	v.SetDefault("fetcher.follow_redirects", cfg.Fetcher.FollowRedirects)
	v.SetDefault("fetcher.max_redirects", cfg.Fetcher.MaxRedirects)
	v.SetDefault("fetcher.max_body_size", cfg.Fetcher.MaxBodySize)
	v.SetDefault("fetcher.idle_conn_timeout", cfg.Fetcher.IdleConnTimeout)
	v.SetDefault("fetcher.max_idle_conns", cfg.Fetcher.MaxIdleConns)
	v.SetDefault("fetcher.user_agents", cfg.Fetcher.UserAgents)

	v.SetDefault("storage.mongo_uri", cfg.Storage.MongoURI)
	v.SetDefault("storage.mongo_database", cfg.Storage.MongoDatabase)
	v.SetDefault("storage.postgres_url", cfg.Storage.PostgresURL)

	v.SetDefault("queue.url", cfg.Queue.URL)
	v.SetDefault("queue.subject", cfg.Queue.Subject)
	v.SetDefault("queue.group", cfg.Queue.Group)

	v.SetDefault("social.request_timeout", cfg.Social.RequestTimeout)

	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.format", cfg.Logging.Format)
	v.SetDefault("logging.output", cfg.Logging.Output)

	v.SetDefault("metrics.enabled", cfg.Metrics.Enabled)
	v.SetDefault("metrics.port", cfg.Metrics.Port)
	v.SetDefault("metrics.path", cfg.Metrics.Path)
}
