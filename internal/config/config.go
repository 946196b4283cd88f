package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

type Config struct {
	Port            string        `yaml:"port"`
	UpstreamTimeout time.Duration `yaml:"upstream_timeout"`

	// Upstream API roots, including the /api/v1 prefix.
	ProductURL string `yaml:"product_url"`
	OrderURL   string `yaml:"order_url"`
	AdminURL   string `yaml:"admin_url"`

	StorageDriver string `yaml:"storage_driver"`
	DatabaseDSN   string `yaml:"database_dsn"`
	RunMigrations bool   `yaml:"run_migrations"`

	// Empty disables event publishing.
	RabbitURL string `yaml:"rabbitmq_url"`

	LogLevel string `yaml:"log_level"`

	CatalogPageSize int           `yaml:"catalog_page_size"`
	AdminPageSize   int           `yaml:"admin_page_size"`
	SearchDebounce  time.Duration `yaml:"search_debounce"`

	SessionCookie  string        `yaml:"session_cookie"`
	SessionIdleTTL time.Duration `yaml:"session_idle_ttl"`
	MaxSessions    int           `yaml:"max_sessions"`

	CORSAllowOrigins []string `yaml:"cors_allow_origins"`
}

func Default() Config {
	return Config{
		Port:            "8080",
		UpstreamTimeout: 10 * time.Second,

		ProductURL: "http://localhost:8001/api/v1",
		OrderURL:   "http://localhost:8002/api/v1",
		AdminURL:   "http://localhost:8000/api/v1",

		StorageDriver: StorageMemory,
		RunMigrations: true,

		LogLevel: "info",

		CatalogPageSize: 9,
		AdminPageSize:   10,
		SearchDebounce:  500 * time.Millisecond,

		SessionCookie:  "storefront_session",
		SessionIdleTTL: 30 * time.Minute,
		MaxSessions:    10000,

		CORSAllowOrigins: []string{"*"},
	}
}

// Load layers defaults, the optional YAML file at path and environment overrides.
// A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config %s: %w", path, err)
			}
		case os.IsNotExist(err):
		default:
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Port = getenv("PORT", c.Port)
	c.UpstreamTimeout = parseDuration(os.Getenv("UPSTREAM_TIMEOUT"), c.UpstreamTimeout)

	c.ProductURL = getenv("PRODUCT_SERVICE_URL", c.ProductURL)
	c.OrderURL = getenv("ORDER_SERVICE_URL", c.OrderURL)
	c.AdminURL = getenv("ADMIN_SERVICE_URL", c.AdminURL)

	c.StorageDriver = strings.ToLower(getenv("STORAGE_DRIVER", c.StorageDriver))
	c.DatabaseDSN = getenv("DATABASE_DSN", c.DatabaseDSN)
	c.RunMigrations = parseBool(os.Getenv("RUN_MIGRATIONS"), c.RunMigrations)
	c.RabbitURL = getenv("RABBITMQ_URL", c.RabbitURL)

	c.LogLevel = getenv("LOG_LEVEL", c.LogLevel)

	c.CatalogPageSize = parseInt(os.Getenv("CATALOG_PAGE_SIZE"), c.CatalogPageSize)
	c.AdminPageSize = parseInt(os.Getenv("ADMIN_PAGE_SIZE"), c.AdminPageSize)
	c.SearchDebounce = parseDuration(os.Getenv("SEARCH_DEBOUNCE"), c.SearchDebounce)

	c.SessionCookie = getenv("SESSION_COOKIE", c.SessionCookie)
	c.SessionIdleTTL = parseDuration(os.Getenv("SESSION_IDLE_TTL"), c.SessionIdleTTL)
	c.MaxSessions = parseInt(os.Getenv("MAX_SESSIONS"), c.MaxSessions)

	if v := os.Getenv("CORS_ALLOW_ORIGINS"); strings.TrimSpace(v) != "" {
		c.CORSAllowOrigins = splitCSV(v)
	}
}

func (c Config) Validate() error {
	switch c.StorageDriver {
	case StorageMemory:
	case StoragePostgres:
		if c.DatabaseDSN == "" {
			return fmt.Errorf("storage driver %q requires DATABASE_DSN", c.StorageDriver)
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.StorageDriver)
	}
	if c.CatalogPageSize < 1 || c.AdminPageSize < 1 {
		return fmt.Errorf("page sizes must be positive")
	}
	if c.MaxSessions < 0 {
		return fmt.Errorf("max sessions must not be negative")
	}
	return nil
}

func getenv(k, def string) string {
	if v := os.Getenv(k); strings.TrimSpace(v) != "" {
		return v
	}
	return def
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}

func parseDuration(v string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(strings.TrimSpace(v))
	if err != nil {
		return def
	}
	return d
}

func parseInt(v string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return def
	}
	return n
}

func parseBool(v string, def bool) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return def
	}
	return b
}
