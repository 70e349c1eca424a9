package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

const (
	CatalogFile     = "file"
	CatalogSQLite   = "sqlite"
	CatalogPostgres = "postgres"
)

type Config struct {
	App struct {
		PollIntervalSec    int  `toml:"poll_interval_sec"`
		ShutdownTimeoutSec int  `toml:"shutdown_timeout_sec"`
		PrintQuotes        bool `toml:"print_quotes"`
	} `toml:"app"`

	Server struct {
		Host string `toml:"host"`
		Port int    `toml:"port"`
	} `toml:"server"`

	Upstream struct {
		BaseURL    string `toml:"base_url"`
		APIToken   string `toml:"api_token"`
		TimeoutSec int    `toml:"timeout_sec"`
	} `toml:"upstream"`

	Catalog struct {
		Source string `toml:"source"` // file | sqlite | postgres
		Path   string `toml:"path"`
		Sheet  string `toml:"sheet"`
		Suffix string `toml:"suffix"`
		Limit  int    `toml:"limit"`
		DSN    string `toml:"dsn"`
		Query  string `toml:"query"`
	} `toml:"catalog"`

	Redis struct {
		Enabled  bool   `toml:"enabled"`
		Addr     string `toml:"addr"`
		Password string `toml:"password"`
		DB       int    `toml:"db"`
		Channel  string `toml:"channel"`

		// LatestKey holds the last batch for late subscribers; empty disables it.
		LatestKey string `toml:"latest_key"`
		TTLSec    int    `toml:"ttl_sec"`
	} `toml:"redis"`

	Log struct {
		Level  string `toml:"level"`
		Format string `toml:"format"`
	} `toml:"log"`
}

// Load reads an optional .env file and an optional TOML file, then applies
// environment overrides. A missing TOML file is not an error.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if strings.TrimSpace(path) != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
	}
	if err := applyEnv(&cfg, os.LookupEnv); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyEnv overlays environment values. Blank values are ignored; a value that
// is set but not an integer is an error.
func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	num := func(key string, dst *int) error {
		v, ok := lookup(key)
		if !ok || strings.TrimSpace(v) == "" {
			return nil
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s: invalid integer %q", key, v)
		}
		*dst = n
		return nil
	}

	str("API_TOKEN", &cfg.Upstream.APIToken)
	str("HOST", &cfg.Server.Host)
	if err := num("PORT", &cfg.Server.Port); err != nil {
		return err
	}
	if err := num("POLL_INTERVAL_SEC", &cfg.App.PollIntervalSec); err != nil {
		return err
	}
	str("CATALOG_PATH", &cfg.Catalog.Path)
	str("LOG_LEVEL", &cfg.Log.Level)
	if v, ok := lookup("REDIS_ADDR"); ok && strings.TrimSpace(v) != "" {
		cfg.Redis.Addr = strings.TrimSpace(v)
		cfg.Redis.Enabled = true
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.App.PollIntervalSec <= 0 {
		cfg.App.PollIntervalSec = 60
	}
	if cfg.App.ShutdownTimeoutSec <= 0 {
		cfg.App.ShutdownTimeoutSec = 5
	}
	if strings.TrimSpace(cfg.Server.Host) == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 5000
	}
	if strings.TrimSpace(cfg.Upstream.BaseURL) == "" {
		cfg.Upstream.BaseURL = "https://eodhistoricaldata.com/api/real-time/"
	}
	if cfg.Upstream.TimeoutSec <= 0 {
		cfg.Upstream.TimeoutSec = 15
	}
	cfg.Catalog.Source = strings.ToLower(strings.TrimSpace(cfg.Catalog.Source))
	if cfg.Catalog.Source == "" {
		cfg.Catalog.Source = CatalogFile
	}
	if cfg.Catalog.Source == CatalogFile && strings.TrimSpace(cfg.Catalog.Path) == "" {
		cfg.Catalog.Path = "myr_data.xlsx"
	}
	if cfg.Catalog.Suffix == "" {
		cfg.Catalog.Suffix = ".KLSE"
	}
	if cfg.Redis.Channel == "" {
		cfg.Redis.Channel = "warrantfeed:quotes"
	}
	if cfg.Redis.TTLSec <= 0 {
		cfg.Redis.TTLSec = 2 * cfg.App.PollIntervalSec
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
}

func validate(cfg *Config) error {
	if strings.TrimSpace(cfg.Upstream.APIToken) == "" {
		return errors.New("upstream.api_token empty (set API_TOKEN)")
	}
	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", cfg.Server.Port)
	}
	if cfg.Catalog.Limit < 0 {
		return errors.New("catalog.limit must be >= 0")
	}

	switch cfg.Catalog.Source {
	case CatalogFile:
	case CatalogSQLite:
		if strings.TrimSpace(cfg.Catalog.Path) == "" {
			return errors.New("catalog.path empty but source is sqlite")
		}
	case CatalogPostgres:
		if strings.TrimSpace(cfg.Catalog.DSN) == "" {
			return errors.New("catalog.dsn empty but source is postgres")
		}
	default:
		return fmt.Errorf("catalog.source unknown: %q", cfg.Catalog.Source)
	}

	if cfg.Redis.Enabled && strings.TrimSpace(cfg.Redis.Addr) == "" {
		return errors.New("redis.addr empty but enabled")
	}
	return nil
}

func (c *Config) Addr() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}

func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.App.PollIntervalSec) * time.Second
}

func (c *Config) UpstreamTimeout() time.Duration {
	return time.Duration(c.Upstream.TimeoutSec) * time.Second
}

func (c *Config) RedisTTL() time.Duration {
	return time.Duration(c.Redis.TTLSec) * time.Second
}

func (c *Config) ShutdownTimeout() time.Duration {
	return time.Duration(c.App.ShutdownTimeoutSec) * time.Second
}
