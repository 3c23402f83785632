package server

import (
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
)

// Config holds the preview server settings.
type Config struct {
	Host string
	Port int
	// Mode is the gin mode: debug, release, or test.
	Mode string

	// StorePath is the badger directory backing the card store. Commands
	// use it when opening the store; the server itself receives an opened
	// store through Deps.
	StorePath string
	// WatchDir, when set, is watched for card JSON documents. Saved files
	// are ingested into the store and connected browsers are told to
	// reload.
	WatchDir string

	// RateRPS and RateBurst bound API requests per client IP.
	RateRPS   float64
	RateBurst int

	// ThemeVariant is the variant applied when a request does not pick one.
	ThemeVariant string

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// Addr returns the host:port listen address.
func (cfg Config) Addr() string {
	return fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
}

func (cfg *Config) applyDefaults() {
	if cfg.Host == "" {
		cfg.Host = "127.0.0.1"
	}
	if cfg.Port <= 0 {
		cfg.Port = 8787
	}
	if cfg.Mode == "" {
		cfg.Mode = gin.ReleaseMode
	}
	if cfg.StorePath == "" {
		cfg.StorePath = "cardgen-data"
	}
	if cfg.RateRPS <= 0 {
		cfg.RateRPS = 20
	}
	if cfg.RateBurst <= 0 {
		cfg.RateBurst = 40
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = 10 * time.Second
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 30 * time.Second
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
}

// LoadConfig builds a Config from a YAML file plus CARDGEN_* environment
// overrides, highest priority first: environment, file, built-in defaults.
// With an explicit path the file must exist; otherwise a cardgen.yaml in the
// working directory is picked up when present and skipped when not.
func LoadConfig(path string) (Config, error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("server: read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("cardgen")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("server: read config: %w", err)
			}
		}
	}

	v.SetEnvPrefix("CARDGEN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := Config{
		Host:            v.GetString("server.host"),
		Port:            v.GetInt("server.port"),
		Mode:            v.GetString("server.mode"),
		StorePath:       v.GetString("store.path"),
		WatchDir:        v.GetString("watch.dir"),
		RateRPS:         v.GetFloat64("ratelimit.rps"),
		RateBurst:       v.GetInt("ratelimit.burst"),
		ThemeVariant:    v.GetString("theme.variant"),
		ReadTimeout:     v.GetDuration("server.read_timeout"),
		WriteTimeout:    v.GetDuration("server.write_timeout"),
		ShutdownTimeout: v.GetDuration("server.shutdown_timeout"),
	}
	cfg.applyDefaults()
	return cfg, nil
}
