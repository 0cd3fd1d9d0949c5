package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/leadfinder/internal/cost"
	"github.com/sells-group/leadfinder/internal/db"
	"github.com/sells-group/leadfinder/internal/postal"
)

// Config holds the full application configuration.
type Config struct {
	Google     GoogleConfig     `yaml:"google" mapstructure:"google"`
	Search     SearchConfig     `yaml:"search" mapstructure:"search"`
	Enrich     EnrichConfig     `yaml:"enrich" mapstructure:"enrich"`
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Settings   SettingsConfig   `yaml:"settings" mapstructure:"settings"`
	Monitoring MonitoringConfig `yaml:"monitoring" mapstructure:"monitoring"`
	Pricing    cost.Rates       `yaml:"pricing" mapstructure:"pricing"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// GoogleConfig holds Places and Geocoding API settings.
type GoogleConfig struct {
	Key              string        `yaml:"key" mapstructure:"key"`
	PlacesBaseURL    string        `yaml:"places_base_url" mapstructure:"places_base_url"`
	GeocodeBaseURL   string        `yaml:"geocode_base_url" mapstructure:"geocode_base_url"`
	RateLimit        float64       `yaml:"rate_limit" mapstructure:"rate_limit"`
	Timeout          time.Duration `yaml:"timeout" mapstructure:"timeout"`
	BreakerThreshold int           `yaml:"breaker_threshold" mapstructure:"breaker_threshold"`
	BreakerCooldown  time.Duration `yaml:"breaker_cooldown" mapstructure:"breaker_cooldown"`
}

// SearchConfig tunes the search round.
type SearchConfig struct {
	Radius        int           `yaml:"radius" mapstructure:"radius"`
	TextRadius    int           `yaml:"text_radius" mapstructure:"text_radius"`
	PageDelay     time.Duration `yaml:"page_delay" mapstructure:"page_delay"`
	CallTimeout   time.Duration `yaml:"call_timeout" mapstructure:"call_timeout"`
	MaxPages      int           `yaml:"max_pages" mapstructure:"max_pages"`
	DefaultLat    float64       `yaml:"default_lat" mapstructure:"default_lat"`
	DefaultLng    float64       `yaml:"default_lng" mapstructure:"default_lng"`
	GeocodeRegion string        `yaml:"geocode_region" mapstructure:"geocode_region"`
	PostalRule    string        `yaml:"postal_rule" mapstructure:"postal_rule"`
	DefaultTypes  []string      `yaml:"default_types" mapstructure:"default_types"`
	CacheGeocode  bool          `yaml:"cache_geocode" mapstructure:"cache_geocode"`
}

// EnrichConfig tunes on-demand details fetching.
type EnrichConfig struct {
	Timeout     time.Duration `yaml:"timeout" mapstructure:"timeout"`
	Concurrency int           `yaml:"concurrency" mapstructure:"concurrency"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string        `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string        `yaml:"database_url" mapstructure:"database_url"`
	Pool        db.PoolConfig `yaml:"pool" mapstructure:"pool"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port        int      `yaml:"port" mapstructure:"port"`
	CORSOrigins []string `yaml:"cors_origins" mapstructure:"cors_origins"`
}

// SettingsConfig locates the user settings file.
type SettingsConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// MonitoringConfig configures search health alerts while serving.
type MonitoringConfig struct {
	Enabled               bool    `yaml:"enabled" mapstructure:"enabled"`
	WebhookURL            string  `yaml:"webhook_url" mapstructure:"webhook_url"`
	FailureRateThreshold  float64 `yaml:"failure_rate_threshold" mapstructure:"failure_rate_threshold"`
	FallbackRateThreshold float64 `yaml:"fallback_rate_threshold" mapstructure:"fallback_rate_threshold"`
	CostThresholdUSD      float64 `yaml:"cost_threshold_usd" mapstructure:"cost_threshold_usd"`
	MinRuns               int     `yaml:"min_runs" mapstructure:"min_runs"`
	CheckIntervalSecs     int     `yaml:"check_interval_secs" mapstructure:"check_interval_secs"`
	LookbackWindowHours   int     `yaml:"lookback_window_hours" mapstructure:"lookback_window_hours"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from config.yaml, environment variables
// (LEADFINDER_ prefix) and defaults.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("LEADFINDER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("google.key", "")
	v.SetDefault("google.places_base_url", "https://maps.googleapis.com/maps/api/place")
	v.SetDefault("google.geocode_base_url", "https://maps.googleapis.com/maps/api/geocode/json")
	v.SetDefault("google.rate_limit", 10)
	v.SetDefault("google.timeout", 10*time.Second)
	v.SetDefault("google.breaker_threshold", 5)
	v.SetDefault("google.breaker_cooldown", 30*time.Second)
	v.SetDefault("search.radius", 500)
	v.SetDefault("search.text_radius", 10000)
	v.SetDefault("search.page_delay", 2*time.Second)
	v.SetDefault("search.call_timeout", 10*time.Second)
	v.SetDefault("search.max_pages", 2)
	v.SetDefault("search.default_lat", 40.4168)
	v.SetDefault("search.default_lng", -3.7038)
	v.SetDefault("search.geocode_region", "Spain")
	v.SetDefault("search.postal_rule", "es")
	v.SetDefault("search.cache_geocode", true)
	v.SetDefault("enrich.timeout", 10*time.Second)
	v.SetDefault("enrich.concurrency", 4)
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "leadfinder.db")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("settings.path", "settings.yaml")
	v.SetDefault("monitoring.enabled", false)
	v.SetDefault("monitoring.failure_rate_threshold", 0.5)
	v.SetDefault("monitoring.fallback_rate_threshold", 0.5)
	v.SetDefault("monitoring.min_runs", 5)
	v.SetDefault("monitoring.check_interval_secs", 300)
	v.SetDefault("monitoring.lookback_window_hours", 24)
	rates := cost.DefaultRates()
	v.SetDefault("pricing.nearby_search", rates.NearbySearch)
	v.SetDefault("pricing.text_search", rates.TextSearch)
	v.SetDefault("pricing.details", rates.Details)
	v.SetDefault("pricing.geocode", rates.Geocode)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the keys and bounds a command needs before it talks to
// any upstream. Mode is the command name.
func (c *Config) Validate(mode string) error {
	var errs []string

	switch mode {
	case "search", "details":
		errs = append(errs, c.requireGoogle()...)
	case "serve":
		errs = append(errs, c.requireGoogle()...)
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, "server.port must be > 0 and <= 65535")
		}
	case "runs", "settings":
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	switch c.Store.Driver {
	case "sqlite", "":
	case "postgres":
		if c.Store.DatabaseURL == "" {
			errs = append(errs, "store.database_url is required for the postgres driver")
		}
	default:
		errs = append(errs, fmt.Sprintf("store.driver %q is not supported", c.Store.Driver))
	}

	if c.Search.Radius < 0 || c.Search.TextRadius < 0 {
		errs = append(errs, "search radii must be >= 0")
	}
	if c.Search.PageDelay <= 0 {
		errs = append(errs, "search.page_delay must be > 0")
	}
	if c.Search.MaxPages < 0 || c.Search.MaxPages > 3 {
		errs = append(errs, "search.max_pages must be between 0 and 3")
	}
	if c.Search.DefaultLat < -90 || c.Search.DefaultLat > 90 || c.Search.DefaultLng < -180 || c.Search.DefaultLng > 180 {
		errs = append(errs, "search.default_lat/default_lng out of range")
	}
	if _, err := postal.ByName(c.Search.PostalRule); err != nil {
		errs = append(errs, fmt.Sprintf("search.postal_rule %q is not supported", c.Search.PostalRule))
	}
	if c.Monitoring.Enabled {
		if c.Monitoring.FailureRateThreshold <= 0 || c.Monitoring.FailureRateThreshold > 1 ||
			c.Monitoring.FallbackRateThreshold <= 0 || c.Monitoring.FallbackRateThreshold > 1 {
			errs = append(errs, "monitoring thresholds must be in (0, 1]")
		}
		if c.Monitoring.LookbackWindowHours <= 0 {
			errs = append(errs, "monitoring.lookback_window_hours must be > 0")
		}
	}
	if c.Enrich.Concurrency < 0 || c.Enrich.Concurrency > 16 {
		errs = append(errs, "enrich.concurrency must be between 0 and 16")
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

func (c *Config) requireGoogle() []string {
	if strings.TrimSpace(c.Google.Key) == "" {
		return []string{"google.key is required"}
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
