package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Default upstream resources published by the Recife open-data portal.
const (
	DefaultRadarsURL  = "http://dados.recife.pe.gov.br/dataset/a511fbb8-c339-4618-be9e-8aa1fe880f5b/resource/e4c5acc3-c0b9-4127-ad08-472c5b9b003f/download/equipamentosfiscalizacao.csv"
	DefaultCamerasURL = "http://dados.recife.pe.gov.br/dataset/a511fbb8-c339-4618-be9e-8aa1fe880f5b/resource/5f31c2b8-b292-47ee-8443-647619dcbbcf/download/monitoramentocttu.csv"
	DefaultUserAgent  = "Mozilla/5.0 (compatible; RecifeRadaresApp/1.0)"
	DefaultTileURL    = "https://www.google.cn/maps/vt?lyrs=m@221097413,traffic&x={x}&y={y}&z={z}"
)

// Config holds the full application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Cache    CacheConfig    `yaml:"cache" mapstructure:"cache"`
	Upstream UpstreamConfig `yaml:"upstream" mapstructure:"upstream"`
	Geocode  GeocodeConfig  `yaml:"geocode" mapstructure:"geocode"`
	Map      MapConfig      `yaml:"map" mapstructure:"map"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port               int      `yaml:"port" mapstructure:"port"`
	CORSOrigins        []string `yaml:"cors_origins" mapstructure:"cors_origins"`
	RequestTimeoutSecs int      `yaml:"request_timeout_secs" mapstructure:"request_timeout_secs"`
}

// CacheConfig selects and tunes the cache backend.
type CacheConfig struct {
	Driver        string `yaml:"driver" mapstructure:"driver"`
	RedisURL      string `yaml:"redis_url" mapstructure:"redis_url"`
	DatabaseURL   string `yaml:"database_url" mapstructure:"database_url"`
	SQLitePath    string `yaml:"sqlite_path" mapstructure:"sqlite_path"`
	TTLHours      int    `yaml:"ttl_hours" mapstructure:"ttl_hours"`
	StaleTTLHours int    `yaml:"stale_ttl_hours" mapstructure:"stale_ttl_hours"`
	SweepMins     int    `yaml:"sweep_mins" mapstructure:"sweep_mins"`
}

// UpstreamConfig configures access to the open-data CSV resources.
type UpstreamConfig struct {
	RadarsURL        string `yaml:"radars_url" mapstructure:"radars_url"`
	CamerasURL       string `yaml:"cameras_url" mapstructure:"cameras_url"`
	UserAgent        string `yaml:"user_agent" mapstructure:"user_agent"`
	TimeoutSecs      int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxAttempts      int    `yaml:"max_attempts" mapstructure:"max_attempts"`
	BreakerThreshold int    `yaml:"breaker_threshold" mapstructure:"breaker_threshold"`
	BreakerResetSecs int    `yaml:"breaker_reset_secs" mapstructure:"breaker_reset_secs"`
}

// GeocodeConfig configures the Nominatim address search.
type GeocodeConfig struct {
	BaseURL       string  `yaml:"base_url" mapstructure:"base_url"`
	Region        string  `yaml:"region" mapstructure:"region"`
	Limit         int     `yaml:"limit" mapstructure:"limit"`
	UserAgent     string  `yaml:"user_agent" mapstructure:"user_agent"`
	RatePerSec    float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
	CacheTTLHours int     `yaml:"cache_ttl_hours" mapstructure:"cache_ttl_hours"`
}

// MapConfig holds the initial map view served to the page.
type MapConfig struct {
	CenterLat  float64 `yaml:"center_lat" mapstructure:"center_lat"`
	CenterLng  float64 `yaml:"center_lng" mapstructure:"center_lng"`
	Zoom       int     `yaml:"zoom" mapstructure:"zoom"`
	SearchZoom int     `yaml:"search_zoom" mapstructure:"search_zoom"`
	TileURL    string  `yaml:"tile_url" mapstructure:"tile_url"`
	DebounceMs int     `yaml:"debounce_ms" mapstructure:"debounce_ms"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("RADARMAP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("server.port", 3000)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("server.request_timeout_secs", 60)
	v.SetDefault("cache.driver", "redis")
	v.SetDefault("cache.redis_url", "redis://localhost:6379/0")
	v.SetDefault("cache.sqlite_path", "radar-map.db")
	v.SetDefault("cache.ttl_hours", 24)
	v.SetDefault("cache.stale_ttl_hours", 24*7)
	v.SetDefault("cache.sweep_mins", 60)
	v.SetDefault("upstream.radars_url", DefaultRadarsURL)
	v.SetDefault("upstream.cameras_url", DefaultCamerasURL)
	v.SetDefault("upstream.user_agent", DefaultUserAgent)
	v.SetDefault("upstream.timeout_secs", 30)
	v.SetDefault("upstream.max_attempts", 1)
	v.SetDefault("upstream.breaker_threshold", 5)
	v.SetDefault("upstream.breaker_reset_secs", 60)
	v.SetDefault("geocode.base_url", "https://nominatim.openstreetmap.org")
	v.SetDefault("geocode.region", "Pernambuco,Brazil")
	v.SetDefault("geocode.limit", 5)
	v.SetDefault("geocode.user_agent", DefaultUserAgent)
	v.SetDefault("geocode.rate_per_sec", 1.0)
	v.SetDefault("geocode.cache_ttl_hours", 24)
	v.SetDefault("map.center_lat", -8.052643905437522)
	v.SetDefault("map.center_lng", -34.88519751855592)
	v.SetDefault("map.zoom", 15)
	v.SetDefault("map.search_zoom", 17)
	v.SetDefault("map.tile_url", DefaultTileURL)
	v.SetDefault("map.debounce_ms", 500)
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

	// REDIS_URL is the conventional variable used by hosting platforms.
	if url := os.Getenv("REDIS_URL"); url != "" && os.Getenv("RADARMAP_CACHE_REDIS_URL") == "" {
		cfg.Cache.RedisURL = url
	}

	return &cfg, nil
}

// Validate checks the settings required by the given command mode
// ("serve", "fetch" or "cache"). All problems are reported together.
func (c *Config) Validate(mode string) error {
	var problems []string

	switch mode {
	case "serve":
		if c.Server.Port <= 0 {
			problems = append(problems, "server.port must be > 0")
		}
		if c.Map.Zoom < 0 || c.Map.Zoom > 19 {
			problems = append(problems, "map.zoom must be between 0 and 19")
		}
		problems = append(problems, c.validateCache()...)
		problems = append(problems, c.validateUpstream()...)
	case "fetch":
		problems = append(problems, c.validateUpstream()...)
	case "cache":
		problems = append(problems, c.validateCache()...)
		problems = append(problems, c.validateUpstream()...)
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(problems) > 0 {
		return eris.New("config: " + strings.Join(problems, "; "))
	}
	return nil
}

func (c *Config) validateCache() []string {
	var problems []string
	switch c.Cache.Driver {
	case "redis":
		if c.Cache.RedisURL == "" {
			problems = append(problems, "cache.redis_url is required for the redis driver")
		}
	case "postgres":
		if c.Cache.DatabaseURL == "" {
			problems = append(problems, "cache.database_url is required for the postgres driver")
		}
	case "sqlite":
		if c.Cache.SQLitePath == "" {
			problems = append(problems, "cache.sqlite_path is required for the sqlite driver")
		}
	case "memory":
	default:
		problems = append(problems, fmt.Sprintf("cache.driver %q is not supported", c.Cache.Driver))
	}
	if c.Cache.TTLHours <= 0 {
		problems = append(problems, "cache.ttl_hours must be > 0")
	}
	if c.Cache.StaleTTLHours < c.Cache.TTLHours {
		problems = append(problems, "cache.stale_ttl_hours must be >= cache.ttl_hours")
	}
	if c.Cache.SweepMins < 0 {
		problems = append(problems, "cache.sweep_mins must be >= 0")
	}
	return problems
}

func (c *Config) validateUpstream() []string {
	var problems []string
	if c.Upstream.RadarsURL == "" {
		problems = append(problems, "upstream.radars_url is required")
	}
	if c.Upstream.CamerasURL == "" {
		problems = append(problems, "upstream.cameras_url is required")
	}
	if c.Upstream.MaxAttempts < 1 || c.Upstream.MaxAttempts > 10 {
		problems = append(problems, "upstream.max_attempts must be between 1 and 10")
	}
	return problems
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
