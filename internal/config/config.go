package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Server       ServerConfig       `yaml:"server" mapstructure:"server"`
	Log          LogConfig          `yaml:"log" mapstructure:"log"`
	Google       GoogleConfig       `yaml:"google" mapstructure:"google"`
	Nominatim    NominatimConfig    `yaml:"nominatim" mapstructure:"nominatim"`
	Apify        ApifyConfig        `yaml:"apify" mapstructure:"apify"`
	Meetup       MeetupConfig       `yaml:"meetup" mapstructure:"meetup"`
	Facebook     FacebookConfig     `yaml:"facebook" mapstructure:"facebook"`
	PredictHQ    PredictHQConfig    `yaml:"predicthq" mapstructure:"predicthq"`
	Ticketmaster TicketmasterConfig `yaml:"ticketmaster" mapstructure:"ticketmaster"`
	Hunter       HunterConfig       `yaml:"hunter" mapstructure:"hunter"`
	Events       EventsConfig       `yaml:"events" mapstructure:"events"`
	Places       PlacesConfig       `yaml:"places" mapstructure:"places"`
	Enrich       EnrichConfig       `yaml:"enrich" mapstructure:"enrich"`
	Retry        RetryConfig        `yaml:"retry" mapstructure:"retry"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Port                int      `yaml:"port" mapstructure:"port"`
	CORSOrigins         []string `yaml:"cors_origins" mapstructure:"cors_origins"`
	RequestTimeoutSecs  int      `yaml:"request_timeout_secs" mapstructure:"request_timeout_secs"`
	ShutdownTimeoutSecs int      `yaml:"shutdown_timeout_secs" mapstructure:"shutdown_timeout_secs"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// GoogleConfig holds the Places key used server-side and the Maps key handed
// to the browser.
type GoogleConfig struct {
	PlacesAPIKey string  `yaml:"places_api_key" mapstructure:"places_api_key"`
	MapsAPIKey   string  `yaml:"maps_api_key" mapstructure:"maps_api_key"`
	BaseURL      string  `yaml:"base_url" mapstructure:"base_url"`
	RateLimitRPS float64 `yaml:"rate_limit_rps" mapstructure:"rate_limit_rps"`
}

// NominatimConfig configures the forward geocoder.
type NominatimConfig struct {
	BaseURL      string  `yaml:"base_url" mapstructure:"base_url"`
	UserAgent    string  `yaml:"user_agent" mapstructure:"user_agent"`
	RateLimitRPS float64 `yaml:"rate_limit_rps" mapstructure:"rate_limit_rps"`
}

// ApifyConfig configures the Meetup scraper actor.
type ApifyConfig struct {
	APIToken        string `yaml:"api_token" mapstructure:"api_token"`
	BaseURL         string `yaml:"base_url" mapstructure:"base_url"`
	ActorID         string `yaml:"actor_id" mapstructure:"actor_id"`
	MaxEvents       int    `yaml:"max_events" mapstructure:"max_events"`
	PollIntervalMs  int    `yaml:"poll_interval_ms" mapstructure:"poll_interval_ms"`
	PollMaxAttempts int    `yaml:"poll_max_attempts" mapstructure:"poll_max_attempts"`
}

// MeetupConfig configures the Meetup GraphQL API.
type MeetupConfig struct {
	APIKey  string `yaml:"api_key" mapstructure:"api_key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	Keyword string `yaml:"keyword" mapstructure:"keyword"`
}

// FacebookConfig configures the Graph API event search.
type FacebookConfig struct {
	AccessToken string   `yaml:"access_token" mapstructure:"access_token"`
	BaseURL     string   `yaml:"base_url" mapstructure:"base_url"`
	Queries     []string `yaml:"queries" mapstructure:"queries"`
}

// PredictHQConfig configures the PredictHQ events API.
type PredictHQConfig struct {
	APIToken   string   `yaml:"api_token" mapstructure:"api_token"`
	BaseURL    string   `yaml:"base_url" mapstructure:"base_url"`
	Categories []string `yaml:"categories" mapstructure:"categories"`
	Limit      int      `yaml:"limit" mapstructure:"limit"`
}

// TicketmasterConfig configures the Discovery API.
type TicketmasterConfig struct {
	APIKey  string `yaml:"api_key" mapstructure:"api_key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	Size    int    `yaml:"size" mapstructure:"size"`
}

// HunterConfig configures Hunter.io.
type HunterConfig struct {
	APIKey  string `yaml:"api_key" mapstructure:"api_key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// EventsConfig configures event aggregation.
type EventsConfig struct {
	MaxResults         int     `yaml:"max_results" mapstructure:"max_results"`
	DefaultRadiusMiles float64 `yaml:"default_radius_miles" mapstructure:"default_radius_miles"`
}

// PlacesConfig configures the nearby-businesses fan-out.
type PlacesConfig struct {
	CategoryCount int `yaml:"category_count" mapstructure:"category_count"`
	RadiusMeters  int `yaml:"radius_m" mapstructure:"radius_m"`
	PerCategory   int `yaml:"per_category" mapstructure:"per_category"`
}

// EnrichConfig configures contact enrichment.
type EnrichConfig struct {
	DefaultLimit int `yaml:"default_limit" mapstructure:"default_limit"`
	// DomainsFile adds institution name -> domain entries to the built-in table.
	DomainsFile string `yaml:"domains_file" mapstructure:"domains_file"`
}

// RetryConfig configures retries of transient provider failures.
type RetryConfig struct {
	MaxAttempts      int `yaml:"max_attempts" mapstructure:"max_attempts"`
	InitialBackoffMs int `yaml:"initial_backoff_ms" mapstructure:"initial_backoff_ms"`
	MaxBackoffMs     int `yaml:"max_backoff_ms" mapstructure:"max_backoff_ms"`
}

// envAliases binds the plain environment names used by existing deployments.
var envAliases = map[string]string{
	"google.places_api_key": "GOOGLE_PLACES_API_KEY",
	"google.maps_api_key":   "GOOGLE_MAPS_API_KEY",
	"apify.api_token":       "APIFY_API_TOKEN",
	"meetup.api_key":        "MEETUP_API_KEY",
	"facebook.access_token": "FACEBOOK_ACCESS_TOKEN",
	"predicthq.api_token":   "PREDICTHQ_API_TOKEN",
	"ticketmaster.api_key":  "TICKETMASTER_API_KEY",
	"hunter.api_key":        "HUNTER_IO_API_KEY",
}

const envPrefix = "LEASEBOOST"

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, alias := range envAliases {
		prefixed := envPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, alias); err != nil {
			return nil, eris.Wrapf(err, "config: bind env %s", key)
		}
	}

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("server.request_timeout_secs", 60)
	v.SetDefault("server.shutdown_timeout_secs", 10)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("google.rate_limit_rps", 50)
	v.SetDefault("nominatim.base_url", "https://nominatim.openstreetmap.org")
	v.SetDefault("nominatim.user_agent", "LeaseBoost/1.0")
	v.SetDefault("nominatim.rate_limit_rps", 1)
	v.SetDefault("apify.actor_id", "filip_cicvarek~meetup-scraper")
	v.SetDefault("apify.max_events", 50)
	v.SetDefault("apify.poll_interval_ms", 1000)
	v.SetDefault("apify.poll_max_attempts", 30)
	v.SetDefault("predicthq.limit", 50)
	v.SetDefault("ticketmaster.size", 50)
	v.SetDefault("events.max_results", 20)
	v.SetDefault("events.default_radius_miles", 10)
	v.SetDefault("places.category_count", 15)
	v.SetDefault("places.radius_m", 2000)
	v.SetDefault("places.per_category", 2)
	v.SetDefault("enrich.default_limit", 2)
	v.SetDefault("retry.max_attempts", 2)
	v.SetDefault("retry.initial_backoff_ms", 250)
	v.SetDefault("retry.max_backoff_ms", 2000)

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

// Validate checks the settings a command mode depends on. Provider
// credentials are never required: a missing key disables that provider.
func (c *Config) Validate(mode string) error {
	var errs []string
	switch mode {
	case "serve":
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, "server.port must be between 1 and 65535")
		}
	case "geocode", "events", "nearby":
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if c.Events.MaxResults <= 0 {
		errs = append(errs, "events.max_results must be > 0")
	}
	if c.Events.DefaultRadiusMiles <= 0 {
		errs = append(errs, "events.default_radius_miles must be > 0")
	}
	if c.Places.CategoryCount <= 0 {
		errs = append(errs, "places.category_count must be > 0")
	}
	if c.Enrich.DefaultLimit < 0 {
		errs = append(errs, "enrich.default_limit must be >= 0")
	}
	if c.Apify.PollMaxAttempts <= 0 {
		errs = append(errs, "apify.poll_max_attempts must be > 0")
	}
	if strings.TrimSpace(c.Nominatim.UserAgent) == "" {
		errs = append(errs, "nominatim.user_agent is required")
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}
