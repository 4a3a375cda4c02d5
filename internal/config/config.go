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
	Data     DataConfig     `yaml:"data" mapstructure:"data"`
	Boundary BoundaryConfig `yaml:"boundary" mapstructure:"boundary"`
	Map      MapConfig      `yaml:"map" mapstructure:"map"`
	Auth     AuthConfig     `yaml:"auth" mapstructure:"auth"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// DataConfig locates the incident source files and the dataset cache.
type DataConfig struct {
	ReducedPath string `yaml:"reduced_path" mapstructure:"reduced_path"`
	FullPath    string `yaml:"full_path" mapstructure:"full_path"`
	Charset     string `yaml:"charset" mapstructure:"charset"`
	MinYear     int    `yaml:"min_year" mapstructure:"min_year"`
	CacheDB     string `yaml:"cache_db" mapstructure:"cache_db"`
}

// BoundaryConfig locates the administrative boundary polygons.
type BoundaryConfig struct {
	URL          string `yaml:"url" mapstructure:"url"`
	LocalPath    string `yaml:"local_path" mapstructure:"local_path"`
	NameProperty string `yaml:"name_property" mapstructure:"name_property"`
	TimeoutSecs  int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// MapConfig tunes the incident map rendering.
type MapConfig struct {
	SampleFraction float64 `yaml:"sample_fraction" mapstructure:"sample_fraction"`
	SampleSeed     uint64  `yaml:"sample_seed" mapstructure:"sample_seed"`
}

// AuthConfig configures the credential table and login throttling.
type AuthConfig struct {
	UsersPath      string   `yaml:"users_path" mapstructure:"users_path"`
	LoginRate      float64  `yaml:"login_rate" mapstructure:"login_rate"`
	LoginBurst     int      `yaml:"login_burst" mapstructure:"login_burst"`
	CookieSecure   bool     `yaml:"cookie_secure" mapstructure:"cookie_secure"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
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
	v.SetEnvPrefix("CRIMEDASH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("data.reduced_path", "data/incidents_reduced.csv")
	v.SetDefault("data.full_path", "data/incidents_full.csv")
	v.SetDefault("data.charset", "")
	v.SetDefault("data.min_year", 2016)
	v.SetDefault("data.cache_db", "")
	v.SetDefault("boundary.name_property", "NOMGEO")
	v.SetDefault("boundary.local_path", "data/boundaries.geojson")
	v.SetDefault("boundary.timeout_secs", 15)
	v.SetDefault("map.sample_fraction", 0.0)
	v.SetDefault("map.sample_seed", 0)
	v.SetDefault("auth.users_path", "users.yaml")
	v.SetDefault("auth.login_rate", 1.0)
	v.SetDefault("auth.login_burst", 5)
	v.SetDefault("auth.cookie_secure", false)
	v.SetDefault("auth.allowed_origins", []string{"*"})
	v.SetDefault("server.port", 8080)
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
