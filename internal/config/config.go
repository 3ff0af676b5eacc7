// Package config loads the annotator configuration from defaults, an
// optional config file, a .env file and KEYPOINT_* environment variables,
// in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/ironsheep/keypoint-annotator/internal/catalog"
	"github.com/ironsheep/keypoint-annotator/internal/session"
)

// EnvPrefix prefixes every environment override, e.g. KEYPOINT_HTTP_ADDR.
const EnvPrefix = "KEYPOINT"

// HTTPConfig holds the web server settings.
type HTTPConfig struct {
	Addr string `mapstructure:"addr"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// CatalogConfig holds the label vocabulary and sampling settings. A zero
// Seed means the seed is derived from the clock at startup.
type CatalogConfig struct {
	Labels     []string `mapstructure:"labels"`
	SubsetSize int      `mapstructure:"subset_size"`
	Seed       uint64   `mapstructure:"seed"`
}

// MarkerConfig holds marker geometry settings.
type MarkerConfig struct {
	Radius    float64 `mapstructure:"radius"`
	MinRadius float64 `mapstructure:"min_radius"`
	MaxRadius float64 `mapstructure:"max_radius"`
	Points    int     `mapstructure:"points"`
}

// ImagesConfig selects the image source. When Dir is empty the built-in
// sample set is derived from Sample, or from a generated test card when
// Sample is empty too.
type ImagesConfig struct {
	Dir    string `mapstructure:"dir"`
	Sample string `mapstructure:"sample"`
}

// User is one account seeded at startup.
type User struct {
	Email    string `mapstructure:"email"`
	Password string `mapstructure:"password"`
}

// AuthConfig seeds accounts at startup. Users are a list rather than a map
// because viper splits keys on dots, which emails contain.
type AuthConfig struct {
	Users []User `mapstructure:"users"`
}

// Accounts returns the seeded users as email -> password.
func (a AuthConfig) Accounts() map[string]string {
	out := make(map[string]string, len(a.Users))
	for _, u := range a.Users {
		out[u.Email] = u.Password
	}
	return out
}

// Config is the complete annotator configuration.
type Config struct {
	HTTP    HTTPConfig    `mapstructure:"http"`
	Log     LogConfig     `mapstructure:"log"`
	Catalog CatalogConfig `mapstructure:"catalog"`
	Marker  MarkerConfig  `mapstructure:"marker"`
	Images  ImagesConfig  `mapstructure:"images"`
	Auth    AuthConfig    `mapstructure:"auth"`
}

func setDefaults(v *viper.Viper) {
	sc := session.DefaultConfig()

	v.SetDefault("http.addr", ":8050")
	v.SetDefault("log.level", "info")

	v.SetDefault("catalog.labels", catalog.DefaultKeypoints)
	v.SetDefault("catalog.subset_size", catalog.DefaultSubsetSize)
	v.SetDefault("catalog.seed", 0)

	v.SetDefault("marker.radius", sc.Radius)
	v.SetDefault("marker.min_radius", sc.MinRadius)
	v.SetDefault("marker.max_radius", sc.MaxRadius)
	v.SetDefault("marker.points", sc.Points)

	v.SetDefault("images.dir", "")
	v.SetDefault("images.sample", "")

	v.SetDefault("auth.users", []User{})
}

// Load builds the configuration. configFile (JSON, YAML or TOML, by
// extension) and envFile are optional; an empty envFile loads ./.env when
// present. Variables already set in the environment win over .env values.
func Load(configFile, envFile string) (*Config, error) {
	if err := loadDotEnv(envFile); err != nil {
		return nil, err
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func loadDotEnv(path string) error {
	if path == "" {
		err := godotenv.Load()
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("error reading .env: %w", err)
		}
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("error reading %s: %w", path, err)
	}
	return nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.HTTP.Addr == "" {
		return errors.New("http.addr must not be empty")
	}
	if _, err := zerolog.ParseLevel(strings.ToLower(c.Log.Level)); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	if len(c.Catalog.Labels) == 0 {
		return errors.New("catalog.labels must not be empty")
	}
	if c.Catalog.SubsetSize < 1 || c.Catalog.SubsetSize > len(c.Catalog.Labels) {
		return fmt.Errorf("catalog.subset_size must be in [1, %d], got %d",
			len(c.Catalog.Labels), c.Catalog.SubsetSize)
	}
	for i, u := range c.Auth.Users {
		if u.Email == "" || u.Password == "" {
			return fmt.Errorf("auth.users[%d]: email and password are required", i)
		}
	}
	if err := c.SessionConfig().Validate(); err != nil {
		return fmt.Errorf("marker: %w", err)
	}
	return nil
}

// SessionConfig returns the marker settings as a session configuration.
func (c *Config) SessionConfig() session.Config {
	return session.Config{
		Radius:    c.Marker.Radius,
		MinRadius: c.Marker.MinRadius,
		MaxRadius: c.Marker.MaxRadius,
		Points:    c.Marker.Points,
	}
}
