package shared

import (
	_ "embed"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML (or YAML) file.
type Config struct {
	Database DatabaseConfig `toml:"database" yaml:"database"`
	Server   ServerConfig   `toml:"server" yaml:"server"`
	Auth     AuthConfig     `toml:"auth" yaml:"auth"`
	Log      LogConfig      `toml:"log" yaml:"log"`
	Client   ClientConfig   `toml:"client" yaml:"client"`
}

// DatabaseConfig selects and configures the persistence backend.
type DatabaseConfig struct {
	Driver        string `toml:"driver" yaml:"driver" default:"sqlite" validate:"oneof=sqlite mongodb postgres"`
	Path          string `toml:"path" yaml:"path" default:"./playlister.db"`
	MaxOpenConns  int    `toml:"max_open_conns" yaml:"max_open_conns" default:"10" validate:"gte=1"`
	MaxIdleConns  int    `toml:"max_idle_conns" yaml:"max_idle_conns" default:"5" validate:"gte=0"`
	MongoURI      string `toml:"mongo_uri" yaml:"mongo_uri" default:"mongodb://localhost:27017"`
	MongoDatabase string `toml:"mongo_database" yaml:"mongo_database" default:"playlister"`
	PostgresDSN   string `toml:"postgres_dsn" yaml:"postgres_dsn"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host         string        `toml:"host" yaml:"host" default:"127.0.0.1"`
	Port         int           `toml:"port" yaml:"port" default:"4000" validate:"gte=1,lte=65535"`
	RateLimit    float64       `toml:"rate_limit" yaml:"rate_limit" default:"20" validate:"gte=0"`
	RateBurst    int           `toml:"rate_burst" yaml:"rate_burst" default:"40" validate:"gte=0"`
	TrustProxy   bool          `toml:"trust_proxy" yaml:"trust_proxy"`
	ReadTimeout  time.Duration `toml:"read_timeout" yaml:"read_timeout" default:"10s"`
	WriteTimeout time.Duration `toml:"write_timeout" yaml:"write_timeout" default:"10s"`
}

// Addr joins host and port.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// AuthConfig contains token signing and password hashing settings.
type AuthConfig struct {
	JWTSecret  string        `toml:"jwt_secret" yaml:"jwt_secret" validate:"required,min=16"`
	TokenTTL   time.Duration `toml:"token_ttl" yaml:"token_ttl" default:"24h"`
	BcryptCost int           `toml:"bcrypt_cost" yaml:"bcrypt_cost" default:"10" validate:"gte=4,lte=31"`
}

// LogConfig sets the minimum log level.
type LogConfig struct {
	Level string `toml:"level" yaml:"level" default:"info" validate:"oneof=debug info warn error"`
}

// ClientConfig is used by the CLI and terminal editor to reach a running server.
type ClientConfig struct {
	BaseURL   string `toml:"base_url" yaml:"base_url" default:"http://127.0.0.1:4000" validate:"url"`
	TokenFile string `toml:"token_file" yaml:"token_file" default:"~/.playlister/token"`
}

// LoadConfig reads and parses a configuration file from the specified path.
//
// Files ending in .yaml or .yml are parsed as YAML, everything else as TOML.
// Environment overrides and defaults are applied before validation.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &config)
	default:
		err = toml.Unmarshal(data, &config)
	}
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidConfig, "failed to parse config %s: %v", path, err)
	}

	if err := config.finalize(); err != nil {
		return nil, err
	}
	return &config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	if err := config.finalize(); err != nil {
		panic(fmt.Sprintf("embedded default config is invalid: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// LoadDotEnv loads variables from the given .env files into the process environment.
// Missing files are ignored; variables already set are never overwritten.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return errors.Wrapf(err, "failed to load %s", p)
		}
	}
	return nil
}

func (c *Config) finalize() error {
	c.overrideFromEnv()
	if err := defaults.Set(c); err != nil {
		return errors.Wrap(err, "failed to apply config defaults")
	}
	if err := validator.New().Struct(c); err != nil {
		return errors.Wrapf(ErrInvalidConfig, "%v", err)
	}
	return nil
}

func (c *Config) overrideFromEnv() {
	if v := os.Getenv("PLAYLISTER_JWT_SECRET"); v != "" {
		c.Auth.JWTSecret = v
	}
	if v := os.Getenv("PLAYLISTER_DB_DRIVER"); v != "" {
		c.Database.Driver = v
	}
	if v := os.Getenv("PLAYLISTER_DB_PATH"); v != "" {
		c.Database.Path = v
	}
	if v := os.Getenv("MONGODB_URL"); v != "" {
		c.Database.MongoURI = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.Database.PostgresDSN = v
	}
	if v := os.Getenv("PLAYLISTER_ADDR"); v != "" {
		if host, port, err := net.SplitHostPort(v); err == nil {
			c.Server.Host = host
			if p, err := strconv.Atoi(port); err == nil {
				c.Server.Port = p
			}
		}
	}
}

// ExpandHome replaces a leading "~" with the current user's home directory.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
