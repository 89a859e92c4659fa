package shared

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Database.Driver != "sqlite" {
			t.Errorf("expected database driver sqlite, got %s", config.Database.Driver)
		}

		if config.Database.Path != "./playlister.db" {
			t.Errorf("expected database path ./playlister.db, got %s", config.Database.Path)
		}

		if config.Server.Port != 4000 {
			t.Errorf("expected server port 4000, got %d", config.Server.Port)
		}

		if config.Auth.TokenTTL != 24*time.Hour {
			t.Errorf("expected token ttl 24h, got %s", config.Auth.TokenTTL)
		}

		if config.Server.Addr() != "127.0.0.1:4000" {
			t.Errorf("expected addr 127.0.0.1:4000, got %s", config.Server.Addr())
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "nested", "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		if _, err := os.Stat(configPath); err != nil {
			t.Fatalf("config file should exist: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		defaultConfig := DefaultConfig()
		if config.Database.Path != defaultConfig.Database.Path {
			t.Errorf("created config database path doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig TOML", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")

		testConfig := `[database]
driver = "postgres"
postgres_dsn = "host=db user=app"

[server]
host = "0.0.0.0"
port = 8080

[auth]
jwt_secret = "0123456789abcdef0123"
token_ttl = "1h"
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Database.Driver != "postgres" {
			t.Errorf("expected driver postgres, got %s", config.Database.Driver)
		}

		if config.Server.Port != 8080 {
			t.Errorf("expected server port 8080, got %d", config.Server.Port)
		}

		if config.Auth.TokenTTL != time.Hour {
			t.Errorf("expected token ttl 1h, got %s", config.Auth.TokenTTL)
		}

		if config.Auth.BcryptCost != 10 {
			t.Errorf("expected default bcrypt cost 10, got %d", config.Auth.BcryptCost)
		}

		if config.Database.MaxOpenConns != 10 {
			t.Errorf("expected default max_open_conns 10, got %d", config.Database.MaxOpenConns)
		}
	})

	t.Run("LoadConfig YAML", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.yaml")

		testConfig := `database:
  driver: mongodb
  mongo_uri: mongodb://mongo:27017
server:
  port: 9000
auth:
  jwt_secret: yaml-secret-long-enough
log:
  level: debug
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Database.Driver != "mongodb" {
			t.Errorf("expected driver mongodb, got %s", config.Database.Driver)
		}
		if config.Database.MongoURI != "mongodb://mongo:27017" {
			t.Errorf("unexpected mongo uri %s", config.Database.MongoURI)
		}
		if config.Server.Port != 9000 {
			t.Errorf("expected port 9000, got %d", config.Server.Port)
		}
		if config.Log.Level != "debug" {
			t.Errorf("expected log level debug, got %s", config.Log.Level)
		}
	})

	t.Run("Invalid driver", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")
		testConfig := `[database]
driver = "oracle"

[auth]
jwt_secret = "0123456789abcdef0123"
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		_, err := LoadConfig(configPath)
		if !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("Short secret", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(configPath, []byte("[auth]\njwt_secret = \"short\"\n"), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		if _, err := LoadConfig(configPath); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("Environment overrides", func(t *testing.T) {
		t.Setenv("PLAYLISTER_JWT_SECRET", "from-the-environment-123")
		t.Setenv("PLAYLISTER_DB_PATH", "/tmp/env.db")
		t.Setenv("PLAYLISTER_ADDR", "0.0.0.0:7070")
		t.Setenv("DATABASE_URL", "postgres://env")

		config := DefaultConfig()

		if config.Auth.JWTSecret != "from-the-environment-123" {
			t.Errorf("expected secret from environment, got %s", config.Auth.JWTSecret)
		}
		if config.Database.Path != "/tmp/env.db" {
			t.Errorf("expected db path from environment, got %s", config.Database.Path)
		}
		if config.Server.Host != "0.0.0.0" || config.Server.Port != 7070 {
			t.Errorf("expected addr from environment, got %s", config.Server.Addr())
		}
		if config.Database.PostgresDSN != "postgres://env" {
			t.Errorf("expected dsn from environment, got %s", config.Database.PostgresDSN)
		}
	})

	t.Run("LoadDotEnv", func(t *testing.T) {
		envPath := filepath.Join(t.TempDir(), ".env")
		if err := os.WriteFile(envPath, []byte("PLAYLISTER_TEST_DOTENV=loaded\n"), 0644); err != nil {
			t.Fatalf("failed to write env file: %v", err)
		}
		t.Cleanup(func() { os.Unsetenv("PLAYLISTER_TEST_DOTENV") })

		if err := LoadDotEnv(envPath, filepath.Join(t.TempDir(), "missing.env")); err != nil {
			t.Fatalf("LoadDotEnv failed: %v", err)
		}
		if got := os.Getenv("PLAYLISTER_TEST_DOTENV"); got != "loaded" {
			t.Errorf("expected loaded, got %q", got)
		}
	})
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}

	tc := []struct {
		in   string
		want string
	}{
		{in: "~/token", want: filepath.Join(home, "token")},
		{in: "/abs/token", want: "/abs/token"},
		{in: "relative/token", want: "relative/token"},
	}
	for _, tt := range tc {
		t.Run(tt.in, func(t *testing.T) {
			if got := ExpandHome(tt.in); got != tt.want {
				t.Errorf("ExpandHome(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
