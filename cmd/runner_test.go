package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/playlister/internal/auth"
	"github.com/desertthunder/playlister/internal/server"
	"github.com/desertthunder/playlister/internal/services"
	"github.com/desertthunder/playlister/internal/shared"
	tu "github.com/desertthunder/playlister/internal/testing"
)

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			httpClient := &http.Client{}

			runner := NewRunner(RunnerOpts{
				Config:     config,
				ConfigPath: "/test/path/config.toml",
				Logger:     logger,
				Output:     output,
				HTTPClient: httpClient,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.configPath != "/test/path/config.toml" {
				t.Errorf("expected configPath to be set, got %s", runner.configPath)
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.httpClient != httpClient {
				t.Error("expected httpClient to be set")
			}
			if runner.api == nil || runner.api.BaseURL() != config.Client.BaseURL {
				t.Error("expected api client to use the configured base URL")
			}
			if runner.engine == nil {
				t.Error("expected export engine to be set")
			}
		})

		t.Run("with nil config uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Config: nil})
			if runner.config == nil {
				t.Error("expected default config to be set")
			}
		})

		t.Run("with nil logger uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Logger: nil})
			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
		})

		t.Run("with nil output uses stdout", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: nil})
			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
		})

		t.Run("with nil httpClient uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{HTTPClient: nil})
			if runner.httpClient != http.DefaultClient {
				t.Error("expected httpClient to default to http.DefaultClient")
			}
		})

		t.Run("with nil browse uses system browser", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})
			if runner.browse == nil {
				t.Error("expected browse to be set")
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, true); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if !strings.Contains(result, `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", result)
			}
			if !strings.HasSuffix(result, "\n") {
				t.Error("expected output to end with newline")
			}
		})

		t.Run("writes compact JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, false); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			expected := `{"key":"value"}` + "\n"
			if output.String() != expected {
				t.Errorf("expected %q, got %q", expected, output.String())
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})

			err := runner.writeJSON(make(chan int), false)
			if err == nil || !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil || !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})

		t.Run("handles newline write failure", func(t *testing.T) {
			limitedWriter := tu.NewLimitedWriter(1, 0, &bytes.Buffer{})
			runner := NewRunner(RunnerOpts{Output: &limitedWriter})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil || !strings.Contains(err.Error(), "failed to write newline") {
				t.Errorf("expected newline write error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		t.Run("writes plain text successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writePlain("hello %s", "world"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if output.String() != "hello world" {
				t.Errorf("expected 'hello world', got %q", output.String())
			}
		})

		t.Run("writePlainln wraps in newlines", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writePlainln("Songs:"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if output.String() != "\nSongs:\n" {
				t.Errorf("unexpected output %q", output.String())
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writePlain("test")
			if err == nil || !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		commands := runner.register()

		want := []string{"serve", "setup", "auth", "playlists", "songs", "edit"}
		if len(commands) != len(want) {
			t.Fatalf("expected %d commands, got %d", len(want), len(commands))
		}
		for i, cmd := range commands {
			if cmd == nil {
				t.Fatalf("command at index %d is nil", i)
			}
			if cmd.Name != want[i] {
				t.Errorf("expected command %q at %d, got %q", want[i], i, cmd.Name)
			}
		}
	})
}

type harness struct {
	runner *Runner
	output *bytes.Buffer
	opened []string
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	authCfg := shared.AuthConfig{JWTSecret: "runner-test-secret-0123456789", TokenTTL: time.Hour, BcryptCost: 4}
	issuer, err := auth.NewIssuer(authCfg)
	if err != nil {
		t.Fatalf("failed to create issuer: %v", err)
	}

	logger := log.New(io.Discard)
	svc := services.New(tu.NewStore(t), issuer, authCfg, logger)
	srv := server.New(shared.ServerConfig{}, server.Deps{
		Accounts:  svc.Accounts,
		Playlists: svc.Playlists,
		Songs:     svc.Songs,
		Issuer:    issuer,
		Logger:    logger,
	})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	config := shared.DefaultConfig()
	config.Client.BaseURL = ts.URL
	config.Client.TokenFile = filepath.Join(t.TempDir(), "token")

	h := &harness{output: &bytes.Buffer{}}
	h.runner = NewRunner(RunnerOpts{
		Config:     config,
		Logger:     logger,
		Output:     h.output,
		HTTPClient: ts.Client(),
		Browse: func(url string) error {
			h.opened = append(h.opened, url)
			return nil
		},
	})
	return h
}

func (h *harness) run(args ...string) (string, error) {
	h.output.Reset()
	err := h.runner.App().Run(context.Background(), append([]string{"playlister"}, args...))
	return h.output.String(), err
}

func (h *harness) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := h.run(args...)
	if err != nil {
		t.Fatalf("playlister %s: %v", strings.Join(args, " "), err)
	}
	return out
}

func (h *harness) mustID(t *testing.T, args ...string) string {
	t.Helper()
	var body struct {
		ID string `json:"id"`
	}
	out := h.mustRun(t, args...)
	if err := json.Unmarshal([]byte(out), &body); err != nil || body.ID == "" {
		t.Fatalf("expected JSON with id from %v, got %q", args, out)
	}
	return body.ID
}

func (h *harness) login(t *testing.T, email string) {
	t.Helper()
	h.mustRun(t, "auth", "register", "--email", email, "--name", "Ada", "--password", "password123")
	out := h.mustRun(t, "auth", "login", "--email", email, "--password", "password123")
	if !strings.Contains(out, "Logged in as Ada") {
		t.Fatalf("unexpected login output %q", out)
	}
}

func TestAuthCommands(t *testing.T) {
	h := newHarness(t)

	t.Run("me without a session", func(t *testing.T) {
		_, err := h.run("auth", "me")
		if !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
	})

	h.login(t, "ada@example.com")

	t.Run("me", func(t *testing.T) {
		out := h.mustRun(t, "auth", "me")
		if !strings.Contains(out, "Email: ada@example.com") {
			t.Errorf("unexpected output %q", out)
		}
	})

	t.Run("update", func(t *testing.T) {
		out := h.mustRun(t, "auth", "update", "--name", "Ada L")
		if !strings.Contains(out, "Name: Ada L") {
			t.Errorf("unexpected output %q", out)
		}
	})

	t.Run("update without flags", func(t *testing.T) {
		_, err := h.run("auth", "update")
		if !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := h.run("auth", "login", "--email", "ada@example.com", "--password", "wrong-password")
		if !errors.Is(err, shared.ErrUnauthorized) {
			t.Errorf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("logout", func(t *testing.T) {
		h.mustRun(t, "auth", "logout")
		if _, err := h.run("auth", "me"); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated after logout, got %v", err)
		}
	})
}

func TestPlaylistAndSongCommands(t *testing.T) {
	h := newHarness(t)
	h.login(t, "curator@example.com")

	first := h.mustID(t, "songs", "add", "--json", "--title", "Heroes", "--artist", "Bowie", "--year", "1977", "--video", "abc")
	second := h.mustID(t, "songs", "add", "--json", "--title", "Hurricane", "--artist", "Dylan", "--year", "1975")
	playlist := h.mustID(t, "playlists", "create", "--json", "Road Trip")

	c, err := h.runner.session()
	if err != nil {
		t.Fatalf("expected a session: %v", err)
	}
	if _, err := c.UpdatePlaylistSongs(context.Background(), playlist, []string{second, first}); err != nil {
		t.Fatalf("failed to set songs: %v", err)
	}

	t.Run("playlists list", func(t *testing.T) {
		out := h.mustRun(t, "playlists", "list", "--song-artist", "bowie")
		if !strings.Contains(out, "Found 1 playlists") || !strings.Contains(out, "Road Trip") {
			t.Errorf("unexpected output %q", out)
		}
	})

	t.Run("playlists show", func(t *testing.T) {
		out := h.mustRun(t, "playlists", "show", playlist)
		if !strings.Contains(out, " 1. Dylan - Hurricane (1975)") || !strings.Contains(out, " 2. Bowie - Heroes (1977)") {
			t.Errorf("songs not listed in order: %q", out)
		}
	})

	t.Run("playlists create duplicate", func(t *testing.T) {
		_, err := h.run("playlists", "create", "road trip")
		if !errors.Is(err, shared.ErrDuplicateName) {
			t.Errorf("expected ErrDuplicateName, got %v", err)
		}
	})

	t.Run("playlists rename and copy", func(t *testing.T) {
		out := h.mustRun(t, "playlists", "rename", playlist, "Drive")
		if !strings.Contains(out, `Renamed playlist "Drive"`) {
			t.Errorf("unexpected output %q", out)
		}
		out = h.mustRun(t, "playlists", "copy", playlist)
		if !strings.Contains(out, `"Drive (Copy)"`) {
			t.Errorf("unexpected output %q", out)
		}
	})

	t.Run("playlists play", func(t *testing.T) {
		out := h.mustRun(t, "playlists", "play", playlist)
		if !strings.Contains(out, "1 plays, 1 listeners") {
			t.Errorf("unexpected output %q", out)
		}
	})

	t.Run("playlists export single", func(t *testing.T) {
		dir := t.TempDir()
		h.mustRun(t, "playlists", "export", "--format", "csv", "--output", dir, playlist)
		tu.AssertFileExists(t, filepath.Join(dir, playlist+"_songs.csv"))
		tu.AssertFileExists(t, filepath.Join(dir, playlist+"_metadata.json"))
	})

	t.Run("playlists export matching", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "bulk")
		out := h.mustRun(t, "playlists", "export", "--format", "txt", "--output", dir, "--name", "drive")
		if !strings.Contains(out, "Succeeded: 2") {
			t.Errorf("unexpected output %q", out)
		}
		tu.AssertFileExists(t, filepath.Join(dir, "export_manifest.json"))
	})

	t.Run("playlists export unknown format", func(t *testing.T) {
		_, err := h.run("playlists", "export", "--format", "xml", playlist)
		if !errors.Is(err, shared.ErrInvalidFlag) {
			t.Errorf("expected ErrInvalidFlag, got %v", err)
		}
	})

	t.Run("songs list and show", func(t *testing.T) {
		out := h.mustRun(t, "songs", "list", "--sort", "year", "--order", "asc")
		if strings.Index(out, "Hurricane") > strings.Index(out, "Heroes") {
			t.Errorf("expected ascending year order, got %q", out)
		}
		out = h.mustRun(t, "songs", "show", first)
		if !strings.Contains(out, "Video: https://www.youtube.com/watch?v=abc") {
			t.Errorf("unexpected output %q", out)
		}
	})

	t.Run("songs edit", func(t *testing.T) {
		out := h.mustRun(t, "songs", "edit", "--year", "1978", first)
		if !strings.Contains(out, "Year: 1978") {
			t.Errorf("unexpected output %q", out)
		}
		if _, err := h.run("songs", "edit", first); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("songs open", func(t *testing.T) {
		h.mustRun(t, "songs", "open", first)
		if len(h.opened) != 1 || h.opened[0] != "https://www.youtube.com/watch?v=abc" {
			t.Errorf("unexpected opened urls %v", h.opened)
		}
		if _, err := h.run("songs", "open", second); !errors.Is(err, shared.ErrValidation) {
			t.Errorf("expected ErrValidation for a song without video, got %v", err)
		}
	})

	t.Run("songs delete removes from playlists", func(t *testing.T) {
		h.mustRun(t, "songs", "delete", second)
		out := h.mustRun(t, "playlists", "show", playlist)
		if strings.Contains(out, "Hurricane") {
			t.Errorf("deleted song still listed: %q", out)
		}
	})

	t.Run("playlists delete", func(t *testing.T) {
		h.mustRun(t, "playlists", "delete", playlist)
		if _, err := h.run("playlists", "show", playlist); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("missing id", func(t *testing.T) {
		if _, err := h.run("playlists", "show"); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})
}

func TestSetupCommands(t *testing.T) {
	dir := t.TempDir()
	h := newHarness(t)

	t.Run("config", func(t *testing.T) {
		path := filepath.Join(dir, "generated", "config.toml")
		h.mustRun(t, "setup", "config", "--config", path)
		tu.AssertFileExists(t, path)

		if _, err := h.run("setup", "config", "--config", path); err == nil {
			t.Error("expected error when config already exists")
		}
	})

	t.Run("database", func(t *testing.T) {
		dbPath := filepath.Join(dir, "playlister.db")
		configPath := filepath.Join(dir, "config.toml")
		conf := "[database]\ndriver = \"sqlite\"\npath = \"" + dbPath + "\"\n\n[auth]\njwt_secret = \"0123456789abcdef0123456789abcdef\"\n"
		if err := os.WriteFile(configPath, []byte(conf), 0644); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}

		h.mustRun(t, "setup", "database", "--config", configPath)
		tu.AssertFileExists(t, dbPath)

		out := h.mustRun(t, "setup", "database", "--config", configPath, "--status")
		if !strings.Contains(out, "[✓] 000") {
			t.Errorf("expected first migration applied, got %q", out)
		}
	})
}
