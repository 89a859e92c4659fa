// Package client is the typed REST client for a running playlister server.
//
// It is used by the CLI commands and the terminal editor. A [Client] created with a session
// token sends it as a bearer token through an oauth2 transport. Error responses are mapped
// back to the sentinel errors in the shared package, so callers can match them with
// errors.Is exactly as they would against the services directly.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/oauth2"

	"github.com/desertthunder/playlister/internal/models"
	"github.com/desertthunder/playlister/internal/search"
	"github.com/desertthunder/playlister/internal/services"
	"github.com/desertthunder/playlister/internal/shared"
)

// Client calls the REST API at baseURL.
type Client struct {
	baseURL    string
	httpClient *http.Client
	token      string
}

// New creates a client for baseURL. A nil http client uses [http.DefaultClient].
func New(baseURL string, client *http.Client) *Client {
	if baseURL == "" {
		baseURL = "http://127.0.0.1:4000"
	}
	if client == nil {
		client = http.DefaultClient
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: client,
	}
}

// WithToken returns a copy of c that authenticates every request with token.
func (c *Client) WithToken(token string) *Client {
	if token == "" {
		return c
	}

	base := c.httpClient.Transport
	if base == nil {
		base = http.DefaultTransport
	}

	authed := *c.httpClient
	authed.Transport = &oauth2.Transport{
		Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}),
		Base:   base,
	}

	return &Client{baseURL: c.baseURL, httpClient: &authed, token: token}
}

// Authenticated reports whether c carries a session token.
func (c *Client) Authenticated() bool { return c.token != "" }

// BaseURL is the server address c talks to.
func (c *Client) BaseURL() string { return c.baseURL }

// response is the union of every success envelope the server sends.
type response struct {
	Success   bool               `json:"success"`
	Error     string             `json:"error"`
	Status    string             `json:"status"`
	Token     string             `json:"token"`
	User      *models.User       `json:"user"`
	Playlist  *models.Playlist   `json:"playlist"`
	Playlists []*models.Playlist `json:"playlists"`
	Song      *models.Song       `json:"song"`
	Songs     []*models.Song     `json:"songs"`
}

// Health checks that the server is reachable.
func (c *Client) Health(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodGet, "/health", nil, nil)
	return err
}

// Register creates an account. It does not log in.
func (c *Client) Register(ctx context.Context, in services.RegisterInput) (*models.User, error) {
	resp, err := c.do(ctx, http.MethodPost, "/auth/register", nil, in)
	if err != nil {
		return nil, err
	}
	return resp.User, nil
}

// Login returns the user and a session token.
func (c *Client) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	resp, err := c.do(ctx, http.MethodPost, "/auth/login", nil, services.LoginInput{Email: email, Password: password})
	if err != nil {
		return nil, "", err
	}
	return resp.User, resp.Token, nil
}

func (c *Client) Me(ctx context.Context) (*models.User, error) {
	resp, err := c.do(ctx, http.MethodGet, "/auth/me", nil, nil)
	if err != nil {
		return nil, err
	}
	return resp.User, nil
}

func (c *Client) UpdateAccount(ctx context.Context, patch services.AccountPatch) (*models.User, error) {
	resp, err := c.do(ctx, http.MethodPut, "/auth/me", nil, patch)
	if err != nil {
		return nil, err
	}
	return resp.User, nil
}

// CreatePlaylist creates a playlist. An empty name lets the server pick Untitled{N}.
func (c *Client) CreatePlaylist(ctx context.Context, name string) (*models.Playlist, error) {
	resp, err := c.do(ctx, http.MethodPost, "/playlists", nil, map[string]string{"name": name})
	if err != nil {
		return nil, err
	}
	return resp.Playlist, nil
}

func (c *Client) ListPlaylists(ctx context.Context, criteria search.PlaylistCriteria) ([]*models.Playlist, error) {
	resp, err := c.do(ctx, http.MethodGet, "/playlists", criteria.Values(), nil)
	if err != nil {
		return nil, err
	}
	return resp.Playlists, nil
}

// GetPlaylist returns the playlist and its resolved songs in order.
func (c *Client) GetPlaylist(ctx context.Context, id string) (*models.Playlist, []*models.Song, error) {
	resp, err := c.do(ctx, http.MethodGet, "/playlists/"+url.PathEscape(id), nil, nil)
	if err != nil {
		return nil, nil, err
	}
	return resp.Playlist, resp.Songs, nil
}

func (c *Client) UpdatePlaylist(ctx context.Context, id string, patch services.PlaylistPatch) (*models.Playlist, error) {
	resp, err := c.do(ctx, http.MethodPut, "/playlists/"+url.PathEscape(id), nil, patch)
	if err != nil {
		return nil, err
	}
	return resp.Playlist, nil
}

func (c *Client) RenamePlaylist(ctx context.Context, id, name string) (*models.Playlist, error) {
	return c.UpdatePlaylist(ctx, id, services.PlaylistPatch{Name: &name})
}

// UpdatePlaylistSongs replaces the song list with songIDs in order.
func (c *Client) UpdatePlaylistSongs(ctx context.Context, id string, songIDs []string) (*models.Playlist, error) {
	if songIDs == nil {
		songIDs = []string{}
	}
	return c.UpdatePlaylist(ctx, id, services.PlaylistPatch{Songs: &songIDs})
}

func (c *Client) CopyPlaylist(ctx context.Context, id string) (*models.Playlist, error) {
	resp, err := c.do(ctx, http.MethodPost, "/playlists/"+url.PathEscape(id)+"/copy", nil, nil)
	if err != nil {
		return nil, err
	}
	return resp.Playlist, nil
}

func (c *Client) DeletePlaylist(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodDelete, "/playlists/"+url.PathEscape(id), nil, nil)
	return err
}

// PlayPlaylist records a play, anonymous when c carries no token.
func (c *Client) PlayPlaylist(ctx context.Context, id string) (*models.Playlist, error) {
	resp, err := c.do(ctx, http.MethodPost, "/playlists/"+url.PathEscape(id)+"/play", nil, nil)
	if err != nil {
		return nil, err
	}
	return resp.Playlist, nil
}

func (c *Client) CreateSong(ctx context.Context, in services.SongInput) (*models.Song, error) {
	resp, err := c.do(ctx, http.MethodPost, "/songs", nil, in)
	if err != nil {
		return nil, err
	}
	return resp.Song, nil
}

func (c *Client) ListSongs(ctx context.Context, criteria search.SongCriteria) ([]*models.Song, error) {
	resp, err := c.do(ctx, http.MethodGet, "/songs", criteria.Values(), nil)
	if err != nil {
		return nil, err
	}
	return resp.Songs, nil
}

func (c *Client) GetSong(ctx context.Context, id string) (*models.Song, error) {
	resp, err := c.do(ctx, http.MethodGet, "/songs/"+url.PathEscape(id), nil, nil)
	if err != nil {
		return nil, err
	}
	return resp.Song, nil
}

func (c *Client) UpdateSong(ctx context.Context, id string, patch services.SongPatch) (*models.Song, error) {
	resp, err := c.do(ctx, http.MethodPut, "/songs/"+url.PathEscape(id), nil, patch)
	if err != nil {
		return nil, err
	}
	return resp.Song, nil
}

func (c *Client) DeleteSong(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodDelete, "/songs/"+url.PathEscape(id), nil, nil)
	return err
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any) (*response, error) {
	fullURL := c.baseURL + path
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %v", shared.ErrAPIRequest, method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var out response
	if len(data) > 0 {
		if err := json.Unmarshal(data, &out); err != nil {
			if resp.StatusCode >= 400 {
				return nil, statusError(resp.StatusCode, strings.TrimSpace(string(data)))
			}
			return nil, fmt.Errorf("failed to decode response: %w", err)
		}
	}

	if resp.StatusCode >= 400 {
		return nil, statusError(resp.StatusCode, out.Error)
	}
	return &out, nil
}

// statusError maps an error response back to a shared sentinel.
func statusError(status int, msg string) error {
	if msg == "" {
		msg = http.StatusText(status)
	}

	var sentinel error
	switch status {
	case http.StatusBadRequest:
		switch {
		case strings.Contains(msg, shared.ErrDuplicateName.Error()):
			sentinel = shared.ErrDuplicateName
		case strings.Contains(msg, shared.ErrDuplicateSong.Error()):
			sentinel = shared.ErrDuplicateSong
		default:
			sentinel = shared.ErrValidation
		}
	case http.StatusUnauthorized:
		sentinel = shared.ErrUnauthorized
	case http.StatusForbidden:
		sentinel = shared.ErrForbidden
	case http.StatusNotFound:
		sentinel = shared.ErrNotFound
	default:
		sentinel = shared.ErrAPIRequest
	}

	if msg == sentinel.Error() {
		return sentinel
	}
	return fmt.Errorf("%w: %s", sentinel, msg)
}
