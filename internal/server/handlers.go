package server

import (
	"net/http"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/playlister/internal/auth"
	"github.com/desertthunder/playlister/internal/metrics"
	"github.com/desertthunder/playlister/internal/search"
	"github.com/desertthunder/playlister/internal/services"
)

// HealthHandler answers liveness checks.
type HealthHandler struct{}

func (h *HealthHandler) Routes() []Route {
	return []Route{{Method: http.MethodGet, Path: "/health", Handler: http.HandlerFunc(h.health)}}
}

func (h *HealthHandler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, envelope{"status": "ok"})
}

// AuthHandler serves registration, login, and the current account.
type AuthHandler struct {
	accounts services.Accounts
	logger   *log.Logger
}

// NewAuthHandler creates an [AuthHandler].
func NewAuthHandler(accounts services.Accounts, logger *log.Logger) *AuthHandler {
	return &AuthHandler{accounts: accounts, logger: logger}
}

func (h *AuthHandler) Routes() []Route {
	return []Route{
		{Method: http.MethodPost, Path: "/auth/register", Handler: http.HandlerFunc(h.register)},
		{Method: http.MethodPost, Path: "/auth/login", Handler: http.HandlerFunc(h.login)},
		{Method: http.MethodGet, Path: "/auth/me", Handler: RequireAuth(http.HandlerFunc(h.me))},
		{Method: http.MethodPut, Path: "/auth/me", Handler: RequireAuth(http.HandlerFunc(h.updateMe))},
	}
}

func (h *AuthHandler) register(w http.ResponseWriter, r *http.Request) {
	var in services.RegisterInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, h.logger, err)
		return
	}

	user, err := h.accounts.Register(r.Context(), in)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	metrics.Mutation("user", "create")
	writeJSON(w, http.StatusCreated, envelope{"user": user})
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	var in services.LoginInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, h.logger, err)
		return
	}

	user, token, err := h.accounts.Login(r.Context(), in)
	if err != nil {
		metrics.AuthFailures.WithLabelValues("login").Inc()
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"user": user, "token": token})
}

func (h *AuthHandler) me(w http.ResponseWriter, r *http.Request) {
	user, err := h.accounts.Me(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"user": user})
}

func (h *AuthHandler) updateMe(w http.ResponseWriter, r *http.Request) {
	var patch services.AccountPatch
	if err := decodeJSON(r, &patch); err != nil {
		writeError(w, h.logger, err)
		return
	}

	user, err := h.accounts.UpdateAccount(r.Context(), auth.UserID(r.Context()), patch)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	metrics.Mutation("user", "update")
	writeJSON(w, http.StatusOK, envelope{"user": user})
}

// PlaylistHandler serves the playlist resource.
type PlaylistHandler struct {
	playlists services.Playlists
	logger    *log.Logger
}

// NewPlaylistHandler creates a [PlaylistHandler].
func NewPlaylistHandler(playlists services.Playlists, logger *log.Logger) *PlaylistHandler {
	return &PlaylistHandler{playlists: playlists, logger: logger}
}

func (h *PlaylistHandler) Routes() []Route {
	return []Route{
		{Method: http.MethodPost, Path: "/playlists", Handler: RequireAuth(http.HandlerFunc(h.create))},
		{Method: http.MethodGet, Path: "/playlists", Handler: http.HandlerFunc(h.list)},
		{Method: http.MethodGet, Path: "/playlists/{id}", Handler: http.HandlerFunc(h.get)},
		{Method: http.MethodPut, Path: "/playlists/{id}", Handler: RequireAuth(http.HandlerFunc(h.update))},
		{Method: http.MethodDelete, Path: "/playlists/{id}", Handler: RequireAuth(http.HandlerFunc(h.delete))},
		{Method: http.MethodPost, Path: "/playlists/{id}/copy", Handler: RequireAuth(http.HandlerFunc(h.copy))},
		{Method: http.MethodPost, Path: "/playlists/{id}/play", Handler: http.HandlerFunc(h.play)},
	}
}

func (h *PlaylistHandler) create(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name string `json:"name"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, h.logger, err)
		return
	}

	p, err := h.playlists.Create(r.Context(), auth.UserID(r.Context()), body.Name)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	metrics.Mutation("playlist", "create")
	writeJSON(w, http.StatusCreated, envelope{"playlist": p})
}

func (h *PlaylistHandler) list(w http.ResponseWriter, r *http.Request) {
	criteria, err := search.ParsePlaylistCriteria(r.URL.Query())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	items, err := h.playlists.List(r.Context(), criteria)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"playlists": items})
}

func (h *PlaylistHandler) get(w http.ResponseWriter, r *http.Request) {
	p, songs, err := h.playlists.GetWithSongs(r.Context(), Vars(r)["id"])
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"playlist": p, "songs": songs})
}

func (h *PlaylistHandler) update(w http.ResponseWriter, r *http.Request) {
	var patch services.PlaylistPatch
	if err := decodeJSON(r, &patch); err != nil {
		writeError(w, h.logger, err)
		return
	}

	p, err := h.playlists.Update(r.Context(), Vars(r)["id"], auth.UserID(r.Context()), patch)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	metrics.Mutation("playlist", "update")
	writeJSON(w, http.StatusOK, envelope{"playlist": p})
}

func (h *PlaylistHandler) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.playlists.Delete(r.Context(), Vars(r)["id"], auth.UserID(r.Context())); err != nil {
		writeError(w, h.logger, err)
		return
	}
	metrics.Mutation("playlist", "delete")
	writeJSON(w, http.StatusOK, nil)
}

func (h *PlaylistHandler) copy(w http.ResponseWriter, r *http.Request) {
	p, err := h.playlists.Copy(r.Context(), Vars(r)["id"], auth.UserID(r.Context()))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	metrics.Mutation("playlist", "copy")
	writeJSON(w, http.StatusCreated, envelope{"playlist": p})
}

func (h *PlaylistHandler) play(w http.ResponseWriter, r *http.Request) {
	p, err := h.playlists.Play(r.Context(), Vars(r)["id"], auth.UserID(r.Context()))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	metrics.PlaylistPlays.Inc()
	writeJSON(w, http.StatusOK, envelope{"playlist": p})
}

// SongHandler serves the song catalog.
type SongHandler struct {
	songs  services.Songs
	logger *log.Logger
}

// NewSongHandler creates a [SongHandler].
func NewSongHandler(songs services.Songs, logger *log.Logger) *SongHandler {
	return &SongHandler{songs: songs, logger: logger}
}

func (h *SongHandler) Routes() []Route {
	return []Route{
		{Method: http.MethodPost, Path: "/songs", Handler: RequireAuth(http.HandlerFunc(h.create))},
		{Method: http.MethodGet, Path: "/songs", Handler: http.HandlerFunc(h.list)},
		{Method: http.MethodGet, Path: "/songs/{id}", Handler: http.HandlerFunc(h.get)},
		{Method: http.MethodPut, Path: "/songs/{id}", Handler: RequireAuth(http.HandlerFunc(h.update))},
		{Method: http.MethodDelete, Path: "/songs/{id}", Handler: RequireAuth(http.HandlerFunc(h.delete))},
	}
}

func (h *SongHandler) create(w http.ResponseWriter, r *http.Request) {
	var in services.SongInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, h.logger, err)
		return
	}

	song, err := h.songs.Create(r.Context(), auth.UserID(r.Context()), in)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	metrics.Mutation("song", "create")
	writeJSON(w, http.StatusCreated, envelope{"song": song})
}

func (h *SongHandler) list(w http.ResponseWriter, r *http.Request) {
	criteria, err := search.ParseSongCriteria(r.URL.Query())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	items, err := h.songs.List(r.Context(), criteria)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"songs": items})
}

func (h *SongHandler) get(w http.ResponseWriter, r *http.Request) {
	song, err := h.songs.Get(r.Context(), Vars(r)["id"])
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"song": song})
}

func (h *SongHandler) update(w http.ResponseWriter, r *http.Request) {
	var patch services.SongPatch
	if err := decodeJSON(r, &patch); err != nil {
		writeError(w, h.logger, err)
		return
	}

	song, err := h.songs.Update(r.Context(), Vars(r)["id"], auth.UserID(r.Context()), patch)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	metrics.Mutation("song", "update")
	writeJSON(w, http.StatusOK, envelope{"song": song})
}

func (h *SongHandler) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.songs.Delete(r.Context(), Vars(r)["id"], auth.UserID(r.Context())); err != nil {
		writeError(w, h.logger, err)
		return
	}
	metrics.Mutation("song", "delete")
	writeJSON(w, http.StatusOK, nil)
}
