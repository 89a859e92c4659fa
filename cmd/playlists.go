package main

import (
	"context"
	"fmt"
	"sync"

	"github.com/desertthunder/playlister/internal/client"
	"github.com/desertthunder/playlister/internal/formatter"
	"github.com/desertthunder/playlister/internal/models"
	"github.com/desertthunder/playlister/internal/search"
	"github.com/desertthunder/playlister/internal/shared"
	"github.com/desertthunder/playlister/internal/tasks"
	"github.com/urfave/cli/v3"
)

func playlistCriteria(cmd *cli.Command) search.PlaylistCriteria {
	return search.PlaylistCriteria{
		PlaylistName: cmd.String("name"),
		UserName:     cmd.String("user"),
		SongTitle:    cmd.String("song-title"),
		SongArtist:   cmd.String("song-artist"),
		SongYear:     cmd.Int("song-year"),
		SortBy:       cmd.String("sort"),
		SortOrder:    search.Order(cmd.String("order")),
	}
}

func requireArg(cmd *cli.Command, name string) (string, error) {
	v := cmd.StringArg(name)
	if v == "" {
		return "", fmt.Errorf("%w: <%s> is required", shared.ErrMissingArgument, name)
	}
	return v, nil
}

// PlaylistsList searches playlists.
func (r *Runner) PlaylistsList(ctx context.Context, cmd *cli.Command) error {
	criteria := playlistCriteria(cmd)
	r.logger.Debug("listing playlists", "criteria", criteria.Values().Encode())

	playlists, err := r.api.ListPlaylists(ctx, criteria)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(playlists, cmd.Bool("pretty"))
	}

	r.writePlain("Found %d playlists:\n\n", len(playlists))
	for i, p := range playlists {
		r.writePlain("%d. %s\n", i+1, p.Name)
		r.printPlaylistSummary(p)
		r.writePlain("\n")
	}
	return nil
}

// PlaylistsShow prints a playlist and its songs in order.
func (r *Runner) PlaylistsShow(ctx context.Context, cmd *cli.Command) error {
	id, err := requireArg(cmd, "id")
	if err != nil {
		return err
	}

	p, songs, err := r.api.GetPlaylist(ctx, id)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(formatter.PlaylistExport{Playlist: p, Songs: songs}, cmd.Bool("pretty"))
	}

	r.writePlainHeader(p.Name)
	r.printPlaylistSummary(p)
	r.writePlainln("Songs:")
	if len(songs) == 0 {
		r.writePlain("  (empty)\n")
	}
	for i, s := range songs {
		r.writePlain("%2d. %s - %s (%d)\n", i+1, s.Artist, s.Title, s.Year)
	}
	return nil
}

// PlaylistsCreate creates a playlist owned by the logged in user.
func (r *Runner) PlaylistsCreate(ctx context.Context, cmd *cli.Command) error {
	c, err := r.session()
	if err != nil {
		return err
	}

	p, err := c.CreatePlaylist(ctx, cmd.StringArg("name"))
	if err != nil {
		return err
	}
	return r.writePlaylistResult(cmd, "Created", p)
}

// PlaylistsRename renames a playlist the logged in user owns.
func (r *Runner) PlaylistsRename(ctx context.Context, cmd *cli.Command) error {
	id, err := requireArg(cmd, "id")
	if err != nil {
		return err
	}
	name, err := requireArg(cmd, "name")
	if err != nil {
		return err
	}
	c, err := r.session()
	if err != nil {
		return err
	}

	p, err := c.RenamePlaylist(ctx, id, name)
	if err != nil {
		return err
	}
	return r.writePlaylistResult(cmd, "Renamed", p)
}

// PlaylistsCopy copies any playlist into the logged in user's account.
func (r *Runner) PlaylistsCopy(ctx context.Context, cmd *cli.Command) error {
	id, err := requireArg(cmd, "id")
	if err != nil {
		return err
	}
	c, err := r.session()
	if err != nil {
		return err
	}

	p, err := c.CopyPlaylist(ctx, id)
	if err != nil {
		return err
	}
	return r.writePlaylistResult(cmd, "Copied to", p)
}

// PlaylistsDelete deletes a playlist the logged in user owns.
func (r *Runner) PlaylistsDelete(ctx context.Context, cmd *cli.Command) error {
	id, err := requireArg(cmd, "id")
	if err != nil {
		return err
	}
	c, err := r.session()
	if err != nil {
		return err
	}

	if err := c.DeletePlaylist(ctx, id); err != nil {
		return err
	}
	return r.writePlain("✓ Deleted playlist %s\n", id)
}

// PlaylistsPlay records a play, as the logged in user when there is a session.
func (r *Runner) PlaylistsPlay(ctx context.Context, cmd *cli.Command) error {
	id, err := requireArg(cmd, "id")
	if err != nil {
		return err
	}

	var c *client.Client
	if c, err = r.session(); err != nil {
		r.logger.Debug("playing anonymously", "reason", err)
		c = r.api
	}

	p, err := c.PlayPlaylist(ctx, id)
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return r.writeJSON(p, cmd.Bool("pretty"))
	}
	return r.writePlain("▶ %s (%d plays, %d listeners)\n", p.Name, p.Plays, p.ListenerCount())
}

// PlaylistsExport writes one playlist, or every playlist matching the criteria flags, to disk.
func (r *Runner) PlaylistsExport(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}
	dir := cmd.String("output")

	if id := cmd.StringArg("id"); id != "" {
		if dir == "" {
			dir = "."
		}
		files, err := r.engine.Export(ctx, id, format, dir)
		if err != nil {
			return err
		}
		r.writePlain("✓ Exported %s\n", id)
		for _, f := range files {
			r.writePlain("  %s\n", f)
		}
		return nil
	}

	progress := make(chan tasks.ProgressUpdate, 16)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for update := range progress {
			r.logger.Info(update.Message, "phase", update.Phase, "step", update.Step, "total", update.Total)
		}
	}()

	result, err := r.engine.ExportMatching(ctx, progress, playlistCriteria(cmd), tasks.BulkExportOpts{
		Format:     format,
		OutputDir:  dir,
		NumWorkers: cmd.Int("workers"),
	})
	close(progress)
	wg.Wait()
	if err != nil {
		return err
	}

	r.writePlainHeader("Export complete")
	r.writePlain("Playlists: %d\n", result.TotalPlaylists)
	r.writePlain("Succeeded: %d\n", result.SuccessfulExports)
	r.writePlain("Failed: %d\n", result.FailedExports)
	r.writePlain("Directory: %s\n", result.OutputDirectory)
	if result.ManifestPath != "" {
		r.writePlain("Manifest: %s\n", result.ManifestPath)
	}
	for _, res := range result.Results {
		if !res.Success {
			r.writePlain("  ✗ %s: %v\n", res.PlaylistID, res.Error)
		}
	}
	return nil
}

func (r *Runner) writePlaylistResult(cmd *cli.Command, verb string, p *models.Playlist) error {
	if cmd.Bool("json") {
		return r.writeJSON(p, cmd.Bool("pretty"))
	}
	r.writePlain("✓ %s playlist %q\n", verb, p.Name)
	r.writePlain("   ID: %s\n", p.ID)
	return nil
}

func (r *Runner) printPlaylistSummary(p *models.Playlist) {
	r.writePlain("   ID: %s\n", p.ID)
	if p.OwnerName != "" {
		r.writePlain("   Owner: %s\n", p.OwnerName)
	}
	r.writePlain("   Songs: %d\n", len(p.Songs))
	r.writePlain("   Plays: %d, Listeners: %d\n", p.Plays, p.ListenerCount())
}
