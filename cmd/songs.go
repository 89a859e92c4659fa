package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/playlister/internal/models"
	"github.com/desertthunder/playlister/internal/search"
	"github.com/desertthunder/playlister/internal/services"
	"github.com/desertthunder/playlister/internal/shared"
	"github.com/urfave/cli/v3"
)

// SongsList searches the catalog.
func (r *Runner) SongsList(ctx context.Context, cmd *cli.Command) error {
	songs, err := r.api.ListSongs(ctx, search.SongCriteria{
		Title:     cmd.String("title"),
		Artist:    cmd.String("artist"),
		Year:      cmd.Int("year"),
		SortBy:    cmd.String("sort"),
		SortOrder: search.Order(cmd.String("order")),
	})
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(songs, cmd.Bool("pretty"))
	}

	r.writePlain("Found %d songs:\n\n", len(songs))
	for i, s := range songs {
		r.writePlain("%d. %s - %s (%d)\n", i+1, s.Artist, s.Title, s.Year)
		r.writePlain("   ID: %s\n", s.ID)
		r.writePlain("   Listens: %d, Playlists: %d\n", s.Listens, s.PlaylistCount)
	}
	return nil
}

// SongsShow prints one song.
func (r *Runner) SongsShow(ctx context.Context, cmd *cli.Command) error {
	id, err := requireArg(cmd, "id")
	if err != nil {
		return err
	}

	song, err := r.api.GetSong(ctx, id)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(song, cmd.Bool("pretty"))
	}
	r.printSong(song)
	return nil
}

// SongsAdd adds a song to the catalog as the logged in user.
func (r *Runner) SongsAdd(ctx context.Context, cmd *cli.Command) error {
	c, err := r.session()
	if err != nil {
		return err
	}

	song, err := c.CreateSong(ctx, services.SongInput{
		Title:    cmd.String("title"),
		Artist:   cmd.String("artist"),
		Year:     cmd.Int("year"),
		VideoRef: cmd.String("video"),
	})
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(song, cmd.Bool("pretty"))
	}
	r.writePlain("✓ Added %s - %s\n", song.Artist, song.Title)
	r.writePlain("   ID: %s\n", song.ID)
	return nil
}

// SongsEdit updates the flags that were given on a song the logged in user added.
func (r *Runner) SongsEdit(ctx context.Context, cmd *cli.Command) error {
	id, err := requireArg(cmd, "id")
	if err != nil {
		return err
	}

	var patch services.SongPatch
	if cmd.IsSet("title") {
		title := cmd.String("title")
		patch.Title = &title
	}
	if cmd.IsSet("artist") {
		artist := cmd.String("artist")
		patch.Artist = &artist
	}
	if cmd.IsSet("year") {
		year := cmd.Int("year")
		patch.Year = &year
	}
	if cmd.IsSet("video") {
		video := cmd.String("video")
		patch.VideoRef = &video
	}
	if patch == (services.SongPatch{}) {
		return fmt.Errorf("%w: one of --title, --artist, --year, or --video is required", shared.ErrMissingArgument)
	}

	c, err := r.session()
	if err != nil {
		return err
	}
	song, err := c.UpdateSong(ctx, id, patch)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(song, cmd.Bool("pretty"))
	}
	r.writePlain("✓ Song updated\n\n")
	r.printSong(song)
	return nil
}

// SongsDelete deletes a song the logged in user added.
func (r *Runner) SongsDelete(ctx context.Context, cmd *cli.Command) error {
	id, err := requireArg(cmd, "id")
	if err != nil {
		return err
	}
	c, err := r.session()
	if err != nil {
		return err
	}

	if err := c.DeleteSong(ctx, id); err != nil {
		return err
	}
	return r.writePlain("✓ Deleted song %s\n", id)
}

// SongsOpen opens the song's video in the system browser.
func (r *Runner) SongsOpen(ctx context.Context, cmd *cli.Command) error {
	id, err := requireArg(cmd, "id")
	if err != nil {
		return err
	}

	song, err := r.api.GetSong(ctx, id)
	if err != nil {
		return err
	}
	if song.VideoRef == "" {
		return fmt.Errorf("%w: %s has no video", shared.ErrValidation, song.Title)
	}

	url := shared.VideoURL(song.VideoRef)
	r.logger.Info("opening video", "url", url)
	if err := r.browse(url); err != nil {
		return err
	}
	return r.writePlain("▶ %s - %s\n%s\n", song.Artist, song.Title, url)
}

func (r *Runner) printSong(s *models.Song) {
	r.writePlain("Title: %s\n", s.Title)
	r.writePlain("Artist: %s\n", s.Artist)
	r.writePlain("Year: %d\n", s.Year)
	if s.VideoRef != "" {
		r.writePlain("Video: %s\n", shared.VideoURL(s.VideoRef))
	}
	r.writePlain("Listens: %d\n", s.Listens)
	r.writePlain("Playlists: %d\n", s.PlaylistCount)
	r.writePlain("ID: %s\n", s.ID)
}
