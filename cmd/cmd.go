package main

import (
	"github.com/urfave/cli/v3"
)

// outputFlags appends the --json and --pretty switches to flags.
func outputFlags(flags ...cli.Flag) []cli.Flag {
	return append(flags,
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Output raw JSON",
		},
		&cli.BoolFlag{
			Name:  "pretty",
			Usage: "Pretty-print JSON output",
			Value: true,
		},
	)
}

func idArg() []cli.Argument {
	return []cli.Argument{&cli.StringArg{Name: "id"}}
}

// serveCommand runs the REST API.
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the playlist API server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "host",
				Usage: "Interface to listen on (overrides config)",
			},
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to listen on (overrides config)",
			},
		},
		Action: r.Serve,
	}
}

// setupCommand handles setup operations for the database and configuration file.
func setupCommand(r *Runner) *cli.Command {
	path := r.configPath
	if path == "" {
		path = "config.toml"
	}
	configFlag := &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   path,
	}

	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:  "database",
				Usage: "Initialize database and run migrations",
				Flags: []cli.Flag{
					configFlag,
					&cli.BoolFlag{
						Name:  "status",
						Usage: "Show applied migrations instead of running them",
					},
					&cli.BoolFlag{
						Name:  "rollback",
						Usage: "Roll back the most recent migration",
					},
				},
				Action: r.SetupDatabase,
			},
			{
				Name:   "config",
				Usage:  "Write an example configuration file",
				Flags:  []cli.Flag{configFlag},
				Action: r.SetupConfig,
			},
		},
	}
}

// authCommand handles account and session operations
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage your account and session",
		Commands: []*cli.Command{
			{
				Name:  "register",
				Usage: "Create an account",
				Flags: outputFlags(
					&cli.StringFlag{Name: "email", Usage: "Account email", Required: true},
					&cli.StringFlag{Name: "name", Usage: "Display name", Required: true},
					&cli.StringFlag{Name: "password", Usage: "Password (at least 8 characters)", Required: true},
					&cli.StringFlag{Name: "password-confirm", Usage: "Password confirmation (defaults to --password)"},
					&cli.StringFlag{Name: "avatar", Usage: "Avatar image URL"},
				),
				Action: r.AuthRegister,
			},
			{
				Name:  "login",
				Usage: "Log in and save the session token",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "email", Usage: "Account email", Required: true},
					&cli.StringFlag{Name: "password", Usage: "Password", Required: true},
				},
				Action: r.AuthLogin,
			},
			{
				Name:   "me",
				Usage:  "Show the logged in account",
				Flags:  outputFlags(),
				Action: r.AuthMe,
			},
			{
				Name:  "update",
				Usage: "Edit display name, avatar, or password",
				Flags: outputFlags(
					&cli.StringFlag{Name: "name", Usage: "New display name"},
					&cli.StringFlag{Name: "avatar", Usage: "New avatar image URL"},
					&cli.StringFlag{Name: "password", Usage: "New password"},
					&cli.StringFlag{Name: "password-confirm", Usage: "New password confirmation (defaults to --password)"},
				),
				Action: r.AuthUpdate,
			},
			{
				Name:   "logout",
				Usage:  "Forget the saved session token",
				Action: r.AuthLogout,
			},
		},
	}
}

func playlistCriteriaFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "name", Usage: "Playlist name contains"},
		&cli.StringFlag{Name: "user", Usage: "Owner display name contains"},
		&cli.StringFlag{Name: "song-title", Usage: "Has a song whose title contains"},
		&cli.StringFlag{Name: "song-artist", Usage: "Has a song whose artist contains"},
		&cli.IntFlag{Name: "song-year", Usage: "Has a song from this year"},
		&cli.StringFlag{Name: "sort", Usage: "Sort key: listeners, plays, name, userName"},
		&cli.StringFlag{Name: "order", Usage: "Sort order: asc or desc"},
	}
}

// playlistsCommand handles playlist operations
func playlistsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "playlists",
		Aliases: []string{"playlist", "pl"},
		Usage:   "Browse and manage playlists",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "Search playlists",
				Flags:  outputFlags(playlistCriteriaFlags()...),
				Action: r.PlaylistsList,
			},
			{
				Name:      "show",
				Usage:     "Show a playlist with its songs",
				Arguments: idArg(),
				Flags:     outputFlags(),
				Action:    r.PlaylistsShow,
			},
			{
				Name:  "create",
				Usage: "Create a playlist (an empty name picks the next UntitledN)",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "name"},
				},
				Flags:  outputFlags(),
				Action: r.PlaylistsCreate,
			},
			{
				Name:  "rename",
				Usage: "Rename one of your playlists",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
					&cli.StringArg{Name: "name"},
				},
				Flags:  outputFlags(),
				Action: r.PlaylistsRename,
			},
			{
				Name:      "copy",
				Usage:     "Copy a playlist into your account",
				Arguments: idArg(),
				Flags:     outputFlags(),
				Action:    r.PlaylistsCopy,
			},
			{
				Name:      "delete",
				Usage:     "Delete one of your playlists",
				Arguments: idArg(),
				Action:    r.PlaylistsDelete,
			},
			{
				Name:      "play",
				Usage:     "Record a play of a playlist",
				Arguments: idArg(),
				Flags:     outputFlags(),
				Action:    r.PlaylistsPlay,
			},
			{
				Name:      "export",
				Usage:     "Export one playlist, or every playlist matching the filters",
				Arguments: idArg(),
				Flags: append(playlistCriteriaFlags(),
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Export format: json, csv, markdown, txt",
						Value:   "json",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output directory (default: current directory, or playlister_export_{epoch} for bulk)",
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Concurrent export workers for bulk export",
						Value: 5,
					},
				),
				Action: r.PlaylistsExport,
			},
		},
	}
}

// songsCommand handles song catalog operations
func songsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "songs",
		Aliases: []string{"song"},
		Usage:   "Browse and manage the song catalog",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "Search songs",
				Flags: outputFlags(
					&cli.StringFlag{Name: "title", Usage: "Title contains"},
					&cli.StringFlag{Name: "artist", Usage: "Artist contains"},
					&cli.IntFlag{Name: "year", Usage: "Release year"},
					&cli.StringFlag{Name: "sort", Usage: "Sort key: listens, playlists, title, artist, year"},
					&cli.StringFlag{Name: "order", Usage: "Sort order: asc or desc"},
				),
				Action: r.SongsList,
			},
			{
				Name:      "show",
				Usage:     "Show a song",
				Arguments: idArg(),
				Flags:     outputFlags(),
				Action:    r.SongsShow,
			},
			{
				Name:  "add",
				Usage: "Add a song to the catalog",
				Flags: outputFlags(
					&cli.StringFlag{Name: "title", Usage: "Song title", Required: true},
					&cli.StringFlag{Name: "artist", Usage: "Artist", Required: true},
					&cli.IntFlag{Name: "year", Usage: "Release year", Required: true},
					&cli.StringFlag{Name: "video", Usage: "YouTube video id"},
				),
				Action: r.SongsAdd,
			},
			{
				Name:      "edit",
				Usage:     "Edit a song you added",
				Arguments: idArg(),
				Flags: outputFlags(
					&cli.StringFlag{Name: "title", Usage: "New title"},
					&cli.StringFlag{Name: "artist", Usage: "New artist"},
					&cli.IntFlag{Name: "year", Usage: "New release year"},
					&cli.StringFlag{Name: "video", Usage: "New YouTube video id"},
				),
				Action: r.SongsEdit,
			},
			{
				Name:      "delete",
				Usage:     "Delete a song you added (removes it from every playlist)",
				Arguments: idArg(),
				Action:    r.SongsDelete,
			},
			{
				Name:      "open",
				Usage:     "Open the song's video in the browser",
				Arguments: idArg(),
				Action:    r.SongsOpen,
			},
		},
	}
}

// editCommand returns the interactive playlist editor.
func editCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "edit",
		Aliases: []string{"ui"},
		Usage:   "Edit a playlist interactively (lists your playlists when no id is given)",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "playlist-id"},
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "Where to write logs while the editor owns the terminal",
				Value: "./tmp/playlister-edit.log",
			},
		},
		Action: r.Edit,
	}
}
