package formatter

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/playlister/internal/models"
	"github.com/desertthunder/playlister/internal/shared"
	th "github.com/desertthunder/playlister/internal/testing"
)

func sampleExport() *PlaylistExport {
	return &PlaylistExport{
		Playlist: &models.Playlist{
			ID:        "pl123",
			Name:      "Road Trip",
			OwnerName: "Ada",
			Songs:     models.NewSongList([]string{"s1", "s2"}),
			Listeners: []string{"u1", "u2", "u3"},
			Plays:     7,
		},
		Songs: []*models.Song{
			{ID: "s1", Title: "Song One", Artist: "Artist One", Year: 1999, VideoRef: "abc123"},
			{ID: "s2", Title: "Song, Two", Artist: "Artist Two", Year: 2004},
		},
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want Format
	}{
		{"", FormatJSON},
		{"json", FormatJSON},
		{"CSV", FormatCSV},
		{"md", FormatMarkdown},
		{"markdown", FormatMarkdown},
		{"text", FormatText},
		{"txt", FormatText},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}

	t.Run("unknown", func(t *testing.T) {
		_, err := ParseFormat("xml")
		if !errors.Is(err, shared.ErrInvalidFlag) {
			t.Errorf("expected ErrInvalidFlag, got %v", err)
		}
	})
}

func TestExporters(t *testing.T) {
	t.Run("ExportToCSV", func(t *testing.T) {
		data, err := ExportToCSV(sampleExport())
		if err != nil {
			t.Fatalf("ExportToCSV failed: %v", err)
		}

		output := string(data)
		if !strings.HasPrefix(output, "Position,ID,Title,Artist,Year,Video\n") {
			t.Errorf("CSV missing headers, got: %s", output)
		}
		if !strings.Contains(output, "1,s1,Song One,Artist One,1999,https://www.youtube.com/watch?v=abc123") {
			t.Errorf("CSV missing first row, got: %s", output)
		}
		if !strings.Contains(output, `2,s2,"Song, Two",Artist Two,2004,`) {
			t.Errorf("CSV should quote commas and leave empty video, got: %s", output)
		}
	})

	t.Run("ExportToMarkdown", func(t *testing.T) {
		data, err := ExportToMarkdown(sampleExport())
		if err != nil {
			t.Fatalf("ExportToMarkdown failed: %v", err)
		}

		output := string(data)
		expected := []string{
			"# Road Trip",
			"**Owner**: Ada",
			"**Songs**: 2",
			"**Plays**: 7",
			"**Listeners**: 3",
			"1. Artist One - Song One (1999) [watch](https://www.youtube.com/watch?v=abc123)",
			"2. Artist Two - Song, Two (2004)\n",
		}
		for _, want := range expected {
			if !strings.Contains(output, want) {
				t.Errorf("Markdown missing %q, got:\n%s", want, output)
			}
		}
	})

	t.Run("ExportToText", func(t *testing.T) {
		data, err := ExportToText(sampleExport())
		if err != nil {
			t.Fatalf("ExportToText failed: %v", err)
		}

		output := string(data)
		if !strings.Contains(output, "Playlist: Road Trip\n") {
			t.Errorf("text missing name, got: %s", output)
		}
		if !strings.Contains(output, "Songs: 2\n") {
			t.Errorf("text missing count, got: %s", output)
		}
		if !strings.Contains(output, "2. Artist Two - Song, Two (2004)") {
			t.Errorf("text missing song, got: %s", output)
		}
	})

	t.Run("ExportToText with empty playlist", func(t *testing.T) {
		export := &PlaylistExport{Playlist: &models.Playlist{ID: "e", Name: "Empty"}}
		data, err := ExportToText(export)
		if err != nil {
			t.Fatalf("ExportToText failed: %v", err)
		}
		if !strings.Contains(string(data), "Songs: 0") {
			t.Errorf("expected zero songs, got: %s", data)
		}
	})

	t.Run("ToMetadataJSON omits songs", func(t *testing.T) {
		data, err := ToMetadataJSON(sampleExport().Playlist)
		if err != nil {
			t.Fatalf("ToMetadataJSON failed: %v", err)
		}

		var decoded map[string]any
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if decoded["songs"] != nil {
			t.Errorf("expected null songs, got %v", decoded["songs"])
		}
		if decoded["listenerCount"] != float64(3) {
			t.Errorf("expected listenerCount 3, got %v", decoded["listenerCount"])
		}
	})
}

func TestWriters(t *testing.T) {
	t.Run("WriteCSVExport", func(t *testing.T) {
		base := filepath.Join(t.TempDir(), "out")
		res, err := WriteCSVExport(sampleExport(), base)
		if err != nil {
			t.Fatalf("WriteCSVExport failed: %v", err)
		}

		th.AssertFileExists(t, res.SongsFile)
		th.AssertFileExists(t, res.MetadataFile)
		if res.SongsFile != base+"_songs.csv" {
			t.Errorf("unexpected songs file %s", res.SongsFile)
		}
		if !strings.Contains(th.MustReadFile(t, res.MetadataFile), `"name": "Road Trip"`) {
			t.Error("metadata file missing playlist name")
		}
	})

	t.Run("WriteMarkdownExport", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "md")
		path, err := WriteMarkdownExport(sampleExport(), dir)
		if err != nil {
			t.Fatalf("WriteMarkdownExport failed: %v", err)
		}

		th.AssertDirExists(t, dir)
		if path != filepath.Join(dir, "README.md") {
			t.Errorf("unexpected path %s", path)
		}
		if !strings.HasPrefix(th.MustReadFile(t, path), "# Road Trip") {
			t.Error("README should start with the playlist heading")
		}
	})

	t.Run("WriteTextExport", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "songs.txt")
		got, err := WriteTextExport(sampleExport(), path)
		if err != nil {
			t.Fatalf("WriteTextExport failed: %v", err)
		}
		if got != path {
			t.Errorf("expected %s, got %s", path, got)
		}
		th.AssertFileExists(t, path)
	})

	t.Run("WriteTextExport to missing directory fails", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "missing", "songs.txt")
		if _, err := WriteTextExport(sampleExport(), path); err == nil {
			t.Error("expected error for missing directory")
		}
	})

	t.Run("WriteJSONExport round trips", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "pl.json")
		if _, err := WriteJSONExport(sampleExport(), path); err != nil {
			t.Fatalf("WriteJSONExport failed: %v", err)
		}

		var decoded PlaylistExport
		if err := json.Unmarshal([]byte(th.MustReadFile(t, path)), &decoded); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if decoded.Playlist.Name != "Road Trip" || len(decoded.Songs) != 2 {
			t.Errorf("unexpected decoded export: %+v", decoded)
		}
	})
}

func TestWriteExport(t *testing.T) {
	tests := []struct {
		format Format
		files  []string
	}{
		{FormatJSON, []string{"pl123.json"}},
		{FormatCSV, []string{"pl123_songs.csv", "pl123_metadata.json"}},
		{FormatMarkdown, []string{filepath.Join("pl123", "README.md")}},
		{FormatText, []string{"pl123_songs.txt"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			dir := t.TempDir()
			files, err := WriteExport(sampleExport(), tt.format, dir)
			if err != nil {
				t.Fatalf("WriteExport failed: %v", err)
			}
			if len(files) != len(tt.files) {
				t.Fatalf("expected %d files, got %v", len(tt.files), files)
			}
			for i, name := range tt.files {
				want := filepath.Join(dir, name)
				if files[i] != want {
					t.Errorf("expected %s, got %s", want, files[i])
				}
				th.AssertFileExists(t, want)
			}
		})
	}
}

func TestWriteBulkExportManifest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "export_manifest.json")
	m := &Manifest{
		Format:     FormatCSV,
		ExportedAt: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
		Total:      2,
		Succeeded:  1,
		Failed:     1,
		Playlists: []ManifestEntry{
			{PlaylistID: "a", PlaylistName: "A", Success: true, Files: []string{"a.csv"}},
			{PlaylistID: "b", PlaylistName: "B", Error: "boom"},
		},
	}

	if err := WriteBulkExportManifest(m, path); err != nil {
		t.Fatalf("WriteBulkExportManifest failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read manifest: %v", err)
	}
	var decoded Manifest
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("invalid manifest JSON: %v", err)
	}
	if decoded.Format != FormatCSV || decoded.Succeeded != 1 || decoded.Failed != 1 {
		t.Errorf("unexpected manifest: %+v", decoded)
	}
	if decoded.Playlists[1].Error != "boom" {
		t.Errorf("expected error entry, got %+v", decoded.Playlists[1])
	}
	if strings.Contains(string(data), `"files": null`) {
		t.Error("empty files should be omitted")
	}
}
