// package tasks runs long playlist jobs, currently exports, and reports progress over channels.
package tasks

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/playlister/internal/formatter"
	"github.com/desertthunder/playlister/internal/metrics"
	"github.com/desertthunder/playlister/internal/models"
	"github.com/desertthunder/playlister/internal/search"
)

// Source reads playlists. The REST client satisfies it.
type Source interface {
	ListPlaylists(ctx context.Context, criteria search.PlaylistCriteria) ([]*models.Playlist, error)
	GetPlaylist(ctx context.Context, id string) (*models.Playlist, []*models.Song, error)
}

// PlaylistExportJob is a fetched playlist waiting to be written.
type PlaylistExportJob struct {
	PlaylistID string
	Export     *formatter.PlaylistExport
}

// PlaylistExportResult is the outcome of exporting one playlist.
type PlaylistExportResult struct {
	PlaylistID   string
	PlaylistName string
	Success      bool
	Files        []string
	Error        error
}

// BulkExportResult summarizes a bulk export.
type BulkExportResult struct {
	TotalPlaylists    int
	SuccessfulExports int
	FailedExports     int
	OutputDirectory   string
	ManifestPath      string
	Results           []PlaylistExportResult
}

// Manifest converts r into the on-disk manifest.
func (r *BulkExportResult) Manifest(format formatter.Format, at time.Time) *formatter.Manifest {
	m := &formatter.Manifest{
		Format:     format,
		ExportedAt: at.UTC(),
		Total:      r.TotalPlaylists,
		Succeeded:  r.SuccessfulExports,
		Failed:     r.FailedExports,
		Playlists:  make([]formatter.ManifestEntry, 0, len(r.Results)),
	}
	for _, res := range r.Results {
		entry := formatter.ManifestEntry{
			PlaylistID:   res.PlaylistID,
			PlaylistName: res.PlaylistName,
			Success:      res.Success,
			Files:        res.Files,
		}
		if res.Error != nil {
			entry.Error = res.Error.Error()
		}
		m.Playlists = append(m.Playlists, entry)
	}
	return m
}

// ExportEngine exports playlists read from a [Source].
type ExportEngine struct {
	source Source
	logger *log.Logger
	now    func() time.Time
}

// NewExportEngine creates an [ExportEngine]. A nil logger discards output.
func NewExportEngine(source Source, logger *log.Logger) *ExportEngine {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &ExportEngine{source: source, logger: logger.WithPrefix("tasks"), now: time.Now}
}

// Fetch resolves one playlist into an export.
func (e *ExportEngine) Fetch(ctx context.Context, id string) (*formatter.PlaylistExport, error) {
	p, songs, err := e.source.GetPlaylist(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch playlist %s: %w", id, err)
	}
	return &formatter.PlaylistExport{Playlist: p, Songs: songs}, nil
}

// Export writes a single playlist in format under dir.
func (e *ExportEngine) Export(ctx context.Context, id string, format formatter.Format, dir string) ([]string, error) {
	start := e.now()

	export, err := e.Fetch(ctx, id)
	if err != nil {
		metrics.ExportsTotal.WithLabelValues(string(format), "failed").Inc()
		return nil, err
	}

	files, err := formatter.WriteExport(export, format, dir)
	if err != nil {
		metrics.ExportsTotal.WithLabelValues(string(format), "failed").Inc()
		return nil, err
	}

	metrics.ExportsTotal.WithLabelValues(string(format), "success").Inc()
	metrics.ExportDuration.Observe(time.Since(start).Seconds())
	e.logger.Debug("playlist exported", "id", id, "format", format, "files", len(files))
	return files, nil
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func (e *ExportEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}
