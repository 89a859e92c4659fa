package tasks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/desertthunder/playlister/internal/formatter"
	"github.com/desertthunder/playlister/internal/metrics"
	"github.com/desertthunder/playlister/internal/search"
)

// BulkExportOpts contains configuration for bulk playlist exports.
type BulkExportOpts struct {
	Format     formatter.Format // Export format: json, csv, markdown, txt
	OutputDir  string           // Base output directory (default: playlister_export_{epoch})
	NumWorkers int              // Concurrent workers (default: 5, max 10)
	RateLimit  float64          // Fetches per second (default: 5)
}

func (o *BulkExportOpts) setDefaults(now time.Time) {
	if o.Format == "" {
		o.Format = formatter.FormatJSON
	}
	if o.OutputDir == "" {
		o.OutputDir = fmt.Sprintf("playlister_export_%d", now.Unix())
	}
	if o.NumWorkers <= 0 {
		o.NumWorkers = 5
	}
	if o.NumWorkers > 10 {
		o.NumWorkers = 10
	}
	if o.RateLimit <= 0 {
		o.RateLimit = 5.0
	}
}

// ExportMatching exports every playlist matching criteria.
func (e *ExportEngine) ExportMatching(
	ctx context.Context,
	prog chan<- ProgressUpdate,
	criteria search.PlaylistCriteria,
	opts BulkExportOpts,
) (*BulkExportResult, error) {
	playlists, err := e.source.ListPlaylists(ctx, criteria)
	if err != nil {
		return nil, fmt.Errorf("failed to list playlists: %w", err)
	}
	e.sendProgress(prog, fetchPlaylistsUpdate(len(playlists)))

	ids := make([]string, len(playlists))
	for i, p := range playlists {
		ids[i] = p.ID
	}
	return e.BulkExport(ctx, prog, ids, opts)
}

// BulkExport exports multiple playlists concurrently with rate limiting and progress tracking.
//
// A single producer fetches playlists at opts.RateLimit and feeds a pool of workers that
// write files. Failures are recorded per playlist; the run as a whole fails only when the
// output directory or the manifest cannot be written.
func (e *ExportEngine) BulkExport(
	ctx context.Context,
	prog chan<- ProgressUpdate,
	ids []string,
	opts BulkExportOpts,
) (*BulkExportResult, error) {
	opts.setDefaults(e.now())

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	result := &BulkExportResult{
		TotalPlaylists:  len(ids),
		OutputDirectory: opts.OutputDir,
		Results:         make([]PlaylistExportResult, 0, len(ids)),
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)

	jobs := make(chan PlaylistExportJob, len(ids))
	results := make(chan PlaylistExportResult, len(ids))

	var wg sync.WaitGroup
	for i := 0; i < opts.NumWorkers; i++ {
		wg.Add(1)
		go e.exportWorker(ctx, &wg, jobs, results, opts)
	}

	go func() {
		defer close(jobs)
		for i, id := range ids {
			if err := limiter.Wait(ctx); err != nil {
				return
			}

			e.sendProgress(prog, fetchingPlaylistUpdate(i+1, len(ids), id))
			export, err := e.Fetch(ctx, id)
			if err != nil {
				results <- PlaylistExportResult{
					PlaylistID:   id,
					PlaylistName: fmt.Sprintf("Unknown (%s)", id),
					Error:        err,
				}
				continue
			}

			jobs <- PlaylistExportJob{PlaylistID: id, Export: export}
			e.sendProgress(prog, exportingPlaylistUpdate(i+1, len(ids), export.Playlist.Name))
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	for res := range results {
		completed++
		result.Results = append(result.Results, res)

		if res.Success {
			result.SuccessfulExports++
			metrics.ExportsTotal.WithLabelValues(string(opts.Format), "success").Inc()
			e.sendProgress(prog, exportCompletedUpdate(completed, len(ids), res.PlaylistName, len(res.Files)))
		} else {
			result.FailedExports++
			metrics.ExportsTotal.WithLabelValues(string(opts.Format), "failed").Inc()
			e.sendProgress(prog, exportFailedUpdate(completed, len(ids), res.PlaylistName, res.Error))
		}
	}

	if err := ctx.Err(); err != nil {
		return result, fmt.Errorf("export cancelled: %w", err)
	}

	manifestPath := filepath.Join(opts.OutputDir, "export_manifest.json")
	if err := formatter.WriteBulkExportManifest(result.Manifest(opts.Format, e.now()), manifestPath); err != nil {
		return result, fmt.Errorf("export completed but failed to write manifest: %w", err)
	}
	result.ManifestPath = manifestPath
	e.sendProgress(prog, manifestUpdate(manifestPath))

	e.logger.Info("bulk export finished",
		"total", result.TotalPlaylists,
		"succeeded", result.SuccessfulExports,
		"failed", result.FailedExports,
		"dir", opts.OutputDir,
	)
	return result, nil
}

// exportWorker is a worker goroutine that exports playlists from the jobs channel.
func (e *ExportEngine) exportWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	jobs <-chan PlaylistExportJob,
	results chan<- PlaylistExportResult,
	opts BulkExportOpts,
) {
	defer wg.Done()

	for job := range jobs {
		if ctx.Err() != nil {
			return
		}

		start := time.Now()
		res := PlaylistExportResult{
			PlaylistID:   job.PlaylistID,
			PlaylistName: job.Export.Playlist.Name,
			Files:        []string{},
		}

		files, err := formatter.WriteExport(job.Export, opts.Format, opts.OutputDir)
		if err != nil {
			res.Error = err
		} else {
			res.Files = files
			res.Success = true
			metrics.ExportDuration.Observe(time.Since(start).Seconds())
		}
		results <- res
	}
}
