package tasks

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/hyeonlog/booklog/internal/formatter"
	"github.com/hyeonlog/booklog/internal/models"
	"github.com/hyeonlog/booklog/internal/shared"
)

// maxCoverBytes caps a downloaded cover image.
const maxCoverBytes = 10 << 20 // 10MB

// ArchiveOpts contains configuration for archive runs.
type ArchiveOpts struct {
	Format     string  // List format: json, csv, markdown, yaml
	OutputDir  string  // Base output directory (default: booklog_archive_{epoch})
	WithCovers bool    // Download cover images alongside the list
	NumWorkers int     // Concurrent download workers (default: 4)
	RateLimit  float64 // Cover requests per second (default: 5)
}

// coverJob is one cover image to download.
type coverJob struct {
	step  int
	book  models.Book
	total int
}

// Archive writes the book list to disk in the requested format and, when
// opts.WithCovers is set, downloads cover images concurrently with rate
// limiting and progress tracking.
//
// Cover downloads use a worker pool so one slow host cannot serialize the
// run. Partial failures are recorded in the result and the manifest rather
// than aborting the archive.
func (e *ArchiveEngine) Archive(
	ctx context.Context,
	prog chan<- ProgressUpdate,
	books []models.Book,
	opts ArchiveOpts,
) (*ArchiveResult, error) {
	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("booklog_archive_%d", time.Now().Unix())
	}
	if opts.Format == "" {
		opts.Format = "json"
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 4
	}
	if opts.NumWorkers > 8 {
		opts.NumWorkers = 8
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 5.0
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	result := &ArchiveResult{
		TotalBooks:      len(books),
		OutputDirectory: opts.OutputDir,
	}

	e.sendProgress(prog, writingListUpdate(len(books), opts.Format))

	listPath := filepath.Join(opts.OutputDir, "books."+listExtension(opts.Format))
	if err := formatter.WriteExport(books, opts.Format, listPath); err != nil {
		return nil, err
	}
	result.ListFile = listPath

	if opts.WithCovers {
		if err := e.fetchCovers(ctx, prog, books, opts, result); err != nil {
			return result, err
		}
	}

	manifestPath := filepath.Join(opts.OutputDir, "archive_manifest.json")
	e.sendProgress(prog, writingManifestUpdate(manifestPath))

	data, err := shared.MarshalJSON(result, true)
	if err != nil {
		return result, fmt.Errorf("archive completed but failed to build manifest: %w", err)
	}
	if err := os.WriteFile(manifestPath, data, 0644); err != nil {
		return result, fmt.Errorf("archive completed but failed to write manifest: %w", err)
	}
	result.ManifestPath = manifestPath
	return result, nil
}

// fetchCovers downloads every cover image referenced by the list into a
// covers/ subdirectory using a bounded worker pool.
func (e *ArchiveEngine) fetchCovers(
	ctx context.Context,
	prog chan<- ProgressUpdate,
	books []models.Book,
	opts ArchiveOpts,
	result *ArchiveResult,
) error {
	withCovers := make([]models.Book, 0, len(books))
	for _, book := range books {
		if book.CoverImageURL != "" {
			withCovers = append(withCovers, book)
		}
	}
	result.CoversRequested = len(withCovers)
	if len(withCovers) == 0 {
		return nil
	}

	coverDir := filepath.Join(opts.OutputDir, "covers")
	if err := os.MkdirAll(coverDir, 0755); err != nil {
		return fmt.Errorf("failed to create cover directory: %w", err)
	}

	e.sendProgress(prog, fetchingCoversUpdate(len(withCovers)))

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)

	jobs := make(chan coverJob, len(withCovers))
	results := make(chan CoverResult, len(withCovers))

	var wg sync.WaitGroup
	for i := 0; i < opts.NumWorkers; i++ {
		wg.Add(1)
		go e.coverWorker(ctx, &wg, limiter, coverDir, jobs, results)
	}

	for i, book := range withCovers {
		jobs <- coverJob{step: i + 1, total: len(withCovers), book: book}
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	for res := range results {
		completed++
		result.Covers = append(result.Covers, res)

		if res.Error == "" {
			result.CoversSaved++
			e.sendProgress(prog, coverSavedUpdate(completed, len(withCovers), res.Title, res.File))
		} else {
			result.CoversFailed++
			e.sendProgress(prog, coverFailedUpdate(completed, len(withCovers), res.Title, fmt.Errorf("%s", res.Error)))
		}
	}
	return nil
}

// coverWorker is a worker goroutine that downloads covers from the jobs channel.
func (e *ArchiveEngine) coverWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	limiter *rate.Limiter,
	coverDir string,
	jobs <-chan coverJob,
	results chan<- CoverResult,
) {
	defer wg.Done()

	for job := range jobs {
		res := CoverResult{BookID: job.book.ID, Title: job.book.Title}

		if err := limiter.Wait(ctx); err != nil {
			res.Error = err.Error()
			results <- res
			continue
		}

		file, err := e.downloadCover(ctx, job.book, coverDir)
		if err != nil {
			res.Error = err.Error()
		} else {
			res.File = file
		}
		results <- res
	}
}

// downloadCover fetches one cover image and writes it next to the list.
func (e *ArchiveEngine) downloadCover(ctx context.Context, book models.Book, coverDir string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, book.CoverImageURL, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: status %d fetching cover", shared.ErrAPIRequest, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxCoverBytes+1))
	if err != nil {
		return "", fmt.Errorf("failed to read cover body: %w", err)
	}
	if len(data) > maxCoverBytes {
		return "", fmt.Errorf("%w: over %d bytes", shared.ErrImageTooLarge, maxCoverBytes)
	}

	contentType := http.DetectContentType(data)
	ext, ok := coverExtension(contentType)
	if !ok {
		return "", fmt.Errorf("%w: detected %s", shared.ErrNotAnImage, contentType)
	}

	path := filepath.Join(coverDir, fmt.Sprintf("book_%d%s", book.ID, ext))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write cover: %w", err)
	}
	return path, nil
}

func coverExtension(contentType string) (string, bool) {
	switch contentType {
	case "image/jpeg":
		return ".jpg", true
	case "image/png":
		return ".png", true
	case "image/gif":
		return ".gif", true
	case "image/webp":
		return ".webp", true
	default:
		return "", false
	}
}

func listExtension(format string) string {
	switch strings.ToLower(format) {
	case "csv":
		return "csv"
	case "markdown", "md":
		return "md"
	case "yaml", "yml":
		return "yaml"
	default:
		return "json"
	}
}
