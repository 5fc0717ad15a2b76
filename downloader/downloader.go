// Package downloader saves the thumbnail images of search results next to
// the saved result file.
package downloader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/time/rate"

	"github.com/ytget/ytplfilter/client"
	"github.com/ytget/ytplfilter/internal/logger"
	"github.com/ytget/ytplfilter/internal/sanitize"
	"github.com/ytget/ytplfilter/types"
)

const (
	temporaryFileSuffix = ".tmp"
	defaultImageExt     = "jpg"
	defaultWorkers      = 1
	maxImageBytes       = 4 << 20
)

// ErrEmptyImage is returned when the server answers with no bytes.
var ErrEmptyImage = errors.New("empty image")

// Progress reports how many thumbnails have been handled so far.
type Progress struct {
	Done    int
	Total   int
	VideoID string
	Err     error
}

// Result summarizes one SaveThumbnails call.
type Result struct {
	Saved   int
	Skipped int
	Failed  int
}

// Downloader fetches thumbnails with a shared client, optional request pacing
// and a fixed number of workers.
type Downloader struct {
	Client       *client.Client
	ProgressFunc func(Progress)

	workers int
	limiter *rate.Limiter
	log     *logger.ComponentLogger
}

// New creates a downloader. A nil c uses client.New().
func New(c *client.Client, progressFunc func(Progress)) *Downloader {
	if c == nil {
		c = client.New()
	}
	return &Downloader{
		Client:       c,
		ProgressFunc: progressFunc,
		workers:      defaultWorkers,
		log:          logger.WithComponent(logger.ComponentDownloader),
	}
}

// WithWorkers sets the number of parallel downloads. Values below 1 mean 1.
func (d *Downloader) WithWorkers(n int) *Downloader {
	if n < 1 {
		n = 1
	}
	d.workers = n
	return d
}

// WithRateLimit paces image requests to r per second. Zero disables pacing.
func (d *Downloader) WithRateLimit(r rate.Limit) *Downloader {
	if r <= 0 || r == rate.Inf {
		d.limiter = nil
		return d
	}
	d.limiter = rate.NewLimiter(r, 1)
	return d
}

// WithLogger routes this downloader's logs through l.
func (d *Downloader) WithLogger(l *logger.Logger) *Downloader {
	if l != nil {
		d.log = l.WithComponent(logger.ComponentDownloader)
	}
	return d
}

// SaveThumbnails writes the default thumbnail of every record into dir as
// <videoId>.<ext>. Records without a thumbnail and files already present are
// skipped. A failed image does not stop the others; the first failure is
// returned along with the counts.
func (d *Downloader) SaveThumbnails(ctx context.Context, records []types.VideoRecord, dir string) (Result, error) {
	var res Result
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return res, err
	}

	jobs := make(chan int, len(records))
	var (
		mu       sync.Mutex
		firstErr error
		wg       sync.WaitGroup
	)
	report := func(videoID string, saved, skipped bool, err error) {
		mu.Lock()
		defer mu.Unlock()
		switch {
		case err != nil:
			res.Failed++
			if firstErr == nil {
				firstErr = err
			}
		case skipped:
			res.Skipped++
		case saved:
			res.Saved++
		}
		if d.ProgressFunc != nil {
			d.ProgressFunc(Progress{Done: res.Saved + res.Skipped + res.Failed, Total: len(records), VideoID: videoID, Err: err})
		}
	}

	wg.Add(d.workers)
	for w := 0; w < d.workers; w++ {
		go func() {
			defer wg.Done()
			for idx := range jobs {
				r := records[idx]
				if r.Thumbnail.URL == "" || r.VideoID == "" {
					report(r.VideoID, false, true, nil)
					continue
				}
				if ctx.Err() != nil {
					report(r.VideoID, false, false, ctx.Err())
					continue
				}
				outPath := filepath.Join(dir, ThumbnailFilename(r))
				if _, err := os.Stat(outPath); err == nil {
					report(r.VideoID, false, true, nil)
					continue
				}
				err := d.Download(ctx, r.Thumbnail.URL, outPath)
				if err != nil {
					d.log.Warn("thumbnail download failed", logger.Fields{"video_id": r.VideoID, "error": err})
					err = fmt.Errorf("thumbnail of %s: %w", r.VideoID, err)
				}
				report(r.VideoID, err == nil, false, err)
			}
		}()
	}
	for i := range records {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	d.log.Info("thumbnails saved", logger.Fields{"dir": dir, "saved": res.Saved, "skipped": res.Skipped, "failed": res.Failed})
	return res, firstErr
}

// Download fetches rawURL into outputPath through a temporary file, so an
// interrupted download never leaves a truncated image under the final name.
func (d *Downloader) Download(ctx context.Context, rawURL, outputPath string) error {
	if d.limiter != nil {
		if err := d.limiter.Wait(ctx); err != nil {
			return err
		}
	}

	resp, err := d.Client.Get(ctx, rawURL)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("HTTP status %d", resp.StatusCode)
	}

	tmpPath := outputPath + temporaryFileSuffix
	outFile, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	n, err := io.Copy(outFile, io.LimitReader(resp.Body, maxImageBytes))
	if cerr := outFile.Close(); err == nil {
		err = cerr
	}
	if err == nil && n == 0 {
		err = ErrEmptyImage
	}
	if err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	d.log.Debug("thumbnail written", logger.Fields{"path": outputPath, "bytes": n})
	return os.Rename(tmpPath, outputPath)
}

// ThumbnailFilename names the image file of r, keeping the extension of the
// thumbnail URL when it has one.
func ThumbnailFilename(r types.VideoRecord) string {
	ext := defaultImageExt
	if u, err := url.Parse(r.Thumbnail.URL); err == nil {
		if e := strings.TrimPrefix(path.Ext(u.Path), "."); e != "" {
			ext = e
		}
	}
	return sanitize.ToSafeFilename(r.VideoID, ext)
}
