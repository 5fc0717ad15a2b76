package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"golang.org/x/time/rate"
	"google.golang.org/api/option"

	"github.com/ytget/ytplfilter"
	"github.com/ytget/ytplfilter/client"
	"github.com/ytget/ytplfilter/downloader"
	"github.com/ytget/ytplfilter/errs"
	"github.com/ytget/ytplfilter/filter"
	"github.com/ytget/ytplfilter/internal/logger"
	"github.com/ytget/ytplfilter/internal/sanitize"
	"github.com/ytget/ytplfilter/youtube/apiv3"
	"github.com/ytget/ytplfilter/youtube/innertube"
)

const (
	envAPIKey     = "YTPLFILTER_API_KEY"
	thumbnailsDir = "thumbnails"

	exitOK    = 0
	exitFetch = 1
	exitInput = 2
)

type options struct {
	key          string
	fallbackKeys string
	query        string
	fields       filter.Fields
	jsonOut      bool
	saveDir      string
	thumbnails   bool
	thumbWorkers int
	backend      string
	timeout      time.Duration
	retries      int
	ua           string
	proxy        string
	pageRate     float64
	maxPages     int
	logLevel     string
	logFormat    string
	logConfig    string
	input        string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr, os.Getenv)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer, getenv func(string) string) int {
	opts, err := parseFlags(args, stderr, getenv)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitInput
	}

	log, err := setupLogger(opts, getenv)
	if err != nil {
		fmt.Fprintf(stderr, "Invalid log configuration: %v\n", err)
		return exitInput
	}
	logger.SetGlobalLogger(log)
	appLog := log.WithComponent(logger.ComponentApp)

	searcher, err := newSearcher(ctx, opts, log)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitCode(err)
	}

	records, err := searcher.Search(ctx, ytplfilter.Request{
		PlaylistURL: opts.input,
		Query:       opts.query,
		Fields:      opts.fields,
	})
	if err != nil {
		appLog.Error("search failed", logger.Fields{"error": err})
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitCode(err)
	}

	if opts.jsonOut {
		err = writeJSON(stdout, records)
	} else {
		err = writeText(stdout, records)
	}
	if err != nil {
		fmt.Fprintf(stderr, "Failed to write results: %v\n", err)
		return exitFetch
	}

	if opts.saveDir != "" {
		path, err := saveResults(opts.saveDir, opts.input, opts.query, records)
		if err != nil {
			fmt.Fprintf(stderr, "Failed to save results: %v\n", err)
			return exitFetch
		}
		appLog.Info("results saved", logger.Fields{"path": path, "records": len(records)})

		if opts.thumbnails {
			d := downloader.New(searcher.Client(), nil).
				WithWorkers(opts.thumbWorkers).
				WithLogger(log)
			if _, err := d.SaveThumbnails(ctx, records, filepath.Join(opts.saveDir, thumbnailsDir)); err != nil {
				fmt.Fprintf(stderr, "Failed to save some thumbnails: %v\n", err)
				return exitFetch
			}
		}
	}
	return exitOK
}

func parseFlags(args []string, stderr io.Writer, getenv func(string) string) (*options, error) {
	fs := flag.NewFlagSet("ytplfilter", flag.ContinueOnError)
	fs.SetOutput(stderr)

	opts := &options{}
	fs.StringVar(&opts.key, "key", "", "YouTube Data API key (default $"+envAPIKey+")")
	fs.StringVar(&opts.fallbackKeys, "fallback-keys", "", "Comma-separated keys tried when the key runs out of quota")
	fs.StringVar(&opts.query, "query", "", `Keyword query, e.g. 'go "live session" -remix'`)
	fs.BoolVar(&opts.fields.Title, "title", true, "Match against video titles")
	fs.BoolVar(&opts.fields.Description, "description", true, "Match against video descriptions")
	fs.BoolVar(&opts.fields.Channel, "channel", true, "Match against channel names")
	fs.BoolVar(&opts.jsonOut, "json", false, "Print results as JSON")
	fs.StringVar(&opts.saveDir, "save", "", "Directory to save results as a JSON file")
	fs.BoolVar(&opts.thumbnails, "thumbnails", false, "With -save, also download result thumbnails")
	fs.IntVar(&opts.thumbWorkers, "thumbnail-workers", 4, "Parallel thumbnail downloads")
	fs.StringVar(&opts.backend, "backend", "rest", "Page source: rest, sdk or innertube (no key, no descriptions)")
	fs.DurationVar(&opts.timeout, "http-timeout", 30*time.Second, "HTTP timeout (e.g., 30s, 1m)")
	fs.IntVar(&opts.retries, "retries", 1, "HTTP attempts for transient errors (rest backend)")
	fs.StringVar(&opts.ua, "ua", "", "Override User-Agent header")
	fs.StringVar(&opts.proxy, "proxy", "", "Proxy URL (http/https/socks5)")
	fs.Float64Var(&opts.pageRate, "page-rate", 0, "Max page requests per second (0 means unlimited)")
	fs.IntVar(&opts.maxPages, "max-pages", 0, "Max pages per search (0 means all)")
	fs.StringVar(&opts.logLevel, "log-level", "", "Log level: TRACE, DEBUG, INFO, WARN, ERROR")
	fs.StringVar(&opts.logFormat, "log-format", "", "Log format: text, json, color")
	fs.StringVar(&opts.logConfig, "log-config", "", "Logger configuration JSON file")

	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: ytplfilter [flags] <playlist_url_or_id>\n")
		fmt.Fprintln(stderr, "\nFlags:")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() < 1 {
		fs.Usage()
		return nil, errors.New("missing playlist")
	}
	opts.input = strings.TrimSpace(fs.Arg(0))
	if opts.key == "" {
		opts.key = strings.TrimSpace(getenv(envAPIKey))
	}
	if opts.thumbnails && opts.saveDir == "" {
		fmt.Fprintln(stderr, "-thumbnails requires -save")
		return nil, errors.New("thumbnails without save dir")
	}
	switch opts.backend {
	case "rest", "sdk", "innertube":
	default:
		fmt.Fprintf(stderr, "Unknown backend %q (want rest, sdk or innertube)\n", opts.backend)
		return nil, errors.New("unknown backend")
	}
	return opts, nil
}

func setupLogger(opts *options, getenv func(string) string) (*logger.Logger, error) {
	cfg := logger.DefaultLogConfig()
	if opts.logConfig != "" {
		loaded, err := logger.LoadConfigFromFile(opts.logConfig)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	cfg.ApplyEnv(getenv)
	if opts.logLevel != "" {
		cfg.Level = opts.logLevel
	}
	if opts.logFormat != "" {
		cfg.Format = opts.logFormat
	}
	if err := cfg.ValidateConfig(); err != nil {
		return nil, err
	}
	return logger.CreateLoggerFromConfig(cfg)
}

func newSearcher(ctx context.Context, opts *options, log *logger.Logger) (*ytplfilter.Searcher, error) {
	c := client.NewWith(client.Config{
		Timeout:   opts.timeout,
		Retries:   opts.retries,
		UserAgent: opts.ua,
		ProxyURL:  opts.proxy,
	})

	s := ytplfilter.New(opts.key).
		WithClient(c).
		WithFallbackKeys(splitKeys(opts.fallbackKeys)...).
		WithRateLimit(rate.Limit(opts.pageRate), 1).
		WithMaxPages(opts.maxPages).
		WithLogger(log)

	switch opts.backend {
	case "innertube":
		if descriptionsOnly(opts.query, opts.fields) {
			log.WithComponent(logger.ComponentApp).Warn("the innertube backend has no descriptions; plain terms cannot match")
		}
		s = s.WithSource(innertube.New(c).WithLogger(log))
	case "sdk":
		if opts.key == "" {
			return nil, fmt.Errorf("%w: no api key", errs.ErrInvalidCredential)
		}
		if opts.fallbackKeys != "" {
			log.WithComponent(logger.ComponentApp).Warn("fallback keys are ignored by the sdk backend")
		}
		src, err := apiv3.NewWithKey(ctx, opts.key,
			option.WithHTTPClient(apiv3.KeyedHTTPClient(c.HTTPClient, opts.key)),
			option.WithUserAgent(c.UserAgent),
		)
		if err != nil {
			return nil, err
		}
		s = s.WithSource(src.WithLogger(log))
	}
	return s, nil
}

func splitKeys(s string) []string {
	var keys []string
	for _, k := range strings.Split(s, ",") {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}

// exitCode maps input mistakes to 2 and everything else to 1.
func exitCode(err error) int {
	var syntaxErr *errs.SyntaxError
	switch {
	case errors.As(err, &syntaxErr),
		errors.Is(err, errs.ErrNoPlaylistMarker),
		errors.Is(err, errs.ErrEmptyPlaylistID),
		errors.Is(err, errs.ErrInvalidCredential) && !isAPIError(err):
		return exitInput
	}
	return exitFetch
}

func isAPIError(err error) bool {
	var apiErr *errs.APIError
	return errors.As(err, &apiErr)
}

func writeText(w io.Writer, records []ytplfilter.VideoRecord) error {
	if len(records) == 0 {
		_, err := fmt.Fprintln(w, "No matching videos")
		return err
	}
	for i, r := range records {
		if _, err := fmt.Fprintf(w, "%3d. %s\n     %s | %s\n", i+1, r.Title, r.ChannelTitle, r.WatchURL()); err != nil {
			return err
		}
	}
	return nil
}

func writeJSON(w io.Writer, records []ytplfilter.VideoRecord) error {
	if records == nil {
		records = []ytplfilter.VideoRecord{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}

func saveResults(dir, input, rawQuery string, records []ytplfilter.VideoRecord) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	id, err := ytplfilter.ResolvePlaylistID(input)
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, sanitize.ResultsFilename(id, rawQuery))
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if err := writeJSON(f, records); err != nil {
		_ = f.Close()
		return "", err
	}
	return path, f.Close()
}

// descriptionsOnly reports whether a non-empty query searches no field but the
// description, which the innertube backend always leaves empty.
func descriptionsOnly(rawQuery string, fields filter.Fields) bool {
	fields.Description = false
	return strings.TrimSpace(rawQuery) != "" && fields.None()
}
