package scraper

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"programs-assistant/internal/config"
	"programs-assistant/internal/storage"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/schollz/progressbar/v3"
)

const (
	BrowserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

	pdfTimeout  = 30 * time.Second
	pageTimeout = 15 * time.Second
)

type Scraper struct {
	client     *resty.Client
	store      storage.Provider
	programs   []config.Program
	extractPDF func([]byte) (string, error)
	progress   io.Writer
}

type Option func(*Scraper)

// WithClient replaces the HTTP client, mostly useful to point the scraper at
// a test server.
func WithClient(client *resty.Client) Option {
	return func(s *Scraper) { s.client = client }
}

func WithPDFExtractor(extract func([]byte) (string, error)) Option {
	return func(s *Scraper) { s.extractPDF = extract }
}

// WithProgress sets where progress bars are drawn. Passing nil disables them.
func WithProgress(w io.Writer) Option {
	return func(s *Scraper) { s.progress = w }
}

func NewScraper(store storage.Provider, programs []config.Program, opts ...Option) *Scraper {
	s := &Scraper{
		client:     resty.New(),
		store:      store,
		programs:   programs,
		extractPDF: ExtractPDFText,
		progress:   os.Stderr,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func storageKey(path string) string {
	return filepath.ToSlash(filepath.Clean(path))
}

func (s *Scraper) newBar(total int, description string) *progressbar.ProgressBar {
	if s.progress == nil {
		return progressbar.DefaultSilent(int64(total), description)
	}
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(s.progress),
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWidth(30),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
}

func (s *Scraper) fetch(ctx context.Context, url string, timeout time.Duration, headers map[string]string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	res, err := s.client.R().
		SetContext(ctx).
		SetHeaders(headers).
		Get(url)
	if err != nil {
		return nil, fmt.Errorf("request to %s failed: %w", url, err)
	}

	if !res.IsSuccess() {
		return nil, fmt.Errorf("request to %s returned status %d", url, res.StatusCode())
	}

	return res.Body(), nil
}

// DownloadPDFs fetches every program's curriculum PDF that is not already in
// storage. Existing PDFs are left untouched.
func (s *Scraper) DownloadPDFs(ctx context.Context) {
	slog.Info("starting pdf downloads")

	bar := s.newBar(len(s.programs), "downloading plans")
	defer bar.Finish() //nolint:errcheck

	for _, program := range s.programs {
		bar.Add(1) //nolint:errcheck

		if program.PlanPDF == "" || program.PlanPDFURL == "" {
			continue
		}

		key := storageKey(program.PlanPDF)

		exists, err := s.store.Exists(ctx, key)
		if err != nil {
			slog.Error("error checking for existing pdf", "program", program.Key, "key", key, "error", err)
			continue
		}
		if exists {
			slog.Info("pdf already exists, skipping", "program", program.Key, "key", key)
			continue
		}

		slog.Info("downloading pdf", "program", program.Key, "url", program.PlanPDFURL)
		body, err := s.fetch(ctx, program.PlanPDFURL, pdfTimeout, nil)
		if err != nil {
			slog.Error("error downloading pdf, the link may be stale; place the file manually", "program", program.Key, "key", key, "error", err)
			continue
		}

		if err := s.store.PutObject(ctx, key, bytes.NewReader(body)); err != nil {
			slog.Error("error saving pdf", "program", program.Key, "key", key, "error", err)
			continue
		}
		slog.Info("pdf saved", "program", program.Key, "key", key, "bytes", len(body))
	}
}

// ParseWebsites fetches each program page and stores its visible text.
func (s *Scraper) ParseWebsites(ctx context.Context) {
	slog.Info("starting website parsing")

	headers := map[string]string{"User-Agent": BrowserUserAgent}

	bar := s.newBar(len(s.programs), "parsing pages")
	defer bar.Finish() //nolint:errcheck

	for _, program := range s.programs {
		bar.Add(1) //nolint:errcheck

		if program.URL == "" {
			continue
		}

		slog.Info("parsing page", "program", program.Key, "url", program.URL)
		body, err := s.fetch(ctx, program.URL, pageTimeout, headers)
		if err != nil {
			slog.Error("unable to fetch program page", "program", program.Key, "url", program.URL, "error", err)
			continue
		}

		text, err := ExtractPageText(bytes.NewReader(body))
		if err != nil {
			slog.Error("unable to extract page text", "program", program.Key, "url", program.URL, "error", err)
			continue
		}

		key := storageKey(program.PageText)
		if err := s.store.PutObject(ctx, key, strings.NewReader(text)); err != nil {
			slog.Error("error saving page text", "program", program.Key, "key", key, "error", err)
			continue
		}
		slog.Info("page text saved", "program", program.Key, "key", key)
	}
}

// ExtractPlans converts every stored curriculum PDF into cleaned plain text.
func (s *Scraper) ExtractPlans(ctx context.Context) {
	slog.Info("starting pdf text extraction")

	bar := s.newBar(len(s.programs), "extracting plans")
	defer bar.Finish() //nolint:errcheck

	for _, program := range s.programs {
		bar.Add(1) //nolint:errcheck

		if program.PlanPDF == "" {
			continue
		}

		pdfKey := storageKey(program.PlanPDF)
		contents, err := s.store.GetObject(ctx, pdfKey)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				slog.Warn("pdf not found, skipping", "program", program.Key, "key", pdfKey)
			} else {
				slog.Error("error reading pdf", "program", program.Key, "key", pdfKey, "error", err)
			}
			continue
		}

		slog.Info("processing pdf", "program", program.Key, "key", pdfKey)
		raw, err := s.extractPDF(contents)
		if err != nil {
			slog.Error("error processing pdf", "program", program.Key, "key", pdfKey, "error", err)
			continue
		}

		key := storageKey(program.PlanText)
		if err := s.store.PutObject(ctx, key, strings.NewReader(CleanPlanText(raw))); err != nil {
			slog.Error("error saving plan text", "program", program.Key, "key", key, "error", err)
			continue
		}
		slog.Info("plan text saved", "program", program.Key, "key", key)
	}
}

func (s *Scraper) Run(ctx context.Context) {
	s.DownloadPDFs(ctx)
	s.ParseWebsites(ctx)
	s.ExtractPlans(ctx)
	slog.Info("data preparation complete")
}
