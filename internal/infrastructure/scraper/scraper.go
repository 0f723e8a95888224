package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"studyagent/internal/domain"
	"studyagent/internal/ports"
)

const (
	maxContentLength = 8000
	userAgent        = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
)

// Parser extracts a structured record from one site family.
type Parser interface {
	Host() string
	Source() domain.SourceKind
	Parse(ctx context.Context, url string) (domain.ContentRecord, error)
}

// Service routes URLs to the parser registered for their host.
type Service struct {
	parsers []Parser
	logger  *slog.Logger
}

var _ ports.ContentFetcher = (*Service)(nil)

// NewService wires the parser registry.
func NewService(logger *slog.Logger, parsers ...Parser) *Service {
	return &Service{parsers: parsers, logger: logger}
}

// Fetch resolves the parser by host substring and runs it. Unknown hosts
// surface as the unsupported-source error with no state change.
func (s *Service) Fetch(ctx context.Context, url string) (domain.ContentRecord, error) {
	url = strings.TrimSpace(url)

	for _, p := range s.parsers {
		if !strings.Contains(url, p.Host()) {
			continue
		}

		start := time.Now()
		rec, err := p.Parse(ctx, url)
		if err != nil {
			s.logger.Warn("fetch failed", "url", url, "source", p.Source(), "error", err)
			return domain.ContentRecord{}, err
		}

		s.logger.Info("fetch completed",
			"source", rec.Source,
			"title", clip(rec.Title, 50),
			"content_length", rec.ContentLength,
			"elapsed", time.Since(start).Round(10*time.Millisecond))
		return rec, nil
	}

	return domain.ContentRecord{}, fmt.Errorf("%w: %s", domain.ErrUnsupportedSource, url)
}

func fetchDocument(ctx context.Context, client *http.Client, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s returned %s", domain.ErrFetchFailed, pageURL, resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: parse document: %v", domain.ErrFetchFailed, err)
	}

	return doc, nil
}

func truncate(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit]) + "..."
}

func clip(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit])
}

// collapseBlankLines squeezes runs of three or more newlines down to two.
func collapseBlankLines(text string) string {
	for strings.Contains(text, "\n\n\n") {
		text = strings.ReplaceAll(text, "\n\n\n", "\n\n")
	}
	return text
}

func defaultClient() *http.Client {
	return &http.Client{Timeout: 10 * time.Second}
}
