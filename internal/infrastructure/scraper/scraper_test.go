package scraper

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"studyagent/internal/domain"
)

type stubParser struct {
	host   string
	source domain.SourceKind
	rec    domain.ContentRecord
	err    error
}

func (p *stubParser) Host() string              { return p.host }
func (p *stubParser) Source() domain.SourceKind { return p.source }
func (p *stubParser) Parse(ctx context.Context, url string) (domain.ContentRecord, error) {
	return p.rec, p.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestFetchRoutesByHost(t *testing.T) {
	t.Parallel()

	want := domain.ContentRecord{URL: "https://habr.com/x", Source: domain.SourceHabr, Title: "hit"}
	svc := NewService(discardLogger(),
		&stubParser{host: "github.com", source: domain.SourceGitHub},
		&stubParser{host: "habr.com", source: domain.SourceHabr, rec: want},
	)

	rec, err := svc.Fetch(context.Background(), "https://habr.com/ru/articles/1/")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if rec.Title != "hit" {
		t.Fatalf("routed to wrong parser: %+v", rec)
	}
}

func TestFetchUnsupportedHost(t *testing.T) {
	t.Parallel()

	svc := NewService(discardLogger(), &stubParser{host: "habr.com", source: domain.SourceHabr})
	_, err := svc.Fetch(context.Background(), "https://example.com/post")
	if !errors.Is(err, domain.ErrUnsupportedSource) {
		t.Fatalf("err = %v, want ErrUnsupportedSource", err)
	}
}

func TestTruncateKeepsShortText(t *testing.T) {
	t.Parallel()

	if got := truncate("short", 100); got != "short" {
		t.Fatalf("got %q", got)
	}
	long := strings.Repeat("я", 150)
	got := truncate(long, 100)
	if len([]rune(got)) != 103 || !strings.HasSuffix(got, "...") {
		t.Fatalf("truncated to %d runes", len([]rune(got)))
	}
}

func TestCollapseBlankLines(t *testing.T) {
	t.Parallel()

	got := collapseBlankLines("a\n\n\n\n\nb")
	if got != "a\n\nb" {
		t.Fatalf("got %q", got)
	}
}

const habrPage = `<html><body>
<h1 class="tm-title">Как мы написали парсер</h1>
<a class="tm-user-info__username"><span>ivanov</span></a>
<span class="tm-article-datetime-published">15 янв 2026</span>
<div id="post-content-body">
  <script>tracking();</script>
  <p>Первый абзац.</p>
  <h2>Раздел</h2>
  <li>пункт списка</li>
  <pre>code()</pre>
</div>
</body></html>`

func TestHabrParse(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, habrPage)
	}))
	defer server.Close()

	parser := NewHabrParser(server.Client())
	rec, err := parser.Parse(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if rec.Source != domain.SourceHabr {
		t.Fatalf("source = %s", rec.Source)
	}
	if rec.Title != "Как мы написали парсер" {
		t.Fatalf("title = %q", rec.Title)
	}
	if rec.Author != "ivanov" {
		t.Fatalf("author = %q", rec.Author)
	}
	if rec.PublishedDate != "15 янв 2026" {
		t.Fatalf("date = %q", rec.PublishedDate)
	}
	if strings.Contains(rec.Content, "tracking") {
		t.Fatal("script text leaked into content")
	}
	for _, want := range []string{"Первый абзац.", "Раздел", "пункт списка", "code()"} {
		if !strings.Contains(rec.Content, want) {
			t.Fatalf("content missing %q: %q", want, rec.Content)
		}
	}
	if rec.ContentLength != len([]rune(rec.Content)) {
		t.Fatal("content length mismatch")
	}
}

func TestHabrParseHTTPError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer server.Close()

	parser := NewHabrParser(server.Client())
	_, err := parser.Parse(context.Background(), server.URL)
	if !errors.Is(err, domain.ErrFetchFailed) {
		t.Fatalf("err = %v, want ErrFetchFailed", err)
	}
}

const infostartPage = `<html><body>
<h1 class="main-title">Обмен между базами</h1>
<a href="/users/42/">petrov</a>
<div class="content">
  <p>Описание механизма.</p>
  <p>></p>
  <div class="comments"><p>первый!</p></div>
</div>
</body></html>`

func TestInfostartParse(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, infostartPage)
	}))
	defer server.Close()

	parser := NewInfostartParser(server.Client())
	rec, err := parser.Parse(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if rec.Title != "Обмен между базами" {
		t.Fatalf("title = %q", rec.Title)
	}
	if rec.Author != "petrov" {
		t.Fatalf("author = %q", rec.Author)
	}
	if !strings.Contains(rec.Content, "Описание механизма.") {
		t.Fatalf("content = %q", rec.Content)
	}
	if strings.Contains(rec.Content, "первый!") {
		t.Fatal("comment text leaked into content")
	}
	for _, line := range strings.Split(rec.Content, "\n") {
		if strings.TrimSpace(line) == ">" {
			t.Fatal("breadcrumb leftover kept in content")
		}
	}
}
