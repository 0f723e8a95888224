package scraper

import (
	"context"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"studyagent/internal/domain"
)

// HabrParser extracts title, author, publication date, and article body
// from habr.com article pages.
type HabrParser struct {
	client *http.Client
}

// NewHabrParser wires an HTTP client; nil falls back to a 10s-timeout default.
func NewHabrParser(client *http.Client) *HabrParser {
	if client == nil {
		client = defaultClient()
	}
	return &HabrParser{client: client}
}

func (p *HabrParser) Host() string              { return "habr.com" }
func (p *HabrParser) Source() domain.SourceKind { return domain.SourceHabr }

// Parse loads the article page and pulls the structured fields.
func (p *HabrParser) Parse(ctx context.Context, url string) (domain.ContentRecord, error) {
	doc, err := fetchDocument(ctx, p.client, url)
	if err != nil {
		return domain.ContentRecord{}, err
	}

	title := strings.TrimSpace(doc.Find("h1.tm-title").First().Text())
	author := habrAuthor(doc)
	date := strings.TrimSpace(doc.Find("span.tm-article-datetime-published").First().Text())
	content := habrContent(doc)

	return domain.ContentRecord{
		URL:           url,
		Source:        domain.SourceHabr,
		Title:         title,
		Author:        author,
		PublishedDate: date,
		Content:       content,
		ContentLength: len([]rune(content)),
	}, nil
}

func habrAuthor(doc *goquery.Document) string {
	link := doc.Find("a.tm-user-info__username").First()
	if link.Length() == 0 {
		return ""
	}
	if span := link.Find("span").First(); span.Length() > 0 {
		return strings.TrimSpace(span.Text())
	}
	return strings.TrimSpace(link.Text())
}

func habrContent(doc *goquery.Document) string {
	body := doc.Find("#post-content-body").First()
	if body.Length() == 0 {
		return ""
	}

	body.Find("script, style, aside").Remove()

	var lines []string
	body.Find("p, h1, h2, h3, h4, li, pre, blockquote").Each(func(_ int, sel *goquery.Selection) {
		if text := strings.TrimSpace(sel.Text()); text != "" {
			lines = append(lines, text)
		}
	})
	if len(lines) == 0 {
		lines = append(lines, strings.TrimSpace(body.Text()))
	}

	return truncate(strings.Join(lines, "\n"), maxContentLength)
}
