package scraper

import (
	"context"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"studyagent/internal/domain"
)

// InfostartParser extracts 1C knowledge-base posts from infostart.ru.
// Author and date are frequently missing from the page markup; the body
// lives in one of several wrapper divs depending on post type.
type InfostartParser struct {
	client *http.Client
}

// NewInfostartParser wires an HTTP client; nil falls back to the default.
func NewInfostartParser(client *http.Client) *InfostartParser {
	if client == nil {
		client = defaultClient()
	}
	return &InfostartParser{client: client}
}

func (p *InfostartParser) Host() string              { return "infostart.ru" }
func (p *InfostartParser) Source() domain.SourceKind { return domain.SourceInfostart }

// Parse loads the post page and pulls the structured fields.
func (p *InfostartParser) Parse(ctx context.Context, url string) (domain.ContentRecord, error) {
	doc, err := fetchDocument(ctx, p.client, url)
	if err != nil {
		return domain.ContentRecord{}, err
	}

	title := strings.TrimSpace(doc.Find("h1.main-title").First().Text())

	var author string
	doc.Find("a[href*='/users/']").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		author = strings.TrimSpace(sel.Text())
		return author == ""
	})

	content := infostartContent(doc)

	return domain.ContentRecord{
		URL:           url,
		Source:        domain.SourceInfostart,
		Title:         title,
		Author:        author,
		Content:       content,
		ContentLength: len([]rune(content)),
	}, nil
}

func infostartContent(doc *goquery.Document) string {
	body := doc.Find("div.kurs-spoiler").First()
	if body.Length() == 0 {
		body = doc.Find("div.public-text-wrapper").First()
	}
	if body.Length() == 0 {
		body = doc.Find("div.content").First()
	}
	if body.Length() == 0 {
		return ""
	}

	body.Find("script, style, aside, iframe, nav").Remove()
	body.Find("div.forum-message-wrap, div.comments, div.comment").Remove()

	raw := body.Text()
	var lines []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		// Lone ">" lines are breadcrumb navigation leftovers.
		if line == "" || line == ">" {
			continue
		}
		lines = append(lines, line)
	}

	return truncate(collapseBlankLines(strings.Join(lines, "\n")), maxContentLength)
}
